package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/SergeiKhy/qr-tracker/internal/models"
	"go.uber.org/zap"
)

// Lookup resolves a client address to a coarse location. Implementations
// are best-effort: nil means "unknown", never an error the caller has to
// handle on the scan path.
type Lookup interface {
	Resolve(ctx context.Context, ip string) *models.GeoLocation
}

// HTTPLookup queries an ip-api.com style JSON endpoint. Every call is
// bounded by the configured timeout; anything that goes wrong degrades
// to a nil location.
type HTTPLookup struct {
	apiURL  string
	timeout time.Duration
	client  *http.Client
	logger  *zap.Logger
}

func NewHTTPLookup(apiURL string, timeout time.Duration, logger *zap.Logger) *HTTPLookup {
	return &HTTPLookup{
		apiURL:  apiURL,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type geoResponse struct {
	Status  string `json:"status"`
	Country string `json:"country"`
	Region  string `json:"regionName"`
	City    string `json:"city"`
}

func (l *HTTPLookup) Resolve(ctx context.Context, ip string) *models.GeoLocation {
	if ip == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s/%s?fields=status,country,regionName,city", l.apiURL, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil
	}

	resp, err := l.client.Do(req)
	if err != nil {
		l.logger.Debug("Geo lookup failed", zap.String("ip", ip), zap.Error(err))
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		l.logger.Debug("Geo lookup returned non-200", zap.String("ip", ip), zap.Int("status", resp.StatusCode))
		return nil
	}

	var body geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		l.logger.Debug("Geo lookup returned bad JSON", zap.String("ip", ip), zap.Error(err))
		return nil
	}

	// ip-api reports failures (private ranges etc.) inside a 200 body.
	if body.Status != "" && body.Status != "success" {
		return nil
	}

	return &models.GeoLocation{
		Country: body.Country,
		Region:  body.Region,
		City:    body.City,
	}
}
