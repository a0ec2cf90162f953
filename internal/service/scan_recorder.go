package service

import (
	"context"
	"sync"
	"time"

	"github.com/SergeiKhy/qr-tracker/internal/geo"
	"github.com/SergeiKhy/qr-tracker/internal/models"
	"github.com/SergeiKhy/qr-tracker/internal/repository"
	"go.uber.org/zap"
)

const (
	defaultWorkerCount   = 3
	defaultChannelBuffer = 1000
	maxRetries           = 3
	processTimeout       = 5 * time.Second
)

// ScanRecorder persists scan analytics off the request path using a
// worker pool. Recording is best-effort: a full buffer drops the event
// with a warning and the scanning user is never affected.
type ScanRecorder interface {
	Start()
	Stop()
	Enqueue(ctx context.Context, event *models.ScanEvent) error
}

type scanRecorder struct {
	statsRepo   repository.StatsRepository
	logRepo     repository.ScanLogRepository
	geoLookup   geo.Lookup
	logger      *zap.Logger
	events      chan *models.ScanEvent
	workerCount int
	wg          sync.WaitGroup
}

func NewScanRecorder(
	statsRepo repository.StatsRepository,
	logRepo repository.ScanLogRepository,
	geoLookup geo.Lookup,
	logger *zap.Logger,
) ScanRecorder {
	return &scanRecorder{
		statsRepo:   statsRepo,
		logRepo:     logRepo,
		geoLookup:   geoLookup,
		logger:      logger,
		events:      make(chan *models.ScanEvent, defaultChannelBuffer),
		workerCount: defaultWorkerCount,
	}
}

func (r *scanRecorder) Start() {
	r.logger.Info("Starting scan recorder workers", zap.Int("count", r.workerCount))

	for i := 0; i < r.workerCount; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
}

// Stop closes the queue and waits until every buffered event has been
// processed, so a graceful shutdown loses nothing already accepted.
func (r *scanRecorder) Stop() {
	r.logger.Info("Stopping scan recorder...")
	close(r.events)
	r.wg.Wait()
	r.logger.Info("Scan recorder stopped")
}

func (r *scanRecorder) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("Scan recorder worker started", zap.Int("id", id))

	for event := range r.events {
		r.process(event)
	}

	r.logger.Debug("Scan recorder worker stopped", zap.Int("id", id))
}

// process enriches one event with geo data and writes the counter and
// the log row. Each write retries a few times, then the event is
// dropped with an error log. Failures never propagate anywhere.
func (r *scanRecorder) process(event *models.ScanEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	// The lookup carries its own short timeout and degrades to nil.
	location := r.geoLookup.Resolve(ctx, event.ClientIP)

	if err := r.withRetry(func() error {
		return r.statsRepo.UpsertIncrement(ctx, event.QRCodeID, event.ScannedAt.Truncate(24*time.Hour))
	}); err != nil {
		r.logger.Error("Failed to record view counter after all retries",
			zap.Int64("qrcode_id", event.QRCodeID),
			zap.Error(err),
		)
	}

	entry := &models.ScanLog{
		QRCodeID:       event.QRCodeID,
		ClientIP:       event.ClientIP,
		UserAgent:      event.UserAgent,
		Referer:        event.Referer,
		AcceptLanguage: event.AcceptLanguage,
		ScannedAt:      event.ScannedAt,
	}
	if location != nil {
		entry.GeoCountry = &location.Country
		entry.GeoRegion = &location.Region
		entry.GeoCity = &location.City
	}

	if err := r.withRetry(func() error {
		return r.logRepo.Append(ctx, entry)
	}); err != nil {
		r.logger.Error("Failed to append scan log after all retries",
			zap.Int64("qrcode_id", event.QRCodeID),
			zap.Error(err),
		)
	}
}

func (r *scanRecorder) withRetry(fn func() error) error {
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if lastErr = fn(); lastErr == nil {
			return nil
		}
		if i < maxRetries-1 {
			time.Sleep(time.Duration(i+1) * 100 * time.Millisecond)
		}
	}
	return lastErr
}

// Enqueue hands an event to the pool without blocking the caller.
func (r *scanRecorder) Enqueue(ctx context.Context, event *models.ScanEvent) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case r.events <- event:
		return nil
	default:
		r.logger.Warn("Scan event buffer full, event dropped",
			zap.Int64("qrcode_id", event.QRCodeID),
		)
		return nil
	}
}
