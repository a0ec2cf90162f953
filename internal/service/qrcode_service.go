package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/SergeiKhy/qr-tracker/internal/models"
	"github.com/SergeiKhy/qr-tracker/internal/qr"
	"github.com/SergeiKhy/qr-tracker/internal/repository"
	"go.uber.org/zap"
)

const cacheTTL = 24 * time.Hour

var destinationPattern = regexp.MustCompile(`^https?://[^\s]+$`)

// QRCodeService owns the lifecycle of code records: creation, field
// changes, deletion and the decision when the stored image has to be
// regenerated.
type QRCodeService interface {
	Create(ctx context.Context, input *models.CreateQRCodeInput, ownerID int64) (*models.QRCode, error)
	Modify(ctx context.Context, id, requesterID int64, changes *models.UpdateQRCodeInput) (*models.QRCode, error)
	Delete(ctx context.Context, id, requesterID int64) error
	GetByID(ctx context.Context, id int64) (*models.QRCode, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.QRCode, error)
}

type qrcodeService struct {
	qrRepo    repository.QRCodeRepository
	cacheRepo repository.CacheRepository
	renderer  qr.Renderer
	baseURL   string
	logger    *zap.Logger
}

func NewQRCodeService(
	qrRepo repository.QRCodeRepository,
	cacheRepo repository.CacheRepository,
	renderer qr.Renderer,
	baseURL string,
	logger *zap.Logger,
) QRCodeService {
	return &qrcodeService{
		qrRepo:    qrRepo,
		cacheRepo: cacheRepo,
		renderer:  renderer,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

// ScanURL builds the indirection address a tracked code's image encodes.
func (s *qrcodeService) ScanURL(id int64) string {
	return fmt.Sprintf("%s/s/%d", s.baseURL, id)
}

func (s *qrcodeService) Create(ctx context.Context, input *models.CreateQRCodeInput, ownerID int64) (*models.QRCode, error) {
	if !destinationPattern.MatchString(input.Destination) {
		return nil, ErrInvalidDestination
	}
	if _, err := qr.ParseColor(input.Color); err != nil {
		return nil, ErrInvalidColor
	}

	// Tracked by default, matching the public API contract.
	tracked := true
	if input.Tracked != nil {
		tracked = *input.Tracked
	}

	// Fail fast: a tracked code without a configured base URL would
	// produce an image encoding nothing useful. No row may exist yet.
	if tracked && s.baseURL == "" {
		return nil, ErrScanBaseNotConfigured
	}

	code := &models.QRCode{
		Destination: input.Destination,
		OwnerID:     ownerID,
		Tracked:     tracked,
		Color:       input.Color,
		Logo:        input.Logo,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.qrRepo.Insert(ctx, code); err != nil {
		return nil, err
	}

	// The payload needs the id, so rendering can only happen after the
	// insert. If it fails the fresh row is compensatingly removed: a
	// record must never exist without its image.
	payload := input.Destination
	if tracked {
		payload = s.ScanURL(code.ID)
	}

	if _, err := s.renderer.RenderToFile(code.ID, payload, code.Color, code.Logo); err != nil {
		if delErr := s.qrRepo.Delete(ctx, code.ID); delErr != nil {
			s.logger.Error("Failed to roll back qr code after render failure",
				zap.Int64("qrcode_id", code.ID),
				zap.Error(delErr),
			)
		}
		return nil, fmt.Errorf("failed to render qr image: %w", err)
	}

	s.decorate(code)

	if err := s.cacheRepo.Set(ctx, code, cacheTTL); err != nil {
		s.logger.Debug("Failed to cache qr code", zap.Int64("qrcode_id", code.ID), zap.Error(err))
	}

	return code, nil
}

// Modify applies field changes and regenerates the image only when the
// encoded payload or its look can actually differ:
//
//	tracked -> tracked:     regenerate only on color/logo change
//	untracked -> untracked: regenerate on destination or color/logo change
//	any tracking toggle:    always regenerate
func (s *qrcodeService) Modify(ctx context.Context, id, requesterID int64, changes *models.UpdateQRCodeInput) (*models.QRCode, error) {
	current, err := s.qrRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapNotFound(err)
	}
	if err := AssertOwner(current, requesterID); err != nil {
		return nil, err
	}

	if changes.Empty() {
		s.decorate(current)
		return current, nil
	}

	if changes.Destination != nil && !destinationPattern.MatchString(*changes.Destination) {
		return nil, ErrInvalidDestination
	}
	if changes.Color != nil {
		if _, err := qr.ParseColor(*changes.Color); err != nil {
			return nil, ErrInvalidColor
		}
	}

	newTracked := current.Tracked
	if changes.Tracked != nil {
		newTracked = *changes.Tracked
	}
	if newTracked && !current.Tracked && s.baseURL == "" {
		return nil, ErrScanBaseNotConfigured
	}

	trackedChanged := newTracked != current.Tracked
	destChanged := changes.Destination != nil && *changes.Destination != current.Destination
	styleChanged := (changes.Color != nil && *changes.Color != current.Color) ||
		(changes.Logo != nil && !equalLogo(changes.Logo, current.Logo))

	regenerate := trackedChanged ||
		(newTracked && styleChanged) ||
		(!newTracked && (destChanged || styleChanged))

	updated, err := s.qrRepo.Update(ctx, id, changes)
	if err != nil {
		return nil, s.mapNotFound(err)
	}

	if regenerate {
		payload := updated.Destination
		if updated.Tracked {
			payload = s.ScanURL(updated.ID)
		}
		if _, err := s.renderer.RenderToFile(updated.ID, payload, updated.Color, updated.Logo); err != nil {
			return nil, fmt.Errorf("failed to regenerate qr image: %w", err)
		}
	}

	if err := s.cacheRepo.Delete(ctx, id); err != nil {
		s.logger.Debug("Failed to invalidate qr code cache", zap.Int64("qrcode_id", id), zap.Error(err))
	}

	s.decorate(updated)
	return updated, nil
}

func (s *qrcodeService) Delete(ctx context.Context, id, requesterID int64) error {
	current, err := s.qrRepo.GetByID(ctx, id)
	if err != nil {
		return s.mapNotFound(err)
	}
	if err := AssertOwner(current, requesterID); err != nil {
		return err
	}

	// Counters and scan logs cascade at the storage layer.
	if err := s.qrRepo.Delete(ctx, id); err != nil {
		return s.mapNotFound(err)
	}

	if err := s.cacheRepo.Delete(ctx, id); err != nil {
		s.logger.Debug("Failed to invalidate qr code cache", zap.Int64("qrcode_id", id), zap.Error(err))
	}

	// Removing the file is best effort; an orphan PNG is harmless.
	if err := s.renderer.Remove(id); err != nil {
		s.logger.Warn("Failed to remove qr image file", zap.Int64("qrcode_id", id), zap.Error(err))
	}

	return nil
}

func (s *qrcodeService) GetByID(ctx context.Context, id int64) (*models.QRCode, error) {
	code, err := s.qrRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapNotFound(err)
	}
	s.decorate(code)
	return code, nil
}

func (s *qrcodeService) ListByOwner(ctx context.Context, ownerID int64) ([]*models.QRCode, error) {
	codes, err := s.qrRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	for _, code := range codes {
		s.decorate(code)
	}
	return codes, nil
}

// decorate fills the fields derived from the id.
func (s *qrcodeService) decorate(code *models.QRCode) {
	if code.Tracked {
		code.ScanURL = s.ScanURL(code.ID)
	} else {
		code.ScanURL = ""
	}
	code.ImageURL = s.renderer.PublicURL(code.ID)
}

func (s *qrcodeService) mapNotFound(err error) error {
	if errors.Is(err, repository.ErrQRCodeNotFound) {
		return ErrNotFound
	}
	return err
}

func equalLogo(a *string, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
