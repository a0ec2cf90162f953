package service

import (
	"context"
	"errors"
	"time"

	"github.com/SergeiKhy/qr-tracker/internal/models"
	"github.com/SergeiKhy/qr-tracker/internal/repository"
	"go.uber.org/zap"
)

// ScanMeta is what the transport layer knows about a scanning client.
type ScanMeta struct {
	ClientIP       string
	UserAgent      string
	Referer        string
	AcceptLanguage string
}

// ScanService turns an inbound scan into a redirect target. For tracked
// codes it also queues the analytics write; for untracked codes the
// redirect is the only effect.
type ScanService interface {
	HandleScan(ctx context.Context, id int64, meta ScanMeta) (string, error)
}

type scanService struct {
	qrRepo    repository.QRCodeRepository
	cacheRepo repository.CacheRepository
	recorder  ScanRecorder
	logger    *zap.Logger
}

func NewScanService(
	qrRepo repository.QRCodeRepository,
	cacheRepo repository.CacheRepository,
	recorder ScanRecorder,
	logger *zap.Logger,
) ScanService {
	return &scanService{
		qrRepo:    qrRepo,
		cacheRepo: cacheRepo,
		recorder:  recorder,
		logger:    logger,
	}
}

func (s *scanService) HandleScan(ctx context.Context, id int64, meta ScanMeta) (string, error) {
	code, err := s.lookup(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrQRCodeNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	if !code.Tracked {
		s.logger.Debug("Scan of untracked code, nothing recorded", zap.Int64("qrcode_id", id))
		return code.Destination, nil
	}

	event := &models.ScanEvent{
		QRCodeID:       id,
		ClientIP:       meta.ClientIP,
		UserAgent:      meta.UserAgent,
		Referer:        meta.Referer,
		AcceptLanguage: meta.AcceptLanguage,
		ScannedAt:      time.Now().UTC(),
	}

	// Recording must never fail or delay the redirect.
	if err := s.recorder.Enqueue(ctx, event); err != nil {
		s.logger.Debug("Failed to enqueue scan event", zap.Int64("qrcode_id", id), zap.Error(err))
	}

	return code.Destination, nil
}

// lookup goes cache first, database second, and repopulates the cache
// on a miss.
func (s *scanService) lookup(ctx context.Context, id int64) (*models.QRCode, error) {
	code, err := s.cacheRepo.Get(ctx, id)
	if err == nil {
		return code, nil
	}

	code, err = s.qrRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cacheRepo.Set(ctx, code, cacheTTL); err != nil {
		s.logger.Debug("Failed to cache qr code", zap.Int64("qrcode_id", id), zap.Error(err))
	}

	return code, nil
}
