package service

import (
	"context"
	"errors"
	"time"

	"github.com/SergeiKhy/qr-tracker/internal/models"
	"github.com/SergeiKhy/qr-tracker/internal/repository"
	"go.uber.org/zap"
)

// recentScanLimit caps the detail section of a report.
const recentScanLimit = 50

// StatsService composes counter and scan-log data into a report for the
// code's owner. The two reads are independent; a scan landing between
// them only shows up in one of the sections, which is acceptable.
type StatsService interface {
	Report(ctx context.Context, id, requesterID int64, includeDetail bool) (*models.StatsReport, error)
}

type statsService struct {
	qrRepo    repository.QRCodeRepository
	statsRepo repository.StatsRepository
	logRepo   repository.ScanLogRepository
	logger    *zap.Logger
}

func NewStatsService(
	qrRepo repository.QRCodeRepository,
	statsRepo repository.StatsRepository,
	logRepo repository.ScanLogRepository,
	logger *zap.Logger,
) StatsService {
	return &statsService{
		qrRepo:    qrRepo,
		statsRepo: statsRepo,
		logRepo:   logRepo,
		logger:    logger,
	}
}

func (s *statsService) Report(ctx context.Context, id, requesterID int64, includeDetail bool) (*models.StatsReport, error) {
	code, err := s.qrRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrQRCodeNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := AssertOwner(code, requesterID); err != nil {
		return nil, err
	}
	if !code.Tracked {
		return nil, ErrStatsUnavailable
	}

	agg, err := s.statsRepo.Aggregates(ctx, id)
	if err != nil {
		return nil, err
	}

	report := &models.StatsReport{
		QRCodeID:   id,
		TotalViews: agg.TotalViews,
		FirstView:  formatDate(agg.FirstView),
		LastView:   formatDate(agg.LastView),
	}

	if includeDetail {
		perDay, err := s.statsRepo.PerDay(ctx, id)
		if err != nil {
			return nil, err
		}
		report.PerDay = perDay

		recent, err := s.logRepo.Recent(ctx, id, recentScanLimit)
		if err != nil {
			return nil, err
		}
		report.RecentScans = recent
	}

	return report, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
