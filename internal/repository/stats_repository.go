package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/SergeiKhy/qr-tracker/internal/models"
)

// StatsRepository is the per-day view counter store. The increment is a
// single upsert statement so concurrent scans of the same code on the
// same day never lose updates.
type StatsRepository interface {
	UpsertIncrement(ctx context.Context, qrcodeID int64, date time.Time) error
	Aggregates(ctx context.Context, qrcodeID int64) (*models.ViewAggregates, error)
	PerDay(ctx context.Context, qrcodeID int64) ([]models.DailyViews, error)
}

type statsRepository struct {
	db *PostgresDB
}

func NewStatsRepository(db *PostgresDB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) UpsertIncrement(ctx context.Context, qrcodeID int64, date time.Time) error {
	query := `
		INSERT INTO daily_views (qrcode_id, view_date, view_count)
		VALUES ($1, $2, 1)
		ON CONFLICT (qrcode_id, view_date)
		DO UPDATE SET view_count = daily_views.view_count + 1
	`

	_, err := r.db.Pool.Exec(ctx, query, qrcodeID, date)
	if err != nil {
		return fmt.Errorf("failed to increment view counter: %w", err)
	}

	return nil
}

func (r *statsRepository) Aggregates(ctx context.Context, qrcodeID int64) (*models.ViewAggregates, error) {
	query := `
		SELECT
			COALESCE(SUM(view_count), 0) AS total_views,
			MIN(view_date) AS first_view,
			MAX(view_date) AS last_view
		FROM daily_views
		WHERE qrcode_id = $1
	`

	agg := &models.ViewAggregates{}
	err := r.db.Pool.QueryRow(ctx, query, qrcodeID).Scan(
		&agg.TotalViews,
		&agg.FirstView,
		&agg.LastView,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get view aggregates: %w", err)
	}

	return agg, nil
}

func (r *statsRepository) PerDay(ctx context.Context, qrcodeID int64) ([]models.DailyViews, error) {
	query := `
		SELECT view_date, view_count
		FROM daily_views
		WHERE qrcode_id = $1
		ORDER BY view_date ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, qrcodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get daily views: %w", err)
	}
	defer rows.Close()

	var stats []models.DailyViews
	for rows.Next() {
		var date time.Time
		var views int64
		if err := rows.Scan(&date, &views); err != nil {
			return nil, fmt.Errorf("failed to scan daily views row: %w", err)
		}
		stats = append(stats, models.DailyViews{
			Date:  date.Format("2006-01-02"),
			Views: views,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily views: %w", err)
	}

	return stats, nil
}
