package repository

import (
	"context"
	"fmt"

	"github.com/SergeiKhy/qr-tracker/internal/models"
)

// ScanLogRepository is the append-only scan event log. Rows are never
// updated after insertion.
type ScanLogRepository interface {
	Append(ctx context.Context, entry *models.ScanLog) error
	Recent(ctx context.Context, qrcodeID int64, limit int) ([]models.ScanLog, error)
}

type scanLogRepository struct {
	db *PostgresDB
}

func NewScanLogRepository(db *PostgresDB) ScanLogRepository {
	return &scanLogRepository{db: db}
}

func (r *scanLogRepository) Append(ctx context.Context, entry *models.ScanLog) error {
	query := `
		INSERT INTO scan_logs (qrcode_id, client_ip, user_agent, referer, accept_language,
		                       geo_country, geo_region, geo_city, scanned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		entry.QRCodeID,
		entry.ClientIP,
		entry.UserAgent,
		entry.Referer,
		entry.AcceptLanguage,
		entry.GeoCountry,
		entry.GeoRegion,
		entry.GeoCity,
		entry.ScannedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to append scan log: %w", err)
	}

	return nil
}

func (r *scanLogRepository) Recent(ctx context.Context, qrcodeID int64, limit int) ([]models.ScanLog, error) {
	query := `
		SELECT id, qrcode_id, client_ip, user_agent, referer, accept_language,
		       geo_country, geo_region, geo_city, scanned_at
		FROM scan_logs
		WHERE qrcode_id = $1
		ORDER BY scanned_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, qrcodeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent scans: %w", err)
	}
	defer rows.Close()

	var logs []models.ScanLog
	for rows.Next() {
		var entry models.ScanLog
		if err := rows.Scan(
			&entry.ID,
			&entry.QRCodeID,
			&entry.ClientIP,
			&entry.UserAgent,
			&entry.Referer,
			&entry.AcceptLanguage,
			&entry.GeoCountry,
			&entry.GeoRegion,
			&entry.GeoCity,
			&entry.ScannedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan log row: %w", err)
		}
		logs = append(logs, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scan logs: %w", err)
	}

	return logs, nil
}
