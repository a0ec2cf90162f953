package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/qr-tracker/internal/models"
	"github.com/jackc/pgx/v5"
)

var ErrQRCodeNotFound = errors.New("qr code not found")

// QRCodeRepository is the record store for code rows.
type QRCodeRepository interface {
	Insert(ctx context.Context, qr *models.QRCode) error
	GetByID(ctx context.Context, id int64) (*models.QRCode, error)
	Update(ctx context.Context, id int64, changes *models.UpdateQRCodeInput) (*models.QRCode, error)
	Delete(ctx context.Context, id int64) error
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.QRCode, error)
}

type qrcodeRepository struct {
	db *PostgresDB
}

func NewQRCodeRepository(db *PostgresDB) QRCodeRepository {
	return &qrcodeRepository{db: db}
}

func (r *qrcodeRepository) Insert(ctx context.Context, qr *models.QRCode) error {
	query := `
		INSERT INTO qrcodes (destination, owner_id, tracked, color, logo, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(
		ctx,
		query,
		qr.Destination,
		qr.OwnerID,
		qr.Tracked,
		qr.Color,
		qr.Logo,
		qr.CreatedAt,
	).Scan(&qr.ID, &qr.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert qr code: %w", err)
	}

	return nil
}

func (r *qrcodeRepository) GetByID(ctx context.Context, id int64) (*models.QRCode, error) {
	query := `
		SELECT id, destination, owner_id, tracked, color, logo, created_at
		FROM qrcodes
		WHERE id = $1
	`

	qr := &models.QRCode{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&qr.ID,
		&qr.Destination,
		&qr.OwnerID,
		&qr.Tracked,
		&qr.Color,
		&qr.Logo,
		&qr.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQRCodeNotFound
		}
		return nil, fmt.Errorf("failed to get qr code: %w", err)
	}

	return qr, nil
}

// Update applies only the non-nil fields and returns the resulting row.
func (r *qrcodeRepository) Update(ctx context.Context, id int64, changes *models.UpdateQRCodeInput) (*models.QRCode, error) {
	query := `
		UPDATE qrcodes
		SET destination = COALESCE($1, destination),
		    tracked = COALESCE($2, tracked),
		    color = COALESCE($3, color),
		    logo = COALESCE($4, logo)
		WHERE id = $5
		RETURNING id, destination, owner_id, tracked, color, logo, created_at
	`

	qr := &models.QRCode{}
	err := r.db.Pool.QueryRow(ctx, query,
		changes.Destination,
		changes.Tracked,
		changes.Color,
		changes.Logo,
		id,
	).Scan(
		&qr.ID,
		&qr.Destination,
		&qr.OwnerID,
		&qr.Tracked,
		&qr.Color,
		&qr.Logo,
		&qr.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQRCodeNotFound
		}
		return nil, fmt.Errorf("failed to update qr code: %w", err)
	}

	return qr, nil
}

// Delete removes the row; view counters and scan logs go with it via
// ON DELETE CASCADE.
func (r *qrcodeRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM qrcodes WHERE id = $1`

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete qr code: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrQRCodeNotFound
	}

	return nil
}

func (r *qrcodeRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*models.QRCode, error) {
	query := `
		SELECT id, destination, owner_id, tracked, color, logo, created_at
		FROM qrcodes
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list qr codes: %w", err)
	}
	defer rows.Close()

	var codes []*models.QRCode
	for rows.Next() {
		qr := &models.QRCode{}
		if err := rows.Scan(
			&qr.ID,
			&qr.Destination,
			&qr.OwnerID,
			&qr.Tracked,
			&qr.Color,
			&qr.Logo,
			&qr.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan qr code row: %w", err)
		}
		codes = append(codes, qr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating qr codes: %w", err)
	}

	return codes, nil
}
