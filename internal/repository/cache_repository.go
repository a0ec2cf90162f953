package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/SergeiKhy/qr-tracker/internal/models"
)

// CacheRepository keeps QR code records in Redis so the scan hot path
// does not hit Postgres for popular codes.
type CacheRepository interface {
	Get(ctx context.Context, id int64) (*models.QRCode, error)
	Set(ctx context.Context, qr *models.QRCode, ttl time.Duration) error
	Delete(ctx context.Context, id int64) error
}

type cacheRepository struct {
	redis *RedisDB
}

func NewCacheRepository(redis *RedisDB) CacheRepository {
	return &cacheRepository{redis: redis}
}

func (r *cacheRepository) Get(ctx context.Context, id int64) (*models.QRCode, error) {
	data, err := r.redis.Client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		return nil, err
	}

	var qr models.QRCode
	if err := json.Unmarshal(data, &qr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal qr code: %w", err)
	}

	return &qr, nil
}

func (r *cacheRepository) Set(ctx context.Context, qr *models.QRCode, ttl time.Duration) error {
	data, err := json.Marshal(qr)
	if err != nil {
		return fmt.Errorf("failed to marshal qr code: %w", err)
	}

	return r.redis.Client.Set(ctx, r.key(qr.ID), data, ttl).Err()
}

func (r *cacheRepository) Delete(ctx context.Context, id int64) error {
	return r.redis.Client.Del(ctx, r.key(id)).Err()
}

func (r *cacheRepository) key(id int64) string {
	return "qr:" + strconv.FormatInt(id, 10)
}
