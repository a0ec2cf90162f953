package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/SergeiKhy/qr-tracker/internal/models"
	"github.com/SergeiKhy/qr-tracker/internal/repository"
)

// MockQRCodeRepository implements repository.QRCodeRepository for testing
type MockQRCodeRepository struct {
	mu     sync.RWMutex
	codes  map[int64]*models.QRCode
	nextID int64

	InsertCalls int
	FailInsert  error
}

func NewMockQRCodeRepository() *MockQRCodeRepository {
	return &MockQRCodeRepository{
		codes:  make(map[int64]*models.QRCode),
		nextID: 1,
	}
}

func (m *MockQRCodeRepository) Insert(ctx context.Context, qr *models.QRCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InsertCalls++
	if m.FailInsert != nil {
		return m.FailInsert
	}

	qr.ID = m.nextID
	m.nextID++
	stored := *qr
	m.codes[qr.ID] = &stored
	return nil
}

func (m *MockQRCodeRepository) GetByID(ctx context.Context, id int64) (*models.QRCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	qr, exists := m.codes[id]
	if !exists {
		return nil, repository.ErrQRCodeNotFound
	}
	copy := *qr
	return &copy, nil
}

func (m *MockQRCodeRepository) Update(ctx context.Context, id int64, changes *models.UpdateQRCodeInput) (*models.QRCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	qr, exists := m.codes[id]
	if !exists {
		return nil, repository.ErrQRCodeNotFound
	}

	if changes.Destination != nil {
		qr.Destination = *changes.Destination
	}
	if changes.Tracked != nil {
		qr.Tracked = *changes.Tracked
	}
	if changes.Color != nil {
		qr.Color = *changes.Color
	}
	if changes.Logo != nil {
		qr.Logo = changes.Logo
	}

	copy := *qr
	return &copy, nil
}

func (m *MockQRCodeRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.codes[id]; !exists {
		return repository.ErrQRCodeNotFound
	}
	delete(m.codes, id)
	return nil
}

func (m *MockQRCodeRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*models.QRCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var codes []*models.QRCode
	for _, qr := range m.codes {
		if qr.OwnerID == ownerID {
			copy := *qr
			codes = append(codes, &copy)
		}
	}
	sort.Slice(codes, func(i, j int) bool {
		return codes[i].CreatedAt.After(codes[j].CreatedAt)
	})
	return codes, nil
}

func (m *MockQRCodeRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.codes)
}

// MockCacheRepository implements repository.CacheRepository for testing
type MockCacheRepository struct {
	mu    sync.RWMutex
	cache map[int64]*models.QRCode
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		cache: make(map[int64]*models.QRCode),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, id int64) (*models.QRCode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	qr, exists := m.cache[id]
	if !exists {
		return nil, repository.ErrQRCodeNotFound
	}
	return qr, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, qr *models.QRCode, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[qr.ID] = qr
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, id)
	return nil
}

// MockStatsRepository implements repository.StatsRepository for testing.
// The increment is atomic under the lock, mirroring the single-statement
// upsert contract of the real store.
type MockStatsRepository struct {
	mu       sync.Mutex
	counters map[int64]map[string]int64 // qrcode_id -> date -> count

	UpsertCalls int
	FailUpsert  error
}

func NewMockStatsRepository() *MockStatsRepository {
	return &MockStatsRepository{
		counters: make(map[int64]map[string]int64),
	}
}

func (m *MockStatsRepository) UpsertIncrement(ctx context.Context, qrcodeID int64, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpsertCalls++
	if m.FailUpsert != nil {
		return m.FailUpsert
	}

	day := date.Format("2006-01-02")
	if m.counters[qrcodeID] == nil {
		m.counters[qrcodeID] = make(map[string]int64)
	}
	m.counters[qrcodeID][day]++
	return nil
}

func (m *MockStatsRepository) Aggregates(ctx context.Context, qrcodeID int64) (*models.ViewAggregates, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	agg := &models.ViewAggregates{}
	for day, count := range m.counters[qrcodeID] {
		agg.TotalViews += count
		t, err := time.Parse("2006-01-02", day)
		if err != nil {
			return nil, err
		}
		if agg.FirstView == nil || t.Before(*agg.FirstView) {
			first := t
			agg.FirstView = &first
		}
		if agg.LastView == nil || t.After(*agg.LastView) {
			last := t
			agg.LastView = &last
		}
	}
	return agg, nil
}

func (m *MockStatsRepository) PerDay(ctx context.Context, qrcodeID int64) ([]models.DailyViews, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var stats []models.DailyViews
	for day, count := range m.counters[qrcodeID] {
		stats = append(stats, models.DailyViews{Date: day, Views: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Date < stats[j].Date
	})
	return stats, nil
}

// MockScanLogRepository implements repository.ScanLogRepository for testing
type MockScanLogRepository struct {
	mu   sync.Mutex
	logs []models.ScanLog

	FailAppend error
}

func NewMockScanLogRepository() *MockScanLogRepository {
	return &MockScanLogRepository{}
}

func (m *MockScanLogRepository) Append(ctx context.Context, entry *models.ScanLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailAppend != nil {
		return m.FailAppend
	}

	stored := *entry
	stored.ID = int64(len(m.logs) + 1)
	m.logs = append(m.logs, stored)
	return nil
}

func (m *MockScanLogRepository) Recent(ctx context.Context, qrcodeID int64, limit int) ([]models.ScanLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var logs []models.ScanLog
	for i := len(m.logs) - 1; i >= 0 && len(logs) < limit; i-- {
		if m.logs[i].QRCodeID == qrcodeID {
			logs = append(logs, m.logs[i])
		}
	}
	return logs, nil
}

func (m *MockScanLogRepository) All(qrcodeID int64) []models.ScanLog {
	m.mu.Lock()
	defer m.mu.Unlock()

	var logs []models.ScanLog
	for _, entry := range m.logs {
		if entry.QRCodeID == qrcodeID {
			logs = append(logs, entry)
		}
	}
	return logs
}

// MockUserRepository implements repository.UserRepository for testing
type MockUserRepository struct {
	mu     sync.RWMutex
	users  map[int64]*models.User
	nextID int64
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[int64]*models.User),
		nextID: 1,
	}
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Login == user.Login {
			return repository.ErrLoginTaken
		}
	}

	user.ID = m.nextID
	m.nextID++
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *MockUserRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Login == login {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, exists := m.users[id]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	copy := *u
	return &copy, nil
}
