package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/SergeiKhy/qr-tracker/internal/models"
	"github.com/SergeiKhy/qr-tracker/internal/service"
	"github.com/SergeiKhy/qr-tracker/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scanTestEnv struct {
	scanSvc   service.ScanService
	recorder  service.ScanRecorder
	qrRepo    *mocks.MockQRCodeRepository
	cacheRepo *mocks.MockCacheRepository
	statsRepo *mocks.MockStatsRepository
	logRepo   *mocks.MockScanLogRepository
	geo       *mocks.MockGeoLookup
}

// setupScanEnv wires the scan service to a running recorder with mocked
// stores. Tests call recorder.Stop() to drain the queue before asserting.
func setupScanEnv() *scanTestEnv {
	env := &scanTestEnv{
		qrRepo:    mocks.NewMockQRCodeRepository(),
		cacheRepo: mocks.NewMockCacheRepository(),
		statsRepo: mocks.NewMockStatsRepository(),
		logRepo:   mocks.NewMockScanLogRepository(),
		geo:       &mocks.MockGeoLookup{},
	}
	logger := zap.NewNop()
	env.recorder = service.NewScanRecorder(env.statsRepo, env.logRepo, env.geo, logger)
	env.recorder.Start()
	env.scanSvc = service.NewScanService(env.qrRepo, env.cacheRepo, env.recorder, logger)
	return env
}

func (env *scanTestEnv) addCode(tracked bool) *models.QRCode {
	code := &models.QRCode{
		Destination: "https://example.com/landing",
		OwnerID:     1,
		Tracked:     tracked,
		CreatedAt:   time.Now().UTC(),
	}
	env.qrRepo.Insert(context.Background(), code)
	return code
}

// TestScanService_UnknownCode verifies that scanning a missing id fails
// with the not-found sentinel and records nothing
func TestScanService_UnknownCode(t *testing.T) {
	env := setupScanEnv()
	defer env.recorder.Stop()

	target, err := env.scanSvc.HandleScan(context.Background(), 999, service.ScanMeta{})

	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Empty(t, target)
}

// TestScanService_UntrackedLeavesNoTrace verifies that an untracked scan
// redirects without touching counters or the log
func TestScanService_UntrackedLeavesNoTrace(t *testing.T) {
	env := setupScanEnv()
	code := env.addCode(false)

	target, err := env.scanSvc.HandleScan(context.Background(), code.ID, service.ScanMeta{
		ClientIP: "203.0.113.7",
	})

	require.NoError(t, err)
	assert.Equal(t, code.Destination, target)

	env.recorder.Stop()
	assert.Equal(t, 0, env.statsRepo.UpsertCalls)
	assert.Empty(t, env.logRepo.All(code.ID))
}

// TestScanService_TrackedRecordsCounterAndLog verifies the full tracked
// path: redirect plus one counter increment and one log row
func TestScanService_TrackedRecordsCounterAndLog(t *testing.T) {
	env := setupScanEnv()
	env.geo.Location = &models.GeoLocation{Country: "Germany", Region: "Berlin", City: "Berlin"}
	code := env.addCode(true)

	target, err := env.scanSvc.HandleScan(context.Background(), code.ID, service.ScanMeta{
		ClientIP:       "203.0.113.7",
		UserAgent:      "test-agent",
		Referer:        "https://referrer.example",
		AcceptLanguage: "de-DE",
	})

	require.NoError(t, err)
	assert.Equal(t, code.Destination, target)

	env.recorder.Stop()

	assert.Equal(t, 1, env.statsRepo.UpsertCalls)

	logs := env.logRepo.All(code.ID)
	require.Len(t, logs, 1)
	entry := logs[0]
	assert.Equal(t, "203.0.113.7", entry.ClientIP)
	assert.Equal(t, "test-agent", entry.UserAgent)
	assert.Equal(t, "https://referrer.example", entry.Referer)
	assert.Equal(t, "de-DE", entry.AcceptLanguage)
	require.NotNil(t, entry.GeoCountry)
	assert.Equal(t, "Germany", *entry.GeoCountry)
}

// TestScanService_GeoFailureDegrades verifies that a failed geo lookup
// leaves the geo fields nil without dropping the log row
func TestScanService_GeoFailureDegrades(t *testing.T) {
	env := setupScanEnv()
	env.geo.Location = nil
	code := env.addCode(true)

	_, err := env.scanSvc.HandleScan(context.Background(), code.ID, service.ScanMeta{
		ClientIP: "203.0.113.7",
	})
	require.NoError(t, err)

	env.recorder.Stop()

	logs := env.logRepo.All(code.ID)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].GeoCountry)
	assert.Nil(t, logs[0].GeoRegion)
	assert.Nil(t, logs[0].GeoCity)
}

// TestScanService_StoreFailureDoesNotBlockRedirect verifies that
// analytics failures never propagate to the scanning user
func TestScanService_StoreFailureDoesNotBlockRedirect(t *testing.T) {
	env := setupScanEnv()
	env.statsRepo.FailUpsert = errors.New("db down")
	env.logRepo.FailAppend = errors.New("db down")
	code := env.addCode(true)

	target, err := env.scanSvc.HandleScan(context.Background(), code.ID, service.ScanMeta{})

	require.NoError(t, err)
	assert.Equal(t, code.Destination, target)

	env.recorder.Stop()
}

// TestScanService_ConcurrentScansAllCounted verifies that concurrent
// scans of the same code lose no increments
func TestScanService_ConcurrentScansAllCounted(t *testing.T) {
	env := setupScanEnv()
	code := env.addCode(true)

	const scans = 50
	var wg sync.WaitGroup
	for i := 0; i < scans; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.scanSvc.HandleScan(context.Background(), code.ID, service.ScanMeta{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	env.recorder.Stop()

	agg, err := env.statsRepo.Aggregates(context.Background(), code.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(scans), agg.TotalViews)
	assert.Len(t, env.logRepo.All(code.ID), scans)
}

// TestScanService_CachePopulatedOnMiss verifies the cache-aside lookup
func TestScanService_CachePopulatedOnMiss(t *testing.T) {
	env := setupScanEnv()
	defer env.recorder.Stop()
	code := env.addCode(true)

	_, err := env.cacheRepo.Get(context.Background(), code.ID)
	require.Error(t, err, "cache must start cold")

	_, err = env.scanSvc.HandleScan(context.Background(), code.ID, service.ScanMeta{})
	require.NoError(t, err)

	cached, err := env.cacheRepo.Get(context.Background(), code.ID)
	require.NoError(t, err)
	assert.Equal(t, code.Destination, cached.Destination)
}
