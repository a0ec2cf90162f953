package service_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/SergeiKhy/qr-tracker/internal/models"
	"github.com/SergeiKhy/qr-tracker/internal/service"
	"github.com/SergeiKhy/qr-tracker/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBaseURL = "http://localhost:8080"

// setupQRCodeService builds the service with mocked collaborators
func setupQRCodeService() (service.QRCodeService, *mocks.MockQRCodeRepository, *mocks.MockCacheRepository, *mocks.MockRenderer) {
	qrRepo := mocks.NewMockQRCodeRepository()
	cacheRepo := mocks.NewMockCacheRepository()
	renderer := mocks.NewMockRenderer()
	logger := zap.NewNop()
	svc := service.NewQRCodeService(qrRepo, cacheRepo, renderer, testBaseURL, logger)
	return svc, qrRepo, cacheRepo, renderer
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

// TestQRCodeService_Create_TrackedEncodesScanURL verifies that a tracked
// code's image encodes the indirection URL, not the destination
func TestQRCodeService_Create_TrackedEncodesScanURL(t *testing.T) {
	svc, _, _, renderer := setupQRCodeService()

	code, err := svc.Create(context.Background(), &models.CreateQRCodeInput{
		Destination: "https://example.com/landing",
	}, 1)

	require.NoError(t, err)
	assert.True(t, code.Tracked, "tracked must default to true")
	assert.Equal(t, testBaseURL+"/s/1", renderer.Payload(code.ID))
	assert.Equal(t, testBaseURL+"/s/1", code.ScanURL)
	assert.NotEmpty(t, code.ImageURL)
}

// TestQRCodeService_Create_UntrackedEncodesDestination verifies that an
// untracked code's image encodes the destination directly
func TestQRCodeService_Create_UntrackedEncodesDestination(t *testing.T) {
	svc, _, _, renderer := setupQRCodeService()

	code, err := svc.Create(context.Background(), &models.CreateQRCodeInput{
		Destination: "https://example.com/landing",
		Tracked:     boolPtr(false),
	}, 1)

	require.NoError(t, err)
	assert.Equal(t, "https://example.com/landing", renderer.Payload(code.ID))
	assert.Empty(t, code.ScanURL)
}

// TestQRCodeService_Create_InvalidDestination verifies destination validation
func TestQRCodeService_Create_InvalidDestination(t *testing.T) {
	svc, qrRepo, _, _ := setupQRCodeService()

	for _, dest := range []string{"", "not-a-url", "ftp://example.com/x", "https://has space.com"} {
		code, err := svc.Create(context.Background(), &models.CreateQRCodeInput{Destination: dest}, 1)
		assert.ErrorIs(t, err, service.ErrInvalidDestination, "destination: %q", dest)
		assert.Nil(t, code)
	}
	assert.Equal(t, 0, qrRepo.InsertCalls, "invalid input must never reach the store")
}

// TestQRCodeService_Create_InvalidColor verifies color validation
func TestQRCodeService_Create_InvalidColor(t *testing.T) {
	svc, qrRepo, _, _ := setupQRCodeService()

	code, err := svc.Create(context.Background(), &models.CreateQRCodeInput{
		Destination: "https://example.com",
		Color:       "not-a-color",
	}, 1)

	assert.ErrorIs(t, err, service.ErrInvalidColor)
	assert.Nil(t, code)
	assert.Equal(t, 0, qrRepo.InsertCalls)
}

// TestQRCodeService_Create_NoBaseURL verifies that a tracked code is
// rejected before any row exists when no base URL is configured
func TestQRCodeService_Create_NoBaseURL(t *testing.T) {
	qrRepo := mocks.NewMockQRCodeRepository()
	svc := service.NewQRCodeService(qrRepo, mocks.NewMockCacheRepository(), mocks.NewMockRenderer(), "", zap.NewNop())

	code, err := svc.Create(context.Background(), &models.CreateQRCodeInput{
		Destination: "https://example.com",
	}, 1)

	assert.ErrorIs(t, err, service.ErrScanBaseNotConfigured)
	assert.Nil(t, code)
	assert.Equal(t, 0, qrRepo.InsertCalls, "config failure must fire before the insert")

	// An untracked code does not need the base URL.
	code, err = svc.Create(context.Background(), &models.CreateQRCodeInput{
		Destination: "https://example.com",
		Tracked:     boolPtr(false),
	}, 1)
	require.NoError(t, err)
	assert.False(t, code.Tracked)
}

// TestQRCodeService_Create_RenderFailureRollsBack verifies the
// compensating delete: no record may survive without its image
func TestQRCodeService_Create_RenderFailureRollsBack(t *testing.T) {
	svc, qrRepo, _, renderer := setupQRCodeService()
	renderer.FailRender = errors.New("disk full")

	code, err := svc.Create(context.Background(), &models.CreateQRCodeInput{
		Destination: "https://example.com",
	}, 1)

	assert.Error(t, err)
	assert.Nil(t, code)
	assert.Equal(t, 1, qrRepo.InsertCalls)
	assert.Equal(t, 0, qrRepo.Count(), "row must be removed after render failure")
}

// TestQRCodeService_Modify_DestinationOnlyTracked verifies that changing
// only the destination of a tracked code does not touch the image
func TestQRCodeService_Modify_DestinationOnlyTracked(t *testing.T) {
	svc, _, _, renderer := setupQRCodeService()

	code, err := svc.Create(context.Background(), &models.CreateQRCodeInput{
		Destination: "https://example.com/old",
	}, 1)
	require.NoError(t, err)
	require.Equal(t, 1, renderer.RenderCalls)

	updated, err := svc.Modify(context.Background(), code.ID, 1, &models.UpdateQRCodeInput{
		Destination: strPtr("https://example.com/new"),
	})

	require.NoError(t, err)
	assert.Equal(t, "https://example.com/new", updated.Destination)
	assert.Equal(t, 1, renderer.RenderCalls, "tracked destination change must not regenerate the image")
}

// TestQRCodeService_Modify_DestinationUntracked verifies that an
// untracked code's image is regenerated on a destination change
func TestQRCodeService_Modify_DestinationUntracked(t *testing.T) {
	svc, _, _, renderer := setupQRCodeService()

	code, err := svc.Create(context.Background(), &models.CreateQRCodeInput{
		Destination: "https://example.com/old",
		Tracked:     boolPtr(false),
	}, 1)
	require.NoError(t, err)

	updated, err := svc.Modify(context.Background(), code.ID, 1, &models.UpdateQRCodeInput{
		Destination: strPtr("https://example.com/new"),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, renderer.RenderCalls)
	assert.Equal(t, "https://example.com/new", renderer.Payload(updated.ID))
}

// TestQRCodeService_Modify_StyleChange verifies that color and logo
// changes always regenerate the image
func TestQRCodeService_Modify_StyleChange(t *testing.T) {
	svc, _, _, renderer := setupQRCodeService()

	code, err := svc.Create(context.Background(), &models.CreateQRCodeInput{
		Destination: "https://example.com",
	}, 1)
	require.NoError(t, err)

	_, err = svc.Modify(context.Background(), code.ID, 1, &models.UpdateQRCodeInput{
		Color: strPtr("red"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, renderer.RenderCalls)

	_, err = svc.Modify(context.Background(), code.ID, 1, &models.UpdateQRCodeInput{
		Logo: strPtr("/tmp/logo.png"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, renderer.RenderCalls)
}

// TestQRCodeService_Modify_TrackingToggle verifies that flipping the
// tracked flag regenerates the image in both directions and swaps the
// encoded payload
func TestQRCodeService_Modify_TrackingToggle(t *testing.T) {
	svc, _, _, renderer := setupQRCodeService()

	code, err := svc.Create(context.Background(), &models.CreateQRCodeInput{
		Destination: "https://example.com",
	}, 1)
	require.NoError(t, err)

	// tracked -> untracked
	updated, err := svc.Modify(context.Background(), code.ID, 1, &models.UpdateQRCodeInput{
		Tracked: boolPtr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, renderer.RenderCalls)
	assert.Equal(t, "https://example.com", renderer.Payload(updated.ID))

	// untracked -> tracked
	updated, err = svc.Modify(context.Background(), code.ID, 1, &models.UpdateQRCodeInput{
		Tracked: boolPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, renderer.RenderCalls)
	assert.Equal(t, testBaseURL+"/s/1", renderer.Payload(updated.ID))
}

// TestQRCodeService_Modify_NoChanges verifies that an empty update is a no-op
func TestQRCodeService_Modify_NoChanges(t *testing.T) {
	svc, _, _, renderer := setupQRCodeService()

	code, err := svc.Create(context.Background(), &models.CreateQRCodeInput{
		Destination: "https://example.com",
	}, 1)
	require.NoError(t, err)

	updated, err := svc.Modify(context.Background(), code.ID, 1, &models.UpdateQRCodeInput{})
	require.NoError(t, err)
	assert.Equal(t, code.Destination, updated.Destination)
	assert.Equal(t, 1, renderer.RenderCalls)
}

// TestQRCodeService_Modify_NotOwner verifies the ownership guard
func TestQRCodeService_Modify_NotOwner(t *testing.T) {
	svc, _, _, _ := setupQRCodeService()

	code, err := svc.Create(context.Background(), &models.CreateQRCodeInput{
		Destination: "https://example.com",
	}, 1)
	require.NoError(t, err)

	_, err = svc.Modify(context.Background(), code.ID, 2, &models.UpdateQRCodeInput{
		Color: strPtr("red"),
	})
	assert.ErrorIs(t, err, service.ErrUnauthorized)
}

// TestQRCodeService_Modify_NotFound verifies the not-found mapping
func TestQRCodeService_Modify_NotFound(t *testing.T) {
	svc, _, _, _ := setupQRCodeService()

	_, err := svc.Modify(context.Background(), 999, 1, &models.UpdateQRCodeInput{
		Color: strPtr("red"),
	})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

// TestQRCodeService_Delete verifies deletion, the guard and image cleanup
func TestQRCodeService_Delete(t *testing.T) {
	svc, qrRepo, _, renderer := setupQRCodeService()

	code, err := svc.Create(context.Background(), &models.CreateQRCodeInput{
		Destination: "https://example.com",
	}, 1)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), code.ID, 2)
	assert.ErrorIs(t, err, service.ErrUnauthorized)

	err = svc.Delete(context.Background(), code.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, qrRepo.Count())
	assert.Contains(t, renderer.Removed(), code.ID)

	err = svc.Delete(context.Background(), code.ID, 1)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

// TestQRCodeService_ListByOwner verifies that listing only returns the
// requester's codes
func TestQRCodeService_ListByOwner(t *testing.T) {
	svc, _, _, _ := setupQRCodeService()

	_, err := svc.Create(context.Background(), &models.CreateQRCodeInput{Destination: "https://example.com/a"}, 1)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), &models.CreateQRCodeInput{Destination: "https://example.com/b"}, 1)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), &models.CreateQRCodeInput{Destination: "https://example.com/c"}, 2)
	require.NoError(t, err)

	codes, err := svc.ListByOwner(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, codes, 2)
	for _, code := range codes {
		assert.Equal(t, int64(1), code.OwnerID)
	}
}
