package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/SergeiKhy/qr-tracker/internal/service"
	"github.com/SergeiKhy/qr-tracker/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthService(ttl time.Duration) (service.AuthService, *mocks.MockUserRepository) {
	userRepo := mocks.NewMockUserRepository()
	svc := service.NewAuthService(userRepo, "test-secret", ttl)
	return svc, userRepo
}

// TestAuthService_RegisterAndLogin verifies the happy path end to end
func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc, _ := setupAuthService(time.Hour)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", "correct-horse-battery")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice", user.Login)
	assert.NotEqual(t, "correct-horse-battery", user.PasswordHash, "password must be stored hashed")

	token, loggedIn, err := svc.Login(ctx, "alice", "correct-horse-battery")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, loggedIn.ID)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Login)
}

// TestAuthService_Register_Validation verifies login and password length checks
func TestAuthService_Register_Validation(t *testing.T) {
	svc, _ := setupAuthService(time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, "ab", "long-enough-password")
	assert.ErrorIs(t, err, service.ErrLoginTooShort)

	_, err = svc.Register(ctx, "alice", "short")
	assert.ErrorIs(t, err, service.ErrPasswordTooShort)
}

// TestAuthService_Login_WrongPassword verifies that wrong credentials
// and unknown logins are indistinguishable
func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, _ := setupAuthService(time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "correct-horse-battery")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody", "correct-horse-battery")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

// TestAuthService_ValidateToken_Invalid verifies rejection of garbage,
// foreign and expired tokens
func TestAuthService_ValidateToken_Invalid(t *testing.T) {
	svc, _ := setupAuthService(time.Hour)
	ctx := context.Background()

	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	// Token signed with a different secret.
	other := service.NewAuthService(mocks.NewMockUserRepository(), "other-secret", time.Hour)
	_, err = other.Register(ctx, "alice", "correct-horse-battery")
	require.NoError(t, err)
	foreign, _, err := other.Login(ctx, "alice", "correct-horse-battery")
	require.NoError(t, err)

	_, err = svc.ValidateToken(foreign)
	assert.ErrorIs(t, err, service.ErrInvalidToken)

	// Token that is already expired.
	expiredSvc, _ := setupAuthService(-time.Minute)
	_, err = expiredSvc.Register(ctx, "bob", "correct-horse-battery")
	require.NoError(t, err)
	expired, _, err := expiredSvc.Login(ctx, "bob", "correct-horse-battery")
	require.NoError(t, err)

	_, err = expiredSvc.ValidateToken(expired)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}
