package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-at-least-32-characters"

func newTestService(t *testing.T, lifetimeMinutes int) *hmacTokenService {
	t.Helper()
	svc, err := NewTokenService(config.AuthConfig{
		JWTSecret:            testSecret,
		TokenLifetimeMinutes: lifetimeMinutes,
	})
	require.NoError(t, err)
	return svc.(*hmacTokenService)
}

func TestNewTokenService_RejectsShortSecret(t *testing.T) {
	t.Parallel()

	_, err := NewTokenService(config.AuthConfig{JWTSecret: "short"})
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, 0)
	userID := uuid.New()

	token, err := svc.GenerateToken(ctx, userID)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
	assert.True(t, claims.ExpiresAt.IsZero(), "no lifetime configured")
}

func TestGenerateToken_Distinct(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, 0)
	fixed := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc.timeFunc = func() time.Time { return fixed }
	userID := uuid.New()

	first, err := svc.GenerateToken(ctx, userID)
	require.NoError(t, err)
	second, err := svc.GenerateToken(ctx, userID)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestValidateToken_Expired(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, 30)
	issued := time.Now().Add(-2 * time.Hour)
	svc.timeFunc = func() time.Time { return issued }

	token, err := svc.GenerateToken(ctx, uuid.New())
	require.NoError(t, err)

	svc.timeFunc = time.Now
	_, err = svc.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_Invalid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newTestService(t, 0)
	other := newTestService(t, 0)
	other.signingKey = []byte("another-secret-that-is-at-least-32-chars")

	foreign, err := other.GenerateToken(ctx, uuid.New())
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, tokenClaims{
		UserID:           uuid.New(),
		RegisteredClaims: jwt.RegisteredClaims{Subject: "x"},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "someone",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := map[string]string{
		"garbage":        "not.a.token",
		"wrong key":      foreign,
		"wrong method":   hs512,
		"missing userID": noUser,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.ValidateToken(ctx, token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err = svc.ValidateToken(ctx, "")
	assert.ErrorIs(t, err, ErrMissingToken)
}
