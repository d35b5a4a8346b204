package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/api/shared"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/service"
	"github.com/phrazzld/taskman-api/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authenticatorFunc func(ctx context.Context, token string) (*domain.User, error)

func (f authenticatorFunc) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	return f(ctx, token)
}

func TestAuthMiddleware_Authenticate(t *testing.T) {
	t.Parallel()

	user := &domain.User{ID: uuid.New()}
	authn := authenticatorFunc(func(_ context.Context, token string) (*domain.User, error) {
		switch token {
		case "good-token":
			return user, nil
		case "revoked-token":
			return nil, fmt.Errorf("%w: token revoked", service.ErrUnauthenticated)
		case "expired-token":
			return nil, fmt.Errorf("%w: %w", service.ErrUnauthenticated, auth.ErrExpiredToken)
		default:
			return nil, errors.New("database unavailable")
		}
	})

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"valid token", "Bearer good-token", http.StatusOK},
		{"lower-case scheme", "bearer good-token", http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good-token", http.StatusUnauthorized},
		{"no token", "Bearer ", http.StatusUnauthorized},
		{"extra parts", "Bearer good-token extra", http.StatusUnauthorized},
		{"revoked token", "Bearer revoked-token", http.StatusUnauthorized},
		{"expired token", "Bearer expired-token", http.StatusUnauthorized},
		{"store failure", "Bearer broken-token", http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var gotID uuid.UUID
			var gotToken string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotID, _ = GetUserID(r)
				gotToken, _ = GetToken(r)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}
			w := httptest.NewRecorder()

			NewAuthMiddleware(authn, nil).Authenticate(next).ServeHTTP(w, req)

			assert.Equal(t, tc.expectedStatus, w.Code)
			switch tc.expectedStatus {
			case http.StatusOK:
				assert.Equal(t, user.ID, gotID)
				assert.Equal(t, "good-token", gotToken)
			case http.StatusUnauthorized:
				var body shared.ErrorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, UnauthenticatedMessage, body.Error)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	token, ok := bearerToken("  BEARER abc.def.ghi ")
	require.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)

	_, ok = bearerToken("Bearer")
	assert.False(t, ok)
}
