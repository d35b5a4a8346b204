package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/api/shared"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/service"
)

// UnauthenticatedMessage is the only body an authentication failure gets,
// whatever the cause.
const UnauthenticatedMessage = "Please authenticate."

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// AuthMiddleware guards routes with bearer token authentication.
type AuthMiddleware struct {
	auth Authenticator
	log  logger.Component
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(auth Authenticator, log *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		auth: auth,
		log:  logger.NewComponent(log, "auth_middleware"),
	}
}

// Authenticate requires an "Authorization: Bearer <token>" header naming an
// active token. On success the user ID and token are added to the request
// context and the request logger gains a user_id attribute.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := m.log.From(r.Context())

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			log.Debug("missing or malformed authorization header")
			shared.RespondWithError(w, r, http.StatusUnauthorized, UnauthenticatedMessage)
			return
		}

		user, err := m.auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				shared.RespondWithErrorAndLog(w, r, http.StatusUnauthorized, UnauthenticatedMessage, err)
				return
			}
			shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
				"An unexpected error occurred", err)
			return
		}

		ctx := shared.WithAuth(r.Context(), user.ID, token)
		// The stored logger stays untagged; each component adds its own name.
		requestLog := logger.FromContextOrDefault(r.Context(), m.log.Base())
		ctx = logger.WithLogger(ctx, requestLog.With(slog.String("user_id", user.ID.String())))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the token from an Authorization header value.
// The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// GetUserID extracts the user ID from the request context.
// Returns the user ID and a boolean indicating if it was found.
func GetUserID(r *http.Request) (uuid.UUID, bool) {
	return shared.UserIDFromContext(r.Context())
}

// GetToken extracts the bearer token the request authenticated with.
func GetToken(r *http.Request) (string, bool) {
	return shared.TokenFromContext(r.Context())
}
