package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TokenService issues and validates signed bearer tokens bound to a user.
// It is stateless: whether a valid token is still active is decided by the
// user's stored token list, not here.
type TokenService interface {
	// GenerateToken creates a signed token for userID. Every call yields a
	// distinct token, even within the same second.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken checks the signature and time claims of tokenString.
	// Returns ErrInvalidToken or ErrExpiredToken on failure.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the verified content of a token.
type Claims struct {
	UserID   uuid.UUID
	Subject  string
	IssuedAt time.Time
	// ExpiresAt is zero for tokens issued without a lifetime.
	ExpiresAt time.Time
	ID        string
}
