package auth

import "errors"

var (
	// ErrInvalidToken covers malformed tokens, a wrong key or algorithm,
	// and claims that do not name a user.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken is only possible when a token lifetime is configured.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrMissingToken is returned for an empty token string.
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrPasswordMismatch means a plaintext password does not match the stored hash.
	ErrPasswordMismatch = errors.New("password does not match")
)
