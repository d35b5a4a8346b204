package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskman-api/internal/store"
)

// Service errors. Callers check them with errors.Is; the API layer maps
// them to status codes.
var (
	// ErrInvalidCredentials is returned by Login for an unknown email or a
	// wrong password. The two cases are indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("unable to login")

	// ErrUnauthenticated is returned when a bearer token is invalid, expired,
	// revoked, or names a user that no longer exists.
	ErrUnauthenticated = errors.New("please authenticate")

	// ErrAvatarNotFound is returned when a user has no avatar. It matches store.ErrNotFound.
	ErrAvatarNotFound = fmt.Errorf("%w: avatar", store.ErrNotFound)
)
