package service

import (
	"errors"
	"testing"

	"github.com/phrazzld/taskman-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestSentinelErrors(t *testing.T) {
	t.Run("ErrAvatarNotFound matches store.ErrNotFound", func(t *testing.T) {
		assert.True(t, errors.Is(ErrAvatarNotFound, store.ErrNotFound))
	})

	t.Run("sentinel errors are different", func(t *testing.T) {
		assert.False(t, errors.Is(ErrInvalidCredentials, ErrUnauthenticated))
		assert.False(t, errors.Is(ErrUnauthenticated, ErrInvalidCredentials))
		assert.False(t, errors.Is(ErrInvalidCredentials, store.ErrNotFound))
	})
}
