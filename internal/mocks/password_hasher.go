package mocks

import (
	"strings"

	"github.com/phrazzld/taskman-api/internal/service/auth"
)

// hashPrefix marks values produced by MockPasswordHasher.Hash.
const hashPrefix = "hashed:"

// MockPasswordHasher implements auth.PasswordHasher without bcrypt's cost,
// so tests that sign up many users stay fast.
type MockPasswordHasher struct {
	// HashErr, when set, is returned by Hash
	HashErr error

	// CompareFn allows for custom comparison logic in tests
	CompareFn func(hashedPassword, password string) error

	// CompareCallCount tracks how many times Compare was called
	CompareCallCount int
}

var _ auth.PasswordHasher = (*MockPasswordHasher)(nil)

// Hash implements the auth.PasswordHasher interface
func (m *MockPasswordHasher) Hash(password string) (string, error) {
	if m.HashErr != nil {
		return "", m.HashErr
	}
	return hashPrefix + password, nil
}

// Compare implements the auth.PasswordHasher interface
func (m *MockPasswordHasher) Compare(hashedPassword, password string) error {
	m.CompareCallCount++

	if m.CompareFn != nil {
		return m.CompareFn(hashedPassword, password)
	}
	if !strings.HasPrefix(hashedPassword, hashPrefix) || hashedPassword[len(hashPrefix):] != password {
		return auth.ErrPasswordMismatch
	}
	return nil
}
