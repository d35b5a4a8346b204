package domain

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Password policy.
const (
	MinPasswordLength = 7
	// MaxPasswordLength is bcrypt's practical input limit.
	MaxPasswordLength = 72

	forbiddenPasswordSubstring = "password"
)

var validate = validator.New()

// User represents a registered user of the task manager.
// It contains profile information and authentication details.
type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Age            int       `json:"age"`
	Password       string    `json:"-"` // Plaintext password, used temporarily during registration/updates
	HashedPassword string    `json:"-"` // Never expose password hash in JSON
	Avatar         []byte    `json:"-"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UserUpdate carries the allow-listed profile fields a user may change.
// Nil fields are left untouched.
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
	Age      *int

	// HashedPassword is set by the service after hashing Password.
	// Stores write this and never Password.
	HashedPassword *string
}

// NewUser creates a new User from signup input.
// Name is trimmed, email is trimmed and lower-cased, password is trimmed.
//
// NOTE: the returned user carries the plaintext password. The caller is
// responsible for hashing it before the user is stored.
func NewUser(name, email, password string, age int) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Email:     NormalizeEmail(email),
		Age:       age,
		Password:  strings.TrimSpace(password),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if err := ValidateName(u.Name); err != nil {
		return err
	}
	if err := ValidateEmail(u.Email); err != nil {
		return err
	}
	if err := ValidateAge(u.Age); err != nil {
		return err
	}

	// Existing users loaded from a store only carry the hash.
	if u.Password != "" {
		return ValidatePassword(u.Password)
	}
	if u.HashedPassword == "" {
		return NewValidationError("password", "is required", ErrInvalidPassword)
	}

	return nil
}

// Normalize trims and validates the fields that are set. The email is
// lower-cased. HashedPassword is passed through as is.
func (u UserUpdate) Normalize() (UserUpdate, error) {
	if u.Name != nil {
		name := strings.TrimSpace(*u.Name)
		if err := ValidateName(name); err != nil {
			return UserUpdate{}, err
		}
		u.Name = &name
	}
	if u.Email != nil {
		email := NormalizeEmail(*u.Email)
		if err := ValidateEmail(email); err != nil {
			return UserUpdate{}, err
		}
		u.Email = &email
	}
	if u.Password != nil {
		password := strings.TrimSpace(*u.Password)
		if err := ValidatePassword(password); err != nil {
			return UserUpdate{}, err
		}
		u.Password = &password
	}
	if u.Age != nil {
		if err := ValidateAge(*u.Age); err != nil {
			return UserUpdate{}, err
		}
	}
	return u, nil
}

// IsEmpty reports whether the update sets no field.
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Password == nil && u.Age == nil && u.HashedPassword == nil
}

// Apply validates and applies a profile update in place.
// A changed plaintext password is left in Password for the caller to rehash.
func (u *User) Apply(upd UserUpdate) error {
	upd, err := upd.Normalize()
	if err != nil {
		return err
	}

	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Email != nil {
		u.Email = *upd.Email
	}
	if upd.Age != nil {
		u.Age = *upd.Age
	}
	if upd.Password != nil {
		u.Password = *upd.Password
	}
	if upd.HashedPassword != nil {
		u.HashedPassword = *upd.HashedPassword
		u.Password = ""
	}
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// HasAvatar reports whether an avatar image is stored for the user.
func (u *User) HasAvatar() bool {
	return len(u.Avatar) > 0
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateName requires a non-empty, already trimmed display name.
func ValidateName(name string) error {
	if name == "" {
		return NewValidationError("name", "is required", ErrEmptyContent)
	}
	return nil
}

// ValidateEmail checks that email is present and shaped like an address.
func ValidateEmail(email string) error {
	if email == "" {
		return NewValidationError("email", "is required", ErrInvalidEmail)
	}
	if err := validate.Var(email, "email"); err != nil {
		return NewValidationError("email", "is invalid", ErrInvalidEmail)
	}
	return nil
}

// ValidatePassword enforces the password policy: length between
// MinPasswordLength and MaxPasswordLength, and no "password" substring in any case.
func ValidatePassword(password string) error {
	switch {
	case len(password) < MinPasswordLength:
		return NewValidationError("password", "is too short", ErrInvalidPassword)
	case len(password) > MaxPasswordLength:
		return NewValidationError("password", "is too long", ErrInvalidPassword)
	case strings.Contains(strings.ToLower(password), forbiddenPasswordSubstring):
		return NewValidationError("password", `cannot contain "password"`, ErrInvalidPassword)
	}
	return nil
}

// ValidateAge rejects negative ages.
func ValidateAge(age int) error {
	if age < 0 {
		return NewValidationError("age", "must be a positive number", ErrValidation)
	}
	return nil
}
