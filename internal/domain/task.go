package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task represents a to-do item owned by exactly one user.
// The owner never changes after creation.
type Task struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TaskUpdate carries the allow-listed task fields. Nil fields are left untouched.
type TaskUpdate struct {
	Description *string
	Completed   *bool
}

// NewTask creates a new Task owned by ownerID.
// The description is trimmed before validation.
func NewTask(ownerID uuid.UUID, description string, completed bool) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Description: strings.TrimSpace(description),
		Completed:   completed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if t.OwnerID == uuid.Nil {
		return NewValidationError("owner", "cannot be empty", ErrInvalidID)
	}
	if t.Description == "" {
		return NewValidationError("description", "is required", ErrEmptyContent)
	}
	return nil
}

// Normalize trims the description and validates the fields that are set.
func (u TaskUpdate) Normalize() (TaskUpdate, error) {
	if u.Description != nil {
		description := strings.TrimSpace(*u.Description)
		if description == "" {
			return TaskUpdate{}, NewValidationError("description", "is required", ErrEmptyContent)
		}
		u.Description = &description
	}
	return u, nil
}

// IsEmpty reports whether the update sets no field.
func (u TaskUpdate) IsEmpty() bool {
	return u.Description == nil && u.Completed == nil
}

// Apply validates and applies an update in place.
func (t *Task) Apply(upd TaskUpdate) error {
	upd, err := upd.Normalize()
	if err != nil {
		return err
	}

	if upd.Description != nil {
		t.Description = *upd.Description
	}
	if upd.Completed != nil {
		t.Completed = *upd.Completed
	}
	t.UpdatedAt = time.Now().UTC()
	return nil
}
