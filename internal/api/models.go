package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
)

// SignUpRequest defines the payload for POST /users.
type SignUpRequest struct {
	Name     string `json:"name"     validate:"required"`
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
	Age      *int   `json:"age"      validate:"omitempty,gte=0"`
}

// LoginRequest defines the payload for POST /users/login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateUserRequest defines the payload for PATCH /users/me.
// Its fields are the complete allow-list of profile updates.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Age      *int    `json:"age"      validate:"omitempty,gte=0"`
}

// CreateTaskRequest defines the payload for POST /tasks.
type CreateTaskRequest struct {
	Description string `json:"description" validate:"required"`
	Completed   *bool  `json:"completed"`
}

// UpdateTaskRequest defines the payload for PATCH /tasks/{id}.
// Its fields are the complete allow-list of task updates.
type UpdateTaskRequest struct {
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

// UserResponse is the public view of a user. It never carries the
// password hash, the session tokens or the avatar bytes.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age"`
	HasAvatar bool      `json:"hasAvatar"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// TaskResponse is the wire form of a task.
type TaskResponse struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	Owner       uuid.UUID `json:"owner"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func userToResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Age:       u.Age,
		HasAvatar: u.HasAvatar(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Description: t.Description,
		Completed:   t.Completed,
		Owner:       t.OwnerID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func tasksToResponse(tasks []*domain.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, taskToResponse(t))
	}
	return out
}
