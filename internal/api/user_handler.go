package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskman-api/internal/api/shared"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/service"
)

// UserHandler handles account and session requests.
type UserHandler struct {
	users  service.UserService
	log    logger.Component
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users service.UserService, log *slog.Logger) *UserHandler {
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for UserHandler")
	}
	return &UserHandler{
		users:  users,
		log:    logger.NewComponent(log, "user_handler"),
	}
}

// SignUp handles POST /users.
func (h *UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := decodeAndValidate(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	in := service.SignUpInput{Name: req.Name, Email: req.Email, Password: req.Password}
	if req.Age != nil {
		in.Age = *req.Age
	}

	user, token, err := h.users.SignUp(r.Context(), in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, AuthResponse{
		User:  userToResponse(user),
		Token: token,
	})
}

// Login handles POST /users/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		HandleAPIError(w, r, service.ErrInvalidCredentials, "")
		return
	}

	user, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		User:  userToResponse(user),
		Token: token,
	})
}

// Logout handles POST /users/logout. Only the presented token is revoked.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	token, _ := shared.TokenFromContext(r.Context())

	if err := h.users.Logout(r.Context(), userID, token); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// LogoutAll handles POST /users/logoutAll.
func (h *UserHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.users.LogoutAll(r.Context(), userID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Me handles GET /users/me.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetProfile(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// UpdateMe handles PATCH /users/me. Keys outside the allow-list reject the
// whole request before anything is written.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := decodeAndValidate(r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), userID, domain.UserUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Age:      req.Age,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update user")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}

// DeleteMe handles DELETE /users/me. The user's tasks go with them.
func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	user, err := h.users.DeleteAccount(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to delete user")
		return
	}

	h.log.From(r.Context()).Info("account deleted",
		slog.String("user_id", userID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}
