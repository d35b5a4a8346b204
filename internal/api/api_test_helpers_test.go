package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/taskman-api/internal/api/middleware"
	"github.com/phrazzld/taskman-api/internal/config"
	"github.com/phrazzld/taskman-api/internal/mocks"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/service"
	"github.com/phrazzld/taskman-api/internal/service/auth"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-at-least-32-chars-long"

// testAPI is a fully wired router over in-memory stores.
type testAPI struct {
	server *httptest.Server
	users  *mocks.MockUserStore
	tasks  *mocks.MockTaskStore
	logs   *logger.TestLogBuffer
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	log, buf := logger.GetTestLogger(t)
	tokens, err := auth.NewTokenService(config.AuthConfig{JWTSecret: testSecret})
	require.NoError(t, err)

	tasks := mocks.NewMockTaskStore()
	users := mocks.NewMockUserStore()
	users.Tasks = tasks

	userSvc := service.NewUserService(users, tokens, &mocks.MockPasswordHasher{},
		service.AvatarOptions{MaxBytes: 1_000_000, Size: 250}, log)
	taskSvc := service.NewTaskService(tasks, 100, log)

	userHandler := NewUserHandler(userSvc, log)
	taskHandler := NewTaskHandler(taskSvc, log)
	avatarHandler := NewAvatarHandler(userSvc, 1_000_000, log)
	authMiddleware := middleware.NewAuthMiddleware(userSvc, log)

	r := chi.NewRouter()
	r.Use(middleware.NewTraceMiddleware(log))
	r.Get("/health", NewHealthHandler(users).Health)
	r.Post("/users", userHandler.SignUp)
	r.Post("/users/login", userHandler.Login)
	r.Get("/users/{id}/avatar", avatarHandler.Get)
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.Authenticate)
		r.Post("/users/logout", userHandler.Logout)
		r.Post("/users/logoutAll", userHandler.LogoutAll)
		r.Get("/users/me", userHandler.Me)
		r.Patch("/users/me", userHandler.UpdateMe)
		r.Delete("/users/me", userHandler.DeleteMe)
		r.Post("/users/me/avatar", avatarHandler.Upload)
		r.Delete("/users/me/avatar", avatarHandler.Delete)
		r.Post("/tasks", taskHandler.CreateTask)
		r.Get("/tasks", taskHandler.ListTasks)
		r.Get("/tasks/{id}", taskHandler.GetTask)
		r.Patch("/tasks/{id}", taskHandler.UpdateTask)
		r.Delete("/tasks/{id}", taskHandler.DeleteTask)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testAPI{server: srv, users: users, tasks: tasks, logs: buf}
}

// do sends a request with an optional JSON body and bearer token.
func (a *testAPI) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// signUp creates a user and returns the auth response.
func (a *testAPI) signUp(t *testing.T, name, email string) AuthResponse {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/users", "", map[string]any{
		"name":     name,
		"email":    email,
		"password": "MyPass777!",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[AuthResponse](t, resp)
}

// createTask creates a task for token and returns it.
func (a *testAPI) createTask(t *testing.T, token, description string, completed bool) TaskResponse {
	t.Helper()
	resp := a.do(t, http.MethodPost, "/tasks", token, map[string]any{
		"description": description,
		"completed":   completed,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[TaskResponse](t, resp)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func errorMessage(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error   string `json:"error"`
		TraceID string `json:"trace_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.TraceID, "error responses carry a trace id")
	return body.Error
}
