package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUp_Hagen(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodPost, "/users", "", map[string]any{
		"name":     "Hagen",
		"email":    "hagen@example.com",
		"password": "MyPass777!",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	require.Contains(t, raw, "user")
	require.Contains(t, raw, "token")

	var user map[string]any
	require.NoError(t, json.Unmarshal(raw["user"], &user))
	assert.Equal(t, "Hagen", user["name"])
	assert.Equal(t, "hagen@example.com", user["email"])
	assert.Equal(t, float64(0), user["age"])
	assert.Equal(t, false, user["hasAvatar"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "hashedPassword")
	assert.NotContains(t, user, "tokens")

	var token string
	require.NoError(t, json.Unmarshal(raw["token"], &token))
	assert.NotEmpty(t, token)

	me := api.do(t, http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, me.StatusCode)
	assert.Equal(t, "Hagen", decode[UserResponse](t, me).Name)
}

func TestSignUp_Validation(t *testing.T) {
	api := newTestAPI(t)
	api.signUp(t, "Taken", "taken@example.com")

	tests := []struct {
		name string
		body any
	}{
		{"missing name", map[string]any{"email": "a@example.com", "password": "MyPass777!"}},
		{"blank name", map[string]any{"name": "   ", "email": "a@example.com", "password": "MyPass777!"}},
		{"bad email", map[string]any{"name": "A", "email": "nope", "password": "MyPass777!"}},
		{"short password", map[string]any{"name": "A", "email": "a@example.com", "password": "abc"}},
		{"password contains password", map[string]any{"name": "A", "email": "a@example.com", "password": "MyPassWord1"}},
		{"negative age", map[string]any{"name": "A", "email": "a@example.com", "password": "MyPass777!", "age": -3}},
		{"duplicate email", map[string]any{"name": "A", "email": "TAKEN@example.com", "password": "MyPass777!"}},
		{"unknown field", map[string]any{"name": "A", "email": "a@example.com", "password": "MyPass777!", "admin": true}},
		{"malformed json", `{"name": "A",`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := api.do(t, http.MethodPost, "/users", "", tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.NotEmpty(t, errorMessage(t, resp))
		})
	}
	assert.Equal(t, 1, api.users.Len())
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t)
	first := api.signUp(t, "Hagen", "hagen@example.com")

	resp := api.do(t, http.MethodPost, "/users/login", "", map[string]any{
		"email":    "hagen@example.com",
		"password": "MyPass777!",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := decode[AuthResponse](t, resp)

	assert.Equal(t, first.User.ID, second.User.ID)
	assert.NotEqual(t, first.Token, second.Token)

	// Both sessions stay valid.
	for _, tok := range []string{first.Token, second.Token} {
		assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/users/me", tok, nil).StatusCode)
	}

	for _, body := range []map[string]any{
		{"email": "hagen@example.com", "password": "wrong-pass"},
		{"email": "nobody@example.com", "password": "MyPass777!"},
		{"email": "hagen@example.com"},
	} {
		resp := api.do(t, http.MethodPost, "/users/login", "", body)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Unable to login", errorMessage(t, resp))
	}
}

func TestMissingAuthorization(t *testing.T) {
	api := newTestAPI(t)

	for _, path := range []string{"/users/me", "/tasks"} {
		resp := api.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Please authenticate.", errorMessage(t, resp))
	}

	resp := api.do(t, http.MethodGet, "/users/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Please authenticate.", errorMessage(t, resp))
}

func TestLogoutAndLogoutAll(t *testing.T) {
	api := newTestAPI(t)
	a := api.signUp(t, "Hagen", "hagen@example.com")

	login := func() string {
		resp := api.do(t, http.MethodPost, "/users/login", "", map[string]any{
			"email": "hagen@example.com", "password": "MyPass777!",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		return decode[AuthResponse](t, resp).Token
	}
	b, c := login(), login()

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/users/logout", b, nil).StatusCode)
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/users/me", b, nil).StatusCode)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/users/me", a.Token, nil).StatusCode)
	assert.Equal(t, http.StatusOK, api.do(t, http.MethodGet, "/users/me", c, nil).StatusCode)

	require.Equal(t, http.StatusOK, api.do(t, http.MethodPost, "/users/logoutAll", c, nil).StatusCode)
	for _, tok := range []string{a.Token, c} {
		assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/users/me", tok, nil).StatusCode)
	}
}

func TestUpdateMe(t *testing.T) {
	api := newTestAPI(t)
	a := api.signUp(t, "Hagen", "hagen@example.com")

	t.Run("allowed fields", func(t *testing.T) {
		resp := api.do(t, http.MethodPatch, "/users/me", a.Token, map[string]any{"name": "Jess", "age": 31})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		got := decode[UserResponse](t, resp)
		assert.Equal(t, "Jess", got.Name)
		assert.Equal(t, 31, got.Age)
	})

	t.Run("disallowed field rejects whole update", func(t *testing.T) {
		resp := api.do(t, http.MethodPatch, "/users/me", a.Token, map[string]any{"name": "Mallory", "_id": "x"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		me := decode[UserResponse](t, api.do(t, http.MethodGet, "/users/me", a.Token, nil))
		assert.Equal(t, "Jess", me.Name)
	})

	t.Run("invalid value", func(t *testing.T) {
		resp := api.do(t, http.MethodPatch, "/users/me", a.Token, map[string]any{"password": "password123"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("password change", func(t *testing.T) {
		resp := api.do(t, http.MethodPatch, "/users/me", a.Token, map[string]any{"password": "Another777"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		login := api.do(t, http.MethodPost, "/users/login", "", map[string]any{
			"email": "hagen@example.com", "password": "Another777",
		})
		assert.Equal(t, http.StatusOK, login.StatusCode)
	})
}

func TestDeleteMe_Cascades(t *testing.T) {
	api := newTestAPI(t)
	a := api.signUp(t, "Hagen", "hagen@example.com")
	b := api.signUp(t, "Other", "other@example.com")

	api.createTask(t, a.Token, "First task", false)
	api.createTask(t, a.Token, "Second task", true)
	api.createTask(t, b.Token, "Keep me", false)

	resp := api.do(t, http.MethodDelete, "/users/me", a.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, a.User.ID, decode[UserResponse](t, resp).ID)

	assert.Zero(t, api.tasks.Count(a.User.ID))
	assert.Equal(t, 1, api.tasks.Count(b.User.ID))
	assert.Equal(t, http.StatusUnauthorized, api.do(t, http.MethodGet, "/users/me", a.Token, nil).StatusCode)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[HealthResponse](t, resp).Status)

	api.users.PingErr = assert.AnError
	resp = api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
