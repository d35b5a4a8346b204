package api

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// upload posts data as a multipart file under field.
func (a *testAPI) upload(t *testing.T, token, field, filename string, data []byte) *http.Response {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, a.server.URL+"/users/me/avatar", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestAvatarLifecycle(t *testing.T) {
	api := newTestAPI(t)
	a := api.signUp(t, "Hagen", "hagen@example.com")
	avatarPath := "/users/" + a.User.ID.String() + "/avatar"

	resp := api.upload(t, a.Token, AvatarField, "me.png", pngImage(t, 400, 300))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	me := decode[UserResponse](t, api.do(t, http.MethodGet, "/users/me", a.Token, nil))
	assert.True(t, me.HasAvatar)

	// Avatars are public.
	resp = api.do(t, http.MethodGet, avatarPath, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, 250, cfg.Width)
	assert.Equal(t, 250, cfg.Height)

	resp = api.do(t, http.MethodDelete, "/users/me/avatar", a.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = api.do(t, http.MethodGet, avatarPath, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Avatar not found", errorMessage(t, resp))
}

func TestAvatarUpload_Rejected(t *testing.T) {
	api := newTestAPI(t)
	a := api.signUp(t, "Hagen", "hagen@example.com")
	img := pngImage(t, 50, 50)

	tests := []struct {
		name     string
		field    string
		filename string
		data     []byte
	}{
		{"pdf extension", AvatarField, "resume.pdf", img},
		{"no extension", AvatarField, "avatar", img},
		{"wrong field", "upload", "me.png", img},
		{"not an image", AvatarField, "me.png", []byte("definitely not a png")},
		{"too large", AvatarField, "big.png", bytes.Repeat([]byte{0x89}, 1_200_000)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := api.upload(t, a.Token, tc.field, tc.filename, tc.data)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	me := decode[UserResponse](t, api.do(t, http.MethodGet, "/users/me", a.Token, nil))
	assert.False(t, me.HasAvatar)
}

func TestAvatarUpload_RequiresAuth(t *testing.T) {
	api := newTestAPI(t)
	resp := api.upload(t, "", AvatarField, "me.png", pngImage(t, 10, 10))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAvatarGet_NotFound(t *testing.T) {
	api := newTestAPI(t)
	a := api.signUp(t, "Hagen", "hagen@example.com")

	for _, path := range []string{
		"/users/" + a.User.ID.String() + "/avatar",
		"/users/" + uuid.NewString() + "/avatar",
		"/users/not-a-uuid/avatar",
	} {
		resp := api.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}
