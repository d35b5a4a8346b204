package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/platform/imaging"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/service"
	"github.com/phrazzld/taskman-api/internal/store"
)

// AvatarField is the multipart form field carrying the upload.
const AvatarField = "avatar"

// multipartOverhead is the room left for multipart headers and boundaries
// on top of the image itself.
const multipartOverhead = 64 << 10

var avatarExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// AvatarHandler handles avatar upload, removal and retrieval.
type AvatarHandler struct {
	users    service.UserService
	maxBytes int64
	log      logger.Component
}

// NewAvatarHandler creates a new AvatarHandler accepting images up to maxBytes.
func NewAvatarHandler(users service.UserService, maxBytes int64, log *slog.Logger) *AvatarHandler {
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AvatarHandler")
	}
	return &AvatarHandler{
		users:    users,
		maxBytes: maxBytes,
		log:      logger.NewComponent(log, "avatar_handler"),
	}
}

// Upload handles POST /users/me/avatar with a multipart "avatar" file.
func (h *AvatarHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	data, err := h.readUpload(w, r)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	if err := h.users.SetAvatar(r.Context(), userID, data); err != nil {
		HandleAPIError(w, r, err, "Failed to store avatar")
		return
	}

	h.log.From(r.Context()).Info("avatar uploaded",
		slog.String("user_id", userID.String()),
		slog.Int("bytes", len(data)))
	w.WriteHeader(http.StatusOK)
}

// readUpload extracts the avatar file, enforcing the size limit and the
// extension allow-list.
func (h *AvatarHandler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, tooLargeError()
		}
		return nil, domain.NewValidationError(AvatarField, "please upload an image", domain.ErrInvalidImage)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(AvatarField)
	if err != nil {
		return nil, domain.NewValidationError(AvatarField, "please upload an image", domain.ErrInvalidImage)
	}
	defer func() { _ = file.Close() }()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !avatarExtensions[ext] {
		return nil, domain.NewValidationError(AvatarField, "please upload a jpg, jpeg or png image", domain.ErrInvalidImage)
	}
	if header.Size > h.maxBytes {
		return nil, tooLargeError()
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		return nil, domain.NewValidationError(AvatarField, "could not read upload", domain.ErrInvalidImage)
	}
	if int64(len(data)) > h.maxBytes {
		return nil, tooLargeError()
	}
	return data, nil
}

func tooLargeError() error {
	return domain.NewValidationError(AvatarField, "file is too large", domain.ErrInvalidImage)
}

// Delete handles DELETE /users/me/avatar.
func (h *AvatarHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.users.RemoveAvatar(r.Context(), userID); err != nil {
		HandleAPIError(w, r, err, "Failed to remove avatar")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Get handles the public GET /users/{id}/avatar. A malformed id, an unknown
// user and a user without an avatar all answer 404.
func (h *AvatarHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := getPathUUID(r, "id", store.ErrUserNotFound)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	data, err := h.users.GetAvatar(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	w.Header().Set("Content-Type", imaging.ContentTypePNG)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log.From(r.Context()).Warn("failed to write avatar",
			slog.String("error", err.Error()))
	}
}
