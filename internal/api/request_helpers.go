package api

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/api/shared"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/service"
)

// getUserIDFromContext extracts the authenticated user's UUID from the request context.
// The user ID is placed in the context by the authentication middleware.
func getUserIDFromContext(r *http.Request) (uuid.UUID, bool) {
	return shared.UserIDFromContext(r.Context())
}

// requireUserID returns the authenticated user's ID or writes a 401.
func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := getUserIDFromContext(r)
	if !ok {
		HandleAPIError(w, r, service.ErrUnauthenticated, "")
		return uuid.Nil, false
	}
	return userID, true
}

// getPathUUID extracts a UUID from the URL path parameters.
// A missing or malformed value reports notFound: an ID that cannot exist
// is answered the same way as one that does not.
func getPathUUID(r *http.Request, paramName string, notFound error) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, paramName))
	if err != nil {
		return uuid.Nil, notFound
	}
	return id, nil
}

// decodeAndValidate decodes an allow-listed JSON body into req and validates it.
func decodeAndValidate(r *http.Request, req any) error {
	if err := shared.DecodeAllowed(r, req); err != nil {
		return err
	}
	return shared.ValidateRequest(req)
}

// parseTaskQuery reads the completed, sortBy, limit and skip query parameters.
// Absent parameters keep their zero values; the service fills in defaults.
func parseTaskQuery(ownerID uuid.UUID, values url.Values) (domain.TaskQuery, error) {
	q := domain.TaskQuery{OwnerID: ownerID}

	if raw, ok := lookup(values, "completed"); ok {
		switch raw {
		case "true":
			v := true
			q.Completed = &v
		case "false":
			v := false
			q.Completed = &v
		default:
			return q, domain.NewValidationError("completed", "must be true or false", domain.ErrInvalidFormat)
		}
	}

	if raw, ok := lookup(values, "sortBy"); ok {
		sort, err := domain.ParseSortBy(raw)
		if err != nil {
			return q, err
		}
		q.Sort = sort
	}

	if raw, ok := lookup(values, "limit"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return q, domain.NewValidationError("limit", "must be a positive integer", domain.ErrInvalidFormat)
		}
		q.Limit = n
	}

	if raw, ok := lookup(values, "skip"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return q, domain.NewValidationError("skip", "must be zero or greater", domain.ErrInvalidFormat)
		}
		q.Skip = n
	}

	return q, nil
}

// lookup returns the first value of key, treating an empty value as absent.
func lookup(values url.Values, key string) (string, bool) {
	raw := values.Get(key)
	return raw, raw != ""
}
