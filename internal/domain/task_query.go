package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// TaskSortField names a task attribute a listing may be ordered by.
type TaskSortField string

// Sortable task fields.
const (
	SortByDescription TaskSortField = "description"
	SortByCompleted   TaskSortField = "completed"
	SortByCreatedAt   TaskSortField = "createdAt"
	SortByUpdatedAt   TaskSortField = "updatedAt"
)

// SortDirection is either ascending or descending.
type SortDirection string

// Sort directions.
const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// DefaultPageSize is the page size used when a listing does not name one.
const DefaultPageSize = 100

// TaskSort is one parsed sortBy expression.
type TaskSort struct {
	Field     TaskSortField
	Direction SortDirection
}

// Descending reports whether the sort runs from high to low.
func (s TaskSort) Descending() bool {
	return s.Direction == SortDesc
}

// TaskQuery describes a task listing. OwnerID is always required;
// a listing can never span owners.
type TaskQuery struct {
	OwnerID   uuid.UUID
	Completed *bool
	// Sort is nil for the store default: insertion order.
	Sort  *TaskSort
	Limit int
	Skip  int
}

// Validate checks the query bounds.
func (q TaskQuery) Validate() error {
	if q.OwnerID == uuid.Nil {
		return NewValidationError("owner", "cannot be empty", ErrInvalidID)
	}
	if q.Limit < 1 {
		return NewValidationError("limit", "must be a positive integer", ErrInvalidFormat)
	}
	if q.Skip < 0 {
		return NewValidationError("skip", "must be zero or greater", ErrInvalidFormat)
	}
	return nil
}

// ParseSortBy parses "field" or "field:direction". The direction defaults
// to ascending when omitted.
func ParseSortBy(raw string) (*TaskSort, error) {
	field, dir, hasDir := strings.Cut(raw, ":")

	sort := &TaskSort{Field: TaskSortField(field), Direction: SortAsc}
	switch sort.Field {
	case SortByDescription, SortByCompleted, SortByCreatedAt, SortByUpdatedAt:
	default:
		return nil, NewValidationError(
			"sortBy",
			fmt.Sprintf("cannot sort by %q", field),
			ErrInvalidFormat,
		)
	}

	if hasDir {
		switch SortDirection(strings.ToLower(dir)) {
		case SortAsc:
		case SortDesc:
			sort.Direction = SortDesc
		default:
			return nil, NewValidationError(
				"sortBy",
				fmt.Sprintf("unknown direction %q", dir),
				ErrInvalidFormat,
			)
		}
	}

	return sort, nil
}
