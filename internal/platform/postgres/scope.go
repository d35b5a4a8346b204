package postgres

import (
	"fmt"

	"github.com/google/uuid"
)

// ownerScope returns the WHERE fragment restricting rows to ownerID, with
// its argument list. Further conditions use placeholders from len(args)+1.
func ownerScope(ownerID uuid.UUID) (string, []any) {
	return "owner_id = $1", []any{ownerID}
}

// ownerAndID narrows ownerScope to a single task.
func ownerAndID(ownerID, id uuid.UUID) (string, []any) {
	clause, args := ownerScope(ownerID)
	args = append(args, id)
	return fmt.Sprintf("%s AND id = $%d", clause, len(args)), args
}
