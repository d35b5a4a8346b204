package mongodb

import (
	"errors"
	"fmt"

	"github.com/phrazzld/taskman-api/internal/store"
	"go.mongodb.org/mongo-driver/mongo"
)

// mapError maps a driver error onto the store sentinels. Unknown errors are
// returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	return err
}
