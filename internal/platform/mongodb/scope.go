package mongodb

import (
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// ownerFilter matches the tasks of ownerID. Callers append further conditions to it.
func ownerFilter(ownerID uuid.UUID) bson.D {
	return bson.D{{Key: "owner", Value: ownerID.String()}}
}

// ownerAndID narrows ownerFilter to a single task.
func ownerAndID(ownerID, id uuid.UUID) bson.D {
	return append(ownerFilter(ownerID), bson.E{Key: "_id", Value: id.String()})
}
