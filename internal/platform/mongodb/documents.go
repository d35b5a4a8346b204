package mongodb

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userDocument struct {
	ID             string             `bson:"_id"`
	Name           string             `bson:"name"`
	Email          string             `bson:"email"`
	Age            int                `bson:"age"`
	HashedPassword string             `bson:"hashedPassword"`
	Avatar         []byte             `bson:"avatar,omitempty"`
	Tokens         []string           `bson:"tokens"`
	CreatedAt      primitive.DateTime `bson:"createdAt"`
	UpdatedAt      primitive.DateTime `bson:"updatedAt"`
}

type taskDocument struct {
	ID          string             `bson:"_id"`
	Owner       string             `bson:"owner"`
	Description string             `bson:"description"`
	Completed   bool               `bson:"completed"`
	CreatedAt   primitive.DateTime `bson:"createdAt"`
	UpdatedAt   primitive.DateTime `bson:"updatedAt"`
	// Seq orders tasks created within the same millisecond.
	Seq int64 `bson:"seq"`
}

func newUserDocument(u *domain.User) userDocument {
	return userDocument{
		ID:             u.ID.String(),
		Name:           u.Name,
		Email:          u.Email,
		Age:            u.Age,
		HashedPassword: u.HashedPassword,
		Avatar:         u.Avatar,
		Tokens:         []string{},
		CreatedAt:      primitive.NewDateTimeFromTime(u.CreatedAt),
		UpdatedAt:      primitive.NewDateTimeFromTime(u.UpdatedAt),
	}
}

func (d userDocument) toDomain() (*domain.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt user id %q: %w", d.ID, err)
	}
	return &domain.User{
		ID:             id,
		Name:           d.Name,
		Email:          d.Email,
		Age:            d.Age,
		HashedPassword: d.HashedPassword,
		Avatar:         d.Avatar,
		CreatedAt:      d.CreatedAt.Time().UTC(),
		UpdatedAt:      d.UpdatedAt.Time().UTC(),
	}, nil
}

func newTaskDocument(t *domain.Task) taskDocument {
	return taskDocument{
		ID:          t.ID.String(),
		Owner:       t.OwnerID.String(),
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   primitive.NewDateTimeFromTime(t.CreatedAt),
		UpdatedAt:   primitive.NewDateTimeFromTime(t.UpdatedAt),
		Seq:         t.CreatedAt.UnixNano(),
	}
}

func (d taskDocument) toDomain() (*domain.Task, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("corrupt task id %q: %w", d.ID, err)
	}
	owner, err := uuid.Parse(d.Owner)
	if err != nil {
		return nil, fmt.Errorf("corrupt task owner %q: %w", d.Owner, err)
	}
	return &domain.Task{
		ID:          id,
		OwnerID:     owner,
		Description: d.Description,
		Completed:   d.Completed,
		CreatedAt:   d.CreatedAt.Time().UTC(),
		UpdatedAt:   d.UpdatedAt.Time().UTC(),
	}, nil
}
