package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman-api/internal/domain"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
	"github.com/phrazzld/taskman-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoUserStore implements the store.UserStore interface. Tokens are kept
// in an array on the user document and updated with $push and $pull.
type MongoUserStore struct {
	users  *mongo.Collection
	tasks  *MongoTaskStore
	client *mongo.Client
	log    logger.Component
}

// NewMongoUserStore creates a user store backed by db's users collection.
func NewMongoUserStore(db *mongo.Database, log *slog.Logger) *MongoUserStore {
	if db == nil {
		panic("db cannot be nil")
	}
	return &MongoUserStore{
		users:  db.Collection(UsersCollection),
		tasks:  NewMongoTaskStore(db, log),
		client: db.Client(),
		log:    logger.NewComponent(log, "user_store"),
	}
}

var _ store.UserStore = (*MongoUserStore)(nil)

func byID(id uuid.UUID) bson.D {
	return bson.D{{Key: "_id", Value: id.String()}}
}

// Create implements store.UserStore.Create.
func (s *MongoUserStore) Create(ctx context.Context, user *domain.User) error {
	log := s.log.From(ctx)

	if user.HashedPassword == "" {
		return domain.NewValidationError("password", "must be hashed before storing", domain.ErrInvalidPassword)
	}
	if err := user.Validate(); err != nil {
		return err
	}

	if _, err := s.users.InsertOne(ctx, newUserDocument(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrEmailExists
		}
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return store.NewStoreError("user", "create", "database error", mapError(err))
	}

	log.Info("user created", slog.String("user_id", user.ID.String()))
	return nil
}

// GetByID implements store.UserStore.GetByID.
func (s *MongoUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.findOne(ctx, "get_by_id", byID(id))
}

// GetByEmail implements store.UserStore.GetByEmail.
func (s *MongoUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findOne(ctx, "get_by_email", bson.D{{Key: "email", Value: domain.NormalizeEmail(email)}})
}

// GetByIDAndToken implements store.UserStore.GetByIDAndToken.
func (s *MongoUserStore) GetByIDAndToken(ctx context.Context, id uuid.UUID, token string) (*domain.User, error) {
	return s.findOne(ctx, "get_by_token", append(byID(id), bson.E{Key: "tokens", Value: token}))
}

func (s *MongoUserStore) findOne(ctx context.Context, operation string, filter bson.D) (*domain.User, error) {
	var doc userDocument
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, store.ErrUserNotFound
		}
		s.log.From(ctx).Error("failed to get user",
			slog.String("operation", operation),
			slog.String("error", err.Error()))
		return nil, store.NewStoreError("user", operation, "database error", mapError(err))
	}
	return doc.toDomain()
}

// Update implements store.UserStore.Update with a single FindOneAndUpdate
// whose $set names only the fields present in upd.
func (s *MongoUserStore) Update(ctx context.Context, id uuid.UUID, upd domain.UserUpdate) (*domain.User, error) {
	if upd.Password != nil {
		return nil, domain.NewValidationError("password", "must be hashed before storing", domain.ErrInvalidPassword)
	}
	upd, err := upd.Normalize()
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDocument
	err = s.users.FindOneAndUpdate(ctx, byID(id), userUpdateDocument(upd, time.Now()), opts).Decode(&doc)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return nil, store.ErrUserNotFound
		case mongo.IsDuplicateKeyError(err):
			return nil, store.ErrEmailExists
		}
		s.log.From(ctx).Error("failed to update user",
			slog.String("operation", "update"),
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return nil, store.NewStoreError("user", "update", "database error", mapError(err))
	}
	return doc.toDomain()
}

// userUpdateDocument renders upd as a $set of the present fields plus updatedAt.
func userUpdateDocument(upd domain.UserUpdate, now time.Time) bson.D {
	set := bson.D{}
	if upd.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *upd.Name})
	}
	if upd.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *upd.Email})
	}
	if upd.Age != nil {
		set = append(set, bson.E{Key: "age", Value: *upd.Age})
	}
	if upd.HashedPassword != nil {
		set = append(set, bson.E{Key: "hashedPassword", Value: *upd.HashedPassword})
	}
	set = append(set, bson.E{Key: "updatedAt", Value: primitive.NewDateTimeFromTime(now)})
	return bson.D{{Key: "$set", Value: set}}
}

// Delete implements store.UserStore.Delete. MongoDB gives no cross-collection
// atomicity here: tasks go first, then the user. A failure after the tasks
// are gone is logged and reported as ErrDeleteFailed.
func (s *MongoUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := s.log.From(ctx)

	removed, err := s.tasks.DeleteByOwner(ctx, id)
	if err != nil {
		return err
	}

	result, err := s.users.DeleteOne(ctx, byID(id))
	if err != nil {
		log.Error("user delete failed after removing tasks",
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()),
			slog.Int64("tasks_deleted", removed))
		return fmt.Errorf("%w: %w", store.ErrDeleteFailed, mapError(err))
	}
	if result.DeletedCount == 0 {
		return store.ErrUserNotFound
	}

	log.Info("user deleted",
		slog.String("user_id", id.String()),
		slog.Int64("tasks_deleted", removed))
	return nil
}

// AddToken implements store.UserStore.AddToken.
func (s *MongoUserStore) AddToken(ctx context.Context, id uuid.UUID, token string) error {
	return s.updateOne(ctx, "add_token", id, bson.D{{Key: "$push", Value: bson.D{{Key: "tokens", Value: token}}}})
}

// RemoveToken implements store.UserStore.RemoveToken.
func (s *MongoUserStore) RemoveToken(ctx context.Context, id uuid.UUID, token string) error {
	err := s.updateOne(ctx, "remove_token", id, bson.D{{Key: "$pull", Value: bson.D{{Key: "tokens", Value: token}}}})
	if errors.Is(err, store.ErrUserNotFound) {
		return nil
	}
	return err
}

// ClearTokens implements store.UserStore.ClearTokens.
func (s *MongoUserStore) ClearTokens(ctx context.Context, id uuid.UUID) error {
	err := s.updateOne(ctx, "clear_tokens", id, bson.D{{Key: "$set", Value: bson.D{{Key: "tokens", Value: bson.A{}}}}})
	if errors.Is(err, store.ErrUserNotFound) {
		return nil
	}
	return err
}

// SetAvatar implements store.UserStore.SetAvatar.
func (s *MongoUserStore) SetAvatar(ctx context.Context, id uuid.UUID, image []byte) error {
	now := primitive.NewDateTimeFromTime(time.Now().UTC())

	var update bson.D
	if len(image) == 0 {
		update = bson.D{
			{Key: "$unset", Value: bson.D{{Key: "avatar", Value: ""}}},
			{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: now}}},
		}
	} else {
		update = bson.D{{Key: "$set", Value: bson.D{
			{Key: "avatar", Value: image},
			{Key: "updatedAt", Value: now},
		}}}
	}
	return s.updateOne(ctx, "set_avatar", id, update)
}

// Ping implements store.UserStore.Ping.
func (s *MongoUserStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	return nil
}

func (s *MongoUserStore) updateOne(ctx context.Context, operation string, id uuid.UUID, update bson.D) error {
	result, err := s.users.UpdateOne(ctx, byID(id), update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrEmailExists
		}
		s.log.From(ctx).Error("failed to update user",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
			slog.String("user_id", id.String()))
		return store.NewStoreError("user", operation, "database error", mapError(err))
	}
	if result.MatchedCount == 0 {
		return store.ErrUserNotFound
	}
	return nil
}
