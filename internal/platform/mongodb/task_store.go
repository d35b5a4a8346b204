package mongodb

import (
	"context"
	"errors"
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
)

var sortFields = map[domain.TaskSortField]string{
	domain.SortByDescription: "description",
	domain.SortByCompleted:   "completed",
	domain.SortByCreatedAt:   "createdAt",
	domain.SortByUpdatedAt:   "updatedAt",
}

// MongoTaskStore implements the store.TaskStore interface on a MongoDB collection.
type MongoTaskStore struct {
	tasks *mongo.Collection
	log   logger.Component
}

// NewMongoTaskStore creates a task store backed by db's tasks collection.
func NewMongoTaskStore(db *mongo.Database, log *slog.Logger) *MongoTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	return &MongoTaskStore{
		tasks: db.Collection(TasksCollection),
		log:   logger.NewComponent(log, "task_store"),
	}
}

var _ store.TaskStore = (*MongoTaskStore)(nil)

// Create implements store.TaskStore.Create.
func (s *MongoTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	if _, err := s.tasks.InsertOne(ctx, newTaskDocument(task)); err != nil {
		s.log.From(ctx).Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return store.NewStoreError("task", "create", "database error", mapError(err))
	}
	return nil
}

// GetByID implements store.TaskStore.GetByID.
func (s *MongoTaskStore) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	var doc taskDocument
	if err := s.tasks.FindOne(ctx, ownerAndID(ownerID, id)).Decode(&doc); err != nil {
		return nil, s.mapTaskError(ctx, "get", id, err)
	}
	return doc.toDomain()
}

// List implements store.TaskStore.List.
func (s *MongoTaskStore) List(ctx context.Context, q domain.TaskQuery) ([]*domain.Task, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	filter, opts := buildFind(q)
	cursor, err := s.tasks.Find(ctx, filter, opts)
	if err != nil {
		s.log.From(ctx).Error("failed to list tasks",
			slog.String("error", err.Error()),
			slog.String("owner_id", q.OwnerID.String()))
		return nil, store.NewStoreError("task", "list", "database error", mapError(err))
	}

	var docs []taskDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, store.NewStoreError("task", "list", "decode failed", mapError(err))
	}

	tasks := make([]*domain.Task, 0, len(docs))
	for _, doc := range docs {
		task, err := doc.toDomain()
		if err != nil {
			return nil, store.NewStoreError("task", "list", "decode failed", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// buildFind renders q as a filter and find options. Insertion order
// (createdAt, seq) is the default and the tie-breaker of every explicit sort.
func buildFind(q domain.TaskQuery) (bson.D, *options.FindOptions) {
	filter := ownerFilter(q.OwnerID)
	if q.Completed != nil {
		filter = append(filter, bson.E{Key: "completed", Value: *q.Completed})
	}

	sort := bson.D{{Key: "createdAt", Value: 1}, {Key: "seq", Value: 1}}
	if q.Sort != nil {
		if field, ok := sortFields[q.Sort.Field]; ok {
			dir := 1
			if q.Sort.Descending() {
				dir = -1
			}
			sort = bson.D{{Key: field, Value: dir}, {Key: "seq", Value: 1}}
		}
	}

	opts := options.Find().
		SetSort(sort).
		SetSkip(int64(q.Skip)).
		SetLimit(int64(q.Limit))
	return filter, opts
}

// Update implements store.TaskStore.Update with a single FindOneAndUpdate
// whose $set names only the fields present in upd.
func (s *MongoTaskStore) Update(
	ctx context.Context,
	ownerID, id uuid.UUID,
	upd domain.TaskUpdate,
) (*domain.Task, error) {
	upd, err := upd.Normalize()
	if err != nil {
		return nil, err
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc taskDocument
	err = s.tasks.FindOneAndUpdate(ctx, ownerAndID(ownerID, id), taskUpdateDocument(upd, time.Now()), opts).Decode(&doc)
	if err != nil {
		return nil, s.mapTaskError(ctx, "update", id, err)
	}
	return doc.toDomain()
}

// taskUpdateDocument renders upd as a $set of the present fields plus updatedAt.
func taskUpdateDocument(upd domain.TaskUpdate, now time.Time) bson.D {
	set := bson.D{}
	if upd.Description != nil {
		set = append(set, bson.E{Key: "description", Value: *upd.Description})
	}
	if upd.Completed != nil {
		set = append(set, bson.E{Key: "completed", Value: *upd.Completed})
	}
	set = append(set, bson.E{Key: "updatedAt", Value: primitive.NewDateTimeFromTime(now)})
	return bson.D{{Key: "$set", Value: set}}
}

// Delete implements store.TaskStore.Delete.
func (s *MongoTaskStore) Delete(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	var doc taskDocument
	if err := s.tasks.FindOneAndDelete(ctx, ownerAndID(ownerID, id)).Decode(&doc); err != nil {
		return nil, s.mapTaskError(ctx, "delete", id, err)
	}
	return doc.toDomain()
}

// DeleteByOwner implements store.TaskStore.DeleteByOwner.
func (s *MongoTaskStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	result, err := s.tasks.DeleteMany(ctx, ownerFilter(ownerID))
	if err != nil {
		s.log.From(ctx).Error("failed to delete owner tasks",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return 0, store.NewStoreError("task", "delete_by_owner", "database error", mapError(err))
	}
	return result.DeletedCount, nil
}

func (s *MongoTaskStore) mapTaskError(ctx context.Context, operation string, id uuid.UUID, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrTaskNotFound
	}
	s.log.From(ctx).Error("task operation failed",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
		slog.String("task_id", id.String()))
	return store.NewStoreError("task", operation, "database error", mapError(err))
}
