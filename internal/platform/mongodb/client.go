package mongodb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	UsersCollection = "users"
	TasksCollection = "tasks"
)

const connectTimeout = 10 * time.Second

// Connect opens a client for uri, verifies it with a ping and returns the named database.
// The caller owns the client and must Disconnect it.
func Connect(ctx context.Context, uri, database string, logger *slog.Logger) (*mongo.Client, *mongo.Database, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	logger.Info("connected to mongo", slog.String("database", database))
	return client, client.Database(database), nil
}

// EnsureIndexes creates the indexes the stores rely on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_email_key"),
	})
	if err != nil {
		return fmt.Errorf("failed to create users email index: %w", err)
	}

	_, err = db.Collection(TasksCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: 1}, {Key: "seq", Value: 1}},
			Options: options.Index().SetName("tasks_owner_created"),
		},
		{
			Keys:    bson.D{{Key: "owner", Value: 1}, {Key: "completed", Value: 1}},
			Options: options.Index().SetName("tasks_owner_completed"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create task indexes: %w", err)
	}

	return nil
}
