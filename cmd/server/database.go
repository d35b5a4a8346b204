package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/taskman-api/internal/config"
	"github.com/phrazzld/taskman-api/internal/platform/mongodb"
	"github.com/phrazzld/taskman-api/internal/platform/postgres"
	"github.com/phrazzld/taskman-api/internal/store"
)

// appStores bundles the stores for the configured driver with the
// function that releases their connection.
type appStores struct {
	users store.UserStore
	tasks store.TaskStore
	close func()
}

// openStores connects to the configured database and builds its stores.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*appStores, error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		return openMongoStores(ctx, cfg, logger)
	case config.DriverPostgres:
		db, err := setupAppDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &appStores{
			users: postgres.NewPostgresUserStore(db, logger),
			tasks: postgres.NewPostgresTaskStore(db, logger),
			close: func() {
				if err := db.Close(); err != nil {
					logger.Error("Error closing database connection", slog.String("error", err.Error()))
				}
			},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// setupAppDatabase opens a Postgres connection pool and verifies it with a ping.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established", slog.String("driver", config.DriverPostgres))
	return db, nil
}

func openMongoStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*appStores, error) {
	client, db, err := mongodb.Connect(ctx, cfg.Database.URL, cfg.Database.Name, logger)
	if err != nil {
		return nil, err
	}

	disconnect := func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(dctx); err != nil {
			logger.Error("Error disconnecting from mongo", slog.String("error", err.Error()))
		}
	}

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		disconnect()
		return nil, err
	}

	return &appStores{
		users: mongodb.NewMongoUserStore(db, logger),
		tasks: mongodb.NewMongoTaskStore(db, logger),
		close: disconnect,
	}, nil
}
