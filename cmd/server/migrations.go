package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskman-api/internal/config"
	"github.com/phrazzld/taskman-api/internal/platform/mongodb"
	"github.com/phrazzld/taskman-api/internal/platform/postgres"
)

// runMigrations executes a migration command for the configured driver.
// Mongo has no schema; "up" creates its indexes and other commands are rejected.
func runMigrations(ctx context.Context, cfg *config.Config, command string, logger *slog.Logger) error {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := setupAppDatabase(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()
		return postgres.Migrate(ctx, db, command, logger)

	case config.DriverMongo:
		if command != postgres.MigrateUp {
			return fmt.Errorf("migration command %q is not supported for mongo", command)
		}
		client, db, err := mongodb.Connect(ctx, cfg.Database.URL, cfg.Database.Name, logger)
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			return err
		}
		logger.Info("mongo indexes ensured")
		return nil

	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}
