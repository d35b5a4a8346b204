package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskman-api/internal/config"
	"github.com/phrazzld/taskman-api/internal/service"
	"github.com/phrazzld/taskman-api/internal/service/auth"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	stores *appStores

	tokenService auth.TokenService
	userService  service.UserService
	taskService  service.TaskService
}

// newApplication wires services over already opened stores.
func newApplication(cfg *config.Config, logger *slog.Logger, stores *appStores) (*application, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if stores == nil || stores.users == nil || stores.tasks == nil {
		return nil, errors.New("stores cannot be nil")
	}

	app := &application{
		config: cfg,
		logger: logger,
		stores: stores,
	}

	var err error
	app.tokenService, err = auth.NewTokenService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}
	logger.Info("Token service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	app.userService = service.NewUserService(
		stores.users,
		app.tokenService,
		auth.NewBcryptHasher(cfg.Auth.BCryptCost),
		service.AvatarOptions{MaxBytes: cfg.Avatar.MaxBytes, Size: cfg.Avatar.Size},
		logger,
	)
	app.taskService = service.NewTaskService(stores.tasks, cfg.Tasks.MaxPageSize, logger)

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run serves the API until ctx is canceled, then shuts down and releases resources.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.stores != nil && app.stores.close != nil {
		app.stores.close()
	}
	app.logger.Info("Application shutdown completed")
}
