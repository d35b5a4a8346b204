// Package main implements the entry point for the Taskman API server,
// a REST backend for user accounts and their personal task lists.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/taskman-api/internal/config"
	"github.com/phrazzld/taskman-api/internal/platform/logger"
)

// options are the command-line flags.
type options struct {
	configFile string
	migrate    string
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&opts.configFile, "config", "", "path to a config file (default ./config.yaml when present)")
	fs.StringVar(&opts.migrate, "migrate", "",
		"run a migration command (up, down, status, version, reset) and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		log.Fatalf("taskman-api: %v", err)
	}
}

// run loads configuration, then either executes a migration command or
// serves the API until ctx is canceled.
func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("Server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver))

	if opts.migrate != "" {
		return runMigrations(ctx, cfg, opts.migrate, l)
	}

	stores, err := openStores(ctx, cfg, l)
	if err != nil {
		return err
	}

	app, err := newApplication(cfg, l, stores)
	if err != nil {
		stores.close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
