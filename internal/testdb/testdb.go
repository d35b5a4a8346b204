//go:build integration

// Package testdb provides databases for integration tests. Each helper uses the
// URL from the environment when one is configured and otherwise starts a
// throwaway container with testcontainers.
package testdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/taskman-api/internal/ciutil"
	"github.com/phrazzld/taskman-api/internal/platform/mongodb"
	"github.com/phrazzld/taskman-api/internal/platform/postgres"
	"github.com/phrazzld/taskman-api/internal/redact"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
)

const startupTimeout = 90 * time.Second

// Postgres returns a migrated Postgres handle that is closed when the test ends.
func Postgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	dsn := ciutil.TestDatabaseURL(nil)
	if dsn == "" {
		dsn = startPostgres(t)
	}

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		t.Fatalf("database %s unreachable: %s", redact.String(dsn), redact.Error(err))
	}

	require.NoError(t, postgres.Migrate(ctx, db, postgres.MigrateUp, nil))
	return db
}

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "taskman",
				"POSTGRES_PASSWORD": "taskman",
				"POSTGRES_DB":       "taskman",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(startupTimeout),
		},
		Started: true,
	})
	require.NoError(t, err)
	terminateOnCleanup(t, container)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return fmt.Sprintf("postgres://taskman:taskman@%s:%s/taskman?sslmode=disable", host, port.Port())
}

// Mongo returns an indexed database unique to the test. The database is
// dropped when the test ends.
func Mongo(t *testing.T) *mongo.Database {
	t.Helper()
	ctx := context.Background()

	uri := ciutil.TestMongoURL()
	if uri == "" {
		uri = startMongo(t)
	}

	name := "taskman_" + strings.NewReplacer("/", "_", " ", "_").Replace(strings.ToLower(t.Name()))
	if len(name) > 60 {
		name = name[:60]
	}

	client, db, err := mongodb.Connect(ctx, uri, name, nil)
	if err != nil {
		t.Fatalf("mongo %s unreachable: %s", redact.String(uri), redact.Error(err))
	}
	t.Cleanup(func() {
		_ = db.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})

	require.NoError(t, mongodb.EnsureIndexes(ctx, db))
	return db
}

func startMongo(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(startupTimeout),
		},
		Started: true,
	})
	require.NoError(t, err)
	terminateOnCleanup(t, container)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	return fmt.Sprintf("mongodb://%s:%s", host, port.Port())
}

func terminateOnCleanup(t *testing.T, container testcontainers.Container) {
	t.Helper()
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})
}
