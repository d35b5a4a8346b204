//go:build integration

package testdb

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/phrazzld/taskman-api/internal/ciutil"
)

// WithTx runs fn inside a transaction that is always rolled back, so a test
// can write freely without affecting other tests sharing the database.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	// The transaction lives as long as its context, so it gets no deadline.
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		if ciutil.IsCI() {
			stats := db.Stats()
			t.Logf("connection stats: max_open=%d open=%d in_use=%d idle=%d",
				stats.MaxOpenConnections, stats.OpenConnections, stats.InUse, stats.Idle)
		}
		t.Fatalf("failed to begin transaction: %v", err)
	}

	defer func() {
		// sql.ErrTxDone is expected if fn already finished the transaction.
		if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("warning: failed to rollback transaction: %v", err)
		}
	}()

	fn(t, tx)
}
