// Package testutil provides test helpers for wiring the engine against
// a real migrated database.
package testutil

import (
	"context"
	"testing"

	"github.com/mhutchins/pointflow/internal/service"
	"github.com/mhutchins/pointflow/internal/storage"
)

// SetupTestDB creates an in-memory SQLite database with migrations
// applied, registering cleanup with the test.
func SetupTestDB(t *testing.T) service.Storage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return store
}
