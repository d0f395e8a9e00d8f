// Package testing provides testing utilities and helpers for the valuation service.
package testing

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/modelfleuriet/valuation/internal/database"
)

// NewTestDB creates an in-memory SQLite database with the valuation schema applied.
// The connection is closed when the test finishes.
func NewTestDB(t *testing.T) *database.DB {
	t.Helper()

	conn, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// Every pooled connection to :memory: would get its own empty database
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := conn.Close(); err != nil {
			t.Logf("Warning: Failed to close test database: %v", err)
		}
	})

	db := database.Wrap(conn, database.DialectSQLite, "test")
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}
