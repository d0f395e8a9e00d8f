package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryDB(t *testing.T) *DB {
	t.Helper()
	conn, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })
	return Wrap(conn, DialectSQLite, "test")
}

func TestDialectFor(t *testing.T) {
	assert.Equal(t, DialectPostgres, DialectFor(Config{URL: "postgres://user@localhost/valuation"}))
	assert.Equal(t, DialectPostgres, DialectFor(Config{URL: "postgresql://localhost/valuation"}))
	assert.Equal(t, DialectSQLite, DialectFor(Config{Path: "data/valuation.db"}))
	assert.Equal(t, DialectSQLite, DialectFor(Config{URL: "mysql://nope"}))
}

func TestBuildConnectionString(t *testing.T) {
	standard := buildConnectionString("/data/valuation.db", ProfileStandard)
	assert.Contains(t, standard, "/data/valuation.db?_pragma=journal_mode(WAL)")
	assert.Contains(t, standard, "synchronous(NORMAL)")

	cache := buildConnectionString("file:test?mode=memory", ProfileCache)
	assert.Contains(t, cache, "file:test?mode=memory&_pragma=journal_mode(WAL)")
	assert.Contains(t, cache, "synchronous(OFF)")
}

func TestSplitStatements(t *testing.T) {
	stmts := splitStatements(`
-- heading comment
CREATE TABLE a (x INTEGER);

CREATE INDEX i ON a(x);
`)
	assert.Equal(t, []string{"CREATE TABLE a (x INTEGER)", "CREATE INDEX i ON a(x)"}, stmts)
}

func TestMigrate(t *testing.T) {
	db := newMemoryDB(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx))
	// Migrations are idempotent.
	require.NoError(t, db.Migrate(ctx))

	var tables []string
	err := db.Conn().SelectContext(ctx, &tables,
		"SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name")
	require.NoError(t, err)
	assert.Equal(t, []string{"analysis_runs", "balance_sheets", "companies", "risk_free_rates", "sectors"}, tables)
}

func TestWithTransaction_RollsBackOnPanic(t *testing.T) {
	db := newMemoryDB(t)
	ctx := context.Background()
	require.NoError(t, db.Migrate(ctx))

	err := WithTransaction(ctx, db.Conn(), func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO sectors (sector, ticker) VALUES ('Banks', 'ITUB4.SA')")
		require.NoError(t, err)
		panic("boom")
	})
	assert.ErrorContains(t, err, "panic in transaction")

	var count int
	require.NoError(t, db.Conn().GetContext(ctx, &count, "SELECT COUNT(*) FROM sectors"))
	assert.Equal(t, 0, count)
}

func TestWithTransaction_NilConnection(t *testing.T) {
	err := WithTransaction(context.Background(), nil, func(*sqlx.Tx) error { return nil })
	assert.Error(t, err)
}

func TestNew_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "valuation.db")

	db, err := New(Config{Path: path, Name: "valuation"})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, DialectSQLite, db.Dialect())
	assert.Equal(t, path, db.Path())
	require.NoError(t, db.Migrate(context.Background()))
	assert.NoError(t, db.HealthCheck(context.Background()))
}
