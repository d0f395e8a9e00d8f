// Package database provides database connection and initialization functionality.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

//go:embed schema/*.sql
var schemas embed.FS

// Dialect identifies the SQL backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// driverNames maps a dialect to its registered database/sql driver.
var driverNames = map[Dialect]string{
	DialectSQLite:   "sqlite",
	DialectPostgres: "pgx",
}

// DatabaseProfile defines different configuration profiles for SQLite databases
type DatabaseProfile string

const (
	// ProfileCache - Maximum speed for data that can be recollected
	ProfileCache DatabaseProfile = "cache"
	// ProfileStandard - Balanced configuration for most databases
	ProfileStandard DatabaseProfile = "standard"
)

// DB wraps the database connection with production-grade configuration
type DB struct {
	conn    *sqlx.DB
	dialect Dialect
	path    string
	profile DatabaseProfile
	name    string // Database name for logging
}

// Config holds database configuration
type Config struct {
	// URL selects PostgreSQL when it is a postgres:// or postgresql:// URL.
	URL string
	// Path is the SQLite file used when URL is empty.
	Path    string
	Profile DatabaseProfile
	Name    string // Friendly name for logging (e.g., "valuation")
}

// DialectFor returns the dialect a configuration connects with.
func DialectFor(cfg Config) Dialect {
	if strings.HasPrefix(cfg.URL, "postgres://") || strings.HasPrefix(cfg.URL, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// New creates a new database connection with production-grade configuration
func New(cfg Config) (*DB, error) {
	dialect := DialectFor(cfg)

	var dsn string
	switch dialect {
	case DialectPostgres:
		dsn = cfg.URL
	default:
		path, err := preparePath(cfg.Path)
		if err != nil {
			return nil, err
		}
		cfg.Path = path
		if cfg.Profile == "" {
			cfg.Profile = ProfileStandard
		}
		dsn = buildConnectionString(cfg.Path, cfg.Profile)
	}

	conn, err := sqlx.Open(driverNames[dialect], dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Name, err)
	}

	configureConnectionPool(conn.DB, dialect, cfg.Profile)

	// Test connection with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Name, err)
	}

	return &DB{
		conn:    conn,
		dialect: dialect,
		path:    cfg.Path,
		profile: cfg.Profile,
		name:    cfg.Name,
	}, nil
}

// Wrap adopts an existing connection, typically an in-memory database in tests.
func Wrap(conn *sqlx.DB, dialect Dialect, name string) *DB {
	return &DB{conn: conn, dialect: dialect, name: name}
}

// preparePath resolves a SQLite path and creates its directory.
// file: URIs (in-memory databases) are used as-is.
func preparePath(path string) (string, error) {
	if strings.HasPrefix(path, "file:") {
		return path, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve database path to absolute: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return absPath, nil
}

// buildConnectionString creates SQLite connection string with profile-specific PRAGMAs
func buildConnectionString(path string, profile DatabaseProfile) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	connStr := path + sep + "_pragma=journal_mode(WAL)"

	switch profile {
	case ProfileCache:
		connStr += "&_pragma=synchronous(OFF)"
		connStr += "&_pragma=temp_store(MEMORY)"
	default:
		connStr += "&_pragma=synchronous(NORMAL)"
		connStr += "&_pragma=temp_store(MEMORY)"
	}

	connStr += "&_pragma=busy_timeout(5000)"
	connStr += "&_pragma=cache_size(-64000)" // 64MB cache (negative = KB)

	return connStr
}

// configureConnectionPool sets up connection pool for long-term operation
func configureConnectionPool(conn *sql.DB, dialect Dialect, profile DatabaseProfile) {
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(24 * time.Hour)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	if dialect == DialectSQLite && profile == ProfileCache {
		conn.SetMaxOpenConns(10)
		conn.SetMaxIdleConns(2)
	}
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying connection used by repositories
func (db *DB) Conn() *sqlx.DB {
	return db.conn
}

// Dialect returns the SQL backend in use
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// Name returns the database name for logging
func (db *DB) Name() string {
	return db.name
}

// Path returns the SQLite file path, empty for PostgreSQL
func (db *DB) Path() string {
	return db.path
}

// Migrate applies the embedded schema of the connection's dialect.
// Every statement is idempotent so it runs on each start.
func (db *DB) Migrate(ctx context.Context) error {
	schemaFile := "schema/" + string(db.dialect) + ".sql"
	content, err := schemas.ReadFile(schemaFile)
	if err != nil {
		return fmt.Errorf("failed to read schema %s: %w", schemaFile, err)
	}

	return WithTransaction(ctx, db.conn, func(tx *sqlx.Tx) error {
		for _, stmt := range splitStatements(string(content)) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute schema %s for %s: %w", schemaFile, db.name, err)
			}
		}
		return nil
	})
}

// splitStatements splits a schema file on semicolons, dropping comment lines.
func splitStatements(schema string) []string {
	var lines []string
	for _, line := range strings.Split(schema, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}

	var out []string
	for _, stmt := range strings.Split(strings.Join(lines, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// WithTransaction executes a function within a database transaction.
// It handles begin, commit, rollback, panic recovery, and error wrapping automatically.
// If the function returns an error or panics, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func WithTransaction(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) (err error) {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Use named return variable to capture panic value
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", p)
		} else if err != nil {
			rollbackErr := tx.Rollback()
			if rollbackErr != nil {
				err = fmt.Errorf("transaction failed: %w (rollback also failed: %v)", err, rollbackErr)
			} else {
				err = fmt.Errorf("transaction failed: %w", err)
			}
		} else {
			if commitErr := tx.Commit(); commitErr != nil {
				err = fmt.Errorf("failed to commit transaction: %w", commitErr)
			}
		}
	}()

	err = fn(tx)
	return err
}

// HealthCheck pings the database and, on SQLite, runs an integrity check
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed for %s: %w", db.name, err)
	}
	if db.dialect != DialectSQLite {
		return nil
	}

	var integrityResult string
	if err := db.conn.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&integrityResult); err != nil {
		return fmt.Errorf("integrity check query failed for %s: %w", db.name, err)
	}
	if integrityResult != "ok" {
		return fmt.Errorf("integrity check failed for %s: %s", db.name, integrityResult)
	}
	return nil
}
