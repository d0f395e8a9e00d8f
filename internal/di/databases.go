package di

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/modelfleuriet/valuation/internal/config"
	"github.com/modelfleuriet/valuation/internal/database"
)

// InitializeDatabase opens the valuation database and applies its schema.
// DATABASE_URL selects PostgreSQL when it is a postgres URL and is treated
// as a SQLite path otherwise.
func InitializeDatabase(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	dbCfg := database.Config{
		Profile: database.ProfileStandard,
		Name:    "valuation",
	}
	probe := database.Config{URL: cfg.DatabaseURL}
	if database.DialectFor(probe) == database.DialectPostgres {
		dbCfg.URL = cfg.DatabaseURL
	} else {
		dbCfg.Path = cfg.DatabaseURL
	}

	db, err := database.New(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize valuation database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate valuation database: %w", err)
	}

	log.Info().
		Str("dialect", string(db.Dialect())).
		Str("name", db.Name()).
		Msg("Database initialized")

	return &Container{DB: db}, nil
}
