package universe

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

// RateRepository reads the policy interest rate history.
type RateRepository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewRateRepository creates a rate repository.
func NewRateRepository(db *sqlx.DB, log zerolog.Logger) *RateRepository {
	return &RateRepository{
		db:  db,
		log: log.With().Str("repo", "rate").Logger(),
	}
}

// GetRiskFreeRate returns the most recent rate in percent, or nil when none is stored.
func (r *RateRepository) GetRiskFreeRate(ctx context.Context) (*float64, error) {
	var rate float64
	err := r.db.GetContext(ctx, &rate,
		"SELECT rate_pct FROM risk_free_rates ORDER BY reference_date DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		r.log.Debug().Msg("No risk-free rate stored")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query risk-free rate: %w", err)
	}
	return &rate, nil
}

// SaveRiskFreeRate records the rate for a reference date (YYYY-MM-DD).
func (r *RateRepository) SaveRiskFreeRate(ctx context.Context, referenceDate string, ratePct float64) error {
	query := r.db.Rebind(`INSERT INTO risk_free_rates (reference_date, rate_pct) VALUES (?, ?)
		ON CONFLICT (reference_date) DO UPDATE SET rate_pct = excluded.rate_pct`)
	if _, err := r.db.ExecContext(ctx, query, referenceDate, ratePct); err != nil {
		return fmt.Errorf("failed to save risk-free rate: %w", err)
	}
	return nil
}

// StaticRate serves a fixed rate, used when the rate is configured instead of collected.
type StaticRate struct {
	Pct float64
}

// GetRiskFreeRate returns the configured rate.
func (s StaticRate) GetRiskFreeRate(context.Context) (*float64, error) {
	rate := s.Pct
	return &rate, nil
}
