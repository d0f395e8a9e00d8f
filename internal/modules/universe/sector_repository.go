package universe

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/modelfleuriet/valuation/internal/domain"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// SectorRepository reads the sector map from the sectors table.
// When the table is empty it serves the fallback map instead.
type SectorRepository struct {
	db       *sqlx.DB
	fallback domain.SectorMap
	log      zerolog.Logger
}

// NewSectorRepository creates a sector repository. A nil fallback serves DefaultSectors.
func NewSectorRepository(db *sqlx.DB, fallback domain.SectorMap, log zerolog.Logger) *SectorRepository {
	if fallback == nil {
		fallback = DefaultSectors()
	}
	return &SectorRepository{
		db:       db,
		fallback: fallback,
		log:      log.With().Str("repo", "sector").Logger(),
	}
}

type sectorRow struct {
	Sector string `db:"sector"`
	Ticker string `db:"ticker"`
}

// GetSectors returns the sector map.
func (r *SectorRepository) GetSectors(ctx context.Context) (domain.SectorMap, error) {
	var rows []sectorRow
	if err := r.db.SelectContext(ctx, &rows, "SELECT sector, ticker FROM sectors ORDER BY sector, ticker"); err != nil {
		return nil, fmt.Errorf("failed to query sectors: %w", err)
	}

	if len(rows) == 0 {
		r.log.Debug().Int("sectors", len(r.fallback)).Msg("Sectors table empty, using fallback map")
		return r.fallback, nil
	}

	sectors := make(domain.SectorMap)
	for _, row := range rows {
		sectors[row.Sector] = append(sectors[row.Sector], NormalizeTicker(row.Ticker))
	}
	return sectors, nil
}

// ReplaceSectors rewrites the sectors table with the given map.
func (r *SectorRepository) ReplaceSectors(ctx context.Context, sectors domain.SectorMap) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sectors"); err != nil {
		return fmt.Errorf("failed to clear sectors: %w", err)
	}

	insert := tx.Rebind("INSERT INTO sectors (sector, ticker) VALUES (?, ?) ON CONFLICT DO NOTHING")
	for _, sector := range sectors.Sectors() {
		for _, ticker := range NormalizeTickers(sectors[sector]) {
			if _, err := tx.ExecContext(ctx, insert, sector, ticker); err != nil {
				return fmt.Errorf("failed to insert sector %s/%s: %w", sector, ticker, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sectors: %w", err)
	}
	r.log.Info().Int("sectors", len(sectors)).Msg("Replaced sector map")
	return nil
}

// LoadSectorsFile reads a YAML sector map (sector name -> ticker list).
// Tickers are normalized.
func LoadSectorsFile(path string) (domain.SectorMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sectors file: %w", err)
	}

	var parsed map[string][]string
	if err := yaml.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse sectors file %s: %w", path, err)
	}

	sectors := make(domain.SectorMap, len(parsed))
	for sector, tickers := range parsed {
		sectors[sector] = NormalizeTickers(tickers)
	}
	return sectors, nil
}
