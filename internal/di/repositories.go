package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/modelfleuriet/valuation/internal/config"
	"github.com/modelfleuriet/valuation/internal/domain"
	"github.com/modelfleuriet/valuation/internal/modules/analysis"
	"github.com/modelfleuriet/valuation/internal/modules/universe"
)

// InitializeRepositories creates the data suppliers on top of the container's database.
func InitializeRepositories(container *Container, cfg *config.Config, log zerolog.Logger) error {
	conn := container.DB.Conn()

	var fallback domain.SectorMap
	if cfg.SectorsFile != "" {
		sectors, err := universe.LoadSectorsFile(cfg.SectorsFile)
		if err != nil {
			return fmt.Errorf("failed to load sectors file: %w", err)
		}
		fallback = sectors
		log.Info().
			Str("path", cfg.SectorsFile).
			Int("sectors", len(sectors)).
			Msg("Loaded sector map from file")
	}

	container.CompanyRepo = universe.NewCompanyRepository(conn, log)
	container.SectorRepo = universe.NewSectorRepository(conn, fallback, log)
	container.RateRepo = universe.NewRateRepository(conn, log)
	container.StatementRepo = universe.NewStatementRepository(conn, log)
	container.SnapshotRepo = analysis.NewSnapshotRepository(conn, log)

	container.RateProvider = container.RateRepo
	if cfg.RiskFreeRatePct != nil {
		container.RateProvider = universe.StaticRate{Pct: *cfg.RiskFreeRatePct}
		log.Info().Float64("rate_pct", *cfg.RiskFreeRatePct).Msg("Using configured risk-free rate")
	}

	return nil
}
