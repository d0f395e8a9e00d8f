package di

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/modelfleuriet/valuation/internal/config"
	"github.com/modelfleuriet/valuation/internal/modules/allocation"
	"github.com/modelfleuriet/valuation/internal/modules/analysis"
	analysishandlers "github.com/modelfleuriet/valuation/internal/modules/analysis/handlers"
	"github.com/modelfleuriet/valuation/internal/modules/fleuriet"
	"github.com/modelfleuriet/valuation/internal/modules/metrics"
)

// InitializeServices creates the analysis and Fleuriet services and the HTTP handlers.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) {
	container.Registry = prometheus.NewRegistry()
	container.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	container.AnalysisMetrics = analysis.NewMetrics(container.Registry)

	base := metrics.DefaultConfig()
	base.TaxRate = cfg.TaxRate
	base.MarketRiskPremium = cfg.MarketRiskPremium

	container.AnalysisService = analysis.NewService(
		container.CompanyRepo,
		container.SectorRepo,
		container.RateProvider,
		base,
		log,
		analysis.WithStore(container.SnapshotRepo),
		analysis.WithMetrics(container.AnalysisMetrics),
		analysis.WithSlowThreshold(cfg.MaxSlowRun),
	)

	container.FleurietService = fleuriet.NewService(container.StatementRepo, log)

	profile, ok := allocation.ParseProfile(cfg.DefaultProfile)
	if !ok {
		log.Warn().
			Str("profile", cfg.DefaultProfile).
			Str("fallback", string(profile)).
			Msg("Unknown default profile")
	}

	container.Handlers = analysishandlers.NewHandler(
		container.AnalysisService,
		container.SnapshotRepo,
		container.FleurietService,
		profile,
		log,
	)
}
