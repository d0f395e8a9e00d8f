// Package di provides dependency injection type definitions.
package di

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/modelfleuriet/valuation/internal/database"
	"github.com/modelfleuriet/valuation/internal/domain"
	"github.com/modelfleuriet/valuation/internal/modules/analysis"
	analysishandlers "github.com/modelfleuriet/valuation/internal/modules/analysis/handlers"
	"github.com/modelfleuriet/valuation/internal/modules/fleuriet"
	"github.com/modelfleuriet/valuation/internal/modules/universe"
	"github.com/modelfleuriet/valuation/internal/scheduler"
)

// Container holds all dependencies for the application.
// It is created by Wire and handed to the server and main.
type Container struct {
	DB *database.DB

	// Repositories
	CompanyRepo   *universe.CompanyRepository
	SectorRepo    *universe.SectorRepository
	RateRepo      *universe.RateRepository
	StatementRepo *universe.StatementRepository
	SnapshotRepo  *analysis.SnapshotRepository

	// RateProvider is RateRepo, or a fixed rate when one is configured.
	RateProvider domain.RiskFreeRateProvider

	// Services
	Registry        *prometheus.Registry
	AnalysisMetrics *analysis.Metrics
	AnalysisService *analysis.Service
	FleurietService *fleuriet.Service
	Handlers        *analysishandlers.Handler

	// Background work
	Scheduler   *scheduler.Scheduler
	AnalysisJob *analysis.Job
}

// Close releases the resources held by the container.
func (c *Container) Close() error {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
