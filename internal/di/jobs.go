package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/modelfleuriet/valuation/internal/config"
	"github.com/modelfleuriet/valuation/internal/modules/analysis"
	"github.com/modelfleuriet/valuation/internal/scheduler"
)

// RegisterJobs creates the scheduler and registers the periodic valuation job.
// The scheduler is not started here.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.Scheduler = scheduler.New(log)
	container.AnalysisJob = analysis.NewJob(container.AnalysisService, log).
		WithRetention(container.SnapshotRepo, cfg.KeepRuns)

	if err := container.Scheduler.AddJob(cfg.AnalysisSchedule, container.AnalysisJob); err != nil {
		return fmt.Errorf("failed to register %s: %w", container.AnalysisJob.Name(), err)
	}

	log.Info().
		Str("job", container.AnalysisJob.Name()).
		Str("schedule", cfg.AnalysisSchedule).
		Msg("Registered job")
	return nil
}
