package analysis

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/mem"
)

// DefaultJobTimeout bounds one scheduled run.
const DefaultJobTimeout = 10 * time.Minute

// Pruner trims stored run history.
type Pruner interface {
	Prune(ctx context.Context, keep int) (int64, error)
}

// Job runs the analysis on a schedule, logging host memory around each run.
type Job struct {
	service *Service
	timeout time.Duration
	pruner  Pruner
	keep    int
	log     zerolog.Logger
	memory  func() (*mem.VirtualMemoryStat, error)
}

// NewJob creates the scheduled analysis job.
func NewJob(service *Service, log zerolog.Logger) *Job {
	return &Job{
		service: service,
		timeout: DefaultJobTimeout,
		log:     log.With().Str("job", "valuation_analysis").Logger(),
		memory:  mem.VirtualMemory,
	}
}

// WithRetention makes the job keep only the newest keep runs after each successful run.
func (j *Job) WithRetention(p Pruner, keep int) *Job {
	j.pruner = p
	j.keep = keep
	return j
}

// Name returns the job name.
func (j *Job) Name() string {
	return "valuation_analysis"
}

// Run executes one analysis.
func (j *Job) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	j.logMemory("before")
	_, err := j.service.Run(ctx)
	j.logMemory("after")
	if err != nil {
		return err
	}

	if j.pruner != nil && j.keep > 0 {
		// History is best effort; a failed prune does not fail the run
		if _, err := j.pruner.Prune(ctx, j.keep); err != nil {
			j.log.Warn().Err(err).Msg("Failed to prune analysis history")
		}
	}
	return nil
}

func (j *Job) logMemory(stage string) {
	vm, err := j.memory()
	if err != nil {
		j.log.Debug().Err(err).Msg("Failed to read memory usage")
		return
	}
	j.log.Info().
		Str("stage", stage).
		Float64("used_mb", float64(vm.Used)/1024/1024).
		Float64("used_percent", vm.UsedPercent).
		Msg("Memory usage")
}
