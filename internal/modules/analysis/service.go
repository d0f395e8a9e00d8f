package analysis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/modelfleuriet/valuation/internal/domain"
	"github.com/modelfleuriet/valuation/internal/modules/allocation"
	"github.com/modelfleuriet/valuation/internal/modules/metrics"
	"github.com/modelfleuriet/valuation/internal/modules/opportunities"
	"github.com/modelfleuriet/valuation/internal/modules/ranking"
	"github.com/modelfleuriet/valuation/internal/utils"
	"github.com/rs/zerolog"
)

// ErrNoSnapshot is returned when no analysis has completed yet.
var ErrNoSnapshot = errors.New("no analysis snapshot available")

// SnapshotStore persists snapshots across restarts.
type SnapshotStore interface {
	Save(ctx context.Context, snap *Snapshot) error
	Latest(ctx context.Context) (*Snapshot, error)
}

// Service runs the valuation pipeline and publishes the latest snapshot.
// Runs are serialised; readers never block on a running analysis.
type Service struct {
	companies domain.CompanyProvider
	sectors   domain.SectorProvider
	rates     domain.RiskFreeRateProvider
	base      metrics.Config

	store         SnapshotStore
	metrics       *Metrics
	slowThreshold time.Duration
	log           zerolog.Logger
	now           func() time.Time

	mu     sync.Mutex
	latest atomic.Pointer[Snapshot]
}

// Option configures a Service.
type Option func(*Service)

// WithStore persists every snapshot and allows Restore.
func WithStore(store SnapshotStore) Option {
	return func(s *Service) { s.store = store }
}

// WithMetrics records run metrics.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithSlowThreshold sets the duration above which a run is logged as slow.
func WithSlowThreshold(d time.Duration) Option {
	return func(s *Service) { s.slowThreshold = d }
}

// NewService creates an analysis service. base supplies the tax rate and market risk
// premium; the risk-free rate is fetched from rates on every run.
func NewService(
	companies domain.CompanyProvider,
	sectors domain.SectorProvider,
	rates domain.RiskFreeRateProvider,
	base metrics.Config,
	log zerolog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		companies:     companies,
		sectors:       sectors,
		rates:         rates,
		base:          base,
		slowThreshold: utils.DefaultSlowThreshold,
		log:           log.With().Str("module", "analysis").Logger(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Latest returns the most recent snapshot, or nil before the first run.
func (s *Service) Latest() *Snapshot {
	return s.latest.Load()
}

// Restore loads the newest stored snapshot into memory. It is a no-op without a store.
func (s *Service) Restore(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	snap, err := s.store.Latest(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore snapshot: %w", err)
	}
	if snap == nil {
		s.log.Info().Msg("No stored snapshot to restore")
		return nil
	}
	s.latest.CompareAndSwap(nil, snap)
	s.log.Info().
		Str("run_id", snap.RunID).
		Time("generated_at", snap.GeneratedAt).
		Msg("Restored analysis snapshot")
	return nil
}

// Run executes the full pipeline and publishes the result as the latest snapshot.
func (s *Service) Run(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := utils.NewTimer("valuation_analysis", s.log).WithSlowThreshold(s.slowThreshold)

	snap, err := s.run(ctx)
	elapsed := timer.Stop()
	if err != nil {
		s.metrics.failed()
		return nil, err
	}

	if s.store != nil {
		if err := s.store.Save(ctx, snap); err != nil {
			// The in-memory snapshot is still served.
			s.log.Error().Err(err).Str("run_id", snap.RunID).Msg("Failed to persist snapshot")
		}
	}

	s.latest.Store(snap)
	s.metrics.observe(snap, elapsed.Seconds())

	s.log.Info().
		Str("run_id", snap.RunID).
		Int("companies", snap.Report.Len()).
		Int("excluded", len(snap.Report.Excluded)).
		Int("diagnostics", len(snap.Diagnostics)).
		Float64("risk_free_rate", snap.RiskFreeRate).
		Dur("duration", elapsed).
		Msg("Analysis completed")

	return snap, nil
}

func (s *Service) run(ctx context.Context) (*Snapshot, error) {
	companies, err := s.companies.GetCompanies(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load companies: %w", err)
	}

	sectors, err := s.sectors.GetSectors(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to load sectors, sector rankings disabled")
		sectors = domain.SectorMap{}
	}

	ratePct, err := s.rates.GetRiskFreeRate(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to load risk-free rate, using default")
		ratePct = nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := s.base
	cfg.RiskFreeRate = metrics.RiskFreeRateFromPercent(ratePct)

	diagnostics := metrics.NewDiagnosticLog()
	// The report, features and allocations each recompute every company
	reporter := metrics.NewUniqueReporter(metrics.MultiReporter{diagnostics, metrics.NewLogReporter(s.log)})
	calc := metrics.NewCalculator(cfg, metrics.WithReporter(reporter))

	report := ranking.NewRanker(calc, s.log).BuildReport(companies)
	opps := opportunities.NewAnalyzer(calc, s.log).Identify(companies, sectors)

	allocator := allocation.NewAllocator(calc, s.log)
	allocations := make(map[allocation.Profile]allocation.Allocation, len(allocation.Profiles()))
	exposure := make(map[allocation.Profile][]allocation.GroupAllocation, len(allocation.Profiles()))
	for _, p := range allocation.Profiles() {
		alloc := allocator.SuggestAllocation(companies, p)
		allocations[p] = alloc
		exposure[p] = allocation.CalculateGroupAllocation(alloc, sectors)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Snapshot{
		RunID:          uuid.NewString(),
		GeneratedAt:    s.now().UTC(),
		RiskFreeRate:   cfg.RiskFreeRate,
		Config:         cfg,
		Report:         report,
		Opportunities:  opps,
		Allocations:    allocations,
		SectorExposure: exposure,
		Sectors:        sectors,
		Diagnostics:    diagnostics.Items(),
	}, nil
}
