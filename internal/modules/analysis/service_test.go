package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/modelfleuriet/valuation/internal/domain"
	"github.com/modelfleuriet/valuation/internal/modules/allocation"
	"github.com/modelfleuriet/valuation/internal/modules/metrics"
	testingpkg "github.com/modelfleuriet/valuation/internal/testing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompanies struct {
	companies []domain.CompanyFinancialData
	err       error
}

func (f fakeCompanies) GetCompanies(context.Context) ([]domain.CompanyFinancialData, error) {
	return f.companies, f.err
}

type fakeSectors struct {
	sectors domain.SectorMap
	err     error
}

func (f fakeSectors) GetSectors(context.Context) (domain.SectorMap, error) {
	return f.sectors, f.err
}

type fakeRate struct {
	pct *float64
	err error
}

func (f fakeRate) GetRiskFreeRate(context.Context) (*float64, error) {
	return f.pct, f.err
}

type memoryStore struct {
	mu    sync.Mutex
	saved []*Snapshot
	err   error
}

func (m *memoryStore) Save(_ context.Context, snap *Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, snap)
	return nil
}

func (m *memoryStore) Latest(context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if len(m.saved) == 0 {
		return nil, nil
	}
	return m.saved[len(m.saved)-1], nil
}

func newTestService(t *testing.T, companies domain.CompanyProvider, opts ...Option) *Service {
	t.Helper()
	rate := 10.5
	return NewService(
		companies,
		fakeSectors{sectors: domain.SectorMap{"Industry": {"GOOD3.SA", "FAIR3.SA"}, "Retail": {"WEAK3.SA"}}},
		fakeRate{pct: &rate},
		metrics.DefaultConfig(),
		zerolog.Nop(),
		opts...,
	)
}

func TestService_Run(t *testing.T) {
	store := &memoryStore{}
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	svc := newTestService(t, fakeCompanies{companies: testingpkg.NewUniverseFixtures()}, WithStore(store), WithMetrics(m))
	svc.now = func() time.Time { return fixed }
	assert.Nil(t, svc.Latest())

	snap, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.NotEmpty(t, snap.RunID)
	assert.Equal(t, fixed, snap.GeneratedAt)
	assert.InDelta(t, 0.105, snap.RiskFreeRate, 1e-12)
	assert.InDelta(t, 0.105, snap.Config.RiskFreeRate, 1e-12)
	assert.Equal(t, metrics.DefaultTaxRate, snap.Config.TaxRate)

	assert.Equal(t, []string{"GOOD3.SA", "FAIR3.SA", "WEAK3.SA", "POOR3.SA"}, snap.Report.Tickers())
	require.Len(t, snap.Report.Excluded, 1)
	assert.Equal(t, "BAD3.SA", snap.Report.Excluded[0].Ticker)

	for _, p := range allocation.Profiles() {
		alloc, ok := snap.Allocation(p)
		require.True(t, ok, p)
		assert.InDelta(t, 1.0, alloc.TotalWeight(), 1e-3, p)
		assert.NotEmpty(t, snap.SectorExposure[p], p)
	}

	assert.Contains(t, snap.Opportunities.SectorRankings, "Industry")
	assert.Len(t, snap.Companies(), 4)
	assert.Same(t, snap, svc.Latest())
	require.Len(t, store.saved, 1)
	assert.Same(t, snap, store.saved[0])

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("success")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Companies))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Excluded))
	assert.Equal(t, float64(fixed.Unix()), testutil.ToFloat64(m.LastSuccess))
}

func TestService_RunReportsEachEdgeCaseOnce(t *testing.T) {
	clamped := testingpkg.NewCompanyFixture("NEG3.SA", 50, 300)
	clamped.PropertyPlantEquipment = -500
	noCapital := testingpkg.NewCompanyFixture("ZCAP3.SA", 50, 300)
	noCapital.Equity = 0
	noCapital.TotalDebt = 0

	companies := append(testingpkg.NewUniverseFixtures(), clamped, noCapital)
	m := NewMetrics(prometheus.NewRegistry())
	svc := newTestService(t, fakeCompanies{companies: companies}, WithMetrics(m))

	snap, err := svc.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, snap.Diagnostics, 2)
	seen := map[string]string{}
	for _, d := range snap.Diagnostics {
		seen[d.Ticker] = d.Metric
	}
	assert.Equal(t, map[string]string{
		"NEG3.SA":  metrics.MetricCapitalEmployed,
		"ZCAP3.SA": metrics.MetricWACC,
	}, seen)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Diagnostics))
}

func TestService_RunIDsAreUnique(t *testing.T) {
	svc := newTestService(t, fakeCompanies{companies: testingpkg.NewUniverseFixtures()})

	first, err := svc.Run(context.Background())
	require.NoError(t, err)
	second, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Same(t, second, svc.Latest())
}

func TestService_RunFailsWhenCompaniesUnavailable(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	svc := newTestService(t, fakeCompanies{err: errors.New("connection refused")}, WithMetrics(m))

	snap, err := svc.Run(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Nil(t, snap)
	assert.Nil(t, svc.Latest())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("failed")))
}

func TestService_RunToleratesMissingSectorsAndRate(t *testing.T) {
	svc := NewService(
		fakeCompanies{companies: testingpkg.NewUniverseFixtures()},
		fakeSectors{err: errors.New("no table")},
		fakeRate{err: errors.New("timeout")},
		metrics.DefaultConfig(),
		zerolog.Nop(),
	)

	snap, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Sectors)
	assert.Empty(t, snap.Opportunities.SectorRankings)
	assert.Equal(t, metrics.DefaultRiskFreeRate, snap.RiskFreeRate)
}

func TestService_RunCancelled(t *testing.T) {
	svc := newTestService(t, fakeCompanies{companies: testingpkg.NewUniverseFixtures()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, svc.Latest())
}

func TestService_PersistFailureStillPublishes(t *testing.T) {
	store := &memoryStore{err: errors.New("disk full")}
	svc := newTestService(t, fakeCompanies{companies: testingpkg.NewUniverseFixtures()}, WithStore(store))

	snap, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Same(t, snap, svc.Latest())
}

func TestService_Restore(t *testing.T) {
	stored := &Snapshot{RunID: "previous"}
	store := &memoryStore{saved: []*Snapshot{stored}}
	svc := newTestService(t, fakeCompanies{companies: testingpkg.NewUniverseFixtures()}, WithStore(store))

	require.NoError(t, svc.Restore(context.Background()))
	assert.Same(t, stored, svc.Latest())

	// A restore never replaces a fresher in-memory snapshot.
	fresh, err := svc.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, svc.Restore(context.Background()))
	assert.Same(t, fresh, svc.Latest())

	empty := newTestService(t, fakeCompanies{}, WithStore(&memoryStore{}))
	require.NoError(t, empty.Restore(context.Background()))
	assert.Nil(t, empty.Latest())

	broken := newTestService(t, fakeCompanies{}, WithStore(&memoryStore{err: errors.New("boom")}))
	assert.Error(t, broken.Restore(context.Background()))

	noStore := newTestService(t, fakeCompanies{})
	assert.NoError(t, noStore.Restore(context.Background()))
}
