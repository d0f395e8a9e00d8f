package ranking

import (
	"math"
	"testing"

	"github.com/modelfleuriet/valuation/internal/domain"
	"github.com/modelfleuriet/valuation/internal/modules/metrics"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRanker(opts ...Option) *Ranker {
	calc := metrics.NewCalculator(metrics.DefaultConfig())
	return NewRanker(calc, zerolog.Nop(), opts...)
}

func company(ticker string, ebit float64) domain.CompanyFinancialData {
	return domain.CompanyFinancialData{
		Ticker:                 ticker,
		CompanyName:            ticker + " SA",
		MarketCap:              1000,
		StockPrice:             25,
		EBIT:                   ebit,
		NetIncome:              ebit * 0.6,
		Revenue:                800,
		Equity:                 80,
		TotalDebt:              20,
		CurrentAssets:          150,
		CurrentLiabilities:     90,
		AccountsReceivable:     50,
		Inventory:              30,
		AccountsPayable:        40,
		PropertyPlantEquipment: 260,
	}
}

func TestCombinedScore(t *testing.T) {
	w := DefaultScoreWeights
	assert.InDelta(t, 0.4*10+0.4*20+0.2*30, CombinedScore(10, 20, 30, w), 1e-12)
	assert.InDelta(t, 0.4*20+0.2*30, CombinedScore(math.NaN(), 20, 30, w), 1e-12)
	assert.Equal(t, 0.0, CombinedScore(math.NaN(), math.NaN(), math.NaN(), w))
}

func TestComputeAllMetrics(t *testing.T) {
	r := newTestRanker()
	d := company("WEGE3.SA", 100)

	rec := r.ComputeAllMetrics(d)
	require.False(t, rec.Failed())

	v := r.calc.Compute(d)
	assert.Equal(t, v.EVAPct, rec.EVAPct)
	assert.Equal(t, v.EFVPct, rec.EFVPct)
	assert.InDelta(t, v.WACC*100, rec.WACCPct, 1e-12)
	assert.InDelta(t, CombinedScore(v.EVAPct, v.EFVPct, v.UpsidePct, DefaultScoreWeights), rec.CombinedScore, 1e-12)
	assert.Equal(t, d, rec.Raw)
}

func TestComputeAllMetrics_InvalidCompany(t *testing.T) {
	r := newTestRanker()
	d := company("BAD3.SA", 100)
	d.MarketCap = math.Inf(1)

	rec := r.ComputeAllMetrics(d)
	assert.True(t, rec.Failed())
	assert.Equal(t, "BAD3.SA", rec.Ticker)
}

func TestComputeAllMetrics_RecoversPanickingEstimator(t *testing.T) {
	calc := metrics.NewCalculator(metrics.DefaultConfig(),
		metrics.WithBetaEstimator(metrics.BetaFunc(func(ticker string) float64 {
			panic("no price history for " + ticker)
		})))
	r := NewRanker(calc, zerolog.Nop())

	rec := r.ComputeAllMetrics(company("PETR4.SA", 100))
	assert.True(t, rec.Failed())
	assert.Contains(t, rec.Err, "no price history")
}

func TestWithScoreWeights(t *testing.T) {
	r := newTestRanker(WithScoreWeights(ScoreWeights{EVA: 1}))
	d := company("WEGE3.SA", 100)

	rec := r.ComputeAllMetrics(d)
	assert.InDelta(t, rec.EVAPct, rec.CombinedScore, 1e-12)
}

func TestBuildReport(t *testing.T) {
	r := newTestRanker()
	report := r.BuildReport([]domain.CompanyFinancialData{
		company("AAAA3.SA", 100),
		company("BBBB3.SA", 50),
		company("CCCC3.SA", 150),
	})

	require.Equal(t, 3, report.Len())
	assert.Equal(t, []string{"AAAA3.SA", "BBBB3.SA", "CCCC3.SA"}, report.Tickers())

	rec, ok := report.Get("BBBB3.SA")
	require.True(t, ok)
	assert.Equal(t, "BBBB3.SA SA", rec.CompanyName)

	_, ok = report.Get("ZZZZ3.SA")
	assert.False(t, ok)
}

func TestBuildReport_ExcludesFailedAndDuplicates(t *testing.T) {
	r := newTestRanker()
	bad := company("BAD3.SA", 100)
	bad.EBIT = math.NaN()

	report := r.BuildReport([]domain.CompanyFinancialData{
		company("AAAA3.SA", 100),
		bad,
		company("AAAA3.SA", 10),
	})

	require.Equal(t, 1, report.Len())
	rec, _ := report.Get("AAAA3.SA")
	assert.Equal(t, 100.0, rec.Raw.EBIT)
	require.Len(t, report.Excluded, 1)
	assert.Equal(t, "BAD3.SA", report.Excluded[0].Ticker)
}

func TestBuildReport_NormalizesUndefinedColumns(t *testing.T) {
	r := newTestRanker()
	d := company("ZERO3.SA", 100)
	d.Equity = 0
	d.TotalDebt = 0

	report := r.BuildReport([]domain.CompanyFinancialData{d})
	rec, ok := report.Get("ZERO3.SA")
	require.True(t, ok)

	for _, v := range []float64{rec.WACCPct, rec.EVAPct, rec.EFVPct, rec.CurrentWealth, rec.UpsidePct, rec.CombinedScore} {
		assert.Equal(t, 0.0, v)
	}
	// Absolute columns keep the undefined marker.
	assert.True(t, metrics.IsUndefined(rec.EVAAbs))
	// Future wealth does not depend on WACC.
	assert.InDelta(t, 1000.0+0-300, rec.FutureWealth, 1e-9)
}

func TestBuildReport_Idempotent(t *testing.T) {
	r := newTestRanker()
	input := []domain.CompanyFinancialData{company("AAAA3.SA", 100), company("BBBB3.SA", 50)}

	assert.Equal(t, r.BuildReport(input).Rows, r.BuildReport(input).Rows)
}

func TestBuildReport_Empty(t *testing.T) {
	r := newTestRanker()
	report := r.BuildReport(nil)

	assert.Equal(t, 0, report.Len())
	assert.Empty(t, report.RankByCombinedScore())
}
