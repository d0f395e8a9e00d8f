package metrics

import (
	"math"
	"sync"
	"testing"

	"github.com/modelfleuriet/valuation/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCalculator(opts ...Option) *Calculator {
	return NewCalculator(DefaultConfig(), opts...)
}

// healthyCompany has capital employed 300 (PPE 260 + NCG 40) and a 80/20 equity/debt split.
func healthyCompany() domain.CompanyFinancialData {
	return domain.CompanyFinancialData{
		Ticker:                 "WEGE3.SA",
		CompanyName:            "WEG",
		MarketCap:              1000,
		StockPrice:             40,
		EBIT:                   100,
		NetIncome:              60,
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

func TestNOPAT(t *testing.T) {
	c := newTestCalculator()
	assert.InDelta(t, 66.0, c.NOPAT(100), 1e-12)
	assert.InDelta(t, -33.0, c.NOPAT(-50), 1e-12)
}

func TestWorkingCapitalAndNCG(t *testing.T) {
	c := newTestCalculator()
	d := healthyCompany()

	assert.Equal(t, 60.0, c.WorkingCapital(d))
	assert.Equal(t, 40.0, c.NCG(d))
}

func TestCapitalEmployed(t *testing.T) {
	c := newTestCalculator()
	assert.Equal(t, 300.0, c.CapitalEmployed(healthyCompany()))
}

func TestCapitalEmployed_ClampsNonPositiveToFloor(t *testing.T) {
	tests := []struct {
		name string
		data domain.CompanyFinancialData
	}{
		{"negative", domain.CompanyFinancialData{Ticker: "A", PropertyPlantEquipment: 10, AccountsPayable: 50}},
		{"zero", domain.CompanyFinancialData{Ticker: "B"}},
		{"exactly cancelling", domain.CompanyFinancialData{Ticker: "C", PropertyPlantEquipment: 40, AccountsPayable: 40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := NewDiagnosticLog()
			c := newTestCalculator(WithReporter(diags))

			assert.Equal(t, 1.0, c.CapitalEmployed(tt.data))

			recorded := diags.ForMetric(MetricCapitalEmployed)
			require.Len(t, recorded, 1)
			assert.Equal(t, tt.data.Ticker, recorded[0].Ticker)
			assert.LessOrEqual(t, recorded[0].Value, 0.0)
		})
	}
}

func TestCostOfEquity(t *testing.T) {
	c := newTestCalculator()
	assert.InDelta(t, 0.16, c.CostOfEquity(1.0), 1e-12)
	assert.InDelta(t, 0.19, c.CostOfEquity(1.5), 1e-12)
}

// The cost of debt is the same proxy on every branch. Changing this is a deliberate
// behaviour change and must update this test.
func TestCostOfDebt_IsAlwaysMarkedUpRiskFreeRate(t *testing.T) {
	c := newTestCalculator()
	want := DefaultRiskFreeRate * 1.2

	cases := []domain.CompanyFinancialData{
		{TotalDebt: 0, NetIncome: 10},
		{TotalDebt: -5, NetIncome: 10},
		{TotalDebt: 100, NetIncome: 0},
		{TotalDebt: 100, NetIncome: 10},
		{TotalDebt: 100, NetIncome: -10},
	}
	for _, d := range cases {
		assert.InDelta(t, want, c.CostOfDebt(d), 1e-12)
	}
}

func TestWACC(t *testing.T) {
	c := newTestCalculator()
	// ke = 0.16, kd = 0.12, tax = 0.34, shares 0.8 / 0.2
	want := 0.16*0.8 + 0.12*0.66*0.2
	assert.InDelta(t, want, c.WACC(healthyCompany()), 1e-12)
	assert.InDelta(t, 0.14384, c.WACC(healthyCompany()), 1e-9)
}

func TestWACC_UndefinedWithoutCapital(t *testing.T) {
	diags := NewDiagnosticLog()
	c := newTestCalculator(WithReporter(diags))

	d := healthyCompany()
	d.Equity = -50
	d.TotalDebt = 20

	assert.True(t, IsUndefined(c.WACC(d)))
	assert.Len(t, diags.ForMetric(MetricWACC), 1)
}

func TestWACC_UsesBetaEstimator(t *testing.T) {
	c := newTestCalculator(WithBetaEstimator(BetaFunc(func(ticker string) float64 {
		if ticker == "WEGE3.SA" {
			return 2.0
		}
		return 1.0
	})))

	// ke = 0.10 + 2 * 0.06 = 0.22
	want := 0.22*0.8 + 0.12*0.66*0.2
	assert.InDelta(t, want, c.WACC(healthyCompany()), 1e-12)
	assert.Equal(t, 2.0, c.Beta("WEGE3.SA"))
	assert.Equal(t, 1.0, c.Beta("OTHER"))
}

func TestROCE(t *testing.T) {
	c := newTestCalculator()
	d := healthyCompany()

	assert.InDelta(t, 66.0/300.0, c.ROCE(d, 300), 1e-12)
	assert.True(t, IsUndefined(c.ROCE(d, 0)))
	assert.True(t, IsUndefined(c.ROCE(d, -1)))
}

func TestEVA(t *testing.T) {
	c := newTestCalculator()
	d := healthyCompany()

	roce := c.ROCE(d, 300)
	wacc := c.WACC(d)

	abs, pct := c.EVA(d)
	assert.InDelta(t, 66.0/300.0, roce, 1e-12)
	assert.InDelta(t, 300*(roce-wacc), abs, 1e-9)
	assert.Equal(t, (roce-wacc)*100, pct)
}

func TestEVA_UndefinedWhenWACCUndefined(t *testing.T) {
	c := newTestCalculator()
	d := healthyCompany()
	d.Equity, d.TotalDebt = 0, 0

	abs, pct := c.EVA(d)
	assert.True(t, IsUndefined(abs))
	assert.True(t, IsUndefined(pct))
}

func TestCurrentWealth(t *testing.T) {
	c := newTestCalculator()
	d := healthyCompany()

	evaAbs, _ := c.EVA(d)
	assert.InDelta(t, evaAbs/c.WACC(d), c.CurrentWealth(d), 1e-9)

	d.Equity, d.TotalDebt = 0, 0
	assert.True(t, IsUndefined(c.CurrentWealth(d)))
}

func TestFutureWealth(t *testing.T) {
	c := newTestCalculator()
	d := domain.CompanyFinancialData{
		Ticker:                 "X",
		MarketCap:              1000,
		TotalDebt:              200,
		PropertyPlantEquipment: 300,
	}
	assert.Equal(t, 900.0, c.FutureWealth(d))

	d.MarketCap = math.NaN()
	assert.True(t, IsUndefined(c.FutureWealth(d)))
}

func TestEFV(t *testing.T) {
	c := newTestCalculator()
	d := healthyCompany()

	current := c.CurrentWealth(d)
	future := c.FutureWealth(d)

	abs, pct := c.EFV(d)
	assert.InDelta(t, future-current, abs, 1e-9)
	assert.InDelta(t, (future-current)/300*100, pct, 1e-9)
}

func TestEFV_PropagatesUndefined(t *testing.T) {
	c := newTestCalculator()
	d := healthyCompany()
	d.Equity, d.TotalDebt = -10, 0

	abs, pct := c.EFV(d)
	assert.True(t, IsUndefined(abs))
	assert.True(t, IsUndefined(pct))
}

func TestUpside(t *testing.T) {
	c := newTestCalculator()
	d := healthyCompany()

	assert.InDelta(t, 25.0, c.Upside(d, 250), 1e-12)

	d.MarketCap = 0
	assert.True(t, IsUndefined(c.Upside(d, 250)))

	d.MarketCap = 1000
	assert.True(t, IsUndefined(c.Upside(d, math.NaN())))
}

func TestCompute_MatchesIndividualFormulas(t *testing.T) {
	diags := NewDiagnosticLog()
	c := newTestCalculator(WithReporter(diags))
	d := healthyCompany()

	v := c.Compute(d)
	evaAbs, evaPct := c.EVA(d)
	efvAbs, efvPct := c.EFV(d)

	assert.Equal(t, c.NOPAT(d.EBIT), v.NOPAT)
	assert.Equal(t, 300.0, v.CapitalEmployed)
	assert.Equal(t, 1.0, v.Beta)
	assert.Equal(t, c.WACC(d), v.WACC)
	assert.Equal(t, evaAbs, v.EVAAbs)
	assert.Equal(t, evaPct, v.EVAPct)
	assert.Equal(t, c.CurrentWealth(d), v.CurrentWealth)
	assert.Equal(t, c.FutureWealth(d), v.FutureWealth)
	assert.Equal(t, efvAbs, v.EFVAbs)
	assert.Equal(t, efvPct, v.EFVPct)
	assert.Equal(t, c.Upside(d, efvAbs), v.UpsidePct)
	assert.Empty(t, diags.Items())
}

func TestCompute_ReportsEachEdgeCaseOnce(t *testing.T) {
	diags := NewDiagnosticLog()
	c := newTestCalculator(WithReporter(diags))

	d := domain.CompanyFinancialData{Ticker: "BAD", AccountsPayable: 10}
	v := c.Compute(d)

	assert.Equal(t, 1.0, v.CapitalEmployed)
	assert.True(t, IsUndefined(v.WACC))
	assert.True(t, IsUndefined(v.EVAPct))
	assert.True(t, IsUndefined(v.UpsidePct))
	assert.Len(t, diags.ForMetric(MetricCapitalEmployed), 1)
	assert.Len(t, diags.ForMetric(MetricWACC), 1)
}

func TestRiskFreeRateFromPercent(t *testing.T) {
	pct := 10.5
	zero := 0.0
	nan := math.NaN()

	assert.InDelta(t, 0.105, RiskFreeRateFromPercent(&pct), 1e-12)
	assert.Equal(t, DefaultRiskFreeRate, RiskFreeRateFromPercent(nil))
	assert.Equal(t, DefaultRiskFreeRate, RiskFreeRateFromPercent(&zero))
	assert.Equal(t, DefaultRiskFreeRate, RiskFreeRateFromPercent(&nan))
}

func TestCalculator_SharedAcrossGoroutines(t *testing.T) {
	c := newTestCalculator(WithReporter(NewDiagnosticLog()))
	d := healthyCompany()
	want := c.Compute(d)

	var wg sync.WaitGroup
	results := make([]Values, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Compute(d)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestMultiReporter(t *testing.T) {
	a, b := NewDiagnosticLog(), NewDiagnosticLog()
	MultiReporter{a, nil, b}.Report(Diagnostic{Ticker: "X", Metric: MetricWACC})

	assert.Len(t, a.Items(), 1)
	assert.Len(t, b.Items(), 1)
}

func TestUniqueReporter(t *testing.T) {
	log := NewDiagnosticLog()
	r := NewUniqueReporter(log)

	r.Report(Diagnostic{Ticker: "A", Metric: MetricCapitalEmployed, Value: -10})
	r.Report(Diagnostic{Ticker: "A", Metric: MetricCapitalEmployed, Value: -10})
	r.Report(Diagnostic{Ticker: "A", Metric: MetricWACC})
	r.Report(Diagnostic{Ticker: "B", Metric: MetricCapitalEmployed})

	require.Len(t, log.Items(), 3)
	assert.Equal(t, -10.0, log.Items()[0].Value)
	assert.Len(t, log.ForMetric(MetricCapitalEmployed), 2)
}

func TestUniqueReporter_RepeatedComputeReportsOnce(t *testing.T) {
	log := NewDiagnosticLog()
	calc := newTestCalculator(WithReporter(NewUniqueReporter(log)))

	d := healthyCompany()
	d.PropertyPlantEquipment = -500
	for i := 0; i < 3; i++ {
		calc.Compute(d)
	}

	require.Len(t, log.Items(), 1)
	assert.Equal(t, MetricCapitalEmployed, log.Items()[0].Metric)
}
