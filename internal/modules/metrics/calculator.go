// Package metrics computes the per-company valuation metrics: WACC, NOPAT, capital employed,
// EVA, EFV, current and future wealth, and upside.
//
// Undefined results are represented by NaN and propagate through every dependent formula.
// Use IsUndefined to test for them.
package metrics

import (
	"math"

	"github.com/modelfleuriet/valuation/internal/domain"
)

// Defaults used when no configuration or rate source is available.
const (
	DefaultTaxRate           = 0.34 // corporate income tax + social contribution
	DefaultRiskFreeRate      = 0.10
	DefaultMarketRiskPremium = 0.06

	// DebtCostMultiplier marks up the risk-free rate to proxy the cost of debt.
	DebtCostMultiplier = 1.2

	// CapitalEmployedFloor replaces a non-positive capital employed.
	CapitalEmployedFloor = 1.0
)

// Metric names used in diagnostics.
const (
	MetricCapitalEmployed = "capital_employed"
	MetricWACC            = "wacc"
)

// Config holds the fixed rates of a calculator.
type Config struct {
	TaxRate           float64 `json:"tax_rate"`
	RiskFreeRate      float64 `json:"risk_free_rate"`
	MarketRiskPremium float64 `json:"market_risk_premium"`
}

// DefaultConfig returns the default rates.
func DefaultConfig() Config {
	return Config{
		TaxRate:           DefaultTaxRate,
		RiskFreeRate:      DefaultRiskFreeRate,
		MarketRiskPremium: DefaultMarketRiskPremium,
	}
}

// RiskFreeRateFromPercent converts a supplied percentage (10.5 = 10.5%) into a rate.
// A missing or zero percentage falls back to DefaultRiskFreeRate.
func RiskFreeRateFromPercent(pct *float64) float64 {
	if pct == nil || *pct == 0 || math.IsNaN(*pct) || math.IsInf(*pct, 0) {
		return DefaultRiskFreeRate
	}
	return *pct / 100
}

// Undefined returns the NaN sentinel.
func Undefined() float64 {
	return math.NaN()
}

// IsUndefined reports whether x is the undefined sentinel.
func IsUndefined(x float64) bool {
	return math.IsNaN(x)
}

// Calculator computes metrics for one company snapshot.
// It is read-only after construction and safe for concurrent use.
type Calculator struct {
	cfg      Config
	beta     BetaEstimator
	reporter DiagnosticReporter
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithBetaEstimator replaces the fixed default beta.
func WithBetaEstimator(b BetaEstimator) Option {
	return func(c *Calculator) {
		if b != nil {
			c.beta = b
		}
	}
}

// WithReporter sets where numeric edge cases are reported.
func WithReporter(r DiagnosticReporter) Option {
	return func(c *Calculator) {
		if r != nil {
			c.reporter = r
		}
	}
}

// NewCalculator creates a calculator with the given rates.
func NewCalculator(cfg Config, opts ...Option) *Calculator {
	c := &Calculator{
		cfg:      cfg,
		beta:     FixedBeta(DefaultBeta),
		reporter: nopReporter{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the calculator rates.
func (c *Calculator) Config() Config {
	return c.cfg
}

// NOPAT is the net operating profit after taxes.
func (c *Calculator) NOPAT(ebit float64) float64 {
	return ebit * (1 - c.cfg.TaxRate)
}

// WorkingCapital is current assets minus current liabilities (CDG proxy).
func (c *Calculator) WorkingCapital(d domain.CompanyFinancialData) float64 {
	return d.CurrentAssets - d.CurrentLiabilities
}

// NCG is the working-capital need: receivables + inventory - payables.
func (c *Calculator) NCG(d domain.CompanyFinancialData) float64 {
	return d.AccountsReceivable + d.Inventory - d.AccountsPayable
}

// CapitalEmployed is fixed assets plus NCG. A non-positive result is reported and
// clamped to CapitalEmployedFloor so downstream ratios stay finite.
func (c *Calculator) CapitalEmployed(d domain.CompanyFinancialData) float64 {
	ce := d.PropertyPlantEquipment + c.NCG(d)
	if ce <= 0 {
		c.reporter.Report(Diagnostic{
			Ticker:  d.Ticker,
			Metric:  MetricCapitalEmployed,
			Message: "capital employed is zero or negative, using floor value",
			Value:   ce,
		})
		return CapitalEmployedFloor
	}
	return ce
}

// Beta returns the systematic risk used for the cost of equity.
func (c *Calculator) Beta(ticker string) float64 {
	return c.beta.Beta(ticker)
}

// CostOfEquity applies CAPM: rf + beta * market risk premium.
func (c *Calculator) CostOfEquity(beta float64) float64 {
	return c.cfg.RiskFreeRate + beta*c.cfg.MarketRiskPremium
}

// CostOfDebt proxies the cost of debt as a markup over the risk-free rate.
// The data model carries no interest expense, so every company gets the same proxy
// whether or not it has debt.
func (c *Calculator) CostOfDebt(d domain.CompanyFinancialData) float64 {
	if d.TotalDebt <= 0 || d.NetIncome == 0 {
		return c.cfg.RiskFreeRate * DebtCostMultiplier
	}
	return c.cfg.RiskFreeRate * DebtCostMultiplier
}

// WACC is the weighted average cost of capital after the debt tax shield.
// It is undefined when equity + debt is not positive.
func (c *Calculator) WACC(d domain.CompanyFinancialData) float64 {
	total := d.Equity + d.TotalDebt
	if total <= 0 || math.IsNaN(total) {
		c.reporter.Report(Diagnostic{
			Ticker:  d.Ticker,
			Metric:  MetricWACC,
			Message: "total capital (equity + debt) is zero or negative, WACC undefined",
			Value:   total,
		})
		return Undefined()
	}

	ke := c.CostOfEquity(c.Beta(d.Ticker))
	kd := c.CostOfDebt(d)
	equityShare := d.Equity / total
	debtShare := d.TotalDebt / total

	return ke*equityShare + kd*(1-c.cfg.TaxRate)*debtShare
}

// ROCE is NOPAT over capital employed, undefined for non-positive capital.
func (c *Calculator) ROCE(d domain.CompanyFinancialData, capitalEmployed float64) float64 {
	if capitalEmployed <= 0 || math.IsNaN(capitalEmployed) {
		return Undefined()
	}
	return c.NOPAT(d.EBIT) / capitalEmployed
}

// EVA returns the economic value added as (absolute, percent).
func (c *Calculator) EVA(d domain.CompanyFinancialData) (float64, float64) {
	ce := c.CapitalEmployed(d)
	return c.eva(d, ce, c.WACC(d))
}

// CurrentWealth is EVA over WACC.
func (c *Calculator) CurrentWealth(d domain.CompanyFinancialData) float64 {
	ce := c.CapitalEmployed(d)
	wacc := c.WACC(d)
	evaAbs, _ := c.eva(d, ce, wacc)
	return currentWealth(evaAbs, wacc)
}

// FutureWealth is the expected future wealth: market value of equity plus debt minus
// capital employed.
func (c *Calculator) FutureWealth(d domain.CompanyFinancialData) float64 {
	return futureWealth(d, c.CapitalEmployed(d))
}

// EFV returns the economic future value as (absolute, percent of capital employed).
func (c *Calculator) EFV(d domain.CompanyFinancialData) (float64, float64) {
	ce := c.CapitalEmployed(d)
	wacc := c.WACC(d)
	evaAbs, _ := c.eva(d, ce, wacc)
	return efv(currentWealth(evaAbs, wacc), futureWealth(d, ce), ce)
}

// Upside is the EFV relative to market capitalisation, in percent.
func (c *Calculator) Upside(d domain.CompanyFinancialData, efvAbs float64) float64 {
	if d.MarketCap <= 0 || math.IsNaN(d.MarketCap) {
		return Undefined()
	}
	return efvAbs / d.MarketCap * 100
}

func (c *Calculator) eva(d domain.CompanyFinancialData, capitalEmployed, wacc float64) (float64, float64) {
	if capitalEmployed <= 0 || math.IsNaN(capitalEmployed) {
		return Undefined(), Undefined()
	}
	roce := c.ROCE(d, capitalEmployed)
	if math.IsNaN(wacc) || math.IsNaN(roce) {
		return Undefined(), Undefined()
	}
	spread := roce - wacc
	return capitalEmployed * spread, spread * 100
}

func currentWealth(evaAbs, wacc float64) float64 {
	if math.IsNaN(evaAbs) || math.IsNaN(wacc) || wacc == 0 {
		return Undefined()
	}
	return evaAbs / wacc
}

func futureWealth(d domain.CompanyFinancialData, capitalEmployed float64) float64 {
	if math.IsNaN(d.MarketCap) || math.IsNaN(d.TotalDebt) || math.IsNaN(capitalEmployed) {
		return Undefined()
	}
	return (d.MarketCap + d.TotalDebt) - capitalEmployed
}

func efv(current, future, capitalEmployed float64) (float64, float64) {
	if math.IsNaN(current) || math.IsNaN(future) {
		return Undefined(), Undefined()
	}
	if capitalEmployed <= 0 || math.IsNaN(capitalEmployed) {
		return Undefined(), Undefined()
	}
	abs := future - current
	return abs, abs / capitalEmployed * 100
}
