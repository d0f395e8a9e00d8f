package ranking

import (
	"math"

	"github.com/modelfleuriet/valuation/internal/domain"
)

// Record is the metrics row of one company. Undefined metrics are NaN until the
// record is placed in a Report, which normalises the ranked columns.
type Record struct {
	Ticker      string  `json:"ticker"`
	CompanyName string  `json:"company_name"`
	MarketCap   float64 `json:"market_cap"`
	StockPrice  float64 `json:"stock_price"`

	CapitalEmployed float64 `json:"capital_employed"`
	WACC            float64 `json:"wacc"`
	WACCPct         float64 `json:"wacc_pct"`
	EVAAbs          float64 `json:"eva_abs"`
	EVAPct          float64 `json:"eva_pct"`
	EFVAbs          float64 `json:"efv_abs"`
	EFVPct          float64 `json:"efv_pct"`
	CurrentWealth   float64 `json:"current_wealth"`
	FutureWealth    float64 `json:"future_wealth"`
	UpsidePct       float64 `json:"upside_pct"`
	CombinedScore   float64 `json:"combined_score"`

	Raw domain.CompanyFinancialData `json:"raw_data"`

	// Err is set when the company could not be evaluated at all.
	Err string `json:"error,omitempty"`
}

// Failed reports whether the record carries an error instead of metrics.
func (r Record) Failed() bool {
	return r.Err != ""
}

// ScoreWeights weights the terms of the combined score.
type ScoreWeights struct {
	EVA    float64 `json:"eva"`
	EFV    float64 `json:"efv"`
	Upside float64 `json:"upside"`
}

// DefaultScoreWeights is used everywhere a caller does not supply weights.
var DefaultScoreWeights = ScoreWeights{EVA: 0.4, EFV: 0.4, Upside: 0.2}

// CombinedScore sums the weighted percentages, skipping undefined terms so a company
// missing one metric is scored on the ones it has.
func CombinedScore(evaPct, efvPct, upsidePct float64, w ScoreWeights) float64 {
	score := 0.0
	if !math.IsNaN(evaPct) {
		score += evaPct * w.EVA
	}
	if !math.IsNaN(efvPct) {
		score += efvPct * w.EFV
	}
	if !math.IsNaN(upsidePct) {
		score += upsidePct * w.Upside
	}
	return score
}
