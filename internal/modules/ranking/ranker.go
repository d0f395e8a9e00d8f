// Package ranking builds the per-company metrics report and its ranked views.
package ranking

import (
	"fmt"

	"github.com/modelfleuriet/valuation/internal/domain"
	"github.com/modelfleuriet/valuation/internal/modules/metrics"
	"github.com/modelfleuriet/valuation/pkg/formulas"
	"github.com/rs/zerolog"
)

// Ranker turns company snapshots into a RankingReport.
type Ranker struct {
	calc    *metrics.Calculator
	weights ScoreWeights
	log     zerolog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithScoreWeights overrides DefaultScoreWeights for the combined score.
func WithScoreWeights(w ScoreWeights) Option {
	return func(r *Ranker) {
		r.weights = w
	}
}

// NewRanker creates a ranker on top of a metrics calculator.
func NewRanker(calc *metrics.Calculator, log zerolog.Logger, opts ...Option) *Ranker {
	r := &Ranker{
		calc:    calc,
		weights: DefaultScoreWeights,
		log:     log.With().Str("module", "ranking").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ComputeAllMetrics evaluates one company. Invalid snapshots and panics raised by
// pluggable strategies yield an error-tagged record instead of aborting the caller.
func (r *Ranker) ComputeAllMetrics(d domain.CompanyFinancialData) (rec Record) {
	defer func() {
		if p := recover(); p != nil {
			rec = Record{
				Ticker:      d.Ticker,
				CompanyName: d.CompanyName,
				Err:         fmt.Sprintf("metrics computation panicked: %v", p),
			}
		}
	}()

	if err := d.Validate(); err != nil {
		return Record{Ticker: d.Ticker, CompanyName: d.CompanyName, Err: err.Error()}
	}

	v := r.calc.Compute(d)

	return Record{
		Ticker:          d.Ticker,
		CompanyName:     d.CompanyName,
		MarketCap:       d.MarketCap,
		StockPrice:      d.StockPrice,
		CapitalEmployed: v.CapitalEmployed,
		WACC:            v.WACC,
		WACCPct:         v.WACC * 100,
		EVAAbs:          v.EVAAbs,
		EVAPct:          v.EVAPct,
		EFVAbs:          v.EFVAbs,
		EFVPct:          v.EFVPct,
		CurrentWealth:   v.CurrentWealth,
		FutureWealth:    v.FutureWealth,
		UpsidePct:       v.UpsidePct,
		CombinedScore:   CombinedScore(v.EVAPct, v.EFVPct, v.UpsidePct, r.weights),
		Raw:             d,
	}
}

// BuildReport evaluates every company in input order. Failed companies and repeated
// tickers are excluded with a warning. Ranked columns are normalised so sorting is total.
func (r *Ranker) BuildReport(companies []domain.CompanyFinancialData) *Report {
	report := newReport(len(companies))

	for _, d := range companies {
		rec := r.ComputeAllMetrics(d)
		if rec.Failed() {
			r.log.Warn().
				Str("ticker", d.Ticker).
				Str("error", rec.Err).
				Msg("Company excluded from report")
			report.Excluded = append(report.Excluded, rec)
			continue
		}
		if _, dup := report.index[rec.Ticker]; dup {
			r.log.Warn().Str("ticker", rec.Ticker).Msg("Duplicate ticker excluded from report")
			continue
		}

		normalize(&rec)
		report.add(rec)
	}

	r.log.Debug().
		Int("companies", len(companies)).
		Int("rows", report.Len()).
		Int("excluded", len(report.Excluded)).
		Msg("Ranking report built")

	return report
}

// normalize replaces ±Inf and NaN with 0 on the ranked columns.
func normalize(rec *Record) {
	for _, p := range []*float64{
		&rec.WACCPct,
		&rec.EVAPct,
		&rec.EFVPct,
		&rec.CurrentWealth,
		&rec.FutureWealth,
		&rec.UpsidePct,
		&rec.CombinedScore,
	} {
		*p = formulas.Sanitize(*p)
	}
}
