package opportunities

import (
	"github.com/modelfleuriet/valuation/internal/domain"
	"github.com/modelfleuriet/valuation/internal/modules/ranking"
	"github.com/modelfleuriet/valuation/pkg/formulas"
	"gonum.org/v1/gonum/mat"
)

// Feature is the normalised metrics row of one company. Undefined values are 0.
type Feature struct {
	Ticker        string  `json:"ticker"`
	CompanyName   string  `json:"company_name"`
	EVAPct        float64 `json:"eva_pct"`
	EFVPct        float64 `json:"efv_pct"`
	UpsidePct     float64 `json:"upside_pct"`
	CurrentWealth float64 `json:"current_wealth"`
	FutureWealth  float64 `json:"future_wealth"`
	MarketCap     float64 `json:"market_cap"`
	Revenue       float64 `json:"revenue"`
	Score         float64 `json:"score"`
}

// ClusterFeatureNames lists the columns of the clustering matrix in order.
var ClusterFeatureNames = []string{"eva_pct", "efv_pct", "upside_pct", "current_wealth", "future_wealth"}

func (f Feature) clusterVector() []float64 {
	return []float64{f.EVAPct, f.EFVPct, f.UpsidePct, f.CurrentWealth, f.FutureWealth}
}

// PrepareFeatures computes the feature table in input order. Invalid snapshots and
// repeated tickers are skipped.
func (a *Analyzer) PrepareFeatures(companies []domain.CompanyFinancialData) []Feature {
	features := make([]Feature, 0, len(companies))
	seen := make(map[string]struct{}, len(companies))

	for _, d := range companies {
		if err := d.Validate(); err != nil {
			a.log.Warn().Str("ticker", d.Ticker).Err(err).Msg("Company skipped in opportunity analysis")
			continue
		}
		if _, dup := seen[d.Ticker]; dup {
			a.log.Warn().Str("ticker", d.Ticker).Msg("Duplicate ticker skipped in opportunity analysis")
			continue
		}
		seen[d.Ticker] = struct{}{}

		v := a.calc.Compute(d)
		f := Feature{
			Ticker:        d.Ticker,
			CompanyName:   d.CompanyName,
			EVAPct:        formulas.Sanitize(v.EVAPct),
			EFVPct:        formulas.Sanitize(v.EFVPct),
			UpsidePct:     formulas.Sanitize(v.UpsidePct),
			CurrentWealth: formulas.Sanitize(v.CurrentWealth),
			FutureWealth:  formulas.Sanitize(v.FutureWealth),
			MarketCap:     formulas.Sanitize(d.MarketCap),
			Revenue:       formulas.Sanitize(d.Revenue),
		}
		f.Score = ranking.CombinedScore(f.EVAPct, f.EFVPct, f.UpsidePct, ranking.DefaultScoreWeights)
		features = append(features, f)
	}
	return features
}

// FeatureMatrix stacks the clustering columns of every feature row.
func FeatureMatrix(features []Feature) *mat.Dense {
	if len(features) == 0 {
		return nil
	}
	cols := len(ClusterFeatureNames)
	data := make([]float64, 0, len(features)*cols)
	for _, f := range features {
		data = append(data, f.clusterVector()...)
	}
	return mat.NewDense(len(features), cols, data)
}
