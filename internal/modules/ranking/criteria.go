package ranking

import (
	"sort"

	"github.com/modelfleuriet/valuation/internal/domain"
	"github.com/modelfleuriet/valuation/internal/modules/metrics"
	"github.com/modelfleuriet/valuation/pkg/formulas"
)

// RankingCriteria weights the components of a custom ranking.
type RankingCriteria struct {
	EVAWeight           float64 `json:"eva_weight" yaml:"eva_weight"`
	EFVWeight           float64 `json:"efv_weight" yaml:"efv_weight"`
	UpsideWeight        float64 `json:"upside_weight" yaml:"upside_weight"`
	ProfitabilityWeight float64 `json:"profitability_weight" yaml:"profitability_weight"`
	LiquidityWeight     float64 `json:"liquidity_weight" yaml:"liquidity_weight"`
}

// DefaultRankingCriteria returns the standard custom ranking weights.
func DefaultRankingCriteria() RankingCriteria {
	return RankingCriteria{
		EVAWeight:           0.3,
		EFVWeight:           0.3,
		UpsideWeight:        0.2,
		ProfitabilityWeight: 0.1,
		LiquidityWeight:     0.1,
	}
}

func (c RankingCriteria) total() float64 {
	return c.EVAWeight + c.EFVWeight + c.UpsideWeight + c.ProfitabilityWeight + c.LiquidityWeight
}

// Normalize returns the criteria rescaled to sum to 1. When the weights sum to zero
// or less the criteria are returned unchanged and ok is false.
func (c RankingCriteria) Normalize() (RankingCriteria, bool) {
	total := c.total()
	if total <= 0 {
		return c, false
	}
	return RankingCriteria{
		EVAWeight:           c.EVAWeight / total,
		EFVWeight:           c.EFVWeight / total,
		UpsideWeight:        c.UpsideWeight / total,
		ProfitabilityWeight: c.ProfitabilityWeight / total,
		LiquidityWeight:     c.LiquidityWeight / total,
	}, true
}

// CustomScore is one entry of a custom ranking. Component scores are raw values,
// FinalScore combines their min-max scaled forms.
type CustomScore struct {
	Ticker        string  `json:"ticker"`
	CompanyName   string  `json:"company_name"`
	EVAPct        float64 `json:"eva_pct"`
	EFVPct        float64 `json:"efv_pct"`
	UpsidePct     float64 `json:"upside_pct"`
	Profitability float64 `json:"profitability_score"`
	Liquidity     float64 `json:"liquidity_score"`
	FinalScore    float64 `json:"final_score"`
}

// CustomRank scores companies with user supplied criteria. Each component is min-max
// scaled across the input set before weighting, so scores are relative to the batch.
func (r *Ranker) CustomRank(companies []domain.CompanyFinancialData, criteria RankingCriteria) []CustomScore {
	weights, ok := criteria.Normalize()
	if !ok {
		r.log.Warn().Float64("total", criteria.total()).Msg("Ranking weights sum to zero, using them as given")
	}

	scores := make([]CustomScore, 0, len(companies))
	for _, d := range companies {
		if err := d.Validate(); err != nil {
			r.log.Warn().Str("ticker", d.Ticker).Err(err).Msg("Company skipped in custom ranking")
			continue
		}

		v := r.calc.Compute(d)
		upside := 0.0
		if !metrics.IsUndefined(v.EFVAbs) {
			upside = v.UpsidePct
		}
		profitability := 0.0
		if d.Revenue > 0 {
			profitability = d.NetIncome / d.Revenue
		}
		liquidity := 0.0
		if d.CurrentLiabilities > 0 {
			liquidity = d.CurrentAssets / d.CurrentLiabilities
		}

		scores = append(scores, CustomScore{
			Ticker:        d.Ticker,
			CompanyName:   d.CompanyName,
			EVAPct:        formulas.Sanitize(v.EVAPct),
			EFVPct:        formulas.Sanitize(v.EFVPct),
			UpsidePct:     formulas.Sanitize(upside),
			Profitability: formulas.Sanitize(profitability),
			Liquidity:     formulas.Sanitize(liquidity),
		})
	}
	if len(scores) == 0 {
		return scores
	}

	column := func(pick func(CustomScore) float64) []float64 {
		out := make([]float64, len(scores))
		for i, s := range scores {
			out[i] = pick(s)
		}
		return formulas.MinMaxScale(out)
	}
	eva := column(func(s CustomScore) float64 { return s.EVAPct })
	efv := column(func(s CustomScore) float64 { return s.EFVPct })
	upside := column(func(s CustomScore) float64 { return s.UpsidePct })
	profitability := column(func(s CustomScore) float64 { return s.Profitability })
	liquidity := column(func(s CustomScore) float64 { return s.Liquidity })

	for i := range scores {
		scores[i].FinalScore = eva[i]*weights.EVAWeight +
			efv[i]*weights.EFVWeight +
			upside[i]*weights.UpsideWeight +
			profitability[i]*weights.ProfitabilityWeight +
			liquidity[i]*weights.LiquidityWeight
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].FinalScore > scores[j].FinalScore
	})
	return scores
}
