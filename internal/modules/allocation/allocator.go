// Package allocation suggests portfolio weights from value metrics and measures the
// economic value added by the resulting portfolio.
package allocation

import (
	"math"
	"sort"
	"strings"

	"github.com/modelfleuriet/valuation/internal/domain"
	"github.com/modelfleuriet/valuation/internal/modules/metrics"
	"github.com/modelfleuriet/valuation/pkg/formulas"
	"github.com/rs/zerolog"
)

// Profile is an investor risk profile.
type Profile string

const (
	Conservative Profile = "conservative"
	Moderate     Profile = "moderate"
	Aggressive   Profile = "aggressive"
)

// DefaultProfile is used when no profile or an unknown one is requested.
const DefaultProfile = Moderate

// EFVScoreWeight is the EFV multiplier of the allocation score.
const EFVScoreWeight = 1.5

// weightDecimals is the precision of published weights.
const weightDecimals = 4

// Profiles lists every supported profile.
func Profiles() []Profile {
	return []Profile{Conservative, Moderate, Aggressive}
}

// ParseProfile matches a profile name case-insensitively.
func ParseProfile(s string) (Profile, bool) {
	p := Profile(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case Conservative, Moderate, Aggressive:
		return p, true
	}
	return DefaultProfile, false
}

// tier concentrates a share of the portfolio on the top ranked companies.
type tier struct {
	size  int
	share float64
}

var tiers = map[Profile]tier{
	Conservative: {size: 5, share: 0.70},
	Aggressive:   {size: 3, share: 0.80},
}

// Holding is one company of a suggested portfolio.
type Holding struct {
	Ticker string  `json:"ticker"`
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// Allocation is a suggested portfolio. Holdings are ranked by score, highest first.
type Allocation struct {
	Profile  Profile      `json:"profile"`
	Holdings []Holding    `json:"holdings"`
	EVA      PortfolioEVA `json:"eva"`
}

// Weights returns the ticker to weight mapping.
func (a Allocation) Weights() map[string]float64 {
	out := make(map[string]float64, len(a.Holdings))
	for _, h := range a.Holdings {
		out[h.Ticker] = h.Weight
	}
	return out
}

// TotalWeight sums the weights. Rounding may leave it slightly off 1.
func (a Allocation) TotalWeight() float64 {
	total := 0.0
	for _, h := range a.Holdings {
		total += h.Weight
	}
	return total
}

// PortfolioEVA is the weighted economic value added of a portfolio.
type PortfolioEVA struct {
	Abs float64 `json:"abs"`
	Pct float64 `json:"pct"`
}

// Allocator builds portfolio suggestions.
type Allocator struct {
	calc *metrics.Calculator
	log  zerolog.Logger
}

// NewAllocator creates an allocator on top of a metrics calculator.
func NewAllocator(calc *metrics.Calculator, log zerolog.Logger) *Allocator {
	return &Allocator{
		calc: calc,
		log:  log.With().Str("module", "allocation").Logger(),
	}
}

// Score is eva% + 1.5 * efv% + upside%, undefined terms counting as 0.
func Score(evaPct, efvPct, upsidePct float64) float64 {
	score := 0.0
	if !math.IsNaN(evaPct) {
		score += evaPct
	}
	if !math.IsNaN(efvPct) {
		score += efvPct * EFVScoreWeight
	}
	if !math.IsNaN(upsidePct) {
		score += upsidePct
	}
	return formulas.Sanitize(score)
}

// SuggestAllocation weights the companies for a profile. Only positive scores earn
// weight. An unknown profile falls back to moderate.
func (a *Allocator) SuggestAllocation(companies []domain.CompanyFinancialData, profile Profile) Allocation {
	if _, ok := ParseProfile(string(profile)); !ok {
		a.log.Warn().Str("profile", string(profile)).Msg("Unknown profile, using moderate")
		profile = DefaultProfile
	}

	holdings := a.scoreCompanies(companies)
	sort.SliceStable(holdings, func(i, j int) bool {
		return holdings[i].Score > holdings[j].Score
	})

	if t, ok := tiers[profile]; ok {
		tiered(holdings, t)
	} else {
		proportional(holdings)
	}
	renormalize(holdings)

	alloc := Allocation{Profile: profile, Holdings: holdings}
	alloc.EVA = a.PortfolioEVA(alloc.Weights(), companies)

	a.log.Debug().
		Str("profile", string(profile)).
		Int("holdings", len(holdings)).
		Float64("total_weight", alloc.TotalWeight()).
		Msg("Allocation suggested")

	return alloc
}

func (a *Allocator) scoreCompanies(companies []domain.CompanyFinancialData) []Holding {
	holdings := make([]Holding, 0, len(companies))
	seen := make(map[string]struct{}, len(companies))

	for _, d := range companies {
		if err := d.Validate(); err != nil {
			a.log.Warn().Str("ticker", d.Ticker).Err(err).Msg("Company skipped in allocation")
			continue
		}
		if _, dup := seen[d.Ticker]; dup {
			continue
		}
		seen[d.Ticker] = struct{}{}

		v := a.calc.Compute(d)
		upside := 0.0
		if !metrics.IsUndefined(v.EFVAbs) {
			upside = v.UpsidePct
		}
		holdings = append(holdings, Holding{Ticker: d.Ticker, Score: Score(v.EVAPct, v.EFVPct, upside)})
	}
	return holdings
}

func positive(score float64) float64 {
	return math.Max(score, 0)
}

// proportional weights every holding by its share of the total positive score.
// Negative scores are left out of the total, so a mixed-sign set still allocates
// fully to its positive members.
func proportional(holdings []Holding) {
	total := 0.0
	for _, h := range holdings {
		total += positive(h.Score)
	}
	for i := range holdings {
		if total <= 0 {
			holdings[i].Weight = 0
			continue
		}
		holdings[i].Weight = positive(holdings[i].Score) / total
	}
}

// tiered gives the top group t.share of the portfolio and the rest the remainder,
// each split by score. Holdings must be ranked.
func tiered(holdings []Holding, t tier) {
	n := min(t.size, len(holdings))
	top, rest := holdings[:n], holdings[n:]

	topTotal := 0.0
	for _, h := range top {
		topTotal += positive(h.Score)
	}
	if topTotal <= 0 {
		for i := range holdings {
			holdings[i].Weight = 1 / float64(len(holdings))
		}
		return
	}

	for i := range top {
		top[i].Weight = t.share * positive(top[i].Score) / topTotal
	}

	restTotal := 0.0
	for _, h := range rest {
		restTotal += positive(h.Score)
	}
	for i := range rest {
		if restTotal <= 0 {
			rest[i].Weight = 0
			continue
		}
		rest[i].Weight = (1 - t.share) * positive(rest[i].Score) / restTotal
	}
}

// renormalize scales weights to sum to 1 and rounds them for publication.
func renormalize(holdings []Holding) {
	total := 0.0
	for _, h := range holdings {
		total += h.Weight
	}
	for i := range holdings {
		w := holdings[i].Weight
		if total > 0 {
			w /= total
		}
		holdings[i].Weight = formulas.Round(w, weightDecimals)
	}
}

// PortfolioEVA weights each held company's EVA and capital employed. Tickers missing
// from companies or without a defined EVA are skipped. The percentage is undefined
// when no capital is held.
func (a *Allocator) PortfolioEVA(weights map[string]float64, companies []domain.CompanyFinancialData) PortfolioEVA {
	byTicker := make(map[string]domain.CompanyFinancialData, len(companies))
	for _, d := range companies {
		if _, dup := byTicker[d.Ticker]; !dup {
			byTicker[d.Ticker] = d
		}
	}

	tickers := make([]string, 0, len(weights))
	for ticker := range weights {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	evaTotal, capitalTotal := 0.0, 0.0
	for _, ticker := range tickers {
		d, ok := byTicker[ticker]
		if !ok {
			continue
		}
		v := a.calc.Compute(d)
		if metrics.IsUndefined(v.EVAAbs) || metrics.IsUndefined(v.CapitalEmployed) || v.CapitalEmployed <= 0 {
			continue
		}
		w := weights[ticker]
		evaTotal += v.EVAAbs * w
		capitalTotal += v.CapitalEmployed * w
	}

	result := PortfolioEVA{Abs: evaTotal, Pct: metrics.Undefined()}
	if capitalTotal > 0 {
		result.Pct = evaTotal / capitalTotal * 100
	}
	return result
}
