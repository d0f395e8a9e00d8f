package handlers

import (
	"math"
	"strconv"
	"time"

	"github.com/modelfleuriet/valuation/internal/modules/allocation"
	"github.com/modelfleuriet/valuation/internal/modules/analysis"
	"github.com/modelfleuriet/valuation/internal/modules/metrics"
	"github.com/modelfleuriet/valuation/internal/modules/opportunities"
	"github.com/modelfleuriet/valuation/internal/modules/ranking"
	"github.com/modelfleuriet/valuation/internal/utils"
)

// Float is a float64 that encodes NaN and infinities as JSON null.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

type recordResponse struct {
	Ticker          string `json:"ticker"`
	CompanyName     string `json:"company_name"`
	MarketCap       Float  `json:"market_cap"`
	StockPrice      Float  `json:"stock_price"`
	CapitalEmployed Float  `json:"capital_employed"`
	WACC            Float  `json:"wacc"`
	WACCPct         Float  `json:"wacc_pct"`
	EVAAbs          Float  `json:"eva_abs"`
	EVAPct          Float  `json:"eva_pct"`
	EFVAbs          Float  `json:"efv_abs"`
	EFVPct          Float  `json:"efv_pct"`
	CurrentWealth   Float  `json:"current_wealth"`
	FutureWealth    Float  `json:"future_wealth"`
	UpsidePct       Float  `json:"upside_pct"`
	CombinedScore   Float  `json:"combined_score"`
	Sector          string `json:"sector,omitempty"`

	Display recordDisplay `json:"display"`
}

// recordDisplay holds the dashboard renderings of the main figures.
type recordDisplay struct {
	MarketCap string `json:"market_cap"`
	EVA       string `json:"eva"`
	EFV       string `json:"efv"`
	EVAPct    string `json:"eva_pct"`
	EFVPct    string `json:"efv_pct"`
	Upside    string `json:"upside"`
}

func newRecordResponse(rec ranking.Record) recordResponse {
	return recordResponse{
		Ticker:          rec.Ticker,
		CompanyName:     rec.CompanyName,
		MarketCap:       Float(rec.MarketCap),
		StockPrice:      Float(rec.StockPrice),
		CapitalEmployed: Float(rec.CapitalEmployed),
		WACC:            Float(rec.WACC),
		WACCPct:         Float(rec.WACCPct),
		EVAAbs:          Float(rec.EVAAbs),
		EVAPct:          Float(rec.EVAPct),
		EFVAbs:          Float(rec.EFVAbs),
		EFVPct:          Float(rec.EFVPct),
		CurrentWealth:   Float(rec.CurrentWealth),
		FutureWealth:    Float(rec.FutureWealth),
		UpsidePct:       Float(rec.UpsidePct),
		CombinedScore:   Float(rec.CombinedScore),
		Sector:          rec.Raw.Sector,
		Display: recordDisplay{
			MarketCap: utils.FormatCurrency(rec.MarketCap, utils.DefaultCurrencySymbol),
			EVA:       utils.FormatCurrency(rec.EVAAbs, utils.DefaultCurrencySymbol),
			EFV:       utils.FormatCurrency(rec.EFVAbs, utils.DefaultCurrencySymbol),
			EVAPct:    utils.FormatPercentage(rec.EVAPct),
			EFVPct:    utils.FormatPercentage(rec.EFVPct),
			Upside:    utils.FormatPercentage(rec.UpsidePct),
		},
	}
}

type excludedResponse struct {
	Ticker string `json:"ticker"`
	Error  string `json:"error"`
}

type reportResponse struct {
	RunID        string             `json:"run_id"`
	GeneratedAt  time.Time          `json:"generated_at"`
	RiskFreeRate Float              `json:"risk_free_rate"`
	Companies    []recordResponse   `json:"companies"`
	Excluded     []excludedResponse `json:"excluded"`
}

func newReportResponse(snap *analysis.Snapshot) reportResponse {
	resp := reportResponse{
		RunID:        snap.RunID,
		GeneratedAt:  snap.GeneratedAt,
		RiskFreeRate: Float(snap.RiskFreeRate),
		Companies:    make([]recordResponse, 0, snap.Report.Len()),
		Excluded:     make([]excludedResponse, 0),
	}
	if snap.Report == nil {
		return resp
	}
	for _, rec := range snap.Report.Rows {
		resp.Companies = append(resp.Companies, newRecordResponse(rec))
	}
	for _, rec := range snap.Report.Excluded {
		resp.Excluded = append(resp.Excluded, excludedResponse{Ticker: rec.Ticker, Error: rec.Err})
	}
	return resp
}

type rankedResponse struct {
	Rank   int    `json:"rank"`
	Ticker string `json:"ticker"`
	Value  Float  `json:"value"`
}

type scoredResponse struct {
	Ticker string `json:"ticker"`
	Value  Float  `json:"value"`
}

func newScored(in []opportunities.Scored) []scoredResponse {
	out := make([]scoredResponse, len(in))
	for i, s := range in {
		out[i] = scoredResponse{Ticker: s.Ticker, Value: Float(s.Value)}
	}
	return out
}

type opportunityResponse struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
	Score  Float  `json:"score"`
}

type opportunitiesResponse struct {
	RunID             string                      `json:"run_id"`
	ValueCreators     []scoredResponse            `json:"value_creators"`
	GrowthPotential   []scoredResponse            `json:"growth_potential"`
	Undervalued       []scoredResponse            `json:"undervalued"`
	BestOpportunities []opportunityResponse       `json:"best_opportunities"`
	Clusters          opportunities.ClusterResult `json:"clusters"`
	SectorRankings    map[string][]scoredResponse `json:"sector_rankings"`
}

func newOpportunitiesResponse(runID string, set opportunities.OpportunitySet) opportunitiesResponse {
	resp := opportunitiesResponse{
		RunID:             runID,
		ValueCreators:     newScored(set.ValueCreators),
		GrowthPotential:   newScored(set.GrowthPotential),
		Undervalued:       newScored(set.Undervalued),
		BestOpportunities: make([]opportunityResponse, len(set.BestOpportunities)),
		Clusters:          set.Clusters,
		SectorRankings:    make(map[string][]scoredResponse, len(set.SectorRankings)),
	}
	for i, o := range set.BestOpportunities {
		resp.BestOpportunities[i] = opportunityResponse{Ticker: o.Ticker, Reason: o.Reason, Score: Float(o.Score)}
	}
	for sector, ranked := range set.SectorRankings {
		resp.SectorRankings[sector] = newScored(ranked)
	}
	return resp
}

type holdingResponse struct {
	Ticker string `json:"ticker"`
	Score  Float  `json:"score"`
	Weight Float  `json:"weight"`
}

type portfolioEVAResponse struct {
	Abs Float `json:"eva_abs"`
	Pct Float `json:"eva_pct"`
}

func newPortfolioEVA(p allocation.PortfolioEVA) portfolioEVAResponse {
	return portfolioEVAResponse{Abs: Float(p.Abs), Pct: Float(p.Pct)}
}

type allocationResponse struct {
	RunID          string                       `json:"run_id"`
	Profile        allocation.Profile           `json:"profile"`
	Holdings       []holdingResponse            `json:"holdings"`
	EVA            portfolioEVAResponse         `json:"portfolio_eva"`
	SectorExposure []allocation.GroupAllocation `json:"sector_exposure"`
}

func newAllocationResponse(runID string, alloc allocation.Allocation, exposure []allocation.GroupAllocation) allocationResponse {
	resp := allocationResponse{
		RunID:          runID,
		Profile:        alloc.Profile,
		Holdings:       make([]holdingResponse, len(alloc.Holdings)),
		EVA:            newPortfolioEVA(alloc.EVA),
		SectorExposure: exposure,
	}
	for i, h := range alloc.Holdings {
		resp.Holdings[i] = holdingResponse{Ticker: h.Ticker, Score: Float(h.Score), Weight: Float(h.Weight)}
	}
	if resp.SectorExposure == nil {
		resp.SectorExposure = []allocation.GroupAllocation{}
	}
	return resp
}

type diagnosticResponse struct {
	Ticker  string `json:"ticker"`
	Metric  string `json:"metric"`
	Message string `json:"message"`
	Value   Float  `json:"value"`
}

func newDiagnostics(in []metrics.Diagnostic) []diagnosticResponse {
	out := make([]diagnosticResponse, len(in))
	for i, d := range in {
		out[i] = diagnosticResponse{Ticker: d.Ticker, Metric: d.Metric, Message: d.Message, Value: Float(d.Value)}
	}
	return out
}

type runResponse struct {
	RunID       string    `json:"run_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Companies   int       `json:"companies"`
	Excluded    int       `json:"excluded"`
	Diagnostics int       `json:"diagnostics"`
}

func newRunResponse(snap *analysis.Snapshot) runResponse {
	resp := runResponse{
		RunID:       snap.RunID,
		GeneratedAt: snap.GeneratedAt,
		Companies:   snap.Report.Len(),
		Diagnostics: len(snap.Diagnostics),
	}
	if snap.Report != nil {
		resp.Excluded = len(snap.Report.Excluded)
	}
	return resp
}
