// Package handlers provides HTTP handlers for the valuation analysis and the Fleuriet model.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/modelfleuriet/valuation/internal/modules/allocation"
	"github.com/modelfleuriet/valuation/internal/modules/analysis"
	"github.com/modelfleuriet/valuation/internal/modules/fleuriet"
	"github.com/modelfleuriet/valuation/internal/modules/ranking"
	"github.com/modelfleuriet/valuation/internal/modules/universe"
	"github.com/modelfleuriet/valuation/internal/utils"
	"github.com/rs/zerolog"
)

// SnapshotService runs analyses and serves the latest result.
type SnapshotService interface {
	Latest() *analysis.Snapshot
	Run(ctx context.Context) (*analysis.Snapshot, error)
}

// RunLister lists stored analysis runs.
type RunLister interface {
	List(ctx context.Context, limit int) ([]analysis.RunSummary, error)
}

// FleurietAnalyzer runs the Fleuriet model for one company.
type FleurietAnalyzer interface {
	Analyze(ctx context.Context, ticker string, years []int) (*fleuriet.Analysis, error)
}

// Handler handles valuation HTTP requests
type Handler struct {
	service        SnapshotService
	runs           RunLister
	fleuriet       FleurietAnalyzer
	defaultProfile allocation.Profile
	log            zerolog.Logger
}

// NewHandler creates a new valuation handler. runs may be nil when history is not stored.
func NewHandler(
	service SnapshotService,
	runs RunLister,
	fleurietAnalyzer FleurietAnalyzer,
	defaultProfile allocation.Profile,
	log zerolog.Logger,
) *Handler {
	if _, ok := allocation.ParseProfile(string(defaultProfile)); !ok {
		defaultProfile = allocation.DefaultProfile
	}
	return &Handler{
		service:        service,
		runs:           runs,
		fleuriet:       fleurietAnalyzer,
		defaultProfile: defaultProfile,
		log:            log.With().Str("handler", "valuation").Logger(),
	}
}

// snapshot returns the latest snapshot or writes 503 when none exists yet.
func (h *Handler) snapshot(w http.ResponseWriter) (*analysis.Snapshot, bool) {
	snap := h.service.Latest()
	if snap == nil {
		h.writeError(w, http.StatusServiceUnavailable, analysis.ErrNoSnapshot.Error())
		return nil, false
	}
	return snap, true
}

// HandleGetReport returns the metrics of every evaluated company
func (h *Handler) HandleGetReport(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	h.write(w, r, http.StatusOK, newReportResponse(snap))
}

// HandleGetCompany returns the metrics of one company
func (h *Handler) HandleGetCompany(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}

	raw := chi.URLParam(r, "ticker")
	rec, found := snap.Report.Get(universe.NormalizeTicker(raw))
	if !found {
		rec, found = snap.Report.Get(strings.ToUpper(strings.TrimSpace(raw)))
	}
	if !found {
		h.writeError(w, http.StatusNotFound, fmt.Sprintf("company %s not found", raw))
		return
	}
	h.write(w, r, http.StatusOK, newRecordResponse(rec))
}

// HandleGetRanking ranks the report on one column
// Query: metric (default combined_score), ascending (default false), limit (optional)
func (h *Handler) HandleGetRanking(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}

	q := r.URL.Query()
	metric := ranking.ColumnCombinedScore
	if m := q.Get("metric"); m != "" {
		metric = ranking.Column(m)
	}

	ascending := false
	if a := q.Get("ascending"); a != "" {
		parsed, err := strconv.ParseBool(a)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "ascending must be a boolean")
			return
		}
		ascending = parsed
	}

	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ranked, err := snap.Report.RankBy(metric, ascending)
	if errors.Is(err, ranking.ErrUnknownColumn) {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	entries := make([]rankedResponse, len(ranked))
	for i, e := range ranked {
		entries[i] = rankedResponse{Rank: i + 1, Ticker: e.Ticker, Value: Float(e.Value)}
	}

	h.write(w, r, http.StatusOK, map[string]interface{}{
		"run_id":    snap.RunID,
		"metric":    metric,
		"ascending": ascending,
		"ranking":   entries,
	})
}

// HandleCustomRanking ranks the companies with user supplied criteria weights
// An empty body uses the default criteria.
func (h *Handler) HandleCustomRanking(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}

	criteria := ranking.DefaultRankingCriteria()
	if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	for _, weight := range []float64{criteria.EVAWeight, criteria.EFVWeight, criteria.UpsideWeight,
		criteria.ProfitabilityWeight, criteria.LiquidityWeight} {
		if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
			h.writeError(w, http.StatusBadRequest, "criteria weights must be finite and non-negative")
			return
		}
	}

	ranker := ranking.NewRanker(snap.Calculator(), h.log)
	scores := ranker.CustomRank(snap.Companies(), criteria)

	h.write(w, r, http.StatusOK, map[string]interface{}{
		"run_id":   snap.RunID,
		"criteria": criteria,
		"ranking":  scores,
	})
}

// HandleGetOpportunities returns the opportunity buckets, clusters and sector rankings
func (h *Handler) HandleGetOpportunities(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	h.write(w, r, http.StatusOK, newOpportunitiesResponse(snap.RunID, snap.Opportunities))
}

// HandleGetPortfolio returns the suggested allocation of a profile
// Query: profile (conservative, moderate, aggressive)
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}

	profile := h.defaultProfile
	if p := r.URL.Query().Get("profile"); p != "" {
		parsed, valid := allocation.ParseProfile(p)
		if !valid {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown profile %q", p))
			return
		}
		profile = parsed
	}

	alloc, found := snap.Allocation(profile)
	if !found {
		h.writeError(w, http.StatusNotFound, fmt.Sprintf("no allocation for profile %s", profile))
		return
	}
	h.write(w, r, http.StatusOK, newAllocationResponse(snap.RunID, alloc, snap.SectorExposure[profile]))
}

type portfolioEVARequest struct {
	Weights map[string]float64 `json:"weights"`
}

// HandlePortfolioEVA computes the EVA of a user supplied portfolio
func (h *Handler) HandlePortfolioEVA(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}

	var req portfolioEVARequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Weights) == 0 {
		h.writeError(w, http.StatusBadRequest, "weights are required")
		return
	}

	weights := make(map[string]float64, len(req.Weights))
	for ticker, weight := range req.Weights {
		if weight < 0 || math.IsNaN(weight) || math.IsInf(weight, 0) {
			h.writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid weight for %s", ticker))
			return
		}
		weights[universe.NormalizeTicker(ticker)] = weight
	}

	allocator := allocation.NewAllocator(snap.Calculator(), h.log)
	result := allocator.PortfolioEVA(weights, snap.Companies())

	h.write(w, r, http.StatusOK, map[string]interface{}{
		"run_id":        snap.RunID,
		"portfolio_eva": newPortfolioEVA(result),
	})
}

// HandleRunAnalysis runs a fresh analysis synchronously
func (h *Handler) HandleRunAnalysis(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Run(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Manual analysis run failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.write(w, r, http.StatusOK, newRunResponse(snap))
}

// HandleGetRuns lists stored analysis runs, newest first
func (h *Handler) HandleGetRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		h.writeError(w, http.StatusServiceUnavailable, "run history is not stored")
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	runs, err := h.runs.List(r.Context(), limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []analysis.RunSummary{}
	}
	h.write(w, r, http.StatusOK, map[string]interface{}{"runs": runs})
}

// HandleGetDiagnostics returns the numeric diagnostics of the latest run
func (h *Handler) HandleGetDiagnostics(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	h.write(w, r, http.StatusOK, map[string]interface{}{
		"run_id":      snap.RunID,
		"diagnostics": newDiagnostics(snap.Diagnostics),
	})
}

// HandleGetSectors returns the sector map used by the latest run
func (h *Handler) HandleGetSectors(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.snapshot(w)
	if !ok {
		return
	}
	h.write(w, r, http.StatusOK, map[string]interface{}{
		"run_id":  snap.RunID,
		"sectors": snap.Sectors,
	})
}

// HandleGetFleuriet runs the Fleuriet model for a ticker
// Query: years (comma separated), from and to (inclusive year bounds)
func (h *Handler) HandleGetFleuriet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	years, err := parseYears(q.Get("years"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, err := parseYear(q.Get("from"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseYear(q.Get("to"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.analyzeFleuriet(w, r, fleurietRequest{Ticker: chi.URLParam(r, "ticker"), Years: years, From: from, To: to})
}

type fleurietRequest struct {
	Ticker string `json:"ticker"`
	Years  []int  `json:"years"`
	From   int    `json:"from"`
	To     int    `json:"to"`
}

// HandlePostFleuriet runs the Fleuriet model for the ticker and years in the body
func (h *Handler) HandlePostFleuriet(w http.ResponseWriter, r *http.Request) {
	var req fleurietRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	h.analyzeFleuriet(w, r, req)
}

func (h *Handler) analyzeFleuriet(w http.ResponseWriter, r *http.Request, req fleurietRequest) {
	ticker := universe.NormalizeTicker(req.Ticker)
	if ticker == "" {
		h.writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}
	if req.From != 0 && req.To != 0 && req.From > req.To {
		h.writeError(w, http.StatusBadRequest, "from must not be after to")
		return
	}

	result, err := h.fleuriet.Analyze(r.Context(), ticker, req.Years)
	if errors.Is(err, fleuriet.ErrNoStatements) {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Fleuriet analysis failed")
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if req.From != 0 || req.To != 0 {
		ranged, found := result.Between(req.From, req.To)
		if !found {
			h.writeError(w, http.StatusNotFound, fmt.Sprintf("no statements for %s between %d and %d", ticker, req.From, req.To))
			return
		}
		result = ranged
	}

	h.write(w, r, http.StatusOK, result)
}

func parseLimit(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(s)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("limit must be a non-negative integer")
	}
	return limit, nil
}

func parseYear(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(s)
	if err != nil || !validYear(year) {
		return 0, fmt.Errorf("invalid year %q", s)
	}
	return year, nil
}

func parseYears(s string) ([]int, error) {
	years, err := utils.ParseIntCSV(s)
	if err != nil {
		return nil, err
	}
	for _, year := range years {
		if !validYear(year) {
			return nil, fmt.Errorf("invalid year %d", year)
		}
	}
	return years, nil
}

func validYear(year int) bool {
	return year >= 1900 && year <= 2200
}
