package fleuriet

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
)

// ErrNoStatements is returned when none of the requested years has a statement.
var ErrNoStatements = errors.New("no annual statements found")

// YearResult is the Fleuriet analysis of one fiscal year.
type YearResult struct {
	Year       int          `json:"year"`
	Balances   Reclassified `json:"balances"`
	Indicators Indicators   `json:"base_indicators"`
	Advanced   Advanced     `json:"advanced_indicators"`
	ZScore     ZScore       `json:"z_score"`
	Structure  Structure    `json:"structure"`
	Situation  Situation    `json:"situation"`
}

// ChartData holds one series per balance, aligned with Labels.
type ChartData struct {
	Labels []int     `json:"labels"`
	NCG    []float64 `json:"ncg"`
	CDG    []float64 `json:"cdg"`
	T      []float64 `json:"t"`
}

// Analysis is the multi-year Fleuriet analysis of one company.
type Analysis struct {
	Ticker      string       `json:"ticker"`
	CompanyName string       `json:"company_name"`
	CVMCode     int          `json:"cvm_code"`
	Years       []YearResult `json:"yearly_results"`
	Chart       ChartData    `json:"chart_data"`
}

// Latest returns the most recent yearly result.
func (a *Analysis) Latest() (YearResult, bool) {
	if a == nil || len(a.Years) == 0 {
		return YearResult{}, false
	}
	return a.Years[len(a.Years)-1], true
}

// Between returns a copy restricted to years in [from, to]. A zero bound is open.
// It returns false when no year falls in the range.
func (a *Analysis) Between(from, to int) (*Analysis, bool) {
	out := &Analysis{Ticker: a.Ticker, CompanyName: a.CompanyName, CVMCode: a.CVMCode}
	for i, res := range a.Years {
		if (from != 0 && res.Year < from) || (to != 0 && res.Year > to) {
			continue
		}
		out.Years = append(out.Years, res)
		out.Chart.Labels = append(out.Chart.Labels, a.Chart.Labels[i])
		out.Chart.NCG = append(out.Chart.NCG, a.Chart.NCG[i])
		out.Chart.CDG = append(out.Chart.CDG, a.Chart.CDG[i])
		out.Chart.T = append(out.Chart.T, a.Chart.T[i])
	}
	return out, len(out.Years) > 0
}

// AnalyzeYear runs the full model on one statement.
func AnalyzeYear(st Statement) YearResult {
	r := Reclassify(st.Accounts)
	ind := Compute(r)
	structure := Classify(ind)

	return YearResult{
		Year:       st.Year,
		Balances:   r,
		Indicators: ind,
		Advanced:   ComputeAdvanced(r, ind),
		ZScore:     PradoZScore(r, ind, structure),
		Structure:  structure,
		Situation:  ind.Situation(),
	}
}

// AnalyzeYears analyses the statements of the requested years, oldest first.
// An empty years slice analyses every statement. Years without a statement are skipped.
func AnalyzeYears(statements []Statement, years []int) (*Analysis, error) {
	byYear := make(map[int]Statement, len(statements))
	for _, st := range statements {
		if _, dup := byYear[st.Year]; !dup {
			byYear[st.Year] = st
		}
	}

	if len(years) == 0 {
		for year := range byYear {
			years = append(years, year)
		}
	}
	wanted := make([]int, len(years))
	copy(wanted, years)
	sort.Ints(wanted)

	analysis := &Analysis{}
	for _, year := range wanted {
		st, ok := byYear[year]
		if !ok {
			continue
		}
		if analysis.CompanyName == "" {
			analysis.Ticker = st.Ticker
			analysis.CompanyName = st.CompanyName
			analysis.CVMCode = st.CVMCode
		}

		res := AnalyzeYear(st)
		analysis.Years = append(analysis.Years, res)
		analysis.Chart.Labels = append(analysis.Chart.Labels, year)
		analysis.Chart.NCG = append(analysis.Chart.NCG, res.Indicators.NCG)
		analysis.Chart.CDG = append(analysis.Chart.CDG, res.Indicators.CDG)
		analysis.Chart.T = append(analysis.Chart.T, res.Indicators.T)
	}

	if len(analysis.Years) == 0 {
		return nil, fmt.Errorf("%w for years %v", ErrNoStatements, wanted)
	}
	return analysis, nil
}

// StatementProvider loads the annual statements of a company.
type StatementProvider interface {
	GetStatements(ctx context.Context, ticker string) ([]Statement, error)
}

// Service runs Fleuriet analyses over stored statements.
type Service struct {
	statements StatementProvider
	log        zerolog.Logger
}

// NewService creates a Fleuriet analysis service.
func NewService(statements StatementProvider, log zerolog.Logger) *Service {
	return &Service{
		statements: statements,
		log:        log.With().Str("module", "fleuriet").Logger(),
	}
}

// Analyze loads the statements of ticker and analyses the requested years.
func (s *Service) Analyze(ctx context.Context, ticker string, years []int) (*Analysis, error) {
	statements, err := s.statements.GetStatements(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to load statements for %s: %w", ticker, err)
	}

	analysis, err := AnalyzeYears(statements, years)
	if err != nil {
		s.log.Warn().Str("ticker", ticker).Ints("years", years).Err(err).Msg("Fleuriet analysis unavailable")
		return nil, fmt.Errorf("%s: %w", ticker, err)
	}

	latest, _ := analysis.Latest()
	s.log.Debug().
		Str("ticker", ticker).
		Int("years", len(analysis.Years)).
		Str("structure", latest.Structure.String()).
		Msg("Fleuriet analysis complete")

	return analysis, nil
}
