package fleuriet

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAccounts() []Account {
	return []Account{
		{"1", 1000},
		{"1.01", 400},
		{"1.01.01", 50},
		{"1.01.02", 30},
		{"1.01.03", 120},
		{"1.01.04", 90},
		{"1.01.06", 20},
		{"1.02", 600},
		{"2.01.01", 40},
		{"2.01.02", 70},
		{"2.01.03", 10},
		{"2.01.04", 60},
		{"2.02", 250},
		{"2.02.01", 200},
		{"2.03", 420},
		{"3.01", 1200},
		{"3.02", -800},
		{"3.05", 150},
		{"3.09", -45},
		{"3.11", 90},
	}
}

func sampleStatement(year int) Statement {
	return Statement{Ticker: "WEGE3.SA", CompanyName: "WEG", CVMCode: 5410, Year: year, Accounts: sampleAccounts()}
}

func TestReclassify(t *testing.T) {
	r := Reclassify(sampleAccounts())

	assert.Equal(t, 1000.0, r.TotalAssets)
	assert.Equal(t, 80.0, r.TreasuryAssets)
	assert.Equal(t, 230.0, r.OperatingAssets())
	assert.Equal(t, 120.0, r.OperatingLiabilities())
	assert.Equal(t, 260.0, r.TreasuryLiabilities)
	assert.Equal(t, 600.0, r.NonCurrentAssets)
	assert.Equal(t, 250.0, r.NonCurrentLiabilities)
	assert.Equal(t, 420.0, r.Equity)
	assert.Equal(t, 1200.0, r.Revenue)
	assert.Equal(t, -800.0, r.Cost)
}

func TestReclassify_RebuildsMissingParentFromChildren(t *testing.T) {
	r := Reclassify([]Account{
		{"1.01.06.01", 5},
		{"1.01.06.02", 7},
		{"1.01.07.01.01", 3},
		{"1.01.08", 1},
	})

	assert.Equal(t, 16.0, r.OtherOperatingAssets)
	assert.Equal(t, 16.0, r.TotalAssets, "totals are rebuilt from sub-accounts")
}

func TestReclassify_FirstOccurrenceWins(t *testing.T) {
	r := Reclassify([]Account{{"2.03", 100}, {"2.03", 999}})
	assert.Equal(t, 100.0, r.Equity)
}

func TestCompute(t *testing.T) {
	ind := Compute(Reclassify(sampleAccounts()))

	assert.Equal(t, 110.0, ind.NCG)
	assert.Equal(t, 70.0, ind.CDG)
	assert.Equal(t, -40.0, ind.T)
	assert.Equal(t, SituationProblematic, ind.Situation())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		ind  Indicators
		want Structure
	}{
		{"type 1", Indicators{NCG: 10, CDG: -5, T: -15}, StructureType1},
		{"type 2", Indicators{NCG: 10, CDG: 30, T: 20}, StructureType2},
		{"type 3", Indicators{NCG: 30, CDG: 10, T: -20}, StructureType3},
		{"type 4", Indicators{NCG: -10, CDG: 10, T: 20}, StructureType4},
		{"type 5", Indicators{NCG: -10, CDG: -30, T: -20}, StructureType5},
		{"type 6", Indicators{NCG: -30, CDG: -10, T: 20}, StructureType6},
		{"zero ncg", Indicators{NCG: 0, CDG: 10, T: 10}, StructureUnclassified},
		{"zero treasury", Indicators{NCG: 10, CDG: 10, T: 0}, StructureUnclassified},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.ind))
		})
	}
}

func TestStructureString(t *testing.T) {
	assert.Equal(t, "Type 3", StructureType3.String())
	assert.Equal(t, "N/C", StructureUnclassified.String())
	assert.Equal(t, "N/C", Structure(9).String())

	text, err := StructureType6.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Type 6", string(text))
}

func TestSituation(t *testing.T) {
	assert.Equal(t, SituationHealthy, Indicators{T: 1}.Situation())
	assert.Equal(t, SituationBalanced, Indicators{}.Situation())
}

func TestComputeAdvanced(t *testing.T) {
	r := Reclassify(sampleAccounts())
	adv := ComputeAdvanced(r, Compute(r))

	assert.InDelta(t, -40.0/710.0, adv.ILD, 1e-12)
	assert.InDelta(t, 36.5, adv.PMR, 1e-9)
	assert.InDelta(t, 41.0625, adv.PME, 1e-9)
	assert.InDelta(t, 31.9375, adv.PMP, 1e-9)
	assert.InDelta(t, 45.625, adv.FinancialCycle, 1e-9)
	assert.InDelta(t, 0.3, adv.EffectiveTaxRate, 1e-12)
	assert.InDelta(t, 105.0, adv.NOPAT, 1e-9)
	assert.Equal(t, 680.0, adv.InvestedCapital)
	assert.InDelta(t, 105.0/680.0, adv.ROIC, 1e-12)
}

func TestComputeAdvanced_ZeroDenominators(t *testing.T) {
	adv := ComputeAdvanced(Reclassified{OperatingIncome: -10, IncomeTax: 5}, Indicators{})

	assert.Equal(t, Advanced{NOPAT: -10}, adv)
}

func TestPradoZScore(t *testing.T) {
	r := Reclassify(sampleAccounts())
	ind := Compute(r)

	z := PradoZScore(r, ind, Classify(ind))

	want := 1.887 + 0.899*(70.0/1000) + 0.971*(110.0/1200) - 0.444*3 + 0.055*(-40.0/110) - 0.980*(260.0/1000)
	assert.InDelta(t, want, z.Value, 1e-12)
	assert.Equal(t, RiskClassE, z.Class)
	assert.Equal(t, "high risk", z.Class.Description())
}

func TestPradoZScore_InsufficientData(t *testing.T) {
	r := Reclassify(sampleAccounts())
	ind := Compute(r)

	for name, mutate := range map[string]func(*Reclassified, *Indicators){
		"no assets":  func(r *Reclassified, _ *Indicators) { r.TotalAssets = 0 },
		"no revenue": func(r *Reclassified, _ *Indicators) { r.Revenue = 0 },
		"no ncg":     func(_ *Reclassified, i *Indicators) { i.NCG = 0 },
	} {
		t.Run(name, func(t *testing.T) {
			rr, ii := r, ind
			mutate(&rr, &ii)
			z := PradoZScore(rr, ii, StructureType2)
			assert.Equal(t, RiskClassInsufficient, z.Class)
			assert.Equal(t, 0.0, z.Value)
		})
	}
}

func TestRiskClassBoundaries(t *testing.T) {
	assert.Equal(t, RiskClassA, classify(2.7))
	assert.Equal(t, RiskClassB, classify(2.675))
	assert.Equal(t, RiskClassC, classify(2.0))
	assert.Equal(t, RiskClassD, classify(1.5))
	assert.Equal(t, RiskClassE, classify(1.0))
}

func TestAnalyzeYears(t *testing.T) {
	statements := []Statement{sampleStatement(2023), sampleStatement(2021), sampleStatement(2022)}

	analysis, err := AnalyzeYears(statements, []int{2023, 2021, 2019})
	require.NoError(t, err)

	assert.Equal(t, "WEG", analysis.CompanyName)
	assert.Equal(t, 5410, analysis.CVMCode)
	require.Len(t, analysis.Years, 2)
	assert.Equal(t, 2021, analysis.Years[0].Year)
	assert.Equal(t, []int{2021, 2023}, analysis.Chart.Labels)
	assert.Equal(t, []float64{110, 110}, analysis.Chart.NCG)
	assert.Equal(t, []float64{70, 70}, analysis.Chart.CDG)
	assert.Equal(t, []float64{-40, -40}, analysis.Chart.T)

	latest, ok := analysis.Latest()
	require.True(t, ok)
	assert.Equal(t, 2023, latest.Year)
	assert.Equal(t, StructureType3, latest.Structure)
}

func TestAnalyzeYears_AllYears(t *testing.T) {
	analysis, err := AnalyzeYears([]Statement{sampleStatement(2022), sampleStatement(2020)}, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{2020, 2022}, analysis.Chart.Labels)
}

func TestAnalysis_Between(t *testing.T) {
	analysis, err := AnalyzeYears([]Statement{sampleStatement(2020), sampleStatement(2021), sampleStatement(2022)}, nil)
	require.NoError(t, err)

	ranged, ok := analysis.Between(2021, 0)
	require.True(t, ok)
	assert.Equal(t, []int{2021, 2022}, ranged.Chart.Labels)
	assert.Len(t, ranged.Chart.T, 2)
	assert.Equal(t, "WEG", ranged.CompanyName)

	ranged, ok = analysis.Between(0, 2020)
	require.True(t, ok)
	assert.Equal(t, []int{2020}, ranged.Chart.Labels)

	_, ok = analysis.Between(2023, 2024)
	assert.False(t, ok)
	assert.Len(t, analysis.Years, 3, "the receiver is not modified")
}

func TestAnalyzeYears_NoData(t *testing.T) {
	_, err := AnalyzeYears([]Statement{sampleStatement(2022)}, []int{2018})
	assert.True(t, errors.Is(err, ErrNoStatements))

	_, err = AnalyzeYears(nil, nil)
	assert.True(t, errors.Is(err, ErrNoStatements))
}

type stubStatements struct {
	statements []Statement
	err        error
}

func (s stubStatements) GetStatements(context.Context, string) ([]Statement, error) {
	return s.statements, s.err
}

func TestService_Analyze(t *testing.T) {
	svc := NewService(stubStatements{statements: []Statement{sampleStatement(2023)}}, zerolog.Nop())

	analysis, err := svc.Analyze(context.Background(), "WEGE3.SA", nil)
	require.NoError(t, err)
	assert.Len(t, analysis.Years, 1)
}

func TestService_AnalyzeErrors(t *testing.T) {
	failing := NewService(stubStatements{err: errors.New("db down")}, zerolog.Nop())
	_, err := failing.Analyze(context.Background(), "WEGE3.SA", nil)
	assert.ErrorContains(t, err, "db down")

	empty := NewService(stubStatements{}, zerolog.Nop())
	_, err = empty.Analyze(context.Background(), "WEGE3.SA", []int{2020})
	assert.True(t, errors.Is(err, ErrNoStatements))
}
