// Package fleuriet implements the Fleuriet dynamic working-capital model: balance
// sheet reclassification, financial structure types, liquidity and cycle indicators
// and the Prado insolvency score.
package fleuriet

import (
	"fmt"
	"math"
)

// Indicators are the three Fleuriet balances.
type Indicators struct {
	// NCG is the working-capital need: operating assets minus operating liabilities.
	NCG float64 `json:"ncg"`
	// CDG is the long-term funding left after financing non-current assets.
	CDG float64 `json:"cdg"`
	// T is the treasury balance, CDG - NCG.
	T float64 `json:"t"`
}

// Structure is the Fleuriet financial structure type. 0 means not classifiable.
type Structure int

const (
	StructureUnclassified Structure = iota
	StructureType1
	StructureType2
	StructureType3
	StructureType4
	StructureType5
	StructureType6
)

func (s Structure) String() string {
	if s < StructureType1 || s > StructureType6 {
		return "N/C"
	}
	return fmt.Sprintf("Type %d", int(s))
}

// MarshalText renders the structure by name.
func (s Structure) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Situation describes the treasury balance.
type Situation string

const (
	SituationHealthy     Situation = "healthy"
	SituationProblematic Situation = "problematic"
	SituationBalanced    Situation = "balanced"
)

// Situation reports whether the treasury covers the working-capital need.
func (i Indicators) Situation() Situation {
	switch {
	case i.T > 0:
		return SituationHealthy
	case i.T < 0:
		return SituationProblematic
	}
	return SituationBalanced
}

// Compute derives the Fleuriet balances from a reclassified statement.
func Compute(r Reclassified) Indicators {
	ncg := r.OperatingAssets() - r.OperatingLiabilities()
	cdg := (r.NonCurrentLiabilities + r.Equity) - r.NonCurrentAssets
	return Indicators{NCG: ncg, CDG: cdg, T: cdg - ncg}
}

// Classify returns the structure type implied by the signs of NCG, CDG and T.
func Classify(i Indicators) Structure {
	switch {
	case i.NCG > 0 && i.CDG > 0 && i.T > 0:
		return StructureType2
	case i.NCG > 0 && i.CDG > 0 && i.T < 0:
		return StructureType3
	case i.NCG < 0 && i.CDG > 0:
		return StructureType4
	case i.NCG < 0 && i.CDG < 0 && i.T < 0:
		return StructureType5
	case i.NCG < 0 && i.CDG < 0 && i.T > 0:
		return StructureType6
	case i.NCG > 0 && i.CDG < 0:
		return StructureType1
	}
	return StructureUnclassified
}

// Advanced holds the liquidity, cycle and return indicators of one year.
type Advanced struct {
	ILD              float64 `json:"ild"`
	PMR              float64 `json:"pmr"`
	PME              float64 `json:"pme"`
	PMP              float64 `json:"pmp"`
	FinancialCycle   float64 `json:"financial_cycle"`
	EffectiveTaxRate float64 `json:"effective_tax_rate"`
	NOPAT            float64 `json:"nopat"`
	InvestedCapital  float64 `json:"invested_capital"`
	ROIC             float64 `json:"roic"`
}

const daysPerYear = 365

// ratio returns 0 on a zero denominator.
func ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// ComputeAdvanced derives the advanced indicators. Zero denominators yield 0.
func ComputeAdvanced(r Reclassified, i Indicators) Advanced {
	cost := math.Abs(r.Cost)
	pmr := ratio(r.Receivables, r.Revenue) * daysPerYear
	pme := ratio(r.Inventory, cost) * daysPerYear
	pmp := ratio(r.Suppliers, cost) * daysPerYear

	taxRate := 0.0
	if r.OperatingIncome > 0 {
		taxRate = math.Abs(r.IncomeTax) / r.OperatingIncome
	}
	nopat := r.OperatingIncome * (1 - taxRate)
	invested := r.Equity + r.TreasuryLiabilities

	return Advanced{
		ILD:              ratio(i.T, r.NonCurrentAssets+i.NCG),
		PMR:              pmr,
		PME:              pme,
		PMP:              pmp,
		FinancialCycle:   pmr + pme - pmp,
		EffectiveTaxRate: taxRate,
		NOPAT:            nopat,
		InvestedCapital:  invested,
		ROIC:             ratio(nopat, invested),
	}
}
