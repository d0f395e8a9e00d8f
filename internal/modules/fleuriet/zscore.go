package fleuriet

import "math"

// RiskClass is the insolvency class of a Prado Z-score.
type RiskClass string

const (
	RiskClassA            RiskClass = "A"
	RiskClassB            RiskClass = "B"
	RiskClassC            RiskClass = "C"
	RiskClassD            RiskClass = "D"
	RiskClassE            RiskClass = "E"
	RiskClassInsufficient RiskClass = "insufficient_data"
)

// Description is a short reading of the class.
func (c RiskClass) Description() string {
	switch c {
	case RiskClassA:
		return "minimum risk"
	case RiskClassB, RiskClassC:
		return "moderate risk"
	case RiskClassD:
		return "attention"
	case RiskClassE:
		return "high risk"
	}
	return "insufficient data"
}

// ZScore is a Prado insolvency score.
type ZScore struct {
	Value float64   `json:"value"`
	Class RiskClass `json:"class"`
}

// Prado model coefficients.
const (
	pradoIntercept = 1.887
	pradoCDG       = 0.899
	pradoNCG       = 0.971
	pradoStructure = 0.444
	pradoTreasury  = 0.055
	pradoDebt      = 0.980
)

// PradoZScore scores insolvency risk from the Fleuriet balances and structure type.
// The score is not computed when total assets, revenue or NCG is zero.
func PradoZScore(r Reclassified, i Indicators, s Structure) ZScore {
	if r.TotalAssets == 0 || r.Revenue == 0 || i.NCG == 0 {
		return ZScore{Class: RiskClassInsufficient}
	}

	x1 := i.CDG / r.TotalAssets
	x2 := i.NCG / r.Revenue
	x3 := float64(s)
	x4 := i.T / math.Abs(i.NCG)
	x5 := r.TreasuryLiabilities / r.TotalAssets

	z := pradoIntercept + pradoCDG*x1 + pradoNCG*x2 - pradoStructure*x3 + pradoTreasury*x4 - pradoDebt*x5
	return ZScore{Value: z, Class: classify(z)}
}

func classify(z float64) RiskClass {
	switch {
	case z > 2.675:
		return RiskClassA
	case z > 2.0:
		return RiskClassB
	case z > 1.5:
		return RiskClassC
	case z > 1.0:
		return RiskClassD
	}
	return RiskClassE
}
