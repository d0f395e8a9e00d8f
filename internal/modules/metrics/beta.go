package metrics

// BetaEstimator supplies the systematic risk of a company.
type BetaEstimator interface {
	Beta(ticker string) float64
}

// DefaultBeta is the market beta used when no estimator is configured.
const DefaultBeta = 1.0

// FixedBeta returns the same beta for every ticker.
type FixedBeta float64

// Beta implements BetaEstimator.
func (b FixedBeta) Beta(string) float64 {
	return float64(b)
}

// BetaFunc adapts a plain function to BetaEstimator.
type BetaFunc func(ticker string) float64

// Beta implements BetaEstimator.
func (f BetaFunc) Beta(ticker string) float64 {
	return f(ticker)
}
