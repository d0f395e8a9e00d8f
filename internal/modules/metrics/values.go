package metrics

import "github.com/modelfleuriet/valuation/internal/domain"

// Values bundles every metric of one company. Undefined entries are NaN.
type Values struct {
	NOPAT           float64 `json:"nopat"`
	CapitalEmployed float64 `json:"capital_employed"`
	Beta            float64 `json:"beta"`
	WACC            float64 `json:"wacc"`
	ROCE            float64 `json:"roce"`
	EVAAbs          float64 `json:"eva_abs"`
	EVAPct          float64 `json:"eva_pct"`
	CurrentWealth   float64 `json:"current_wealth"`
	FutureWealth    float64 `json:"future_wealth"`
	EFVAbs          float64 `json:"efv_abs"`
	EFVPct          float64 `json:"efv_pct"`
	UpsidePct       float64 `json:"upside_pct"`
}

// Compute evaluates every metric once, sharing capital employed and WACC between formulas
// so each edge case is reported a single time per company.
func (c *Calculator) Compute(d domain.CompanyFinancialData) Values {
	ce := c.CapitalEmployed(d)
	wacc := c.WACC(d)
	evaAbs, evaPct := c.eva(d, ce, wacc)
	current := currentWealth(evaAbs, wacc)
	future := futureWealth(d, ce)
	efvAbs, efvPct := efv(current, future, ce)

	upside := Undefined()
	if !IsUndefined(efvAbs) {
		upside = c.Upside(d, efvAbs)
	}

	return Values{
		NOPAT:           c.NOPAT(d.EBIT),
		CapitalEmployed: ce,
		Beta:            c.Beta(d.Ticker),
		WACC:            wacc,
		ROCE:            c.ROCE(d, ce),
		EVAAbs:          evaAbs,
		EVAPct:          evaPct,
		CurrentWealth:   current,
		FutureWealth:    future,
		EFVAbs:          efvAbs,
		EFVPct:          efvPct,
		UpsidePct:       upside,
	}
}
