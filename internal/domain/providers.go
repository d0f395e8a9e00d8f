package domain

import "context"

// CompanyProvider supplies the financial snapshots of one analysis run.
type CompanyProvider interface {
	// GetCompanies returns every company snapshot, ordered by ticker.
	GetCompanies(ctx context.Context) ([]CompanyFinancialData, error)
}

// SectorProvider supplies the sector -> tickers mapping.
// An empty map is valid and simply disables sector rankings.
type SectorProvider interface {
	GetSectors(ctx context.Context) (SectorMap, error)
}

// RiskFreeRateProvider supplies the policy interest rate as a percentage (10.5 means 10.5%).
// A nil rate means the rate is unavailable and the calculator default applies.
type RiskFreeRateProvider interface {
	GetRiskFreeRate(ctx context.Context) (*float64, error)
}
