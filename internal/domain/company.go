package domain

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// CompanyFinancialData is the immutable per-company snapshot consumed by one analysis run.
// Monetary fields are currency agnostic; suppliers fill missing values with 0.
type CompanyFinancialData struct {
	Ticker      string `json:"ticker" db:"ticker"`
	CompanyName string `json:"company_name" db:"company_name"`
	Sector      string `json:"sector,omitempty" db:"sector"`

	MarketCap  float64 `json:"market_cap" db:"market_cap"`
	StockPrice float64 `json:"stock_price" db:"stock_price"`

	EBIT      float64 `json:"ebit" db:"ebit"`
	NetIncome float64 `json:"net_income" db:"net_income"`
	Revenue   float64 `json:"revenue" db:"revenue"`

	Equity                 float64 `json:"equity" db:"equity"`
	TotalDebt              float64 `json:"total_debt" db:"total_debt"`
	CurrentAssets          float64 `json:"current_assets" db:"current_assets"`
	CurrentLiabilities     float64 `json:"current_liabilities" db:"current_liabilities"`
	AccountsReceivable     float64 `json:"accounts_receivable" db:"accounts_receivable"`
	Inventory              float64 `json:"inventory" db:"inventory"`
	AccountsPayable        float64 `json:"accounts_payable" db:"accounts_payable"`
	PropertyPlantEquipment float64 `json:"property_plant_equipment" db:"property_plant_equipment"`

	CollectedAt *time.Time `json:"collected_at,omitempty" db:"collected_at"`
}

// monetaryFields lists every numeric field by its wire name.
func (d CompanyFinancialData) monetaryFields() []struct {
	name  string
	value float64
} {
	return []struct {
		name  string
		value float64
	}{
		{"market_cap", d.MarketCap},
		{"stock_price", d.StockPrice},
		{"ebit", d.EBIT},
		{"net_income", d.NetIncome},
		{"revenue", d.Revenue},
		{"equity", d.Equity},
		{"total_debt", d.TotalDebt},
		{"current_assets", d.CurrentAssets},
		{"current_liabilities", d.CurrentLiabilities},
		{"accounts_receivable", d.AccountsReceivable},
		{"inventory", d.Inventory},
		{"accounts_payable", d.AccountsPayable},
		{"property_plant_equipment", d.PropertyPlantEquipment},
	}
}

// ValidationError lists every problem found on a snapshot.
type ValidationError struct {
	Ticker   string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid financial data for %q: %s", e.Ticker, strings.Join(e.Problems, "; "))
}

// Validate checks that identifiers are present and every monetary field is finite.
func (d CompanyFinancialData) Validate() error {
	var problems []string

	if strings.TrimSpace(d.Ticker) == "" {
		problems = append(problems, "field 'ticker' is missing")
	}
	if strings.TrimSpace(d.CompanyName) == "" {
		problems = append(problems, "field 'company_name' is missing")
	}

	for _, f := range d.monetaryFields() {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			problems = append(problems, fmt.Sprintf("field '%s' is NaN or infinite", f.name))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Ticker: d.Ticker, Problems: problems}
	}
	return nil
}

// SectorMap maps a sector name to the tickers that belong to it.
type SectorMap map[string][]string

// ByTicker inverts the map. Tickers listed under several sectors get all of them,
// sorted by name.
// e.g., {"Energy": ["PETR4"], "Oil": ["PETR4", "PRIO3"]}
//
//	-> {"PETR4": ["Energy", "Oil"], "PRIO3": ["Oil"]}
func (m SectorMap) ByTicker() map[string][]string {
	result := make(map[string][]string)
	for sector, tickers := range m {
		for _, ticker := range tickers {
			result[ticker] = append(result[ticker], sector)
		}
	}
	for _, sectors := range result {
		sort.Strings(sectors)
	}
	return result
}

// Sectors returns the sector names in lexical order.
func (m SectorMap) Sectors() []string {
	out := make([]string, 0, len(m))
	for sector := range m {
		out = append(out, sector)
	}
	sort.Strings(out)
	return out
}
