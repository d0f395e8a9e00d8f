package testing

import (
	"math"

	"github.com/modelfleuriet/valuation/internal/domain"
	"github.com/modelfleuriet/valuation/internal/modules/fleuriet"
)

// NewCompanyFixture returns a company whose balance sheet is fixed and whose
// profitability is driven by ebit and marketCap.
func NewCompanyFixture(ticker string, ebit, marketCap float64) domain.CompanyFinancialData {
	return domain.CompanyFinancialData{
		Ticker:                 ticker,
		CompanyName:            ticker,
		MarketCap:              marketCap,
		StockPrice:             10,
		EBIT:                   ebit,
		NetIncome:              ebit * 0.6,
		Revenue:                800,
		Equity:                 80,
		TotalDebt:              20,
		CurrentAssets:          150,
		CurrentLiabilities:     90,
		AccountsReceivable:     50,
		Inventory:              30,
		AccountsPayable:        40,
		PropertyPlantEquipment: 260,
	}
}

// NewUniverseFixtures returns four valid companies of decreasing quality
// followed by BAD3.SA, which fails validation.
func NewUniverseFixtures() []domain.CompanyFinancialData {
	invalid := NewCompanyFixture("BAD3.SA", 10, 100)
	invalid.Revenue = math.Inf(1)
	return []domain.CompanyFinancialData{
		NewCompanyFixture("GOOD3.SA", 200, 500),
		NewCompanyFixture("FAIR3.SA", 80, 400),
		NewCompanyFixture("WEAK3.SA", 10, 300),
		NewCompanyFixture("POOR3.SA", -20, 200),
		invalid,
	}
}

// NewStatementFixture returns a small balance sheet for one fiscal year.
func NewStatementFixture(ticker string, year int) fleuriet.Statement {
	return fleuriet.Statement{
		Ticker:      ticker,
		CompanyName: ticker,
		CVMCode:     5410,
		Year:        year,
		Accounts: []fleuriet.Account{
			{Code: "1", Value: 1_000},
			{Code: "1.01", Value: 400},
			{Code: "1.01.01", Value: 50},
			{Code: "1.01.03", Value: 150},
			{Code: "1.01.04", Value: 120},
			{Code: "2.01", Value: 300},
			{Code: "2.01.04", Value: 60},
			{Code: "2.03", Value: 450},
		},
	}
}
