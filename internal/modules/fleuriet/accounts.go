package fleuriet

import (
	"sort"
	"strings"
)

// Account is one line of a standardised (CVM) financial statement.
type Account struct {
	Code  string  `json:"code" db:"account_code"`
	Value float64 `json:"value" db:"value"`
}

// Statement holds the accounts a company reported for one fiscal year.
type Statement struct {
	Ticker      string    `json:"ticker"`
	CompanyName string    `json:"company_name"`
	CVMCode     int       `json:"cvm_code"`
	Year        int       `json:"year"`
	Accounts    []Account `json:"accounts"`
}

// Chart of accounts codes grouped by Fleuriet category.
var (
	treasuryAssetCodes      = []string{"1.01.01", "1.01.02"}
	operatingAssetCodes     = []string{"1.01.06", "1.01.07", "1.01.08"}
	operatingLiabilityCodes = []string{"2.01.01", "2.01.03", "2.01.05"}
	treasuryLiabilityCodes  = []string{"2.01.04", "2.02.01"}
)

// Reclassified is a statement regrouped into the Fleuriet dynamic balance sheet.
type Reclassified struct {
	TotalAssets               float64 `json:"total_assets"`
	TreasuryAssets            float64 `json:"treasury_assets"`
	Receivables               float64 `json:"receivables"`
	Inventory                 float64 `json:"inventory"`
	OtherOperatingAssets      float64 `json:"other_operating_assets"`
	NonCurrentAssets          float64 `json:"non_current_assets"`
	Suppliers                 float64 `json:"suppliers"`
	OtherOperatingLiabilities float64 `json:"other_operating_liabilities"`
	TreasuryLiabilities       float64 `json:"treasury_liabilities"`
	NonCurrentLiabilities     float64 `json:"non_current_liabilities"`
	Equity                    float64 `json:"equity"`
	Revenue                   float64 `json:"revenue"`
	Cost                      float64 `json:"cost"`
	OperatingIncome           float64 `json:"operating_income"`
	IncomeTax                 float64 `json:"income_tax"`
	NetIncome                 float64 `json:"net_income"`
}

// OperatingAssets is the cyclical current assets: receivables, inventory and others.
func (r Reclassified) OperatingAssets() float64 {
	return r.Receivables + r.Inventory + r.OtherOperatingAssets
}

// OperatingLiabilities is the cyclical current liabilities: suppliers and others.
func (r Reclassified) OperatingLiabilities() float64 {
	return r.Suppliers + r.OtherOperatingLiabilities
}

// chart indexes statement accounts by code.
type chart map[string]float64

func newChart(accounts []Account) chart {
	c := make(chart, len(accounts))
	for _, a := range accounts {
		if _, seen := c[a.Code]; !seen {
			c[a.Code] = a.Value
		}
	}
	return c
}

// value returns the account balance. A missing account is rebuilt from its
// direct sub-accounts, and is 0 when it has none.
func (c chart) value(code string) float64 {
	if v, ok := c[code]; ok {
		return v
	}

	prefix := code + "."
	children := make(map[string]struct{})
	for existing := range c {
		rest, ok := strings.CutPrefix(existing, prefix)
		if !ok {
			continue
		}
		head, _, _ := strings.Cut(rest, ".")
		children[prefix+head] = struct{}{}
	}

	codes := make([]string, 0, len(children))
	for child := range children {
		codes = append(codes, child)
	}
	sort.Strings(codes)
	return c.sum(codes)
}

func (c chart) sum(codes []string) float64 {
	total := 0.0
	for _, code := range codes {
		total += c.value(code)
	}
	return total
}

// Reclassify groups statement accounts into Fleuriet categories.
func Reclassify(accounts []Account) Reclassified {
	c := newChart(accounts)

	return Reclassified{
		TotalAssets:               c.value("1"),
		TreasuryAssets:            c.sum(treasuryAssetCodes),
		Receivables:               c.value("1.01.03"),
		Inventory:                 c.value("1.01.04"),
		OtherOperatingAssets:      c.sum(operatingAssetCodes),
		NonCurrentAssets:          c.value("1.02"),
		Suppliers:                 c.value("2.01.02"),
		OtherOperatingLiabilities: c.sum(operatingLiabilityCodes),
		TreasuryLiabilities:       c.sum(treasuryLiabilityCodes),
		NonCurrentLiabilities:     c.value("2.02"),
		Equity:                    c.value("2.03"),
		Revenue:                   c.value("3.01"),
		Cost:                      c.value("3.02"),
		OperatingIncome:           c.value("3.05"),
		IncomeTax:                 c.value("3.09"),
		NetIncome:                 c.value("3.11"),
	}
}
