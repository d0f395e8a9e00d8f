package ranking

import (
	"errors"
	"fmt"
	"sort"

	"github.com/modelfleuriet/valuation/pkg/formulas"
)

// Column names a rankable numeric field of a Record.
type Column string

const (
	ColumnMarketCap       Column = "market_cap"
	ColumnStockPrice      Column = "stock_price"
	ColumnCapitalEmployed Column = "capital_employed"
	ColumnWACCPct         Column = "wacc_pct"
	ColumnEVAAbs          Column = "eva_abs"
	ColumnEVAPct          Column = "eva_pct"
	ColumnEFVAbs          Column = "efv_abs"
	ColumnEFVPct          Column = "efv_pct"
	ColumnCurrentWealth   Column = "current_wealth"
	ColumnFutureWealth    Column = "future_wealth"
	ColumnUpsidePct       Column = "upside_pct"
	ColumnCombinedScore   Column = "combined_score"
)

// ErrUnknownColumn is returned when ranking by a column the report does not have.
var ErrUnknownColumn = errors.New("unknown ranking column")

// Value returns the column value of the record.
func (r Record) Value(col Column) (float64, bool) {
	switch col {
	case ColumnMarketCap:
		return r.MarketCap, true
	case ColumnStockPrice:
		return r.StockPrice, true
	case ColumnCapitalEmployed:
		return r.CapitalEmployed, true
	case ColumnWACCPct:
		return r.WACCPct, true
	case ColumnEVAAbs:
		return r.EVAAbs, true
	case ColumnEVAPct:
		return r.EVAPct, true
	case ColumnEFVAbs:
		return r.EFVAbs, true
	case ColumnEFVPct:
		return r.EFVPct, true
	case ColumnCurrentWealth:
		return r.CurrentWealth, true
	case ColumnFutureWealth:
		return r.FutureWealth, true
	case ColumnUpsidePct:
		return r.UpsidePct, true
	case ColumnCombinedScore:
		return r.CombinedScore, true
	}
	return 0, false
}

// Report is the metrics table keyed by ticker. Row order is input order.
type Report struct {
	Rows []Record `json:"rows"`
	// Excluded holds the companies that could not be evaluated.
	Excluded []Record `json:"excluded,omitempty"`

	index map[string]int
}

func newReport(capacity int) *Report {
	return &Report{
		Rows:  make([]Record, 0, capacity),
		index: make(map[string]int, capacity),
	}
}

func (r *Report) add(rec Record) {
	r.index[rec.Ticker] = len(r.Rows)
	r.Rows = append(r.Rows, rec)
}

// Len returns the number of evaluated companies.
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Get looks a row up by ticker.
func (r *Report) Get(ticker string) (Record, bool) {
	if r == nil {
		return Record{}, false
	}
	if r.index == nil {
		// Decoded reports carry no index.
		for _, rec := range r.Rows {
			if rec.Ticker == ticker {
				return rec, true
			}
		}
		return Record{}, false
	}
	i, ok := r.index[ticker]
	if !ok {
		return Record{}, false
	}
	return r.Rows[i], true
}

// Tickers lists the tickers in row order.
func (r *Report) Tickers() []string {
	if r == nil {
		return nil
	}
	out := make([]string, len(r.Rows))
	for i, rec := range r.Rows {
		out[i] = rec.Ticker
	}
	return out
}

// Ranked is one entry of a single-column ranking.
type Ranked struct {
	Ticker string  `json:"ticker"`
	Value  float64 `json:"value"`
}

// MetricRank pairs the absolute and percentage form of a metric.
type MetricRank struct {
	Ticker string  `json:"ticker"`
	Abs    float64 `json:"abs"`
	Pct    float64 `json:"pct"`
}

// RankBy orders the rows by one column. Ties keep report order. Undefined values
// rank as 0 and are returned as 0.
func (r *Report) RankBy(col Column, ascending bool) ([]Ranked, error) {
	if _, ok := (Record{}).Value(col); !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, col)
	}
	if r.Len() == 0 {
		return []Ranked{}, nil
	}

	out := make([]Ranked, len(r.Rows))
	for i, rec := range r.Rows {
		v, _ := rec.Value(col)
		out[i] = Ranked{Ticker: rec.Ticker, Value: formulas.Sanitize(v)}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if ascending {
			return out[i].Value < out[j].Value
		}
		return out[i].Value > out[j].Value
	})
	return out, nil
}

// RankByEVA ranks by EVA percentage, descending.
func (r *Report) RankByEVA() []MetricRank {
	return r.rankPair(ColumnEVAPct, func(rec Record) (float64, float64) {
		return rec.EVAAbs, rec.EVAPct
	})
}

// RankByEFV ranks by EFV percentage, descending.
func (r *Report) RankByEFV() []MetricRank {
	return r.rankPair(ColumnEFVPct, func(rec Record) (float64, float64) {
		return rec.EFVAbs, rec.EFVPct
	})
}

// RankByUpside ranks by upside percentage, descending.
func (r *Report) RankByUpside() []Ranked {
	out, _ := r.RankBy(ColumnUpsidePct, false)
	return out
}

// RankByCombinedScore ranks by the weighted combined score, descending.
func (r *Report) RankByCombinedScore() []Ranked {
	out, _ := r.RankBy(ColumnCombinedScore, false)
	return out
}

func (r *Report) rankPair(col Column, pick func(Record) (float64, float64)) []MetricRank {
	ranked, _ := r.RankBy(col, false)
	out := make([]MetricRank, len(ranked))
	for i, entry := range ranked {
		rec, _ := r.Get(entry.Ticker)
		abs, pct := pick(rec)
		out[i] = MetricRank{
			Ticker: entry.Ticker,
			Abs:    formulas.Sanitize(abs),
			Pct:    pct,
		}
	}
	return out
}
