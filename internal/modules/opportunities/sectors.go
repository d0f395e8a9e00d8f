package opportunities

import (
	"sort"

	"github.com/modelfleuriet/valuation/internal/domain"
)

// tickerSectors inverts a sector map. A ticker listed under several sectors is
// assigned to the first one in lexical order.
func tickerSectors(sectors domain.SectorMap) map[string]string {
	out := make(map[string]string)
	for ticker, groups := range sectors.ByTicker() {
		out[ticker] = groups[0]
	}
	return out
}

// SectorRankings groups features by sector and ranks each group by score,
// highest first. Tickers without a sector are left out.
func SectorRankings(features []Feature, sectors domain.SectorMap) map[string][]Scored {
	rankings := make(map[string][]Scored)
	if len(sectors) == 0 {
		return rankings
	}

	lookup := tickerSectors(sectors)
	for _, f := range features {
		sector, ok := lookup[f.Ticker]
		if !ok {
			continue
		}
		rankings[sector] = append(rankings[sector], Scored{Ticker: f.Ticker, Value: f.Score})
	}

	for _, ranked := range rankings {
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Value > ranked[j].Value
		})
	}
	return rankings
}
