package allocation

import (
	"sort"

	"github.com/modelfleuriet/valuation/internal/domain"
	"github.com/modelfleuriet/valuation/pkg/formulas"
)

// OtherSector collects holdings that no sector lists.
const OtherSector = "OTHER"

// GroupAllocation is the weight an allocation puts on one sector.
type GroupAllocation struct {
	Name    string   `json:"name"`
	Weight  float64  `json:"weight"`
	Tickers []string `json:"tickers"`
}

// CalculateGroupAllocation aggregates the allocation weights by sector.
// A ticker listed under several sectors splits its weight equally among them.
func CalculateGroupAllocation(alloc Allocation, sectors domain.SectorMap) []GroupAllocation {
	tickerToSectors := sectors.ByTicker()
	groups := aggregateByGroupMulti(alloc.Holdings, tickerToSectors)
	return buildGroupAllocations(groups)
}

type groupValue struct {
	weight  float64
	tickers []string
}

// aggregateByGroupMulti sums holding weights by sector. Zero weights are ignored.
func aggregateByGroupMulti(holdings []Holding, tickerToSectors map[string][]string) map[string]*groupValue {
	groups := make(map[string]*groupValue)
	add := func(name, ticker string, weight float64) {
		g, ok := groups[name]
		if !ok {
			g = &groupValue{}
			groups[name] = g
		}
		g.weight += weight
		g.tickers = append(g.tickers, ticker)
	}

	for _, h := range holdings {
		if h.Weight <= 0 {
			continue
		}
		names := tickerToSectors[h.Ticker]
		if len(names) == 0 {
			add(OtherSector, h.Ticker, h.Weight)
			continue
		}

		split := h.Weight / float64(len(names))
		for _, name := range names {
			add(name, h.Ticker, split)
		}
	}
	return groups
}

// buildGroupAllocations sorts sectors by name for consistent output.
func buildGroupAllocations(groups map[string]*groupValue) []GroupAllocation {
	allocations := make([]GroupAllocation, 0, len(groups))
	for name, g := range groups {
		allocations = append(allocations, GroupAllocation{
			Name:    name,
			Weight:  formulas.Round(g.weight, weightDecimals),
			Tickers: g.tickers,
		})
	}

	sort.Slice(allocations, func(i, j int) bool {
		return allocations[i].Name < allocations[j].Name
	})
	return allocations
}
