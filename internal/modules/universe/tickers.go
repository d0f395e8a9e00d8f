package universe

import "strings"

// MarketSuffix is appended to every B3 ticker.
const MarketSuffix = ".SA"

// NormalizeTicker upper-cases and trims a ticker and appends the market suffix when missing.
// An empty ticker stays empty.
func NormalizeTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" {
		return ""
	}
	if !strings.HasSuffix(t, MarketSuffix) {
		t += MarketSuffix
	}
	return t
}

// NormalizeTickers normalizes a list, dropping blanks and duplicates while keeping order.
func NormalizeTickers(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, raw := range tickers {
		t := NormalizeTicker(raw)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
