package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCSV splits a comma-separated value into trimmed, non-empty items.
// Returns nil for empty/whitespace-only input.
// e.g., "2021, 2022,,2023" -> ["2021", "2022", "2023"]
func ParseCSV(s string) []string {
	var result []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}

// ParseIntCSV parses a comma-separated list of integers.
// Returns nil for empty input and an error naming the first bad item.
func ParseIntCSV(s string) ([]int, error) {
	var result []int
	for _, item := range ParseCSV(s) {
		n, err := strconv.Atoi(item)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", item)
		}
		result = append(result, n)
	}
	return result, nil
}
