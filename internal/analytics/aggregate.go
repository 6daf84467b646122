// Package analytics holds the pure read-path engines: grouped counts,
// bucket classification, funnel math, filter mining, session correlation and
// lead profiling. Everything here is a stateless function over data already
// fetched from the event or rollup store.
package analytics

import (
	"math"
	"sort"
)

// UnknownKey is the label assigned to rows whose dimension value is null or
// absent.
const UnknownKey = "unknown"

// DefaultLimit bounds result lists when the caller does not say otherwise.
const DefaultLimit = 10

// GroupCount is a raw grouped row as returned by the store.
type GroupCount struct {
	Key   string
	Count uint64
}

// DimensionCount is one entry of an aggregated result.
type DimensionCount struct {
	Key        string  `json:"key"`
	Count      uint64  `json:"count"`
	Percentage float64 `json:"percentage"`
}

// RoundPercentage computes a two-decimal percentage of part over total,
// rounding half away from zero. Returns 0 when total is 0.
func RoundPercentage(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}

// Aggregate merges raw grouped rows into an ordered dimension result.
// Null/absent keys coalesce to "unknown", groups are sorted by count
// descending (stable on ties) and truncated to limit; percentages are
// computed against the pre-truncation total. Zero rows yield an empty
// slice.
func Aggregate(groups []GroupCount, limit int) []DimensionCount {
	if limit <= 0 {
		limit = DefaultLimit
	}

	merged := make(map[string]uint64, len(groups))
	order := make([]string, 0, len(groups))
	var total uint64
	for _, g := range groups {
		key := g.Key
		if key == "" {
			key = UnknownKey
		}
		if _, seen := merged[key]; !seen {
			order = append(order, key)
		}
		merged[key] += g.Count
		total += g.Count
	}

	result := make([]DimensionCount, 0, len(order))
	for _, key := range order {
		result = append(result, DimensionCount{Key: key, Count: merged[key]})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})

	if len(result) > limit {
		result = result[:limit]
	}

	for i := range result {
		result[i].Percentage = RoundPercentage(result[i].Count, total)
	}

	return result
}

// AggregateWithTotal is Aggregate with an explicit percentage denominator,
// used when occurrences and the population they are measured against differ
// (per-field filter usage counts against total search events).
func AggregateWithTotal(groups []GroupCount, total uint64, limit int) []DimensionCount {
	result := Aggregate(groups, limit)
	for i := range result {
		result[i].Percentage = RoundPercentage(result[i].Count, total)
	}
	return result
}
