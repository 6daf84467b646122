package analytics

import "sort"

// Rung is one step of a bucket ladder: values strictly below Below get
// Label.
type Rung struct {
	Below float64
	Label string
}

// Ladder is an ascending sequence of rungs plus an overflow label for
// values at or above the last rung.
type Ladder struct {
	Rungs    []Rung
	Overflow string
}

// Standard ladders for the numeric search dimensions.
var (
	SalePriceLadder = Ladder{
		Rungs: []Rung{
			{Below: 100_000, Label: "Até 100k"},
			{Below: 300_000, Label: "100k-300k"},
			{Below: 500_000, Label: "300k-500k"},
			{Below: 1_000_000, Label: "500k-1M"},
		},
		Overflow: "1M+",
	}

	RentalPriceLadder = Ladder{
		Rungs: []Rung{
			{Below: 1_000, Label: "Até 1k"},
			{Below: 2_000, Label: "1k-2k"},
			{Below: 3_500, Label: "2k-3.5k"},
			{Below: 5_000, Label: "3.5k-5k"},
		},
		Overflow: "5k+",
	}

	AreaLadder = Ladder{
		Rungs: []Rung{
			{Below: 50, Label: "Até 50m²"},
			{Below: 100, Label: "50-100m²"},
			{Below: 200, Label: "100-200m²"},
			{Below: 500, Label: "200-500m²"},
		},
		Overflow: "500m²+",
	}
)

// label finds the first rung strictly above the value; values at or past
// the last rung take the overflow label.
func (l Ladder) label(value float64) string {
	for _, r := range l.Rungs {
		if value < r.Below {
			return r.Label
		}
	}
	return l.Overflow
}

// ClassifyBuckets assigns each qualifying value to a ladder bucket and
// returns counts sorted descending. Values <= 0 are excluded entirely; the
// caller is expected to have already dropped rows where the field is
// missing.
func ClassifyBuckets(values []float64, ladder Ladder) []DimensionCount {
	counts := make(map[string]uint64)
	var total uint64
	for _, v := range values {
		if v <= 0 {
			continue
		}
		counts[ladder.label(v)]++
		total++
	}

	// Emit in ladder-rung order so the stable sort leaves equal counts in a
	// deterministic order.
	result := make([]DimensionCount, 0, len(counts))
	appendBucket := func(label string) {
		count, ok := counts[label]
		if !ok {
			return
		}
		result = append(result, DimensionCount{
			Key:        label,
			Count:      count,
			Percentage: RoundPercentage(count, total),
		})
	}
	for _, r := range ladder.Rungs {
		appendBucket(r.Label)
	}
	appendBucket(ladder.Overflow)

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})

	return result
}
