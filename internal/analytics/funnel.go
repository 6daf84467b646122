package analytics

import "math"

// roundTwo rounds to two decimals, half away from zero.
func roundTwo(x float64) float64 {
	return math.Round(x*100) / 100
}

// CanonicalStages is the fixed ordered funnel taxonomy. The terminal
// conversion_confirmed stage is part of the contract even though the capture
// scripts currently stop at submitted_contact_form, so the overall
// conversion rate can legitimately read zero; see DESIGN.md before renaming
// anything here.
var CanonicalStages = []string{
	"search_submitted",
	"viewed_property",
	"viewed_gallery",
	"opened_contact",
	"clicked_whatsapp",
	"submitted_contact_form",
	"conversion_confirmed",
}

// FunnelStage is one populated stage of the funnel, in canonical order.
type FunnelStage struct {
	Stage             string  `json:"stage"`
	Count             uint64  `json:"count"`
	PercentageOfStart float64 `json:"percentageOfStart"`
	DropoffRate       float64 `json:"dropoffRate"`
}

// FunnelResult is the computed funnel. Stages with zero count are omitted
// from Stages but still participate in TotalStarted and
// OverallConversionRate.
type FunnelResult struct {
	Stages                []FunnelStage `json:"stages"`
	TotalStarted          uint64        `json:"totalStarted"`
	OverallConversionRate float64       `json:"overallConversionRate"`
}

// BuildFunnel computes per-stage percentages and dropoff from raw stage
// counts. Stages are counted independently, not as a strict per-session
// sequence, so a later stage may exceed its predecessor and produce a
// negative dropoff rate; that signal is preserved rather than clamped.
func BuildFunnel(counts map[string]uint64) FunnelResult {
	first := counts[CanonicalStages[0]]
	last := counts[CanonicalStages[len(CanonicalStages)-1]]

	result := FunnelResult{
		Stages:                make([]FunnelStage, 0, len(CanonicalStages)),
		TotalStarted:          first,
		OverallConversionRate: RoundPercentage(last, first),
	}

	previous := first
	for _, stage := range CanonicalStages {
		count := counts[stage]

		var dropoff float64
		if previous > 0 {
			dropoff = roundTwo((float64(previous) - float64(count)) / float64(previous) * 100)
		}

		if count > 0 {
			result.Stages = append(result.Stages, FunnelStage{
				Stage:             stage,
				Count:             count,
				PercentageOfStart: RoundPercentage(count, first),
				DropoffRate:       dropoff,
			})
		}

		previous = count
	}

	return result
}
