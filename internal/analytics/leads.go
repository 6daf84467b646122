package analytics

import (
	"math"

	"github.com/Couks/projeto-tfc-sub000/internal/props"
)

// leadTopN bounds each per-dimension value list of the lead profile.
const leadTopN = 5

// LeadProfile summarizes a site's lead-intent events: independent top value
// lists for the four string dimensions plus guarded monetary averages.
type LeadProfile struct {
	Interesses  []DimensionCount `json:"interesses"`
	Categorias  []DimensionCount `json:"categorias"`
	TiposImovel []DimensionCount `json:"tiposImovel"`
	Cidades     []DimensionCount `json:"cidades"`

	MediaValorVenda   int64 `json:"mediaValorVenda"`
	MediaValorAluguel int64 `json:"mediaValorAluguel"`
}

func topValues(events []props.Map, path string) []DimensionCount {
	var occurrences []GroupCount
	for _, p := range events {
		if v := p.String(path); v != "" {
			occurrences = append(occurrences, GroupCount{Key: v, Count: 1})
		}
	}
	return Aggregate(occurrences, leadTopN)
}

// averageOver averages the values at path across rows where the value is
// present and positive, rounded to the nearest integer. No qualifying rows
// means 0.
func averageOver(events []props.Map, path string) int64 {
	var sum float64
	var n int
	for _, p := range events {
		if v, ok := p.Number(path); ok && v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return int64(math.Round(sum / float64(n)))
}

// ProfileLeads aggregates the intent-event payloads into a lead profile.
// Each dimension is an independent grouped count; no cross-dimension
// correlation is attempted.
func ProfileLeads(events []props.Map) LeadProfile {
	return LeadProfile{
		Interesses:        topValues(events, "interesse"),
		Categorias:        topValues(events, "categoria"),
		TiposImovel:       topValues(events, "tipoImovel"),
		Cidades:           topValues(events, "cidade"),
		MediaValorVenda:   averageOver(events, "valorVenda"),
		MediaValorAluguel: averageOver(events, "valorAluguel"),
	}
}
