package analytics

import "sort"

// ConversionCombination is the normalized 4-field filter combination used
// for conversion correlation. Multi-value selections beyond the first
// element are deliberately ignored.
type ConversionCombination struct {
	Finalidade string `json:"finalidade,omitempty"`
	Cidade     string `json:"cidade,omitempty"`
	Tipo       string `json:"tipo,omitempty"`
	Quartos    string `json:"quartos,omitempty"`
}

func (c ConversionCombination) empty() bool {
	return c == ConversionCombination{}
}

// ConvertingFilter pairs a combination with how many converting-session
// searches used it.
type ConvertingFilter struct {
	Combination ConversionCombination `json:"combination"`
	Conversions uint64                `json:"conversions"`
}

// normalizeCombination reduces a search payload to the 4 correlated fields,
// taking only the first element of each multi-value selection.
func normalizeCombination(ev SearchEvent) ConversionCombination {
	c := ConversionCombination{Finalidade: ev.Properties.String("finalidade")}
	if cidades := ev.Properties.Strings("cidades"); len(cidades) > 0 {
		c.Cidade = cidades[0]
	}
	if tipos := ev.Properties.Strings("tipos"); len(tipos) > 0 {
		c.Tipo = tipos[0]
	}
	if quartos := ev.Properties.Strings("quartos"); len(quartos) > 0 {
		c.Quartos = quartos[0]
	}
	return c
}

// CorrelateConversions joins search events to converting sessions by
// session identifier alone. No temporal ordering is enforced: a search
// recorded after the session's conversion still counts. The fully-empty
// combination is dropped regardless of frequency.
func CorrelateConversions(searches []SearchEvent, convertingSessions map[string]struct{}, limit int) []ConvertingFilter {
	if limit <= 0 {
		limit = DefaultLimit
	}

	counts := make(map[ConversionCombination]uint64)
	order := make([]ConversionCombination, 0)
	for _, ev := range searches {
		if _, ok := convertingSessions[ev.SessionID]; !ok {
			continue
		}
		combo := normalizeCombination(ev)
		if combo.empty() {
			continue
		}
		if _, seen := counts[combo]; !seen {
			order = append(order, combo)
		}
		counts[combo]++
	}

	result := make([]ConvertingFilter, 0, len(order))
	for _, combo := range order {
		result = append(result, ConvertingFilter{Combination: combo, Conversions: counts[combo]})
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Conversions > result[j].Conversions
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result
}
