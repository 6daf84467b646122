package analytics

import (
	"strings"

	"github.com/Couks/projeto-tfc-sub000/internal/props"
)

// SearchEvent is a search submission as read from the event store: the
// session it belongs to plus its parsed filter payload.
type SearchEvent struct {
	SessionID  string
	Properties props.Map
}

type fieldKind int

const (
	kindString fieldKind = iota
	kindArray
	kindNumericMin
	kindBool
	kindFlags
)

type filterField struct {
	Name string
	Path string
	Kind fieldKind
}

// filterFields is the canonical set of search filter fields, in declaration
// order. Usage counting and combination labels both walk this list.
var filterFields = []filterField{
	{Name: "finalidade", Path: "finalidade", Kind: kindString},
	{Name: "tipos", Path: "tipos", Kind: kindArray},
	{Name: "cidades", Path: "cidades", Kind: kindArray},
	{Name: "bairros", Path: "bairros", Kind: kindArray},
	{Name: "quartos", Path: "quartos", Kind: kindArray},
	{Name: "banheiros", Path: "banheiros", Kind: kindArray},
	{Name: "vagas", Path: "vagas", Kind: kindArray},
	{Name: "suites", Path: "suites", Kind: kindArray},
	{Name: "precoVenda", Path: "precoVenda.min", Kind: kindNumericMin},
	{Name: "precoAluguel", Path: "precoAluguel.min", Kind: kindNumericMin},
	{Name: "area", Path: "area.min", Kind: kindNumericMin},
	{Name: "mobiliado", Path: "mobiliado", Kind: kindBool},
	{Name: "aceitaPets", Path: "aceitaPets", Kind: kindBool},
	{Name: "comodidades", Path: "comodidades", Kind: kindFlags},
	{Name: "lazer", Path: "lazer", Kind: kindFlags},
	{Name: "seguranca", Path: "seguranca", Kind: kindFlags},
}

// satisfied reports whether the event used this filter field: arrays must be
// non-empty, numeric ranges need a present non-zero min, booleans must be
// true, flag objects need at least one raised flag.
func (f filterField) satisfied(p props.Map) bool {
	switch f.Kind {
	case kindString:
		return p.String(f.Path) != ""
	case kindArray:
		return len(p.Strings(f.Path)) > 0
	case kindNumericMin:
		v, ok := p.Number(f.Path)
		return ok && v != 0
	case kindBool:
		return p.Bool(f.Path)
	case kindFlags:
		return len(p.BoolFlags(f.Path)) > 0
	}
	return false
}

// FilterUsage counts, per canonical filter field, how many search events
// used it. Percentages are computed against the total number of search
// events in range, not against the occurrence total.
func FilterUsage(events []SearchEvent, totalSearches uint64, limit int) []DimensionCount {
	occurrences := make([]GroupCount, 0, len(filterFields))
	for _, field := range filterFields {
		var count uint64
		for _, ev := range events {
			if field.satisfied(ev.Properties) {
				count++
			}
		}
		if count > 0 {
			occurrences = append(occurrences, GroupCount{Key: field.Name, Count: count})
		}
	}
	return AggregateWithTotal(occurrences, totalSearches, limit)
}

// FilterCombination is a mined combination with its frequency.
type FilterCombination struct {
	Combination string `json:"combination"`
	Count       uint64 `json:"count"`
}

// combinationLabels builds the ordered label list for one search event.
// Labels follow field-declaration order and array elements each contribute
// their own label, so two events selecting identical filters through
// differently-ordered fields mine as distinct combinations.
func combinationLabels(p props.Map) []string {
	var labels []string

	if f := p.String("finalidade"); f != "" {
		labels = append(labels, "Finalidade: "+f)
	}
	for _, t := range p.Strings("tipos") {
		labels = append(labels, "Tipo: "+t)
	}
	for _, c := range p.Strings("cidades") {
		labels = append(labels, "Cidade: "+c)
	}
	for _, q := range p.Strings("quartos") {
		labels = append(labels, "Quartos: "+q)
	}
	if v, ok := p.Number("precoVenda.min"); ok && v != 0 {
		labels = append(labels, "Preço Venda")
	}
	if v, ok := p.Number("precoAluguel.min"); ok && v != 0 {
		labels = append(labels, "Preço Aluguel")
	}
	if p.Bool("mobiliado") {
		labels = append(labels, "Mobiliado")
	}
	if p.Bool("aceitaPets") {
		labels = append(labels, "Aceita Pets")
	}

	return labels
}

// MineCombinations groups search events by the exact ordered sequence of
// filter labels each one produced and returns the most frequent ones.
// Combinations with fewer than two labels are discarded.
func MineCombinations(events []SearchEvent, limit int) []FilterCombination {
	if limit <= 0 {
		limit = DefaultLimit
	}

	groups := make([]GroupCount, 0, len(events))
	for _, ev := range events {
		labels := combinationLabels(ev.Properties)
		if len(labels) < 2 {
			continue
		}
		groups = append(groups, GroupCount{Key: strings.Join(labels, " + "), Count: 1})
	}

	counted := Aggregate(groups, limit)
	result := make([]FilterCombination, 0, len(counted))
	for _, c := range counted {
		result = append(result, FilterCombination{Combination: c.Key, Count: c.Count})
	}
	return result
}

// FlagCounts tallies the raised flags inside a boolean-flag object field
// (comodidades, lazer, seguranca). Each true flag contributes one synthetic
// dimension occurrence.
func FlagCounts(events []SearchEvent, path string, limit int) []DimensionCount {
	var occurrences []GroupCount
	for _, ev := range events {
		for _, flag := range ev.Properties.BoolFlags(path) {
			occurrences = append(occurrences, GroupCount{Key: flag, Count: 1})
		}
	}
	return Aggregate(occurrences, limit)
}

// NumericMins collects the qualifying (present, non-zero) numeric mins of a
// range field, feeding the bucket classifier.
func NumericMins(events []SearchEvent, path string) []float64 {
	var values []float64
	for _, ev := range events {
		if v, ok := ev.Properties.Number(path); ok && v != 0 {
			values = append(values, v)
		}
	}
	return values
}
