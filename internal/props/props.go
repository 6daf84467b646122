// Package props provides typed access to the free-form properties and
// context blobs carried by events. Every accessor treats a missing, null or
// wrongly-typed value as absent, so malformed payloads degrade to "this
// event does not contribute" instead of failing the query.
package props

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Map is a parsed properties object.
type Map map[string]interface{}

// Parse decodes a raw JSON object. Malformed or empty input yields an empty
// map, never an error.
func Parse(raw string) Map {
	if raw == "" {
		return Map{}
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return Map{}
	}
	return Map(m)
}

// lookup walks a dot-separated path through nested objects.
func (m Map) lookup(path string) (interface{}, bool) {
	var current interface{} = map[string]interface{}(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}

// Has reports whether the path resolves to a non-null value.
func (m Map) Has(path string) bool {
	_, ok := m.lookup(path)
	return ok
}

// String returns the string at path, or "" when absent or not a string.
func (m Map) String(path string) string {
	v, ok := m.lookup(path)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Number returns the numeric value at path. Monetary amounts arrive either
// as JSON numbers or as numeric strings, so both are accepted.
func (m Map) Number(path string) (float64, bool) {
	v, ok := m.lookup(path)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Bool returns the boolean at path, false when absent or not a boolean.
func (m Map) Bool(path string) bool {
	v, ok := m.lookup(path)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// BoolFlags returns the names of the flags set to true in the object at
// path, sorted for deterministic iteration. Missing or non-object values
// yield nil.
func (m Map) BoolFlags(path string) []string {
	v, ok := m.lookup(path)
	if !ok {
		return nil
	}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	var out []string
	for name, val := range obj {
		if b, ok := val.(bool); ok && b {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Strings returns the array at path rendered as strings. Non-string
// elements are stringified when numeric and skipped otherwise; a missing or
// non-array value yields nil.
func (m Map) Strings(path string) []string {
	v, ok := m.lookup(path)
	if !ok {
		return nil
	}
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(arr))
	for _, el := range arr {
		switch e := el.(type) {
		case string:
			out = append(out, e)
		case float64:
			out = append(out, strconv.FormatFloat(e, 'f', -1, 64))
		}
	}
	return out
}
