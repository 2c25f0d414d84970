package collection

import (
	"cmp"
	"encoding/json"
	"strings"
)

func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return 2
	case string:
		return 3
	case []any:
		return 4
	}
	return 5
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int8:
		return float64(n)
	case int16:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case uint:
		return float64(n)
	case uint8:
		return float64(n)
	case uint16:
		return float64(n)
	case uint32:
		return float64(n)
	case uint64:
		return float64(n)
	case float32:
		return float64(n)
	case float64:
		return n
	case json.Number:
		f, _ := n.Float64()
		return f
	}
	return 0
}

// compareValues orders decoded field values: numbers by value, strings
// lexicographically, lists element by element.
func compareValues(a, b any) int {

	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}

	switch a := a.(type) {
	case bool:
		b := b.(bool)
		if a == b {
			return 0
		}
		if !a {
			return -1
		}
		return 1
	case int64:
		if b, ok := b.(int64); ok {
			return cmp.Compare(a, b)
		}
	case uint64:
		if b, ok := b.(uint64); ok {
			return cmp.Compare(a, b)
		}
	case string:
		return strings.Compare(a, b.(string))
	case []any:
		b := b.([]any)
		for i := 0; i < len(a) && i < len(b); i++ {
			if c := compareValues(a[i], b[i]); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(a), len(b))
	}

	if ra == 2 {
		return cmp.Compare(toFloat(a), toFloat(b))
	}
	return 0
}

// matchable converts integers to float64 so documents compare with filters
// decoded from JSON. Filters go through matchableValue too, so json.Number
// operands compare as float64 as well.
func matchable(doc map[string]any) map[string]any {
	result := make(map[string]any, len(doc))
	for k, v := range doc {
		result[k] = matchableValue(v)
	}
	return result
}

func matchableValue(v any) any {
	switch n := v.(type) {
	case []any:
		list := make([]any, len(n))
		for i := range n {
			list[i] = matchableValue(n[i])
		}
		return list
	case map[string]any:
		return matchable(n)
	case string, bool, nil:
		return v
	}
	if rank(v) == 2 {
		return toFloat(v)
	}
	return v
}
