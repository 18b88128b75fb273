package verify

import (
	"encoding/json"
	"reflect"
)

// comparison classifies how an expected and an actual value relate.
type comparison int

const (
	// compEqual: same data, same representation.
	compEqual comparison = iota
	// compCosmetic: same underlying data in a different shape, e.g. a bare
	// string vs an object wrapping that string under "title".
	compCosmetic
	// compSemantic: genuinely different data, or one side missing/null.
	compSemantic
)

// wrapperKeys are attribute-object keys whose value stands in for the
// whole object when comparing. Ordered by priority: the first present key
// wins.
var wrapperKeys = []string{
	"value",
	"title",
	"name",
	"full_name",
	"email_address",
	"phone_number",
	"domain",
	"target_record_id",
	"currency_value",
	"option",
}

// compareValues classifies expected vs actual structurally. Wrapper
// shapes are unwrapped before the deep comparison; an empty string never
// equals a missing value, so empty-vs-missing stays semantic.
func compareValues(expected, actual any) comparison {
	if reflect.DeepEqual(expected, actual) {
		return compEqual
	}

	ne := normalizeValue(expected)
	na := normalizeValue(actual)
	if reflect.DeepEqual(ne, na) {
		return compCosmetic
	}
	return compSemantic
}

// normalizeValue reduces a value to a canonical comparable form:
// single-element attribute arrays and known wrapper objects are unwrapped
// (recursively), and numeric types collapse to float64.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case nil:
		return nil

	case []any:
		if len(v) == 1 {
			return normalizeValue(v[0])
		}
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeValue(item)
		}
		return out

	case map[string]any:
		for _, key := range wrapperKeys {
			if inner, ok := v[key]; ok {
				return normalizeValue(inner)
			}
		}
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalizeValue(item)
		}
		return out

	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
		return v.String()

	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case float32:
		return float64(v)
	case float64:
		return v

	default:
		return v
	}
}
