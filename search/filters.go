package search

import (
	"encoding/json"
	"strings"

	"github.com/petal-labs/recordflow/core"
)

// ContainsFilter builds a case-insensitive contains filter over one or
// more text fields; multiple fields are OR-combined.
func ContainsFilter(fields []string, query string) map[string]any {
	if len(fields) == 1 {
		return map[string]any{
			fields[0]: map[string]any{"$contains": query},
		}
	}
	clauses := make([]any, 0, len(fields))
	for _, field := range fields {
		clauses = append(clauses, map[string]any{
			field: map[string]any{"$contains": query},
		})
	}
	return map[string]any{"$or": clauses}
}

// RelationshipFilter builds a path-based filter matching records related
// to the target record: [target_type, "id"] equals target_id.
func RelationshipFilter(targetType core.ResourceType, targetID string) map[string]any {
	return map[string]any{
		"path": []any{targetType.String(), "id"},
		"constraints": map[string]any{
			"$equals": targetID,
		},
	}
}

// TimeframeFilter builds a range filter on a date attribute. Between uses
// both bounds inclusively; single-sided operators map to $gt/$lt/$gte/$lte.
func TimeframeFilter(attribute string, operator DateOperator, startDate, endDate string) map[string]any {
	var constraint map[string]any
	switch operator {
	case OperatorBetween:
		constraint = map[string]any{"$gte": startDate, "$lte": endDate}
	case OperatorGreaterThan:
		constraint = map[string]any{"$gt": startDate}
	case OperatorGreaterThanOrEqual:
		constraint = map[string]any{"$gte": startDate}
	case OperatorLessThan:
		constraint = map[string]any{"$lt": endDate}
	case OperatorLessThanOrEqual:
		constraint = map[string]any{"$lte": endDate}
	default:
		return nil
	}
	return map[string]any{attribute: constraint}
}

// matchesFilter evaluates a canonical filter tree against one record.
// Resources without server-side filtering run their built filters through
// this, so the same tree means the same thing on both paths. Top-level
// keys are AND-combined; unknown operators match nothing.
func matchesFilter(record core.Record, filter map[string]any) bool {
	if len(filter) == 0 {
		return true
	}
	if path, ok := filter["path"]; ok {
		return matchesRelationship(record, path, filter["constraints"])
	}
	for key, raw := range filter {
		switch key {
		case "$or":
			if !matchesAnyClause(record, raw) {
				return false
			}
		case "$and":
			clauses, ok := raw.([]any)
			if !ok {
				return false
			}
			for _, clause := range clauses {
				sub, ok := clause.(map[string]any)
				if !ok || !matchesFilter(record, sub) {
					return false
				}
			}
		default:
			constraints, ok := raw.(map[string]any)
			if !ok {
				return false
			}
			if !matchesConstraints(record[key], constraints) {
				return false
			}
		}
	}
	return true
}

func matchesAnyClause(record core.Record, raw any) bool {
	clauses, ok := raw.([]any)
	if !ok {
		return false
	}
	for _, clause := range clauses {
		if sub, ok := clause.(map[string]any); ok && matchesFilter(record, sub) {
			return true
		}
	}
	return false
}

// matchesRelationship checks a path filter against the record's linkage
// attribute: the first path segment names the target resource type, which
// is also the slug the collection stores linked record IDs under.
func matchesRelationship(record core.Record, path, constraints any) bool {
	segments, ok := path.([]any)
	if !ok || len(segments) == 0 {
		return false
	}
	target, ok := segments[0].(string)
	if !ok {
		return false
	}
	cons, ok := constraints.(map[string]any)
	if !ok {
		return false
	}
	want, ok := cons["$equals"]
	if !ok {
		return false
	}
	return valueEquals(record[target], want)
}

func matchesConstraints(value any, constraints map[string]any) bool {
	for op, want := range constraints {
		switch op {
		case "$contains":
			needle, ok := want.(string)
			text, isText := value.(string)
			if !ok || !isText {
				return false
			}
			if !strings.Contains(strings.ToLower(text), strings.ToLower(needle)) {
				return false
			}
		case "$equals":
			if !valueEquals(value, want) {
				return false
			}
		case "$gt", "$gte", "$lt", "$lte":
			cmp, comparable := compareOrdered(value, want)
			if !comparable {
				return false
			}
			switch op {
			case "$gt":
				if cmp <= 0 {
					return false
				}
			case "$gte":
				if cmp < 0 {
					return false
				}
			case "$lt":
				if cmp >= 0 {
					return false
				}
			case "$lte":
				if cmp > 0 {
					return false
				}
			}
		default:
			return false
		}
	}
	return true
}

// valueEquals matches scalars directly and linked-record shapes (ID
// slices, {id} / {target_record_id} wrappers) by containment.
func valueEquals(value, want any) bool {
	switch v := value.(type) {
	case []any:
		for _, item := range v {
			if valueEquals(item, want) {
				return true
			}
		}
		return false
	case map[string]any:
		if id, ok := v["target_record_id"]; ok {
			return valueEquals(id, want)
		}
		if id, ok := v["id"]; ok {
			return valueEquals(id, want)
		}
		return false
	}
	if a, ok := toFloat(value); ok {
		if b, ok := toFloat(want); ok {
			return a == b
		}
	}
	return value == want
}

// compareOrdered compares numerics as float64 and strings
// lexicographically (ISO dates order correctly that way).
func compareOrdered(value, want any) (int, bool) {
	if a, ok := toFloat(value); ok {
		if b, ok := toFloat(want); ok {
			switch {
			case a < b:
				return -1, true
			case a > b:
				return 1, true
			}
			return 0, true
		}
	}
	a, okA := value.(string)
	b, okB := want.(string)
	if okA && okB {
		return strings.Compare(a, b), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
