package search

import (
	"reflect"
	"testing"

	"github.com/petal-labs/recordflow/core"
)

func TestContainsFilter_SingleField(t *testing.T) {
	got := ContainsFilter([]string{"name"}, "acme")
	want := map[string]any{
		"name": map[string]any{"$contains": "acme"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestContainsFilter_MultipleFieldsORCombined(t *testing.T) {
	got := ContainsFilter([]string{"name", "email_addresses"}, "ada")
	clauses, ok := got["$or"].([]any)
	if !ok {
		t.Fatalf("expected $or clause list, got %v", got)
	}
	if len(clauses) != 2 {
		t.Fatalf("clauses = %d, want 2", len(clauses))
	}
	first, ok := clauses[0].(map[string]any)
	if !ok {
		t.Fatalf("clause shape: %v", clauses[0])
	}
	if _, ok := first["name"]; !ok {
		t.Errorf("first clause should target name: %v", first)
	}
}

func TestRelationshipFilter(t *testing.T) {
	got := RelationshipFilter(core.ResourceCompanies, "comp_42")

	path, ok := got["path"].([]any)
	if !ok || len(path) != 2 {
		t.Fatalf("path = %v, want [companies id]", got["path"])
	}
	if path[0] != "companies" || path[1] != "id" {
		t.Errorf("path = %v, want [companies id]", path)
	}

	constraints, ok := got["constraints"].(map[string]any)
	if !ok {
		t.Fatalf("constraints shape: %v", got["constraints"])
	}
	if constraints["$equals"] != "comp_42" {
		t.Errorf("constraints = %v", constraints)
	}
}

func TestTimeframeFilter(t *testing.T) {
	tests := []struct {
		name     string
		operator DateOperator
		want     map[string]any
	}{
		{
			name:     "between uses both bounds",
			operator: OperatorBetween,
			want:     map[string]any{"$gte": "2026-01-01", "$lte": "2026-02-01"},
		},
		{
			name:     "greater_than",
			operator: OperatorGreaterThan,
			want:     map[string]any{"$gt": "2026-01-01"},
		},
		{
			name:     "greater_than_or_equals",
			operator: OperatorGreaterThanOrEqual,
			want:     map[string]any{"$gte": "2026-01-01"},
		},
		{
			name:     "less_than",
			operator: OperatorLessThan,
			want:     map[string]any{"$lt": "2026-02-01"},
		},
		{
			name:     "less_than_or_equals",
			operator: OperatorLessThanOrEqual,
			want:     map[string]any{"$lte": "2026-02-01"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TimeframeFilter("deadline_at", tt.operator, "2026-01-01", "2026-02-01")
			constraint, ok := got["deadline_at"].(map[string]any)
			if !ok {
				t.Fatalf("filter = %v", got)
			}
			if !reflect.DeepEqual(constraint, tt.want) {
				t.Errorf("constraint = %v, want %v", constraint, tt.want)
			}
		})
	}
}

func TestTimeframeFilter_UnknownOperator(t *testing.T) {
	if got := TimeframeFilter("deadline_at", "around", "a", "b"); got != nil {
		t.Errorf("unknown operator should return nil, got %v", got)
	}
}
