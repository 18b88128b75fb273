package verify

import "testing"

func TestCompareValues(t *testing.T) {
	tests := []struct {
		name     string
		expected any
		actual   any
		want     comparison
	}{
		{
			name:     "identical strings",
			expected: "Demo",
			actual:   "Demo",
			want:     compEqual,
		},
		{
			name:     "string vs title wrapper",
			expected: "Demo",
			actual:   map[string]any{"title": "Demo"},
			want:     compCosmetic,
		},
		{
			name:     "string vs value wrapper",
			expected: "Demo",
			actual:   map[string]any{"value": "Demo"},
			want:     compCosmetic,
		},
		{
			name:     "string vs single-element attribute array",
			expected: "ada@acme.test",
			actual:   []any{map[string]any{"email_address": "ada@acme.test"}},
			want:     compCosmetic,
		},
		{
			name:     "different stage values",
			expected: "Demo",
			actual:   map[string]any{"title": "Qualified"},
			want:     compSemantic,
		},
		{
			name:     "expected value vs nil",
			expected: "Demo",
			actual:   nil,
			want:     compSemantic,
		},
		{
			name:     "empty string vs missing is semantic",
			expected: "",
			actual:   nil,
			want:     compSemantic,
		},
		{
			name:     "empty string vs populated",
			expected: "",
			actual:   "Demo",
			want:     compSemantic,
		},
		{
			name:     "int vs float same number",
			expected: 500,
			actual:   float64(500),
			want:     compCosmetic,
		},
		{
			name:     "number vs wrapped number",
			expected: 500,
			actual:   map[string]any{"currency_value": float64(500)},
			want:     compCosmetic,
		},
		{
			name:     "different numbers",
			expected: 500,
			actual:   float64(600),
			want:     compSemantic,
		},
		{
			name:     "nested wrapper",
			expected: "Acme",
			actual:   []any{map[string]any{"value": map[string]any{"name": "Acme"}}},
			want:     compCosmetic,
		},
		{
			name:     "equal arrays",
			expected: []any{"a", "b"},
			actual:   []any{"a", "b"},
			want:     compEqual,
		},
		{
			name:     "arrays with different lengths",
			expected: []any{"a", "b"},
			actual:   []any{"a"},
			want:     compSemantic,
		},
		{
			name:     "case difference is semantic",
			expected: "Demo",
			actual:   "demo",
			want:     compSemantic,
		},
		{
			name:     "bool passthrough",
			expected: true,
			actual:   true,
			want:     compEqual,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compareValues(tt.expected, tt.actual); got != tt.want {
				t.Errorf("compareValues(%v, %v) = %d, want %d",
					tt.expected, tt.actual, got, tt.want)
			}
		})
	}
}

func TestNormalizeValue_DoesNotUnwrapMultiElementArrays(t *testing.T) {
	value := []any{"a", "b"}
	got := normalizeValue(value)
	arr, ok := got.([]any)
	if !ok || len(arr) != 2 {
		t.Errorf("multi-element arrays must keep their shape, got %v", got)
	}
}
