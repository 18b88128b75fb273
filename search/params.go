// Package search builds per-resource search queries and dispatches them to
// an externally supplied executor. The search type selects which parameters
// are required and which filter shape is built; per-resource capability
// differences (query-string support, server-side pagination) come from the
// resource registry, never inferred at call sites.
package search

import (
	"strings"

	"github.com/petal-labs/recordflow/core"
)

// Type selects the search behavior.
type Type string

const (
	TypeBasic        Type = "basic"
	TypeContent      Type = "content"
	TypeRelationship Type = "relationship"
	TypeTimeframe    Type = "timeframe"
	TypeAdvanced     Type = "advanced"
)

// Valid reports whether the search type is known.
func (t Type) Valid() bool {
	switch t {
	case TypeBasic, TypeContent, TypeRelationship, TypeTimeframe, TypeAdvanced:
		return true
	}
	return false
}

// DateOperator selects how timeframe bounds are applied.
type DateOperator string

const (
	OperatorBetween            DateOperator = "between"
	OperatorGreaterThan        DateOperator = "greater_than"
	OperatorLessThan           DateOperator = "less_than"
	OperatorGreaterThanOrEqual DateOperator = "greater_than_or_equals"
	OperatorLessThanOrEqual    DateOperator = "less_than_or_equals"
)

// Valid reports whether the operator is known.
func (o DateOperator) Valid() bool {
	switch o {
	case OperatorBetween, OperatorGreaterThan, OperatorLessThan,
		OperatorGreaterThanOrEqual, OperatorLessThanOrEqual:
		return true
	}
	return false
}

// Params carries one search invocation. Exactly the fields required by
// Type must be present; extras are ignored.
type Params struct {
	Resource core.ResourceType `json:"resource_type"`
	Type     Type              `json:"search_type"`

	// Basic/content search.
	Query         string   `json:"query,omitempty"`
	ContentFields []string `json:"content_fields,omitempty"`

	// Advanced search: a pre-built filter tree passed through to the
	// executor after validation.
	Filters map[string]any `json:"filters,omitempty"`

	// Relationship search.
	RelationshipTargetType core.ResourceType `json:"relationship_target_type,omitempty"`
	RelationshipTargetID   string            `json:"relationship_target_id,omitempty"`

	// Timeframe search.
	TimeframeAttribute string       `json:"timeframe_attribute,omitempty"`
	StartDate          string       `json:"start_date,omitempty"`
	EndDate            string       `json:"end_date,omitempty"`
	DateOperator       DateOperator `json:"date_operator,omitempty"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Validate checks that the parameter set is complete for the chosen search
// type. Failures are local validation errors; no network call is made for
// an invalid parameter set.
func (p Params) Validate() error {
	if !p.Resource.Valid() {
		return core.NewAdapterError(core.ErrCodeInvalidResourceType,
			"unknown resource type %q", p.Resource)
	}
	if !p.Type.Valid() {
		return core.NewAdapterError(core.ErrCodeMissingSearchField,
			"unknown search type %q", p.Type)
	}
	if p.Limit < 0 || p.Offset < 0 {
		return core.NewAdapterError(core.ErrCodeMissingSearchField,
			"limit and offset must not be negative")
	}

	switch p.Type {
	case TypeBasic:
		if strings.TrimSpace(p.Query) == "" && len(p.Filters) == 0 {
			return missingField("basic", "query or filters")
		}

	case TypeContent:
		if strings.TrimSpace(p.Query) == "" {
			return missingField("content", "query")
		}

	case TypeRelationship:
		if !p.RelationshipTargetType.Valid() {
			return missingField("relationship", "relationship_target_type")
		}
		if strings.TrimSpace(p.RelationshipTargetID) == "" {
			return missingField("relationship", "relationship_target_id")
		}

	case TypeTimeframe:
		if strings.TrimSpace(p.TimeframeAttribute) == "" {
			return missingField("timeframe", "timeframe_attribute")
		}
		if !p.DateOperator.Valid() {
			return missingField("timeframe", "date_operator")
		}
		switch p.DateOperator {
		case OperatorBetween:
			if p.StartDate == "" || p.EndDate == "" {
				return missingField("timeframe", "start_date and end_date (between)")
			}
		case OperatorGreaterThan, OperatorGreaterThanOrEqual:
			if p.StartDate == "" {
				return missingField("timeframe", "start_date")
			}
		case OperatorLessThan, OperatorLessThanOrEqual:
			if p.EndDate == "" {
				return missingField("timeframe", "end_date")
			}
		}

	case TypeAdvanced:
		if len(p.Filters) == 0 {
			return missingField("advanced", "filters")
		}
	}

	return nil
}

func missingField(searchType, field string) error {
	return core.NewAdapterError(core.ErrCodeMissingSearchField,
		"%s search requires %s", searchType, field)
}
