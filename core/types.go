// Package core provides the foundational types and interfaces for the
// recordflow adapter layer.
//
// This package contains:
//   - The closed ResourceType enumeration and its parser
//   - Record, Option, and Query data carriers
//   - Collaborator interfaces: Executor, Writer, OptionFetcher, RecordFetcher
//   - Typed errors: AdapterError (machine-coded) and APIError (status-coded)
package core

import (
	"context"
)

// ResourceType identifies a CRM resource family. The set of types is closed:
// each type selects a field-mapping table, a search strategy, and an executor.
type ResourceType string

const (
	ResourceCompanies ResourceType = "companies"
	ResourcePeople    ResourceType = "people"
	ResourceDeals     ResourceType = "deals"
	ResourceTasks     ResourceType = "tasks"
	ResourceLists     ResourceType = "lists"
	ResourceRecords   ResourceType = "records"
)

// String returns the string representation of the ResourceType.
func (r ResourceType) String() string {
	return string(r)
}

// AllResourceTypes returns every known resource type in declaration order.
func AllResourceTypes() []ResourceType {
	return []ResourceType{
		ResourceCompanies,
		ResourcePeople,
		ResourceDeals,
		ResourceTasks,
		ResourceLists,
		ResourceRecords,
	}
}

// Valid reports whether the resource type is one of the known types.
func (r ResourceType) Valid() bool {
	switch r {
	case ResourceCompanies, ResourcePeople, ResourceDeals,
		ResourceTasks, ResourceLists, ResourceRecords:
		return true
	}
	return false
}

// Record is a raw API record as returned by an executor or fetcher.
// Values keep the backend's shapes (strings, numbers, wrapper objects,
// attribute arrays); the verify package knows how to unwrap them.
type Record map[string]any

// Option is a single enumerated value for a select-style attribute,
// e.g. a deal stage.
type Option struct {
	Title      string `json:"title"`
	Value      string `json:"value"`
	IsArchived bool   `json:"is_archived"`
}

// Query is the canonical search payload handed to an Executor. The
// dispatcher builds it; executors translate it to their wire format.
type Query struct {
	// Filter is a canonical filter tree ($or, $contains, $equals, path
	// constraints, range operators). Nil when Text alone drives the search.
	Filter map[string]any

	// Text is a free-text query for resources that support query-string
	// search. Empty when Filter drives the search.
	Text string

	// Limit and Offset request server-side pagination. Both zero means
	// "fetch everything" — used for resources without native pagination.
	Limit  int
	Offset int
}

// Executor performs the actual network search for a resource type.
// Implementations return raw API records or a typed *APIError.
type Executor interface {
	Search(ctx context.Context, resource ResourceType, q Query) ([]Record, error)
}

// Writer performs record mutations. Write failures are unrecoverable and
// propagate to the caller unchanged.
type Writer interface {
	CreateRecord(ctx context.Context, resource ResourceType, attributes map[string]any) (Record, error)
	UpdateRecord(ctx context.Context, resource ResourceType, recordID string, attributes map[string]any) (Record, error)
	DeleteRecord(ctx context.Context, resource ResourceType, recordID string) error
}

// OptionFetcher retrieves the current option set for a select attribute.
type OptionFetcher interface {
	FetchOptions(ctx context.Context, resource ResourceType, fieldSlug string) ([]Option, error)
}

// RecordFetcher retrieves a single record by ID. Used by the persistence
// verifier when no actual record is supplied.
type RecordFetcher interface {
	FetchRecord(ctx context.Context, resource ResourceType, recordID string) (Record, error)
}

// ValidationMode selects between warn-and-correct and strict behavior for
// value validation. It is threaded through configuration at call time;
// core logic never reads ambient process state.
type ValidationMode string

const (
	// ModeWarn silently substitutes defaults and reports warnings.
	ModeWarn ValidationMode = "warn"
	// ModeStrict promotes unmatched values to errors.
	ModeStrict ValidationMode = "strict"
)

// Valid reports whether the mode is a known validation mode.
func (m ValidationMode) Valid() bool {
	return m == ModeWarn || m == ModeStrict
}
