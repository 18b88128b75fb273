// Package recordflow provides a uniform adapter layer over a
// multi-resource CRM backend: canonical field mapping, capability-aware
// search dispatch, TTL caching, stage validation, and post-write
// persistence verification behind one Service facade.
//
// This file re-exports the types callers need most often. For new code,
// consider importing subpackages directly for clearer dependencies:
//
//	import "github.com/petal-labs/recordflow/core"
//	import "github.com/petal-labs/recordflow/search"
//	import "github.com/petal-labs/recordflow/fieldmap"
package recordflow

import (
	"github.com/petal-labs/recordflow/core"
	"github.com/petal-labs/recordflow/search"
	"github.com/petal-labs/recordflow/stage"
)

// Type aliases from the core package.
type (
	// ResourceType identifies a CRM resource collection.
	ResourceType = core.ResourceType

	// Record is a single CRM record in canonical field form.
	Record = core.Record

	// Query is the canonical backend search request.
	Query = core.Query

	// Event is a structured record of adapter activity.
	Event = core.Event

	// ValidationMode selects warn-and-correct or strict behavior.
	ValidationMode = core.ValidationMode
)

// Re-exported resource type constants.
const (
	ResourceCompanies = core.ResourceCompanies
	ResourcePeople    = core.ResourcePeople
	ResourceDeals     = core.ResourceDeals
	ResourceTasks     = core.ResourceTasks
	ResourceLists     = core.ResourceLists
	ResourceRecords   = core.ResourceRecords

	ModeWarn   = core.ModeWarn
	ModeStrict = core.ModeStrict
)

// SearchParams is the full parameter set accepted by SearchRecords.
type SearchParams = search.Params

// StageValidation is the outcome of one stage validation.
type StageValidation = stage.ValidationResult

// ParseResourceType normalizes a raw resource name, accepting common
// aliases and suggesting near misses for typos.
func ParseResourceType(raw string) (ResourceType, error) {
	return core.ParseResourceType(raw)
}
