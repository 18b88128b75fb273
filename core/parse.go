package core

import (
	"strings"

	"github.com/petal-labs/recordflow/match"
)

// resourceAliases are accepted spellings for resource types beyond the
// canonical plural slugs.
var resourceAliases = map[string]ResourceType{
	"company":      ResourceCompanies,
	"organization": ResourceCompanies,
	"person":       ResourcePeople,
	"contact":      ResourcePeople,
	"contacts":     ResourcePeople,
	"deal":         ResourceDeals,
	"opportunity":  ResourceDeals,
	"task":         ResourceTasks,
	"list":         ResourceLists,
	"record":       ResourceRecords,
}

// ParseResourceType resolves a raw resource type string to a ResourceType.
// Common singular/alternate spellings are accepted. Unknown values return
// an INVALID_RESOURCE_TYPE error naming the value and ranked suggestions.
func ParseResourceType(raw string) (ResourceType, error) {
	clean := strings.ToLower(strings.TrimSpace(raw))
	if rt := ResourceType(clean); rt.Valid() {
		return rt, nil
	}
	if rt, ok := resourceAliases[clean]; ok {
		return rt, nil
	}

	known := make([]string, 0, len(AllResourceTypes()))
	for _, rt := range AllResourceTypes() {
		known = append(known, rt.String())
	}
	suggestions := match.ClosestValues(clean, known, 3, 5)

	err := NewAdapterError(ErrCodeInvalidResourceType,
		"unknown resource type %q (known types: %s)", raw, strings.Join(known, ", "))
	if len(suggestions) > 0 {
		err = err.WithDetails(map[string]any{"suggestions": suggestions})
	}
	return "", err
}
