// Package fieldmap translates user-supplied field names to canonical
// attribute slugs per resource type and detects alias collisions. Both
// operations are pure: no network I/O, and the caller's payload is never
// mutated.
package fieldmap

import (
	"fmt"
	"sort"
	"strings"

	"github.com/petal-labs/recordflow/core"
)

// MappingResult is the outcome of one normalization call.
type MappingResult struct {
	Mapped   map[string]any `json:"mapped"`
	Warnings []string       `json:"warnings"`
	Errors   []string       `json:"errors"`
}

// CollisionReport lists canonical targets fed by two or more input aliases.
type CollisionReport struct {
	HasCollisions bool                `json:"has_collisions"`
	Collisions    map[string][]string `json:"collisions"`
	Errors        []string            `json:"errors"`
}

// Mapper resolves alias field names against per-resource mapping tables.
// Tables are fixed at construction and read-only afterward.
type Mapper struct {
	tables map[core.ResourceType]map[string]string
}

// New creates a Mapper over the built-in alias tables.
func New() *Mapper {
	return NewWithCustom(nil)
}

// NewWithCustom creates a Mapper whose tables merge custom alias mappings
// (e.g. loaded from a SQLiteStore) over the built-in ones. Custom entries
// win on conflict.
func NewWithCustom(custom map[core.ResourceType]map[string]string) *Mapper {
	tables := make(map[core.ResourceType]map[string]string, len(builtinTables))
	for resource, table := range builtinTables {
		merged := make(map[string]string, len(table))
		for alias, canonical := range table {
			merged[alias] = canonical
		}
		tables[resource] = merged
	}
	for resource, table := range custom {
		merged, ok := tables[resource]
		if !ok {
			merged = make(map[string]string, len(table))
			tables[resource] = merged
		}
		for alias, canonical := range table {
			merged[strings.ToLower(alias)] = canonical
		}
	}
	return &Mapper{tables: tables}
}

// MapRecordFields translates each alias key of raw to its canonical slug,
// emitting a warning per translation. Unknown keys pass through unchanged;
// nothing is dropped silently. Collisions do not stop mapping; they are
// reported in Errors so the caller can decide whether to abort the write.
func (m *Mapper) MapRecordFields(resource core.ResourceType, raw map[string]any) MappingResult {
	result := MappingResult{
		Mapped: make(map[string]any, len(raw)),
	}

	report := m.DetectFieldCollisions(resource, raw)
	result.Errors = append(result.Errors, report.Errors...)

	table := m.tables[resource]

	// Deterministic processing order so collision overwrites are stable.
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		canonical, ok := table[strings.ToLower(key)]
		if !ok {
			// Assumed already canonical or a workspace-specific custom
			// field; passes through untouched.
			result.Mapped[key] = raw[key]
			continue
		}
		if canonical == key {
			result.Mapped[key] = raw[key]
			continue
		}
		result.Mapped[canonical] = raw[key]
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("mapped field %q to %q for %s", key, canonical, resource))
	}

	return result
}

// DetectFieldCollisions groups the keys of raw by their canonical target
// and reports any target fed by two or more keys. It must run on the raw
// payload: after mapping, the information about which aliases collided is
// gone. Keys with no mapping entry are ignored.
func (m *Mapper) DetectFieldCollisions(resource core.ResourceType, raw map[string]any) CollisionReport {
	report := CollisionReport{
		Collisions: make(map[string][]string),
	}

	table := m.tables[resource]
	byTarget := make(map[string][]string)
	for key := range raw {
		canonical, ok := table[strings.ToLower(key)]
		if !ok {
			continue
		}
		byTarget[canonical] = append(byTarget[canonical], key)
	}

	targets := make([]string, 0, len(byTarget))
	for target := range byTarget {
		targets = append(targets, target)
	}
	sort.Strings(targets)

	for _, target := range targets {
		aliases := byTarget[target]
		if len(aliases) < 2 {
			continue
		}
		sort.Strings(aliases)
		report.HasCollisions = true
		report.Collisions[target] = aliases
		report.Errors = append(report.Errors, fmt.Sprintf(
			"fields %s all map to %q for %s; provide only one",
			strings.Join(quoteAll(aliases), ", "), target, resource))
	}

	return report
}

// Table returns a copy of the active alias table for a resource, for
// introspection and the CLI.
func (m *Mapper) Table(resource core.ResourceType) map[string]string {
	table, ok := m.tables[resource]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(table))
	for alias, canonical := range table {
		out[alias] = canonical
	}
	return out
}

func quoteAll(values []string) []string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return quoted
}
