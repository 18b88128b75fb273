// Package registry provides the resource capability registry for recordflow.
// It maps resource types to capability metadata (search support, pagination,
// default text fields) used by the search dispatcher, stage validator, and
// CLI. Per-resource behavior differences are declared here, not inferred
// through cascading conditionals at call sites.
package registry

import (
	"sync"

	"github.com/petal-labs/recordflow/core"
)

// ResourceDef describes the capabilities of one resource type.
type ResourceDef struct {
	Type        core.ResourceType `json:"type"`
	DisplayName string            `json:"display_name"`

	// SupportsQuerySearch is true when the backend exposes a free-text
	// query endpoint for this resource. Resources without it only accept
	// explicit filter trees.
	SupportsQuerySearch bool `json:"supports_query_search"`

	// ServerPaginated is false for resources whose collection endpoint has
	// no limit/offset support; the dispatcher then fetches the entire
	// collection once and paginates client-side.
	ServerPaginated bool `json:"server_paginated"`

	// BasicSearchFields are the default text attributes targeted by a
	// basic search, OR-combined when there is more than one.
	BasicSearchFields []string `json:"basic_search_fields"`

	// ContentSearchFields are the default attributes for content search
	// when the caller names none.
	ContentSearchFields []string `json:"content_search_fields"`

	// StageField is the slug of the resource's stage/status select
	// attribute, empty when the resource has none.
	StageField string `json:"stage_field,omitempty"`
}

var (
	global     *Registry
	globalOnce sync.Once
)

// Global returns the singleton registry instance. On first call it
// initializes the registry and auto-registers all built-in resource types.
func Global() *Registry {
	globalOnce.Do(func() {
		global = newRegistry()
		registerBuiltins(global)
	})
	return global
}

// Registry holds all known resource definitions.
type Registry struct {
	mu    sync.RWMutex
	defs  map[core.ResourceType]ResourceDef
	order []core.ResourceType // preserves registration order
}

func newRegistry() *Registry {
	return &Registry{
		defs: make(map[core.ResourceType]ResourceDef),
	}
}

// Register adds a resource definition. If a definition with the same type
// already exists it is overwritten.
func (r *Registry) Register(def ResourceDef) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.defs[def.Type]; !exists {
		r.order = append(r.order, def.Type)
	}
	r.defs[def.Type] = def
}

// Get returns a resource definition by type.
func (r *Registry) Get(resource core.ResourceType) (ResourceDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[resource]
	return def, ok
}

// Has returns true if the resource type is registered.
func (r *Registry) Has(resource core.ResourceType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.defs[resource]
	return ok
}

// StageField returns the stage attribute slug for a resource, or "" when
// the resource has no stage-style select attribute.
func (r *Registry) StageField(resource core.ResourceType) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[resource]
	if !ok {
		return ""
	}
	return def.StageField
}

// All returns all registered resource definitions in registration order.
func (r *Registry) All() []ResourceDef {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]ResourceDef, 0, len(r.order))
	for _, rt := range r.order {
		result = append(result, r.defs[rt])
	}
	return result
}

// Len returns the number of registered resource definitions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}
