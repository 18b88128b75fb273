package registry

import "github.com/petal-labs/recordflow/core"

// registerBuiltins registers all built-in resource definitions.
// Called once by Global() during singleton initialization.
func registerBuiltins(r *Registry) {
	r.Register(ResourceDef{
		Type:                core.ResourceCompanies,
		DisplayName:         "Companies",
		SupportsQuerySearch: true,
		ServerPaginated:     true,
		BasicSearchFields:   []string{"name"},
		ContentSearchFields: []string{"name", "description", "notes"},
	})

	r.Register(ResourceDef{
		Type:                core.ResourcePeople,
		DisplayName:         "People",
		SupportsQuerySearch: true,
		ServerPaginated:     true,
		BasicSearchFields:   []string{"name", "email_addresses"},
		ContentSearchFields: []string{"name", "email_addresses", "job_title", "notes"},
	})

	r.Register(ResourceDef{
		Type:                core.ResourceDeals,
		DisplayName:         "Deals",
		SupportsQuerySearch: false,
		ServerPaginated:     true,
		BasicSearchFields:   []string{"name"},
		ContentSearchFields: []string{"name"},
		StageField:          "stage",
	})

	// Tasks have no server-side pagination and no query endpoint; the
	// dispatcher loads the full collection once and slices client-side.
	r.Register(ResourceDef{
		Type:                core.ResourceTasks,
		DisplayName:         "Tasks",
		SupportsQuerySearch: false,
		ServerPaginated:     false,
		BasicSearchFields:   []string{"content"},
		ContentSearchFields: []string{"content"},
	})

	r.Register(ResourceDef{
		Type:                core.ResourceLists,
		DisplayName:         "Lists",
		SupportsQuerySearch: false,
		ServerPaginated:     false,
		BasicSearchFields:   []string{"name"},
		ContentSearchFields: []string{"name", "description"},
	})

	r.Register(ResourceDef{
		Type:                core.ResourceRecords,
		DisplayName:         "Records",
		SupportsQuerySearch: true,
		ServerPaginated:     true,
		BasicSearchFields:   []string{"name"},
		ContentSearchFields: []string{"name"},
	})
}
