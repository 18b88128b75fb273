package fieldmap

import "github.com/petal-labs/recordflow/core"

// builtinTables maps user-facing alias names to canonical attribute slugs
// per resource type. Canonical slugs map to themselves so that collision
// detection can see a canonical key and an alias targeting the same
// attribute in one payload. Keys not present in a table pass through
// mapping untouched (custom or workspace-specific fields).
var builtinTables = map[core.ResourceType]map[string]string{
	core.ResourceCompanies: {
		// Canonical slugs
		"name":             "name",
		"domains":          "domains",
		"description":      "description",
		"categories":       "categories",
		"employee_range":   "employee_range",
		"foundation_date":  "foundation_date",
		"primary_location": "primary_location",

		// Name
		"company_name": "name",
		"company":      "name",
		"organization": "name",
		"org_name":     "name",

		// Domains
		"website": "domains",
		"url":     "domains",
		"domain":  "domains",

		// Categories
		"industry": "categories",
		"sector":   "categories",
		"category": "categories",

		// Employee range
		"employees":      "employee_range",
		"employee_count": "employee_range",
		"company_size":   "employee_range",

		// Location
		"location": "primary_location",
		"address":  "primary_location",

		// Foundation date
		"founded":      "foundation_date",
		"founded_year": "foundation_date",

		// Description
		"about":   "description",
		"summary": "description",
	},

	core.ResourcePeople: {
		"name":            "name",
		"email_addresses": "email_addresses",
		"phone_numbers":   "phone_numbers",
		"job_title":       "job_title",
		"company":         "company",
		"description":     "description",

		"full_name":   "name",
		"person_name": "name",

		"email":         "email_addresses",
		"email_address": "email_addresses",
		"emails":        "email_addresses",

		"phone":        "phone_numbers",
		"phone_number": "phone_numbers",
		"mobile":       "phone_numbers",

		"title":    "job_title",
		"position": "job_title",
		"role":     "job_title",

		"organization": "company",
		"employer":     "company",
	},

	core.ResourceDeals: {
		"name":               "name",
		"stage":              "stage",
		"value":              "value",
		"owner":              "owner",
		"associated_company": "associated_company",
		"associated_people":  "associated_people",

		"deal_name": "name",
		"title":     "name",

		"deal_stage":     "stage",
		"status":         "stage",
		"pipeline_stage": "stage",

		"deal_value": "value",
		"amount":     "value",
		"price":      "value",
		"revenue":    "value",

		"deal_owner": "owner",

		"company": "associated_company",
		"account": "associated_company",

		"contact":  "associated_people",
		"contacts": "associated_people",
		"people":   "associated_people",
	},

	core.ResourceTasks: {
		"content":        "content",
		"deadline_at":    "deadline_at",
		"is_completed":   "is_completed",
		"assignees":      "assignees",
		"linked_records": "linked_records",

		"title":       "content",
		"task":        "content",
		"description": "content",
		"body":        "content",

		"due":      "deadline_at",
		"due_date": "deadline_at",
		"deadline": "deadline_at",

		"assignee":    "assignees",
		"owner":       "assignees",
		"assigned_to": "assignees",

		"completed": "is_completed",
		"done":      "is_completed",
		"status":    "is_completed",

		"record":        "linked_records",
		"records":       "linked_records",
		"linked_record": "linked_records",
	},

	core.ResourceLists: {
		"name":             "name",
		"description":      "description",
		"parent_object":    "parent_object",
		"workspace_access": "workspace_access",

		"title":     "name",
		"list_name": "name",

		"object": "parent_object",
		"parent": "parent_object",

		"access": "workspace_access",
	},

	// Generic records carry workspace-defined attributes only; every key
	// passes through unchanged.
	core.ResourceRecords: {},
}

// BuiltinTable returns a copy of the built-in alias table for a resource.
func BuiltinTable(resource core.ResourceType) map[string]string {
	table, ok := builtinTables[resource]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(table))
	for alias, canonical := range table {
		out[alias] = canonical
	}
	return out
}
