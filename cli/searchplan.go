package cli

import (
	"github.com/spf13/cobra"

	"github.com/petal-labs/recordflow/core"
	"github.com/petal-labs/recordflow/search"
)

// NewSearchPlanCmd creates the "search-plan" subcommand. It validates the
// parameters and prints the canonical backend query a search would
// execute, without calling the backend.
func NewSearchPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search-plan <resource>",
		Short: "Show the canonical query a search would execute",
		Args:  cobra.ExactArgs(1),
		RunE:  runSearchPlan,
	}

	cmd.Flags().String("type", "basic", "Search type: basic | content | relationship | timeframe | advanced")
	cmd.Flags().String("query", "", "Search text")
	cmd.Flags().String("filters", "", "JSON file with explicit filters")
	cmd.Flags().StringSlice("content-fields", nil, "Fields for content search")
	cmd.Flags().String("related-type", "", "Relationship target resource type")
	cmd.Flags().String("related-id", "", "Relationship target record ID")
	cmd.Flags().String("date-attribute", "", "Timeframe attribute slug")
	cmd.Flags().String("date-operator", "", "Timeframe operator")
	cmd.Flags().String("start-date", "", "Timeframe start (ISO date)")
	cmd.Flags().String("end-date", "", "Timeframe end (ISO date)")
	cmd.Flags().Int("limit", 0, "Result limit")
	cmd.Flags().Int("offset", 0, "Result offset")

	return cmd
}

func runSearchPlan(cmd *cobra.Command, args []string) error {
	resource, err := core.ParseResourceType(args[0])
	if err != nil {
		return exitError(exitValidation, "%v", err)
	}

	p, err := paramsFromFlags(cmd, resource)
	if err != nil {
		return err
	}

	q, err := search.PlanQuery(nil, p)
	if err != nil {
		return exitError(exitValidation, "%v", err)
	}

	printJSON(cmd.OutOrStdout(), q)
	return nil
}

func paramsFromFlags(cmd *cobra.Command, resource core.ResourceType) (search.Params, error) {
	searchType, _ := cmd.Flags().GetString("type")
	query, _ := cmd.Flags().GetString("query")
	filtersPath, _ := cmd.Flags().GetString("filters")
	contentFields, _ := cmd.Flags().GetStringSlice("content-fields")
	relatedType, _ := cmd.Flags().GetString("related-type")
	relatedID, _ := cmd.Flags().GetString("related-id")
	dateAttribute, _ := cmd.Flags().GetString("date-attribute")
	dateOperator, _ := cmd.Flags().GetString("date-operator")
	startDate, _ := cmd.Flags().GetString("start-date")
	endDate, _ := cmd.Flags().GetString("end-date")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	p := search.Params{
		Resource:           resource,
		Type:               search.Type(searchType),
		Query:              query,
		ContentFields:      contentFields,
		TimeframeAttribute: dateAttribute,
		DateOperator:       search.DateOperator(dateOperator),
		StartDate:          startDate,
		EndDate:            endDate,
		Limit:              limit,
		Offset:             offset,
	}

	if relatedType != "" {
		target, err := core.ParseResourceType(relatedType)
		if err != nil {
			return search.Params{}, exitError(exitValidation, "%v", err)
		}
		p.RelationshipTargetType = target
	}
	p.RelationshipTargetID = relatedID

	if filtersPath != "" {
		filters, err := readJSONFile[map[string]any](filtersPath)
		if err != nil {
			return search.Params{}, err
		}
		p.Filters = filters
	}

	return p, nil
}
