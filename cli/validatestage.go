package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/recordflow/core"
	"github.com/petal-labs/recordflow/stage"
)

// NewValidateStageCmd creates the "validate-stage" subcommand. Options
// come from a saved JSON file, so validation runs entirely offline.
func NewValidateStageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate-stage <resource> <value>",
		Short: "Validate a stage value against a saved option set",
		Args:  cobra.ExactArgs(2),
		RunE:  runValidateStage,
	}

	cmd.Flags().String("options", "", "JSON file with the option set (required)")
	cmd.Flags().String("mode", "warn", "Validation mode: warn | strict")
	cmd.Flags().String("format", "text", "Output format: text | json")

	return cmd
}

// fileOptionFetcher serves a fixed option set loaded from disk.
type fileOptionFetcher struct {
	options []core.Option
}

func (f *fileOptionFetcher) FetchOptions(ctx context.Context, resource core.ResourceType, fieldSlug string) ([]core.Option, error) {
	return f.options, nil
}

func runValidateStage(cmd *cobra.Command, args []string) error {
	optionsPath, _ := cmd.Flags().GetString("options")
	modeRaw, _ := cmd.Flags().GetString("mode")
	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()

	resource, err := core.ParseResourceType(args[0])
	if err != nil {
		return exitError(exitValidation, "%v", err)
	}
	if optionsPath == "" {
		return exitError(exitValidation, "--options is required")
	}

	mode := core.ValidationMode(modeRaw)
	if !mode.Valid() {
		return exitError(exitValidation, "unknown mode %q", modeRaw)
	}

	options, err := readJSONFile[[]core.Option](optionsPath)
	if err != nil {
		return err
	}

	validator := stage.New(&fileOptionFetcher{options: options}, nil, stage.Config{Mode: mode})
	result, err := validator.ValidateStage(cmd.Context(), resource, args[1], false)
	if err != nil {
		var adapterErr *core.AdapterError
		if errors.As(err, &adapterErr) {
			if format == "json" {
				printJSON(out, adapterErr)
			} else {
				fmt.Fprintf(out, "ERROR: %s\n", adapterErr.Message)
				if suggestions, ok := adapterErr.Details["suggestions"]; ok {
					fmt.Fprintf(out, "suggestions: %v\n", suggestions)
				}
			}
			return exitError(exitValidation, "stage validation failed")
		}
		return exitError(exitRuntime, "%v", err)
	}

	if format == "json" {
		printJSON(out, result)
		return nil
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(out, "WARN: %s\n", warning)
	}
	fmt.Fprintf(out, "validated stage: %s\n", result.ValidatedStage)
	return nil
}
