// Package cli implements the recordflow command-line interface. Every
// command here is offline: field mapping, search planning, stage
// validation against a saved option set, and persistence comparison all
// run against local files, never the backend.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/petal-labs/recordflow/core"
	"github.com/petal-labs/recordflow/fieldmap"
)

// NewMapFieldsCmd creates the "map-fields" subcommand.
func NewMapFieldsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map-fields <resource> <fields.json>",
		Short: "Translate field aliases to canonical slugs without writing anything",
		Args:  cobra.ExactArgs(2),
		RunE:  runMapFields,
	}

	cmd.Flags().String("format", "text", "Output format: text | json")
	cmd.Flags().String("store", "", "SQLite store of workspace-defined aliases to layer over the built-ins")

	return cmd
}

func runMapFields(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	storePath, _ := cmd.Flags().GetString("store")
	out := cmd.OutOrStdout()

	resource, err := core.ParseResourceType(args[0])
	if err != nil {
		return exitError(exitValidation, "%v", err)
	}

	fields, err := readJSONFile[map[string]any](args[1])
	if err != nil {
		return err
	}

	mapper, err := buildMapper(cmd.Context(), storePath)
	if err != nil {
		return err
	}

	result := mapper.MapRecordFields(resource, fields)

	if format == "json" {
		printJSON(out, result)
	} else {
		printMappingText(out, result)
	}

	if len(result.Errors) > 0 {
		return exitError(exitValidation, "field mapping failed")
	}
	return nil
}

func buildMapper(ctx context.Context, storePath string) (*fieldmap.Mapper, error) {
	if storePath == "" {
		return fieldmap.New(), nil
	}
	store, err := fieldmap.NewSQLiteStore(fieldmap.SQLiteStoreConfig{DSN: storePath})
	if err != nil {
		return nil, exitError(exitRuntime, "opening alias store: %v", err)
	}
	defer store.Close()

	custom, err := store.Load(ctx)
	if err != nil {
		return nil, exitError(exitRuntime, "loading alias store: %v", err)
	}
	return fieldmap.NewWithCustom(custom), nil
}

func printMappingText(w io.Writer, result fieldmap.MappingResult) {
	for _, e := range result.Errors {
		fmt.Fprintf(w, "ERROR: %s\n", e)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "WARN: %s\n", warning)
	}
	if len(result.Errors) > 0 {
		return
	}
	printJSON(w, result.Mapped)
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// readJSONFile loads and decodes one JSON file, mapping the error classes
// to CLI exit codes.
func readJSONFile[T any](path string) (T, error) {
	var parsed T
	data, err := os.ReadFile(path) // #nosec G304 -- path from CLI args
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return parsed, exitError(exitFileNotFound, "file not found: %s", path)
		}
		return parsed, exitError(exitRuntime, "reading file: %v", err)
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return parsed, exitError(exitInputParse, "parsing %s: %v", path, err)
	}
	return parsed, nil
}
