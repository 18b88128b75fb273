package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petal-labs/recordflow/core"
	"github.com/petal-labs/recordflow/verify"
)

// NewVerifyCmd creates the "verify" subcommand. Expected and actual
// values come from JSON files; no backend call is made.
func NewVerifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <resource> <expected.json> <actual.json>",
		Short: "Compare expected post-write values against a stored record",
		Args:  cobra.ExactArgs(3),
		RunE:  runVerify,
	}

	cmd.Flags().Bool("strict", false, "Treat any discrepancy as a failure")
	cmd.Flags().Bool("include-cosmetic", false, "Report cosmetic (representation-only) differences")
	cmd.Flags().String("format", "text", "Output format: text | json")

	return cmd
}

func runVerify(cmd *cobra.Command, args []string) error {
	strict, _ := cmd.Flags().GetBool("strict")
	includeCosmetic, _ := cmd.Flags().GetBool("include-cosmetic")
	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()

	resource, err := core.ParseResourceType(args[0])
	if err != nil {
		return exitError(exitValidation, "%v", err)
	}

	expected, err := readJSONFile[map[string]any](args[1])
	if err != nil {
		return err
	}
	actual, err := readJSONFile[core.Record](args[2])
	if err != nil {
		return err
	}

	verifier := verify.New(nil, verify.Config{})
	verification, err := verifier.VerifyPersistence(cmd.Context(), resource, "", expected, actual, verify.Options{
		Strict:          strict,
		IncludeCosmetic: includeCosmetic,
	})
	if err != nil && core.AdapterErrorCode(err) != core.ErrCodeVerificationFailed {
		return exitError(exitRuntime, "%v", err)
	}
	// A strict-mode classification error means failure even when the
	// discrepancies are cosmetic and Verified stayed true.
	failed := !verification.Verified || err != nil

	if format == "json" {
		printJSON(out, verification)
	} else {
		for _, warning := range verification.Warnings {
			fmt.Fprintf(out, "WARN: %s\n", warning)
		}
		for _, discrepancy := range verification.Discrepancies {
			fmt.Fprintf(out, "DISCREPANCY: %s\n", discrepancy)
		}
		if failed {
			fmt.Fprintln(out, "Verification failed")
		} else {
			fmt.Fprintln(out, "Verified!")
		}
	}

	if failed {
		return exitError(exitValidation, "verification failed")
	}
	return nil
}
