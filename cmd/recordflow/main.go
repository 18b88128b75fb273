package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/petal-labs/recordflow/cli"
)

// Set via ldflags at build time.
var version = "dev"

var shutdownTracing func(context.Context) error

func main() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "recordflow",
	Short: "Record adapter layer CLI",
	Long:  "recordflow — field mapping, search planning, stage validation, and persistence checks for CRM records.",
	// SilenceUsage prevents printing usage on every error
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		endpoint, _ := cmd.Flags().GetString("trace-endpoint")
		if endpoint == "" {
			return nil
		}
		shutdown, err := cli.SetupTracing(cmd.Context(), endpoint)
		if err != nil {
			return err
		}
		shutdownTracing = shutdown
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdownTracing == nil {
			return nil
		}
		return shutdownTracing(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("trace-endpoint", "", "OTLP HTTP endpoint for trace export (host:port)")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf("recordflow version %s\n", version))

	rootCmd.AddCommand(cli.NewMapFieldsCmd())
	rootCmd.AddCommand(cli.NewSearchPlanCmd())
	rootCmd.AddCommand(cli.NewValidateStageCmd())
	rootCmd.AddCommand(cli.NewVerifyCmd())
}
