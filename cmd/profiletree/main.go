// Package main implements the profiletree CLI: an HTTP server for editing
// sessions plus offline flatten and diagnose commands.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	pt "github.com/gofhir/profiletree"
)

const version = "0.1.0"

// errIssuesFound makes the process exit non-zero without printing usage.
var errIssuesFound = errors.New("profile diagnostics reported errors")

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errIssuesFound) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "profiletree",
		Short:         "FHIR profile element tree engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(flattenCmd())
	rootCmd.AddCommand(diagnoseCmd())
	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "profiletree v%s (FHIR %s, %s, %s)\n", version, pt.R4, pt.R4B, pt.R5)
		},
	}
}
