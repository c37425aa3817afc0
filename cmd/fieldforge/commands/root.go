package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	verbose    bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fieldforge",
		Short: "FieldForge - Atmospheric Variable Derivation Engine",
		Long: `FieldForge derives atmospheric variables from the fields a model provides,
by resolving recipe dependency chains against a cookbook and executing the
resulting plan.

Features:
  - Recipe registry with cookbook-driven resolution
  - Deterministic, topologically ordered execution plans
  - Nonlinear, tangent-linear and adjoint execution modes
  - Adjoint consistency self-test (dot-product identity)
  - Optional run history in SQLite`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(newResolveCommand())
	rootCmd.AddCommand(newGraphCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newCheckCommand())
	rootCmd.AddCommand(newHistoryCommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}
