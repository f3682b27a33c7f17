// Command portal serves the team link portal and ships a few operator
// helpers (directory check, password hashing).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/portal/internal/app"
	"github.com/MrSnakeDoc/portal/internal/version"
)

// newRootCmd builds the command tree. Flags live in each command's closure,
// so every tree starts from its defaults.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "portal",
		Short:         "Team link portal",
		Long:          "Serves the team link directory with per-user favorites and history.\nRunning without a subcommand starts the server.",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Start the HTTP server (configured from PORTAL_* env vars)",
			Args:  cobra.NoArgs,
			RunE:  runServe,
		},
		newCheckCmd(),
		newHashPasswordCmd(),
	)
	return root
}

func runServe(_ *cobra.Command, _ []string) error {
	if err := app.New().Run(); err != nil {
		return fmt.Errorf("portal failed: %w", err)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}
