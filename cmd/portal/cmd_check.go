package main

import (
	"fmt"

	"github.com/spf13/cobra"

	portalsrc "github.com/MrSnakeDoc/portal/internal/sources/portal"
)

// newCheckCmd validates configuration files without starting anything, for CI.
func newCheckCmd() *cobra.Command {
	var credentials string

	cmd := &cobra.Command{
		Use:   "check <directory.yaml>",
		Short: "Validate a directory file (and optionally a credentials file)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args[0], credentials)
		},
	}
	cmd.Flags().StringVar(&credentials, "credentials", "", "credentials file to validate as well")
	return cmd
}

func runCheck(cmd *cobra.Command, directory, credentials string) error {
	dir, err := portalsrc.LoadDirectory(directory)
	if err != nil {
		return fmt.Errorf("directory %s: %w", directory, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✅ %s: %d teams, %d links\n", directory, dir.Count(), dir.LinkCount())
	for _, team := range dir.Teams() {
		fmt.Fprintf(out, "   %-20s %3d links  %s\n", team.Key, len(team.Links), team.Name)
	}

	if credentials == "" {
		return nil
	}
	creds, err := portalsrc.LoadCredentials(credentials)
	if err != nil {
		return fmt.Errorf("credentials %s: %w", credentials, err)
	}
	if err := creds.Validate(); err != nil {
		return fmt.Errorf("credentials %s: %w", credentials, err)
	}
	fmt.Fprintf(out, "✅ %s: %d users, domain default set: %v\n", credentials, len(creds.Users), creds.DomainDefault != "")
	return nil
}
