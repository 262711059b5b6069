package auth

import "github.com/spf13/cobra"

// Command groups authentication helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication utilities",
		Long:  "Authentication utilities (signed session and superadmin tokens for local and CI use).",
	}

	cmd.AddCommand(tokenCommand())
	return cmd
}
