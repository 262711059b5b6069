package root

import (
	"github.com/spf13/cobra"

	"github.com/ruidolp/newposter-sub002/apps/cli/internal/settings"
)

// rootCmd is the base command for the POS admin CLI. Subcommands (auth, bootstrap, etc.) are attached here.
var rootCmd = &cobra.Command{
	Use:           "newposter",
	Short:         "POS platform admin CLI",
	Long:          "Administrative utilities for the POS platform (schema bootstrap, tenants, users, signed dev tokens).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().String(settings.EnvFileFlag, ".env", "dotenv file read before the environment (missing file is ignored)")
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
