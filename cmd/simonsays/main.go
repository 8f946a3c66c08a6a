// Simon Says - coaching backend.
// Entry point: cobra root command with serve, migrate, ask, mcp and version.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err) //nolint:errcheck
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd(out io.Writer) *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "simonsays",
		Short: "Productivity coach backend",
		Long: `Simon Says serves the coaching API: persona-driven completions,
conversation history, daily free-tier quotas and the coach marketplace.

Configuration comes from an optional YAML file overlaid by environment
variables (GEMINI_API_KEY, JWT_SECRET, DB_PATH, ...).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCmd(flags),
		newMigrateCmd(flags),
		newAskCmd(flags),
		newMCPCmd(flags),
		newVersionCmd(),
	)
	return cmd
}
