// skybot is the command-line client: chat with the flight assistant in the
// terminal, or look up airports.
//
// Usage:
//
//	skybot chat [--dataset=<path>] [--airports=<path>]
//	skybot resolve <place> [--limit=<n>]
//	skybot version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Harshitk-cp/skybot/internal/buildconfig"
	"github.com/Harshitk-cp/skybot/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "skybot",
	Short: "Slot-filling dialogue assistant for finding flights",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(*cobra.Command, []string) error {
		return config.Load()
	},
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), buildconfig.String())
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.Version = buildconfig.Version()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
