// Command prosciutto drives the navigation host from a TOML script, either
// headlessly with a logging host or in an SDL window.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BrandonKowalski/prosciutto/pkg/prosciutto"
)

// Build information set via ldflags
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "prosciutto",
		Short:         "View-model-first navigation host",
		Long:          `Runs navigation scripts against the prosciutto router and validates app configs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to the app config (TOML)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "prosciutto %s\n", version)
			fmt.Fprintf(out, "commit: %s\n", commit)
			fmt.Fprintf(out, "built: %s\n", buildDate)
		},
	})

	return rootCmd
}

func main() {
	// Keep stdout for the script transcript.
	prosciutto.SetLogOutput(os.Stderr)

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
