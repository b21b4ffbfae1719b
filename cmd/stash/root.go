package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	serverURL   string
	jsonOutput  bool
	quietOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "stash",
	Short: "CLI client for the stash offline download daemon",
	Long: `stash - CLI client for the stash offline download daemon

Start, pause and resume offline downloads, download whole seasons,
and inspect completed files and the event log.

Run 'stashd' to start the daemon.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8585", "Server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quietOutput, "quiet", "q", false, "Suppress confirmations")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("stash {{.Version}}\n")
}
