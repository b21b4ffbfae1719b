package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Args:  cobra.NoArgs,
	RunE:  runStatusCmd,
}

var powerCmd = &cobra.Command{
	Use:       "power <low|normal>",
	Short:     "Switch low power mode",
	Long:      "In low power mode downloads checkpoint less often.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"low", "normal"},
	RunE:      runPowerCmd,
}

var appStateCmd = &cobra.Command{
	Use:       "app-state <foreground|background>",
	Short:     "Report the app state to the daemon",
	Long:      "Moving to the foreground also delivers pending background session events.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"foreground", "background"},
	RunE:      runAppStateCmd,
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(powerCmd)
	rootCmd.AddCommand(appStateCmd)
}

func runStatusCmd(_ *cobra.Command, _ []string) error {
	status, err := NewClient(serverURL).Status()
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	if jsonOutput {
		printJSON(status)
		return nil
	}

	printStatusHuman(serverURL, status)
	return nil
}

func printStatusHuman(server string, s *StatusResponse) {
	fmt.Printf("Server:     %s (%s)\n", server, s.Status)
	if s.Version != "" {
		fmt.Printf("Version:    %s\n", s.Version)
	}
	fmt.Printf("Downloads:  %d active, %d paused\n", s.Active, s.Paused)
	fmt.Printf("Completed:  %d\n", s.Completed)
	fmt.Printf("Seasons:    %d\n", s.Seasons)
}

func runPowerCmd(_ *cobra.Command, args []string) error {
	var low bool
	switch strings.ToLower(args[0]) {
	case "low", "on":
		low = true
	case "normal", "off":
	default:
		return fmt.Errorf("invalid power mode %q, expected low or normal", args[0])
	}

	if err := NewClient(serverURL).SetLowPower(low); err != nil {
		return fmt.Errorf("power update failed: %w", err)
	}
	confirm("Low power mode: %t\n", low)
	return nil
}

func runAppStateCmd(_ *cobra.Command, args []string) error {
	var background bool
	switch strings.ToLower(args[0]) {
	case "background":
		background = true
	case "foreground":
	default:
		return fmt.Errorf("invalid app state %q, expected foreground or background", args[0])
	}

	if err := NewClient(serverURL).SetBackground(background); err != nil {
		return fmt.Errorf("app state update failed: %w", err)
	}
	confirm("App state: %s\n", strings.ToLower(args[0]))
	return nil
}
