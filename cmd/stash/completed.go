package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var completedCmd = &cobra.Command{
	Use:   "completed",
	Short: "Show and delete completed files",
	Args:  cobra.NoArgs,
	RunE:  runCompletedCmd,
}

var completedRemoveCmd = &cobra.Command{
	Use:     "rm <url>",
	Aliases: []string{"delete"},
	Short:   "Delete a completed file and its record",
	Args:    cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if err := NewClient(serverURL).DeleteCompleted(args[0]); err != nil {
			return fmt.Errorf("delete failed: %w", err)
		}
		confirm("Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completedCmd)
	completedCmd.AddCommand(completedRemoveCmd)
}

func runCompletedCmd(_ *cobra.Command, _ []string) error {
	completed, err := NewClient(serverURL).Completed()
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	if jsonOutput {
		printJSON(completed)
		return nil
	}

	if len(completed.Items) == 0 {
		fmt.Println("No completed downloads")
		return nil
	}

	fmt.Printf("Completed (%d):\n\n", completed.Total)
	fmt.Printf("  %-36s %-30s %s\n", "TITLE", "FILE", "COMPLETED")
	fmt.Println("  " + strings.Repeat("-", 84))
	for _, f := range completed.Items {
		fmt.Printf("  %-36s %-30s %s\n",
			truncate(displayTitle(f.Meta, f.URL), 36), truncate(f.LocalFileName, 30), formatTimeAgo(f.CompletedAt))
	}
	return nil
}
