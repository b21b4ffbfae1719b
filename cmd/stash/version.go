package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print client and server versions",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("stash  %s\n", version)
		status, err := NewClient(serverURL).Status()
		if err != nil {
			fmt.Printf("stashd unreachable (%v)\n", err)
			return
		}
		fmt.Printf("stashd %s\n", status.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
