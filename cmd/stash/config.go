package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vmunix/stash/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
}

var configTestCmd = &cobra.Command{
	Use:   "test [path]",
	Short: "Validate configuration file",
	Long:  "Validates config.toml syntax, durations, URLs, and environment variable substitution without starting the daemon.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigTest,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configTestCmd)
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().BoolP("force", "f", false, "Overwrite an existing file")
}

func runConfigTest(_ *cobra.Command, args []string) error {
	path, err := configPath(args)
	if err != nil {
		return err
	}

	fmt.Printf("Validating %s...\n\n", path)

	cfg, err := config.Load(path)
	if err != nil {
		var configErr *config.Error
		if errors.As(err, &configErr) {
			printConfigErrors(configErr)
			return fmt.Errorf("configuration invalid")
		}
		return fmt.Errorf("failed to load config: %w", err)
	}

	printConfigSummary(cfg)
	fmt.Println("\nConfiguration valid!")
	return nil
}

func configPath(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return config.Discover()
}

func printConfigErrors(e *config.Error) {
	if len(e.Missing) > 0 {
		fmt.Println("Missing environment variables:")
		for _, m := range e.Missing {
			fmt.Printf("  - %s\n", m)
		}
		fmt.Println()
	}

	if len(e.Errors) > 0 {
		fmt.Println("Validation errors:")
		for _, err := range e.Errors {
			fmt.Printf("  - %s\n", err)
		}
		fmt.Println()
	}
}

func printConfigSummary(cfg *config.Config) {
	fmt.Println("Configuration Summary:")
	fmt.Printf("  Server:        %s (log: %s)\n", cfg.Addr(), cfg.Server.LogLevel)
	fmt.Printf("  Documents:     %s\n", cfg.Storage.DocumentsDir)
	fmt.Printf("  Event log:     %s (retention %s)\n", cfg.Storage.Database, cfg.Events.Retention)
	fmt.Printf("  Downloads:     max %d concurrent, pending kept %s\n", cfg.Downloads.MaxConcurrent, cfg.Downloads.PendingRetention)

	notify := "off"
	if cfg.Notifications.On() {
		notify = "log"
		if cfg.Notifications.Command != "" {
			notify = cfg.Notifications.Command
		}
	}
	fmt.Printf("  Notifications: %s\n", notify)

	if cfg.Monitor.ProbeURL != "" {
		fmt.Printf("  Network probe: %s every %s\n", cfg.Monitor.ProbeURL, cfg.Monitor.ProbeInterval)
	}
	if cfg.Watch.URL != "" {
		fmt.Printf("  Watch status:  %s\n", cfg.Watch.URL)
	}
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultPath()
	if len(args) > 0 {
		path = args[0]
	}

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := config.WriteDefault(path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	confirm("Wrote %s\n", path)
	return nil
}
