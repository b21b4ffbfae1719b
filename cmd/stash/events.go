package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent download events",
	Long: `Show recent download events.

Examples:
  stash events                                 # Last 20 events
  stash events -n 100                          # Last 100 events
  stash events --entity download:https://...   # Every event of one download
  stash events --entity season:tt0903747-S1    # Every event of one season group`,
	Args: cobra.NoArgs,
	RunE: runEventsCmd,
}

var eventsFollowCmd = &cobra.Command{
	Use:   "follow",
	Short: "Stream live events",
	Long: `Stream live events until interrupted.

Examples:
  stash events follow                                  # Everything, including progress
  stash events follow --entity download:https://...    # One download
  stash events follow --since 10m                      # Replay the last 10 minutes first`,
	Args: cobra.NoArgs,
	RunE: runEventsFollowCmd,
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().IntP("limit", "n", 20, "Number of events")
	eventsCmd.Flags().Int("offset", 0, "Events to skip")
	eventsCmd.Flags().String("entity", "", "Filter by entity as type:id")

	eventsCmd.AddCommand(eventsFollowCmd)
	eventsFollowCmd.Flags().String("entity", "", "Filter by entity as type:id")
	eventsFollowCmd.Flags().Duration("since", 0, "Replay logged events from this long ago")
}

func parseEntity(s string) (string, string, error) {
	if s == "" {
		return "", "", nil
	}
	typ, id, ok := strings.Cut(s, ":")
	if !ok || typ == "" || id == "" {
		return "", "", fmt.Errorf("invalid entity %q, expected type:id", s)
	}
	return typ, id, nil
}

func runEventsCmd(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	entity, _ := cmd.Flags().GetString("entity")

	entityType, entityID, err := parseEntity(entity)
	if err != nil {
		return err
	}

	events, err := NewClient(serverURL).Events(limit, offset, entityType, entityID)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	if jsonOutput {
		printJSON(events)
		return nil
	}

	if len(events.Items) == 0 {
		fmt.Println("No events")
		return nil
	}

	fmt.Printf("Events (%d of %d):\n\n", len(events.Items), events.Total)
	fmt.Printf("  %-14s %-26s %-9s %s\n", "WHEN", "EVENT", "ENTITY", "ID")
	fmt.Println("  " + strings.Repeat("-", 90))
	for _, e := range events.Items {
		when := e.OccurredAt
		if t, err := time.Parse(time.RFC3339, e.OccurredAt); err == nil {
			when = formatTimeAgo(t)
		}
		fmt.Printf("  %-14s %-26s %-9s %s\n", when, e.EventType, e.EntityType, truncate(e.EntityID, 40))
	}
	return nil
}

func runEventsFollowCmd(cmd *cobra.Command, _ []string) error {
	entity, _ := cmd.Flags().GetString("entity")
	sinceAgo, _ := cmd.Flags().GetDuration("since")

	entityType, entityID, err := parseEntity(entity)
	if err != nil {
		return err
	}
	var since time.Time
	if sinceAgo > 0 {
		since = time.Now().Add(-sinceAgo)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return NewClient(serverURL).FollowEvents(ctx, entityType, entityID, since, func(e EventResponse) error {
		if jsonOutput {
			printJSON(e)
			return nil
		}
		fmt.Println(formatStreamEvent(e))
		return nil
	})
}

// formatStreamEvent renders one streamed event as a single line.
func formatStreamEvent(e EventResponse) string {
	when := e.OccurredAt
	if t, err := time.Parse(time.RFC3339, e.OccurredAt); err == nil {
		when = t.Local().Format("15:04:05")
	}
	line := fmt.Sprintf("%s  %-26s %s", when, e.EventType, truncate(e.EntityID, 60))

	var detail struct {
		Progress *float64 `json:"progress"`
		Reason   string   `json:"reason"`
	}
	if len(e.Data) > 0 && json.Unmarshal(e.Data, &detail) == nil {
		switch {
		case detail.Reason != "":
			line += "  " + detail.Reason
		case detail.Progress != nil:
			line += "  " + formatProgress(*detail.Progress)
		}
	}
	return line
}
