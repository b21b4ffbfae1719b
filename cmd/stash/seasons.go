package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/stash/internal/season"
)

var seasonsCmd = &cobra.Command{
	Use:   "seasons",
	Short: "Show and manage season downloads",
	Long: `Show and manage season downloads.

Examples:
  stash seasons                          # List season groups
  stash seasons -q "breaking bad"        # Fuzzy-filter by series title
  stash seasons download season.json     # Download every episode of a season
  stash seasons show tt0903747-S1        # Show a group and its episodes
  stash seasons pause-resume tt0903747-S1
  stash seasons rm tt0903747-S1`,
	Args: cobra.NoArgs,
	RunE: runSeasonsCmd,
}

var seasonsDownloadCmd = &cobra.Command{
	Use:   "download <file|->",
	Short: "Download a season described by a JSON file",
	Long: `Download a season described by a JSON file ("-" reads stdin).

The file holds the series and season:
  {"series": {"media_id": "tt0903747", "title": "Breaking Bad"},
   "season": {"number": 1, "episodes": [{"number": 1, "title": "Pilot", "url": "https://..."}]}}`,
	Args: cobra.ExactArgs(1),
	RunE: runSeasonsDownload,
}

var seasonsShowCmd = &cobra.Command{
	Use:   "show <group-id>",
	Short: "Show a season group and its episodes",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeasonsShow,
}

var seasonsToggleCmd = &cobra.Command{
	Use:   "toggle <group-id>",
	Short: "Expand or collapse a season group",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		g, err := NewClient(serverURL).ToggleSeason(args[0])
		if err != nil {
			return fmt.Errorf("toggle failed: %w", err)
		}
		if jsonOutput {
			printJSON(g)
			return nil
		}
		confirm("%s expanded: %t\n", g.ID, g.IsExpanded)
		return nil
	},
}

var seasonsPauseResumeCmd = &cobra.Command{
	Use:   "pause-resume <group-id>",
	Short: "Pause a season's running episodes, or resume them when all are paused",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if err := NewClient(serverURL).PauseResumeSeason(args[0]); err != nil {
			return fmt.Errorf("pause/resume failed: %w", err)
		}
		confirm("Toggled %s\n", args[0])
		return nil
	},
}

var seasonsSyncCmd = &cobra.Command{
	Use:   "sync <group-id>",
	Short: "Refresh watch status for a season group",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		g, err := NewClient(serverURL).SyncWatch(args[0])
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		if jsonOutput {
			printJSON(g)
			return nil
		}
		confirm("Synced %s\n", g.ID)
		return nil
	},
}

var seasonsRemoveCmd = &cobra.Command{
	Use:     "rm <group-id>",
	Aliases: []string{"remove"},
	Short:   "Remove a season group and cancel its downloads",
	Args:    cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if err := NewClient(serverURL).RemoveSeason(args[0]); err != nil {
			return fmt.Errorf("remove failed: %w", err)
		}
		confirm("Removed %s\n", args[0])
		return nil
	},
}

var episodesCmd = &cobra.Command{
	Use:   "episodes",
	Short: "Manage single episodes of a season group",
}

var episodesToggleCmd = &cobra.Command{
	Use:   "toggle <episode-id>",
	Short: "Start an episode's download, or cancel it when active",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ep, err := NewClient(serverURL).ToggleEpisode(args[0])
		if err != nil {
			return fmt.Errorf("toggle failed: %w", err)
		}
		if jsonOutput {
			printJSON(ep)
			return nil
		}
		confirm("Episode %d: %s\n", ep.Number, episodeStatus(*ep))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seasonsCmd)
	seasonsCmd.Flags().StringP("query", "q", "", "Fuzzy-filter groups by series title")

	seasonsCmd.AddCommand(seasonsDownloadCmd)
	seasonsCmd.AddCommand(seasonsShowCmd)
	seasonsCmd.AddCommand(seasonsToggleCmd)
	seasonsCmd.AddCommand(seasonsPauseResumeCmd)
	seasonsCmd.AddCommand(seasonsSyncCmd)
	seasonsCmd.AddCommand(seasonsRemoveCmd)

	rootCmd.AddCommand(episodesCmd)
	episodesCmd.AddCommand(episodesToggleCmd)
}

func runSeasonsCmd(cmd *cobra.Command, _ []string) error {
	query, _ := cmd.Flags().GetString("query")

	groups, err := NewClient(serverURL).Seasons(query)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	if jsonOutput {
		printJSON(groups)
		return nil
	}

	if len(groups.Items) == 0 {
		fmt.Println("No season downloads")
		return nil
	}

	fmt.Printf("Seasons (%d):\n\n", groups.Total)
	fmt.Printf("  %-22s %-36s %-10s %s\n", "ID", "SERIES", "EPISODES", "ADDED")
	fmt.Println("  " + strings.Repeat("-", 84))
	for _, g := range groups.Items {
		series := fmt.Sprintf("%s - %s", g.SeriesTitle, g.SeasonTitle)
		fmt.Printf("  %-22s %-36s %-10s %s\n",
			truncate(g.ID, 22), truncate(series, 36),
			fmt.Sprintf("%d/%d", g.DownloadedEpisodes, g.TotalEpisodes), formatTimeAgo(g.CreatedAt))
	}
	return nil
}

func readSeasonRequest(path string, stdin io.Reader) (DownloadSeasonRequest, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return DownloadSeasonRequest{}, fmt.Errorf("reading season: %w", err)
	}

	var req DownloadSeasonRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return DownloadSeasonRequest{}, fmt.Errorf("parsing season: %w", err)
	}
	if req.Series.MediaID == "" {
		return DownloadSeasonRequest{}, fmt.Errorf("series.media_id is required")
	}
	return req, nil
}

func runSeasonsDownload(cmd *cobra.Command, args []string) error {
	req, err := readSeasonRequest(args[0], cmd.InOrStdin())
	if err != nil {
		return err
	}

	g, err := NewClient(serverURL).DownloadSeason(req)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	if jsonOutput {
		printJSON(g)
		return nil
	}
	confirm("Downloading %s %s (%d episodes) as %s\n", g.SeriesTitle, g.SeasonTitle, g.TotalEpisodes, g.ID)
	return nil
}

func runSeasonsShow(_ *cobra.Command, args []string) error {
	g, err := NewClient(serverURL).Season(args[0])
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	if jsonOutput {
		printJSON(g)
		return nil
	}

	fmt.Printf("%s - %s\n\n", g.SeriesTitle, g.SeasonTitle)
	fmt.Printf("  %-12s %s\n", "ID:", g.ID)
	fmt.Printf("  %-12s %d/%d\n", "Downloaded:", g.DownloadedEpisodes, g.TotalEpisodes)
	fmt.Printf("  %-12s %s\n", "Added:", formatTimeAgo(g.CreatedAt))

	if len(g.Episodes) == 0 {
		return nil
	}
	fmt.Printf("\n  %-4s %-36s %-12s %s\n", "EP", "TITLE", "STATUS", "WATCHED")
	fmt.Println("  " + strings.Repeat("-", 64))
	for _, ep := range g.Episodes {
		watched := "-"
		switch {
		case ep.Watched:
			watched = "yes"
		case ep.WatchProgress > 0:
			watched = formatProgress(ep.WatchProgress)
		}
		fmt.Printf("  %-4d %-36s %-12s %s\n", ep.Number, truncate(ep.Title, 36), episodeStatus(ep), watched)
	}
	return nil
}

func episodeStatus(ep season.Episode) string {
	switch {
	case ep.IsDownloaded:
		return "downloaded"
	case ep.Progress > 0:
		return formatProgress(ep.Progress)
	default:
		return "-"
	}
}
