package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vmunix/stash/internal/download"
)

var downloadsCmd = &cobra.Command{
	Use:   "downloads",
	Short: "Show and manage downloads",
	Long: `Show and manage downloads.

Examples:
  stash downloads                               # Show active and pending downloads
  stash downloads start https://cdn/x.mp4 -t X  # Start a download
  stash downloads pause https://cdn/x.mp4       # Pause a download
  stash downloads rm https://cdn/x.mp4          # Cancel and forget a download
  stash downloads pause-all                     # Pause every running download`,
	Args: cobra.NoArgs,
	RunE: runDownloadsCmd,
}

var downloadsStartCmd = &cobra.Command{
	Use:   "start <url>",
	Short: "Start a download",
	Args:  cobra.ExactArgs(1),
	RunE:  runDownloadsStart,
}

var downloadsPauseCmd = &cobra.Command{
	Use:   "pause <url>",
	Short: "Pause a download",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if err := NewClient(serverURL).PauseDownload(args[0]); err != nil {
			return fmt.Errorf("pause failed: %w", err)
		}
		confirm("Paused %s\n", args[0])
		return nil
	},
}

var downloadsResumeCmd = &cobra.Command{
	Use:   "resume <url>",
	Short: "Resume a paused download",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if err := NewClient(serverURL).ResumeDownload(args[0]); err != nil {
			return fmt.Errorf("resume failed: %w", err)
		}
		confirm("Resumed %s\n", args[0])
		return nil
	},
}

var downloadsRemoveCmd = &cobra.Command{
	Use:     "rm <url>",
	Aliases: []string{"remove", "cancel"},
	Short:   "Cancel a download and discard its progress",
	Args:    cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if err := NewClient(serverURL).RemoveDownload(args[0]); err != nil {
			return fmt.Errorf("remove failed: %w", err)
		}
		confirm("Removed %s\n", args[0])
		return nil
	},
}

var downloadsPauseAllCmd = &cobra.Command{
	Use:   "pause-all",
	Short: "Pause every running download",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := NewClient(serverURL).PauseAll(); err != nil {
			return fmt.Errorf("pause failed: %w", err)
		}
		confirm("All downloads paused\n")
		return nil
	},
}

var downloadsResumeAllCmd = &cobra.Command{
	Use:   "resume-all",
	Short: "Resume every paused download",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		if err := NewClient(serverURL).ResumeAll(); err != nil {
			return fmt.Errorf("resume failed: %w", err)
		}
		confirm("All downloads resumed\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadsCmd)

	downloadsStartCmd.Flags().StringP("title", "t", "", "Display title")
	downloadsStartCmd.Flags().String("media-id", "", "Catalog media id")
	downloadsStartCmd.Flags().StringP("kind", "k", string(download.KindMovie), "Media kind (movie, episode, channel)")
	downloadsStartCmd.Flags().String("poster", "", "Poster image URL")

	downloadsCmd.AddCommand(downloadsStartCmd)
	downloadsCmd.AddCommand(downloadsPauseCmd)
	downloadsCmd.AddCommand(downloadsResumeCmd)
	downloadsCmd.AddCommand(downloadsRemoveCmd)
	downloadsCmd.AddCommand(downloadsPauseAllCmd)
	downloadsCmd.AddCommand(downloadsResumeAllCmd)
}

func confirm(format string, args ...any) {
	if !quietOutput {
		fmt.Printf(format, args...)
	}
}

func parseKind(s string) (download.MediaKind, error) {
	switch k := download.MediaKind(strings.ToLower(s)); k {
	case download.KindMovie, download.KindEpisode, download.KindChannel:
		return k, nil
	default:
		return "", fmt.Errorf("invalid kind %q, valid kinds: movie, episode, channel", s)
	}
}

func runDownloadsStart(cmd *cobra.Command, args []string) error {
	title, _ := cmd.Flags().GetString("title")
	mediaID, _ := cmd.Flags().GetString("media-id")
	kindFlag, _ := cmd.Flags().GetString("kind")
	poster, _ := cmd.Flags().GetString("poster")

	kind, err := parseKind(kindFlag)
	if err != nil {
		return err
	}

	meta := download.Meta{MediaID: mediaID, Kind: kind, Title: title, PosterURL: poster}
	snap, err := NewClient(serverURL).StartDownload(args[0], meta)
	if err != nil {
		return fmt.Errorf("start failed: %w", err)
	}

	if jsonOutput {
		printJSON(snap)
		return nil
	}
	confirm("Started %s (%s)\n", snap.URL, snap.State)
	return nil
}

func runDownloadsCmd(_ *cobra.Command, _ []string) error {
	downloads, err := NewClient(serverURL).Downloads()
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	if jsonOutput {
		printJSON(downloads)
		return nil
	}

	printDownloads(downloads)
	return nil
}

func printDownloads(d *DownloadsResponse) {
	if len(d.Active) == 0 && len(d.Pending) == 0 {
		fmt.Println("No downloads")
		return
	}

	if len(d.Active) > 0 {
		fmt.Printf("Active Downloads (%d):\n\n", len(d.Active))
		fmt.Printf("  %-12s %-40s %-8s %s\n", "STATE", "TITLE", "PROGRESS", "STARTED")
		fmt.Println("  " + strings.Repeat("-", 76))
		for i := range d.Active {
			s := &d.Active[i]
			fmt.Printf("  %-12s %-40s %-8s %s\n",
				s.State, truncate(displayTitle(s.Meta, s.URL), 40), formatProgress(s.Progress), formatTimeAgo(s.CreatedAt))
		}
	}

	// Pending records without a live download are left over from an earlier run.
	active := make(map[string]bool, len(d.Active))
	for _, s := range d.Active {
		active[s.URL] = true
	}
	var stale []download.PendingDownloadInfo
	for _, p := range d.Pending {
		if !active[p.URL] {
			stale = append(stale, p)
		}
	}
	if len(stale) == 0 {
		return
	}

	if len(d.Active) > 0 {
		fmt.Println()
	}
	fmt.Printf("Resumable (%d):\n\n", len(stale))
	fmt.Printf("  %-12s %-40s %-8s %s\n", "STATE", "TITLE", "PROGRESS", "UPDATED")
	fmt.Println("  " + strings.Repeat("-", 76))
	for _, p := range stale {
		fmt.Printf("  %-12s %-40s %-8s %s\n",
			p.State, truncate(displayTitle(p.Meta, p.URL), 40), formatProgress(p.Progress), formatTimeAgo(p.UpdatedAt))
	}
}

func displayTitle(m download.Meta, url string) string {
	switch {
	case m.Kind == download.KindEpisode && m.SeriesTitle != "":
		return fmt.Sprintf("%s S%02dE%02d", m.SeriesTitle, m.Season, m.Episode)
	case m.Title != "":
		return m.Title
	default:
		return url
	}
}
