package main

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmunix/stash/internal/download"
	"github.com/vmunix/stash/internal/season"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    download.MediaKind
		wantErr bool
	}{
		{"movie", download.KindMovie, false},
		{"Episode", download.KindEpisode, false},
		{"channel", download.KindChannel, false},
		{"podcast", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseKind(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseEntity(t *testing.T) {
	typ, id, err := parseEntity("download:https://cdn.example.com/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, "download", typ)
	assert.Equal(t, "https://cdn.example.com/a.mp4", id)

	typ, id, err = parseEntity("")
	require.NoError(t, err)
	assert.Empty(t, typ)
	assert.Empty(t, id)

	_, _, err = parseEntity("season")
	require.Error(t, err)
	_, _, err = parseEntity(":x")
	require.Error(t, err)
}

func TestDisplayTitle(t *testing.T) {
	ep := download.Meta{Kind: download.KindEpisode, SeriesTitle: "Breaking Bad", Season: 1, Episode: 3, Title: "...And the Bag's in the River"}
	assert.Equal(t, "Breaking Bad S01E03", displayTitle(ep, testURL))
	assert.Equal(t, "Heat", displayTitle(download.Meta{Title: "Heat"}, testURL))
	assert.Equal(t, testURL, displayTitle(download.Meta{}, testURL))
}

func TestEpisodeStatus(t *testing.T) {
	assert.Equal(t, "downloaded", episodeStatus(season.Episode{IsDownloaded: true, Progress: 0.2}))
	assert.Equal(t, "42.0%", episodeStatus(season.Episode{Progress: 0.42}))
	assert.Equal(t, "-", episodeStatus(season.Episode{}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestReadSeasonRequest(t *testing.T) {
	const doc = `{"series":{"media_id":"tt0903747","title":"Breaking Bad"},
		"season":{"number":1,"episodes":[{"number":1,"title":"Pilot","url":"https://cdn.example.com/bb/s01e01.mp4"}]}}`

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "season.json")
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

		req, err := readSeasonRequest(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "Breaking Bad", req.Series.Title)
		require.Len(t, req.Season.Episodes, 1)
		assert.Equal(t, "Pilot", req.Season.Episodes[0].Title)
	})

	t.Run("stdin", func(t *testing.T) {
		req, err := readSeasonRequest("-", strings.NewReader(doc))
		require.NoError(t, err)
		assert.Equal(t, 1, req.Season.Number)
	})

	t.Run("missing media id", func(t *testing.T) {
		_, err := readSeasonRequest("-", strings.NewReader(`{"series":{"title":"x"}}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "media_id")
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := readSeasonRequest("-", strings.NewReader("{"))
		require.Error(t, err)
	})
}

func TestRunDownloadsRemove(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/downloads").
		ExpectDELETE().
		ExpectQuery("url", testURL).
		RespondStatus(http.StatusNoContent).
		Build()
	defer srv.Close()
	defer withServerURL(srv.URL)()
	quietOutput = true
	defer func() { quietOutput = false }()

	require.NoError(t, downloadsRemoveCmd.RunE(downloadsRemoveCmd, []string{testURL}))
}

func TestRunDownloadsStart_InvalidKind(t *testing.T) {
	require.NoError(t, downloadsStartCmd.Flags().Set("kind", "podcast"))
	defer func() { _ = downloadsStartCmd.Flags().Set("kind", string(download.KindMovie)) }()

	err := runDownloadsStart(downloadsStartCmd, []string{testURL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid kind")
}

func TestRunPower_InvalidMode(t *testing.T) {
	err := runPowerCmd(nil, []string{"turbo"})
	require.Error(t, err)
}

func TestRunAppState_Background(t *testing.T) {
	var body map[string]bool
	srv := newMockServer(t).
		ExpectPath("/api/v1/system/app-state").
		DecodeBody(&body).
		RespondStatus(http.StatusNoContent).
		Build()
	defer srv.Close()
	defer withServerURL(srv.URL)()
	quietOutput = true
	defer func() { quietOutput = false }()

	require.NoError(t, runAppStateCmd(nil, []string{"background"}))
	assert.True(t, body["background"])
}

func TestRunConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	quietOutput = true
	defer func() { quietOutput = false }()

	require.NoError(t, runConfigInit(configInitCmd, []string{path}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[downloads]")

	err = runConfigInit(configInitCmd, []string{path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestFormatStreamEvent(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 2, 0, time.UTC)
	progressed := EventResponse{
		EventType:  "download.progressed",
		EntityID:   testURL,
		OccurredAt: at.Format(time.RFC3339),
		Data:       []byte(`{"url":"` + testURL + `","progress":0.25}`),
	}
	line := formatStreamEvent(progressed)
	assert.Contains(t, line, at.Local().Format("15:04:05"))
	assert.Contains(t, line, "download.progressed")
	assert.Contains(t, line, testURL)
	assert.True(t, strings.HasSuffix(line, "25.0%"))

	failed := EventResponse{EventType: "download.failed", EntityID: testURL, OccurredAt: "bad", Data: []byte(`{"reason":"connection reset"}`)}
	line = formatStreamEvent(failed)
	assert.True(t, strings.HasPrefix(line, "bad"))
	assert.True(t, strings.HasSuffix(line, "connection reset"))

	bare := EventResponse{EventType: "season.removed", EntityID: "tt0903747-S1"}
	assert.True(t, strings.HasSuffix(formatStreamEvent(bare), "tt0903747-S1"))
}
