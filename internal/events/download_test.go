// internal/events/download_test.go
package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDownloadFailed_JSON(t *testing.T) {
	e := &DownloadFailed{
		BaseEvent: NewBaseEvent(EventDownloadFailed, EntityDownload, "https://cdn.example.com/a.mp4"),
		URL:       "https://cdn.example.com/a.mp4",
		Title:     "Arrival",
		Reason:    "read body: unexpected EOF",
		Retryable: true,
	}

	data, err := json.Marshal(e)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"entity_id":"https://cdn.example.com/a.mp4"`)

	var decoded DownloadFailed
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, e.URL, decoded.URL)
	assert.Equal(t, e.Reason, decoded.Reason)
	assert.True(t, decoded.Retryable)
	assert.Equal(t, e.EntityID(), decoded.EntityID())
}

func TestDownloadProgressed_JSON(t *testing.T) {
	e := &DownloadProgressed{
		BaseEvent: NewBaseEvent(EventDownloadProgressed, EntityDownload, "https://cdn.example.com/a.mp4"),
		URL:       "https://cdn.example.com/a.mp4",
		Progress:  0.455,
		Written:   455,
		Expected:  1000,
	}

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var decoded DownloadProgressed
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.InDelta(t, 0.455, decoded.Progress, 0.0001)
	assert.Equal(t, int64(1000), decoded.Expected)
}
