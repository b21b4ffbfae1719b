package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vmunix/stash/internal/download"
	"github.com/vmunix/stash/internal/season"
)

// Client wraps HTTP calls to the stash daemon.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new stash API client.
func NewClient(serverURL string) *Client {
	return &Client{
		baseURL: serverURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiError mirrors the server's error body.
type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func responseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var e apiError
	if json.Unmarshal(body, &e) == nil && e.Error != "" {
		return fmt.Errorf("server error %d (%s): %s", resp.StatusCode, e.Code, e.Error)
	}
	return fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
}

func (c *Client) get(path string, result any) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func (c *Client) post(path string, body any, result any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal error: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", reader)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	case http.StatusNoContent:
		return nil
	default:
		return responseError(resp)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func (c *Client) delete(path string) error {
	req, err := http.NewRequest(http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return responseError(resp)
	}

	return nil
}

// API response types (mirror server types)

type StatusResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Active    int    `json:"active"`
	Paused    int    `json:"paused"`
	Completed int    `json:"completed"`
	Seasons   int    `json:"seasons"`
}

type DownloadsResponse struct {
	Active  []download.Snapshot            `json:"active"`
	Pending []download.PendingDownloadInfo `json:"pending"`
}

type CompletedResponse struct {
	Items []download.DownloadedFileInfo `json:"items"`
	Total int                           `json:"total"`
}

type SeasonsResponse struct {
	Items []season.Group `json:"items"`
	Total int            `json:"total"`
}

type SeasonResponse struct {
	season.Group
	Episodes []season.Episode `json:"episodes"`
}

type DownloadSeasonRequest struct {
	Series season.Series `json:"series"`
	Season season.Season `json:"season"`
}

type EventResponse struct {
	ID         int64           `json:"id"`
	EventType  string          `json:"event_type"`
	EntityType string          `json:"entity_type"`
	EntityID   string          `json:"entity_id"`
	OccurredAt string          `json:"occurred_at"`
	Data       json.RawMessage `json:"data,omitempty"`
}

type EventsResponse struct {
	Items  []EventResponse `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// Status returns daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get("/api/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Downloads lists active downloads and pending records.
func (c *Client) Downloads() (*DownloadsResponse, error) {
	var resp DownloadsResponse
	if err := c.get("/api/v1/downloads", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// StartDownload starts (or returns) the download for rawURL.
func (c *Client) StartDownload(rawURL string, meta download.Meta) (*download.Snapshot, error) {
	var resp download.Snapshot
	body := map[string]any{"url": rawURL, "meta": meta}
	if err := c.post("/api/v1/downloads", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PauseDownload pauses the download for rawURL.
func (c *Client) PauseDownload(rawURL string) error {
	return c.post("/api/v1/downloads/pause", map[string]string{"url": rawURL}, nil)
}

// ResumeDownload resumes the download for rawURL.
func (c *Client) ResumeDownload(rawURL string) error {
	return c.post("/api/v1/downloads/resume", map[string]string{"url": rawURL}, nil)
}

// PauseAll pauses every running download.
func (c *Client) PauseAll() error {
	return c.post("/api/v1/downloads/pause-all", nil, nil)
}

// ResumeAll resumes every paused download.
func (c *Client) ResumeAll() error {
	return c.post("/api/v1/downloads/resume-all", nil, nil)
}

// RemoveDownload cancels and forgets the download for rawURL.
func (c *Client) RemoveDownload(rawURL string) error {
	return c.delete("/api/v1/downloads?url=" + url.QueryEscape(rawURL))
}

// Completed lists completed files.
func (c *Client) Completed() (*CompletedResponse, error) {
	var resp CompletedResponse
	if err := c.get("/api/v1/completed", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteCompleted deletes a completed file and its record.
func (c *Client) DeleteCompleted(rawURL string) error {
	return c.delete("/api/v1/completed?url=" + url.QueryEscape(rawURL))
}

// Seasons lists season groups, optionally filtered by a fuzzy title query.
func (c *Client) Seasons(query string) (*SeasonsResponse, error) {
	path := "/api/v1/seasons"
	if query != "" {
		path += "?q=" + url.QueryEscape(query)
	}
	var resp SeasonsResponse
	if err := c.get(path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Season returns a group with its episodes.
func (c *Client) Season(id string) (*SeasonResponse, error) {
	var resp SeasonResponse
	if err := c.get("/api/v1/seasons/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DownloadSeason starts downloading every episode of a season.
func (c *Client) DownloadSeason(req DownloadSeasonRequest) (*season.Group, error) {
	var resp season.Group
	if err := c.post("/api/v1/seasons", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ToggleSeason flips a group's expanded flag.
func (c *Client) ToggleSeason(id string) (*season.Group, error) {
	var resp season.Group
	if err := c.post("/api/v1/seasons/"+url.PathEscape(id)+"/toggle", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PauseResumeSeason pauses or resumes a group's downloads.
func (c *Client) PauseResumeSeason(id string) error {
	return c.post("/api/v1/seasons/"+url.PathEscape(id)+"/pause-resume", nil, nil)
}

// SyncWatch refreshes watch state for a group.
func (c *Client) SyncWatch(id string) (*season.Group, error) {
	var resp season.Group
	if err := c.post("/api/v1/seasons/"+url.PathEscape(id)+"/sync-watch", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RemoveSeason removes a group and its episode downloads.
func (c *Client) RemoveSeason(id string) error {
	return c.delete("/api/v1/seasons/" + url.PathEscape(id))
}

// ToggleEpisode starts or cancels one episode's download.
func (c *Client) ToggleEpisode(id string) (*season.Episode, error) {
	var resp season.Episode
	if err := c.post("/api/v1/episodes/"+url.PathEscape(id)+"/toggle", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SetLowPower switches low power mode.
func (c *Client) SetLowPower(on bool) error {
	return c.post("/api/v1/system/power", map[string]bool{"low_power": on}, nil)
}

// SetBackground switches the app state.
func (c *Client) SetBackground(background bool) error {
	return c.post("/api/v1/system/app-state", map[string]bool{"background": background}, nil)
}

// Events lists recent events, or every event of one entity.
func (c *Client) Events(limit, offset int, entityType, entityID string) (*EventsResponse, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	if entityType != "" && entityID != "" {
		q.Set("entity_type", entityType)
		q.Set("entity_id", entityID)
	}
	var resp EventsResponse
	if err := c.get("/api/v1/events?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// FollowEvents streams live events to fn until ctx is done, the server closes
// the stream, or fn returns an error. A non-zero since replays logged events
// from that time first.
func (c *Client) FollowEvents(ctx context.Context, entityType, entityID string, since time.Time, fn func(EventResponse) error) error {
	q := url.Values{}
	if entityType != "" && entityID != "" {
		q.Set("entity_type", entityType)
		q.Set("entity_id", entityID)
	}
	if !since.IsZero() {
		q.Set("since", since.Format(time.RFC3339))
	}
	path := "/api/v1/events/stream"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("request creation failed: %w", err)
	}
	// streams outlive the client timeout
	stream := &http.Client{Transport: c.httpClient.Transport}
	resp, err := stream.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}

	dec := json.NewDecoder(resp.Body)
	for {
		var e EventResponse
		if err := dec.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read event stream: %w", err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
}
