package season

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

//go:generate mockgen -destination=mocks/watch.go -package=mocks github.com/vmunix/stash/internal/season WatchStatusSource

// WatchStatus is the watch state of one episode as reported by the catalog service.
type WatchStatus struct {
	Episode       int       `json:"episode"`
	Watched       bool      `json:"watched"`
	Progress      float64   `json:"progress"`
	LastWatchedAt time.Time `json:"last_watched_at"`
}

// WatchStatusSource reports per-episode watch state for a season.
type WatchStatusSource interface {
	WatchStatus(ctx context.Context, mediaID string, season int) ([]WatchStatus, error)
}

// WatchClient is an HTTP JSON WatchStatusSource.
type WatchClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// WatchOption configures a WatchClient.
type WatchOption func(*WatchClient)

// WithWatchHTTPClient sets a custom HTTP client.
func WithWatchHTTPClient(hc *http.Client) WatchOption {
	return func(c *WatchClient) {
		c.httpClient = hc
	}
}

// NewWatchClient creates a client for the watch-status service at baseURL.
func NewWatchClient(baseURL, token string, opts ...WatchOption) *WatchClient {
	c := &WatchClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type watchResponse struct {
	Episodes []WatchStatus `json:"episodes"`
}

// WatchStatus implements WatchStatusSource.
func (c *WatchClient) WatchStatus(ctx context.Context, mediaID string, season int) ([]WatchStatus, error) {
	u := fmt.Sprintf("%s/api/v1/watch/%s/seasons/%s", c.baseURL, url.PathEscape(mediaID), strconv.Itoa(season))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("watch status API error: %s", resp.Status)
	}

	var body watchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return body.Episodes, nil
}
