package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vmunix/stash/internal/download"
	"github.com/vmunix/stash/internal/events"
)

// notifyTimeout bounds a single Notify or Clear call.
const notifyTimeout = 10 * time.Second

// NotificationHandler turns download events into local notifications:
// completion, failure, and progress milestones.
type NotificationHandler struct {
	*BaseHandler
	notifier download.Notifier

	mu       sync.Mutex
	progress map[string]float64 // url -> last seen progress

	wg sync.WaitGroup
}

// NewNotificationHandler creates a notification handler.
func NewNotificationHandler(bus *events.Bus, notifier download.Notifier, logger *slog.Logger) *NotificationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{
		BaseHandler: NewBaseHandler(bus, logger.With("component", "notifications")),
		notifier:    notifier,
		progress:    make(map[string]float64),
	}
}

// Name returns the handler name.
func (h *NotificationHandler) Name() string {
	return "notifications"
}

// Start begins processing events.
func (h *NotificationHandler) Start(ctx context.Context) error {
	completed := h.Bus().Subscribe(events.EventDownloadCompleted, 100)
	failed := h.Bus().Subscribe(events.EventDownloadFailed, 100)
	progressed := h.Bus().Subscribe(events.EventDownloadProgressed, 256)
	removed := h.Bus().Subscribe(events.EventDownloadRemoved, 100)
	defer h.wg.Wait()

	for {
		select {
		case e := <-completed:
			if e == nil {
				return nil // Channel closed
			}
			h.handleCompleted(e.(*events.DownloadCompleted))
		case e := <-failed:
			if e == nil {
				return nil
			}
			h.handleFailed(e.(*events.DownloadFailed))
		case e := <-progressed:
			if e == nil {
				return nil
			}
			h.handleProgressed(e.(*events.DownloadProgressed))
		case e := <-removed:
			if e == nil {
				return nil
			}
			h.handleRemoved(e.(*events.DownloadRemoved))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (h *NotificationHandler) handleCompleted(e *events.DownloadCompleted) {
	h.forget(e.URL)
	h.notify(download.Notification{
		URL:   e.URL,
		Kind:  download.NotifyCompleted,
		Title: "Download complete",
		Body:  fmt.Sprintf("%s is ready to watch offline.", displayTitle(e.Title, e.URL)),
	})
}

func (h *NotificationHandler) handleFailed(e *events.DownloadFailed) {
	body := fmt.Sprintf("%s could not be downloaded: %s", displayTitle(e.Title, e.URL), e.Reason)
	if e.Retryable {
		body += " Resume it to try again."
	}
	h.notify(download.Notification{
		URL:   e.URL,
		Kind:  download.NotifyFailed,
		Title: "Download failed",
		Body:  body,
	})
}

func (h *NotificationHandler) handleProgressed(e *events.DownloadProgressed) {
	h.mu.Lock()
	prev := h.progress[e.URL]
	if e.Progress > prev {
		h.progress[e.URL] = e.Progress
	}
	h.mu.Unlock()

	milestone, ok := download.Milestone(prev, e.Progress)
	if !ok {
		return
	}
	h.notify(download.Notification{
		URL:   e.URL,
		Kind:  download.NotifyMilestone,
		Title: "Downloading",
		Body:  fmt.Sprintf("%d%% downloaded", milestone),
	})
}

func (h *NotificationHandler) handleRemoved(e *events.DownloadRemoved) {
	h.forget(e.URL)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := h.notifier.Clear(ctx, e.URL); err != nil {
			h.Logger().Warn("clearing notifications failed", "url", e.URL, "error", err)
		}
	}()
}

func (h *NotificationHandler) forget(url string) {
	h.mu.Lock()
	delete(h.progress, url)
	h.mu.Unlock()
}

// notify delivers n without blocking event processing. Errors are only logged.
func (h *NotificationHandler) notify(n download.Notification) {
	n.ID = uuid.NewString()
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := h.notifier.Notify(ctx, n); err != nil {
			h.Logger().Warn("notification failed", "url", n.URL, "kind", n.Kind, "error", err)
			return
		}
		h.Logger().Debug("notification sent", "url", n.URL, "kind", n.Kind)
	}()
}

func displayTitle(title, url string) string {
	if title != "" {
		return title
	}
	return url
}
