package handlers

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vmunix/stash/internal/download"
	"github.com/vmunix/stash/internal/download/mocks"
	"github.com/vmunix/stash/internal/events"
)

const testURL = "https://cdn.example.com/media/arrival.mp4"

func startHandler(t *testing.T, h *NotificationHandler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Start(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	// Give the handler time to subscribe
	time.Sleep(20 * time.Millisecond)
}

func recv(t *testing.T, ch <-chan download.Notification) download.Notification {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for notification")
		return download.Notification{}
	}
}

func progressed(p float64) *events.DownloadProgressed {
	return &events.DownloadProgressed{
		BaseEvent: events.NewBaseEvent(events.EventDownloadProgressed, events.EntityDownload, testURL),
		URL:       testURL,
		Progress:  p,
	}
}

func TestNotificationHandler_Milestones(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	bus := events.NewBus(nil, nil)
	defer bus.Close()

	sent := make(chan download.Notification, 10)
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n download.Notification) error {
			sent <- n
			return nil
		}).Times(1)

	h := NewNotificationHandler(bus, notifier, nil)
	startHandler(t, h)

	ctx := context.Background()
	for _, p := range []float64{0.2, 0.5, 0.6, 0.74, 0.8, 0.9, 0.99} {
		require.NoError(t, bus.Publish(ctx, progressed(p)))
	}

	n := recv(t, sent)
	assert.Equal(t, download.NotifyMilestone, n.Kind)
	assert.Equal(t, "75% downloaded", n.Body)
	assert.Equal(t, testURL, n.URL)
	assert.NotEmpty(t, n.ID)

	select {
	case extra := <-sent:
		t.Fatalf("unexpected notification: %+v", extra)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestNotificationHandler_CompletedAndFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	bus := events.NewBus(nil, nil)
	defer bus.Close()

	sent := make(chan download.Notification, 10)
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n download.Notification) error {
			sent <- n
			return nil
		}).Times(2)

	h := NewNotificationHandler(bus, notifier, nil)
	startHandler(t, h)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, &events.DownloadFailed{
		BaseEvent: events.NewBaseEvent(events.EventDownloadFailed, events.EntityDownload, testURL),
		URL:       testURL,
		Title:     "Arrival",
		Reason:    "connection reset",
		Retryable: true,
	}))
	n := recv(t, sent)
	assert.Equal(t, download.NotifyFailed, n.Kind)
	assert.Contains(t, n.Body, "Arrival")
	assert.Contains(t, n.Body, "connection reset")

	require.NoError(t, bus.Publish(ctx, &events.DownloadCompleted{
		BaseEvent:     events.NewBaseEvent(events.EventDownloadCompleted, events.EntityDownload, testURL),
		URL:           testURL,
		Title:         "",
		LocalFileName: "abc.mp4",
	}))
	n = recv(t, sent)
	assert.Equal(t, download.NotifyCompleted, n.Kind)
	assert.Contains(t, n.Body, testURL)
}

func TestNotificationHandler_RemovedClears(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	bus := events.NewBus(nil, nil)
	defer bus.Close()

	cleared := make(chan string, 1)
	notifier.EXPECT().Clear(gomock.Any(), testURL).
		DoAndReturn(func(_ context.Context, url string) error {
			cleared <- url
			return errors.New("not supported")
		})

	h := NewNotificationHandler(bus, notifier, nil)
	startHandler(t, h)

	require.NoError(t, bus.Publish(context.Background(), &events.DownloadRemoved{
		BaseEvent: events.NewBaseEvent(events.EventDownloadRemoved, events.EntityDownload, testURL),
		URL:       testURL,
	}))

	select {
	case url := <-cleared:
		assert.Equal(t, testURL, url)
	case <-time.After(time.Second):
		t.Fatal("Clear not called")
	}
}

func TestNotificationHandler_NotifierErrorIsIgnored(t *testing.T) {
	ctrl := gomock.NewController(t)
	notifier := mocks.NewMockNotifier(ctrl)
	bus := events.NewBus(nil, nil)
	defer bus.Close()

	calls := make(chan struct{}, 2)
	notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, download.Notification) error {
			calls <- struct{}{}
			return errors.New("daemon unavailable")
		}).Times(2)

	h := NewNotificationHandler(bus, notifier, nil)
	startHandler(t, h)

	completed := func(url string) *events.DownloadCompleted {
		return &events.DownloadCompleted{
			BaseEvent: events.NewBaseEvent(events.EventDownloadCompleted, events.EntityDownload, url),
			URL:       url,
		}
	}
	require.NoError(t, bus.Publish(context.Background(), completed(testURL)))
	require.NoError(t, bus.Publish(context.Background(), completed(testURL+"?2")))

	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(time.Second):
			t.Fatal("notifier not called")
		}
	}
}

func TestCommandNotifier(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")
	script := filepath.Join(dir, "notify.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nprintf '%s|%s|%s' \"$1\" \"$2\" \"$3\" > "+out+"\n"), 0o755))

	n, err := NewCommandNotifier(script + " --urgency=low")
	require.NoError(t, err)

	require.NoError(t, n.Notify(context.Background(), download.Notification{Title: "Download complete", Body: "Arrival is ready"}))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "--urgency=low|Download complete|Arrival is ready", string(data))
	assert.NoError(t, n.Clear(context.Background(), testURL))

	_, err = NewCommandNotifier("   ")
	assert.Error(t, err)

	missing, err := NewCommandNotifier(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	err = missing.Notify(context.Background(), download.Notification{Title: "x"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "missing"))
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier(nil)
	assert.NoError(t, n.Notify(context.Background(), download.Notification{Title: "t", Body: "b"}))
	assert.NoError(t, n.Clear(context.Background(), testURL))
}
