package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/vmunix/stash/internal/download"
)

// LogNotifier writes notifications to the log. It is the notifier used when
// no notification command is configured.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{log: logger.With("component", "notifier")}
}

// Notify implements download.Notifier.
func (n *LogNotifier) Notify(_ context.Context, note download.Notification) error {
	n.log.Info(note.Title, "body", note.Body, "kind", note.Kind, "url", note.URL, "id", note.ID)
	return nil
}

// Clear implements download.Notifier.
func (n *LogNotifier) Clear(_ context.Context, url string) error {
	n.log.Debug("notifications cleared", "url", url)
	return nil
}

// CommandNotifier runs an external command per notification, passing the
// title and body as the last two arguments (notify-send style).
type CommandNotifier struct {
	name string
	args []string
}

// NewCommandNotifier parses command into program and arguments.
func NewCommandNotifier(command string) (*CommandNotifier, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, fmt.Errorf("notification command is empty")
	}
	return &CommandNotifier{name: fields[0], args: fields[1:]}, nil
}

// Notify implements download.Notifier.
func (n *CommandNotifier) Notify(ctx context.Context, note download.Notification) error {
	args := append(append([]string(nil), n.args...), note.Title, note.Body)
	cmd := exec.CommandContext(ctx, n.name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("run %s: %w: %s", n.name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Clear implements download.Notifier. Delivered desktop notifications cannot
// be withdrawn, so it does nothing.
func (n *CommandNotifier) Clear(context.Context, string) error {
	return nil
}
