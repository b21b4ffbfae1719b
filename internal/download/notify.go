package download

import "context"

//go:generate mockgen -destination=mocks/notifier.go -package=mocks github.com/vmunix/stash/internal/download Notifier

// NotificationKind classifies a local notification.
type NotificationKind string

const (
	NotifyCompleted NotificationKind = "completed"
	NotifyFailed    NotificationKind = "failed"
	NotifyMilestone NotificationKind = "milestone"
)

// Notification is one user-facing message about a download.
type Notification struct {
	ID    string
	URL   string
	Kind  NotificationKind
	Title string
	Body  string
}

// Notifier delivers local notifications. Calls are fire-and-forget; errors are
// logged by the caller and never affect download state.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
	// Clear withdraws every notification previously delivered for url.
	Clear(ctx context.Context, url string) error
}

// MilestoneStep is the spacing of progress milestones.
const MilestoneStep = 25

// milestoneFloor is the percentage a milestone must strictly exceed.
const milestoneFloor = 50

// Milestone reports the highest progress milestone crossed when progress moves
// from prev to cur. Milestones are multiples of MilestoneStep strictly above 50%
// and below 100%; completion is reported separately.
func Milestone(prev, cur float64) (int, bool) {
	crossed := 0
	for m := MilestoneStep; m < 100; m += MilestoneStep {
		if m <= milestoneFloor {
			continue
		}
		threshold := float64(m) / 100
		if prev < threshold && cur >= threshold {
			crossed = m
		}
	}
	return crossed, crossed > 0
}
