package download

// State is the lifecycle state of an in-memory Download.
type State string

const (
	StateNotStarted State = "not-started"
	StateQueued     State = "queued"
	StateInProgress State = "in-progress"
	StatePaused     State = "paused"
)

// validTransitions defines allowed state transitions.
// Nothing returns to not-started; completion and removal happen outside the machine.
var validTransitions = map[State][]State{
	StateNotStarted: {StateQueued},
	StateQueued:     {StateInProgress},
	StateInProgress: {StatePaused},
	StatePaused:     {StateInProgress},
}

// CanTransitionTo returns true if transitioning from s to target is valid.
func (s State) CanTransitionTo(target State) bool {
	for _, v := range validTransitions[s] {
		if v == target {
			return true
		}
	}
	return false
}

// CanResume reports whether Resume has an effect in this state.
func (s State) CanResume() bool {
	return s == StateQueued || s == StatePaused
}

// PendingState is the textual state tag stored with a pending record.
type PendingState string

const (
	PendingStarted     PendingState = "started"
	PendingDownloading PendingState = "downloading"
	PendingPaused      PendingState = "paused"
	PendingBackground  PendingState = "background"
)
