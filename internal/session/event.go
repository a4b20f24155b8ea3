package session

import (
	"time"

	"schulte/internal/grid"
)

// EventKind identifies an outbound notification.
type EventKind int

const (
	EventSessionStarted EventKind = iota + 1
	EventGridRegenerated
	EventTargetAdvanced
	EventSessionCompleted
	EventSessionStopped
	EventElapsedUpdated
	EventHighlightChanged
)

func (k EventKind) String() string {
	switch k {
	case EventSessionStarted:
		return "session_started"
	case EventGridRegenerated:
		return "grid_regenerated"
	case EventTargetAdvanced:
		return "target_advanced"
	case EventSessionCompleted:
		return "session_completed"
	case EventSessionStopped:
		return "session_stopped"
	case EventElapsedUpdated:
		return "elapsed_updated"
	case EventHighlightChanged:
		return "highlight_changed"
	default:
		return "unknown"
	}
}

// Event is a notification for the presentation layer. Only the fields
// relevant to Kind are set:
//
//   - SessionStarted: Layout, Target
//   - GridRegenerated: Layout
//   - TargetAdvanced: Target
//   - SessionCompleted, SessionStopped, ElapsedUpdated: Elapsed
//   - HighlightChanged: Highlight (nil clears)
type Event struct {
	Kind       EventKind
	Generation uint64
	At         time.Time
	Layout     grid.Layout
	Target     int
	Elapsed    time.Duration
	Highlight  *grid.Cell
}

// Listener receives controller notifications. HandleEvent runs inside the
// controller call that produced the event and must not call back into it.
type Listener interface {
	HandleEvent(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

// HandleEvent calls f(e).
func (f ListenerFunc) HandleEvent(e Event) { f(e) }
