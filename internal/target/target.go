// Package target tracks the next number a player must find.
package target

// Outcome classifies a TryAdvance call.
type Outcome int

const (
	OutcomeRejected Outcome = iota
	OutcomeAdvanced
	OutcomeCompleted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRejected:
		return "Rejected"
	case OutcomeAdvanced:
		return "Advanced"
	case OutcomeCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// Result is returned by TryAdvance. Target is the new target for Advanced and
// Max+1 for Completed.
type Result struct {
	Outcome Outcome
	Target  int
}

// Tracker holds the expected next value and the completion boundary.
// The zero value is completed-free with target 0; call Reset before use.
type Tracker struct {
	target    int
	max       int
	completed bool
}

// New returns a tracker reset to maxCells.
func New(maxCells int) *Tracker {
	t := &Tracker{}
	t.Reset(maxCells)
	return t
}

// Reset sets the target to 1 and clears completion.
func (t *Tracker) Reset(maxCells int) {
	t.target = 1
	t.max = maxCells
	t.completed = false
}

// TryAdvance moves past selected when it equals the current target.
// Mismatches and calls after completion are rejected without change.
func (t *Tracker) TryAdvance(selected int) Result {
	if t.completed || selected != t.target {
		return Result{Outcome: OutcomeRejected, Target: t.target}
	}
	t.target++
	if t.target > t.max {
		t.completed = true
		return Result{Outcome: OutcomeCompleted, Target: t.target}
	}
	return Result{Outcome: OutcomeAdvanced, Target: t.target}
}

// Resize moves the completion boundary and keeps the target. It reports
// whether the tracker became completed because the target is already past
// the new boundary.
func (t *Tracker) Resize(maxCells int) bool {
	t.max = maxCells
	if !t.completed && t.target > t.max {
		t.completed = true
		return true
	}
	return false
}

// IsCompleted reports whether the last value has been found.
func (t *Tracker) IsCompleted() bool { return t.completed }

// Target returns the current expected value.
func (t *Tracker) Target() int { return t.target }

// Max returns the completion boundary.
func (t *Tracker) Max() int { return t.max }
