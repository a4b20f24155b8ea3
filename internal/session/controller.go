// Package session implements the Schulte table session engine: a single
// threaded state machine that owns the grid, the target tracker, the elapsed
// clock and the auto-advance timer.
//
// # Concurrency
//
// A Controller holds no locks. Callers deliver one operation at a time and
// the clock must dispatch timer firings serialized with those operations
// (see clock.Dispatcher). Every timer callback captures the generation that
// scheduled it and does nothing once a later Start or Stop has bumped it, so
// a firing that races a Stop can never touch an idle session.
package session

import (
	"fmt"
	"math/rand"
	"time"

	"schulte/internal/apperr"
	"schulte/internal/clock"
	"schulte/internal/grid"
	"schulte/internal/target"
)

const (
	DefaultRows         = 4
	DefaultCols         = 4
	DefaultMaxDimension = 10
	DefaultTickInterval = 10 * time.Millisecond
)

// Outcome classifies a SelectCell or PointerEntered call.
type Outcome int

const (
	// OutcomeIgnored means the event does not drive the current mode, or the
	// session is idle.
	OutcomeIgnored Outcome = iota
	// OutcomeMissed means the cell did not hold the target.
	OutcomeMissed
	OutcomeAdvanced
	OutcomeCompleted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeMissed:
		return "missed"
	case OutcomeAdvanced:
		return "advanced"
	case OutcomeCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Config wires a Controller. Zero fields take defaults.
type Config struct {
	Clock    clock.Clock
	Rand     *rand.Rand
	Listener Listener

	Rows, Cols       int
	MaxRows, MaxCols int
	Mode             Mode

	// TickInterval is the resolution of ElapsedUpdated notifications.
	TickInterval time.Duration
}

// State is a snapshot of the controller.
type State struct {
	Active    bool
	Mode      Mode
	Rows      int
	Cols      int
	Target    int
	Completed bool
	StartedAt time.Time
	Elapsed   time.Duration
	Highlight *grid.Cell
	Layout    grid.Layout
}

// Controller is the session state machine. Create one with New.
type Controller struct {
	clock    clock.Clock
	rng      *rand.Rand
	listener Listener

	maxRows, maxCols int
	tickInterval     time.Duration

	rows, cols int
	mode       Mode

	active    bool
	gen       uint64
	tracker   *target.Tracker
	layout    grid.Layout
	startedAt time.Time
	elapsed   time.Duration
	highlight *grid.Cell

	tick    clock.Timer
	advance clock.Timer
}

// New validates cfg and returns an idle controller.
func New(cfg Config) (*Controller, error) {
	c := &Controller{
		clock:        cfg.Clock,
		rng:          cfg.Rand,
		listener:     cfg.Listener,
		maxRows:      cfg.MaxRows,
		maxCols:      cfg.MaxCols,
		tickInterval: cfg.TickInterval,
		rows:         cfg.Rows,
		cols:         cfg.Cols,
		mode:         cfg.Mode,
	}
	if c.clock == nil {
		c.clock = clock.NewSystem(nil)
	}
	if c.rng == nil {
		rng, err := grid.NewSeededRand()
		if err != nil {
			return nil, fmt.Errorf("new controller: %w", err)
		}
		c.rng = rng
	}
	if c.maxRows == 0 {
		c.maxRows = DefaultMaxDimension
	}
	if c.maxCols == 0 {
		c.maxCols = DefaultMaxDimension
	}
	if c.tickInterval <= 0 {
		c.tickInterval = DefaultTickInterval
	}
	if c.rows == 0 {
		c.rows = DefaultRows
	}
	if c.cols == 0 {
		c.cols = DefaultCols
	}
	if c.mode.IsZero() {
		c.mode = HoverGame
	}
	if err := c.validateDimensions(c.rows, c.cols); err != nil {
		return nil, fmt.Errorf("new controller: %w", err)
	}
	c.tracker = target.New(c.rows * c.cols)
	return c, nil
}

// Start begins a session. A running session is stopped first.
func (c *Controller) Start(rows, cols int, mode Mode) error {
	if err := c.validateDimensions(rows, cols); err != nil {
		return err
	}
	if mode.IsZero() {
		return apperr.ErrInvalidMode
	}
	layout, err := grid.Generate(rows, cols, c.rng)
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	if c.active {
		c.stopSession()
	}

	c.gen++
	gen := c.gen
	c.active = true
	c.rows, c.cols, c.mode = rows, cols, mode
	c.tracker.Reset(rows * cols)
	c.layout = layout
	c.highlight = nil
	c.startedAt = c.clock.Now()
	c.elapsed = 0

	c.tick = c.clock.Every(c.tickInterval, func() { c.onTick(gen) })
	// The interval is read here only; SetMode during the session keeps it.
	if mode.Trigger() == TriggerTimer {
		c.advance = c.clock.Every(mode.Interval(), func() { c.onAutoAdvance(gen) })
	}

	c.emit(Event{Kind: EventSessionStarted, Layout: layout, Target: c.tracker.Target()})
	return nil
}

// Stop ends the running session. It is a no-op when idle.
func (c *Controller) Stop() {
	if !c.active {
		return
	}
	c.stopSession()
}

// Toggle stops a running session or starts one with the current rows, cols
// and mode.
func (c *Controller) Toggle() error {
	if c.active {
		c.stopSession()
		return nil
	}
	return c.Start(c.rows, c.cols, c.mode)
}

// SelectCell handles the pointer activating (row, col).
func (c *Controller) SelectCell(row, col int) (Outcome, error) {
	value, err := c.cellValue(row, col)
	if err != nil {
		return OutcomeIgnored, err
	}
	if !c.active || c.mode.Trigger() != TriggerClick {
		return OutcomeIgnored, nil
	}
	return c.tryAdvance(value), nil
}

// PointerEntered handles the pointer moving onto (row, col). Only HoverGame
// reacts: the highlight follows the pointer onto the target cell and the
// target advances exactly as a click would in TapGame.
func (c *Controller) PointerEntered(row, col int) (Outcome, error) {
	value, err := c.cellValue(row, col)
	if err != nil {
		return OutcomeIgnored, err
	}
	if !c.active || c.mode.Trigger() != TriggerHover {
		return OutcomeIgnored, nil
	}
	c.clearHighlight()
	if value == c.tracker.Target() {
		c.setHighlight(grid.Cell{Row: row, Col: col})
	}
	return c.tryAdvance(value), nil
}

// PointerLeft clears the highlight.
func (c *Controller) PointerLeft() {
	c.clearHighlight()
}

// ChangeDimensions sets the grid size. While running the grid is regenerated
// and the completion boundary moves; a target already beyond the new
// boundary then completes the session.
func (c *Controller) ChangeDimensions(rows, cols int) error {
	if err := c.validateDimensions(rows, cols); err != nil {
		return err
	}
	if !c.active {
		c.rows, c.cols = rows, cols
		return nil
	}
	layout, err := grid.Generate(rows, cols, c.rng)
	if err != nil {
		return fmt.Errorf("change dimensions: %w", err)
	}
	c.rows, c.cols = rows, cols
	c.replaceLayout(layout)
	if c.tracker.Resize(rows * cols) {
		c.complete()
	}
	return nil
}

// SetMode selects the mode for selection routing and the next Start.
func (c *Controller) SetMode(mode Mode) error {
	if mode.IsZero() {
		return apperr.ErrInvalidMode
	}
	if mode.Trigger() != TriggerHover {
		c.clearHighlight()
	}
	c.mode = mode
	return nil
}

// Running reports whether a session is active.
func (c *Controller) Running() bool { return c.active }

// Mode returns the selected mode.
func (c *Controller) Mode() Mode { return c.mode }

// Layout returns the current layout, zero before the first Start.
func (c *Controller) Layout() grid.Layout { return c.layout }

// Elapsed returns the time since Start, frozen at the last Stop.
func (c *Controller) Elapsed() time.Duration {
	if c.active {
		return c.clock.Now().Sub(c.startedAt)
	}
	return c.elapsed
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() State {
	s := State{
		Active:    c.active,
		Mode:      c.mode,
		Rows:      c.rows,
		Cols:      c.cols,
		Target:    c.tracker.Target(),
		Completed: c.tracker.IsCompleted(),
		StartedAt: c.startedAt,
		Elapsed:   c.Elapsed(),
		Layout:    c.layout,
	}
	if c.highlight != nil {
		h := *c.highlight
		s.Highlight = &h
	}
	return s
}

func (c *Controller) tryAdvance(value int) Outcome {
	res := c.tracker.TryAdvance(value)
	switch res.Outcome {
	case target.OutcomeCompleted:
		c.complete()
		return OutcomeCompleted
	case target.OutcomeAdvanced:
		c.emit(Event{Kind: EventTargetAdvanced, Target: res.Target})
		if c.mode.RegeneratesOnAdvance() {
			c.regenerate()
		}
		return OutcomeAdvanced
	default:
		return OutcomeMissed
	}
}

func (c *Controller) onTick(gen uint64) {
	if !c.active || c.gen != gen {
		return
	}
	c.emit(Event{Kind: EventElapsedUpdated, Elapsed: c.clock.Now().Sub(c.startedAt)})
}

func (c *Controller) onAutoAdvance(gen uint64) {
	if !c.active || c.gen != gen || c.tracker.IsCompleted() {
		return
	}
	res := c.tracker.TryAdvance(c.tracker.Target())
	switch res.Outcome {
	case target.OutcomeCompleted:
		c.complete()
	case target.OutcomeAdvanced:
		c.emit(Event{Kind: EventTargetAdvanced, Target: res.Target})
		c.regenerate()
	}
}

func (c *Controller) regenerate() {
	layout, err := grid.Generate(c.rows, c.cols, c.rng)
	if err != nil {
		// rows and cols were validated when stored
		panic(fmt.Sprintf("session: regenerate %dx%d: %v", c.rows, c.cols, err))
	}
	c.replaceLayout(layout)
}

func (c *Controller) replaceLayout(layout grid.Layout) {
	c.clearHighlight()
	c.layout = layout
	c.emit(Event{Kind: EventGridRegenerated, Layout: layout})
}

func (c *Controller) complete() {
	c.emit(Event{Kind: EventSessionCompleted, Elapsed: c.clock.Now().Sub(c.startedAt)})
	c.stopSession()
}

func (c *Controller) stopSession() {
	if c.tick != nil {
		c.tick.Stop()
		c.tick = nil
	}
	if c.advance != nil {
		c.advance.Stop()
		c.advance = nil
	}
	c.clearHighlight()
	c.elapsed = c.clock.Now().Sub(c.startedAt)
	c.active = false
	c.gen++
	c.emit(Event{Kind: EventSessionStopped, Elapsed: c.elapsed})
}

func (c *Controller) setHighlight(cell grid.Cell) {
	c.highlight = &cell
	h := cell
	c.emit(Event{Kind: EventHighlightChanged, Highlight: &h})
}

func (c *Controller) clearHighlight() {
	if c.highlight == nil {
		return
	}
	c.highlight = nil
	c.emit(Event{Kind: EventHighlightChanged})
}

func (c *Controller) cellValue(row, col int) (int, error) {
	if c.layout.IsZero() {
		return 0, apperr.InvalidCoordinates(row, col, 0, 0)
	}
	return c.layout.ValueAt(row, col)
}

func (c *Controller) validateDimensions(rows, cols int) error {
	if rows < 1 || cols < 1 || rows > c.maxRows || cols > c.maxCols {
		return apperr.InvalidDimensions(rows, cols, c.maxRows, c.maxCols)
	}
	return nil
}

func (c *Controller) emit(e Event) {
	if c.listener == nil {
		return
	}
	e.Generation = c.gen
	e.At = c.clock.Now()
	c.listener.HandleEvent(e)
}
