package main

import (
	"math/rand"
	"sync"
	"time"

	"schulte/internal/apperr"
	"schulte/internal/clock"
	"schulte/internal/config"
	"schulte/internal/session"
	"schulte/internal/types"
)

// Hub owns one session engine. Every request and every timer firing for the
// engine runs under mu, one at a time.
type Hub struct {
	mu   sync.Mutex
	ctrl *session.Controller

	subs           map[chan types.EventView]struct{}
	buffer         int
	streamInterval time.Duration
	lastElapsed    time.Time

	lastAccess time.Time
	closed     bool
}

// newHub builds a hub and its controller from the app configuration.
func (app *App) newHub() (*Hub, error) {
	cfg := app.Config
	h := &Hub{
		subs:           make(map[chan types.EventView]struct{}),
		buffer:         cfg.EventBuffer,
		streamInterval: cfg.StreamInterval,
		lastAccess:     time.Now(),
	}
	rng, err := app.NewRand()
	if err != nil {
		return nil, err
	}
	ctrl, err := session.New(engineConfig(cfg, app.NewClock(h.dispatch), rng, h))
	if err != nil {
		return nil, err
	}
	h.ctrl = ctrl
	return h, nil
}

func engineConfig(cfg config.Config, clk clock.Clock, rng *rand.Rand, l session.Listener) session.Config {
	return session.Config{
		Clock:        clk,
		Rand:         rng,
		Listener:     l,
		Rows:         cfg.DefaultRows,
		Cols:         cfg.DefaultCols,
		MaxRows:      cfg.MaxRows,
		MaxCols:      cfg.MaxCols,
		Mode:         cfg.DefaultMode,
		TickInterval: cfg.TickInterval,
	}
}

// dispatch runs a timer firing serialized with requests.
func (h *Hub) dispatch(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	fn()
}

// Do runs fn with exclusive access to the controller. A closed hub refuses
// with apperr.ErrSessionNotFound so no timers start after Close.
func (h *Hub) Do(fn func(*session.Controller) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return apperr.ErrSessionNotFound
	}
	h.lastAccess = time.Now()
	return fn(h.ctrl)
}

// View returns the current session view.
func (h *Hub) View() (types.SessionView, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return types.SessionView{}, apperr.ErrSessionNotFound
	}
	h.lastAccess = time.Now()
	return sessionView(h.ctrl.Snapshot()), nil
}

// HandleEvent forwards engine events to subscribers. It runs inside a
// controller call, so h.mu is already held.
func (h *Hub) HandleEvent(e session.Event) {
	if len(h.subs) == 0 {
		return
	}
	if e.Kind == session.EventElapsedUpdated {
		if e.At.Sub(h.lastElapsed) < h.streamInterval {
			return
		}
		h.lastElapsed = e.At
	}
	ev := eventView(e)
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// slow reader; drop rather than stall the engine
		}
	}
}

// Subscribe registers an event stream. The returned func unsubscribes.
func (h *Hub) Subscribe() (<-chan types.EventView, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ch := make(chan types.EventView, h.buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	h.subs[ch] = struct{}{}
	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
	}
}

// Close stops the engine and ends every stream.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.ctrl.Stop()
	h.closed = true
	for ch := range h.subs {
		delete(h.subs, ch)
		close(ch)
	}
}

// LastAccess returns when a request last touched the hub.
func (h *Hub) LastAccess() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastAccess
}
