// Package clock abstracts the wall clock and repeating timers so the session
// engine can run against real time or a controllable fake.
package clock

import (
	"sync"
	"time"
)

// Timer is a cancellable repeating callback. Stop prevents future firings
// but does not interrupt one already running.
type Timer interface {
	Stop()
}

// Clock supplies the current instant and repeating timers.
type Clock interface {
	Now() time.Time
	Every(d time.Duration, fn func()) Timer
}

// Dispatcher runs fn serialized with every other call into the engine that
// owns the clock.
type Dispatcher func(fn func())

// System is a Clock backed by time.Ticker. Each firing is handed to the
// dispatcher; a nil dispatcher calls fn on the ticker goroutine.
type System struct {
	dispatch Dispatcher
}

// NewSystem returns a real clock that delivers firings through dispatch.
func NewSystem(dispatch Dispatcher) *System {
	if dispatch == nil {
		dispatch = func(fn func()) { fn() }
	}
	return &System{dispatch: dispatch}
}

// Now returns time.Now.
func (s *System) Now() time.Time { return time.Now() }

// Every starts a ticker calling fn every d.
func (s *System) Every(d time.Duration, fn func()) Timer {
	t := &systemTimer{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
	}
	go func() {
		for {
			select {
			case <-t.done:
				return
			case <-t.ticker.C:
				s.dispatch(func() {
					// Stop may have run while this firing waited for the dispatcher.
					select {
					case <-t.done:
						return
					default:
					}
					fn()
				})
			}
		}
	}()
	return t
}

type systemTimer struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *systemTimer) Stop() {
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
	})
}
