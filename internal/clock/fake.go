package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced Clock for tests. Callbacks run on the goroutine
// calling Advance, in firing-time order.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

// NewFake returns a fake clock starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the fake instant.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Every registers fn to fire every d of fake time.
func (f *Fake) Every(d time.Duration, fn func()) Timer {
	if d <= 0 {
		panic("clock: non-positive interval for Fake.Every")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &fakeTimer{fake: f, next: f.now.Add(d), every: d, fn: fn, seq: f.seq}
	f.timers = append(f.timers, t)
	return t
}

// Advance moves the clock forward by d, firing every timer that comes due.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	end := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		t := f.nextDueLocked(end)
		if t == nil {
			f.now = end
			f.mu.Unlock()
			return
		}
		f.now = t.next
		t.next = t.next.Add(t.every)
		fn := t.fn
		f.mu.Unlock()

		fn()
	}
}

// Pending returns the number of timers that have not been stopped.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

func (f *Fake) nextDueLocked(end time.Time) *fakeTimer {
	var due *fakeTimer
	for _, t := range f.timers {
		if t.stopped || t.next.After(end) {
			continue
		}
		if due == nil || t.next.Before(due.next) || (t.next.Equal(due.next) && t.seq < due.seq) {
			due = t
		}
	}
	return due
}

func (f *Fake) remove(t *fakeTimer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t.stopped = true
	kept := f.timers[:0]
	for _, other := range f.timers {
		if other != t {
			kept = append(kept, other)
		}
	}
	f.timers = kept
}

type fakeTimer struct {
	fake    *Fake
	next    time.Time
	every   time.Duration
	fn      func()
	seq     int
	stopped bool
}

func (t *fakeTimer) Stop() { t.fake.remove(t) }
