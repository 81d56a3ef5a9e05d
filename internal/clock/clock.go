// Package clock abstracts wall-clock time and one-shot timers so scheduling
// code can be driven deterministically in tests.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Clock provides the current instant and one-shot timers.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable one-shot timer.
type Timer interface {
	// Stop prevents the timer from firing. It returns false if the timer
	// already fired or was stopped.
	Stop() bool
}

// Real is the system clock, optionally pinned to a location.
type Real struct {
	Location *time.Location
}

func (c Real) Now() time.Time {
	now := time.Now()
	if c.Location != nil {
		return now.In(c.Location)
	}
	return now
}

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Fake is deterministic and test-friendly.
// Timers fire synchronously from Advance/Set, in deadline order.
type Fake struct {
	mu     sync.Mutex
	t      time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *Fake
	at      time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func NewFake(start time.Time) *Fake {
	return &Fake{t: start}
}

func (c *Fake) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Fake) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	ft := &fakeTimer{clock: c, at: c.t.Add(d), seq: c.seq, f: f}
	c.timers = append(c.timers, ft)
	return ft
}

// Set moves the clock to t and fires every timer whose deadline passed.
func (c *Fake) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	due := c.collectDue()
	c.mu.Unlock()

	for _, ft := range due {
		ft.f()
	}
}

// Advance moves the clock forward by d.
func (c *Fake) Advance(d time.Duration) {
	c.Set(c.Now().Add(d))
}

// Pending returns the number of armed timers that have not fired.
func (c *Fake) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ft := range c.timers {
		if !ft.stopped && !ft.fired {
			n++
		}
	}
	return n
}

// collectDue must be called with c.mu held.
func (c *Fake) collectDue() []*fakeTimer {
	var due, keep []*fakeTimer
	for _, ft := range c.timers {
		switch {
		case ft.stopped || ft.fired:
		case !ft.at.After(c.t):
			ft.fired = true
			due = append(due, ft)
		default:
			keep = append(keep, ft)
		}
	}
	c.timers = keep
	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})
	return due
}

func (ft *fakeTimer) Stop() bool {
	ft.clock.mu.Lock()
	defer ft.clock.mu.Unlock()
	if ft.stopped || ft.fired {
		return false
	}
	ft.stopped = true
	return true
}
