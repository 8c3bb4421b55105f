// Package clock wraps "now" and timer creation in one fixed timezone so
// time-dependent components stay deterministic under test.
package clock

import "time"

// Timer is a one-shot timer handle.
type Timer interface {
	// Stop reports whether the timer was stopped before firing.
	Stop() bool
}

type Clock interface {
	// Now returns the current instant in the clock's location.
	Now() time.Time
	Location() *time.Location

	// AfterFunc arms fn to run after d. Non-positive d fires immediately
	// (late, never skipped).
	AfterFunc(d time.Duration, fn func()) Timer
}

type realClock struct {
	loc *time.Location
}

// NewReal returns a Clock bound to loc. A nil loc falls back to time.Local.
func NewReal(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return &realClock{loc: loc}
}

func (c *realClock) Now() time.Time           { return time.Now().In(c.loc) }
func (c *realClock) Location() *time.Location { return c.loc }

func (c *realClock) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	return time.AfterFunc(d, fn)
}
