// Package occurrence computes when a daily event next (or last) starts and
// derives the stable key identifying that single occurrence's cycle.
package occurrence

import (
	"time"

	"turfbot/internal/clock"
	"turfbot/internal/event"
)

// Calculator derives occurrence instants from the clock's fixed timezone.
// Both methods are pure functions of the current time; callers validate
// HH:MM input before reaching the calculator.
type Calculator struct {
	clock clock.Clock
}

func NewCalculator(c clock.Clock) *Calculator {
	return &Calculator{clock: c}
}

// Next returns the soonest instant strictly after now whose wall clock
// equals hhmm. If now is exactly hhmm, it advances a full day; Next never
// returns an instant already in progress.
func (c *Calculator) Next(hhmm string) time.Time {
	h, m, _ := event.ParseHHMM(hhmm)
	now := c.clock.Now()
	cand := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
	if !cand.After(now) {
		cand = time.Date(now.Year(), now.Month(), now.Day()+1, h, m, 0, 0, now.Location())
	}
	return cand
}

// Previous returns the most recent instant at or before now whose wall
// clock equals hhmm. Used only to look up an already-open cycle.
func (c *Calculator) Previous(hhmm string) time.Time {
	h, m, _ := event.ParseHHMM(hhmm)
	now := c.clock.Now()
	cand := time.Date(now.Year(), now.Month(), now.Day(), h, m, 0, 0, now.Location())
	if cand.After(now) {
		cand = time.Date(now.Year(), now.Month(), now.Day()-1, h, m, 0, 0, now.Location())
	}
	return cand
}

// Until returns the non-negative delay from now until at.
func (c *Calculator) Until(at time.Time) time.Duration {
	d := at.Sub(c.clock.Now())
	if d < 0 {
		return 0
	}
	return d
}

// CycleKey renders the identity of one occurrence of one event. The literal
// daily-time string is part of the key, so two events sharing a calendar
// date never collide.
func CycleKey(at time.Time, hhmm string) string {
	return at.Format("2006-01-02") + "@" + hhmm
}
