// Package event holds the static definitions of tracked daily events.
package event

import (
	"fmt"
	"strconv"
	"strings"
)

// Event is a tracked activity with a fixed daily local start time.
// Definitions are immutable for the process lifetime.
type Event struct {
	// Time is the daily wall-clock start, "HH:MM".
	Time string
	// Name is the display name used in reminders.
	Name string
	// ExternalID is the opaque in-game identifier shown alongside the name.
	ExternalID string
}

// Defaults returns the reference deployment's event set.
func Defaults() []Event {
	return []Event{
		{Time: "00:00", Name: "Complexo do Alemão", ExternalID: "40/42"},
		{Time: "12:00", Name: "Cidade de Deus", ExternalID: "31/3"},
		{Time: "16:00", Name: "Rocinha", ExternalID: "27/36"},
		{Time: "20:00", Name: "Jacarezinho", ExternalID: "14/33"},
	}
}

// ParseHHMM validates and splits a "HH:MM" wall-clock time.
func ParseHHMM(s string) (hour int, minute int, err error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return h, m, nil
}

// Validate checks a configured event list: non-empty names and parseable
// daily times. Malformed definitions are rejected at startup so the
// occurrence math never sees them.
func Validate(events []Event) error {
	if len(events) == 0 {
		return fmt.Errorf("no events configured")
	}
	for i, ev := range events {
		if strings.TrimSpace(ev.Name) == "" {
			return fmt.Errorf("events[%d]: name is required", i)
		}
		if _, _, err := ParseHHMM(ev.Time); err != nil {
			return fmt.Errorf("events[%d] (%s): %w", i, ev.Name, err)
		}
	}
	return nil
}
