package occurrence

import (
	"testing"
	"time"

	"turfbot/internal/clock"
)

func fixedCalc(t *testing.T, at string) (*Calculator, *clock.Fake) {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	now, err := time.ParseInLocation("2006-01-02 15:04:05", at, loc)
	if err != nil {
		t.Fatalf("parse now: %v", err)
	}
	fc := clock.NewFake(now)
	return NewCalculator(fc), fc
}

func TestNextOccurrence(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		now  string
		hhmm string
		want string
	}{
		{name: "later today", now: "2025-03-10 10:00:00", hhmm: "12:00", want: "2025-03-10 12:00:00"},
		{name: "already passed", now: "2025-03-10 13:00:00", hhmm: "12:00", want: "2025-03-11 12:00:00"},
		{name: "exactly now advances a day", now: "2025-03-10 12:00:00", hhmm: "12:00", want: "2025-03-11 12:00:00"},
		{name: "midnight event", now: "2025-03-10 00:00:01", hhmm: "00:00", want: "2025-03-11 00:00:00"},
		{name: "month rollover", now: "2025-03-31 23:30:00", hhmm: "20:00", want: "2025-04-01 20:00:00"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			calc, fc := fixedCalc(t, tt.now)
			got := calc.Next(tt.hhmm)
			want, _ := time.ParseInLocation("2006-01-02 15:04:05", tt.want, fc.Location())
			if !got.Equal(want) {
				t.Fatalf("Next(%q) = %v, want %v", tt.hhmm, got, want)
			}
			if !got.After(fc.Now()) {
				t.Fatalf("Next(%q) = %v is not strictly in the future of %v", tt.hhmm, got, fc.Now())
			}
		})
	}
}

func TestPreviousOccurrence(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		now  string
		hhmm string
		want string
	}{
		{name: "earlier today", now: "2025-03-10 13:00:00", hhmm: "12:00", want: "2025-03-10 12:00:00"},
		{name: "not yet today", now: "2025-03-10 10:00:00", hhmm: "12:00", want: "2025-03-09 12:00:00"},
		{name: "exactly now is kept", now: "2025-03-10 12:00:00", hhmm: "12:00", want: "2025-03-10 12:00:00"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			calc, fc := fixedCalc(t, tt.now)
			got := calc.Previous(tt.hhmm)
			want, _ := time.ParseInLocation("2006-01-02 15:04:05", tt.want, fc.Location())
			if !got.Equal(want) {
				t.Fatalf("Previous(%q) = %v, want %v", tt.hhmm, got, want)
			}
			if got.After(fc.Now()) {
				t.Fatalf("Previous(%q) = %v is in the future of %v", tt.hhmm, got, fc.Now())
			}
		})
	}
}

func TestUntilClampsToZero(t *testing.T) {
	t.Parallel()
	calc, fc := fixedCalc(t, "2025-03-10 10:00:00")
	if d := calc.Until(fc.Now().Add(-time.Hour)); d != 0 {
		t.Fatalf("Until(past) = %v, want 0", d)
	}
	if d := calc.Until(fc.Now().Add(90 * time.Minute)); d != 90*time.Minute {
		t.Fatalf("Until(+90m) = %v, want 90m", d)
	}
}

func TestCycleKeyDisambiguatesByTime(t *testing.T) {
	t.Parallel()
	calc, _ := fixedCalc(t, "2025-03-10 10:00:00")
	a := CycleKey(calc.Next("12:00"), "12:00")
	b := CycleKey(calc.Next("16:00"), "16:00")
	if a == b {
		t.Fatalf("keys collide: %q", a)
	}
	if a != "2025-03-10@12:00" {
		t.Fatalf("CycleKey = %q, want %q", a, "2025-03-10@12:00")
	}

	// Same event, next day: distinct cycle.
	c := CycleKey(calc.Next("12:00").AddDate(0, 0, 1), "12:00")
	if a == c {
		t.Fatalf("same-event different-day keys collide: %q", a)
	}
}
