package clock

import (
	"testing"
	"time"
)

func TestAdvanceFiresInDueOrder(t *testing.T) {
	t.Parallel()
	f := NewFake(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC))

	var order []string
	f.AfterFunc(30*time.Minute, func() { order = append(order, "b") })
	f.AfterFunc(10*time.Minute, func() { order = append(order, "a") })
	f.AfterFunc(2*time.Hour, func() { order = append(order, "never") })

	f.Advance(time.Hour)
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Fatalf("fired %v", order)
	}
	if f.Pending() != 1 {
		t.Fatalf("pending = %d", f.Pending())
	}
}

func TestCallbackSeesDueTime(t *testing.T) {
	t.Parallel()
	f := NewFake(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC))

	var at time.Time
	f.AfterFunc(15*time.Minute, func() { at = f.Now() })
	f.Advance(time.Hour)
	if want := "10:15"; at.Format("15:04") != want {
		t.Fatalf("callback ran at %s, want %s", at.Format("15:04"), want)
	}
}

func TestCallbackMayArmFollowupWithinWindow(t *testing.T) {
	t.Parallel()
	f := NewFake(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC))

	var fired []string
	f.AfterFunc(10*time.Minute, func() {
		fired = append(fired, "first")
		f.AfterFunc(5*time.Minute, func() { fired = append(fired, "chained") })
	})
	f.Advance(20 * time.Minute)
	if len(fired) != 2 || fired[1] != "chained" {
		t.Fatalf("fired %v", fired)
	}
}

func TestStopPreventsFiring(t *testing.T) {
	t.Parallel()
	f := NewFake(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC))

	ran := false
	tm := f.AfterFunc(time.Minute, func() { ran = true })
	if !tm.Stop() {
		t.Fatal("Stop returned false for pending timer")
	}
	if tm.Stop() {
		t.Fatal("second Stop returned true")
	}
	f.Advance(time.Hour)
	if ran {
		t.Fatal("stopped timer fired")
	}
}

func TestNegativeDelayFiresOnNextAdvance(t *testing.T) {
	t.Parallel()
	f := NewFake(time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC))

	ran := false
	f.AfterFunc(-time.Minute, func() { ran = true })
	if ran {
		t.Fatal("fired synchronously from AfterFunc")
	}
	f.Advance(0)
	if !ran {
		t.Fatal("overdue timer did not fire on Advance")
	}
}
