package tracker

import (
	"sync"
	"testing"
)

func TestConfirmIdempotent(t *testing.T) {
	t.Parallel()
	tr := New()
	p := Participant{ID: 1, Name: "ana"}
	tr.Confirm("2025-03-10@12:00", p)
	tr.Confirm("2025-03-10@12:00", p)

	got := tr.Confirmed("2025-03-10@12:00")
	if len(got) != 1 || got[0] != p {
		t.Fatalf("Confirmed = %v, want exactly [%v]", got, p)
	}
}

func TestRetractAbsentIsNoop(t *testing.T) {
	t.Parallel()
	tr := New()
	tr.Retract("2025-03-10@12:00", Participant{ID: 7})
	if got := tr.Confirmed("2025-03-10@12:00"); len(got) != 0 {
		t.Fatalf("Confirmed = %v, want empty", got)
	}
}

func TestRetractKeepsInsertionOrder(t *testing.T) {
	t.Parallel()
	tr := New()
	key := "2025-03-10@16:00"
	a := Participant{ID: 1, Name: "a"}
	b := Participant{ID: 2, Name: "b"}
	c := Participant{ID: 3, Name: "c"}
	tr.Confirm(key, a)
	tr.Confirm(key, b)
	tr.Confirm(key, c)
	tr.Retract(key, b)

	got := tr.Confirmed(key)
	if len(got) != 2 || got[0] != a || got[1] != c {
		t.Fatalf("Confirmed = %v, want [a c]", got)
	}
	if tr.Has(key, b) {
		t.Fatal("Has(b) = true after retract")
	}

	// Re-confirm lands at the end.
	tr.Confirm(key, b)
	got = tr.Confirmed(key)
	if len(got) != 3 || got[2] != b {
		t.Fatalf("Confirmed = %v, want b last", got)
	}
}

func TestCycleIsolation(t *testing.T) {
	t.Parallel()
	tr := New()
	p := Participant{ID: 1, Name: "ana"}
	tr.Confirm("2025-03-10@12:00", p)

	if got := tr.Confirmed("2025-03-11@12:00"); len(got) != 0 {
		t.Fatalf("other day's cycle sees %v", got)
	}
	if got := tr.Confirmed("2025-03-10@16:00"); len(got) != 0 {
		t.Fatalf("other event's cycle sees %v", got)
	}
}

func TestRetire(t *testing.T) {
	t.Parallel()
	tr := New()
	key := "2025-03-10@20:00"
	tr.Confirm(key, Participant{ID: 1})
	tr.Retire(key)

	if got := tr.Confirmed(key); len(got) != 0 {
		t.Fatalf("Confirmed after retire = %v, want empty", got)
	}
	// The key is usable again as a fresh cycle.
	tr.Confirm(key, Participant{ID: 2, Name: "b"})
	if got := tr.Confirmed(key); len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("Confirmed after reuse = %v", got)
	}
}

func TestConcurrentToggles(t *testing.T) {
	t.Parallel()
	tr := New()
	key := "2025-03-10@12:00"
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			p := Participant{ID: int64(i % 10)}
			tr.Confirm(key, p)
			tr.Retract(key, p)
			tr.Confirm(key, p)
		}()
	}
	wg.Wait()
	if got := len(tr.Confirmed(key)); got != 10 {
		t.Fatalf("confirmed count = %d, want 10", got)
	}
}
