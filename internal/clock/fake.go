package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake is a manually advanced Clock for tests. Advance fires due timer
// callbacks synchronously, in due-time order, so scheduling tests are
// deterministic without real sleeps.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	f       *Fake
	seq     int
	due     time.Time
	fn      func()
	stopped bool
	fired   bool
}

func NewFake(at time.Time) *Fake {
	return &Fake{now: at}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Location() *time.Location {
	return f.Now().Location()
}

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	if d < 0 {
		d = 0
	}
	f.mu.Lock()
	f.seq++
	t := &fakeTimer{f: f, seq: f.seq, due: f.now.Add(d), fn: fn}
	f.timers = append(f.timers, t)
	f.mu.Unlock()
	// Zero-delay timers fire on the next Advance call, keeping callback
	// order under the test's control.
	return t
}

func (t *fakeTimer) Stop() bool {
	t.f.mu.Lock()
	defer t.f.mu.Unlock()
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward by d, firing due timers as it goes.
// Callbacks run synchronously on the caller's goroutine and may arm new
// timers; newly armed timers that fall due within the window fire too.
func (f *Fake) Advance(d time.Duration) {
	f.AdvanceTo(f.Now().Add(d))
}

// AdvanceTo moves the clock forward to at, firing due timers as it goes.
func (f *Fake) AdvanceTo(at time.Time) {
	for {
		f.mu.Lock()
		if at.Before(f.now) {
			f.mu.Unlock()
			return
		}
		t := f.nextDueLocked(at)
		if t == nil {
			f.now = at
			f.mu.Unlock()
			return
		}
		if t.due.After(f.now) {
			f.now = t.due
		}
		t.fired = true
		fn := t.fn
		f.mu.Unlock()
		if fn != nil {
			fn()
		}
	}
}

// nextDueLocked pops the earliest pending timer due at or before limit.
func (f *Fake) nextDueLocked(limit time.Time) *fakeTimer {
	pending := f.timers[:0]
	var due []*fakeTimer
	for _, t := range f.timers {
		if t.stopped || t.fired {
			continue
		}
		pending = append(pending, t)
		if !t.due.After(limit) {
			due = append(due, t)
		}
	}
	f.timers = pending
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if !due[i].due.Equal(due[j].due) {
			return due[i].due.Before(due[j].due)
		}
		return due[i].seq < due[j].seq
	})
	return due[0]
}

// Pending returns the number of armed, unfired timers. Useful for asserting
// that cleanup released everything.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}
