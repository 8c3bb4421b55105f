// Package tracker keeps the per-cycle set of confirmed participants.
//
// Stage timers and confirmation toggles mutate the same cycle key from
// different goroutines, so the tracker is mutex-guarded. It is owned by the
// stage scheduler; nothing else writes to it.
package tracker

import "sync"

// Participant identifies one confirmed attendee.
type Participant struct {
	ID   int64
	Name string
}

type cycle struct {
	members map[int64]int // participant id -> insertion index
	order   []Participant
}

// Tracker maps cycle keys to confirmation sets. All operations on unknown
// or retired keys behave as fresh-empty-set, never as errors.
type Tracker struct {
	mu     sync.Mutex
	cycles map[string]*cycle
}

func New() *Tracker {
	return &Tracker{cycles: map[string]*cycle{}}
}

// Ensure lazily opens a cycle so a fired stage has a live set even before
// the first confirmation arrives.
func (t *Tracker) Ensure(key string) {
	t.mu.Lock()
	t.ensureLocked(key)
	t.mu.Unlock()
}

func (t *Tracker) ensureLocked(key string) *cycle {
	c := t.cycles[key]
	if c == nil {
		c = &cycle{members: map[int64]int{}}
		t.cycles[key] = c
	}
	return c
}

// Confirm records p for the cycle. Confirming twice is the same as once.
func (t *Tracker) Confirm(key string, p Participant) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.ensureLocked(key)
	if _, ok := c.members[p.ID]; ok {
		return
	}
	c.members[p.ID] = len(c.order)
	c.order = append(c.order, p)
}

// Retract removes p from the cycle. Retracting an absent participant is a
// no-op.
func (t *Tracker) Retract(key string, p Participant) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.cycles[key]
	if c == nil {
		return
	}
	idx, ok := c.members[p.ID]
	if !ok {
		return
	}
	delete(c.members, p.ID)
	c.order = append(c.order[:idx], c.order[idx+1:]...)
	for i := idx; i < len(c.order); i++ {
		c.members[c.order[i].ID] = i
	}
}

// Has reports whether p is currently confirmed for the cycle.
func (t *Tracker) Has(key string, p Participant) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.cycles[key]
	if c == nil {
		return false
	}
	_, ok := c.members[p.ID]
	return ok
}

// Confirmed returns the cycle's participants in insertion order. Unknown
// keys yield an empty slice.
func (t *Tracker) Confirmed(key string) []Participant {
	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.cycles[key]
	if c == nil {
		return nil
	}
	return append([]Participant(nil), c.order...)
}

// Retire discards the cycle's set. Later operations on the key see a fresh
// empty cycle.
func (t *Tracker) Retire(key string) {
	t.mu.Lock()
	delete(t.cycles, key)
	t.mu.Unlock()
}

// Open returns the number of live cycles (for metrics/status).
func (t *Tracker) Open() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.cycles)
}
