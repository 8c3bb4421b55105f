package journal

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu      sync.Mutex
	closed  bool
	markers map[string]time.Time // marker key -> recorded at
}

func newMemory() *memoryStore {
	return &memoryStore{markers: map[string]time.Time{}}
}

func (s *memoryStore) MarkSent(ctx context.Context, cycleKey string, offset time.Duration) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.markers[markerKey(cycleKey, offset)] = time.Now()
	return nil
}

func (s *memoryStore) WasSent(ctx context.Context, cycleKey string, offset time.Duration) (bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}
	_, ok := s.markers[markerKey(cycleKey, offset)]
	return ok, nil
}

func (s *memoryStore) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	var n int64
	for k, at := range s.markers {
		if at.Before(cutoff) {
			delete(s.markers, k)
			n++
		}
	}
	return n, nil
}

func (s *memoryStore) Close() error {
	s.mu.Lock()
	s.closed = true
	s.markers = nil
	s.mu.Unlock()
	return nil
}
