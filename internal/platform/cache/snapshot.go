package cache

import (
	"context"
	"sync"
)

// Snapshot holds a single value that is replaced wholesale. Readers can block
// on Wait until the first value has been stored.
type Snapshot[T any] struct {
	mu    sync.RWMutex
	value T
	set   bool
	ready chan struct{}
	once  sync.Once
}

func NewSnapshot[T any]() *Snapshot[T] {
	return &Snapshot[T]{ready: make(chan struct{})}
}

// Store replaces the current value and opens the readiness gate on first use.
func (s *Snapshot[T]) Store(value T) {
	s.mu.Lock()
	s.value = value
	s.set = true
	s.mu.Unlock()

	s.once.Do(func() { close(s.ready) })
}

func (s *Snapshot[T]) Load() (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.set
}

func (s *Snapshot[T]) Ready() bool {
	select {
	case <-s.ready:
		return true
	default:
		return false
	}
}

// Wait blocks until the gate is open or ctx is done.
func (s *Snapshot[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-s.ready:
		value, _ := s.Load()
		return value, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
