// Package statusstore broadcasts component readiness as an explicit
// service object: a typed snapshot plus a listener registry, constructed
// once per session and passed by reference to consumers.
package statusstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

type Status string

const (
	StatusUnknown  Status = "unknown"
	StatusStarting Status = "starting"
	StatusReady    Status = "ready"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// Snapshot is a point-in-time copy of all component statuses.
type Snapshot map[string]Status

// ErrReadinessTimeout is returned when a bounded readiness wait expires.
// Callers may retry.
var ErrReadinessTimeout = errors.New("readiness wait timed out")

const defaultReadinessTimeout = 10 * time.Second

type Store struct {
	mu         sync.RWMutex
	components map[string]Status
	listeners  map[int]func(Snapshot)
	nextID     int
}

func New() *Store {
	return &Store{
		components: map[string]Status{},
		listeners:  map[int]func(Snapshot){},
	}
}

// Set records a component's status and notifies all listeners with a
// snapshot copy. Setting the same status twice is a no-op.
func (s *Store) Set(component string, status Status) {
	s.mu.Lock()
	if s.components[component] == status {
		s.mu.Unlock()
		return
	}
	s.components[component] = status

	snapshot := s.snapshotLocked()
	listeners := make([]func(Snapshot), 0, len(s.listeners))
	for _, listener := range s.listeners {
		listeners = append(listeners, listener)
	}
	s.mu.Unlock()

	for _, listener := range listeners {
		listener(snapshot)
	}
}

// Get returns the component's current status, StatusUnknown when unset.
func (s *Store) Get(component string) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if status, ok := s.components[component]; ok {
		return status
	}
	return StatusUnknown
}

// Ready reports whether the component is in StatusReady.
func (s *Store) Ready(component string) bool {
	return s.Get(component) == StatusReady
}

// Snapshot returns a copy of all component statuses.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snapshot := make(Snapshot, len(s.components))
	for component, status := range s.components {
		snapshot[component] = status
	}
	return snapshot
}

// Subscribe registers a listener invoked on every status change. The
// returned function unregisters it; calling it more than once is safe.
func (s *Store) Subscribe(listener func(Snapshot)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = listener
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// AwaitReady blocks until the component reaches StatusReady, the context
// is cancelled, or the bounded wait expires. A timeout of zero or less
// uses the 10 second default. Expiry surfaces ErrReadinessTimeout, a
// retryable condition.
func (s *Store) AwaitReady(ctx context.Context, component string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = defaultReadinessTimeout
	}

	ready := make(chan struct{}, 1)
	unsubscribe := s.Subscribe(func(snapshot Snapshot) {
		if snapshot[component] == StatusReady {
			select {
			case ready <- struct{}{}:
			default:
			}
		}
	})
	defer unsubscribe()

	if s.Ready(component) {
		return nil
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-deadline.C:
		return fmt.Errorf("component %q not ready after %v: %w", component, timeout, ErrReadinessTimeout)
	}
}
