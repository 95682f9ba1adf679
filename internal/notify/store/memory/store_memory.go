// Package memory holds the in-memory notification journal for tests/dev.
package memory

import (
	"context"
	"sync"

	"selfid/internal/notify"
)

// InMemoryStore keeps the journal in an append-only slice.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []notify.Event
}

// New constructs an empty journal.
func New() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event notify.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]notify.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]notify.Event{}, s.events...), nil
}
