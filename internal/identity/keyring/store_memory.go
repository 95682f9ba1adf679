// Package keyring is the authorization key registry: which keys exist on the
// identity and which purposes each one may authorize.
package keyring

import (
	"context"
	"fmt"
	"sync"

	"selfid/internal/identity/models"
	id "selfid/pkg/domain"
	"selfid/pkg/platform/sentinel"
)

// Store persists keys. Compound mutations (purpose add/remove with key
// creation/deletion) are single store calls so each is atomic.
type Store interface {
	// AddPurpose grants a purpose, creating the key with the given type if
	// it is unknown. Granting an already-held purpose is a no-op; created
	// reports whether the key came into existence on this call.
	AddPurpose(ctx context.Context, keyID id.KeyID, purpose id.Purpose, keyType id.KeyType) (created bool, err error)
	// RemovePurpose revokes a purpose. A key whose purpose set empties is
	// deleted; deleted reports that. Unknown keys and purposes the key never
	// held are no-op successes.
	RemovePurpose(ctx context.Context, keyID id.KeyID, purpose id.Purpose) (deleted bool, err error)
	Find(ctx context.Context, keyID id.KeyID) (models.Key, error)
	ListByPurpose(ctx context.Context, purpose id.Purpose) ([]id.KeyID, error)
}

// InMemoryStore keeps keys in a map. The reference implementation; favors
// clarity over performance.
type InMemoryStore struct {
	mu   sync.RWMutex
	keys map[id.KeyID]models.Key
}

// NewInMemoryStore constructs an empty key store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{keys: make(map[id.KeyID]models.Key)}
}

func (s *InMemoryStore) AddPurpose(_ context.Context, keyID id.KeyID, purpose id.Purpose, keyType id.KeyType) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.keys[keyID]
	if !ok {
		s.keys[keyID] = models.Key{ID: keyID, Purposes: []id.Purpose{purpose}, Type: keyType}
		return true, nil
	}
	s.keys[keyID] = key.AddPurpose(purpose)
	return false, nil
}

func (s *InMemoryStore) RemovePurpose(_ context.Context, keyID id.KeyID, purpose id.Purpose) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.keys[keyID]
	if !ok {
		return false, nil
	}
	key = key.RemovePurpose(purpose)
	if len(key.Purposes) == 0 {
		delete(s.keys, keyID)
		return true, nil
	}
	s.keys[keyID] = key
	return false, nil
}

func (s *InMemoryStore) Find(_ context.Context, keyID id.KeyID) (models.Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if key, ok := s.keys[keyID]; ok {
		return key, nil
	}
	return models.Key{}, fmt.Errorf("key %s: %w", keyID, sentinel.ErrNotFound)
}

func (s *InMemoryStore) ListByPurpose(_ context.Context, purpose id.Purpose) ([]id.KeyID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []id.KeyID
	for _, key := range s.keys {
		if key.HasPurpose(purpose) {
			out = append(out, key.ID)
		}
	}
	return out, nil
}
