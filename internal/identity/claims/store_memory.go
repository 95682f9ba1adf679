package claims

import (
	"context"
	"fmt"
	"sync"

	"selfid/internal/identity/models"
	id "selfid/pkg/domain"
	"selfid/pkg/platform/sentinel"
)

// Store persists claims and the per-topic index. The two must stay
// consistent under insert and remove; batch puts are all-or-nothing.
type Store interface {
	// Put inserts or overwrites the claim at its id. created reports whether
	// the id was new (and so was appended to its topic's index).
	Put(ctx context.Context, claim models.Claim) (created bool, err error)
	// PutBatch applies every claim or none.
	PutBatch(ctx context.Context, batch []models.Claim) error
	Find(ctx context.Context, claimID id.ClaimID) (models.Claim, error)
	// Remove deletes the claim and drops its id from the topic index,
	// returning the removed claim. ErrNotFound for unknown ids.
	Remove(ctx context.Context, claimID id.ClaimID) (models.Claim, error)
	IDsByTopic(ctx context.Context, topic id.Topic) ([]id.ClaimID, error)
}

// InMemoryStore keeps claims in maps. The reference implementation for the
// registry's overwrite and index semantics.
type InMemoryStore struct {
	mu      sync.RWMutex
	claims  map[id.ClaimID]models.Claim
	byTopic map[id.Topic][]id.ClaimID
}

// NewInMemoryStore constructs an empty claim store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		claims:  make(map[id.ClaimID]models.Claim),
		byTopic: make(map[id.Topic][]id.ClaimID),
	}
}

func (s *InMemoryStore) Put(_ context.Context, claim models.Claim) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(claim), nil
}

func (s *InMemoryStore) PutBatch(_ context.Context, batch []models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Map writes cannot fail, so applying under one lock is already
	// all-or-nothing.
	for _, claim := range batch {
		s.put(claim)
	}
	return nil
}

func (s *InMemoryStore) put(claim models.Claim) bool {
	_, existed := s.claims[claim.ID]
	s.claims[claim.ID] = claim
	if !existed {
		s.byTopic[claim.Topic] = append(s.byTopic[claim.Topic], claim.ID)
	}
	return !existed
}

func (s *InMemoryStore) Find(_ context.Context, claimID id.ClaimID) (models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if claim, ok := s.claims[claimID]; ok {
		return claim, nil
	}
	return models.Claim{}, fmt.Errorf("claim %s: %w", claimID, sentinel.ErrNotFound)
}

func (s *InMemoryStore) Remove(_ context.Context, claimID id.ClaimID) (models.Claim, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claim, ok := s.claims[claimID]
	if !ok {
		return models.Claim{}, fmt.Errorf("claim %s: %w", claimID, sentinel.ErrNotFound)
	}
	delete(s.claims, claimID)

	// Swap-with-last removal: O(1), at the cost of index order. Callers must
	// treat the topic index as unordered membership once removals happen.
	ids := s.byTopic[claim.Topic]
	for i, existing := range ids {
		if existing == claimID {
			ids[i] = ids[len(ids)-1]
			ids = ids[:len(ids)-1]
			break
		}
	}
	if len(ids) == 0 {
		delete(s.byTopic, claim.Topic)
	} else {
		s.byTopic[claim.Topic] = ids
	}
	return claim, nil
}

func (s *InMemoryStore) IDsByTopic(_ context.Context, topic id.Topic) ([]id.ClaimID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]id.ClaimID{}, s.byTopic[topic]...), nil
}
