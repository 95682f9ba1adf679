// Package executor gates arbitrary external actions behind threshold
// approval from the key registry.
package executor

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"selfid/internal/identity/models"
	id "selfid/pkg/domain"
	"selfid/pkg/platform/sentinel"
)

// Store persists execution requests. IDs are allocated monotonically and
// never reused.
type Store interface {
	// Create assigns the next request id and stores the request as pending.
	Create(ctx context.Context, request models.ExecutionRequest) (uint64, error)
	Find(ctx context.Context, requestID uint64) (models.ExecutionRequest, error)
	// SetApproval records or withdraws a key's approval and returns the
	// updated request. Recording an existing approval is a no-op.
	SetApproval(ctx context.Context, requestID uint64, key id.KeyID, approved bool) (models.ExecutionRequest, error)
	// MarkExecuted transitions the request to its terminal state.
	MarkExecuted(ctx context.Context, requestID uint64, succeeded bool) error
	// PendingCount reports how many requests are still below threshold, a
	// capacity signal (stale requests persist indefinitely).
	PendingCount(ctx context.Context) (int, error)
}

// InMemoryStore keeps requests in a map with a monotonic counter.
type InMemoryStore struct {
	mu       sync.RWMutex
	nextID   uint64
	requests map[uint64]models.ExecutionRequest
}

// NewInMemoryStore constructs an empty request store. The first allocated
// id is 1; 0 never names a request.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[uint64]models.ExecutionRequest)}
}

func (s *InMemoryStore) Create(_ context.Context, request models.ExecutionRequest) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	request.ID = s.nextID
	request.Status = models.RequestPending
	if request.Approvals == nil {
		request.Approvals = make(map[id.KeyID]struct{})
	}
	s.requests[request.ID] = request
	return request.ID, nil
}

func (s *InMemoryStore) Find(_ context.Context, requestID uint64) (models.ExecutionRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	request, ok := s.requests[requestID]
	if !ok {
		return models.ExecutionRequest{}, fmt.Errorf("request %d: %w", requestID, sentinel.ErrNotFound)
	}
	return cloneRequest(request), nil
}

func (s *InMemoryStore) SetApproval(_ context.Context, requestID uint64, key id.KeyID, approved bool) (models.ExecutionRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[requestID]
	if !ok {
		return models.ExecutionRequest{}, fmt.Errorf("request %d: %w", requestID, sentinel.ErrNotFound)
	}
	if approved {
		request.Approvals[key] = struct{}{}
	} else {
		delete(request.Approvals, key)
	}
	s.requests[requestID] = request
	return cloneRequest(request), nil
}

func (s *InMemoryStore) MarkExecuted(_ context.Context, requestID uint64, succeeded bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[requestID]
	if !ok {
		return fmt.Errorf("request %d: %w", requestID, sentinel.ErrNotFound)
	}
	if request.Status == models.RequestExecuted {
		return fmt.Errorf("request %d already executed: %w", requestID, sentinel.ErrInvalidState)
	}
	request.Status = models.RequestExecuted
	request.Succeeded = succeeded
	s.requests[requestID] = request
	return nil
}

func (s *InMemoryStore) PendingCount(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, request := range s.requests {
		if request.Status == models.RequestPending {
			count++
		}
	}
	return count, nil
}

func cloneRequest(request models.ExecutionRequest) models.ExecutionRequest {
	request.Approvals = maps.Clone(request.Approvals)
	return request
}
