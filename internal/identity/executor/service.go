package executor

import (
	"context"
	"log/slog"
	"sync"

	"selfid/internal/identity/models"
	"selfid/internal/notify"
	id "selfid/pkg/domain"
	dErrors "selfid/pkg/domain-errors"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Invoker

// Invoker performs the external call a request was created for. The hosting
// environment guarantees the call either succeeds or fully rolls back; the
// executor attempts it exactly once and never retries, because replaying a
// captured payload against updated state could have unintended effects.
type Invoker interface {
	Invoke(ctx context.Context, target id.Address, value uint64, payload []byte) error
}

// Authorizer answers purpose checks against the key registry.
type Authorizer interface {
	HasPurpose(ctx context.Context, caller id.Address, purpose id.Purpose) bool
	KeyHasPurpose(ctx context.Context, key id.KeyID, purpose id.Purpose) bool
}

// Notifier receives registry change events; nil disables emission.
type Notifier interface {
	Emit(ctx context.Context, event notify.Event) error
}

// Service runs the request state machine: Pending -> Executed, one terminal
// transition, no rejected state. A MANAGEMENT approver alone satisfies the
// threshold; ACTION-only approvers need actionThreshold distinct keys.
type Service struct {
	store           Store
	invoker         Invoker
	auth            Authorizer
	notifier        Notifier
	logger          *slog.Logger
	actionThreshold int

	// mu serializes the check-then-transition sequence so a request executes
	// at most once even with concurrent approvals.
	mu sync.Mutex
}

// NewService wires the approval executor. actionThreshold below 1 is
// clamped to 1.
func NewService(store Store, invoker Invoker, auth Authorizer, notifier Notifier, logger *slog.Logger, actionThreshold int) *Service {
	if actionThreshold < 1 {
		actionThreshold = 1
	}
	return &Service{
		store:           store,
		invoker:         invoker,
		auth:            auth,
		notifier:        notifier,
		logger:          logger,
		actionThreshold: actionThreshold,
	}
}

// Execute files a request for an external call with the caller's own
// approval pre-recorded, and attempts it immediately when that single
// approval already meets the threshold. Returns the allocated request id.
func (s *Service) Execute(ctx context.Context, caller id.Address, target id.Address, value uint64, payload []byte) (uint64, error) {
	if !s.canAct(ctx, caller) {
		return 0, dErrors.New(dErrors.CodeUnauthorized, "caller lacks management or action purpose")
	}
	callerKey := id.KeyIDFromAddress(caller)

	s.mu.Lock()
	defer s.mu.Unlock()

	requestID, err := s.store.Create(ctx, models.ExecutionRequest{
		Target:    target,
		Value:     value,
		Payload:   payload,
		Approvals: map[id.KeyID]struct{}{callerKey: {}},
	})
	if err != nil {
		return 0, dErrors.Wrap(dErrors.CodeInternal, "create execution request", err)
	}
	s.emit(ctx, notify.Event{Kind: notify.KindExecutionRequested, RequestID: requestID, Target: target, Value: value})

	request, err := s.store.Find(ctx, requestID)
	if err != nil {
		return 0, dErrors.Wrap(dErrors.CodeInternal, "load execution request", err)
	}
	if s.thresholdMet(ctx, request) {
		s.attempt(ctx, request)
	}
	return requestID, nil
}

// Approve records (decision true) or withdraws (decision false) the caller's
// approval. When the change brings the distinct-approver count to threshold
// the external call is attempted exactly once and the request becomes
// Executed regardless of the inner outcome. The returned boolean is the
// inner call's success when this approval triggered execution, true
// otherwise. Unknown ids and already-executed requests return NotFound:
// terminal requests leave the pending set.
func (s *Service) Approve(ctx context.Context, caller id.Address, requestID uint64, decision bool) (bool, error) {
	if !s.canAct(ctx, caller) {
		return false, dErrors.New(dErrors.CodeUnauthorized, "caller lacks management or action purpose")
	}
	callerKey := id.KeyIDFromAddress(caller)

	s.mu.Lock()
	defer s.mu.Unlock()

	request, err := s.store.Find(ctx, requestID)
	if err != nil {
		return false, dErrors.Wrap(dErrors.CodeNotFound, "unknown execution request", err)
	}
	if request.Status == models.RequestExecuted {
		return false, dErrors.New(dErrors.CodeNotFound, "execution request already executed")
	}

	request, err = s.store.SetApproval(ctx, requestID, callerKey, decision)
	if err != nil {
		return false, dErrors.Wrap(dErrors.CodeInternal, "record approval", err)
	}
	s.emit(ctx, notify.Event{Kind: notify.KindExecutionApproved, RequestID: requestID, Approver: callerKey, Approved: decision})

	if decision && s.thresholdMet(ctx, request) {
		return s.attempt(ctx, request), nil
	}
	return true, nil
}

// GetRequest returns a request by id. NotFound for unknown ids.
func (s *Service) GetRequest(ctx context.Context, requestID uint64) (models.ExecutionRequest, error) {
	request, err := s.store.Find(ctx, requestID)
	if err != nil {
		return models.ExecutionRequest{}, dErrors.Wrap(dErrors.CodeNotFound, "unknown execution request", err)
	}
	return request, nil
}

// PendingCount reports requests still below threshold.
func (s *Service) PendingCount(ctx context.Context) int {
	count, err := s.store.PendingCount(ctx)
	if err != nil {
		return 0
	}
	return count
}

// attempt performs the inner call once and seals the request. Inner failure
// is reported, not returned: the request is terminal either way.
func (s *Service) attempt(ctx context.Context, request models.ExecutionRequest) bool {
	err := s.invoker.Invoke(ctx, request.Target, request.Value, request.Payload)
	succeeded := err == nil
	if err != nil {
		s.logger.Warn("execution inner call failed", "request_id", request.ID, "error", err)
	}
	if markErr := s.store.MarkExecuted(ctx, request.ID, succeeded); markErr != nil {
		s.logger.Error("sealing executed request", "request_id", request.ID, "error", markErr)
	}
	s.emit(ctx, notify.Event{Kind: notify.KindExecutionExecuted, RequestID: request.ID, Target: request.Target, Value: request.Value, Succeeded: succeeded})
	return succeeded
}

func (s *Service) thresholdMet(ctx context.Context, request models.ExecutionRequest) bool {
	for key := range request.Approvals {
		if s.auth.KeyHasPurpose(ctx, key, id.PurposeManagement) {
			return true
		}
	}
	return request.ApprovalCount() >= s.actionThreshold
}

func (s *Service) canAct(ctx context.Context, caller id.Address) bool {
	return s.auth.HasPurpose(ctx, caller, id.PurposeManagement) ||
		s.auth.HasPurpose(ctx, caller, id.PurposeAction)
}

func (s *Service) emit(ctx context.Context, event notify.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Emit(ctx, event); err != nil {
		s.logger.Warn("emitting execution event", "kind", event.Kind, "error", err)
	}
}
