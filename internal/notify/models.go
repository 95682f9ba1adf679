// Package notify carries the registry's change notifications to off-core
// observers. Events are emitted after a mutation commits; delivery is best
// effort and nothing in the registries depends on it.
package notify

import (
	"time"

	"github.com/google/uuid"

	id "selfid/pkg/domain"
)

// Kind names a notification.
type Kind string

const (
	KindKeyAdded           Kind = "key_added"
	KindKeyRemoved         Kind = "key_removed"
	KindExecutionRequested Kind = "execution_requested"
	KindExecutionApproved  Kind = "execution_approved"
	KindExecutionExecuted  Kind = "execution_executed"
	KindClaimAdded         Kind = "claim_added"
	KindClaimRemoved       Kind = "claim_removed"
)

// Event is the notification envelope. Only the fields relevant to the kind
// are populated; the envelope stays flat so sinks can serialize it directly.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Kind      Kind      `json:"kind"`
	Timestamp time.Time `json:"timestamp"`

	// Key events.
	KeyID   id.KeyID   `json:"key_id,omitempty"`
	Purpose id.Purpose `json:"purpose,omitempty"`
	KeyType id.KeyType `json:"key_type,omitempty"`

	// Execution events.
	RequestID uint64     `json:"request_id,omitempty"`
	Approver  id.KeyID   `json:"approver,omitempty"`
	Approved  bool       `json:"approved,omitempty"`
	Target    id.Address `json:"target,omitempty"`
	Value     uint64     `json:"value,omitempty"`
	Succeeded bool       `json:"succeeded,omitempty"`

	// Claim events.
	ClaimID id.ClaimID `json:"claim_id,omitempty"`
	Topic   id.Topic   `json:"topic,omitempty"`
	Scheme  id.Scheme  `json:"scheme,omitempty"`
	Issuer  id.Address `json:"issuer,omitempty"`
}
