// Package models defines the registry entities: authorization keys, claims,
// and execution requests.
package models

import (
	"slices"

	id "selfid/pkg/domain"
)

// Key is an authorization key held by the identity. A key exists only while
// its purpose set is non-empty; removal of the last purpose deletes it.
type Key struct {
	ID       id.KeyID
	Purposes []id.Purpose
	Type     id.KeyType
}

// HasPurpose reports whether the key carries the given purpose.
func (k Key) HasPurpose(p id.Purpose) bool {
	return slices.Contains(k.Purposes, p)
}

// AddPurpose returns the key with the purpose added. Adding an already-held
// purpose is a no-op; the purpose list stays duplicate-free.
func (k Key) AddPurpose(p id.Purpose) Key {
	if k.HasPurpose(p) {
		return k
	}
	k.Purposes = append(slices.Clone(k.Purposes), p)
	return k
}

// RemovePurpose returns the key with the purpose removed. Removing a purpose
// the key never had is a no-op.
func (k Key) RemovePurpose(p id.Purpose) Key {
	out := make([]id.Purpose, 0, len(k.Purposes))
	for _, held := range k.Purposes {
		if held != p {
			out = append(out, held)
		}
	}
	k.Purposes = out
	return k
}

// Claim is an attribute assertion about the identity, addressed by the
// digest of (issuer, topic). Signature is empty for self-claims; URI points
// to out-of-band evidence and defaults to empty.
type Claim struct {
	ID        id.ClaimID
	Topic     id.Topic
	Scheme    id.Scheme
	Issuer    id.Address
	Signature []byte
	Data      []byte
	URI       string
}

// IsZero reports whether the claim is the zero value, the shape GetClaim
// returns for unknown ids (absence is data, not an error).
func (c Claim) IsZero() bool {
	return c.ID == "" && c.Topic == 0 && c.Scheme == 0 && c.Issuer == "" &&
		len(c.Signature) == 0 && len(c.Data) == 0 && c.URI == ""
}

// RequestStatus is the lifecycle of an execution request. There is no
// rejected state; a request below threshold simply stays pending.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestExecuted RequestStatus = "executed"
)

// ExecutionRequest is a proposed external call awaiting threshold approval.
// IDs increase monotonically and are never reused. Once executed the request
// is terminal regardless of whether the inner call succeeded.
type ExecutionRequest struct {
	ID        uint64
	Target    id.Address
	Value     uint64
	Payload   []byte
	Approvals map[id.KeyID]struct{}
	Status    RequestStatus
	// Succeeded records the inner call's outcome once Status is executed.
	Succeeded bool
}

// Approved reports whether the given key currently approves the request.
func (r ExecutionRequest) Approved(key id.KeyID) bool {
	_, ok := r.Approvals[key]
	return ok
}

// ApprovalCount is the number of distinct approving keys.
func (r ExecutionRequest) ApprovalCount() int { return len(r.Approvals) }
