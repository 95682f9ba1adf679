// Package facade composes the key registry, claim registry, and approval
// executor into one addressable identity. It forwards calls with an explicit
// caller address and wraps each mutation in a trace span; business rules
// live in the registries themselves.
package facade

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"selfid/internal/identity/claims"
	"selfid/internal/identity/executor"
	"selfid/internal/identity/keyring"
	"selfid/internal/identity/models"
	id "selfid/pkg/domain"
	"selfid/pkg/platform/bytesutil"
)

const tracerName = "selfid/internal/identity/facade"

// Identity is one self-sovereign identity: a key registry, a claim registry,
// and an approval executor behind a single address. All mutable state is
// exclusively owned by this instance; there is no cross-identity sharing.
type Identity struct {
	address  id.Address
	keys     *keyring.Service
	claims   *claims.Service
	executor *executor.Service
	tracer   trace.Tracer
}

// New composes an identity from its three registries.
func New(address id.Address, keys *keyring.Service, claimSvc *claims.Service, exec *executor.Service) *Identity {
	return &Identity{
		address:  address,
		keys:     keys,
		claims:   claimSvc,
		executor: exec,
		tracer:   otel.Tracer(tracerName),
	}
}

// Address returns the identity's own address.
func (i *Identity) Address() id.Address { return i.address }

// --- key registry ---

func (i *Identity) AddKey(ctx context.Context, caller id.Address, keyID id.KeyID, purpose id.Purpose, keyType id.KeyType) error {
	ctx, span := i.span(ctx, "AddKey", caller)
	defer span.End()
	return i.keys.AddKey(ctx, caller, keyID, purpose, keyType)
}

func (i *Identity) RemoveKey(ctx context.Context, caller id.Address, keyID id.KeyID, purpose id.Purpose) error {
	ctx, span := i.span(ctx, "RemoveKey", caller)
	defer span.End()
	return i.keys.RemoveKey(ctx, caller, keyID, purpose)
}

func (i *Identity) GetKey(ctx context.Context, keyID id.KeyID) models.Key {
	return i.keys.GetKey(ctx, keyID)
}

func (i *Identity) GetKeyPurposes(ctx context.Context, keyID id.KeyID) []id.Purpose {
	return i.keys.GetKeyPurposes(ctx, keyID)
}

func (i *Identity) GetKeysByPurpose(ctx context.Context, purpose id.Purpose) []id.KeyID {
	return i.keys.GetKeysByPurpose(ctx, purpose)
}

func (i *Identity) KeyHasPurpose(ctx context.Context, keyID id.KeyID, purpose id.Purpose) bool {
	return i.keys.KeyHasPurpose(ctx, keyID, purpose)
}

// --- approval executor ---

func (i *Identity) Execute(ctx context.Context, caller id.Address, target id.Address, value uint64, payload []byte) (uint64, error) {
	ctx, span := i.span(ctx, "Execute", caller)
	defer span.End()
	return i.executor.Execute(ctx, caller, target, value, payload)
}

func (i *Identity) Approve(ctx context.Context, caller id.Address, requestID uint64, decision bool) (bool, error) {
	ctx, span := i.span(ctx, "Approve", caller)
	defer span.End()
	return i.executor.Approve(ctx, caller, requestID, decision)
}

func (i *Identity) GetRequest(ctx context.Context, requestID uint64) (models.ExecutionRequest, error) {
	return i.executor.GetRequest(ctx, requestID)
}

func (i *Identity) PendingRequests(ctx context.Context) int {
	return i.executor.PendingCount(ctx)
}

// --- claim registry ---

func (i *Identity) AddClaim(ctx context.Context, caller id.Address, topic id.Topic, scheme id.Scheme, issuer id.Address, signature, data []byte, uri string) (id.ClaimID, error) {
	ctx, span := i.span(ctx, "AddClaim", caller)
	defer span.End()
	return i.claims.AddClaim(ctx, caller, topic, scheme, issuer, signature, data, uri)
}

func (i *Identity) AddClaims(ctx context.Context, caller id.Address, topics []id.Topic, issuers []id.Address, packedSignatures, packedData []byte, dataLengths []int) error {
	ctx, span := i.span(ctx, "AddClaims", caller)
	defer span.End()
	return i.claims.AddClaims(ctx, caller, topics, issuers, packedSignatures, packedData, dataLengths)
}

func (i *Identity) RemoveClaim(ctx context.Context, caller id.Address, claimID id.ClaimID) error {
	ctx, span := i.span(ctx, "RemoveClaim", caller)
	defer span.End()
	return i.claims.RemoveClaim(ctx, caller, claimID)
}

func (i *Identity) GetClaim(ctx context.Context, claimID id.ClaimID) models.Claim {
	return i.claims.GetClaim(ctx, claimID)
}

func (i *Identity) GetClaimIDsByTopic(ctx context.Context, topic id.Topic) []id.ClaimID {
	return i.claims.GetClaimIDsByTopic(ctx, topic)
}

// ExtractRange is the byte-range utility the claim batch decoder uses,
// exposed for callers assembling or validating packed buffers.
func (i *Identity) ExtractRange(buffer []byte, offset, length int) ([]byte, error) {
	return bytesutil.ExtractRange(buffer, offset, length)
}

func (i *Identity) span(ctx context.Context, op string, caller id.Address) (context.Context, trace.Span) {
	return i.tracer.Start(ctx, "identity."+op, trace.WithAttributes(
		attribute.String("identity.address", string(i.address)),
		attribute.String("identity.caller", string(caller)),
	))
}
