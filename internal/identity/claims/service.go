package claims

import (
	"context"
	"log/slog"

	"selfid/internal/identity/models"
	"selfid/internal/notify"
	id "selfid/pkg/domain"
	dErrors "selfid/pkg/domain-errors"
	"selfid/pkg/platform/bytesutil"
)

// signatureWidth is the fixed per-element width of packed signature buffers
// in batch adds (recoverable ECDSA signature size).
const signatureWidth = 65

// Authorizer answers whether a caller's key holds a purpose. Satisfied by
// the keyring service.
type Authorizer interface {
	HasPurpose(ctx context.Context, caller id.Address, purpose id.Purpose) bool
}

// Notifier receives registry change events; nil disables emission.
type Notifier interface {
	Emit(ctx context.Context, event notify.Event) error
}

// Service enforces authorization and batch decoding over the claim store.
// A caller may write a claim when it is the issuer itself (self-claim) or
// when its key holds the CLAIM purpose.
type Service struct {
	store    Store
	auth     Authorizer
	notifier Notifier
	logger   *slog.Logger
}

// NewService wires the claim registry service.
func NewService(store Store, auth Authorizer, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{store: store, auth: auth, notifier: notifier, logger: logger}
}

// AddClaim inserts or overwrites the claim addressed by (issuer, topic).
// There is no separate update operation: re-adding the pair replaces the
// claim wholesale.
func (s *Service) AddClaim(ctx context.Context, caller id.Address, topic id.Topic, scheme id.Scheme, issuer id.Address, signature, data []byte, uri string) (id.ClaimID, error) {
	if err := s.authorize(ctx, caller, issuer); err != nil {
		return "", err
	}
	claim := models.Claim{
		ID:        ComputeClaimID(issuer, topic),
		Topic:     topic,
		Scheme:    scheme,
		Issuer:    issuer,
		Signature: signature,
		Data:      data,
		URI:       uri,
	}
	if _, err := s.store.Put(ctx, claim); err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "add claim", err)
	}
	s.emit(ctx, notify.Event{Kind: notify.KindClaimAdded, ClaimID: claim.ID, Topic: topic, Scheme: scheme, Issuer: issuer})
	return claim.ID, nil
}

// AddClaims is the batch form. Element i takes its signature from the i-th
// fixed-width slice of packedSignatures (an empty buffer means no signatures
// at all) and its data from the next dataLengths[i] bytes of packedData.
// The batch is all-or-nothing: every element is decoded and authorized
// before anything is written.
func (s *Service) AddClaims(ctx context.Context, caller id.Address, topics []id.Topic, issuers []id.Address, packedSignatures, packedData []byte, dataLengths []int) error {
	n := len(topics)
	if len(issuers) != n || len(dataLengths) != n {
		return dErrors.New(dErrors.CodeLengthMismatch, "batch arrays disagree in element count")
	}
	if len(packedSignatures) != 0 && len(packedSignatures) != n*signatureWidth {
		return dErrors.New(dErrors.CodeLengthMismatch, "packed signatures do not match element count")
	}

	batch := make([]models.Claim, 0, n)
	offset := 0
	for i := range n {
		var signature []byte
		if len(packedSignatures) != 0 {
			sig, err := bytesutil.ExtractRange(packedSignatures, i*signatureWidth, signatureWidth)
			if err != nil {
				return dErrors.Wrap(dErrors.CodeOutOfRange, "batch signature decode", err)
			}
			signature = sig
		}
		data, err := bytesutil.ExtractRange(packedData, offset, dataLengths[i])
		if err != nil {
			return dErrors.Wrap(dErrors.CodeOutOfRange, "batch data decode", err)
		}
		offset += dataLengths[i]

		if err := s.authorize(ctx, caller, issuers[i]); err != nil {
			return err
		}
		batch = append(batch, models.Claim{
			ID:        ComputeClaimID(issuers[i], topics[i]),
			Topic:     topics[i],
			Scheme:    id.SchemeECDSA,
			Issuer:    issuers[i],
			Signature: signature,
			Data:      data,
		})
	}
	if offset != len(packedData) {
		return dErrors.New(dErrors.CodeLengthMismatch, "packed data has leftover bytes")
	}

	if err := s.store.PutBatch(ctx, batch); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "add claims", err)
	}
	for _, claim := range batch {
		s.emit(ctx, notify.Event{Kind: notify.KindClaimAdded, ClaimID: claim.ID, Topic: claim.Topic, Scheme: claim.Scheme, Issuer: claim.Issuer})
	}
	return nil
}

// RemoveClaim deletes a claim. Only the recorded issuer or a CLAIM-purpose
// key may remove it; removing an absent id is NotFound, so a second removal
// of the same id fails.
func (s *Service) RemoveClaim(ctx context.Context, caller id.Address, claimID id.ClaimID) error {
	claim, err := s.store.Find(ctx, claimID)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeNotFound, "claim not found", err)
	}
	if err := s.authorize(ctx, caller, claim.Issuer); err != nil {
		return err
	}
	if _, err := s.store.Remove(ctx, claimID); err != nil {
		return dErrors.Wrap(dErrors.CodeNotFound, "claim not found", err)
	}
	s.emit(ctx, notify.Event{Kind: notify.KindClaimRemoved, ClaimID: claimID, Topic: claim.Topic, Scheme: claim.Scheme, Issuer: claim.Issuer})
	return nil
}

// GetClaim is total: unknown ids return the zero Claim, never an error.
func (s *Service) GetClaim(ctx context.Context, claimID id.ClaimID) models.Claim {
	claim, err := s.store.Find(ctx, claimID)
	if err != nil {
		return models.Claim{}
	}
	return claim
}

// GetClaimIDsByTopic is total: topics with no claims return an empty slice.
// Order is insertion order until a removal reorders the index.
func (s *Service) GetClaimIDsByTopic(ctx context.Context, topic id.Topic) []id.ClaimID {
	ids, err := s.store.IDsByTopic(ctx, topic)
	if err != nil {
		return nil
	}
	return ids
}

func (s *Service) authorize(ctx context.Context, caller, issuer id.Address) error {
	if caller == issuer {
		return nil
	}
	if s.auth.HasPurpose(ctx, caller, id.PurposeClaimSigner) {
		return nil
	}
	return dErrors.New(dErrors.CodeUnauthorized, "caller is neither issuer nor claim-purpose key")
}

func (s *Service) emit(ctx context.Context, event notify.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Emit(ctx, event); err != nil {
		s.logger.Warn("emitting claim event", "kind", event.Kind, "error", err)
	}
}
