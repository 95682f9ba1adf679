package keyring

import (
	"context"
	"log/slog"

	"selfid/internal/identity/models"
	"selfid/internal/notify"
	id "selfid/pkg/domain"
	dErrors "selfid/pkg/domain-errors"
)

// Notifier receives registry change events. *notify.Publisher satisfies it;
// a nil Notifier disables emission.
type Notifier interface {
	Emit(ctx context.Context, event notify.Event) error
}

// Service enforces authorization over the key store. Mutations require the
// caller to hold a MANAGEMENT key; reads are public by design so relying
// parties can verify authorization independently.
type Service struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
}

// NewService wires the key registry service.
func NewService(store Store, notifier Notifier, logger *slog.Logger) *Service {
	return &Service{store: store, notifier: notifier, logger: logger}
}

// SeedOwner registers the identity's initial management key, bypassing
// authorization. Called exactly once by the deployment wiring before the
// identity takes traffic; every later mutation goes through AddKey.
func (s *Service) SeedOwner(ctx context.Context, owner id.Address, keyType id.KeyType) error {
	keyID := id.KeyIDFromAddress(owner)
	if _, err := s.store.AddPurpose(ctx, keyID, id.PurposeManagement, keyType); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "seed owner key", err)
	}
	s.emit(ctx, notify.Event{Kind: notify.KindKeyAdded, KeyID: keyID, Purpose: id.PurposeManagement, KeyType: keyType})
	return nil
}

// AddKey grants purpose to keyID, creating the key with keyType if unknown.
// Idempotent for already-held purposes.
func (s *Service) AddKey(ctx context.Context, caller id.Address, keyID id.KeyID, purpose id.Purpose, keyType id.KeyType) error {
	if !s.HasPurpose(ctx, caller, id.PurposeManagement) {
		return dErrors.New(dErrors.CodeUnauthorized, "caller lacks management purpose")
	}
	if _, err := s.store.AddPurpose(ctx, keyID, purpose, keyType); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "add key", err)
	}
	s.emit(ctx, notify.Event{Kind: notify.KindKeyAdded, KeyID: keyID, Purpose: purpose, KeyType: keyType})
	return nil
}

// RemoveKey revokes purpose from keyID; the key disappears when its last
// purpose goes. Removing a never-held purpose is a no-op success.
func (s *Service) RemoveKey(ctx context.Context, caller id.Address, keyID id.KeyID, purpose id.Purpose) error {
	if !s.HasPurpose(ctx, caller, id.PurposeManagement) {
		return dErrors.New(dErrors.CodeUnauthorized, "caller lacks management purpose")
	}
	if _, err := s.store.RemovePurpose(ctx, keyID, purpose); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "remove key", err)
	}
	s.emit(ctx, notify.Event{Kind: notify.KindKeyRemoved, KeyID: keyID, Purpose: purpose})
	return nil
}

// GetKey is total: unknown ids return the zero Key.
func (s *Service) GetKey(ctx context.Context, keyID id.KeyID) models.Key {
	key, err := s.store.Find(ctx, keyID)
	if err != nil {
		return models.Key{}
	}
	return key
}

// GetKeyPurposes is total: unknown ids return an empty set.
func (s *Service) GetKeyPurposes(ctx context.Context, keyID id.KeyID) []id.Purpose {
	key, err := s.store.Find(ctx, keyID)
	if err != nil {
		return nil
	}
	return key.Purposes
}

// GetKeysByPurpose lists every key holding the purpose, empty if none.
func (s *Service) GetKeysByPurpose(ctx context.Context, purpose id.Purpose) []id.KeyID {
	keys, err := s.store.ListByPurpose(ctx, purpose)
	if err != nil {
		return nil
	}
	return keys
}

// KeyHasPurpose reports whether the key holds the purpose. Total.
func (s *Service) KeyHasPurpose(ctx context.Context, keyID id.KeyID, purpose id.Purpose) bool {
	key, err := s.store.Find(ctx, keyID)
	if err != nil {
		return false
	}
	return key.HasPurpose(purpose)
}

// HasPurpose is the authorization primitive the other registries use: does
// the key the caller's address maps to hold the purpose.
func (s *Service) HasPurpose(ctx context.Context, caller id.Address, purpose id.Purpose) bool {
	return s.KeyHasPurpose(ctx, id.KeyIDFromAddress(caller), purpose)
}

func (s *Service) emit(ctx context.Context, event notify.Event) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Emit(ctx, event); err != nil {
		s.logger.Warn("emitting key event", "kind", event.Kind, "error", err)
	}
}
