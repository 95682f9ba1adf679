package keyring

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selfid/internal/notify"
	notifymemory "selfid/internal/notify/store/memory"
	id "selfid/pkg/domain"
	dErrors "selfid/pkg/domain-errors"
)

const (
	owner    id.Address = "0xaa01"
	stranger id.Address = "0xbb02"
)

func newTestService(t *testing.T) (*Service, *notify.Publisher) {
	t.Helper()
	publisher := notify.NewPublisher(notifymemory.New(), slog.Default())
	svc := NewService(NewInMemoryStore(), publisher, slog.Default())
	require.NoError(t, svc.SeedOwner(context.Background(), owner, id.KeyTypeECDSA))
	return svc, publisher
}

func TestSeedOwner(t *testing.T) {
	svc, publisher := newTestService(t)
	ctx := context.Background()

	assert.True(t, svc.HasPurpose(ctx, owner, id.PurposeManagement))

	events, err := publisher.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, notify.KindKeyAdded, events[0].Kind)
}

func TestAddKey(t *testing.T) {
	ctx := context.Background()
	actionKey := id.KeyIDFromAddress("0xcc03")

	t.Run("management caller grants purposes", func(t *testing.T) {
		svc, _ := newTestService(t)
		require.NoError(t, svc.AddKey(ctx, owner, actionKey, id.PurposeAction, id.KeyTypeECDSA))
		assert.True(t, svc.KeyHasPurpose(ctx, actionKey, id.PurposeAction))
	})

	t.Run("non-management caller is rejected", func(t *testing.T) {
		svc, _ := newTestService(t)
		err := svc.AddKey(ctx, stranger, actionKey, id.PurposeAction, id.KeyTypeECDSA)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.False(t, svc.KeyHasPurpose(ctx, actionKey, id.PurposeAction))
	})

	t.Run("a key granted management can then manage", func(t *testing.T) {
		svc, _ := newTestService(t)
		second := id.Address("0xdd04")
		require.NoError(t, svc.AddKey(ctx, owner, id.KeyIDFromAddress(second), id.PurposeManagement, id.KeyTypeECDSA))
		require.NoError(t, svc.AddKey(ctx, second, actionKey, id.PurposeAction, id.KeyTypeECDSA))
	})
}

func TestRemoveKey(t *testing.T) {
	ctx := context.Background()

	t.Run("removing the last purpose deletes the key", func(t *testing.T) {
		svc, _ := newTestService(t)
		target := id.KeyIDFromAddress("0xcc03")
		require.NoError(t, svc.AddKey(ctx, owner, target, id.PurposeAction, id.KeyTypeECDSA))

		require.NoError(t, svc.RemoveKey(ctx, owner, target, id.PurposeAction))
		assert.Empty(t, svc.GetKeyPurposes(ctx, target))
		assert.Equal(t, id.KeyID(""), svc.GetKey(ctx, target).ID)
	})

	t.Run("removing a never-held purpose succeeds silently", func(t *testing.T) {
		svc, _ := newTestService(t)
		require.NoError(t, svc.RemoveKey(ctx, owner, id.KeyIDFromAddress("0xeeee"), id.PurposeEncryption))
	})

	t.Run("non-management caller is rejected", func(t *testing.T) {
		svc, _ := newTestService(t)
		err := svc.RemoveKey(ctx, stranger, id.KeyIDFromAddress(owner), id.PurposeManagement)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("management can revoke its own purpose", func(t *testing.T) {
		// The registry does not guard against lockout; governance is the
		// caller's problem.
		svc, _ := newTestService(t)
		require.NoError(t, svc.RemoveKey(ctx, owner, id.KeyIDFromAddress(owner), id.PurposeManagement))
		assert.False(t, svc.HasPurpose(ctx, owner, id.PurposeManagement))
	})
}

func TestReadsAreTotal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	unknown := id.KeyIDFromAddress("0x9999")

	assert.Equal(t, id.KeyID(""), svc.GetKey(ctx, unknown).ID)
	assert.Empty(t, svc.GetKeyPurposes(ctx, unknown))
	assert.False(t, svc.KeyHasPurpose(ctx, unknown, id.PurposeManagement))
	assert.Empty(t, svc.GetKeysByPurpose(ctx, id.PurposeEncryption))
}

func TestGetKeysByPurpose(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	k1 := id.KeyIDFromAddress("0x01")
	k2 := id.KeyIDFromAddress("0x02")
	require.NoError(t, svc.AddKey(ctx, owner, k1, id.PurposeAction, id.KeyTypeECDSA))
	require.NoError(t, svc.AddKey(ctx, owner, k2, id.PurposeAction, id.KeyTypeECDSA))

	assert.ElementsMatch(t, []id.KeyID{k1, k2}, svc.GetKeysByPurpose(ctx, id.PurposeAction))
}
