package claims

import (
	"bytes"
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
	selfAddr   id.Address = "0xaa01"
	signerAddr id.Address = "0xbb02"
	otherAddr  id.Address = "0xcc03"
)

// stubAuthorizer grants the CLAIM purpose to a fixed set of callers.
type stubAuthorizer struct {
	claimSigners map[id.Address]bool
}

func (a *stubAuthorizer) HasPurpose(_ context.Context, caller id.Address, purpose id.Purpose) bool {
	return purpose == id.PurposeClaimSigner && a.claimSigners[caller]
}

func newClaimService(t *testing.T) (*Service, *notify.Publisher) {
	t.Helper()
	publisher := notify.NewPublisher(notifymemory.New(), slog.Default())
	auth := &stubAuthorizer{claimSigners: map[id.Address]bool{signerAddr: true}}
	return NewService(NewInMemoryStore(), auth, publisher, slog.Default()), publisher
}

func sigOf(b byte) []byte {
	return bytes.Repeat([]byte{b}, signatureWidth)
}

func TestAddClaim(t *testing.T) {
	ctx := context.Background()

	t.Run("self-claim needs no purpose", func(t *testing.T) {
		svc, _ := newClaimService(t)
		claimID, err := svc.AddClaim(ctx, selfAddr, 42, id.SchemeECDSA, selfAddr, nil, []byte("data"), "")
		require.NoError(t, err)
		assert.Equal(t, ComputeClaimID(selfAddr, 42), claimID)
	})

	t.Run("claim-purpose key issues for another identity", func(t *testing.T) {
		svc, _ := newClaimService(t)
		_, err := svc.AddClaim(ctx, signerAddr, 42, id.SchemeECDSA, otherAddr, sigOf(1), []byte("data"), "https://evidence")
		require.NoError(t, err)
	})

	t.Run("unauthorized caller is rejected", func(t *testing.T) {
		svc, _ := newClaimService(t)
		_, err := svc.AddClaim(ctx, otherAddr, 42, id.SchemeECDSA, selfAddr, nil, []byte("data"), "")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.True(t, svc.GetClaim(ctx, ComputeClaimID(selfAddr, 42)).IsZero())
	})

	t.Run("re-adding the same issuer and topic overwrites", func(t *testing.T) {
		svc, _ := newClaimService(t)
		first, err := svc.AddClaim(ctx, selfAddr, 42, id.SchemeECDSA, selfAddr, nil, []byte("v1"), "")
		require.NoError(t, err)
		second, err := svc.AddClaim(ctx, selfAddr, 42, id.SchemeRSA, selfAddr, sigOf(9), []byte("v2"), "ipfs://x")
		require.NoError(t, err)
		assert.Equal(t, first, second)

		claim := svc.GetClaim(ctx, second)
		assert.Equal(t, []byte("v2"), claim.Data)
		assert.Equal(t, id.SchemeRSA, claim.Scheme)
		assert.Equal(t, "ipfs://x", claim.URI)

		assert.Len(t, svc.GetClaimIDsByTopic(ctx, 42), 1)
	})
}

func TestGetClaimIsTotal(t *testing.T) {
	svc, _ := newClaimService(t)
	claim := svc.GetClaim(context.Background(), ComputeClaimID("0xnobody", 1))
	assert.True(t, claim.IsZero())
}

func TestRemoveClaim(t *testing.T) {
	ctx := context.Background()

	t.Run("issuer removes its own claim", func(t *testing.T) {
		svc, _ := newClaimService(t)
		claimID, err := svc.AddClaim(ctx, selfAddr, 42, id.SchemeECDSA, selfAddr, nil, []byte("data"), "")
		require.NoError(t, err)

		require.NoError(t, svc.RemoveClaim(ctx, selfAddr, claimID))
		assert.True(t, svc.GetClaim(ctx, claimID).IsZero())
		assert.Empty(t, svc.GetClaimIDsByTopic(ctx, 42))
	})

	t.Run("second removal reports not found", func(t *testing.T) {
		svc, _ := newClaimService(t)
		claimID, err := svc.AddClaim(ctx, selfAddr, 42, id.SchemeECDSA, selfAddr, nil, []byte("data"), "")
		require.NoError(t, err)
		require.NoError(t, svc.RemoveClaim(ctx, selfAddr, claimID))

		err = svc.RemoveClaim(ctx, selfAddr, claimID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("unauthorized caller cannot remove", func(t *testing.T) {
		svc, _ := newClaimService(t)
		claimID, err := svc.AddClaim(ctx, selfAddr, 42, id.SchemeECDSA, selfAddr, nil, []byte("data"), "")
		require.NoError(t, err)

		err = svc.RemoveClaim(ctx, otherAddr, claimID)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.False(t, svc.GetClaim(ctx, claimID).IsZero())
	})
}

func TestAddClaims(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes packed buffers into claims", func(t *testing.T) {
		svc, _ := newClaimService(t)
		topics := []id.Topic{1, 2, 3}
		issuers := []id.Address{signerAddr, selfAddr, signerAddr}
		packedSignatures := append(append(sigOf(1), sigOf(2)...), sigOf(3)...)
		packedData := []byte("aabbbc")
		dataLengths := []int{2, 3, 1}

		require.NoError(t, svc.AddClaims(ctx, signerAddr, topics, issuers, packedSignatures, packedData, dataLengths))

		first := svc.GetClaim(ctx, ComputeClaimID(signerAddr, 1))
		assert.Equal(t, []byte("aa"), first.Data)
		assert.Equal(t, sigOf(1), first.Signature)
		assert.Equal(t, id.SchemeECDSA, first.Scheme)
		assert.Empty(t, first.URI)

		second := svc.GetClaim(ctx, ComputeClaimID(selfAddr, 2))
		assert.Equal(t, []byte("bbb"), second.Data)

		third := svc.GetClaim(ctx, ComputeClaimID(signerAddr, 3))
		assert.Equal(t, []byte("c"), third.Data)
	})

	t.Run("empty signature buffer means unsigned claims", func(t *testing.T) {
		svc, _ := newClaimService(t)
		require.NoError(t, svc.AddClaims(ctx, signerAddr,
			[]id.Topic{1, 2}, []id.Address{signerAddr, signerAddr},
			nil, []byte("xy"), []int{1, 1}))
		assert.Empty(t, svc.GetClaim(ctx, ComputeClaimID(signerAddr, 1)).Signature)
	})

	t.Run("array count mismatch", func(t *testing.T) {
		svc, _ := newClaimService(t)
		err := svc.AddClaims(ctx, signerAddr,
			[]id.Topic{1, 2}, []id.Address{signerAddr},
			nil, nil, []int{0, 0})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeLengthMismatch))
	})

	t.Run("signature buffer with the wrong width", func(t *testing.T) {
		svc, _ := newClaimService(t)
		err := svc.AddClaims(ctx, signerAddr,
			[]id.Topic{1}, []id.Address{signerAddr},
			make([]byte, signatureWidth-1), nil, []int{0})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeLengthMismatch))
	})

	t.Run("data lengths overrunning the buffer", func(t *testing.T) {
		svc, _ := newClaimService(t)
		err := svc.AddClaims(ctx, signerAddr,
			[]id.Topic{1}, []id.Address{signerAddr},
			nil, []byte("ab"), []int{3})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeOutOfRange))
	})

	t.Run("leftover packed data", func(t *testing.T) {
		svc, _ := newClaimService(t)
		err := svc.AddClaims(ctx, signerAddr,
			[]id.Topic{1}, []id.Address{signerAddr},
			nil, []byte("abc"), []int{2})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeLengthMismatch))
	})

	t.Run("one unauthorized element rejects the whole batch", func(t *testing.T) {
		svc, _ := newClaimService(t)
		err := svc.AddClaims(ctx, selfAddr,
			[]id.Topic{1, 2}, []id.Address{selfAddr, otherAddr},
			nil, []byte("xy"), []int{1, 1})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

		// All-or-nothing: the authorized element was not written either.
		assert.True(t, svc.GetClaim(ctx, ComputeClaimID(selfAddr, 1)).IsZero())
		assert.Empty(t, svc.GetClaimIDsByTopic(ctx, 1))
	})

	t.Run("emits one event per inserted claim", func(t *testing.T) {
		svc, publisher := newClaimService(t)
		require.NoError(t, svc.AddClaims(ctx, signerAddr,
			[]id.Topic{1, 2}, []id.Address{signerAddr, signerAddr},
			nil, []byte("xy"), []int{1, 1}))

		events, err := publisher.List(ctx)
		require.NoError(t, err)
		assert.Len(t, events, 2)
		for _, event := range events {
			assert.Equal(t, notify.KindClaimAdded, event.Kind)
		}
	})
}

// TestOnboardingFlow walks the typical bootstrap: the identity self-claims a
// profile attribute, then a trusted signer backfills a batch of attestations.
func TestOnboardingFlow(t *testing.T) {
	svc, _ := newClaimService(t)
	ctx := context.Background()

	emailTopic, err := id.EncodeTopicLabel("email")
	require.NoError(t, err)

	selfClaim, err := svc.AddClaim(ctx, selfAddr, emailTopic, id.SchemeECDSA, selfAddr, nil, []byte("me@example.com"), "")
	require.NoError(t, err)
	assert.False(t, svc.GetClaim(ctx, selfClaim).IsZero())

	topics := []id.Topic{1, 2, 3, 4, 5, 6}
	issuers := make([]id.Address, len(topics))
	var packedSignatures, packedData []byte
	dataLengths := make([]int, len(topics))
	for i := range topics {
		issuers[i] = signerAddr
		packedSignatures = append(packedSignatures, sigOf(byte(i))...)
		packedData = append(packedData, byte('a'+i))
		dataLengths[i] = 1
	}
	require.NoError(t, svc.AddClaims(ctx, signerAddr, topics, issuers, packedSignatures, packedData, dataLengths))

	for i, topic := range topics {
		claim := svc.GetClaim(ctx, ComputeClaimID(signerAddr, topic))
		require.False(t, claim.IsZero())
		assert.Equal(t, []byte{byte('a' + i)}, claim.Data)
	}
	assert.Len(t, svc.GetClaimIDsByTopic(ctx, emailTopic), 1)
}
