//go:build integration

package claims_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"selfid/internal/identity/claims"
	"selfid/internal/identity/models"
	id "selfid/pkg/domain"
	"selfid/pkg/platform/sentinel"
	"selfid/pkg/testutil/containers"
)

type RedisClaimStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *claims.RedisStore
}

func TestRedisClaimStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisClaimStoreSuite))
}

func (s *RedisClaimStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = claims.NewRedisStore(s.redis.Client)
}

func (s *RedisClaimStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func newStoredClaim(issuer id.Address, topic id.Topic, data string) models.Claim {
	return models.Claim{
		ID:     claims.ComputeClaimID(issuer, topic),
		Topic:  topic,
		Scheme: id.SchemeECDSA,
		Issuer: issuer,
		Data:   []byte(data),
	}
}

func (s *RedisClaimStoreSuite) TestPutFindRoundTrip() {
	ctx := context.Background()
	claim := newStoredClaim("0xaa", 42, "v1")

	created, err := s.store.Put(ctx, claim)
	s.Require().NoError(err)
	s.True(created)

	found, err := s.store.Find(ctx, claim.ID)
	s.Require().NoError(err)
	s.Equal(claim.Data, found.Data)
	s.Equal(claim.Issuer, found.Issuer)

	ids, err := s.store.IDsByTopic(ctx, 42)
	s.Require().NoError(err)
	s.Equal([]id.ClaimID{claim.ID}, ids)
}

func (s *RedisClaimStoreSuite) TestOverwriteKeepsSingleIndexEntry() {
	ctx := context.Background()
	claim := newStoredClaim("0xaa", 42, "v1")

	_, err := s.store.Put(ctx, claim)
	s.Require().NoError(err)

	claim.Data = []byte("v2")
	created, err := s.store.Put(ctx, claim)
	s.Require().NoError(err)
	s.False(created)

	found, err := s.store.Find(ctx, claim.ID)
	s.Require().NoError(err)
	s.Equal([]byte("v2"), found.Data)

	ids, err := s.store.IDsByTopic(ctx, 42)
	s.Require().NoError(err)
	s.Len(ids, 1)
}

func (s *RedisClaimStoreSuite) TestFindUnknown() {
	_, err := s.store.Find(context.Background(), claims.ComputeClaimID("0xnope", 1))
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisClaimStoreSuite) TestRemoveMaintainsIndex() {
	ctx := context.Background()
	c1 := newStoredClaim("0xa1", 7, "one")
	c2 := newStoredClaim("0xa2", 7, "two")
	c3 := newStoredClaim("0xa3", 7, "three")
	for _, c := range []models.Claim{c1, c2, c3} {
		_, err := s.store.Put(ctx, c)
		s.Require().NoError(err)
	}

	removed, err := s.store.Remove(ctx, c1.ID)
	s.Require().NoError(err)
	s.Equal(c1.ID, removed.ID)

	_, err = s.store.Find(ctx, c1.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	ids, err := s.store.IDsByTopic(ctx, 7)
	s.Require().NoError(err)
	s.ElementsMatch([]id.ClaimID{c2.ID, c3.ID}, ids)

	_, err = s.store.Remove(ctx, c1.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisClaimStoreSuite) TestPutBatch() {
	ctx := context.Background()
	batch := []models.Claim{
		newStoredClaim("0xa1", 1, "a"),
		newStoredClaim("0xa2", 2, "b"),
		newStoredClaim("0xa3", 2, "c"),
	}
	s.Require().NoError(s.store.PutBatch(ctx, batch))

	for _, c := range batch {
		found, err := s.store.Find(ctx, c.ID)
		s.Require().NoError(err)
		s.Equal(c.Data, found.Data)
	}

	ids, err := s.store.IDsByTopic(ctx, 2)
	s.Require().NoError(err)
	s.Len(ids, 2)
}
