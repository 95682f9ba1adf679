package keyring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	id "selfid/pkg/domain"
	"selfid/pkg/platform/sentinel"
)

type KeyStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *KeyStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func TestKeyStoreSuite(t *testing.T) {
	suite.Run(t, new(KeyStoreSuite))
}

func (s *KeyStoreSuite) TestAddPurpose() {
	keyID := id.KeyIDFromAddress("0xaa")

	s.Run("creates key on first grant", func() {
		created, err := s.store.AddPurpose(s.ctx, keyID, id.PurposeManagement, id.KeyTypeECDSA)
		s.Require().NoError(err)
		s.True(created)

		key, err := s.store.Find(s.ctx, keyID)
		s.Require().NoError(err)
		s.Equal(id.KeyTypeECDSA, key.Type)
		s.True(key.HasPurpose(id.PurposeManagement))
	})

	s.Run("second purpose extends the existing key", func() {
		created, err := s.store.AddPurpose(s.ctx, keyID, id.PurposeAction, id.KeyTypeRSA)
		s.Require().NoError(err)
		s.False(created)

		key, err := s.store.Find(s.ctx, keyID)
		s.Require().NoError(err)
		// The original key type wins; the grant only extends purposes.
		s.Equal(id.KeyTypeECDSA, key.Type)
		s.ElementsMatch([]id.Purpose{id.PurposeManagement, id.PurposeAction}, key.Purposes)
	})

	s.Run("regranting a held purpose is a no-op", func() {
		_, err := s.store.AddPurpose(s.ctx, keyID, id.PurposeAction, id.KeyTypeECDSA)
		s.Require().NoError(err)

		key, err := s.store.Find(s.ctx, keyID)
		s.Require().NoError(err)
		s.Len(key.Purposes, 2)
	})
}

func (s *KeyStoreSuite) TestRemovePurpose() {
	keyID := id.KeyIDFromAddress("0xbb")
	_, err := s.store.AddPurpose(s.ctx, keyID, id.PurposeManagement, id.KeyTypeECDSA)
	s.Require().NoError(err)
	_, err = s.store.AddPurpose(s.ctx, keyID, id.PurposeAction, id.KeyTypeECDSA)
	s.Require().NoError(err)

	s.Run("revoking one purpose keeps the key", func() {
		deleted, err := s.store.RemovePurpose(s.ctx, keyID, id.PurposeAction)
		s.Require().NoError(err)
		s.False(deleted)

		key, err := s.store.Find(s.ctx, keyID)
		s.Require().NoError(err)
		s.Equal([]id.Purpose{id.PurposeManagement}, key.Purposes)
	})

	s.Run("revoking the last purpose deletes the key", func() {
		deleted, err := s.store.RemovePurpose(s.ctx, keyID, id.PurposeManagement)
		s.Require().NoError(err)
		s.True(deleted)

		_, err = s.store.Find(s.ctx, keyID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("revoking from an unknown key is a no-op", func() {
		deleted, err := s.store.RemovePurpose(s.ctx, id.KeyIDFromAddress("0xdead"), id.PurposeAction)
		s.Require().NoError(err)
		s.False(deleted)
	})
}

func (s *KeyStoreSuite) TestListByPurpose() {
	mgmt := id.KeyIDFromAddress("0x01")
	action1 := id.KeyIDFromAddress("0x02")
	action2 := id.KeyIDFromAddress("0x03")

	_, err := s.store.AddPurpose(s.ctx, mgmt, id.PurposeManagement, id.KeyTypeECDSA)
	s.Require().NoError(err)
	_, err = s.store.AddPurpose(s.ctx, action1, id.PurposeAction, id.KeyTypeECDSA)
	s.Require().NoError(err)
	_, err = s.store.AddPurpose(s.ctx, action2, id.PurposeAction, id.KeyTypeECDSA)
	s.Require().NoError(err)

	actions, err := s.store.ListByPurpose(s.ctx, id.PurposeAction)
	s.Require().NoError(err)
	s.ElementsMatch([]id.KeyID{action1, action2}, actions)

	encryption, err := s.store.ListByPurpose(s.ctx, id.PurposeEncryption)
	s.Require().NoError(err)
	s.Empty(encryption)
}
