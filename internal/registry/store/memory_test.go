package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/gboigwe/StratoLedger/internal/registry/models"
	"github.com/gboigwe/StratoLedger/pkg/platform/sentinel"
)

// In-memory store invariants (id allocation, exact index removal, ledger
// uniqueness) are exercised here because service tests treat the store as a
// black box.
type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemory("registry-admin")
}

func newRecord(owner models.Principal) *models.DatasetRecord {
	return &models.DatasetRecord{
		Owner: owner,
		Metadata: models.Metadata{
			Name:     "balloon-flight-7",
			DataType: "pressure",
		},
		Location: models.Location{
			AltitudeMin: 10_000,
			AltitudeMax: 28_000,
			Latitude:    48_858_000,
			Longitude:   2_294_000,
		},
		ContentHash: strings.Repeat("4f", 32),
		CreatedAt:   time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC),
		Status:      models.StatusPending,
	}
}

func (s *MemoryStoreSuite) TestCreateAndGet() {
	ctx := context.Background()

	id, err := s.store.CreateRecord(ctx, newRecord("alice"))
	s.Require().NoError(err)
	s.Equal(models.RecordID(1), id)

	got, err := s.store.GetRecord(ctx, id)
	s.Require().NoError(err)
	s.Equal(models.Principal("alice"), got.Owner)
	s.Equal("balloon-flight-7", got.Metadata.Name)
	s.False(got.MetadataFrozen)
	s.Equal(models.StatusPending, got.Status)
	s.Zero(got.ValidatorCount)

	s.Run("returned record is a copy", func() {
		got.Metadata.Name = "mutated"
		again, err := s.store.GetRecord(ctx, id)
		s.Require().NoError(err)
		s.Equal("balloon-flight-7", again.Metadata.Name)
	})

	s.Run("unknown id returns ErrNotFound", func() {
		_, err := s.store.GetRecord(ctx, 99)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestIDsAreStrictlyIncreasing() {
	ctx := context.Background()

	for want := models.RecordID(1); want <= 5; want++ {
		id, err := s.store.CreateRecord(ctx, newRecord("alice"))
		s.Require().NoError(err)
		s.Equal(want, id)
	}

	count, err := s.store.CountRecords(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(5), count)
}

func (s *MemoryStoreSuite) TestCapacityRejectionConsumesNoID() {
	ctx := context.Background()

	for i := 0; i < OwnerIndexCapacity; i++ {
		_, err := s.store.CreateRecord(ctx, newRecord("hoarder"))
		s.Require().NoError(err)
	}

	_, err := s.store.CreateRecord(ctx, newRecord("hoarder"))
	s.Require().ErrorIs(err, sentinel.ErrCapacity)

	// The rejected registration must not leave an id gap.
	count, err := s.store.CountRecords(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(OwnerIndexCapacity), count)

	id, err := s.store.CreateRecord(ctx, newRecord("someone-else"))
	s.Require().NoError(err)
	s.Equal(models.RecordID(OwnerIndexCapacity+1), id)
}

func (s *MemoryStoreSuite) TestTransferOwner() {
	ctx := context.Background()

	var ids []models.RecordID
	for i := 0; i < 3; i++ {
		id, err := s.store.CreateRecord(ctx, newRecord("alice"))
		s.Require().NoError(err)
		ids = append(ids, id)
	}

	s.Run("removes exactly one occurrence and appends to destination", func() {
		err := s.store.TransferOwner(ctx, ids[1], "alice", "bob")
		s.Require().NoError(err)

		aliceIDs, err := s.store.ListByOwner(ctx, "alice")
		s.Require().NoError(err)
		s.Equal([]models.RecordID{ids[0], ids[2]}, aliceIDs)

		bobIDs, err := s.store.ListByOwner(ctx, "bob")
		s.Require().NoError(err)
		s.Equal([]models.RecordID{ids[1]}, bobIDs)

		rec, err := s.store.GetRecord(ctx, ids[1])
		s.Require().NoError(err)
		s.Equal(models.Principal("bob"), rec.Owner)
	})

	s.Run("rejects transfer by non-owner", func() {
		err := s.store.TransferOwner(ctx, ids[0], "bob", "carol")
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("rejects transfer of unknown record", func() {
		err := s.store.TransferOwner(ctx, 99, "alice", "bob")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects transfer into a full index", func() {
		for i := 0; i < OwnerIndexCapacity; i++ {
			_, err := s.store.CreateRecord(ctx, newRecord("full"))
			s.Require().NoError(err)
		}
		err := s.store.TransferOwner(ctx, ids[0], "alice", "full")
		s.Require().ErrorIs(err, sentinel.ErrCapacity)

		// Failed transfer leaves source index and owner untouched.
		aliceIDs, err := s.store.ListByOwner(ctx, "alice")
		s.Require().NoError(err)
		s.Contains(aliceIDs, ids[0])
		rec, err := s.store.GetRecord(ctx, ids[0])
		s.Require().NoError(err)
		s.Equal(models.Principal("alice"), rec.Owner)
	})
}

func (s *MemoryStoreSuite) TestAttestations() {
	ctx := context.Background()
	id, err := s.store.CreateRecord(ctx, newRecord("alice"))
	s.Require().NoError(err)

	attest := func(validator models.Principal) (uint32, error) {
		return s.store.AppendAttestation(ctx, &models.Attestation{
			RecordID:   id,
			Validator:  validator,
			AttestedAt: time.Now().UTC(),
		}, 3)
	}

	s.Run("counts distinct validators and promotes at quorum", func() {
		for i, want := range []uint32{1, 2} {
			count, err := attest(models.Principal(fmt.Sprintf("v%d", i+1)))
			s.Require().NoError(err)
			s.Equal(want, count)

			rec, err := s.store.GetRecord(ctx, id)
			s.Require().NoError(err)
			s.Equal(models.StatusPending, rec.Status)
		}

		count, err := attest("v3")
		s.Require().NoError(err)
		s.Equal(uint32(3), count)

		rec, err := s.store.GetRecord(ctx, id)
		s.Require().NoError(err)
		s.Equal(models.StatusVerified, rec.Status)
	})

	s.Run("rejects duplicate validator without touching the count", func() {
		_, err := attest("v1")
		s.Require().ErrorIs(err, sentinel.ErrConflict)

		rec, err := s.store.GetRecord(ctx, id)
		s.Require().NoError(err)
		s.Equal(uint32(3), rec.ValidatorCount)
	})

	s.Run("post-quorum attestations count but never regress status", func() {
		count, err := attest("v4")
		s.Require().NoError(err)
		s.Equal(uint32(4), count)

		rec, err := s.store.GetRecord(ctx, id)
		s.Require().NoError(err)
		s.Equal(models.StatusVerified, rec.Status)
	})

	s.Run("ledger preserves arrival order", func() {
		atts, err := s.store.ListAttestations(ctx, id)
		s.Require().NoError(err)
		s.Require().Len(atts, 4)
		s.Equal(models.Principal("v1"), atts[0].Validator)
		s.Equal(models.Principal("v4"), atts[3].Validator)
	})

	s.Run("attesting to unknown record returns ErrNotFound", func() {
		_, err := s.store.AppendAttestation(ctx, &models.Attestation{RecordID: 99, Validator: "v1"}, 3)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestFreezeAndUpdate() {
	ctx := context.Background()
	id, err := s.store.CreateRecord(ctx, newRecord("alice"))
	s.Require().NoError(err)

	err = s.store.UpdateMetadata(ctx, id, models.Metadata{Name: "renamed", DataType: "humidity"}, true)
	s.Require().NoError(err)

	rec, err := s.store.GetRecord(ctx, id)
	s.Require().NoError(err)
	s.Equal("renamed", rec.Metadata.Name)
	s.True(rec.IsPublic)

	s.Require().NoError(s.store.SetFrozen(ctx, id))
	rec, err = s.store.GetRecord(ctx, id)
	s.Require().NoError(err)
	s.True(rec.MetadataFrozen)
}

func (s *MemoryStoreSuite) TestAdmin() {
	ctx := context.Background()

	admin, err := s.store.GetAdmin(ctx)
	s.Require().NoError(err)
	s.Equal(models.Principal("registry-admin"), admin)

	s.Require().NoError(s.store.SetAdmin(ctx, "new-admin"))
	admin, err = s.store.GetAdmin(ctx)
	s.Require().NoError(err)
	s.Equal(models.Principal("new-admin"), admin)
}
