package service

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/gboigwe/StratoLedger/internal/audit"
	"github.com/gboigwe/StratoLedger/internal/registry/models"
	"github.com/gboigwe/StratoLedger/internal/registry/store"
	dErrors "github.com/gboigwe/StratoLedger/pkg/domain-errors"
)

// Service tests exercise the façade rules (authorization, freeze
// monotonicity, quorum promotion, atomic rejection) against the real
// in-memory store - no mocks.
type ServiceSuite struct {
	suite.Suite
	store   *store.InMemoryStore
	sink    *audit.InMemorySink
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemory("registry-admin")
	s.sink = audit.NewInMemorySink()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	var err error
	s.service, err = New(s.store, audit.NewPublisher(s.sink, logger), logger)
	s.Require().NoError(err)
}

func validRegister() models.RegisterRequest {
	return models.RegisterRequest{
		Metadata: models.Metadata{
			Name:        "stratosphere-ozone-12",
			Description: "ozone partial pressure profile",
			DataType:    "ozone",
		},
		Location: models.Location{
			AltitudeMin: 15_000,
			AltitudeMax: 35_000,
			Latitude:    -67_500_000,
			Longitude:   140_001_000,
		},
		ContentHash: strings.Repeat("9c", 32),
		IsPublic:    true,
	}
}

func (s *ServiceSuite) TestNew() {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	publisher := audit.NewPublisher(s.sink, logger)

	s.Run("nil store returns error", func() {
		_, err := New(nil, publisher, logger)
		s.Error(err)
	})

	s.Run("nil publisher returns error", func() {
		_, err := New(s.store, nil, logger)
		s.Error(err)
	})
}

func (s *ServiceSuite) TestRegisterRoundTrip() {
	ctx := context.Background()
	req := validRegister()

	id, err := s.service.Register(ctx, "alice", req)
	s.Require().NoError(err)
	s.Equal(models.RecordID(1), id)

	rec, err := s.service.Get(ctx, id)
	s.Require().NoError(err)
	s.Equal(models.Principal("alice"), rec.Owner)
	s.Equal(req.Metadata, rec.Metadata)
	s.Equal(req.Location, rec.Location)
	s.Equal(req.ContentHash, rec.ContentHash)
	s.True(rec.IsPublic)
	s.False(rec.MetadataFrozen)
	s.Equal(models.StatusPending, rec.Status)
	s.Zero(rec.ValidatorCount)

	events := s.sink.Events()
	s.Require().Len(events, 1)
	s.Equal(audit.ActionRecordRegistered, events[0].Action)
	s.Equal(id, events[0].RecordID)
}

func (s *ServiceSuite) TestRegisterValidation() {
	ctx := context.Background()

	s.Run("inverted altitude band fails InvalidParams", func() {
		req := validRegister()
		req.Location.AltitudeMin = 100
		req.Location.AltitudeMax = 50
		_, err := s.service.Register(ctx, "alice", req)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidParams))
	})

	s.Run("latitude one past the pole fails InvalidParams", func() {
		req := validRegister()
		req.Location.Latitude = 90_000_001
		_, err := s.service.Register(ctx, "alice", req)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidParams))
	})

	s.Run("latitude exactly at the pole succeeds", func() {
		req := validRegister()
		req.Location.Latitude = 90_000_000
		_, err := s.service.Register(ctx, "alice", req)
		s.NoError(err)
	})

	s.Run("malformed content hash fails InvalidParams", func() {
		req := validRegister()
		req.ContentHash = "not-a-hash"
		_, err := s.service.Register(ctx, "alice", req)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidParams))
	})

	s.Run("failed registration consumes no id", func() {
		before, err := s.service.Count(ctx)
		s.Require().NoError(err)

		bad := validRegister()
		bad.Location.AltitudeMax = -1
		_, err = s.service.Register(ctx, "alice", bad)
		s.Require().Error(err)

		after, err := s.service.Count(ctx)
		s.Require().NoError(err)
		s.Equal(before, after)

		id, err := s.service.Register(ctx, "alice", validRegister())
		s.Require().NoError(err)
		s.Equal(models.RecordID(before+1), id)
	})
}

func (s *ServiceSuite) TestUpdateMetadata() {
	ctx := context.Background()
	id, err := s.service.Register(ctx, "alice", validRegister())
	s.Require().NoError(err)

	update := models.UpdateMetadataRequest{
		Metadata: models.Metadata{Name: "renamed", DataType: "ozone"},
		IsPublic: false,
	}

	s.Run("owner updates metadata and visibility atomically", func() {
		s.Require().NoError(s.service.UpdateMetadata(ctx, "alice", id, update))

		rec, err := s.service.Get(ctx, id)
		s.Require().NoError(err)
		s.Equal("renamed", rec.Metadata.Name)
		s.False(rec.IsPublic)
	})

	s.Run("non-owner fails NotAuthorized", func() {
		err := s.service.UpdateMetadata(ctx, "mallory", id, update)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	})

	s.Run("unknown record fails NotFound", func() {
		err := s.service.UpdateMetadata(ctx, "alice", 99, update)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestFreezeIsOneWay() {
	ctx := context.Background()
	id, err := s.service.Register(ctx, "alice", validRegister())
	s.Require().NoError(err)

	s.Run("non-owner cannot freeze", func() {
		err := s.service.Freeze(ctx, "mallory", id)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	})

	s.Require().NoError(s.service.Freeze(ctx, "alice", id))

	s.Run("updates after freeze fail MetadataFrozen", func() {
		err := s.service.UpdateMetadata(ctx, "alice", id, models.UpdateMetadataRequest{
			Metadata: models.Metadata{Name: "late-edit", DataType: "ozone"},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeMetadataFrozen))
	})

	s.Run("second freeze succeeds as a no-op", func() {
		events := len(s.sink.Events())
		s.Require().NoError(s.service.Freeze(ctx, "alice", id))
		// No state change, no second freeze event.
		s.Len(s.sink.Events(), events)
	})
}

func (s *ServiceSuite) TestTransferConsistency() {
	ctx := context.Background()
	id, err := s.service.Register(ctx, "alice", validRegister())
	s.Require().NoError(err)

	s.Run("non-owner cannot transfer", func() {
		err := s.service.Transfer(ctx, "mallory", id, "bob")
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	})

	s.Require().NoError(s.service.Transfer(ctx, "alice", id, "bob"))

	aliceIDs, err := s.service.ListByOwner(ctx, "alice")
	s.Require().NoError(err)
	s.NotContains(aliceIDs, id)

	bobIDs, err := s.service.ListByOwner(ctx, "bob")
	s.Require().NoError(err)
	s.Equal([]models.RecordID{id}, bobIDs)

	rec, err := s.service.Get(ctx, id)
	s.Require().NoError(err)
	s.Equal(models.Principal("bob"), rec.Owner)

	s.Run("old owner can no longer mutate", func() {
		err := s.service.Freeze(ctx, "alice", id)
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	})
}

func (s *ServiceSuite) TestQuorumTransition() {
	ctx := context.Background()
	id, err := s.service.Register(ctx, "alice", validRegister())
	s.Require().NoError(err)

	for _, validator := range []models.Principal{"v1", "v2"} {
		s.Require().NoError(s.service.Validate(ctx, validator, id))
		rec, err := s.service.Get(ctx, id)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, rec.Status)
	}

	s.Require().NoError(s.service.Validate(ctx, "v3", id))
	rec, err := s.service.Get(ctx, id)
	s.Require().NoError(err)
	s.Equal(models.StatusVerified, rec.Status)
	s.Equal(uint32(3), rec.ValidatorCount)

	s.Run("verified event emitted exactly at quorum", func() {
		var verified int
		for _, event := range s.sink.Events() {
			if event.Action == audit.ActionRecordVerified {
				verified++
			}
		}
		s.Equal(1, verified)
	})

	s.Run("fourth validator still counts, status stays verified", func() {
		s.Require().NoError(s.service.Validate(ctx, "v4", id))
		rec, err := s.service.Get(ctx, id)
		s.Require().NoError(err)
		s.Equal(uint32(4), rec.ValidatorCount)
		s.Equal(models.StatusVerified, rec.Status)
	})

	s.Run("duplicate attestation fails and leaves the count alone", func() {
		err := s.service.Validate(ctx, "v1", id)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyValidated))

		rec, err := s.service.Get(ctx, id)
		s.Require().NoError(err)
		s.Equal(uint32(4), rec.ValidatorCount)
	})

	s.Run("validating an unknown record fails NotFound", func() {
		err := s.service.Validate(ctx, "v1", 99)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("attestation listing matches the ledger", func() {
		atts, err := s.service.Attestations(ctx, id)
		s.Require().NoError(err)
		s.Len(atts, 4)
	})
}

func (s *ServiceSuite) TestVisibility() {
	ctx := context.Background()
	id, err := s.service.Register(ctx, "alice", validRegister())
	s.Require().NoError(err)

	isPublic, err := s.service.IsPublic(ctx, id)
	s.Require().NoError(err)
	s.True(isPublic)

	s.Run("unknown record fails NotFound", func() {
		_, err := s.service.IsPublic(ctx, 99)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *ServiceSuite) TestOwnerIndexCapacity() {
	ctx := context.Background()
	for i := 0; i < store.OwnerIndexCapacity; i++ {
		_, err := s.service.Register(ctx, "hoarder", validRegister())
		s.Require().NoError(err)
	}

	_, err := s.service.Register(ctx, "hoarder", validRegister())
	s.True(dErrors.HasCode(err, dErrors.CodeListFull))

	ids, err := s.service.ListByOwner(ctx, "hoarder")
	s.Require().NoError(err)
	s.Len(ids, store.OwnerIndexCapacity)
}

func (s *ServiceSuite) TestAdminRotation() {
	ctx := context.Background()

	admin, err := s.service.GetAdmin(ctx)
	s.Require().NoError(err)
	s.Equal(models.Principal("registry-admin"), admin)

	s.Run("non-admin cannot rotate", func() {
		err := s.service.SetAdmin(ctx, "mallory", "mallory")
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	})

	s.Run("admin rotates and the old admin loses the role", func() {
		s.Require().NoError(s.service.SetAdmin(ctx, "registry-admin", "new-admin"))

		admin, err := s.service.GetAdmin(ctx)
		s.Require().NoError(err)
		s.Equal(models.Principal("new-admin"), admin)

		err = s.service.SetAdmin(ctx, "registry-admin", "registry-admin")
		s.True(dErrors.HasCode(err, dErrors.CodeNotAuthorized))
	})
}
