// Package service implements the registry façade: the public operation
// surface over the record store, owner index, and validation ledger.
//
// Every mutating operation follows the same shape: validate inputs, read
// current state, check authorization, then commit all writes through a single
// atomic store operation. Detection happens before mutation, so a rejected
// call leaves zero state change. A service-level mutex totally orders
// mutating calls, matching the serialized execution model the registry was
// designed for.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/gboigwe/StratoLedger/internal/audit"
	"github.com/gboigwe/StratoLedger/internal/registry/cache"
	"github.com/gboigwe/StratoLedger/internal/registry/metrics"
	"github.com/gboigwe/StratoLedger/internal/registry/models"
	"github.com/gboigwe/StratoLedger/internal/registry/store"
	dErrors "github.com/gboigwe/StratoLedger/pkg/domain-errors"
	"github.com/gboigwe/StratoLedger/pkg/platform/sentinel"
	"github.com/gboigwe/StratoLedger/pkg/requestcontext"
)

// QuorumThreshold is the number of distinct validator attestations that
// promotes a record from pending to verified.
const QuorumThreshold uint32 = 3

// Service composes the registry stores under the authorization and atomicity
// rules of the façade.
type Service struct {
	mu      sync.Mutex
	store   store.Store
	audit   *audit.Publisher
	metrics *metrics.Metrics
	cache   *cache.VisibilityCache
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option configures optional service collaborators.
type Option func(*Service)

// WithMetrics attaches Prometheus instruments. Nil-safe by omission: tests
// that register no collectors simply skip this option.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithVisibilityCache attaches a read-through cache for visibility lookups.
func WithVisibilityCache(c *cache.VisibilityCache) Option {
	return func(s *Service) { s.cache = c }
}

// New constructs the registry service.
func New(st store.Store, publisher *audit.Publisher, logger *slog.Logger, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("registry store is required")
	}
	if publisher == nil {
		return nil, errors.New("audit publisher is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}
	s := &Service{
		store:  st,
		audit:  publisher,
		logger: logger,
		tracer: otel.Tracer("registry"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Register validates the inputs and creates a new dataset record owned by the
// caller. The id counter advances only on success, so rejected registrations
// never leave id gaps.
func (s *Service) Register(ctx context.Context, caller models.Principal, req models.RegisterRequest) (models.RecordID, error) {
	ctx, span := s.tracer.Start(ctx, "registry.Register")
	defer span.End()

	if err := req.Metadata.Validate(); err != nil {
		s.reject("register", err)
		return 0, err
	}
	if err := req.Location.Validate(); err != nil {
		s.reject("register", err)
		return 0, err
	}
	if !models.ValidContentHash(req.ContentHash) {
		err := dErrors.New(dErrors.CodeInvalidParams, "content_hash must be 64 lowercase hex characters")
		s.reject("register", err)
		return 0, err
	}

	rec := &models.DatasetRecord{
		Owner:       caller,
		Metadata:    req.Metadata,
		Location:    req.Location,
		ContentHash: req.ContentHash,
		CreatedAt:   requestcontext.Now(ctx),
		IsPublic:    req.IsPublic,
		Status:      models.StatusPending,
	}

	s.mu.Lock()
	id, err := s.store.CreateRecord(ctx, rec)
	s.mu.Unlock()
	if errors.Is(err, sentinel.ErrCapacity) {
		err = dErrors.Wrap(err, dErrors.CodeListFull, "owner index is at capacity")
		s.reject("register", err)
		return 0, err
	}
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create record")
	}

	if s.metrics != nil {
		s.metrics.RecordsRegistered.Inc()
	}
	s.audit.Emit(ctx, audit.Event{
		Action:   audit.ActionRecordRegistered,
		RecordID: id,
		Actor:    caller,
	})
	s.logger.InfoContext(ctx, "record registered",
		"record_id", id,
		"owner", caller.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return id, nil
}

// UpdateMetadata replaces the editable metadata and visibility flag. Only the
// owner may update, and only while the record is not frozen.
func (s *Service) UpdateMetadata(ctx context.Context, caller models.Principal, id models.RecordID, req models.UpdateMetadataRequest) error {
	ctx, span := s.tracer.Start(ctx, "registry.UpdateMetadata")
	defer span.End()

	if err := req.Metadata.Validate(); err != nil {
		s.reject("update_metadata", err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.store.GetRecord(ctx, id)
	if err != nil {
		err = s.translateLookup(err)
		s.reject("update_metadata", err)
		return err
	}
	if rec.Owner != caller {
		err = dErrors.New(dErrors.CodeNotAuthorized, "caller does not own this record")
		s.reject("update_metadata", err)
		return err
	}
	if rec.MetadataFrozen {
		err = dErrors.New(dErrors.CodeMetadataFrozen, "record metadata is frozen")
		s.reject("update_metadata", err)
		return err
	}

	if err := s.store.UpdateMetadata(ctx, id, req.Metadata, req.IsPublic); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update metadata")
	}

	s.invalidateVisibility(ctx, id)
	if s.metrics != nil {
		s.metrics.MetadataUpdates.Inc()
	}
	s.audit.Emit(ctx, audit.Event{
		Action:   audit.ActionMetadataUpdated,
		RecordID: id,
		Actor:    caller,
	})
	return nil
}

// Freeze flips the one-way metadata-frozen flag. Freezing an already frozen
// record succeeds without state change.
func (s *Service) Freeze(ctx context.Context, caller models.Principal, id models.RecordID) error {
	ctx, span := s.tracer.Start(ctx, "registry.Freeze")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.store.GetRecord(ctx, id)
	if err != nil {
		err = s.translateLookup(err)
		s.reject("freeze", err)
		return err
	}
	if rec.Owner != caller {
		err = dErrors.New(dErrors.CodeNotAuthorized, "caller does not own this record")
		s.reject("freeze", err)
		return err
	}
	if rec.MetadataFrozen {
		// Idempotent: the flag is already where the caller wants it.
		return nil
	}

	if err := s.store.SetFrozen(ctx, id); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to freeze metadata")
	}

	if s.metrics != nil {
		s.metrics.MetadataFreezes.Inc()
	}
	s.audit.Emit(ctx, audit.Event{
		Action:   audit.ActionMetadataFrozen,
		RecordID: id,
		Actor:    caller,
	})
	return nil
}

// Transfer moves ownership of a record. The id leaves the old owner's index,
// joins the new owner's index, and the record's owner field updates, all in
// one commit.
func (s *Service) Transfer(ctx context.Context, caller models.Principal, id models.RecordID, newOwner models.Principal) error {
	ctx, span := s.tracer.Start(ctx, "registry.Transfer")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.store.GetRecord(ctx, id)
	if err != nil {
		err = s.translateLookup(err)
		s.reject("transfer", err)
		return err
	}
	if rec.Owner != caller {
		err = dErrors.New(dErrors.CodeNotAuthorized, "caller does not own this record")
		s.reject("transfer", err)
		return err
	}

	err = s.store.TransferOwner(ctx, id, caller, newOwner)
	switch {
	case errors.Is(err, sentinel.ErrCapacity):
		err = dErrors.Wrap(err, dErrors.CodeListFull, "destination owner index is at capacity")
		s.reject("transfer", err)
		return err
	case errors.Is(err, sentinel.ErrNotFound):
		err = dErrors.Wrap(err, dErrors.CodeNotFound, "record not found")
		s.reject("transfer", err)
		return err
	case errors.Is(err, sentinel.ErrInvalidState):
		err = dErrors.Wrap(err, dErrors.CodeNotAuthorized, "caller does not own this record")
		s.reject("transfer", err)
		return err
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to transfer record")
	}

	if s.metrics != nil {
		s.metrics.Transfers.Inc()
	}
	s.audit.Emit(ctx, audit.Event{
		Action:   audit.ActionOwnerTransferred,
		RecordID: id,
		Actor:    caller,
		Subject:  newOwner,
	})
	s.logger.InfoContext(ctx, "record transferred",
		"record_id", id,
		"from", caller.String(),
		"to", newOwner.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// Validate records one validator's attestation. Each (record, validator)
// pair attests at most once; the attestation that brings the count to quorum
// promotes the record to verified, irreversibly. Later attestations still
// count but never touch the status again.
func (s *Service) Validate(ctx context.Context, validator models.Principal, id models.RecordID) error {
	ctx, span := s.tracer.Start(ctx, "registry.Validate")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	att := &models.Attestation{
		RecordID:   id,
		Validator:  validator,
		AttestedAt: requestcontext.Now(ctx),
	}
	count, err := s.store.AppendAttestation(ctx, att, QuorumThreshold)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		err = dErrors.Wrap(err, dErrors.CodeNotFound, "record not found")
		s.reject("validate", err)
		return err
	case errors.Is(err, sentinel.ErrConflict):
		err = dErrors.Wrap(err, dErrors.CodeAlreadyValidated, "validator already attested to this record")
		s.reject("validate", err)
		return err
	case err != nil:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record attestation")
	}

	if s.metrics != nil {
		s.metrics.Attestations.Inc()
	}
	s.audit.Emit(ctx, audit.Event{
		Action:   audit.ActionRecordAttested,
		RecordID: id,
		Actor:    validator,
	})

	if count == QuorumThreshold {
		if s.metrics != nil {
			s.metrics.QuorumPromotions.Inc()
		}
		s.audit.Emit(ctx, audit.Event{
			Action:   audit.ActionRecordVerified,
			RecordID: id,
		})
		s.logger.InfoContext(ctx, "record verified",
			"record_id", id,
			"validator_count", count,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return nil
}

// Get returns the record by id.
func (s *Service) Get(ctx context.Context, id models.RecordID) (*models.DatasetRecord, error) {
	rec, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return nil, s.translateLookup(err)
	}
	return rec, nil
}

// ListByOwner returns the ids currently owned by a principal, in acquisition
// order. Unknown owners yield an empty list.
func (s *Service) ListByOwner(ctx context.Context, owner models.Principal) ([]models.RecordID, error) {
	ids, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list owner records")
	}
	return ids, nil
}

// Count returns the total number of record ids ever issued.
func (s *Service) Count(ctx context.Context) (uint64, error) {
	count, err := s.store.CountRecords(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count records")
	}
	return count, nil
}

// IsPublic reports a record's visibility, consulting the cache first when
// one is configured.
func (s *Service) IsPublic(ctx context.Context, id models.RecordID) (bool, error) {
	if s.cache != nil {
		if isPublic, ok := s.cache.Get(ctx, id); ok {
			return isPublic, nil
		}
	}
	rec, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return false, s.translateLookup(err)
	}
	if s.cache != nil {
		s.cache.Set(ctx, id, rec.IsPublic)
	}
	return rec.IsPublic, nil
}

// Attestations returns a record's attestations in arrival order.
func (s *Service) Attestations(ctx context.Context, id models.RecordID) ([]models.Attestation, error) {
	if _, err := s.store.GetRecord(ctx, id); err != nil {
		return nil, s.translateLookup(err)
	}
	atts, err := s.store.ListAttestations(ctx, id)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list attestations")
	}
	return atts, nil
}

// GetAdmin returns the current admin principal.
func (s *Service) GetAdmin(ctx context.Context) (models.Principal, error) {
	admin, err := s.store.GetAdmin(ctx)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to read admin")
	}
	return admin, nil
}

// SetAdmin rotates the admin principal. Only the current admin may call it.
func (s *Service) SetAdmin(ctx context.Context, caller, newAdmin models.Principal) error {
	ctx, span := s.tracer.Start(ctx, "registry.SetAdmin")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	admin, err := s.store.GetAdmin(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read admin")
	}
	if caller != admin {
		err = dErrors.New(dErrors.CodeNotAuthorized, "caller is not the registry admin")
		s.reject("set_admin", err)
		return err
	}

	if err := s.store.SetAdmin(ctx, newAdmin); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set admin")
	}

	s.audit.Emit(ctx, audit.Event{
		Action:  audit.ActionAdminChanged,
		Actor:   caller,
		Subject: newAdmin,
	})
	return nil
}

func (s *Service) translateLookup(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "record not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "record lookup failed")
}

func (s *Service) invalidateVisibility(ctx context.Context, id models.RecordID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, id)
	}
}

func (s *Service) reject(operation string, err error) {
	if s.metrics != nil {
		s.metrics.IncrementRejected(operation, string(dErrors.CodeOf(err)))
	}
}
