package store

import (
	"context"

	"github.com/gboigwe/StratoLedger/internal/registry/models"
)

// OwnerIndexCapacity bounds the per-owner id list. Registration or transfer
// into an owner already holding this many records fails.
const OwnerIndexCapacity = 1000

// Store persists the registry state: the record table, the per-owner index,
// the validation ledger, the id counter, and the admin scalar.
//
// Multi-step operations (CreateRecord, TransferOwner, AppendAttestation) are
// atomic in every implementation: either every sub-write commits or none
// does. The service serializes calls, so implementations do not need to
// resolve write conflicts between concurrent registry operations, only to
// guarantee all-or-nothing commits.
//
// Stores return sentinel errors (pkg/platform/sentinel); the service layer
// translates them into domain errors.
type Store interface {
	// CreateRecord assigns the next id, inserts the record, and appends the
	// id to the owner's index in one step. The id counter advances only when
	// the whole step commits, so a failed registration never consumes an id.
	// Returns sentinel.ErrCapacity when the owner's index is full.
	CreateRecord(ctx context.Context, rec *models.DatasetRecord) (models.RecordID, error)

	// GetRecord returns the record, or sentinel.ErrNotFound.
	GetRecord(ctx context.Context, id models.RecordID) (*models.DatasetRecord, error)

	// UpdateMetadata replaces the editable metadata and visibility flag.
	UpdateMetadata(ctx context.Context, id models.RecordID, meta models.Metadata, isPublic bool) error

	// SetFrozen flips the one-way metadata-frozen flag. Freezing an already
	// frozen record is a successful no-op.
	SetFrozen(ctx context.Context, id models.RecordID) error

	// TransferOwner moves the record from one owner to another: removes
	// exactly one occurrence of id from the old owner's index, appends it to
	// the new owner's index, and updates the record's owner, atomically.
	// Returns sentinel.ErrCapacity when the destination index is full and
	// sentinel.ErrInvalidState when `from` does not own the record.
	TransferOwner(ctx context.Context, id models.RecordID, from, to models.Principal) error

	// AppendAttestation records one validator's attestation and increments
	// the record's validator count, promoting the status to Verified when the
	// new count first reaches quorum. Returns the new count, or
	// sentinel.ErrConflict when the (record, validator) pair already attested.
	AppendAttestation(ctx context.Context, att *models.Attestation, quorum uint32) (uint32, error)

	// HasAttestation reports whether the validator already attested to id.
	HasAttestation(ctx context.Context, id models.RecordID, validator models.Principal) (bool, error)

	// ListAttestations returns a record's attestations in arrival order.
	ListAttestations(ctx context.Context, id models.RecordID) ([]models.Attestation, error)

	// ListByOwner returns the ids currently owned, in acquisition order. An
	// owner with no records yields an empty list, never an error.
	ListByOwner(ctx context.Context, owner models.Principal) ([]models.RecordID, error)

	// CountRecords returns the total number of ids ever issued.
	CountRecords(ctx context.Context) (uint64, error)

	// GetAdmin returns the current admin principal.
	GetAdmin(ctx context.Context) (models.Principal, error)

	// SetAdmin replaces the admin principal.
	SetAdmin(ctx context.Context, admin models.Principal) error
}
