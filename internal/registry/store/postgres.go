package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/gboigwe/StratoLedger/internal/registry/models"
	"github.com/gboigwe/StratoLedger/pkg/platform/sentinel"
)

// PostgresStore persists the registry in PostgreSQL. Every multi-step write
// runs inside a transaction so an aborted call leaves no partial state; the
// id counter row is updated in the same transaction as the record insert, so
// failed registrations never consume an id.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registry store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const uniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS registry_records (
	id              BIGINT PRIMARY KEY,
	owner_principal TEXT NOT NULL,
	name            TEXT NOT NULL,
	description     TEXT NOT NULL,
	data_type       TEXT NOT NULL,
	altitude_min    BIGINT NOT NULL,
	altitude_max    BIGINT NOT NULL,
	latitude        BIGINT NOT NULL,
	longitude       BIGINT NOT NULL,
	content_hash    TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL,
	is_public       BOOLEAN NOT NULL,
	metadata_frozen BOOLEAN NOT NULL DEFAULT FALSE,
	validator_count INT NOT NULL DEFAULT 0,
	status          TEXT NOT NULL DEFAULT 'pending'
);

CREATE TABLE IF NOT EXISTS registry_owner_index (
	owner_principal TEXT NOT NULL,
	record_id       BIGINT NOT NULL REFERENCES registry_records (id),
	position        BIGSERIAL,
	PRIMARY KEY (owner_principal, record_id)
);

CREATE INDEX IF NOT EXISTS registry_owner_index_order
	ON registry_owner_index (owner_principal, position);

CREATE TABLE IF NOT EXISTS registry_attestations (
	record_id           BIGINT NOT NULL REFERENCES registry_records (id),
	validator_principal TEXT NOT NULL,
	attested_at         TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (record_id, validator_principal)
);

CREATE TABLE IF NOT EXISTS registry_counters (
	name  TEXT PRIMARY KEY,
	value BIGINT NOT NULL
);

INSERT INTO registry_counters (name, value)
	VALUES ('next_id', 0)
	ON CONFLICT (name) DO NOTHING;

CREATE TABLE IF NOT EXISTS registry_admin (
	singleton       BOOLEAN PRIMARY KEY DEFAULT TRUE,
	admin_principal TEXT NOT NULL
);
`

// EnsureSchema creates the registry tables when missing and seeds the admin
// principal on first boot.
func (s *PostgresStore) EnsureSchema(ctx context.Context, admin models.Principal) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create registry schema: %w", err)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO registry_admin (singleton, admin_principal) VALUES (TRUE, $1)
		 ON CONFLICT (singleton) DO NOTHING`, admin.String())
	if err != nil {
		return fmt.Errorf("seed admin principal: %w", err)
	}
	return nil
}

// Health reports whether the database connection is usable.
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) CreateRecord(ctx context.Context, rec *models.DatasetRecord) (models.RecordID, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin create record: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var owned int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registry_owner_index WHERE owner_principal = $1`,
		rec.Owner.String()).Scan(&owned)
	if err != nil {
		return 0, fmt.Errorf("count owner index: %w", err)
	}
	if owned >= OwnerIndexCapacity {
		return 0, sentinel.ErrCapacity
	}

	var id int64
	err = tx.QueryRowContext(ctx,
		`UPDATE registry_counters SET value = value + 1 WHERE name = 'next_id' RETURNING value`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("advance id counter: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO registry_records
			(id, owner_principal, name, description, data_type,
			 altitude_min, altitude_max, latitude, longitude,
			 content_hash, created_at, is_public, metadata_frozen, validator_count, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, FALSE, 0, $13)`,
		id, rec.Owner.String(), rec.Metadata.Name, rec.Metadata.Description, rec.Metadata.DataType,
		rec.Location.AltitudeMin, rec.Location.AltitudeMax, rec.Location.Latitude, rec.Location.Longitude,
		rec.ContentHash, rec.CreatedAt, rec.IsPublic, string(models.StatusPending))
	if err != nil {
		return 0, fmt.Errorf("insert record: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO registry_owner_index (owner_principal, record_id) VALUES ($1, $2)`,
		rec.Owner.String(), id)
	if err != nil {
		return 0, fmt.Errorf("append owner index: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit create record: %w", err)
	}
	return models.RecordID(id), nil
}

func (s *PostgresStore) GetRecord(ctx context.Context, id models.RecordID) (*models.DatasetRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_principal, name, description, data_type,
			altitude_min, altitude_max, latitude, longitude,
			content_hash, created_at, is_public, metadata_frozen, validator_count, status
		 FROM registry_records WHERE id = $1`, int64(id))
	return scanRecord(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.DatasetRecord, error) {
	var (
		rec    models.DatasetRecord
		owner  string
		status string
	)
	err := row.Scan(&rec.ID, &owner, &rec.Metadata.Name, &rec.Metadata.Description, &rec.Metadata.DataType,
		&rec.Location.AltitudeMin, &rec.Location.AltitudeMax, &rec.Location.Latitude, &rec.Location.Longitude,
		&rec.ContentHash, &rec.CreatedAt, &rec.IsPublic, &rec.MetadataFrozen, &rec.ValidatorCount, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}
	rec.Owner = models.Principal(owner)
	rec.Status = models.ValidationStatus(status)
	return &rec, nil
}

func (s *PostgresStore) UpdateMetadata(ctx context.Context, id models.RecordID, meta models.Metadata, isPublic bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE registry_records
		 SET name = $2, description = $3, data_type = $4, is_public = $5
		 WHERE id = $1`,
		int64(id), meta.Name, meta.Description, meta.DataType, isPublic)
	if err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) SetFrozen(ctx context.Context, id models.RecordID) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE registry_records SET metadata_frozen = TRUE WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("freeze metadata: %w", err)
	}
	return requireRow(res)
}

func (s *PostgresStore) TransferOwner(ctx context.Context, id models.RecordID, from, to models.Principal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transfer: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var owner string
	err = tx.QueryRowContext(ctx,
		`SELECT owner_principal FROM registry_records WHERE id = $1 FOR UPDATE`, int64(id)).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock record: %w", err)
	}
	if models.Principal(owner) != from {
		return sentinel.ErrInvalidState
	}

	var owned int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registry_owner_index WHERE owner_principal = $1`, to.String()).Scan(&owned)
	if err != nil {
		return fmt.Errorf("count destination index: %w", err)
	}
	if owned >= OwnerIndexCapacity {
		return sentinel.ErrCapacity
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM registry_owner_index WHERE owner_principal = $1 AND record_id = $2`,
		from.String(), int64(id))
	if err != nil {
		return fmt.Errorf("remove from owner index: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove from owner index: %w", err)
	}
	if removed != 1 {
		return sentinel.ErrInvalidState
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO registry_owner_index (owner_principal, record_id) VALUES ($1, $2)`,
		to.String(), int64(id))
	if err != nil {
		return fmt.Errorf("append to owner index: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE registry_records SET owner_principal = $2 WHERE id = $1`,
		int64(id), to.String())
	if err != nil {
		return fmt.Errorf("update record owner: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transfer: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendAttestation(ctx context.Context, att *models.Attestation, quorum uint32) (uint32, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin attestation: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM registry_records WHERE id = $1)`, int64(att.RecordID)).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("check record: %w", err)
	}
	if !exists {
		return 0, sentinel.ErrNotFound
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO registry_attestations (record_id, validator_principal, attested_at)
		 VALUES ($1, $2, $3)`,
		int64(att.RecordID), att.Validator.String(), att.AttestedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return 0, sentinel.ErrConflict
	}
	if err != nil {
		return 0, fmt.Errorf("insert attestation: %w", err)
	}

	var count uint32
	err = tx.QueryRowContext(ctx,
		`UPDATE registry_records
		 SET validator_count = validator_count + 1,
		     status = CASE WHEN validator_count + 1 >= $2 THEN 'verified' ELSE status END
		 WHERE id = $1
		 RETURNING validator_count`,
		int64(att.RecordID), int64(quorum)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment validator count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit attestation: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) HasAttestation(ctx context.Context, id models.RecordID, validator models.Principal) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM registry_attestations
			WHERE record_id = $1 AND validator_principal = $2)`,
		int64(id), validator.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check attestation: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ListAttestations(ctx context.Context, id models.RecordID) ([]models.Attestation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record_id, validator_principal, attested_at
		 FROM registry_attestations WHERE record_id = $1 ORDER BY attested_at, validator_principal`,
		int64(id))
	if err != nil {
		return nil, fmt.Errorf("list attestations: %w", err)
	}
	defer rows.Close()

	atts := []models.Attestation{}
	for rows.Next() {
		var (
			att       models.Attestation
			validator string
		)
		if err := rows.Scan(&att.RecordID, &validator, &att.AttestedAt); err != nil {
			return nil, fmt.Errorf("scan attestation: %w", err)
		}
		att.Validator = models.Principal(validator)
		atts = append(atts, att)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list attestations: %w", err)
	}
	return atts, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, owner models.Principal) ([]models.RecordID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record_id FROM registry_owner_index
		 WHERE owner_principal = $1 ORDER BY position`,
		owner.String())
	if err != nil {
		return nil, fmt.Errorf("list owner index: %w", err)
	}
	defer rows.Close()

	ids := []models.RecordID{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan owner index: %w", err)
		}
		ids = append(ids, models.RecordID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list owner index: %w", err)
	}
	return ids, nil
}

func (s *PostgresStore) CountRecords(ctx context.Context) (uint64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM registry_counters WHERE name = 'next_id'`).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("read id counter: %w", err)
	}
	return uint64(value), nil
}

func (s *PostgresStore) GetAdmin(ctx context.Context) (models.Principal, error) {
	var admin string
	err := s.db.QueryRowContext(ctx,
		`SELECT admin_principal FROM registry_admin WHERE singleton = TRUE`).Scan(&admin)
	if errors.Is(err, sql.ErrNoRows) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read admin: %w", err)
	}
	return models.Principal(admin), nil
}

func (s *PostgresStore) SetAdmin(ctx context.Context, admin models.Principal) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO registry_admin (singleton, admin_principal) VALUES (TRUE, $1)
		 ON CONFLICT (singleton) DO UPDATE SET admin_principal = EXCLUDED.admin_principal`,
		admin.String())
	if err != nil {
		return fmt.Errorf("set admin: %w", err)
	}
	return nil
}

func requireRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
