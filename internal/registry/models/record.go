package models

import (
	"time"

	dErrors "github.com/gboigwe/StratoLedger/pkg/domain-errors"
)

// RecordID identifies a dataset record. IDs are assigned once, strictly
// increasing in registration order, starting at 1.
type RecordID uint64

// Principal identifies a caller (owner, validator, or admin). The registry is
// identity-agnostic: authentication happens in the embedding environment and
// principals arrive here as opaque strings.
type Principal string

// ParsePrincipal validates a principal at the trust boundary.
func ParsePrincipal(s string) (Principal, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "principal cannot be empty")
	}
	if len(s) > 128 {
		return "", dErrors.New(dErrors.CodeBadRequest, "principal too long")
	}
	return Principal(s), nil
}

func (p Principal) String() string {
	return string(p)
}

// ValidationStatus tracks quorum progress. The only transition is
// Pending -> Verified, taken exactly once.
type ValidationStatus string

const (
	StatusPending  ValidationStatus = "pending"
	StatusVerified ValidationStatus = "verified"
)

// Metadata is the owner-editable portion of a record. All fields are bounded
// text; mutable until the record's metadata is frozen.
type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	DataType    string `json:"data_type"`
}

// Location fixes where the data was captured. Set once at registration and
// never revised. Latitude and longitude are degrees scaled by 1e6.
type Location struct {
	AltitudeMin int64 `json:"altitude_min"`
	AltitudeMax int64 `json:"altitude_max"`
	Latitude    int64 `json:"latitude"`
	Longitude   int64 `json:"longitude"`
}

// DatasetRecord is one registered unit of atmospheric data metadata plus the
// reference to its off-registry content.
type DatasetRecord struct {
	ID             RecordID         `json:"id"`
	Owner          Principal        `json:"owner"`
	Metadata       Metadata         `json:"metadata"`
	Location       Location         `json:"location"`
	ContentHash    string           `json:"content_hash"`
	CreatedAt      time.Time        `json:"created_at"`
	IsPublic       bool             `json:"is_public"`
	MetadataFrozen bool             `json:"metadata_frozen"`
	ValidatorCount uint32           `json:"validator_count"`
	Status         ValidationStatus `json:"status"`
}

// Attestation is one validator's statement about one record. Existence of an
// attestation is the sole witness that the validator attested; entries are
// never mutated or removed.
type Attestation struct {
	RecordID   RecordID  `json:"record_id"`
	Validator  Principal `json:"validator"`
	AttestedAt time.Time `json:"attested_at"`
}
