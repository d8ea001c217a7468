package audit

import (
	"time"

	"github.com/gboigwe/StratoLedger/internal/registry/models"
)

// Action names a registry lifecycle event.
type Action string

const (
	ActionRecordRegistered Action = "record_registered"
	ActionMetadataUpdated  Action = "metadata_updated"
	ActionMetadataFrozen   Action = "metadata_frozen"
	ActionOwnerTransferred Action = "owner_transferred"
	ActionRecordAttested   Action = "record_attested"
	ActionRecordVerified   Action = "record_verified"
	ActionAdminChanged     Action = "admin_changed"
)

// Event is emitted from the registry service after a successful mutation.
// Keep it transport-agnostic so sinks can fan out.
type Event struct {
	ID        string           `json:"id"`
	Action    Action           `json:"action"`
	Timestamp time.Time        `json:"timestamp"`
	RecordID  models.RecordID  `json:"record_id,omitempty"`
	Actor     models.Principal `json:"actor,omitempty"`
	// Subject holds the counterparty when one exists: the new owner on a
	// transfer, the new admin on an admin change.
	Subject   models.Principal `json:"subject,omitempty"`
	RequestID string           `json:"request_id,omitempty"`
}
