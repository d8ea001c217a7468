package store

import (
	"context"
	"sync"

	"github.com/gboigwe/StratoLedger/internal/registry/models"
	"github.com/gboigwe/StratoLedger/pkg/platform/sentinel"
)

// InMemoryStore is the default backend and the test substrate. One mutex
// guards the whole registry state so every multi-step write commits as a
// unit; with the service serializing calls on top, readers never observe a
// partially applied operation.
type InMemoryStore struct {
	mu           sync.RWMutex
	records      map[models.RecordID]*models.DatasetRecord
	ownerIndex   map[models.Principal][]models.RecordID
	attestations map[models.RecordID][]models.Attestation
	nextID       models.RecordID
	admin        models.Principal
}

// NewInMemory constructs an empty registry store with the given initial
// admin principal.
func NewInMemory(admin models.Principal) *InMemoryStore {
	return &InMemoryStore{
		records:      make(map[models.RecordID]*models.DatasetRecord),
		ownerIndex:   make(map[models.Principal][]models.RecordID),
		attestations: make(map[models.RecordID][]models.Attestation),
		admin:        admin,
	}
}

func (s *InMemoryStore) CreateRecord(_ context.Context, rec *models.DatasetRecord) (models.RecordID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Capacity check happens before the id counter moves: a rejected
	// registration must not leave an id gap.
	if len(s.ownerIndex[rec.Owner]) >= OwnerIndexCapacity {
		return 0, sentinel.ErrCapacity
	}

	id := s.nextID + 1
	stored := *rec
	stored.ID = id
	s.records[id] = &stored
	s.ownerIndex[rec.Owner] = append(s.ownerIndex[rec.Owner], id)
	s.nextID = id
	return id, nil
}

func (s *InMemoryStore) GetRecord(_ context.Context, id models.RecordID) (*models.DatasetRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *rec
	return &out, nil
}

func (s *InMemoryStore) UpdateMetadata(_ context.Context, id models.RecordID, meta models.Metadata, isPublic bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec.Metadata = meta
	rec.IsPublic = isPublic
	return nil
}

func (s *InMemoryStore) SetFrozen(_ context.Context, id models.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec.MetadataFrozen = true
	return nil
}

func (s *InMemoryStore) TransferOwner(_ context.Context, id models.RecordID, from, to models.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	if rec.Owner != from {
		return sentinel.ErrInvalidState
	}
	if len(s.ownerIndex[to]) >= OwnerIndexCapacity {
		return sentinel.ErrCapacity
	}

	// Remove exactly one occurrence from the old owner's list.
	old := s.ownerIndex[from]
	removed := false
	for i, rid := range old {
		if rid == id {
			s.ownerIndex[from] = append(old[:i:i], old[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		// Owner field and index disagree; the strong consistency invariant
		// is broken and the transfer must not proceed.
		return sentinel.ErrInvalidState
	}

	s.ownerIndex[to] = append(s.ownerIndex[to], id)
	rec.Owner = to
	return nil
}

func (s *InMemoryStore) AppendAttestation(_ context.Context, att *models.Attestation, quorum uint32) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[att.RecordID]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	for _, existing := range s.attestations[att.RecordID] {
		if existing.Validator == att.Validator {
			return 0, sentinel.ErrConflict
		}
	}

	s.attestations[att.RecordID] = append(s.attestations[att.RecordID], *att)
	rec.ValidatorCount++
	if rec.ValidatorCount >= quorum && rec.Status == models.StatusPending {
		rec.Status = models.StatusVerified
	}
	return rec.ValidatorCount, nil
}

func (s *InMemoryStore) HasAttestation(_ context.Context, id models.RecordID, validator models.Principal) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, att := range s.attestations[id] {
		if att.Validator == validator {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) ListAttestations(_ context.Context, id models.RecordID) ([]models.Attestation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Attestation{}, s.attestations[id]...), nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, owner models.Principal) ([]models.RecordID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.RecordID{}, s.ownerIndex[owner]...), nil
}

func (s *InMemoryStore) CountRecords(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(s.nextID), nil
}

func (s *InMemoryStore) GetAdmin(_ context.Context) (models.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin, nil
}

func (s *InMemoryStore) SetAdmin(_ context.Context, admin models.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admin = admin
	return nil
}
