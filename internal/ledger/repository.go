package ledger

import (
	"sync"
)

// RecordFilter narrows List results. Zero-value fields match everything.
type RecordFilter struct {
	CitizenID string
	Status    Status
	MRVStatus MRVStatus
	WasteType string
}

// RecordRepository stores waste records. The core logic does not depend on
// the backing; implementations exist for in-memory maps and PostgreSQL.
type RecordRepository interface {
	// Create stores a new record.
	Create(r *WasteRecord) error

	// Get returns the record by id, or ErrNotFound.
	Get(id string) (*WasteRecord, error)

	// Update replaces the stored record. Callers serialize updates through
	// the service's per-record locks.
	Update(r *WasteRecord) error

	// List returns records matching the filter, oldest first.
	List(filter RecordFilter) ([]*WasteRecord, error)

	// Count returns the number of stored records.
	Count() (int, error)
}

// InMemoryRecordRepository is an in-memory implementation of
// RecordRepository. Thread-safe via RWMutex.
type InMemoryRecordRepository struct {
	mu      sync.RWMutex
	records map[string]*WasteRecord
	order   []string
}

// NewInMemoryRecordRepository creates a new in-memory record repository.
func NewInMemoryRecordRepository() *InMemoryRecordRepository {
	return &InMemoryRecordRepository{
		records: make(map[string]*WasteRecord),
	}
}

// Create stores a new record.
func (r *InMemoryRecordRepository) Create(rec *WasteRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	recCopy := *rec
	r.records[rec.ID] = &recCopy
	r.order = append(r.order, rec.ID)
	return nil
}

// Get returns a copy of the record by id.
func (r *InMemoryRecordRepository) Get(id string) (*WasteRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	recCopy := *rec
	return &recCopy, nil
}

// Update replaces the stored record.
func (r *InMemoryRecordRepository) Update(rec *WasteRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[rec.ID]; !ok {
		return ErrNotFound
	}
	recCopy := *rec
	r.records[rec.ID] = &recCopy
	return nil
}

// List returns copies of records matching the filter, oldest first.
func (r *InMemoryRecordRepository) List(filter RecordFilter) ([]*WasteRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*WasteRecord
	for _, id := range r.order {
		rec := r.records[id]
		if !matches(rec, filter) {
			continue
		}
		recCopy := *rec
		results = append(results, &recCopy)
	}
	return results, nil
}

// Count returns the number of stored records.
func (r *InMemoryRecordRepository) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records), nil
}

func matches(rec *WasteRecord, filter RecordFilter) bool {
	if filter.CitizenID != "" && rec.CitizenID != filter.CitizenID {
		return false
	}
	if filter.Status != "" && rec.Status != filter.Status {
		return false
	}
	if filter.MRVStatus != "" && rec.MRVStatus != filter.MRVStatus {
		return false
	}
	if filter.WasteType != "" && rec.WasteType != filter.WasteType {
		return false
	}
	return true
}
