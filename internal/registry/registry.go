// Package registry tracks issued carbon credits. Each verified waste record
// backs at most one credit, ever.
package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrAlreadyIssued is returned when a record already backs a credit.
	ErrAlreadyIssued = errors.New("carbon credit already issued for record")

	// ErrCreditNotFound is returned for an unknown credit or record id.
	ErrCreditNotFound = errors.New("carbon credit not found")
)

// CarbonCredit is a registry entry binding verified carbon reduction to its
// source record.
type CarbonCredit struct {
	ID       string  `json:"id"`
	RecordID string  `json:"record_id"`
	OwnerID  string  `json:"owner_id"`
	AmountKg float64 `json:"amount_kg"`

	// Confirmed is set once the MRV decision that backs the credit is final.
	Confirmed bool      `json:"confirmed"`
	IssuedAt  time.Time `json:"issued_at"`
}

// Registry defines carbon credit issuance and lookup.
type Registry interface {
	// Issue mints a credit for a record. Returns ErrAlreadyIssued if the
	// record already backs one; the existing credit is never replaced.
	Issue(recordID, ownerID string, amountKg float64) (*CarbonCredit, error)

	// ByRecord returns the credit backed by a record.
	ByRecord(recordID string) (*CarbonCredit, error)

	// ByOwner returns all credits held by an owner, oldest first.
	ByOwner(ownerID string) ([]*CarbonCredit, error)

	// Count returns the number of issued credits.
	Count() (int, error)
}

// InMemoryRegistry is an in-memory implementation of Registry.
// Thread-safe via RWMutex.
type InMemoryRegistry struct {
	mu       sync.RWMutex
	byRecord map[string]*CarbonCredit
	order    []string
}

// NewInMemoryRegistry creates a new in-memory carbon credit registry.
func NewInMemoryRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{
		byRecord: make(map[string]*CarbonCredit),
	}
}

// Issue mints a credit for a record, once.
func (r *InMemoryRegistry) Issue(recordID, ownerID string, amountKg float64) (*CarbonCredit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byRecord[recordID]; ok {
		return nil, ErrAlreadyIssued
	}

	credit := &CarbonCredit{
		ID:        uuid.New().String(),
		RecordID:  recordID,
		OwnerID:   ownerID,
		AmountKg:  amountKg,
		Confirmed: true,
		IssuedAt:  time.Now().UTC(),
	}
	r.byRecord[recordID] = credit
	r.order = append(r.order, recordID)

	creditCopy := *credit
	return &creditCopy, nil
}

// ByRecord returns the credit backed by a record.
func (r *InMemoryRegistry) ByRecord(recordID string) (*CarbonCredit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	credit, ok := r.byRecord[recordID]
	if !ok {
		return nil, ErrCreditNotFound
	}
	creditCopy := *credit
	return &creditCopy, nil
}

// ByOwner returns all credits held by an owner, oldest first.
func (r *InMemoryRegistry) ByOwner(ownerID string) ([]*CarbonCredit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*CarbonCredit
	for _, recordID := range r.order {
		credit := r.byRecord[recordID]
		if credit.OwnerID == ownerID {
			creditCopy := *credit
			results = append(results, &creditCopy)
		}
	}
	return results, nil
}

// Count returns the number of issued credits.
func (r *InMemoryRegistry) Count() (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byRecord), nil
}
