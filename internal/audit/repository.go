package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidEvent is returned when the event name is not in the vocabulary.
	ErrInvalidEvent = errors.New("unknown audit event")
	// ErrInvalidActor is returned when the actor id is empty.
	ErrInvalidActor = errors.New("actor id cannot be empty")
)

// Repository defines the interface for audit log operations.
type Repository interface {
	// Append records an event and returns the created entry with its assigned
	// sequence number and chain hash.
	Append(entry LogEntry) (*Entry, error)

	// Recent retrieves the latest entries, newest first.
	// Limit specifies the maximum number of entries to return (0 = no limit).
	Recent(limit int) ([]*Entry, error)

	// ByRecord retrieves entries for one waste record, oldest first.
	ByRecord(recordID string) ([]*Entry, error)

	// ByActor retrieves entries for one actor, newest first.
	// Limit specifies the maximum number of entries to return (0 = no limit).
	ByActor(actorID string, limit int) ([]*Entry, error)

	// Verify walks the hash chain and reports the sequence number of the
	// first entry whose hash does not match, or -1 when the chain is intact.
	Verify() (int64, error)
}

// chainHash computes the tamper-detection hash for an entry. NUL separators
// keep the preimage unambiguous.
func chainHash(e *Entry) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d\x00%s\x00%s\x00%s\x00%s\x00%s\x00%t\x00%d\x00%s",
		e.Seq, e.Event, e.ActorID, e.ActorRole, e.RecordID, e.Detail,
		e.ComplianceFlag, e.Timestamp.UnixNano(), e.PreviousHash)
	return hex.EncodeToString(h.Sum(nil))
}

func validateLogEntry(entry LogEntry) error {
	if !ValidEvents[entry.Event] {
		return ErrInvalidEvent
	}
	if entry.ActorID == "" {
		return ErrInvalidActor
	}
	return nil
}

// InMemoryRepository is an in-memory implementation of Repository.
// Used for testing and development. Thread-safe via RWMutex.
type InMemoryRepository struct {
	mu      sync.RWMutex
	entries []*Entry
	nextSeq int64
}

// NewInMemoryRepository creates a new in-memory audit repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{nextSeq: 1}
}

// Append records an event at the end of the chain.
func (r *InMemoryRepository) Append(entry LogEntry) (*Entry, error) {
	if err := validateLogEntry(entry); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	e := &Entry{
		ID:             uuid.New().String(),
		Seq:            r.nextSeq,
		Event:          entry.Event,
		ActorID:        entry.ActorID,
		ActorRole:      entry.ActorRole,
		RecordID:       entry.RecordID,
		Detail:         entry.Detail,
		ComplianceFlag: entry.ComplianceFlag,
		RequestID:      entry.RequestID,
		Timestamp:      time.Now().UTC().Truncate(time.Microsecond),
	}
	if n := len(r.entries); n > 0 {
		e.PreviousHash = r.entries[n-1].Hash
	}
	e.Hash = chainHash(e)

	r.entries = append(r.entries, e)
	r.nextSeq++

	// Return a copy to prevent external modification
	entryCopy := *e
	return &entryCopy, nil
}

// Recent retrieves the latest entries, newest first.
func (r *InMemoryRepository) Recent(limit int) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*Entry
	for i := len(r.entries) - 1; i >= 0; i-- {
		entryCopy := *r.entries[i]
		results = append(results, &entryCopy)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}

// ByRecord retrieves entries for one waste record, oldest first.
func (r *InMemoryRepository) ByRecord(recordID string) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*Entry
	for _, e := range r.entries {
		if e.RecordID == recordID {
			entryCopy := *e
			results = append(results, &entryCopy)
		}
	}
	return results, nil
}

// ByActor retrieves entries for one actor, newest first.
func (r *InMemoryRepository) ByActor(actorID string, limit int) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []*Entry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].ActorID == actorID {
			entryCopy := *r.entries[i]
			results = append(results, &entryCopy)
			if limit > 0 && len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}

// Verify walks the chain from the first entry. Returns the sequence number of
// the first corrupt entry, or -1 when the chain is intact.
func (r *InMemoryRepository) Verify() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prevHash := ""
	for _, e := range r.entries {
		if e.PreviousHash != prevHash {
			return e.Seq, nil
		}
		if chainHash(e) != e.Hash {
			return e.Seq, nil
		}
		prevHash = e.Hash
	}
	return -1, nil
}
