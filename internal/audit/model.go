// Package audit provides the append-only audit log for lifecycle, monetary,
// and compliance events, with hash chaining for tamper detection.
package audit

import (
	"time"
)

// Event identifies what happened. The vocabulary is closed; handlers must not
// invent new event names.
type Event string

const (
	EventWasteUploaded      Event = "WASTE_UPLOADED"
	EventBiomassPickup      Event = "BIOMASS_PICKUP"
	EventBiomassProcessed   Event = "BIOMASS_PROCESSED"
	EventRecordFlagged      Event = "RECORD_FLAGGED"
	EventMRVVerified        Event = "MRV_VERIFIED"
	EventMRVRejected        Event = "MRV_REJECTED"
	EventCreditsPurchased   Event = "CREDITS_PURCHASED"
	EventFundsDisbursed     Event = "FUNDS_DISBURSED"
	EventFarmerCreated      Event = "FARMER_CREATED"
	EventCarbonCreditIssued Event = "CARBON_CREDIT_ISSUED"
)

// ValidEvents defines the allowed event names for audit logging.
var ValidEvents = map[Event]bool{
	EventWasteUploaded:      true,
	EventBiomassPickup:      true,
	EventBiomassProcessed:   true,
	EventRecordFlagged:      true,
	EventMRVVerified:        true,
	EventMRVRejected:        true,
	EventCreditsPurchased:   true,
	EventFundsDisbursed:     true,
	EventFarmerCreated:      true,
	EventCarbonCreditIssued: true,
}

// Entry represents a single audit event in the system. Seq is assigned by the
// repository and increases strictly; Hash covers the entry content plus
// PreviousHash, so rewriting history invalidates every later entry.
type Entry struct {
	ID        string    `json:"id"`
	Seq       int64     `json:"seq"`
	Event     Event     `json:"event"`
	ActorID   string    `json:"actor_id"`
	ActorRole string    `json:"actor_role"`
	RecordID  string    `json:"record_id,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// ComplianceFlag marks entries a regulator should review.
	ComplianceFlag bool `json:"compliance_flag"`

	// Optional metadata
	RequestID string `json:"request_id,omitempty"`

	// Tamper detection
	PreviousHash string `json:"previous_hash"`
	Hash         string `json:"hash"`
}

// LogEntry represents the input for creating an audit log entry. Seq,
// Timestamp, and the hash fields are assigned by the repository.
type LogEntry struct {
	Event          Event
	ActorID        string
	ActorRole      string
	RecordID       string
	Detail         string
	ComplianceFlag bool
	RequestID      string
}
