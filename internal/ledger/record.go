// Package ledger implements the waste record lifecycle and the settlement
// rules around it: role-gated transitions, split value crediting, the mrv
// gate, credit purchase, and the audit trail those actions leave behind.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/rupaykg/exchange/internal/fraud"
	"github.com/rupaykg/exchange/internal/value"
)

// Status is the pickup/transit/processing axis of a record's lifecycle.
type Status string

const (
	StatusPendingPickup Status = "pending_pickup"
	StatusInTransit     Status = "in_transit"
	StatusProcessed     Status = "processed"
	StatusFlagged       Status = "flagged"
)

// MRVStatus is the verification axis. It may only advance once the status
// axis has reached processed, and is terminal once set.
type MRVStatus string

const (
	MRVPending  MRVStatus = "pending"
	MRVVerified MRVStatus = "verified"
	MRVRejected MRVStatus = "rejected"
)

// WasteRecord is a single waste submission moving through the supply chain.
// The value breakdown is computed once at submission and never mutated; only
// status, mrv status, and the assignment fields change afterwards.
type WasteRecord struct {
	ID        string  `json:"id"`
	CitizenID string  `json:"citizen_id"`
	WeightKg  float64 `json:"weight_kg"`
	WasteType string  `json:"waste_type"`
	Village   string  `json:"village,omitempty"`

	Geo         fraud.Geo `json:"geo"`
	MoisturePct float64   `json:"moisture_pct"`
	ImageRef    string    `json:"image_ref,omitempty"`

	Breakdown value.Breakdown `json:"breakdown"`

	Status    Status    `json:"status"`
	MRVStatus MRVStatus `json:"mrv_status"`

	FraudFlagged bool   `json:"fraud_flagged"`
	FraudReason  string `json:"fraud_reason,omitempty"`
	FlagReason   string `json:"flag_reason,omitempty"`

	AggregatorID string `json:"aggregator_id,omitempty"`
	ProcessorID  string `json:"processor_id,omitempty"`
	PurchaserID  string `json:"purchaser_id,omitempty"`

	VerifierID string     `json:"verifier_id,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// IntegrityStamp is tamper evidence only, not a consensus primitive.
	IntegrityStamp string `json:"integrity_stamp"`
}

// stampPayload is the deterministic preimage for the integrity stamp.
type stampPayload struct {
	ID        string  `cbor:"1,keyasint"`
	CitizenID string  `cbor:"2,keyasint"`
	WeightKg  float64 `cbor:"3,keyasint"`
	CreatedAt int64   `cbor:"4,keyasint"`
}

var stampEncMode cbor.EncMode

func init() {
	var err error
	stampEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbor encoder init: %v", err))
	}
}

// IntegrityStamp computes the tamper-evidence hash over the record's
// immutable identity fields, using deterministic CBOR so the preimage is
// stable across encoders.
func IntegrityStamp(id, citizenID string, weightKg float64, createdAt time.Time) (string, error) {
	data, err := stampEncMode.Marshal(stampPayload{
		ID:        id,
		CitizenID: citizenID,
		WeightKg:  weightKg,
		CreatedAt: createdAt.Unix(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode stamp payload: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// VerifyStamp recomputes a record's integrity stamp and reports whether it
// matches the stored one.
func VerifyStamp(r *WasteRecord) (bool, error) {
	stamp, err := IntegrityStamp(r.ID, r.CitizenID, r.WeightKg, r.CreatedAt)
	if err != nil {
		return false, err
	}
	return stamp == r.IntegrityStamp, nil
}
