package ledger

import (
	"testing"
	"time"
)

// TestIntegrityStamp_Deterministic tests that the stamp is stable for the
// same identity fields and changes when any of them change.
func TestIntegrityStamp_Deterministic(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	s1, err := IntegrityStamp("rec-1", "citizen-1", 100, at)
	if err != nil {
		t.Fatalf("IntegrityStamp failed: %v", err)
	}
	s2, err := IntegrityStamp("rec-1", "citizen-1", 100, at)
	if err != nil {
		t.Fatalf("IntegrityStamp failed: %v", err)
	}
	if s1 != s2 {
		t.Error("stamp must be deterministic")
	}
	if len(s1) != 64 {
		t.Errorf("expected hex sha256, got %q", s1)
	}

	s3, _ := IntegrityStamp("rec-1", "citizen-1", 100.5, at)
	if s3 == s1 {
		t.Error("stamp must change with weight")
	}
}

// TestVerifyStamp tests round-trip verification and tamper detection.
func TestVerifyStamp(t *testing.T) {
	at := time.Now().UTC()
	rec := &WasteRecord{ID: "rec-1", CitizenID: "citizen-1", WeightKg: 42, CreatedAt: at}

	stamp, err := IntegrityStamp(rec.ID, rec.CitizenID, rec.WeightKg, rec.CreatedAt)
	if err != nil {
		t.Fatalf("IntegrityStamp failed: %v", err)
	}
	rec.IntegrityStamp = stamp

	ok, err := VerifyStamp(rec)
	if err != nil {
		t.Fatalf("VerifyStamp failed: %v", err)
	}
	if !ok {
		t.Error("expected stamp to verify")
	}

	rec.WeightKg = 420
	ok, _ = VerifyStamp(rec)
	if ok {
		t.Error("tampered record must fail verification")
	}
}
