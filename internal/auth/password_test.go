package auth

import (
	"errors"
	"testing"
)

// TestHashCheck_RoundTrip tests hashing and verification.
func TestHashCheck_RoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret-phrase")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "s3cret-phrase" {
		t.Fatal("hash must not equal the plaintext")
	}

	if !CheckPassword(hash, "s3cret-phrase") {
		t.Error("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("expected wrong password to fail")
	}
}

// TestHashPassword_Empty tests empty input rejection.
func TestHashPassword_Empty(t *testing.T) {
	if _, err := HashPassword(""); !errors.Is(err, ErrEmptyPassword) {
		t.Errorf("expected ErrEmptyPassword, got %v", err)
	}
	if CheckPassword("", "x") || CheckPassword("hash", "") {
		t.Error("empty hash or password must not verify")
	}
}
