// Package idempotency provides idempotency key management for operations that
// move money. A retried submission or credit purchase with the same key gets
// the original response back instead of double-crediting or double-debiting.
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// MaxKeyLength caps client-supplied keys.
const MaxKeyLength = 64

var (
	ErrKeyNotFound = errors.New("idempotency key not found")
	ErrKeyExists   = errors.New("idempotency key already exists")
	ErrInvalidKey  = errors.New("invalid idempotency key")
	ErrKeyTooLong  = fmt.Errorf("idempotency key exceeds maximum length of %d characters", MaxKeyLength)
)

// Record is a stored idempotency key together with the response it produced,
// so a duplicate request can be answered without re-executing.
type Record struct {
	Key                string    `json:"key"`
	Method             string    `json:"method"`
	Route              string    `json:"route"`
	CreatedAt          time.Time `json:"created_at"`
	ResponseHash       string    `json:"response_hash"`
	ResponseBody       string    `json:"response_body"`
	ResponseStatusCode int       `json:"response_status_code"`
}

// ValidateKey rejects empty and oversized keys.
func ValidateKey(key string) error {
	switch {
	case key == "":
		return ErrInvalidKey
	case len(key) > MaxKeyLength:
		return ErrKeyTooLong
	default:
		return nil
	}
}

// ComputeResponseHash returns the hex SHA-256 of a response body. Stored
// alongside the body so cached-response integrity can be checked.
func ComputeResponseHash(responseBody string) string {
	sum := sha256.Sum256([]byte(responseBody))
	return hex.EncodeToString(sum[:])
}

// Repository persists idempotency records.
type Repository interface {
	// Get returns the record for key, or ErrKeyNotFound.
	Get(key string) (*Record, error)

	// Store saves a new record, or ErrKeyExists on a duplicate key.
	Store(record *Record) error

	// DeleteOlderThan removes records older than the duration and reports
	// how many were dropped.
	DeleteOlderThan(duration time.Duration) (int64, error)
}
