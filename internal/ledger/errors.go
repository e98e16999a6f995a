package ledger

import (
	"errors"

	"github.com/rupaykg/exchange/internal/registry"
	"github.com/rupaykg/exchange/internal/wallet"
)

var (
	// ErrValidation is returned for malformed or missing input. The caller
	// can correct the request and retry.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidState is returned when an operation is not legal for the
	// record's current status or mrv status.
	ErrInvalidState = errors.New("operation not valid for record state")

	// ErrNotFound is returned for an unknown record id.
	ErrNotFound = errors.New("record not found")

	// ErrForbidden is returned when the caller's role does not permit the
	// operation.
	ErrForbidden = errors.New("role not permitted for operation")

	// ErrInsufficientFunds is returned when a purchase would drive the
	// buyer's balance negative. Checked before any mutation.
	ErrInsufficientFunds = wallet.ErrInsufficientFunds

	// ErrAlreadyIssued signals the anti-double-mint safeguard fired. It
	// should be unreachable behind the mrv state guard; treat it as an
	// internal bug, not a user error.
	ErrAlreadyIssued = registry.ErrAlreadyIssued
)
