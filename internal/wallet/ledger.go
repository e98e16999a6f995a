// Package wallet provides the balance ledger for actor wallets and the
// per-rail funding pool. Balances are internal bookkeeping numbers, not
// external settlement.
package wallet

import (
	"errors"
	"sync"
)

// Common errors for wallet operations.
var (
	// ErrInsufficientFunds is returned when a debit would drive a balance
	// negative. The check happens before any mutation.
	ErrInsufficientFunds = errors.New("insufficient wallet balance")

	// ErrAccountNotFound is returned for an unknown actor id.
	ErrAccountNotFound = errors.New("wallet account not found")

	// ErrNegativeAmount is returned when a credit or debit amount is negative.
	ErrNegativeAmount = errors.New("amount must be non-negative")
)

// Account is the balance state for one actor.
type Account struct {
	ActorID         string  `json:"actor_id"`
	Balance         float64 `json:"balance"`
	CarbonCreditsKg float64 `json:"carbon_credits_kg"`
}

// Ledger defines wallet balance operations. Credit never fails for a
// non-negative amount; Debit enforces the non-negative balance invariant as a
// precondition.
type Ledger interface {
	// Ensure creates a zero-balance account for the actor if absent.
	Ensure(actorID string) error

	// Credit adds amount to the actor's balance and returns the new balance.
	Credit(actorID string, amount float64) (float64, error)

	// Debit subtracts amount from the actor's balance and returns the new
	// balance. Returns ErrInsufficientFunds, without mutating, when the
	// balance would go negative.
	Debit(actorID string, amount float64) (float64, error)

	// AddCarbon adds verified carbon reduction kilograms to the actor's
	// holdings and returns the new quantity.
	AddCarbon(actorID string, kg float64) (float64, error)

	// Get returns the actor's account.
	Get(actorID string) (*Account, error)

	// TotalBalance returns the sum of all wallet balances, for reporting.
	TotalBalance() (float64, error)
}

// InMemoryLedger is an in-memory implementation of Ledger.
// Thread-safe via RWMutex.
type InMemoryLedger struct {
	mu       sync.RWMutex
	accounts map[string]*Account
}

// NewInMemoryLedger creates a new in-memory wallet ledger.
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{
		accounts: make(map[string]*Account),
	}
}

// Ensure creates a zero-balance account for the actor if absent.
func (l *InMemoryLedger) Ensure(actorID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[actorID]; !ok {
		l.accounts[actorID] = &Account{ActorID: actorID}
	}
	return nil
}

// Credit adds amount to the actor's balance.
func (l *InMemoryLedger) Credit(actorID string, amount float64) (float64, error) {
	if amount < 0 {
		return 0, ErrNegativeAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[actorID]
	if !ok {
		return 0, ErrAccountNotFound
	}
	acct.Balance += amount
	return acct.Balance, nil
}

// Debit subtracts amount from the actor's balance, failing before any
// mutation if the result would be negative.
func (l *InMemoryLedger) Debit(actorID string, amount float64) (float64, error) {
	if amount < 0 {
		return 0, ErrNegativeAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[actorID]
	if !ok {
		return 0, ErrAccountNotFound
	}
	if acct.Balance < amount {
		return acct.Balance, ErrInsufficientFunds
	}
	acct.Balance -= amount
	return acct.Balance, nil
}

// AddCarbon adds verified carbon reduction kilograms to the actor's holdings.
func (l *InMemoryLedger) AddCarbon(actorID string, kg float64) (float64, error) {
	if kg < 0 {
		return 0, ErrNegativeAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[actorID]
	if !ok {
		return 0, ErrAccountNotFound
	}
	acct.CarbonCreditsKg += kg
	return acct.CarbonCreditsKg, nil
}

// Get returns a copy of the actor's account.
func (l *InMemoryLedger) Get(actorID string) (*Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acct, ok := l.accounts[actorID]
	if !ok {
		return nil, ErrAccountNotFound
	}

	copied := *acct
	return &copied, nil
}

// TotalBalance returns the sum of all wallet balances.
func (l *InMemoryLedger) TotalBalance() (float64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var total float64
	for _, acct := range l.accounts {
		total += acct.Balance
	}
	return total, nil
}
