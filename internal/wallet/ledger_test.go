package wallet

import (
	"errors"
	"sync"
	"testing"
)

// TestCreditDebit_RoundTrip tests basic balance movement.
func TestCreditDebit_RoundTrip(t *testing.T) {
	l := NewInMemoryLedger()
	if err := l.Ensure("actor-1"); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	bal, err := l.Credit("actor-1", 500)
	if err != nil {
		t.Fatalf("Credit failed: %v", err)
	}
	if bal != 500 {
		t.Errorf("expected balance 500, got %v", bal)
	}

	bal, err = l.Debit("actor-1", 200)
	if err != nil {
		t.Fatalf("Debit failed: %v", err)
	}
	if bal != 300 {
		t.Errorf("expected balance 300, got %v", bal)
	}
}

// TestDebit_InsufficientFunds tests that an overdraw fails without mutating.
func TestDebit_InsufficientFunds(t *testing.T) {
	l := NewInMemoryLedger()
	if err := l.Ensure("actor-1"); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if _, err := l.Credit("actor-1", 100); err != nil {
		t.Fatalf("Credit failed: %v", err)
	}

	if _, err := l.Debit("actor-1", 100.01); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}

	acct, err := l.Get("actor-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if acct.Balance != 100 {
		t.Errorf("failed debit must not mutate balance, got %v", acct.Balance)
	}
}

// TestCredit_UnknownAccount tests the not-found path.
func TestCredit_UnknownAccount(t *testing.T) {
	l := NewInMemoryLedger()
	if _, err := l.Credit("ghost", 10); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
}

// TestNegativeAmounts tests that negative amounts are rejected everywhere.
func TestNegativeAmounts(t *testing.T) {
	l := NewInMemoryLedger()
	if err := l.Ensure("actor-1"); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	if _, err := l.Credit("actor-1", -1); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("Credit: expected ErrNegativeAmount, got %v", err)
	}
	if _, err := l.Debit("actor-1", -1); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("Debit: expected ErrNegativeAmount, got %v", err)
	}
	if _, err := l.AddCarbon("actor-1", -1); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("AddCarbon: expected ErrNegativeAmount, got %v", err)
	}
}

// TestAddCarbon tests carbon holdings accumulation.
func TestAddCarbon(t *testing.T) {
	l := NewInMemoryLedger()
	if err := l.Ensure("actor-1"); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	kg, err := l.AddCarbon("actor-1", 50)
	if err != nil {
		t.Fatalf("AddCarbon failed: %v", err)
	}
	if kg != 50 {
		t.Errorf("expected 50kg, got %v", kg)
	}
}

// TestCredit_Concurrent tests that concurrent credits all land.
func TestCredit_Concurrent(t *testing.T) {
	l := NewInMemoryLedger()
	if err := l.Ensure("actor-1"); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := l.Credit("actor-1", 1); err != nil {
				t.Errorf("Credit failed: %v", err)
			}
		}()
	}
	wg.Wait()

	acct, _ := l.Get("actor-1")
	if acct.Balance != 100 {
		t.Errorf("expected balance 100 after concurrent credits, got %v", acct.Balance)
	}
}
