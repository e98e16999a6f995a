package wallet

import (
	"math"
	"testing"

	"github.com/rupaykg/exchange/internal/value"
)

// TestDebitRails tests that each rail loses exactly its breakdown component.
func TestDebitRails(t *testing.T) {
	p := NewPool(1000)

	b := value.Breakdown{
		Recycler:  250,
		CSR:       100,
		Municipal: 100,
		Carbon:    500,
		EPR:       50,
	}
	p.DebitRails(b)

	want := map[Rail]float64{
		RailRecycler:  750,
		RailCSR:       900,
		RailMunicipal: 900,
		RailCarbon:    500,
		RailEPR:       950,
	}
	for rail, expected := range want {
		if got := p.Balance(rail); math.Abs(got-expected) > 1e-9 {
			t.Errorf("rail %s: expected %v, got %v", rail, expected, got)
		}
	}
}

// TestDebitRails_Advisory tests that pools may go negative rather than
// rejecting a receipt.
func TestDebitRails_Advisory(t *testing.T) {
	p := NewPool(100)

	b := value.Breakdown{Carbon: 500}
	p.DebitRails(b)

	if got := p.Balance(RailCarbon); got != -400 {
		t.Errorf("expected advisory balance -400, got %v", got)
	}
}

// TestNewPool_DefaultSeed tests the seed fallback.
func TestNewPool_DefaultSeed(t *testing.T) {
	p := NewPool(0)
	for _, rail := range Rails {
		if got := p.Balance(rail); got != DefaultPoolSeed {
			t.Errorf("rail %s: expected default seed, got %v", rail, got)
		}
	}
}

// TestBalances_ReturnsCopy tests that the snapshot does not alias pool state.
func TestBalances_ReturnsCopy(t *testing.T) {
	p := NewPool(100)
	snap := p.Balances()
	snap[RailCSR] = -1

	if got := p.Balance(RailCSR); got != 100 {
		t.Errorf("pool state mutated through snapshot: %v", got)
	}
}
