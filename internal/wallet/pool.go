package wallet

import (
	"sync"

	"github.com/rupaykg/exchange/internal/value"
)

// Rail names the five funding channels that jointly fund a record's value.
type Rail string

const (
	RailRecycler  Rail = "recycler"
	RailCSR       Rail = "csr"
	RailMunicipal Rail = "municipal"
	RailCarbon    Rail = "carbon"
	RailEPR       Rail = "epr"
)

// Rails lists the rails in reporting order.
var Rails = []Rail{RailRecycler, RailCSR, RailMunicipal, RailCarbon, RailEPR}

// DefaultPoolSeed is the initial balance for each rail.
const DefaultPoolSeed = 1e7

// Pool tracks per-rail disbursement capacity. Balances are advisory counters
// and may go negative; whether rails should be hard caps is a policy decision
// for the system owner.
type Pool struct {
	mu       sync.RWMutex
	balances map[Rail]float64
}

// NewPool creates a funding pool with every rail seeded to seed. A
// non-positive seed falls back to DefaultPoolSeed.
func NewPool(seed float64) *Pool {
	if seed <= 0 {
		seed = DefaultPoolSeed
	}
	balances := make(map[Rail]float64, len(Rails))
	for _, r := range Rails {
		balances[r] = seed
	}
	return &Pool{balances: balances}
}

// DebitRails decrements each rail by the matching breakdown component. Called
// once per record, at processing receipt.
func (p *Pool) DebitRails(b value.Breakdown) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.balances[RailRecycler] -= b.Recycler
	p.balances[RailCSR] -= b.CSR
	p.balances[RailMunicipal] -= b.Municipal
	p.balances[RailCarbon] -= b.Carbon
	p.balances[RailEPR] -= b.EPR
}

// Balance returns the current balance of one rail.
func (p *Pool) Balance(r Rail) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.balances[r]
}

// Balances returns a copy of all rail balances.
func (p *Pool) Balances() map[Rail]float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[Rail]float64, len(p.balances))
	for r, v := range p.balances {
		out[r] = v
	}
	return out
}
