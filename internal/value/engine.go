// Package value computes the multi-rail monetary breakdown and carbon
// reduction estimate for a waste submission. The engine is a pure function
// over weight and waste type; it performs no I/O and is callable
// independently of any record's lifecycle.
package value

import (
	"errors"

	"github.com/rupaykg/exchange/internal/rates"
)

// ErrInvalidWeight is returned when the submitted weight is not positive.
var ErrInvalidWeight = errors.New("weight must be a positive number of kilograms")

// DefaultCarbonPricePerKg is the system-wide carbon price in currency units
// per kg CO2e. Configurable at startup, constant thereafter.
const DefaultCarbonPricePerKg = 10.0

// Rail apportionment shares of the base value. The carbon rail carries the
// carbon-credit value in full, so the five rails always sum to the total.
// Downstream pool debits and reports depend on this same scheme.
const (
	RecyclerShare  = 0.5
	CSRShare       = 0.2
	MunicipalShare = 0.2
	EPRShare       = 0.1
)

// Breakdown is the immutable value decomposition computed at submission.
type Breakdown struct {
	BaseValue         float64 `json:"base_value"`
	CarbonCreditValue float64 `json:"carbon_credit_value"`
	TotalValue        float64 `json:"total_value"`
	CarbonReductionKg float64 `json:"carbon_reduction_kg"`

	// Per-rail components. Recycler+CSR+Municipal+EPR == BaseValue,
	// Carbon == CarbonCreditValue, so the five sum to TotalValue.
	Recycler  float64 `json:"recycler"`
	CSR       float64 `json:"csr"`
	Municipal float64 `json:"municipal"`
	Carbon    float64 `json:"carbon"`
	EPR       float64 `json:"epr"`
}

// Engine computes value breakdowns at a fixed carbon price.
type Engine struct {
	carbonPricePerKg float64
}

// NewEngine creates a value engine. A non-positive carbon price falls back to
// the system default.
func NewEngine(carbonPricePerKg float64) *Engine {
	if carbonPricePerKg <= 0 {
		carbonPricePerKg = DefaultCarbonPricePerKg
	}
	return &Engine{carbonPricePerKg: carbonPricePerKg}
}

// CarbonPricePerKg returns the configured carbon price.
func (e *Engine) CarbonPricePerKg() float64 {
	return e.carbonPricePerKg
}

// Compute derives the full value breakdown for a submission. The waste type
// resolves through the rate table (unknown types use the default rate).
// Returns ErrInvalidWeight when weightKg <= 0.
func (e *Engine) Compute(weightKg float64, wasteType string) (Breakdown, error) {
	if weightKg <= 0 {
		return Breakdown{}, ErrInvalidWeight
	}

	rate := rates.For(wasteType)

	carbonReduction := weightKg * rate.CarbonPerKg
	baseValue := weightKg * rate.BasePerKg
	carbonCreditValue := carbonReduction * e.carbonPricePerKg

	return Breakdown{
		BaseValue:         baseValue,
		CarbonCreditValue: carbonCreditValue,
		TotalValue:        baseValue + carbonCreditValue,
		CarbonReductionKg: carbonReduction,
		Recycler:          baseValue * RecyclerShare,
		CSR:               baseValue * CSRShare,
		Municipal:         baseValue * MunicipalShare,
		Carbon:            carbonCreditValue,
		EPR:               baseValue * EPRShare,
	}, nil
}
