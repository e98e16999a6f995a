package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricSubmissionsTotal      = "waste_submissions_total"
	MetricTransitionsTotal      = "record_transitions_total"
	MetricCreditsIssuedTotal    = "carbon_credits_issued_total"
	MetricCreditsPurchasedTotal = "carbon_credits_purchased_total"
	MetricDisbursedAmount       = "funds_disbursed_amount_total"
	MetricFraudFlaggedTotal     = "fraud_flagged_submissions_total"
)

// Metrics contains Prometheus metrics for ledger operations.
// All operations are thread-safe.
type Metrics struct {
	submissions      *prometheus.CounterVec
	transitions      *prometheus.CounterVec
	creditsIssued    prometheus.Counter
	creditsPurchased prometheus.Counter
	disbursedAmount  prometheus.Counter
	fraudFlagged     prometheus.Counter
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register them
// with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSubmissionsTotal,
				Help: "Total number of waste submissions by waste type",
			},
			[]string{"waste_type"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricTransitionsTotal,
				Help: "Total number of record transitions by resulting event",
			},
			[]string{"event"},
		),
		creditsIssued: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricCreditsIssuedTotal,
				Help: "Total number of carbon credits issued",
			},
		),
		creditsPurchased: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricCreditsPurchasedTotal,
				Help: "Total number of carbon credits purchased",
			},
		),
		disbursedAmount: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricDisbursedAmount,
				Help: "Total currency amount debited from rail pools at receipt",
			},
		),
		fraudFlagged: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: MetricFraudFlaggedTotal,
				Help: "Total number of submissions flagged by the fraud screen",
			},
		),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.submissions,
		m.transitions,
		m.creditsIssued,
		m.creditsPurchased,
		m.disbursedAmount,
		m.fraudFlagged,
	}

	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// IncSubmission increments the submission counter for a waste type.
func (m *Metrics) IncSubmission(wasteType string) {
	m.submissions.WithLabelValues(wasteType).Inc()
}

// IncTransition increments the transition counter for an event name.
func (m *Metrics) IncTransition(event string) {
	m.transitions.WithLabelValues(event).Inc()
}

// IncCreditsIssued increments the issued credit counter.
func (m *Metrics) IncCreditsIssued() {
	m.creditsIssued.Inc()
}

// AddCreditsPurchased adds to the purchased credit counter.
func (m *Metrics) AddCreditsPurchased(n int) {
	m.creditsPurchased.Add(float64(n))
}

// AddDisbursed adds a disbursed amount to the disbursement counter.
func (m *Metrics) AddDisbursed(amount float64) {
	m.disbursedAmount.Add(amount)
}

// IncFraudFlagged increments the fraud flag counter.
func (m *Metrics) IncFraudFlagged() {
	m.fraudFlagged.Inc()
}
