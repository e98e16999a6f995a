package ledger

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gatherFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() == name {
			return fam
		}
	}
	t.Fatalf("metric family %q not found", name)
	return nil
}

// TestMetrics_Register tests that all collectors register without collision.
func TestMetrics_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics()

	if err := m.Register(reg); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Registering twice on the same registry must fail
	if err := m.Register(reg); err == nil {
		t.Error("expected duplicate registration to fail")
	}
}

// TestMetrics_SubmissionCounter tests label partitioning by waste type.
func TestMetrics_SubmissionCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	m.IncSubmission("paddy straw")
	m.IncSubmission("paddy straw")
	m.IncSubmission("cotton stalk")

	fam := gatherFamily(t, reg, MetricSubmissionsTotal)
	if len(fam.GetMetric()) != 2 {
		t.Fatalf("expected 2 label series, got %d", len(fam.GetMetric()))
	}

	byType := map[string]float64{}
	for _, metric := range fam.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "waste_type" {
				byType[label.GetValue()] = metric.GetCounter().GetValue()
			}
		}
	}
	if byType["paddy straw"] != 2 {
		t.Errorf("paddy straw count = %v, want 2", byType["paddy straw"])
	}
	if byType["cotton stalk"] != 1 {
		t.Errorf("cotton stalk count = %v, want 1", byType["cotton stalk"])
	}
}

// TestMetrics_DisbursedAccumulates tests the money counter sums amounts.
func TestMetrics_DisbursedAccumulates(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics()
	if err := m.Register(reg); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	m.AddDisbursed(250)
	m.AddDisbursed(750)
	m.AddCreditsPurchased(3)
	m.IncCreditsIssued()
	m.IncFraudFlagged()

	fam := gatherFamily(t, reg, MetricDisbursedAmount)
	if got := fam.GetMetric()[0].GetCounter().GetValue(); got != 1000 {
		t.Errorf("disbursed total = %v, want 1000", got)
	}

	fam = gatherFamily(t, reg, MetricCreditsPurchasedTotal)
	if got := fam.GetMetric()[0].GetCounter().GetValue(); got != 3 {
		t.Errorf("purchased total = %v, want 3", got)
	}
}
