package tracing

import (
	"context"
	"testing"
)

// TestNewProvider_Disabled tests that a disabled provider is inert.
func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(Config{Enabled: false})
	if err != nil {
		t.Fatalf("NewProvider failed: %v", err)
	}
	if p.IsEnabled() {
		t.Error("expected disabled provider")
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("disabled shutdown should be a no-op, got %v", err)
	}
	if p.Tracer("test") == nil {
		t.Error("expected a fallback tracer even when disabled")
	}
}

// TestNewProvider_Validation tests configuration rejection.
func TestNewProvider_Validation(t *testing.T) {
	if _, err := NewProvider(Config{Enabled: true, ServiceName: ""}); err == nil {
		t.Error("expected error for missing service name")
	}

	if _, err := NewProvider(Config{Enabled: true, ServiceName: "exchange", SamplingRate: 1.5}); err == nil {
		t.Error("expected error for out-of-range sampling rate")
	}

	if _, err := NewProvider(Config{Enabled: true, ServiceName: "exchange", Protocol: "carrier-pigeon"}); err == nil {
		t.Error("expected error for unsupported protocol")
	}
}

// TestStartSpan_EndsCleanly tests the span helper with a noop tracer.
func TestStartSpan_EndsCleanly(t *testing.T) {
	ctx, end := StartSpan(context.Background(), "test_operation")
	if ctx == nil {
		t.Fatal("expected context")
	}
	end(nil)

	ctx, end = StartDBSpan(context.Background(), "waste_records", DBOperationQuery)
	if ctx == nil {
		t.Fatal("expected context")
	}
	end(context.Canceled)
}
