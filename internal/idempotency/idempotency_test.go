package idempotency

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestValidateKey_Cases(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"valid key", "order-retry-123", nil},
		{"uuid key", "550e8400-e29b-41d4-a716-446655440000", nil},
		{"empty key", "", ErrInvalidKey},
		{"at max length", strings.Repeat("a", MaxKeyLength), nil},
		{"over max length", strings.Repeat("a", MaxKeyLength+1), ErrKeyTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestComputeResponseHash_Deterministic(t *testing.T) {
	body := `{"id":"rec-1","status":"pending_pickup"}`

	first := ComputeResponseHash(body)
	second := ComputeResponseHash(body)
	if first != second {
		t.Error("same body must produce same hash")
	}
	if len(first) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(first))
	}
	if ComputeResponseHash(body+" ") == first {
		t.Error("different bodies must produce different hashes")
	}
}

func TestInMemoryRepository_StoreAndGet(t *testing.T) {
	repo := NewInMemoryRepository()

	record := &Record{
		Key:                "submit-1",
		Method:             "POST",
		Route:              "/records",
		ResponseBody:       `{"id":"rec-1"}`,
		ResponseStatusCode: 201,
	}
	record.ResponseHash = ComputeResponseHash(record.ResponseBody)

	if err := repo.Store(record); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	got, err := repo.Get("submit-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ResponseBody != record.ResponseBody || got.ResponseStatusCode != 201 {
		t.Errorf("stored record mismatch: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("Store should set CreatedAt when zero")
	}

	// The copy returned by Get must not alias internal state
	got.ResponseBody = "mutated"
	again, _ := repo.Get("submit-1")
	if again.ResponseBody == "mutated" {
		t.Error("Get must return a copy, not the stored record")
	}
}

func TestInMemoryRepository_DuplicateKey(t *testing.T) {
	repo := NewInMemoryRepository()

	record := &Record{Key: "dup", Method: "POST", Route: "/records"}
	if err := repo.Store(record); err != nil {
		t.Fatalf("first Store failed: %v", err)
	}
	if err := repo.Store(record); !errors.Is(err, ErrKeyExists) {
		t.Errorf("duplicate Store = %v, want ErrKeyExists", err)
	}
}

func TestInMemoryRepository_GetMissing(t *testing.T) {
	repo := NewInMemoryRepository()

	if _, err := repo.Get("missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get on missing key = %v, want ErrKeyNotFound", err)
	}
}

func TestInMemoryRepository_InvalidKeyRejected(t *testing.T) {
	repo := NewInMemoryRepository()

	if err := repo.Store(&Record{Key: ""}); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Store with empty key = %v, want ErrInvalidKey", err)
	}
	if err := repo.Store(&Record{Key: strings.Repeat("x", MaxKeyLength+1)}); !errors.Is(err, ErrKeyTooLong) {
		t.Errorf("Store with long key = %v, want ErrKeyTooLong", err)
	}
}

func TestInMemoryRepository_DeleteOlderThan(t *testing.T) {
	repo := NewInMemoryRepository()

	old := &Record{Key: "old", CreatedAt: time.Now().Add(-48 * time.Hour)}
	fresh := &Record{Key: "fresh", CreatedAt: time.Now()}
	for _, rec := range []*Record{old, fresh} {
		if err := repo.Store(rec); err != nil {
			t.Fatalf("Store failed: %v", err)
		}
	}

	deleted, err := repo.DeleteOlderThan(DefaultExpiry)
	if err != nil {
		t.Fatalf("DeleteOlderThan failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
	if _, err := repo.Get("old"); !errors.Is(err, ErrKeyNotFound) {
		t.Error("expired key should be gone")
	}
	if _, err := repo.Get("fresh"); err != nil {
		t.Error("fresh key should survive cleanup")
	}
}

func TestInMemoryRepository_ConcurrentAccess(t *testing.T) {
	repo := NewInMemoryRepository()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := strings.Repeat("k", n%MaxKeyLength+1)
			_ = repo.Store(&Record{Key: key})
			_, _ = repo.Get(key)
			_, _ = repo.DeleteOlderThan(DefaultExpiry)
		}(i)
	}
	wg.Wait()
}

func TestCleanupOldKeys(t *testing.T) {
	repo := NewInMemoryRepository()

	if err := repo.Store(&Record{Key: "stale", CreatedAt: time.Now().Add(-25 * time.Hour)}); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	deleted, err := CleanupOldKeys(repo, DefaultExpiry)
	if err != nil {
		t.Fatalf("CleanupOldKeys failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}

func TestRunPeriodicCleanup_Stops(t *testing.T) {
	repo := NewInMemoryRepository()

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		RunPeriodicCleanup(repo, time.Hour, DefaultExpiry, stop)
		close(done)
	}()

	close(stop)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunPeriodicCleanup did not stop")
	}
}
