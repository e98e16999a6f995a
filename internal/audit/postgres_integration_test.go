package audit

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

// startPostgres spins up a disposable PostgreSQL container and applies the
// repository migrations. Skipped in short mode; requires a Docker daemon.
func startPostgres(t *testing.T) *sql.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("exchange"),
		tcpostgres.WithUsername("exchange"),
		tcpostgres.WithPassword("exchange"),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	applyMigrations(t, db)
	return db
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()

	entries, err := os.ReadDir("../../migrations")
	if err != nil {
		t.Fatalf("failed to read migrations dir: %v", err)
	}

	var ups []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			ups = append(ups, entry.Name())
		}
	}
	sort.Strings(ups)

	for _, name := range ups {
		content, err := os.ReadFile(filepath.Join("../../migrations", name))
		if err != nil {
			t.Fatalf("failed to read migration %s: %v", name, err)
		}
		if _, err := db.Exec(string(content)); err != nil {
			t.Fatalf("failed to apply migration %s: %v", name, err)
		}
	}
}

// TestPostgresRepository_ChainRoundTrip tests sequencing, hash linkage, and
// reads against a real database.
func TestPostgresRepository_ChainRoundTrip(t *testing.T) {
	db := startPostgres(t)
	repo := NewPostgresRepository(db, nil)

	recordID := uuid.New().String()

	first, err := repo.Append(LogEntry{
		Event:     EventWasteUploaded,
		ActorID:   "citizen-1",
		ActorRole: "citizen",
		RecordID:  recordID,
		Detail:    "weight=50.00kg type=paddy straw",
	})
	if err != nil {
		t.Fatalf("first Append failed: %v", err)
	}
	if first.Seq != 1 {
		t.Errorf("first seq = %d, want 1", first.Seq)
	}
	if first.PreviousHash != "" {
		t.Errorf("first entry should have empty previous hash, got %q", first.PreviousHash)
	}

	second, err := repo.Append(LogEntry{
		Event:     EventBiomassPickup,
		ActorID:   "agg-1",
		ActorRole: "aggregator",
		RecordID:  recordID,
	})
	if err != nil {
		t.Fatalf("second Append failed: %v", err)
	}
	if second.Seq != 2 {
		t.Errorf("second seq = %d, want 2", second.Seq)
	}
	if second.PreviousHash != first.Hash {
		t.Error("second entry must chain to first entry's hash")
	}

	byRecord, err := repo.ByRecord(recordID)
	if err != nil {
		t.Fatalf("ByRecord failed: %v", err)
	}
	if len(byRecord) != 2 || byRecord[0].Seq != 1 {
		t.Errorf("expected 2 entries oldest first, got %d", len(byRecord))
	}

	recent, err := repo.Recent(1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 1 || recent[0].Seq != 2 {
		t.Error("Recent(1) should return the newest entry")
	}

	if corrupt, err := repo.Verify(); err != nil || corrupt != -1 {
		t.Errorf("Verify on intact chain = (%d, %v), want (-1, nil)", corrupt, err)
	}
}

// TestPostgresRepository_VerifyAfterReload tests that entries rehash to their
// stored hashes after a round trip through TIMESTAMPTZ columns, which keep
// microseconds only.
func TestPostgresRepository_VerifyAfterReload(t *testing.T) {
	db := startPostgres(t)
	repo := NewPostgresRepository(db, nil)

	appended, err := repo.Append(LogEntry{
		Event:     EventWasteUploaded,
		ActorID:   "citizen-1",
		ActorRole: "citizen",
		RecordID:  uuid.New().String(),
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// A fresh repository sees only what the database stored.
	reloaded := NewPostgresRepository(db, nil)
	entries, err := reloaded.Recent(1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if !entries[0].Timestamp.Equal(appended.Timestamp) {
		t.Errorf("stored timestamp %v differs from appended %v",
			entries[0].Timestamp, appended.Timestamp)
	}
	if entries[0].Hash != appended.Hash {
		t.Errorf("stored hash %s differs from appended %s", entries[0].Hash, appended.Hash)
	}

	if corrupt, err := reloaded.Verify(); err != nil || corrupt != -1 {
		t.Errorf("Verify after reload = (%d, %v), want (-1, nil)", corrupt, err)
	}
}

// TestPostgresRepository_VerifyDetectsTamper tests that a direct row edit
// breaks the chain.
func TestPostgresRepository_VerifyDetectsTamper(t *testing.T) {
	db := startPostgres(t)
	repo := NewPostgresRepository(db, nil)

	for i := 0; i < 3; i++ {
		if _, err := repo.Append(LogEntry{
			Event:     EventWasteUploaded,
			ActorID:   "citizen-1",
			ActorRole: "citizen",
			RecordID:  uuid.New().String(),
		}); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	if _, err := db.Exec(`UPDATE audit_logs SET detail = 'edited' WHERE seq = 2`); err != nil {
		t.Fatalf("failed to tamper with row: %v", err)
	}

	corrupt, err := repo.Verify()
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if corrupt != 2 {
		t.Errorf("Verify = %d, want 2", corrupt)
	}
}

// TestPostgresRepository_ConcurrentAppends tests that the advisory lock keeps
// sequence numbers gap-free under contention.
func TestPostgresRepository_ConcurrentAppends(t *testing.T) {
	db := startPostgres(t)
	repo := NewPostgresRepository(db, nil)

	const n = 10
	errCh := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := repo.Append(LogEntry{
				Event:     EventWasteUploaded,
				ActorID:   "citizen-1",
				ActorRole: "citizen",
				RecordID:  uuid.New().String(),
			})
			errCh <- err
		}()
	}
	for i := 0; i < n; i++ {
		select {
		case err := <-errCh:
			if err != nil {
				t.Fatalf("concurrent Append failed: %v", err)
			}
		case <-time.After(30 * time.Second):
			t.Fatal("timed out waiting for appends")
		}
	}

	entries, err := repo.Recent(n)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != n {
		t.Fatalf("expected %d entries, got %d", n, len(entries))
	}
	if corrupt, err := repo.Verify(); err != nil || corrupt != -1 {
		t.Errorf("Verify after concurrent appends = (%d, %v), want (-1, nil)", corrupt, err)
	}
}
