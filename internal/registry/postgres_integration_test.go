package registry

import (
	"context"
	"database/sql"
	"errors"
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

	return db
}

// TestPostgresRegistry_IssueOncePerRecord tests issuance and the one credit
// per record constraint against a real database.
func TestPostgresRegistry_IssueOncePerRecord(t *testing.T) {
	db := startPostgres(t)
	reg := NewPostgresRegistry(db, nil)

	recordID := uuid.New().String()
	ownerID := uuid.New().String()

	credit, err := reg.Issue(recordID, ownerID, 50)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if credit.ID == "" || !credit.Confirmed {
		t.Errorf("unexpected credit: %+v", credit)
	}

	if _, err := reg.Issue(recordID, ownerID, 50); !errors.Is(err, ErrAlreadyIssued) {
		t.Errorf("second Issue = %v, want ErrAlreadyIssued", err)
	}

	got, err := reg.ByRecord(recordID)
	if err != nil {
		t.Fatalf("ByRecord failed: %v", err)
	}
	if got.ID != credit.ID || got.OwnerID != ownerID || got.AmountKg != 50 {
		t.Errorf("unexpected stored credit: %+v", got)
	}
	if !got.IssuedAt.Equal(credit.IssuedAt) {
		t.Errorf("issued_at %v differs from returned %v", got.IssuedAt, credit.IssuedAt)
	}

	if count, _ := reg.Count(); count != 1 {
		t.Errorf("Count = %d, want 1", count)
	}
}

// TestPostgresRegistry_ByOwnerOldestFirst tests owner-scoped retrieval
// ordering.
func TestPostgresRegistry_ByOwnerOldestFirst(t *testing.T) {
	db := startPostgres(t)
	reg := NewPostgresRegistry(db, nil)

	ownerID := uuid.New().String()
	otherID := uuid.New().String()

	first, err := reg.Issue(uuid.New().String(), ownerID, 10)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := reg.Issue(uuid.New().String(), otherID, 20); err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	second, err := reg.Issue(uuid.New().String(), ownerID, 30)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	credits, err := reg.ByOwner(ownerID)
	if err != nil {
		t.Fatalf("ByOwner failed: %v", err)
	}
	if len(credits) != 2 {
		t.Fatalf("expected 2 credits, got %d", len(credits))
	}
	if credits[0].ID != first.ID || credits[1].ID != second.ID {
		t.Error("expected oldest-first ordering")
	}
}

// TestPostgresRegistry_ByRecordMissing tests the not-found path.
func TestPostgresRegistry_ByRecordMissing(t *testing.T) {
	db := startPostgres(t)
	reg := NewPostgresRegistry(db, nil)

	if _, err := reg.ByRecord(uuid.New().String()); !errors.Is(err, ErrCreditNotFound) {
		t.Errorf("ByRecord = %v, want ErrCreditNotFound", err)
	}
}
