package user

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

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

// TestPostgresRepository_CreateAndLookup tests the account round trip against
// a real database.
func TestPostgresRepository_CreateAndLookup(t *testing.T) {
	db := startPostgres(t)
	repo := NewPostgresRepository(db, nil)

	u := &User{
		Phone:        "+996700123456",
		Name:         "Aida",
		Role:         RoleCitizen,
		District:     "Chuy",
		State:        "Bishkek",
		PasswordHash: "$2a$10$notarealhash",
	}
	if err := repo.Create(u); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.ID == "" {
		t.Fatal("Create must assign an id")
	}
	if u.CreatedAt.IsZero() {
		t.Error("Create must set CreatedAt")
	}

	byID, err := repo.GetByID(u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if byID.Phone != u.Phone || byID.Name != u.Name || byID.Role != RoleCitizen {
		t.Errorf("unexpected user: %+v", byID)
	}
	if byID.District != "Chuy" || byID.State != "Bishkek" || byID.OrgName != "" {
		t.Errorf("unexpected profile fields: %+v", byID)
	}
	if byID.PasswordHash != u.PasswordHash {
		t.Error("password hash must round-trip")
	}

	byPhone, err := repo.GetByPhone(u.Phone)
	if err != nil {
		t.Fatalf("GetByPhone failed: %v", err)
	}
	if byPhone.ID != u.ID {
		t.Errorf("GetByPhone id = %s, want %s", byPhone.ID, u.ID)
	}

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Count = %d, want 1", count)
	}
}

// TestPostgresRepository_DuplicatePhone tests the unique phone constraint.
func TestPostgresRepository_DuplicatePhone(t *testing.T) {
	db := startPostgres(t)
	repo := NewPostgresRepository(db, nil)

	first := &User{Phone: "+996700999888", Name: "First", Role: RoleCitizen, PasswordHash: "h1"}
	if err := repo.Create(first); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	second := &User{Phone: "+996700999888", Name: "Second", Role: RoleAggregator, PasswordHash: "h2"}
	if err := repo.Create(second); !errors.Is(err, ErrPhoneExists) {
		t.Errorf("duplicate Create = %v, want ErrPhoneExists", err)
	}

	if count, _ := repo.Count(); count != 1 {
		t.Errorf("Count after rejected duplicate = %d, want 1", count)
	}
	stored, err := repo.GetByPhone("+996700999888")
	if err != nil {
		t.Fatalf("GetByPhone failed: %v", err)
	}
	if stored.Name != "First" {
		t.Errorf("existing account must win, got %q", stored.Name)
	}
}

// TestPostgresRepository_NotFound tests the missing-user paths.
func TestPostgresRepository_NotFound(t *testing.T) {
	db := startPostgres(t)
	repo := NewPostgresRepository(db, nil)

	if _, err := repo.GetByID("00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID = %v, want ErrUserNotFound", err)
	}
	if _, err := repo.GetByPhone("+996700000000"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByPhone = %v, want ErrUserNotFound", err)
	}
}
