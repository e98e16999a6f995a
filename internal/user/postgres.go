package user

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// PostgresRepository implements Repository using PostgreSQL. The phone unique
// constraint enforces one account per phone number at the database level.
type PostgresRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRepository creates a new PostgresRepository.
func NewPostgresRepository(db *sql.DB, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRepository{db: db, logger: logger}
}

// Create stores a new user. Returns ErrPhoneExists when the phone number is
// already registered.
func (r *PostgresRepository) Create(u *User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	query := `
		INSERT INTO users (id, phone, name, role, district, state, org_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (phone) DO NOTHING
	`
	result, err := r.db.ExecContext(context.Background(), query,
		u.ID, u.Phone, u.Name, string(u.Role),
		u.District, u.State, u.OrgName, u.PasswordHash, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read insert result: %w", err)
	}
	if rows == 0 {
		return ErrPhoneExists
	}
	return nil
}

// GetByID retrieves a user by id.
func (r *PostgresRepository) GetByID(id string) (*User, error) {
	return r.getBy(`id = $1`, id)
}

// GetByPhone retrieves a user by phone number.
func (r *PostgresRepository) GetByPhone(phone string) (*User, error) {
	return r.getBy(`phone = $1`, phone)
}

func (r *PostgresRepository) getBy(where string, arg any) (*User, error) {
	query := `
		SELECT id, phone, name, role, COALESCE(district, ''), COALESCE(state, ''), COALESCE(org_name, ''), password_hash, created_at
		FROM users WHERE ` + where
	u := &User{}
	err := r.db.QueryRowContext(context.Background(), query, arg).Scan(
		&u.ID, &u.Phone, &u.Name, &u.Role,
		&u.District, &u.State, &u.OrgName, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// Count returns the number of registered users.
func (r *PostgresRepository) Count() (int, error) {
	var count int
	err := r.db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
