package registry

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// PostgresRegistry implements Registry using PostgreSQL. The record_id unique
// constraint enforces one credit per record at the database level.
type PostgresRegistry struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRegistry creates a new PostgresRegistry.
func NewPostgresRegistry(db *sql.DB, logger *slog.Logger) *PostgresRegistry {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRegistry{db: db, logger: logger}
}

// Issue mints a credit for a record, once.
func (r *PostgresRegistry) Issue(recordID, ownerID string, amountKg float64) (*CarbonCredit, error) {
	credit := &CarbonCredit{
		ID:        uuid.New().String(),
		RecordID:  recordID,
		OwnerID:   ownerID,
		AmountKg:  amountKg,
		Confirmed: true,
		IssuedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}

	query := `
		INSERT INTO carbon_credits (id, record_id, owner_id, amount_kg, confirmed, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (record_id) DO NOTHING
	`
	result, err := r.db.ExecContext(context.Background(), query,
		credit.ID, credit.RecordID, credit.OwnerID,
		credit.AmountKg, credit.Confirmed, credit.IssuedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to issue carbon credit: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read insert result: %w", err)
	}
	if rows == 0 {
		return nil, ErrAlreadyIssued
	}
	return credit, nil
}

// ByRecord returns the credit backed by a record.
func (r *PostgresRegistry) ByRecord(recordID string) (*CarbonCredit, error) {
	query := `
		SELECT id, record_id, owner_id, amount_kg, confirmed, issued_at
		FROM carbon_credits WHERE record_id = $1
	`
	credit := &CarbonCredit{}
	err := r.db.QueryRowContext(context.Background(), query, recordID).Scan(
		&credit.ID, &credit.RecordID, &credit.OwnerID,
		&credit.AmountKg, &credit.Confirmed, &credit.IssuedAt)
	if err == sql.ErrNoRows {
		return nil, ErrCreditNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get carbon credit: %w", err)
	}
	return credit, nil
}

// ByOwner returns all credits held by an owner, oldest first.
func (r *PostgresRegistry) ByOwner(ownerID string) ([]*CarbonCredit, error) {
	query := `
		SELECT id, record_id, owner_id, amount_kg, confirmed, issued_at
		FROM carbon_credits WHERE owner_id = $1 ORDER BY issued_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(context.Background(), query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query carbon credits: %w", err)
	}
	defer rows.Close()

	var results []*CarbonCredit
	for rows.Next() {
		credit := &CarbonCredit{}
		if err := rows.Scan(&credit.ID, &credit.RecordID, &credit.OwnerID,
			&credit.AmountKg, &credit.Confirmed, &credit.IssuedAt); err != nil {
			return nil, fmt.Errorf("failed to scan carbon credit: %w", err)
		}
		results = append(results, credit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate carbon credits: %w", err)
	}
	return results, nil
}

// Count returns the number of issued credits.
func (r *PostgresRegistry) Count() (int, error) {
	var count int
	err := r.db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM carbon_credits`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count carbon credits: %w", err)
	}
	return count, nil
}
