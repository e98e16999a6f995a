package audit

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// appendLockID serializes chain appends across connections via a Postgres
// advisory lock. The value is arbitrary but must be stable.
const appendLockID = 7441021

// PostgresRepository implements Repository using PostgreSQL. Appends run in a
// transaction under an advisory lock so the hash chain stays linear even with
// concurrent writers.
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

// Append records an event at the end of the chain.
func (r *PostgresRepository) Append(entry LogEntry) (*Entry, error) {
	if err := validateLogEntry(entry); err != nil {
		return nil, err
	}

	ctx := context.Background()
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		r.logger.Error("failed to begin audit transaction",
			slog.String("error", err.Error()),
			slog.String("event", string(entry.Event)))
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	// Always attempt rollback on function exit (no-op after successful commit)
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			r.logger.Warn("failed to rollback audit transaction",
				slog.String("error", err.Error()))
		}
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, appendLockID); err != nil {
		return nil, fmt.Errorf("failed to acquire append lock: %w", err)
	}

	e := &Entry{
		ID:             uuid.New().String(),
		Event:          entry.Event,
		ActorID:        entry.ActorID,
		ActorRole:      entry.ActorRole,
		RecordID:       entry.RecordID,
		Detail:         entry.Detail,
		ComplianceFlag: entry.ComplianceFlag,
		RequestID:      entry.RequestID,
		// TIMESTAMPTZ stores microseconds. The hash covers the timestamp, so
		// the value hashed at append time must equal the value read back.
		Timestamp: time.Now().UTC().Truncate(time.Microsecond),
	}

	tipQuery := `SELECT seq, hash FROM audit_logs ORDER BY seq DESC LIMIT 1`
	var tipSeq int64
	var tipHash string
	err = tx.QueryRowContext(ctx, tipQuery).Scan(&tipSeq, &tipHash)
	switch {
	case err == sql.ErrNoRows:
		e.Seq = 1
	case err != nil:
		return nil, fmt.Errorf("failed to read chain tip: %w", err)
	default:
		e.Seq = tipSeq + 1
		e.PreviousHash = tipHash
	}
	e.Hash = chainHash(e)

	insertQuery := `
		INSERT INTO audit_logs (id, seq, event, actor_id, actor_role, record_id, detail, compliance_flag, request_id, created_at, previous_hash, hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.ExecContext(ctx, insertQuery,
		e.ID, e.Seq, string(e.Event), e.ActorID, e.ActorRole,
		nullable(e.RecordID), nullable(e.Detail), e.ComplianceFlag,
		nullable(e.RequestID), e.Timestamp, e.PreviousHash, e.Hash)
	if err != nil {
		r.logger.Error("failed to insert audit entry",
			slog.String("error", err.Error()),
			slog.String("event", string(entry.Event)))
		return nil, fmt.Errorf("failed to insert audit entry: %w", err)
	}

	if err = tx.Commit(); err != nil {
		r.logger.Error("failed to commit audit transaction",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return e, nil
}

// Recent retrieves the latest entries, newest first.
func (r *PostgresRepository) Recent(limit int) ([]*Entry, error) {
	query := `
		SELECT id, seq, event, actor_id, actor_role, record_id, detail, compliance_flag, request_id, created_at, previous_hash, hash
		FROM audit_logs ORDER BY seq DESC
	`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	return r.query(query, args...)
}

// ByRecord retrieves entries for one waste record, oldest first.
func (r *PostgresRepository) ByRecord(recordID string) ([]*Entry, error) {
	query := `
		SELECT id, seq, event, actor_id, actor_role, record_id, detail, compliance_flag, request_id, created_at, previous_hash, hash
		FROM audit_logs WHERE record_id = $1 ORDER BY seq ASC
	`
	return r.query(query, recordID)
}

// ByActor retrieves entries for one actor, newest first.
func (r *PostgresRepository) ByActor(actorID string, limit int) ([]*Entry, error) {
	query := `
		SELECT id, seq, event, actor_id, actor_role, record_id, detail, compliance_flag, request_id, created_at, previous_hash, hash
		FROM audit_logs WHERE actor_id = $1 ORDER BY seq DESC
	`
	args := []any{actorID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	return r.query(query, args...)
}

// Verify walks the chain from the first entry. Returns the sequence number of
// the first corrupt entry, or -1 when the chain is intact.
func (r *PostgresRepository) Verify() (int64, error) {
	entries, err := r.query(`
		SELECT id, seq, event, actor_id, actor_role, record_id, detail, compliance_flag, request_id, created_at, previous_hash, hash
		FROM audit_logs ORDER BY seq ASC
	`)
	if err != nil {
		return 0, err
	}

	prevHash := ""
	for _, e := range entries {
		if e.PreviousHash != prevHash || chainHash(e) != e.Hash {
			return e.Seq, nil
		}
		prevHash = e.Hash
	}
	return -1, nil
}

func (r *PostgresRepository) query(query string, args ...any) ([]*Entry, error) {
	rows, err := r.db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}
	defer rows.Close()

	var results []*Entry
	for rows.Next() {
		var e Entry
		var recordID, detail, requestID sql.NullString
		if err := rows.Scan(&e.ID, &e.Seq, &e.Event, &e.ActorID, &e.ActorRole,
			&recordID, &detail, &e.ComplianceFlag, &requestID,
			&e.Timestamp, &e.PreviousHash, &e.Hash); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		e.RecordID = recordID.String
		e.Detail = detail.String
		e.RequestID = requestID.String
		results = append(results, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit logs: %w", err)
	}
	return results, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
