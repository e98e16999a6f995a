package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// PostgresRecordRepository implements RecordRepository using PostgreSQL.
// Per-record serialization happens in the service layer; here each write is
// its own transaction so a failed statement never leaves a partial row.
type PostgresRecordRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresRecordRepository creates a new PostgresRecordRepository.
func NewPostgresRecordRepository(db *sql.DB, logger *slog.Logger) *PostgresRecordRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRecordRepository{db: db, logger: logger}
}

const recordColumns = `
	id, citizen_id, weight_kg, waste_type, village,
	geo_lat, geo_long, moisture_pct, image_ref,
	base_value, carbon_credit_value, total_value, carbon_reduction_kg,
	rail_recycler, rail_csr, rail_municipal, rail_carbon, rail_epr,
	status, mrv_status, fraud_flagged, fraud_reason, flag_reason,
	aggregator_id, processor_id, purchaser_id, verifier_id, verified_at,
	created_at, integrity_stamp
`

// Create stores a new record.
func (r *PostgresRecordRepository) Create(rec *WasteRecord) error {
	ctx := context.Background()
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		r.logger.Error("failed to begin record transaction",
			slog.String("error", err.Error()),
			slog.String("record_id", rec.ID))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			r.logger.Warn("failed to rollback record transaction",
				slog.String("error", err.Error()))
		}
	}()

	query := `
		INSERT INTO waste_records (` + recordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26,
		        $27, $28, $29, $30)
	`
	_, err = tx.ExecContext(ctx, query, recordArgs(rec)...)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Get returns the record by id.
func (r *PostgresRecordRepository) Get(id string) (*WasteRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM waste_records WHERE id = $1`
	row := r.db.QueryRowContext(context.Background(), query, id)

	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return rec, nil
}

// Update replaces the mutable fields of the stored record.
func (r *PostgresRecordRepository) Update(rec *WasteRecord) error {
	ctx := context.Background()
	query := `
		UPDATE waste_records SET
			status = $2, mrv_status = $3,
			fraud_flagged = $4, fraud_reason = $5, flag_reason = $6,
			aggregator_id = $7, processor_id = $8, purchaser_id = $9,
			verifier_id = $10, verified_at = $11
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		rec.ID, string(rec.Status), string(rec.MRVStatus),
		rec.FraudFlagged, nullStr(rec.FraudReason), nullStr(rec.FlagReason),
		nullStr(rec.AggregatorID), nullStr(rec.ProcessorID), nullStr(rec.PurchaserID),
		nullStr(rec.VerifierID), nullTime(rec.VerifiedAt))
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns records matching the filter, oldest first.
func (r *PostgresRecordRepository) List(filter RecordFilter) ([]*WasteRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM waste_records WHERE 1=1`
	var args []any

	add := func(column, v string) {
		args = append(args, v)
		query += fmt.Sprintf(" AND %s = $%d", column, len(args))
	}
	if filter.CitizenID != "" {
		add("citizen_id", filter.CitizenID)
	}
	if filter.Status != "" {
		add("status", string(filter.Status))
	}
	if filter.MRVStatus != "" {
		add("mrv_status", string(filter.MRVStatus))
	}
	if filter.WasteType != "" {
		add("waste_type", filter.WasteType)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var results []*WasteRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return results, nil
}

// Count returns the number of stored records.
func (r *PostgresRecordRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM waste_records`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return n, nil
}

func recordArgs(rec *WasteRecord) []any {
	return []any{
		rec.ID, rec.CitizenID, rec.WeightKg, rec.WasteType, nullStr(rec.Village),
		rec.Geo.Lat, rec.Geo.Long, rec.MoisturePct, nullStr(rec.ImageRef),
		rec.Breakdown.BaseValue, rec.Breakdown.CarbonCreditValue,
		rec.Breakdown.TotalValue, rec.Breakdown.CarbonReductionKg,
		rec.Breakdown.Recycler, rec.Breakdown.CSR, rec.Breakdown.Municipal,
		rec.Breakdown.Carbon, rec.Breakdown.EPR,
		string(rec.Status), string(rec.MRVStatus),
		rec.FraudFlagged, nullStr(rec.FraudReason), nullStr(rec.FlagReason),
		nullStr(rec.AggregatorID), nullStr(rec.ProcessorID), nullStr(rec.PurchaserID),
		nullStr(rec.VerifierID), nullTime(rec.VerifiedAt),
		rec.CreatedAt, rec.IntegrityStamp,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*WasteRecord, error) {
	var rec WasteRecord
	var village, imageRef, fraudReason, flagReason sql.NullString
	var aggregatorID, processorID, purchaserID, verifierID sql.NullString
	var verifiedAt sql.NullTime

	err := row.Scan(
		&rec.ID, &rec.CitizenID, &rec.WeightKg, &rec.WasteType, &village,
		&rec.Geo.Lat, &rec.Geo.Long, &rec.MoisturePct, &imageRef,
		&rec.Breakdown.BaseValue, &rec.Breakdown.CarbonCreditValue,
		&rec.Breakdown.TotalValue, &rec.Breakdown.CarbonReductionKg,
		&rec.Breakdown.Recycler, &rec.Breakdown.CSR, &rec.Breakdown.Municipal,
		&rec.Breakdown.Carbon, &rec.Breakdown.EPR,
		&rec.Status, &rec.MRVStatus,
		&rec.FraudFlagged, &fraudReason, &flagReason,
		&aggregatorID, &processorID, &purchaserID,
		&verifierID, &verifiedAt,
		&rec.CreatedAt, &rec.IntegrityStamp,
	)
	if err != nil {
		return nil, err
	}

	rec.Village = village.String
	rec.ImageRef = imageRef.String
	rec.FraudReason = fraudReason.String
	rec.FlagReason = flagReason.String
	rec.AggregatorID = aggregatorID.String
	rec.ProcessorID = processorID.String
	rec.PurchaserID = purchaserID.String
	rec.VerifierID = verifierID.String
	if verifiedAt.Valid {
		t := verifiedAt.Time
		rec.VerifiedAt = &t
	}
	return &rec, nil
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
