package wallet

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// PostgresLedger implements Ledger using PostgreSQL. Debits run inside a
// transaction with the row locked FOR UPDATE so the non-negative balance
// invariant holds even without the service layer's keyed locks.
type PostgresLedger struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresLedger creates a new PostgresLedger.
func NewPostgresLedger(db *sql.DB, logger *slog.Logger) *PostgresLedger {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresLedger{db: db, logger: logger}
}

// Ensure creates a zero-balance account for the actor if absent.
func (l *PostgresLedger) Ensure(actorID string) error {
	query := `
		INSERT INTO wallets (actor_id, balance, carbon_credits_kg)
		VALUES ($1, 0, 0)
		ON CONFLICT (actor_id) DO NOTHING
	`
	if _, err := l.db.ExecContext(context.Background(), query, actorID); err != nil {
		return fmt.Errorf("failed to ensure wallet: %w", err)
	}
	return nil
}

// Credit adds amount to the actor's balance.
func (l *PostgresLedger) Credit(actorID string, amount float64) (float64, error) {
	if amount < 0 {
		return 0, ErrNegativeAmount
	}

	query := `
		UPDATE wallets SET balance = balance + $2
		WHERE actor_id = $1
		RETURNING balance
	`
	var balance float64
	err := l.db.QueryRowContext(context.Background(), query, actorID, amount).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to credit wallet: %w", err)
	}
	return balance, nil
}

// Debit subtracts amount from the actor's balance, failing before any
// mutation if the result would be negative.
func (l *PostgresLedger) Debit(actorID string, amount float64) (float64, error) {
	if amount < 0 {
		return 0, ErrNegativeAmount
	}

	ctx := context.Background()
	tx, err := l.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			l.logger.Warn("failed to rollback wallet transaction",
				slog.String("error", err.Error()))
		}
	}()

	var balance float64
	err = tx.QueryRowContext(ctx,
		`SELECT balance FROM wallets WHERE actor_id = $1 FOR UPDATE`,
		actorID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to lock wallet row: %w", err)
	}
	if balance < amount {
		return balance, ErrInsufficientFunds
	}

	err = tx.QueryRowContext(ctx,
		`UPDATE wallets SET balance = balance - $2 WHERE actor_id = $1 RETURNING balance`,
		actorID, amount).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("failed to debit wallet: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return balance, nil
}

// AddCarbon adds verified carbon reduction kilograms to the actor's holdings.
func (l *PostgresLedger) AddCarbon(actorID string, kg float64) (float64, error) {
	if kg < 0 {
		return 0, ErrNegativeAmount
	}

	query := `
		UPDATE wallets SET carbon_credits_kg = carbon_credits_kg + $2
		WHERE actor_id = $1
		RETURNING carbon_credits_kg
	`
	var carbon float64
	err := l.db.QueryRowContext(context.Background(), query, actorID, kg).Scan(&carbon)
	if err == sql.ErrNoRows {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add carbon holdings: %w", err)
	}
	return carbon, nil
}

// Get returns the actor's account.
func (l *PostgresLedger) Get(actorID string) (*Account, error) {
	query := `SELECT actor_id, balance, carbon_credits_kg FROM wallets WHERE actor_id = $1`
	acct := &Account{}
	err := l.db.QueryRowContext(context.Background(), query, actorID).
		Scan(&acct.ActorID, &acct.Balance, &acct.CarbonCreditsKg)
	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return acct, nil
}

// TotalBalance returns the sum of all wallet balances.
func (l *PostgresLedger) TotalBalance() (float64, error) {
	var total float64
	err := l.db.QueryRowContext(context.Background(),
		`SELECT COALESCE(SUM(balance), 0) FROM wallets`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum wallet balances: %w", err)
	}
	return total, nil
}
