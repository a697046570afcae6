package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/koyif/atm/internal/domain"
	"github.com/koyif/atm/internal/service"
	"github.com/koyif/atm/pkg/logger"
)

const transactionRollbackError = "error rolling back transaction"

const (
	selectPinQuery = "SELECT pin FROM account WHERE account_id = $1"

	selectBalanceQuery = `SELECT b.current_balance FROM balance b
		JOIN account a ON a.id = b.account_id
		WHERE a.account_id = $1`

	selectBalanceForUpdateQuery = selectBalanceQuery + " FOR UPDATE OF b"

	adjustBalanceQuery = `UPDATE balance SET current_balance = current_balance + $1
		WHERE account_id = (SELECT id FROM account WHERE account_id = $2)
		RETURNING current_balance`

	insertHistoryQuery = `INSERT INTO history (id, account_id, amount, new_balance, created_at)
		SELECT $1::uuid, a.id, $3::bigint, $4::bigint, $5::timestamptz FROM account a WHERE a.account_id = $2`

	selectHistoryQuery = `SELECT h.id::text, h.amount, h.new_balance, h.created_at FROM history h
		JOIN account a ON a.id = h.account_id
		WHERE a.account_id = $1
		ORDER BY h.created_at DESC, h.seq DESC`
)

type verifier interface {
	Verify(hash, secret string) bool
}

type Postgres struct {
	DB       *sql.DB
	verifier verifier
}

var _ service.Ledger = (*Postgres)(nil)

func New(db *sql.DB, v verifier) *Postgres {
	return &Postgres{DB: db, verifier: v}
}

func (p *Postgres) Close() error {
	return p.DB.Close()
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.DB.PingContext(ctx)
}

func (p *Postgres) VerifyCredentials(ctx context.Context, accountID, pin string) (bool, error) {
	var hash string
	err := p.DB.QueryRowContext(ctx, selectPinQuery, accountID).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("error fetching account: %w", err)
	}

	return p.verifier.Verify(hash, pin), nil
}

func (p *Postgres) Balance(ctx context.Context, accountID string) (int64, error) {
	return balance(ctx, p.DB, selectBalanceQuery, accountID)
}

func (p *Postgres) History(ctx context.Context, accountID string) ([]domain.HistoryRecord, error) {
	// Distinguishes an unknown account from one without history.
	if _, err := p.Balance(ctx, accountID); err != nil {
		return nil, err
	}

	rows, err := p.DB.QueryContext(ctx, selectHistoryQuery, accountID)
	if err != nil {
		return nil, fmt.Errorf("error fetching history: %w", err)
	}
	defer func(rows *sql.Rows) {
		err := rows.Close()
		if err != nil {
			logger.Log.Error("error closing rows", logger.Error(err))
		}
	}(rows)

	var records []domain.HistoryRecord
	for rows.Next() {
		record := domain.HistoryRecord{AccountID: accountID}
		err := rows.Scan(&record.ID, &record.Amount, &record.Balance, &record.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("error scanning history record: %w", err)
		}
		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over history: %w", err)
	}

	return records, nil
}

func (p *Postgres) Atomically(ctx context.Context, fn func(tx service.LedgerTx) error) error {
	tx, err := p.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error starting transaction: %w", err)
	}

	if err = fn(&ledgerTx{tx: tx}); err != nil {
		rollback(tx)
		return err
	}

	if err = tx.Commit(); err != nil {
		rollback(tx)
		return fmt.Errorf("error committing transaction: %w", err)
	}

	return nil
}

type ledgerTx struct {
	tx *sql.Tx
}

func (t *ledgerTx) Balance(ctx context.Context, accountID string) (int64, error) {
	return balance(ctx, t.tx, selectBalanceForUpdateQuery, accountID)
}

func (t *ledgerTx) AdjustBalance(ctx context.Context, accountID string, delta int64) (int64, error) {
	var newBalance int64
	err := t.tx.QueryRowContext(ctx, adjustBalanceQuery, delta, accountID).Scan(&newBalance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, accountID)
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "22003" { // numeric_value_out_of_range
			logger.Log.Warn("balance out of range", logger.String("account_id", accountID), logger.Int64("delta", delta))
			return 0, fmt.Errorf("error adjusting balance of %s: %w", accountID, domain.ErrBalanceOverflow)
		}
		logger.Log.Error("error adjusting balance", logger.String("account_id", accountID), logger.Int64("delta", delta), logger.Error(err))
		return 0, fmt.Errorf("error adjusting balance: %w", err)
	}

	return newBalance, nil
}

func (t *ledgerTx) AppendHistory(ctx context.Context, record domain.HistoryRecord) error {
	result, err := t.tx.ExecContext(ctx, insertHistoryQuery,
		record.ID, record.AccountID, record.Amount, record.Balance, record.CreatedAt)
	if err != nil {
		logger.Log.Error("error inserting history", logger.String("account_id", record.AccountID), logger.Int64("amount", record.Amount), logger.Error(err))
		return fmt.Errorf("error inserting history: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected for history insert: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrAccountNotFound, record.AccountID)
	}

	return nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func balance(ctx context.Context, q queryRower, query, accountID string) (int64, error) {
	var current int64
	err := q.QueryRowContext(ctx, query, accountID).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, accountID)
		}
		return 0, fmt.Errorf("error fetching balance: %w", err)
	}

	return current, nil
}

func rollback(tx *sql.Tx) {
	err := tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Log.Error(transactionRollbackError, logger.Error(err))
	}
}
