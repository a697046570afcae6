package service

import (
	"context"
	"github.com/koyif/atm/internal/domain"
)

// Ledger is the storage the transaction engine runs on. Implementations must
// return domain.ErrAccountNotFound for unknown accounts.
type Ledger interface {
	VerifyCredentials(ctx context.Context, accountID, pin string) (bool, error)
	Balance(ctx context.Context, accountID string) (int64, error)
	History(ctx context.Context, accountID string) ([]domain.HistoryRecord, error)
	// Atomically runs fn in a single transaction. Any error returned by fn rolls
	// everything back and is returned unchanged.
	Atomically(ctx context.Context, fn func(tx LedgerTx) error) error
}

type LedgerTx interface {
	// Balance reads the balance and holds the account until the transaction ends.
	Balance(ctx context.Context, accountID string) (int64, error)
	AdjustBalance(ctx context.Context, accountID string, delta int64) (int64, error)
	AppendHistory(ctx context.Context, record domain.HistoryRecord) error
}
