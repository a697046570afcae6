// Package memory keeps the ledger in process memory. Every account has its own
// lock, so transactions on different accounts run in parallel while two
// transactions on the same account are serialized.
package memory

import (
	"context"
	"fmt"
	"github.com/koyif/atm/internal/domain"
	"github.com/koyif/atm/internal/service"
	"github.com/sasha-s/go-deadlock"
	"math"
	"slices"
)

type verifier interface {
	Verify(hash, secret string) bool
}

type account struct {
	mu      deadlock.Mutex
	pin     string
	balance int64
	history []domain.HistoryRecord
}

type Ledger struct {
	mu       deadlock.RWMutex
	accounts map[string]*account
	verifier verifier
}

var _ service.Ledger = (*Ledger)(nil)

func New(v verifier) *Ledger {
	return &Ledger{
		accounts: make(map[string]*account),
		verifier: v,
	}
}

// Add provisions an account. PIN must already be in the form the verifier expects.
func (l *Ledger) Add(acc domain.Account) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.accounts[acc.ID]; ok {
		return fmt.Errorf("account %q already exists", acc.ID)
	}
	l.accounts[acc.ID] = &account{pin: acc.PIN, balance: acc.Balance}
	return nil
}

func (l *Ledger) account(id string) (*account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	a, ok := l.accounts[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
	}
	return a, nil
}

func (l *Ledger) VerifyCredentials(_ context.Context, accountID, pin string) (bool, error) {
	a, err := l.account(accountID)
	if err != nil {
		return false, nil
	}

	a.mu.Lock()
	hash := a.pin
	a.mu.Unlock()

	return l.verifier.Verify(hash, pin), nil
}

func (l *Ledger) Balance(_ context.Context, accountID string) (int64, error) {
	a, err := l.account(accountID)
	if err != nil {
		return 0, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.balance, nil
}

// History returns the account's records, newest first.
func (l *Ledger) History(_ context.Context, accountID string) ([]domain.HistoryRecord, error) {
	a, err := l.account(accountID)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	out := slices.Clone(a.history)
	a.mu.Unlock()

	slices.Reverse(out)
	return out, nil
}

func (l *Ledger) Atomically(ctx context.Context, fn func(tx service.LedgerTx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t := &tx{
		ledger: l,
		locked: make(map[string]*account),
		deltas: make(map[string]int64),
	}
	defer t.release()

	if err := fn(t); err != nil {
		return err
	}

	t.commit()
	return nil
}

// tx stages balance changes and history until commit. Accounts stay locked
// from their first use until the transaction ends.
type tx struct {
	ledger  *Ledger
	locked  map[string]*account
	order   []*account
	deltas  map[string]int64
	history []domain.HistoryRecord
}

func (t *tx) acquire(id string) (*account, error) {
	if a, ok := t.locked[id]; ok {
		return a, nil
	}

	a, err := t.ledger.account(id)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	t.locked[id] = a
	t.order = append(t.order, a)
	return a, nil
}

func (t *tx) Balance(_ context.Context, accountID string) (int64, error) {
	a, err := t.acquire(accountID)
	if err != nil {
		return 0, err
	}
	return a.balance + t.deltas[accountID], nil
}

func (t *tx) AdjustBalance(_ context.Context, accountID string, delta int64) (int64, error) {
	a, err := t.acquire(accountID)
	if err != nil {
		return 0, err
	}
	current := a.balance + t.deltas[accountID]
	if (delta > 0 && current > math.MaxInt64-delta) || (delta < 0 && current < math.MinInt64-delta) {
		return 0, fmt.Errorf("error adjusting balance of %s by %d: %w", accountID, delta, domain.ErrBalanceOverflow)
	}
	t.deltas[accountID] += delta
	return current + delta, nil
}

func (t *tx) AppendHistory(_ context.Context, record domain.HistoryRecord) error {
	if _, err := t.acquire(record.AccountID); err != nil {
		return err
	}
	t.history = append(t.history, record)
	return nil
}

func (t *tx) commit() {
	for id, delta := range t.deltas {
		t.locked[id].balance += delta
	}
	for _, rec := range t.history {
		a := t.locked[rec.AccountID]
		a.history = append(a.history, rec)
	}
}

func (t *tx) release() {
	for i := len(t.order) - 1; i >= 0; i-- {
		t.order[i].mu.Unlock()
	}
	t.order = nil
}

func (l *Ledger) Ping(ctx context.Context) error {
	return ctx.Err()
}
