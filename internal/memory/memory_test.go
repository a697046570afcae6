package memory

import (
	"context"
	"errors"
	"github.com/koyif/atm/internal/domain"
	"github.com/koyif/atm/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math"
	"sync"
	"testing"
	"time"
)

type plainVerifier struct{}

func (plainVerifier) Verify(hash, secret string) bool { return hash == secret }

func newLedger(t *testing.T, accounts ...domain.Account) *Ledger {
	t.Helper()
	l := New(plainVerifier{})
	for _, acc := range accounts {
		require.NoError(t, l.Add(acc))
	}
	return l
}

func TestAddDuplicate(t *testing.T) {
	l := newLedger(t, domain.Account{ID: "user1", PIN: "1234"})
	assert.Error(t, l.Add(domain.Account{ID: "user1", PIN: "0000"}))
}

func TestVerifyCredentials(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, domain.Account{ID: "user1", PIN: "1234", Balance: 30048})

	ok, err := l.VerifyCredentials(ctx, "user1", "1234")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l.VerifyCredentials(ctx, "user1", "9999")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = l.VerifyCredentials(ctx, "user2", "1234")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBalanceUnknownAccount(t *testing.T) {
	l := newLedger(t)
	_, err := l.Balance(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	_, err = l.History(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestAtomicallyCommits(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, domain.Account{ID: "user1", Balance: 30048})

	err := l.Atomically(ctx, func(tx service.LedgerTx) error {
		bal, err := tx.AdjustBalance(ctx, "user1", 1000)
		require.NoError(t, err)
		assert.Equal(t, int64(31048), bal)

		read, err := tx.Balance(ctx, "user1")
		require.NoError(t, err)
		assert.Equal(t, int64(31048), read, "reads see staged changes")

		return tx.AppendHistory(ctx, domain.HistoryRecord{AccountID: "user1", Amount: 1000, Balance: bal})
	})
	require.NoError(t, err)

	bal, err := l.Balance(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(31048), bal)

	records, err := l.History(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(1000), records[0].Amount)
	assert.Equal(t, int64(31048), records[0].Balance)
}

func TestAtomicallyRollsBack(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, domain.Account{ID: "user1", Balance: 30048})
	boom := errors.New("boom")

	err := l.Atomically(ctx, func(tx service.LedgerTx) error {
		bal, err := tx.AdjustBalance(ctx, "user1", -1000)
		require.NoError(t, err)
		require.NoError(t, tx.AppendHistory(ctx, domain.HistoryRecord{AccountID: "user1", Amount: -1000, Balance: bal}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	bal, err := l.Balance(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(30048), bal)

	records, err := l.History(ctx, "user1")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAtomicallyUnknownAccountRollsBack(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, domain.Account{ID: "user1", Balance: 100})

	err := l.Atomically(ctx, func(tx service.LedgerTx) error {
		if _, err := tx.AdjustBalance(ctx, "user1", 50); err != nil {
			return err
		}
		_, err := tx.AdjustBalance(ctx, "ghost", 50)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)

	bal, err := l.Balance(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal)
}

func TestAdjustBalanceOverflowRollsBack(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t,
		domain.Account{ID: "rich", Balance: math.MaxInt64 - 100},
		domain.Account{ID: "poor", Balance: math.MinInt64 + 100},
		domain.Account{ID: "pool", Balance: 1000},
	)
	svc := service.NewTransactionService(l, service.DefaultPolicy(), "pool")

	_, err := svc.Deposit(ctx, "rich", service.MaxAmount)
	assert.ErrorIs(t, err, domain.ErrBalanceOverflow)

	err = l.Atomically(ctx, func(tx service.LedgerTx) error {
		if _, err := tx.AdjustBalance(ctx, "poor", -50); err != nil {
			return err
		}
		_, err := tx.AdjustBalance(ctx, "poor", -51)
		return err
	})
	assert.ErrorIs(t, err, domain.ErrBalanceOverflow)

	bal, err := l.Balance(ctx, "rich")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64-100), bal)

	bal, err = l.Balance(ctx, "poor")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64+100), bal)

	bal, err = l.Balance(ctx, "pool")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), bal)

	records, err := l.History(ctx, "rich")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestAtomicallyCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := newLedger(t)
	called := false
	err := l.Atomically(ctx, func(service.LedgerTx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestHistoryNewestFirst(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, domain.Account{ID: "user1"})

	for _, amount := range []int64{1000, 2000, 3000} {
		err := l.Atomically(ctx, func(tx service.LedgerTx) error {
			bal, err := tx.AdjustBalance(ctx, "user1", amount)
			if err != nil {
				return err
			}
			return tx.AppendHistory(ctx, domain.HistoryRecord{AccountID: "user1", Amount: amount, Balance: bal, CreatedAt: time.Now()})
		})
		require.NoError(t, err)
	}

	records, err := l.History(ctx, "user1")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, int64(3000), records[0].Amount)
	assert.Equal(t, int64(2000), records[1].Amount)
	assert.Equal(t, int64(1000), records[2].Amount)
	assert.Equal(t, int64(6000), records[0].Balance)
}

func TestConcurrentWithdrawalsNoLostUpdates(t *testing.T) {
	ctx := context.Background()
	const (
		terminals = 50
		pool      = 40000
	)

	l := newLedger(t,
		domain.Account{ID: "pool", Balance: pool},
		domain.Account{ID: "user1", Balance: 1_000_000},
		domain.Account{ID: "user2", Balance: 1_000_000},
	)
	svc := service.NewTransactionService(l, service.DefaultPolicy(), "pool")

	var wg sync.WaitGroup
	var mu sync.Mutex
	dispensed := int64(0)

	for i := 0; i < terminals; i++ {
		id := "user1"
		if i%2 == 1 {
			id = "user2"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			w, err := svc.Withdraw(ctx, id, 2000)
			if errors.Is(err, domain.ErrCashPoolEmpty) {
				return
			}
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			dispensed += w.Dispensed
			mu.Unlock()
		}()
	}
	wg.Wait()

	poolBal, err := l.Balance(ctx, "pool")
	require.NoError(t, err)
	assert.Equal(t, int64(0), poolBal)
	assert.Equal(t, int64(pool), dispensed)

	b1, err := l.Balance(ctx, "user1")
	require.NoError(t, err)
	b2, err := l.Balance(ctx, "user2")
	require.NoError(t, err)
	assert.Equal(t, int64(2_000_000-pool), b1+b2)

	h1, err := l.History(ctx, "user1")
	require.NoError(t, err)
	h2, err := l.History(ctx, "user2")
	require.NoError(t, err)
	assert.Equal(t, pool/2000, len(h1)+len(h2))
}
