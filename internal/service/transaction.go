package service

import (
	"context"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/koyif/atm/internal/domain"
	"github.com/koyif/atm/pkg/logger"
	"time"
)

type TransactionService struct {
	ledger     Ledger
	policy     Policy
	cashPoolID string
	now        func() time.Time
}

type Option func(*TransactionService)

func WithClock(now func() time.Time) Option {
	return func(s *TransactionService) {
		s.now = now
	}
}

func NewTransactionService(ledger Ledger, policy Policy, cashPoolID string, opts ...Option) *TransactionService {
	s := &TransactionService{
		ledger:     ledger,
		policy:     policy,
		cashPoolID: cashPoolID,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Authorize checks the account's pin. The cash pool account can never log in.
func (s *TransactionService) Authorize(ctx context.Context, accountID, pin string) error {
	if accountID == "" || pin == "" {
		return domain.ErrAuthFailed
	}
	if accountID == s.cashPoolID {
		logger.Log.Warn("login attempt on cash pool account", logger.String("account_id", accountID))
		return domain.ErrAuthFailed
	}

	ok, err := s.ledger.VerifyCredentials(ctx, accountID, pin)
	if err != nil {
		return fmt.Errorf("error verifying credentials: %w", err)
	}
	if !ok {
		logger.Log.Warn("incorrect credentials", logger.String("account_id", accountID))
		return domain.ErrAuthFailed
	}

	return nil
}

// Deposit credits both the account and the cash pool and returns the new account balance.
func (s *TransactionService) Deposit(ctx context.Context, accountID string, amount int64) (int64, error) {
	if err := s.policy.ValidateDeposit(amount); err != nil {
		return 0, err
	}

	var balance int64
	err := s.ledger.Atomically(ctx, func(tx LedgerTx) error {
		newBalance, err := tx.AdjustBalance(ctx, accountID, amount)
		if err != nil {
			return fmt.Errorf("error crediting account: %w", err)
		}

		if _, err = tx.AdjustBalance(ctx, s.cashPoolID, amount); err != nil {
			return fmt.Errorf("error crediting cash pool: %w", err)
		}

		if err = tx.AppendHistory(ctx, s.record(accountID, amount, newBalance)); err != nil {
			return fmt.Errorf("error appending history: %w", err)
		}

		balance = newBalance
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Log.Info("deposit", logger.String("account_id", accountID), logger.Int64("amount", amount), logger.Int64("balance", balance))
	return balance, nil
}

// Withdraw dispenses cash from the pool. Rejections are returned as domain errors and leave the ledger untouched.
func (s *TransactionService) Withdraw(ctx context.Context, accountID string, amount int64) (*domain.Withdrawal, error) {
	if err := s.policy.ValidateWithdrawal(amount); err != nil {
		return nil, err
	}

	var result domain.Withdrawal
	err := s.ledger.Atomically(ctx, func(tx LedgerTx) error {
		balance, err := tx.Balance(ctx, accountID)
		if err != nil {
			return fmt.Errorf("error reading account balance: %w", err)
		}

		pool, err := tx.Balance(ctx, s.cashPoolID)
		if err != nil {
			return fmt.Errorf("error reading cash pool balance: %w", err)
		}

		plan, err := s.policy.PlanWithdrawal(amount, balance, pool)
		if err != nil {
			return err
		}

		newBalance, err := tx.AdjustBalance(ctx, accountID, -plan.Debit())
		if err != nil {
			return fmt.Errorf("error debiting account: %w", err)
		}

		if _, err = tx.AdjustBalance(ctx, s.cashPoolID, -plan.Dispensed); err != nil {
			return fmt.Errorf("error debiting cash pool: %w", err)
		}

		if err = tx.AppendHistory(ctx, s.record(accountID, -plan.Debit(), newBalance)); err != nil {
			return fmt.Errorf("error appending history: %w", err)
		}

		result = domain.Withdrawal{
			Requested: plan.Requested,
			Dispensed: plan.Dispensed,
			Fee:       plan.Fee,
			Partial:   plan.Partial,
			Overdrawn: plan.Overdrawn,
			Balance:   newBalance,
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrCashPoolEmpty) || errors.Is(err, domain.ErrAlreadyOverdrawn) {
			logger.Log.Warn("withdrawal rejected", logger.String("account_id", accountID), logger.Int64("amount", amount), logger.Error(err))
		}
		return nil, err
	}

	logger.Log.Info(
		"withdrawal",
		logger.String("account_id", accountID),
		logger.Int64("requested", result.Requested),
		logger.Int64("dispensed", result.Dispensed),
		logger.Int64("fee", result.Fee),
		logger.Int64("balance", result.Balance),
		logger.Bool("partial", result.Partial),
		logger.Bool("overdrawn", result.Overdrawn),
	)
	return &result, nil
}

func (s *TransactionService) Balance(ctx context.Context, accountID string) (int64, error) {
	balance, err := s.ledger.Balance(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("error fetching balance: %w", err)
	}
	return balance, nil
}

func (s *TransactionService) History(ctx context.Context, accountID string) ([]domain.HistoryRecord, error) {
	records, err := s.ledger.History(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("error fetching history: %w", err)
	}
	return records, nil
}

func (s *TransactionService) record(accountID string, amount, balance int64) domain.HistoryRecord {
	return domain.HistoryRecord{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Amount:    amount,
		Balance:   balance,
		CreatedAt: s.now().UTC(),
	}
}
