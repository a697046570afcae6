package service

import (
	"github.com/koyif/atm/internal/domain"
)

const (
	DefaultDenomination = 2000
	DefaultOverdraftFee = 500
)

type Policy struct {
	Denomination int64
	OverdraftFee int64
}

func DefaultPolicy() Policy {
	return Policy{
		Denomination: DefaultDenomination,
		OverdraftFee: DefaultOverdraftFee,
	}
}

type WithdrawalPlan struct {
	Requested int64
	Dispensed int64
	Fee       int64
	Partial   bool
	Overdrawn bool
}

// Debit is the total taken from the customer's balance.
func (p WithdrawalPlan) Debit() int64 {
	return p.Dispensed + p.Fee
}

func (p Policy) ValidateDeposit(amount int64) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	return nil
}

func (p Policy) ValidateWithdrawal(amount int64) error {
	if amount <= 0 || amount%p.Denomination != 0 {
		return domain.ErrInvalidAmount
	}
	return nil
}

// PlanWithdrawal decides how much cash leaves the machine and what the customer pays for it.
// The overdraft test uses the dispensed amount, so a partial dispense that keeps the
// balance non-negative is never charged a fee.
func (p Policy) PlanWithdrawal(amount, balance, pool int64) (WithdrawalPlan, error) {
	if err := p.ValidateWithdrawal(amount); err != nil {
		return WithdrawalPlan{}, err
	}
	if pool <= 0 {
		return WithdrawalPlan{}, domain.ErrCashPoolEmpty
	}
	if balance < 0 {
		return WithdrawalPlan{}, domain.ErrAlreadyOverdrawn
	}

	plan := WithdrawalPlan{
		Requested: amount,
		Dispensed: min(amount, pool),
	}
	plan.Partial = plan.Dispensed < amount

	if balance-plan.Dispensed < 0 {
		plan.Overdrawn = true
		plan.Fee = p.OverdraftFee
	}

	return plan, nil
}
