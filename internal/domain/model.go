package domain

import "time"

type Account struct {
	ID      string
	PIN     string
	Balance int64
}

// HistoryRecord is an immutable ledger entry. Amount is the signed delta in
// cents and Balance is the account balance right after it was applied.
type HistoryRecord struct {
	ID        string
	AccountID string
	Amount    int64
	Balance   int64
	CreatedAt time.Time
}

type Withdrawal struct {
	Requested int64
	Dispensed int64
	Fee       int64
	Partial   bool
	Overdrawn bool
	Balance   int64
}
