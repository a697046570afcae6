package domain

import "errors"

var (
	ErrAccountNotFound  = errors.New("account not found")
	ErrAuthFailed       = errors.New("authorization failed")
	ErrAuthRequired     = errors.New("authorization required")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrCashPoolEmpty    = errors.New("cash pool is empty")
	ErrAlreadyOverdrawn = errors.New("account is overdrawn")
	ErrBalanceOverflow  = errors.New("balance out of range")
)
