package service

import (
	"fmt"
	"github.com/koyif/atm/internal/domain"
	"github.com/shopspring/decimal"
	"strings"
)

const (
	maxAmountLength = 32
	minExponent     = -20
	maxExponent     = 20
)

// MaxAmount is the largest single deposit or withdrawal in cents ($10 trillion).
// It keeps every balance far away from the int64 limits.
const MaxAmount int64 = 1_000_000_000_000_000

var maxCents = decimal.NewFromInt(MaxAmount)

// ParseAmount converts a dollar amount such as "20" or "10.50" into cents.
func ParseAmount(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, domain.ErrInvalidAmount
	}
	if len(raw) > maxAmountLength {
		return 0, fmt.Errorf("%w: %d characters", domain.ErrInvalidAmount, len(raw))
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", domain.ErrInvalidAmount, raw)
	}

	// Rescaling a huge exponent allocates a number of that many digits.
	if exp := d.Exponent(); exp < minExponent || exp > maxExponent {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, raw)
	}

	cents := d.Shift(2)
	if !cents.IsPositive() || !cents.IsInteger() || cents.GreaterThan(maxCents) {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, raw)
	}

	return cents.IntPart(), nil
}

// FormatMoney renders cents as dollars without trailing zeros: 4000 -> "40", -2500 -> "-25", 31048 -> "310.48".
func FormatMoney(cents int64) string {
	return decimal.New(cents, -2).String()
}
