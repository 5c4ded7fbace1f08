package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Fund is a named sub-balance earmarked for a specific medical procedure.
// Money saved into a fund is taken out of the account's available balance
// and returned to it when the fund is released.
type Fund struct {
	ID            string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Label         string // free text, e.g. the procedure name
}

// Validate ensures the fund adheres to domain rules
func (f *Fund) Validate() error {
	if f.ID == "" {
		return errors.New("fund id cannot be empty")
	}
	if f.TargetAmount.LessThanOrEqual(decimal.Zero) {
		return errors.New("fund target amount must be positive")
	}
	if f.CurrentAmount.IsNegative() {
		return errors.New("fund current amount cannot be negative")
	}
	return nil
}

// TargetReached reports whether the fund already holds its target amount.
// A save attempted at or past the target is rejected; a save that starts
// below the target may overshoot it.
func (f *Fund) TargetReached() bool {
	return f.CurrentAmount.GreaterThanOrEqual(f.TargetAmount)
}
