package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Account errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrInactiveAccount    = errors.New("account is inactive")
	ErrInvalidAccountKind = errors.New("invalid account kind")

	// Build errors
	ErrInvalidAmount    = errors.New("amount must be positive")
	ErrMissingLink      = errors.New("linked account required")
	ErrSameAccount      = errors.New("linked account must differ from source account")
	ErrInvalidDirection = errors.New("invalid direction")

	// Validation errors
	ErrMissingSide = errors.New("entry needs exactly one debit and one credit posting")
	ErrUnbalanced  = errors.New("entry is unbalanced")

	// Ledger errors
	ErrPeriodClosed     = errors.New("accounting period is closed")
	ErrEntryNotFound    = errors.New("entry not found")
	ErrAlreadyReversed  = errors.New("entry already reversed")
	ErrCurrencyMismatch = errors.New("accounts use different currencies")

	// Close errors
	ErrAlreadyClosed = errors.New("period already closed")
	ErrFuturePeriod  = errors.New("cannot close a future period")
	ErrInvalidPeriod = errors.New("invalid period")
)

// BuildError reports why a request could not be turned into an entry.
type BuildError struct {
	Class TransactionClass
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build %s entry: %v", e.Class, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// UnbalancedError carries the totals of an entry whose sides disagree.
type UnbalancedError struct {
	Debit  decimal.Decimal
	Credit decimal.Decimal
	Diff   decimal.Decimal
}

func (e *UnbalancedError) Error() string {
	return fmt.Sprintf("%v: debit=%s credit=%s diff=%s", ErrUnbalanced, e.Debit, e.Credit, e.Diff)
}

func (e *UnbalancedError) Unwrap() error {
	return ErrUnbalanced
}

// PeriodClosedError identifies the closed (account, year, month) an entry hit.
type PeriodClosedError struct {
	AccountID string
	Year      int
	Month     int
}

func (e *PeriodClosedError) Error() string {
	return fmt.Sprintf("%v: account %s %04d-%02d", ErrPeriodClosed, e.AccountID, e.Year, e.Month)
}

func (e *PeriodClosedError) Unwrap() error {
	return ErrPeriodClosed
}
