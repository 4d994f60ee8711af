package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidAccountName = errors.New("invalid account name")
	ErrInvalidCurrency    = errors.New("invalid currency code")
	ErrAmountTooLarge     = errors.New("amount exceeds maximum allowed")
	ErrAmountTooSmall     = errors.New("amount below minimum allowed")
)

// Validation constants
const (
	MaxAccountNameLength = 255
	MinAccountNameLength = 1
	MaxEntryAmount       = "1000000000000" // 1 trillion
	MinEntryAmount       = "0.01"
)

// BalanceTolerance is the largest debit/credit difference treated as rounding noise.
// A difference of one cent or more is unbalanced.
var BalanceTolerance = decimal.New(1, -2)

// Valid currency codes (ISO 4217)
var validCurrencies = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true,
	"CNY": true, "AUD": true, "CAD": true, "CHF": true,
	"SEK": true, "NZD": true, "KRW": true, "SGD": true,
	"NOK": true, "MXN": true, "INR": true, "BRL": true,
	"ZAR": true, "RUB": true, "TRY": true, "HKD": true,
}

// ValidateAccountName validates account name
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)

	if len(name) < MinAccountNameLength {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	}

	if len(name) > MaxAccountNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength)
	}

	return nil
}

// ValidateCurrency validates currency code
func ValidateCurrency(currency string) error {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	if !validCurrencies[currency] {
		return fmt.Errorf("%w: %s is not a valid ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return nil
}

// ValidateAmount checks request amounts against the allowed range.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	minAmount, _ := decimal.NewFromString(MinEntryAmount)
	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinEntryAmount)
	}

	maxAmount, _ := decimal.NewFromString(MaxEntryAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxEntryAmount)
	}

	return nil
}

// AccountLookup resolves real accounts for entry validation.
type AccountLookup interface {
	Lookup(id string) (*Account, bool)
}

// AccountMap is an AccountLookup over an in-memory snapshot.
type AccountMap map[string]*Account

// Lookup implements AccountLookup.
func (m AccountMap) Lookup(id string) (*Account, bool) {
	a, ok := m[id]
	return a, ok
}

// ValidateEntry checks cardinality, balance and referential completeness, in that order.
func ValidateEntry(entry *LedgerEntry, accounts AccountLookup) error {
	var debits, credits int
	debitTotal, creditTotal := decimal.Zero, decimal.Zero

	for _, p := range entry.Postings {
		switch p.Side {
		case SideDebit:
			debits++
			debitTotal = debitTotal.Add(p.Amount)
		case SideCredit:
			credits++
			creditTotal = creditTotal.Add(p.Amount)
		}
	}

	if debits != 1 || credits != 1 || len(entry.Postings) != 2 {
		return ErrMissingSide
	}

	diff := debitTotal.Sub(creditTotal)
	if diff.Abs().GreaterThanOrEqual(BalanceTolerance) {
		return &UnbalancedError{Debit: debitTotal, Credit: creditTotal, Diff: diff}
	}

	for _, p := range entry.Postings {
		if p.IsVirtual() {
			continue
		}
		acc, ok := accounts.Lookup(p.AccountID)
		if !ok {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, p.AccountID)
		}
		if !acc.IsActive {
			return fmt.Errorf("%w: %s", ErrInactiveAccount, p.AccountID)
		}
	}

	ids := entry.AccountIDs()
	if len(ids) == 2 {
		a, _ := accounts.Lookup(ids[0])
		b, _ := accounts.Lookup(ids[1])
		if a.Currency != b.Currency {
			return ErrCurrencyMismatch
		}
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
