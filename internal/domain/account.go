package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind classifies a real account for sign conventions.
type AccountKind string

const (
	AccountKindChecking   AccountKind = "checking"
	AccountKindSavings    AccountKind = "savings"
	AccountKindCreditCard AccountKind = "credit_card"
	AccountKindInvestment AccountKind = "investment"
	AccountKindLoan       AccountKind = "loan"
	AccountKindGeneric    AccountKind = "generic"
)

var validAccountKinds = map[AccountKind]bool{
	AccountKindChecking:   true,
	AccountKindSavings:    true,
	AccountKindCreditCard: true,
	AccountKindInvestment: true,
	AccountKindLoan:       true,
	AccountKindGeneric:    true,
}

// ParseAccountKind normalizes and validates a kind string.
func ParseAccountKind(s string) (AccountKind, error) {
	k := AccountKind(strings.ToLower(strings.TrimSpace(s)))
	if !validAccountKinds[k] {
		return "", fmt.Errorf("%w: %q", ErrInvalidAccountKind, s)
	}
	return k, nil
}

// IsLiability reports whether a debit lowers the balance of this kind.
func (k AccountKind) IsLiability() bool {
	return k == AccountKindCreditCard || k == AccountKindLoan
}

// Account represents a balance-bearing account owned by the registry.
type Account struct {
	ID             string
	Name           string
	Kind           AccountKind
	Currency       string
	InitialBalance decimal.Decimal
	Balance        decimal.Decimal
	Version        int64
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Delta returns the signed balance change a posting of amount on side causes.
// Debits raise asset balances and lower liability balances; credits do the reverse.
func (a *Account) Delta(side Side, amount decimal.Decimal) decimal.Decimal {
	if (side == SideDebit) != a.Kind.IsLiability() {
		return amount
	}
	return amount.Neg()
}

// Apply returns the new balance after a posting.
func (a *Account) Apply(side Side, amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(a.Delta(side, amount))
}

// Drift is the difference between the current balance and the initial balance.
// It must equal the sum of the deltas of every applied posting.
func (a *Account) Drift() decimal.Decimal {
	return a.Balance.Sub(a.InitialBalance)
}
