package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the debit or credit side of a posting.
type Side string

const (
	SideDebit  Side = "debit"
	SideCredit Side = "credit"
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideDebit {
		return SideCredit
	}
	return SideDebit
}

// VirtualAccount is a counter-account used only to balance entries.
// Virtual accounts carry no persisted balance and are never looked up in the registry.
type VirtualAccount string

const (
	VirtualIncome  VirtualAccount = "income"
	VirtualExpense VirtualAccount = "expense"
)

// Posting is one line of an entry. Exactly one of AccountID and Virtual is set.
type Posting struct {
	AccountID string
	Virtual   VirtualAccount
	Side      Side
	Amount    decimal.Decimal
}

// IsVirtual reports whether the posting targets a virtual counter-account.
func (p Posting) IsVirtual() bool {
	return p.Virtual != ""
}

// Target returns the account ID or the virtual account name.
func (p Posting) Target() string {
	if p.IsVirtual() {
		return string(p.Virtual)
	}
	return p.AccountID
}

// LedgerEntry is the validated, immutable unit appended to the ledger.
type LedgerEntry struct {
	ID              string
	RequestID       string
	Date            time.Time
	Class           TransactionClass
	Direction       Direction
	Origin          Origin
	Category        string
	Description     string
	Reference       string
	Postings        []Posting
	ReversesEntryID *string
	CreatedAt       time.Time
}

// Amount returns the debit total, which equals the credit total for a valid entry.
func (e *LedgerEntry) Amount() decimal.Decimal {
	total := decimal.Zero
	for _, p := range e.Postings {
		if p.Side == SideDebit {
			total = total.Add(p.Amount)
		}
	}
	return total
}

// AccountIDs returns the distinct real accounts touched by the entry, in posting order.
func (e *LedgerEntry) AccountIDs() []string {
	seen := make(map[string]bool, len(e.Postings))
	ids := make([]string, 0, len(e.Postings))
	for _, p := range e.Postings {
		if p.IsVirtual() || seen[p.AccountID] {
			continue
		}
		seen[p.AccountID] = true
		ids = append(ids, p.AccountID)
	}
	return ids
}

// Touches reports whether any real posting targets accountID.
func (e *LedgerEntry) Touches(accountID string) bool {
	for _, p := range e.Postings {
		if !p.IsVirtual() && p.AccountID == accountID {
			return true
		}
	}
	return false
}

// Reversal builds the mirror entry that cancels e. The caller assigns ID and CreatedAt.
func (e *LedgerEntry) Reversal(date time.Time, description string) *LedgerEntry {
	postings := make([]Posting, 0, len(e.Postings))
	for _, side := range []Side{SideCredit, SideDebit} {
		for _, p := range e.Postings {
			if p.Side == side {
				p.Side = side.Opposite()
				postings = append(postings, p)
			}
		}
	}

	original := e.ID
	return &LedgerEntry{
		Date:            date,
		Class:           e.Class,
		Direction:       e.Direction.Opposite(),
		Origin:          OriginReversal,
		Category:        e.Category,
		Description:     description,
		Reference:       e.Reference,
		Postings:        postings,
		ReversesEntryID: &original,
	}
}

// EntryLine is the per-account row persisted for each real posting, with the
// balance snapshot taken under the account lock.
type EntryLine struct {
	EntryID                string
	AccountID              string
	Side                   Side
	Amount                 decimal.Decimal
	Delta                  decimal.Decimal
	AccountPreviousBalance decimal.Decimal
	AccountCurrentBalance  decimal.Decimal
	AccountVersion         int64
	EntryDate              time.Time
	CreatedAt              time.Time
}
