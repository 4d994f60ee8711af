package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the flow of money from the source account holder's perspective.
type Direction string

const (
	// DirectionDebit is money out of the source account.
	DirectionDebit Direction = "debit"
	// DirectionCredit is money into the source account.
	DirectionCredit Direction = "credit"
)

// ParseDirection accepts debit/credit and the out/in aliases.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debit", "out":
		return DirectionDebit, nil
	case "credit", "in":
		return DirectionCredit, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Opposite returns the reverse flow.
func (d Direction) Opposite() Direction {
	if d == DirectionDebit {
		return DirectionCredit
	}
	return DirectionDebit
}

// Origin records which collaborator produced a request. It is metadata only.
type Origin string

const (
	OriginManual           Origin = "manual"
	OriginBankSync         Origin = "bank_sync"
	OriginLoanDisbursement Origin = "loan_disbursement"
	OriginSavingsTransfer  Origin = "savings_transfer"
	OriginMonthEndClose    Origin = "month_end_close"
	OriginReversal         Origin = "reversal"
)

// TransactionRequest is the unvalidated input to the ledger pipeline.
// It is passed by value and consumed once.
type TransactionRequest struct {
	ID                   string
	SourceAccountID      string
	Amount               decimal.Decimal
	Direction            Direction
	Category             string
	BillID               string
	SavingsAccountID     string
	LoanID               string
	DestinationAccountID string
	Date                 time.Time
	Description          string
	Notes                string
	ReferenceNumber      string
	Origin               Origin
}

// LinkFor returns the linked real account for class, if the request carries one.
// Bill links reference a bill record, not an account, so they never produce a posting.
func (r TransactionRequest) LinkFor(class TransactionClass) string {
	switch class {
	case ClassSavings:
		return r.SavingsAccountID
	case ClassLoan:
		return r.LoanID
	case ClassTransfer:
		return r.DestinationAccountID
	}
	return ""
}
