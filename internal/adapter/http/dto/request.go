package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/periodledger/internal/domain"
	"github.com/iho/periodledger/internal/usecase"
)

// CreateAccountRequest represents a request to create an account.
type CreateAccountRequest struct {
	Name           string `json:"name"`
	Kind           string `json:"kind,omitempty"`
	Currency       string `json:"currency"`
	InitialBalance string `json:"initial_balance,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateAccountRequest) ToUseCaseInput() (usecase.CreateAccountInput, error) {
	initial := decimal.Zero
	if r.InitialBalance != "" {
		d, err := decimal.NewFromString(r.InitialBalance)
		if err != nil {
			return usecase.CreateAccountInput{}, fmt.Errorf("invalid initial_balance: %w", err)
		}
		initial = d
	}

	return usecase.CreateAccountInput{
		Name:           r.Name,
		Kind:           r.Kind,
		Currency:       r.Currency,
		InitialBalance: initial,
	}, nil
}

// TransactionRequest is a raw transaction submitted for classification and posting.
type TransactionRequest struct {
	ID                   string `json:"id,omitempty"`
	SourceAccountID      string `json:"source_account_id"`
	Amount               string `json:"amount"`
	Direction            string `json:"direction"`
	Category             string `json:"category"`
	BillID               string `json:"bill_id,omitempty"`
	SavingsAccountID     string `json:"savings_account_id,omitempty"`
	LoanID               string `json:"loan_id,omitempty"`
	DestinationAccountID string `json:"destination_account_id,omitempty"`
	Date                 string `json:"date,omitempty"`
	Description          string `json:"description,omitempty"`
	Notes                string `json:"notes,omitempty"`
	ReferenceNumber      string `json:"reference_number,omitempty"`
	Origin               string `json:"origin,omitempty"`
}

// ToDomain converts to a domain request. A missing date is left zero so the
// ledger stamps the current time.
func (r *TransactionRequest) ToDomain() (domain.TransactionRequest, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return domain.TransactionRequest{}, fmt.Errorf("invalid amount: %w", err)
	}

	direction, err := domain.ParseDirection(r.Direction)
	if err != nil {
		return domain.TransactionRequest{}, err
	}

	date, err := ParseDate(r.Date)
	if err != nil {
		return domain.TransactionRequest{}, fmt.Errorf("invalid date: %w", err)
	}

	origin := domain.Origin(r.Origin)
	if origin == "" {
		origin = domain.OriginManual
	}

	return domain.TransactionRequest{
		ID:                   r.ID,
		SourceAccountID:      r.SourceAccountID,
		Amount:               amount,
		Direction:            direction,
		Category:             r.Category,
		BillID:               r.BillID,
		SavingsAccountID:     r.SavingsAccountID,
		LoanID:               r.LoanID,
		DestinationAccountID: r.DestinationAccountID,
		Date:                 date,
		Description:          r.Description,
		Notes:                r.Notes,
		ReferenceNumber:      r.ReferenceNumber,
		Origin:               origin,
	}, nil
}

// ReverseEntryRequest represents a request to reverse an entry.
type ReverseEntryRequest struct {
	Date   string `json:"date,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ReverseEntryRequest) ToUseCaseInput(entryID string) (usecase.ReverseEntryInput, error) {
	date, err := ParseDate(r.Date)
	if err != nil {
		return usecase.ReverseEntryInput{}, fmt.Errorf("invalid date: %w", err)
	}

	return usecase.ReverseEntryInput{
		EntryID: entryID,
		Date:    date,
		Reason:  r.Reason,
	}, nil
}

// ClosePeriodRequest represents a request to close an account's month.
type ClosePeriodRequest struct {
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	ClosedBy string `json:"closed_by,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *ClosePeriodRequest) ToUseCaseInput(accountID string) usecase.CloseInput {
	return usecase.CloseInput{
		AccountID: accountID,
		Year:      r.Year,
		Month:     r.Month,
		ClosedBy:  r.ClosedBy,
		Notes:     r.Notes,
	}
}

// StatementLineRequest is one line of an external statement.
type StatementLineRequest struct {
	ID          string `json:"id" yaml:"id"`
	Date        string `json:"date" yaml:"date"`
	Amount      string `json:"amount" yaml:"amount"`
	Reference   string `json:"reference,omitempty" yaml:"reference,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// ReconcileRequest matches statement lines against an account's entries.
type ReconcileRequest struct {
	From             string                 `json:"from,omitempty" yaml:"from,omitempty"`
	To               string                 `json:"to,omitempty" yaml:"to,omitempty"`
	StatementBalance string                 `json:"statement_balance,omitempty" yaml:"statement_balance,omitempty"`
	Lines            []StatementLineRequest `json:"lines" yaml:"lines"`
}

// ToUseCaseInput converts to use case input.
func (r *ReconcileRequest) ToUseCaseInput(accountID string) (usecase.ReconcileInput, error) {
	from, err := ParseDate(r.From)
	if err != nil {
		return usecase.ReconcileInput{}, fmt.Errorf("invalid from: %w", err)
	}

	to, err := ParseDate(r.To)
	if err != nil {
		return usecase.ReconcileInput{}, fmt.Errorf("invalid to: %w", err)
	}

	input := usecase.ReconcileInput{
		AccountID: accountID,
		From:      from,
		To:        to,
		Lines:     make([]domain.StatementLine, 0, len(r.Lines)),
	}

	if r.StatementBalance != "" {
		b, err := decimal.NewFromString(r.StatementBalance)
		if err != nil {
			return usecase.ReconcileInput{}, fmt.Errorf("invalid statement_balance: %w", err)
		}
		input.StatementBalance = &b
	}

	for i, l := range r.Lines {
		amount, err := decimal.NewFromString(l.Amount)
		if err != nil {
			return usecase.ReconcileInput{}, fmt.Errorf("line %d: invalid amount: %w", i, err)
		}

		date, err := ParseDate(l.Date)
		if err != nil {
			return usecase.ReconcileInput{}, fmt.Errorf("line %d: invalid date: %w", i, err)
		}
		if date.IsZero() {
			return usecase.ReconcileInput{}, fmt.Errorf("line %d: date is required", i)
		}

		id := l.ID
		if id == "" {
			id = fmt.Sprintf("line-%d", i+1)
		}

		input.Lines = append(input.Lines, domain.StatementLine{
			ID:          id,
			Date:        date,
			Amount:      amount,
			Reference:   l.Reference,
			Description: l.Description,
		})
	}

	return input, nil
}

// ParseDate accepts YYYY-MM-DD or RFC3339. An empty string yields the zero time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}

	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is neither YYYY-MM-DD nor RFC3339", s)
	}
	return t.UTC(), nil
}
