package dto

import (
	"time"

	"github.com/iho/periodledger/internal/domain"
	"github.com/iho/periodledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Kind           string    `json:"kind"`
	Currency       string    `json:"currency"`
	InitialBalance string    `json:"initial_balance"`
	Balance        string    `json:"balance"`
	Version        int64     `json:"version"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:             a.ID,
		Name:           a.Name,
		Kind:           string(a.Kind),
		Currency:       a.Currency,
		InitialBalance: a.InitialBalance.String(),
		Balance:        a.Balance.String(),
		Version:        a.Version,
		IsActive:       a.IsActive,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse represents a list of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// BalanceResponse represents an account balance.
type BalanceResponse struct {
	AccountID string `json:"account_id"`
	Balance   string `json:"balance"`
}

// PostingResponse is one side of an entry.
type PostingResponse struct {
	Target  string `json:"target"`
	Virtual bool   `json:"virtual"`
	Side    string `json:"side"`
	Amount  string `json:"amount"`
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID              string            `json:"id"`
	RequestID       string            `json:"request_id,omitempty"`
	Date            string            `json:"date"`
	Class           string            `json:"class"`
	Direction       string            `json:"direction"`
	Origin          string            `json:"origin"`
	Category        string            `json:"category,omitempty"`
	Description     string            `json:"description,omitempty"`
	Reference       string            `json:"reference,omitempty"`
	Amount          string            `json:"amount"`
	Postings        []PostingResponse `json:"postings"`
	ReversesEntryID *string           `json:"reverses_entry_id,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.LedgerEntry) *EntryResponse {
	postings := make([]PostingResponse, len(e.Postings))
	for i, p := range e.Postings {
		postings[i] = PostingResponse{
			Target:  p.Target(),
			Virtual: p.IsVirtual(),
			Side:    string(p.Side),
			Amount:  p.Amount.String(),
		}
	}

	return &EntryResponse{
		ID:              e.ID,
		RequestID:       e.RequestID,
		Date:            e.Date.Format(time.DateOnly),
		Class:           string(e.Class),
		Direction:       string(e.Direction),
		Origin:          string(e.Origin),
		Category:        e.Category,
		Description:     e.Description,
		Reference:       e.Reference,
		Amount:          e.Amount().String(),
		Postings:        postings,
		ReversesEntryID: e.ReversesEntryID,
		CreatedAt:       e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.LedgerEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// EntryLineResponse is the balance effect of an entry on one account.
type EntryLineResponse struct {
	AccountID              string `json:"account_id"`
	Side                   string `json:"side"`
	Amount                 string `json:"amount"`
	Delta                  string `json:"delta"`
	AccountPreviousBalance string `json:"account_previous_balance"`
	AccountCurrentBalance  string `json:"account_current_balance"`
	AccountVersion         int64  `json:"account_version"`
}

// EntryLinesFromDomain converts entry lines to responses.
func EntryLinesFromDomain(lines []*domain.EntryLine) []*EntryLineResponse {
	result := make([]*EntryLineResponse, len(lines))
	for i, l := range lines {
		result[i] = &EntryLineResponse{
			AccountID:              l.AccountID,
			Side:                   string(l.Side),
			Amount:                 l.Amount.String(),
			Delta:                  l.Delta.String(),
			AccountPreviousBalance: l.AccountPreviousBalance.String(),
			AccountCurrentBalance:  l.AccountCurrentBalance.String(),
			AccountVersion:         l.AccountVersion,
		}
	}
	return result
}

// EntryDetailResponse is an entry together with its balance effects.
type EntryDetailResponse struct {
	*EntryResponse
	Lines []*EntryLineResponse `json:"lines"`
}

// ListEntriesResponse represents a list of entries.
type ListEntriesResponse struct {
	Entries []*EntryResponse `json:"entries"`
	Total   int64            `json:"total"`
}

// ClassifyResponse reports how a category would be classified.
type ClassifyResponse struct {
	Category    string   `json:"category"`
	Class       string   `json:"class"`
	Suggestions []string `json:"suggestions"`
}

// ClosedPeriodResponse represents a closed period.
type ClosedPeriodResponse struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	Period    string    `json:"period"`
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	ClosedAt  time.Time `json:"closed_at"`
	ClosedBy  string    `json:"closed_by"`
	Notes     string    `json:"notes,omitempty"`
}

// ClosedPeriodFromDomain converts a closed period to response.
func ClosedPeriodFromDomain(p *domain.ClosedPeriod) *ClosedPeriodResponse {
	return &ClosedPeriodResponse{
		ID:        p.ID,
		AccountID: p.AccountID,
		Period:    p.Period().String(),
		Year:      p.Year,
		Month:     p.Month,
		ClosedAt:  p.ClosedAt,
		ClosedBy:  p.ClosedBy,
		Notes:     p.Notes,
	}
}

// ClosedPeriodsFromDomain converts closed periods to responses.
func ClosedPeriodsFromDomain(periods []*domain.ClosedPeriod) []*ClosedPeriodResponse {
	result := make([]*ClosedPeriodResponse, len(periods))
	for i, p := range periods {
		result[i] = ClosedPeriodFromDomain(p)
	}
	return result
}

// PeriodStatusResponse reports whether one month is closed.
type PeriodStatusResponse struct {
	AccountID string `json:"account_id"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	Closed    bool   `json:"closed"`
}

// StatementLineResponse echoes a statement line.
type StatementLineResponse struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Reference   string `json:"reference,omitempty"`
	Description string `json:"description,omitempty"`
}

func statementLineFromDomain(l domain.StatementLine) StatementLineResponse {
	return StatementLineResponse{
		ID:          l.ID,
		Date:        l.Date.Format(time.DateOnly),
		Amount:      l.Amount.String(),
		Reference:   l.Reference,
		Description: l.Description,
	}
}

// MatchResponse pairs a statement line with the entry it matched.
type MatchResponse struct {
	LineID  string `json:"line_id"`
	EntryID string `json:"entry_id"`
	Rule    string `json:"rule"`
}

// ReconcileResponse is the outcome of a reconciliation run.
type ReconcileResponse struct {
	AccountID          string                  `json:"account_id"`
	Status             string                  `json:"status"`
	BookBalance        string                  `json:"book_balance"`
	StatementBalance   string                  `json:"statement_balance"`
	Difference         string                  `json:"difference"`
	IsBalanced         bool                    `json:"is_balanced"`
	Matched            []MatchResponse         `json:"matched"`
	UnmatchedStatement []StatementLineResponse `json:"unmatched_statement"`
	UnmatchedLedger    []*EntryResponse        `json:"unmatched_ledger"`
	CheckedAt          time.Time               `json:"checked_at"`
}

// ReconcileFromReport converts a reconciliation report to response.
func ReconcileFromReport(r *usecase.ReconciliationReport) *ReconcileResponse {
	resp := &ReconcileResponse{
		AccountID:          r.AccountID,
		Status:             string(r.Status),
		BookBalance:        r.BookBalance.String(),
		StatementBalance:   r.StatementBalance.String(),
		Difference:         r.Difference.String(),
		IsBalanced:         r.IsBalanced,
		Matched:            make([]MatchResponse, len(r.Matched)),
		UnmatchedStatement: make([]StatementLineResponse, len(r.UnmatchedStatement)),
		UnmatchedLedger:    EntriesFromDomain(r.UnmatchedLedger),
		CheckedAt:          r.CheckedAt,
	}

	for i, m := range r.Matched {
		resp.Matched[i] = MatchResponse{LineID: m.Line.ID, EntryID: m.Entry.ID, Rule: string(m.Rule)}
	}
	for i, l := range r.UnmatchedStatement {
		resp.UnmatchedStatement[i] = statementLineFromDomain(l)
	}

	return resp
}

// AccountCheckResponse compares stored and recomputed balances.
type AccountCheckResponse struct {
	AccountID         string    `json:"account_id"`
	RecordedBalance   string    `json:"recorded_balance"`
	CalculatedBalance string    `json:"calculated_balance"`
	Difference        string    `json:"difference"`
	IsReconciled      bool      `json:"is_reconciled"`
	CheckedAt         time.Time `json:"checked_at"`
}

// AccountCheckFromUseCase converts an account check to response.
func AccountCheckFromUseCase(c *usecase.AccountCheck) *AccountCheckResponse {
	return &AccountCheckResponse{
		AccountID:         c.AccountID,
		RecordedBalance:   c.RecordedBalance.String(),
		CalculatedBalance: c.CalculatedBalance.String(),
		Difference:        c.Difference.String(),
		IsReconciled:      c.IsReconciled,
		CheckedAt:         c.CheckedAt,
	}
}

// ConsistencyResponse reports the ledger-wide check.
type ConsistencyResponse struct {
	Consistent bool   `json:"consistent"`
	Message    string `json:"message,omitempty"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
