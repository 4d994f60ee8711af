package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/periodledger/internal/domain"
)

// ReconciliationStatus summarizes a reconciliation run.
type ReconciliationStatus string

const (
	// StatusCompleted means every line and entry matched and the balances agree.
	StatusCompleted ReconciliationStatus = "completed"
	// StatusInProgress means items are unmatched but balances agree.
	StatusInProgress ReconciliationStatus = "in_progress"
	// StatusDiscrepancy means book and statement balances differ.
	StatusDiscrepancy ReconciliationStatus = "discrepancy"
)

// reconcilePageSize is the number of candidate entries loaded per query.
const reconcilePageSize = 1000

// ReconciliationUseCase matches external statements against recorded entries.
// It never writes.
type ReconciliationUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	ledgerRepo  LedgerRepository
	observer    Observer
	logger      zerolog.Logger
	now         func() time.Time
}

// NewReconciliationUseCase creates a new reconciliation use case. observer may be nil.
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	ledgerRepo LedgerRepository,
	observer Observer,
	logger zerolog.Logger,
) *ReconciliationUseCase {
	if observer == nil {
		observer = NopObserver{}
	}

	return &ReconciliationUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		ledgerRepo:  ledgerRepo,
		observer:    observer,
		logger:      logger.With().Str("component", "reconciliation").Logger(),
		now:         utcNow,
	}
}

// WithClock replaces the time source.
func (uc *ReconciliationUseCase) WithClock(now func() time.Time) *ReconciliationUseCase {
	uc.now = now
	return uc
}

// ReconcileInput is one statement to match against an account's entries.
// Zero From/To leave that side of the date range open; To is exclusive.
type ReconcileInput struct {
	AccountID        string
	From             time.Time
	To               time.Time
	Lines            []domain.StatementLine
	StatementBalance *decimal.Decimal
}

// ReconciliationReport is the outcome of a run plus the balance comparison.
type ReconciliationReport struct {
	domain.MatchResult
	AccountID        string
	BookBalance      decimal.Decimal
	StatementBalance decimal.Decimal
	Difference       decimal.Decimal
	IsBalanced       bool
	Status           ReconciliationStatus
	CheckedAt        time.Time
}

// Reconcile matches the statement lines against the account's entries dated
// within the range. With To set, the book balance is the balance as of To.
// When no statement balance is given, the book balance is compared with itself
// and only the matching outcome drives the status.
func (uc *ReconciliationUseCase) Reconcile(ctx context.Context, input ReconcileInput) (*ReconciliationReport, error) {
	account, err := uc.accountRepo.GetByID(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.candidates(ctx, input)
	if err != nil {
		return nil, err
	}

	book := account.Balance
	if !input.To.IsZero() {
		posted, err := uc.ledgerRepo.SumAccountDeltasBefore(ctx, account.ID, input.To)
		if err != nil {
			return nil, err
		}
		book = account.InitialBalance.Add(posted)
	}

	result := domain.MatchStatement(input.Lines, entries)

	report := &ReconciliationReport{
		MatchResult:      result,
		AccountID:        account.ID,
		BookBalance:      book,
		StatementBalance: book,
		CheckedAt:        uc.now(),
	}
	if input.StatementBalance != nil {
		report.StatementBalance = *input.StatementBalance
	}

	report.Difference = report.BookBalance.Sub(report.StatementBalance)
	report.IsBalanced = report.Difference.Abs().LessThan(domain.BalanceTolerance)

	switch {
	case !report.IsBalanced:
		report.Status = StatusDiscrepancy
	case len(result.UnmatchedStatement) > 0 || len(result.UnmatchedLedger) > 0:
		report.Status = StatusInProgress
	default:
		report.Status = StatusCompleted
	}

	uc.observer.StatementReconciled(len(result.Matched), len(result.UnmatchedStatement), len(result.UnmatchedLedger))

	uc.logger.Info().
		Str("account_id", account.ID).
		Int("matched", len(result.Matched)).
		Int("unmatched_statement", len(result.UnmatchedStatement)).
		Int("unmatched_ledger", len(result.UnmatchedLedger)).
		Str("status", string(report.Status)).
		Msg("statement reconciled")

	return report, nil
}

// candidates loads every entry of the account dated within the range.
func (uc *ReconciliationUseCase) candidates(ctx context.Context, input ReconcileInput) ([]*domain.LedgerEntry, error) {
	var all []*domain.LedgerEntry
	for offset := 0; ; offset += reconcilePageSize {
		page, err := uc.entryRepo.ListByAccount(ctx, EntryFilter{
			AccountID: input.AccountID,
			From:      input.From,
			To:        input.To,
			Limit:     reconcilePageSize,
			Offset:    offset,
		})
		if err != nil {
			return nil, err
		}

		all = append(all, page...)
		if len(page) < reconcilePageSize {
			return all, nil
		}
	}
}

// AccountCheck compares an account's stored balance with the balance implied
// by its posted entries.
type AccountCheck struct {
	AccountID         string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	CheckedAt         time.Time
}

// VerifyAccount recomputes one account's balance from its initial balance and
// posted deltas.
func (uc *ReconciliationUseCase) VerifyAccount(ctx context.Context, accountID string) (*AccountCheck, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	posted, err := uc.ledgerRepo.SumAccountDeltas(ctx, accountID)
	if err != nil {
		return nil, err
	}

	calculated := account.InitialBalance.Add(posted)
	diff := account.Balance.Sub(calculated)

	return &AccountCheck{
		AccountID:         accountID,
		RecordedBalance:   account.Balance,
		CalculatedBalance: calculated,
		Difference:        diff,
		IsReconciled:      diff.IsZero(),
		CheckedAt:         uc.now(),
	}, nil
}
