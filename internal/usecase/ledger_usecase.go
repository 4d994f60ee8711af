package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/periodledger/internal/domain"
)

var (
	// ErrInconsistentLedger is returned when balances and posted entries disagree.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: balances do not match posted entries")
)

// LedgerDeps are the collaborators of LedgerUseCase. OutboxRepo, Retrier and
// Observer are optional. A zero TxTimeout means DefaultTransactionTimeout.
type LedgerDeps struct {
	TxManager   TransactionManager
	AccountRepo AccountRepository
	EntryRepo   EntryRepository
	PeriodRepo  PeriodRepository
	LedgerRepo  LedgerRepository
	OutboxRepo  OutboxRepository
	Classifiers ClassifierSource
	IDGen       IDGenerator
	Retrier     Retrier
	Observer    Observer
	Logger      zerolog.Logger
	TxTimeout   time.Duration
}

// LedgerUseCase appends entries to the ledger under the closed-period rule.
type LedgerUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	periodRepo  PeriodRepository
	ledgerRepo  LedgerRepository
	events      eventRecorder
	classifiers ClassifierSource
	idGen       IDGenerator
	retrier     Retrier
	observer    Observer
	logger      zerolog.Logger
	txTimeout   time.Duration
	now         func() time.Time
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(deps LedgerDeps) *LedgerUseCase {
	if deps.Retrier == nil {
		deps.Retrier = noRetry{}
	}
	if deps.Observer == nil {
		deps.Observer = NopObserver{}
	}
	if deps.Classifiers == nil {
		deps.Classifiers = StaticClassifier{C: domain.DefaultClassifier()}
	}
	if deps.TxTimeout <= 0 {
		deps.TxTimeout = DefaultTransactionTimeout
	}

	return &LedgerUseCase{
		txManager:   deps.TxManager,
		accountRepo: deps.AccountRepo,
		entryRepo:   deps.EntryRepo,
		periodRepo:  deps.PeriodRepo,
		ledgerRepo:  deps.LedgerRepo,
		events:      eventRecorder{repo: deps.OutboxRepo, idGen: deps.IDGen},
		classifiers: deps.Classifiers,
		idGen:       deps.IDGen,
		retrier:     deps.Retrier,
		observer:    deps.Observer,
		logger:      deps.Logger.With().Str("component", "ledger").Logger(),
		txTimeout:   deps.TxTimeout,
		now:         utcNow,
	}
}

// WithClock replaces the time source.
func (uc *LedgerUseCase) WithClock(now func() time.Time) *LedgerUseCase {
	uc.now = now
	return uc
}

// Classify returns the class the current rule table assigns to category.
func (uc *LedgerUseCase) Classify(category string) domain.TransactionClass {
	return uc.classifiers.Classifier().Classify(category)
}

// Suggest returns known category names containing input.
func (uc *LedgerUseCase) Suggest(input string) []string {
	return uc.classifiers.Classifier().Suggest(input)
}

// ClassifyAndApply runs classify, build and apply, stopping at the first failure.
func (uc *LedgerUseCase) ClassifyAndApply(ctx context.Context, req domain.TransactionRequest) (*domain.LedgerEntry, error) {
	class := uc.Classify(req.Category)

	entry, err := domain.BuildEntry(req, class)
	if err != nil {
		uc.reject(err, "build", req.ID)
		return nil, err
	}

	return uc.Apply(ctx, entry)
}

// Apply validates entry against locked account state and persists it with its
// balance effects, all in one transaction. On any failure nothing is written.
func (uc *LedgerUseCase) Apply(ctx context.Context, entry *domain.LedgerEntry) (*domain.LedgerEntry, error) {
	start := time.Now()

	now := uc.now()
	if entry.ID == "" {
		entry.ID = uc.idGen.Generate()
	}
	if entry.Date.IsZero() {
		entry.Date = now
	}
	entry.CreatedAt = now

	err := uc.retrier.Retry(ctx, func() error {
		return uc.applyOnce(ctx, entry, nil)
	})
	if err != nil {
		uc.reject(err, "apply", entry.ID)
		return nil, err
	}

	uc.observer.EntryApplied(entry.Class, time.Since(start))
	uc.logger.Info().
		Str("entry_id", entry.ID).
		Str("class", string(entry.Class)).
		Str("amount", entry.Amount().String()).
		Time("date", entry.Date).
		Msg("entry applied")

	return entry, nil
}

// ReverseEntryInput represents input for reversing an entry.
type ReverseEntryInput struct {
	EntryID string
	Date    time.Time
	Reason  string
}

// ReverseEntry appends the mirror of an existing entry. The original must not
// be reversed already, and neither the original's nor the reversal's period may
// be closed for any account it touches.
func (uc *LedgerUseCase) ReverseEntry(ctx context.Context, input ReverseEntryInput) (*domain.LedgerEntry, error) {
	original, err := uc.entryRepo.GetByID(ctx, input.EntryID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	date := input.Date
	if date.IsZero() {
		date = now
	}

	reason := input.Reason
	if reason == "" {
		reason = "reversal of " + original.ID
	}

	reversal := original.Reversal(date, reason)
	reversal.ID = uc.idGen.Generate()
	reversal.CreatedAt = now

	precheck := func(tx Transaction) error {
		reversed, err := uc.entryRepo.IsReversed(ctx, tx, original.ID)
		if err != nil {
			return err
		}
		if reversed {
			return fmt.Errorf("%w: %s", domain.ErrAlreadyReversed, original.ID)
		}
		return uc.checkOpen(ctx, tx, original)
	}

	err = uc.retrier.Retry(ctx, func() error {
		return uc.applyOnce(ctx, reversal, precheck)
	})
	if err != nil {
		uc.reject(err, "reverse", original.ID)
		return nil, err
	}

	uc.observer.EntryReversed()
	uc.logger.Info().
		Str("entry_id", reversal.ID).
		Str("reverses", original.ID).
		Msg("entry reversed")

	return reversal, nil
}

func (uc *LedgerUseCase) applyOnce(ctx context.Context, entry *domain.LedgerEntry, precheck func(Transaction) error) error {
	// Lock in sorted order so concurrent writers never deadlock.
	ids := entry.AccountIDs()
	sort.Strings(ids)

	ctx, cancel := context.WithTimeout(ctx, uc.txTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	locked, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return err
	}

	accounts := make(domain.AccountMap, len(locked))
	for _, a := range locked {
		accounts[a.ID] = a
	}

	if err := domain.ValidateEntry(entry, accounts); err != nil {
		return err
	}

	if precheck != nil {
		if err := precheck(tx); err != nil {
			return err
		}
	}

	if err := uc.checkOpen(ctx, tx, entry); err != nil {
		return err
	}

	lines := make([]*domain.EntryLine, 0, len(ids))
	for _, p := range entry.Postings {
		if p.IsVirtual() {
			continue
		}

		account := accounts[p.AccountID]
		delta := account.Delta(p.Side, p.Amount)
		newBalance := account.Balance.Add(delta)

		lines = append(lines, &domain.EntryLine{
			EntryID:                entry.ID,
			AccountID:              account.ID,
			Side:                   p.Side,
			Amount:                 p.Amount,
			Delta:                  delta,
			AccountPreviousBalance: account.Balance,
			AccountCurrentBalance:  newBalance,
			AccountVersion:         account.Version + 1,
			EntryDate:              entry.Date,
			CreatedAt:              entry.CreatedAt,
		})

		if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, entry.CreatedAt); err != nil {
			return err
		}

		account.Balance = newBalance
		account.Version++
	}

	if err := uc.entryRepo.Create(ctx, tx, entry, lines); err != nil {
		return err
	}

	eventType := domain.EventTypeEntryApplied
	if entry.ReversesEntryID != nil {
		eventType = domain.EventTypeEntryReversed
	}

	err = uc.events.record(ctx, tx, domain.AggregateTypeEntry, entry.ID, eventType,
		domain.EntryAppliedPayload(entry), entry.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// checkOpen fails if entry's period is closed for any real account it posts to.
func (uc *LedgerUseCase) checkOpen(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error {
	period := domain.PeriodOf(entry.Date)

	for _, id := range entry.AccountIDs() {
		closed, err := uc.periodRepo.IsClosedTx(ctx, tx, id, period.Year, period.Month)
		if err != nil {
			return err
		}
		if closed {
			return &domain.PeriodClosedError{AccountID: id, Year: period.Year, Month: period.Month}
		}
	}

	return nil
}

func (uc *LedgerUseCase) reject(err error, stage, id string) {
	reason := rejectionReason(err)
	uc.observer.EntryRejected(reason)

	uc.logger.Warn().
		Err(err).
		Str("stage", stage).
		Str("id", id).
		Str("reason", reason).
		Msg("entry rejected")
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrMissingLink):
		return "missing_link"
	case errors.Is(err, domain.ErrSameAccount):
		return "same_account"
	case errors.Is(err, domain.ErrInvalidDirection):
		return "invalid_direction"
	case errors.Is(err, domain.ErrMissingSide):
		return "missing_side"
	case errors.Is(err, domain.ErrUnbalanced):
		return "unbalanced"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "unknown_account"
	case errors.Is(err, domain.ErrInactiveAccount):
		return "inactive_account"
	case errors.Is(err, domain.ErrCurrencyMismatch):
		return "currency_mismatch"
	case errors.Is(err, domain.ErrPeriodClosed):
		return "period_closed"
	case errors.Is(err, domain.ErrAlreadyReversed):
		return "already_reversed"
	case errors.Is(err, domain.ErrEntryNotFound):
		return "entry_not_found"
	default:
		return "internal"
	}
}

// GetEntry retrieves an entry by ID.
func (uc *LedgerUseCase) GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	return uc.entryRepo.GetByID(ctx, id)
}

// GetEntryLines returns the per-account balance snapshots of an entry.
func (uc *LedgerUseCase) GetEntryLines(ctx context.Context, id string) ([]*domain.EntryLine, error) {
	if _, err := uc.entryRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	return uc.entryRepo.GetLines(ctx, id)
}

// ListEntries lists an account's entries, oldest first.
func (uc *LedgerUseCase) ListEntries(ctx context.Context, filter EntryFilter) ([]*domain.LedgerEntry, error) {
	if _, err := uc.accountRepo.GetByID(ctx, filter.AccountID); err != nil {
		return nil, err
	}

	filter.Limit, filter.Offset, _ = domain.ValidatePagination(filter.Limit, filter.Offset)

	return uc.entryRepo.ListByAccount(ctx, filter)
}

// CheckConsistency verifies that every balance change is explained by posted
// entries and that every entry balances.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (bool, error) {
	totals, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return false, err
	}

	if !totals.BalanceDrift.Equal(totals.PostedDelta) || totals.UnbalancedEntries > 0 {
		uc.logger.Error().
			Str("balance_drift", totals.BalanceDrift.String()).
			Str("posted_delta", totals.PostedDelta.String()).
			Int("unbalanced_entries", totals.UnbalancedEntries).
			Msg("ledger inconsistency detected")

		return false, ErrInconsistentLedger
	}

	return true, nil
}
