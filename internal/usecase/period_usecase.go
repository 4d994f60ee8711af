package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/periodledger/internal/domain"
)

const (
	cacheClosed = "1"
	cacheOpen   = "0"
)

// PeriodDeps are the collaborators of PeriodUseCase. Cache, OutboxRepo,
// Retrier and Observer are optional.
type PeriodDeps struct {
	TxManager   TransactionManager
	AccountRepo AccountRepository
	PeriodRepo  PeriodRepository
	OutboxRepo  OutboxRepository
	Cache       Cache
	IDGen       IDGenerator
	Retrier     Retrier
	Observer    Observer
	Logger      zerolog.Logger
	// OpenTTL bounds how long an "open" answer is served from cache.
	OpenTTL time.Duration
	// TxTimeout bounds one close transaction. Zero means DefaultTransactionTimeout.
	TxTimeout time.Duration
}

// PeriodUseCase closes accounting months and answers closed-period queries.
type PeriodUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	periodRepo  PeriodRepository
	events      eventRecorder
	cache       Cache
	idGen       IDGenerator
	retrier     Retrier
	observer    Observer
	logger      zerolog.Logger
	openTTL     time.Duration
	txTimeout   time.Duration
	now         func() time.Time
}

// NewPeriodUseCase creates a new PeriodUseCase.
func NewPeriodUseCase(deps PeriodDeps) *PeriodUseCase {
	if deps.Retrier == nil {
		deps.Retrier = noRetry{}
	}
	if deps.Observer == nil {
		deps.Observer = NopObserver{}
	}
	if deps.OpenTTL <= 0 {
		deps.OpenTTL = DefaultOpenPeriodTTL
	}
	if deps.TxTimeout <= 0 {
		deps.TxTimeout = DefaultTransactionTimeout
	}

	return &PeriodUseCase{
		txManager:   deps.TxManager,
		accountRepo: deps.AccountRepo,
		periodRepo:  deps.PeriodRepo,
		events:      eventRecorder{repo: deps.OutboxRepo, idGen: deps.IDGen},
		cache:       deps.Cache,
		idGen:       deps.IDGen,
		retrier:     deps.Retrier,
		observer:    deps.Observer,
		logger:      deps.Logger.With().Str("component", "periods").Logger(),
		openTTL:     deps.OpenTTL,
		txTimeout:   deps.TxTimeout,
		now:         utcNow,
	}
}

// WithClock replaces the time source used to reject future periods.
func (uc *PeriodUseCase) WithClock(now func() time.Time) *PeriodUseCase {
	uc.now = now
	return uc
}

// CloseInput represents input for closing a month.
type CloseInput struct {
	AccountID string
	Year      int
	Month     int
	ClosedBy  string
	Notes     string
}

// Close locks (account, year, month) against further entries. The check and
// the insert run under the account's row lock, so Close serializes with Apply.
func (uc *PeriodUseCase) Close(ctx context.Context, input CloseInput) (*domain.ClosedPeriod, error) {
	period := domain.Period{Year: input.Year, Month: input.Month}
	if err := period.Validate(); err != nil {
		return nil, err
	}

	closedBy := strings.TrimSpace(input.ClosedBy)
	if closedBy == "" {
		closedBy = "system"
	}

	var closed *domain.ClosedPeriod
	err := uc.retrier.Retry(ctx, func() error {
		cp, err := uc.closeOnce(ctx, input.AccountID, period, closedBy, input.Notes)
		closed = cp
		return err
	})
	if err != nil {
		uc.logger.Warn().
			Err(err).
			Str("account_id", input.AccountID).
			Str("period", period.String()).
			Msg("close rejected")
		return nil, err
	}

	uc.cacheSet(ctx, input.AccountID, period, cacheClosed, 0)
	uc.observer.PeriodClosed()

	uc.logger.Info().
		Str("account_id", input.AccountID).
		Str("period", period.String()).
		Str("closed_by", closedBy).
		Msg("period closed")

	return closed, nil
}

func (uc *PeriodUseCase) closeOnce(ctx context.Context, accountID string, period domain.Period, closedBy, notes string) (*domain.ClosedPeriod, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.txTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, accountID); err != nil {
		return nil, err
	}

	already, err := uc.periodRepo.IsClosedTx(ctx, tx, accountID, period.Year, period.Month)
	if err != nil {
		return nil, err
	}
	if already {
		return nil, fmt.Errorf("%w: account %s %s", domain.ErrAlreadyClosed, accountID, period)
	}

	now := uc.now()
	if period.After(domain.PeriodOf(now)) {
		return nil, fmt.Errorf("%w: %s", domain.ErrFuturePeriod, period)
	}

	closed := &domain.ClosedPeriod{
		ID:        uc.idGen.Generate(),
		AccountID: accountID,
		Year:      period.Year,
		Month:     period.Month,
		ClosedAt:  now,
		ClosedBy:  closedBy,
		Notes:     notes,
	}

	if err := uc.periodRepo.Create(ctx, tx, closed); err != nil {
		return nil, err
	}

	err = uc.events.record(ctx, tx, domain.AggregateTypePeriod, closed.ID,
		domain.EventTypePeriodClosed, domain.PeriodClosedPayload(closed), now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return closed, nil
}

// IsClosed reports whether the month is closed for the account. Answers may
// come from cache: a closed answer is always current, an open one may lag a
// concurrent Close by up to the open TTL.
func (uc *PeriodUseCase) IsClosed(ctx context.Context, accountID string, year, month int) (bool, error) {
	period := domain.Period{Year: year, Month: month}
	if err := period.Validate(); err != nil {
		return false, err
	}

	if v, ok := uc.cacheGet(ctx, accountID, period); ok {
		return v == cacheClosed, nil
	}

	closed, err := uc.periodRepo.IsClosed(ctx, accountID, year, month)
	if err != nil {
		return false, err
	}

	if closed {
		uc.cacheSet(ctx, accountID, period, cacheClosed, 0)
	} else {
		uc.cacheSet(ctx, accountID, period, cacheOpen, uc.openTTL)
	}

	return closed, nil
}

// ListClosed returns the account's closed months, most recent first.
func (uc *PeriodUseCase) ListClosed(ctx context.Context, accountID string) ([]*domain.ClosedPeriod, error) {
	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	return uc.periodRepo.ListByAccount(ctx, accountID)
}

func periodCacheKey(accountID string, p domain.Period) string {
	return "period:" + accountID + ":" + p.String()
}

func (uc *PeriodUseCase) cacheGet(ctx context.Context, accountID string, p domain.Period) (string, bool) {
	if uc.cache == nil {
		return "", false
	}

	v, err := uc.cache.Get(ctx, periodCacheKey(accountID, p))
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			uc.logger.Warn().Err(err).Msg("period cache read failed")
		}
		return "", false
	}

	return v, true
}

func (uc *PeriodUseCase) cacheSet(ctx context.Context, accountID string, p domain.Period, v string, ttl time.Duration) {
	if uc.cache == nil {
		return
	}

	if err := uc.cache.Set(ctx, periodCacheKey(accountID, p), v, ttl); err != nil {
		uc.logger.Warn().Err(err).Msg("period cache write failed")
	}
}
