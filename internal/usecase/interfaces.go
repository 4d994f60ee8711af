package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/periodledger/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	// GetByIDsForUpdate locks the rows in the order given. Missing IDs are omitted from the result.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	SetActive(ctx context.Context, tx Transaction, id string, active bool, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// EntryFilter narrows an account's entry listing. Zero From/To are unbounded; To is exclusive.
type EntryFilter struct {
	AccountID string
	From      time.Time
	To        time.Time
	Limit     int
	Offset    int
}

// EntryRepository defines data access for ledger entries.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry, lines []*domain.EntryLine) error
	GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error)
	IsReversed(ctx context.Context, tx Transaction, id string) (bool, error)
	ListByAccount(ctx context.Context, filter EntryFilter) ([]*domain.LedgerEntry, error)
	GetLines(ctx context.Context, entryID string) ([]*domain.EntryLine, error)
}

// PeriodRepository defines data access for closed periods.
type PeriodRepository interface {
	// Create returns domain.ErrAlreadyClosed if the period is already recorded.
	Create(ctx context.Context, tx Transaction, period *domain.ClosedPeriod) error
	IsClosed(ctx context.Context, accountID string, year, month int) (bool, error)
	IsClosedTx(ctx context.Context, tx Transaction, accountID string, year, month int) (bool, error)
	ListByAccount(ctx context.Context, accountID string) ([]*domain.ClosedPeriod, error)
}

// LedgerTotals are the aggregates a consistency check compares.
type LedgerTotals struct {
	// BalanceDrift is the sum of (balance - initial balance) over all accounts.
	BalanceDrift decimal.Decimal
	// PostedDelta is the sum of signed deltas over all persisted entry lines.
	PostedDelta decimal.Decimal
	// UnbalancedEntries counts entries whose debit and credit totals differ.
	UnbalancedEntries int
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	CheckConsistency(ctx context.Context) (*LedgerTotals, error)
	// SumAccountDeltas returns the sum of signed deltas posted to one account.
	SumAccountDeltas(ctx context.Context, accountID string) (decimal.Decimal, error)
	// SumAccountDeltasBefore sums the deltas of entries dated before the given instant.
	SumAccountDeltasBefore(ctx context.Context, accountID string, before time.Time) (decimal.Decimal, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations. Get returns ErrCacheMiss for absent keys.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key so the request can be retried.
	Release(ctx context.Context, key string) error
}

// Retrier replays an operation on transient storage conflicts.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// ClassifierSource hands out the classifier currently in effect.
type ClassifierSource interface {
	Classifier() *domain.Classifier
}

// Observer receives ledger outcomes for instrumentation.
type Observer interface {
	EntryApplied(class domain.TransactionClass, elapsed time.Duration)
	EntryRejected(reason string)
	EntryReversed()
	PeriodClosed()
	StatementReconciled(matched, unmatchedStatement, unmatchedLedger int)
}
