package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/periodledger/internal/domain"
)

const (
	// DefaultTransactionTimeout bounds one write transaction, lock waits included.
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached.
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultOpenPeriodTTL is how long an "open" answer may be served from cache.
	DefaultOpenPeriodTTL = 30 * time.Second
)

// ErrCacheMiss is returned by Cache implementations for absent keys.
var ErrCacheMiss = errors.New("cache miss")

// NopObserver discards every observation.
type NopObserver struct{}

func (NopObserver) EntryApplied(domain.TransactionClass, time.Duration) {}
func (NopObserver) EntryRejected(string)                                {}
func (NopObserver) EntryReversed()                                      {}
func (NopObserver) PeriodClosed()                                       {}
func (NopObserver) StatementReconciled(int, int, int)                   {}

// StaticClassifier is a ClassifierSource that never changes.
type StaticClassifier struct {
	C *domain.Classifier
}

// Classifier implements ClassifierSource.
func (s StaticClassifier) Classifier() *domain.Classifier {
	return s.C
}

type noRetry struct{}

func (noRetry) Retry(_ context.Context, operation func() error) error {
	return operation()
}
