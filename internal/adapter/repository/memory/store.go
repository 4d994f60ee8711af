// Package memory is an in-process store implementing the usecase repositories.
// Writers serialize per account: a transaction holds the locks of every account
// it read for update until it commits or rolls back. Writes are buffered in the
// transaction and become visible together at commit.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/iho/periodledger/internal/domain"
	"github.com/iho/periodledger/internal/usecase"
)

// ErrTxDone is returned when a finished transaction is used again.
var ErrTxDone = errors.New("memory: transaction already finished")

type periodKey struct {
	accountID string
	year      int
	month     int
}

// Store holds all ledger state in memory.
type Store struct {
	mu         sync.RWMutex
	accounts   map[string]*domain.Account
	accountIDs []string
	entries    map[string]*domain.LedgerEntry
	entryIDs   []string
	lines      map[string][]*domain.EntryLine
	reversedBy map[string]string
	periods    map[periodKey]*domain.ClosedPeriod
	outbox     []*domain.OutboxEvent

	lockMu sync.Mutex
	locks  map[string]chan struct{}
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		accounts:   make(map[string]*domain.Account),
		entries:    make(map[string]*domain.LedgerEntry),
		lines:      make(map[string][]*domain.EntryLine),
		reversedBy: make(map[string]string),
		periods:    make(map[periodKey]*domain.ClosedPeriod),
		locks:      make(map[string]chan struct{}),
	}
}

func (s *Store) accountLock(id string) chan struct{} {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()

	l, ok := s.locks[id]
	if !ok {
		l = make(chan struct{}, 1)
		s.locks[id] = l
	}
	return l
}

// Tx is a memory transaction. It implements usecase.Transaction.
type Tx struct {
	store *Store
	held  map[string]chan struct{}
	ops   []func()
	done  bool
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a TxManager for the store.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Tx{store: m.store, held: make(map[string]chan struct{})}, nil
}

// lock acquires the writer locks for ids in sorted order. Locks already held
// by this transaction are skipped.
func (t *Tx) lock(ctx context.Context, ids []string) error {
	if t.done {
		return ErrTxDone
	}

	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	for _, id := range sorted {
		if _, ok := t.held[id]; ok {
			continue
		}

		l := t.store.accountLock(id)
		select {
		case l <- struct{}{}:
			t.held[id] = l
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return nil
}

func (t *Tx) enqueue(op func()) error {
	if t.done {
		return ErrTxDone
	}
	t.ops = append(t.ops, op)
	return nil
}

func (t *Tx) release() {
	for id, l := range t.held {
		<-l
		delete(t.held, id)
	}
	t.done = true
}

// Commit applies the buffered writes atomically and releases the locks.
func (t *Tx) Commit(_ context.Context) error {
	if t.done {
		return ErrTxDone
	}

	t.store.mu.Lock()
	for _, op := range t.ops {
		op()
	}
	t.store.mu.Unlock()

	t.ops = nil
	t.release()
	return nil
}

// Rollback discards the buffered writes and releases the locks. It is safe to
// call after Commit.
func (t *Tx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.ops = nil
	t.release()
	return nil
}

func asTx(tx usecase.Transaction) (*Tx, error) {
	mtx, ok := tx.(*Tx)
	if !ok || mtx == nil {
		return nil, errors.New("memory: foreign transaction")
	}
	if mtx.done {
		return nil, ErrTxDone
	}
	return mtx, nil
}

func copyAccount(a *domain.Account) *domain.Account {
	c := *a
	return &c
}

func copyEntry(e *domain.LedgerEntry) *domain.LedgerEntry {
	c := *e
	c.Postings = append([]domain.Posting(nil), e.Postings...)
	if e.ReversesEntryID != nil {
		id := *e.ReversesEntryID
		c.ReversesEntryID = &id
	}
	return &c
}

// Accounts returns the account repository view of the store.
func (s *Store) Accounts() *AccountRepository { return &AccountRepository{s: s} }

// Entries returns the entry repository view of the store.
func (s *Store) Entries() *EntryRepository { return &EntryRepository{s: s} }

// Periods returns the closed-period repository view of the store.
func (s *Store) Periods() *PeriodRepository { return &PeriodRepository{s: s} }

// Ledger returns the ledger-wide repository view of the store.
func (s *Store) Ledger() *LedgerRepository { return &LedgerRepository{s: s} }

// Outbox returns the outbox repository view of the store.
func (s *Store) Outbox() *OutboxRepository { return &OutboxRepository{s: s} }
