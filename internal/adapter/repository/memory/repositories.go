package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/periodledger/internal/domain"
	"github.com/iho/periodledger/internal/usecase"
)

// ErrDuplicateID is returned when a record with the same ID already exists.
var ErrDuplicateID = errors.New("memory: duplicate id")

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	s *Store
}

// Create buffers a new account.
func (r *AccountRepository) Create(_ context.Context, tx usecase.Transaction, account *domain.Account) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}

	r.s.mu.RLock()
	_, exists := r.s.accounts[account.ID]
	r.s.mu.RUnlock()
	if exists {
		return fmt.Errorf("%w: account %s", ErrDuplicateID, account.ID)
	}

	stored := copyAccount(account)
	return mtx.enqueue(func() {
		r.s.accounts[stored.ID] = stored
		r.s.accountIDs = append(r.s.accountIDs, stored.ID)
	})
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return copyAccount(a), nil
}

// GetByIDForUpdate locks and retrieves one account.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	accounts, err := r.GetByIDsForUpdate(ctx, tx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(accounts) == 0 {
		return nil, domain.ErrAccountNotFound
	}
	return accounts[0], nil
}

// GetByIDsForUpdate locks the existing accounts among ids and returns them.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	mtx, err := asTx(tx)
	if err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	existing := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := r.s.accounts[id]; ok {
			existing = append(existing, id)
		}
	}
	r.s.mu.RUnlock()

	if err := mtx.lock(ctx, existing); err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	accounts := make([]*domain.Account, 0, len(existing))
	for _, id := range existing {
		accounts = append(accounts, copyAccount(r.s.accounts[id]))
	}
	return accounts, nil
}

// UpdateBalance buffers a balance change and bumps the version.
func (r *AccountRepository) UpdateBalance(_ context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}
	if _, ok := mtx.held[id]; !ok {
		return fmt.Errorf("memory: account %s not locked", id)
	}

	return mtx.enqueue(func() {
		a := r.s.accounts[id]
		a.Balance = balance
		a.Version++
		a.UpdatedAt = updatedAt
	})
}

// SetActive buffers an activation change.
func (r *AccountRepository) SetActive(_ context.Context, tx usecase.Transaction, id string, active bool, updatedAt time.Time) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}

	r.s.mu.RLock()
	_, ok := r.s.accounts[id]
	r.s.mu.RUnlock()
	if !ok {
		return domain.ErrAccountNotFound
	}

	return mtx.enqueue(func() {
		a := r.s.accounts[id]
		a.IsActive = active
		a.UpdatedAt = updatedAt
	})
}

// List returns accounts in creation order.
func (r *AccountRepository) List(_ context.Context, limit, offset int) ([]*domain.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ids := page(r.s.accountIDs, limit, offset)
	accounts := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		accounts = append(accounts, copyAccount(r.s.accounts[id]))
	}
	return accounts, nil
}

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	s *Store
}

// Create buffers an entry with its lines.
func (r *EntryRepository) Create(_ context.Context, tx usecase.Transaction, entry *domain.LedgerEntry, lines []*domain.EntryLine) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}

	r.s.mu.RLock()
	_, exists := r.s.entries[entry.ID]
	r.s.mu.RUnlock()
	if exists {
		return fmt.Errorf("%w: entry %s", ErrDuplicateID, entry.ID)
	}

	stored := copyEntry(entry)
	storedLines := make([]*domain.EntryLine, len(lines))
	for i, l := range lines {
		c := *l
		storedLines[i] = &c
	}

	return mtx.enqueue(func() {
		r.s.entries[stored.ID] = stored
		r.s.entryIDs = append(r.s.entryIDs, stored.ID)
		r.s.lines[stored.ID] = storedLines
		if stored.ReversesEntryID != nil {
			r.s.reversedBy[*stored.ReversesEntryID] = stored.ID
		}
	})
}

// GetByID retrieves an entry by ID.
func (r *EntryRepository) GetByID(_ context.Context, id string) (*domain.LedgerEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	e, ok := r.s.entries[id]
	if !ok {
		return nil, domain.ErrEntryNotFound
	}
	return copyEntry(e), nil
}

// IsReversed reports whether a committed reversal of id exists.
func (r *EntryRepository) IsReversed(_ context.Context, tx usecase.Transaction, id string) (bool, error) {
	if _, err := asTx(tx); err != nil {
		return false, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.reversedBy[id]
	return ok, nil
}

// ListByAccount returns entries touching the account, ordered by date then creation.
func (r *EntryRepository) ListByAccount(_ context.Context, filter usecase.EntryFilter) ([]*domain.LedgerEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matched []*domain.LedgerEntry
	for _, id := range r.s.entryIDs {
		e := r.s.entries[id]
		if !e.Touches(filter.AccountID) {
			continue
		}
		if !filter.From.IsZero() && e.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !e.Date.Before(filter.To) {
			continue
		}
		matched = append(matched, e)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Date.Before(matched[j].Date)
	})

	matched = page(matched, filter.Limit, filter.Offset)
	out := make([]*domain.LedgerEntry, len(matched))
	for i, e := range matched {
		out[i] = copyEntry(e)
	}
	return out, nil
}

// GetLines returns the balance snapshots of an entry.
func (r *EntryRepository) GetLines(_ context.Context, entryID string) ([]*domain.EntryLine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	lines := r.s.lines[entryID]
	out := make([]*domain.EntryLine, len(lines))
	for i, l := range lines {
		c := *l
		out[i] = &c
	}
	return out, nil
}

// PeriodRepository implements usecase.PeriodRepository.
type PeriodRepository struct {
	s *Store
}

// Create buffers a closed period.
func (r *PeriodRepository) Create(_ context.Context, tx usecase.Transaction, period *domain.ClosedPeriod) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}

	key := periodKey{period.AccountID, period.Year, period.Month}

	r.s.mu.RLock()
	_, exists := r.s.periods[key]
	r.s.mu.RUnlock()
	if exists {
		return domain.ErrAlreadyClosed
	}

	stored := *period
	return mtx.enqueue(func() {
		if _, ok := r.s.periods[key]; !ok {
			r.s.periods[key] = &stored
		}
	})
}

// IsClosed reports whether the period is closed.
func (r *PeriodRepository) IsClosed(_ context.Context, accountID string, year, month int) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.periods[periodKey{accountID, year, month}]
	return ok, nil
}

// IsClosedTx reports whether the period is closed as of the transaction's view.
func (r *PeriodRepository) IsClosedTx(ctx context.Context, tx usecase.Transaction, accountID string, year, month int) (bool, error) {
	if _, err := asTx(tx); err != nil {
		return false, err
	}
	return r.IsClosed(ctx, accountID, year, month)
}

// ListByAccount returns the account's closed periods, most recent first.
func (r *PeriodRepository) ListByAccount(_ context.Context, accountID string) ([]*domain.ClosedPeriod, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.ClosedPeriod
	for key, p := range r.s.periods {
		if key.accountID != accountID {
			continue
		}
		c := *p
		out = append(out, &c)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Period().After(out[j].Period())
	})
	return out, nil
}

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	s *Store
}

// CheckConsistency aggregates balances and posted lines.
func (r *LedgerRepository) CheckConsistency(_ context.Context) (*usecase.LedgerTotals, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	totals := &usecase.LedgerTotals{
		BalanceDrift: decimal.Zero,
		PostedDelta:  decimal.Zero,
	}

	for _, a := range r.s.accounts {
		totals.BalanceDrift = totals.BalanceDrift.Add(a.Drift())
	}

	for id, e := range r.s.entries {
		debit, credit := decimal.Zero, decimal.Zero
		for _, p := range e.Postings {
			if p.Side == domain.SideDebit {
				debit = debit.Add(p.Amount)
			} else {
				credit = credit.Add(p.Amount)
			}
		}
		if debit.Sub(credit).Abs().GreaterThanOrEqual(domain.BalanceTolerance) {
			totals.UnbalancedEntries++
		}

		for _, l := range r.s.lines[id] {
			totals.PostedDelta = totals.PostedDelta.Add(l.Delta)
		}
	}

	return totals, nil
}

// SumAccountDeltas sums the deltas posted to one account.
func (r *LedgerRepository) SumAccountDeltas(_ context.Context, accountID string) (decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sum := decimal.Zero
	for _, lines := range r.s.lines {
		for _, l := range lines {
			if l.AccountID == accountID {
				sum = sum.Add(l.Delta)
			}
		}
	}
	return sum, nil
}

// SumAccountDeltasBefore sums the deltas of entries dated before the instant.
func (r *LedgerRepository) SumAccountDeltasBefore(_ context.Context, accountID string, before time.Time) (decimal.Decimal, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sum := decimal.Zero
	for id, lines := range r.s.lines {
		if !r.s.entries[id].Date.Before(before) {
			continue
		}
		for _, l := range lines {
			if l.AccountID == accountID {
				sum = sum.Add(l.Delta)
			}
		}
	}
	return sum, nil
}

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	s *Store
}

// Create buffers an event.
func (r *OutboxRepository) Create(_ context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	mtx, err := asTx(tx)
	if err != nil {
		return err
	}

	stored := *event
	return mtx.enqueue(func() {
		r.s.outbox = append(r.s.outbox, &stored)
	})
}

// GetUnpublished returns up to limit unpublished events, oldest first.
func (r *OutboxRepository) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*domain.OutboxEvent
	for _, e := range r.s.outbox {
		if e.Published {
			continue
		}
		c := *e
		out = append(out, &c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(_ context.Context, id string, publishedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, e := range r.s.outbox {
		if e.ID == id {
			e.Published = true
			at := publishedAt
			e.PublishedAt = &at
			return nil
		}
	}
	return nil
}

// DeletePublished drops published events older than before.
func (r *OutboxRepository) DeletePublished(_ context.Context, before time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	kept := r.s.outbox[:0]
	for _, e := range r.s.outbox {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	r.s.outbox = kept
	return nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
