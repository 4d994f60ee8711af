package usecase_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/periodledger/internal/adapter/repository/memory"
	"github.com/iho/periodledger/internal/domain"
	"github.com/iho/periodledger/internal/usecase"
)

type seqIDs struct {
	prefix string
	n      atomic.Int64
}

func (g *seqIDs) Generate() string {
	return fmt.Sprintf("%s-%03d", g.prefix, g.n.Add(1))
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ledgerFixture wires every use case to one memory store with a clock fixed at 2024-05-15.
type ledgerFixture struct {
	store    *memory.Store
	accounts *usecase.AccountUseCase
	ledger   *usecase.LedgerUseCase
	periods  *usecase.PeriodUseCase
	recon    *usecase.ReconciliationUseCase
	now      time.Time
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	store := memory.NewStore()
	txm := memory.NewTxManager(store)
	ids := &seqIDs{prefix: "id"}
	log := zerolog.Nop()
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	return &ledgerFixture{
		store:    store,
		accounts: usecase.NewAccountUseCase(txm, store.Accounts(), store.Outbox(), ids, log).WithClock(fixedClock(now)),
		ledger: usecase.NewLedgerUseCase(usecase.LedgerDeps{
			TxManager:   txm,
			AccountRepo: store.Accounts(),
			EntryRepo:   store.Entries(),
			PeriodRepo:  store.Periods(),
			LedgerRepo:  store.Ledger(),
			OutboxRepo:  store.Outbox(),
			IDGen:       ids,
			Logger:      log,
		}).WithClock(fixedClock(now)),
		periods: usecase.NewPeriodUseCase(usecase.PeriodDeps{
			TxManager:   txm,
			AccountRepo: store.Accounts(),
			PeriodRepo:  store.Periods(),
			OutboxRepo:  store.Outbox(),
			IDGen:       ids,
			Logger:      log,
		}).WithClock(fixedClock(now)),
		recon: usecase.NewReconciliationUseCase(store.Accounts(), store.Entries(), store.Ledger(), nil, log).
			WithClock(fixedClock(now)),
		now: now,
	}
}

func (f *ledgerFixture) account(t *testing.T, name string, kind domain.AccountKind, initial int64) *domain.Account {
	t.Helper()

	acc, err := f.accounts.CreateAccount(context.Background(), usecase.CreateAccountInput{
		Name:           name,
		Kind:           string(kind),
		Currency:       "USD",
		InitialBalance: decimal.NewFromInt(initial),
	})
	require.NoError(t, err)
	return acc
}

func (f *ledgerFixture) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()

	b, err := f.accounts.GetBalance(context.Background(), id)
	require.NoError(t, err)
	return b
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}
