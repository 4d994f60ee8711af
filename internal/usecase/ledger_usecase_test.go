package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/periodledger/internal/adapter/repository/memory"
	"github.com/iho/periodledger/internal/domain"
	"github.com/iho/periodledger/internal/usecase"
	"github.com/iho/periodledger/internal/usecase/mocks"
)

func TestLedger_DepositCreditsVirtualIncome(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	chk := f.account(t, "Checking", domain.AccountKindChecking, 1000)

	entry, err := f.ledger.ClassifyAndApply(ctx, domain.TransactionRequest{
		SourceAccountID: chk.ID,
		Amount:          decimal.NewFromInt(500),
		Direction:       domain.DirectionCredit,
		Category:        "salary",
		Date:            date(2024, 5, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ClassGeneric, entry.Class)
	assert.Equal(t, chk.ID, entry.Postings[0].AccountID)
	assert.Equal(t, domain.SideDebit, entry.Postings[0].Side)
	assert.Equal(t, domain.VirtualIncome, entry.Postings[1].Virtual)
	requireDecimal(t, "1500", f.balance(t, chk.ID))
}

func TestLedger_BillWithoutLinkPostsToExpense(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	chk := f.account(t, "Checking", domain.AccountKindChecking, 1000)

	entry, err := f.ledger.ClassifyAndApply(ctx, domain.TransactionRequest{
		SourceAccountID: chk.ID,
		Amount:          decimal.NewFromInt(150),
		Direction:       domain.DirectionDebit,
		Category:        "electricity bill",
		Date:            date(2024, 5, 2),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ClassBill, entry.Class)
	assert.Equal(t, domain.VirtualExpense, entry.Postings[0].Virtual)
	assert.Equal(t, chk.ID, entry.Postings[1].AccountID)
	requireDecimal(t, "850", f.balance(t, chk.ID))
}

func TestLedger_TransferToSameAccountIsRejected(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	chk := f.account(t, "Checking", domain.AccountKindChecking, 2000)

	_, err := f.ledger.ClassifyAndApply(ctx, domain.TransactionRequest{
		SourceAccountID:      chk.ID,
		DestinationAccountID: chk.ID,
		Amount:               decimal.NewFromInt(1000),
		Direction:            domain.DirectionDebit,
		Category:             "transfer",
	})

	require.ErrorIs(t, err, domain.ErrSameAccount)
	var buildErr *domain.BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, domain.ClassTransfer, buildErr.Class)
	requireDecimal(t, "2000", f.balance(t, chk.ID))
}

func TestLedger_ClosedPeriodRejectsEntry(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	chk := f.account(t, "Checking", domain.AccountKindChecking, 1000)

	_, err := f.periods.Close(ctx, usecase.CloseInput{AccountID: chk.ID, Year: 2024, Month: 3, ClosedBy: "alice"})
	require.NoError(t, err)

	_, err = f.ledger.ClassifyAndApply(ctx, domain.TransactionRequest{
		SourceAccountID: chk.ID,
		Amount:          decimal.NewFromInt(40),
		Direction:       domain.DirectionDebit,
		Category:        "groceries",
		Date:            date(2024, 3, 10),
	})

	var closedErr *domain.PeriodClosedError
	require.ErrorAs(t, err, &closedErr)
	assert.Equal(t, domain.PeriodClosedError{AccountID: chk.ID, Year: 2024, Month: 3}, *closedErr)
	assert.ErrorIs(t, err, domain.ErrPeriodClosed)
	requireDecimal(t, "1000", f.balance(t, chk.ID))

	// The rejection is permanent.
	for range 3 {
		_, err = f.ledger.ClassifyAndApply(ctx, domain.TransactionRequest{
			SourceAccountID: chk.ID,
			Amount:          decimal.NewFromInt(1),
			Direction:       domain.DirectionCredit,
			Date:            date(2024, 3, 31),
		})
		assert.ErrorIs(t, err, domain.ErrPeriodClosed)
	}
}

func TestLedger_ClosedPeriodOnEitherSideBlocksBoth(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	chk := f.account(t, "Checking", domain.AccountKindChecking, 1000)
	sav := f.account(t, "Savings", domain.AccountKindSavings, 0)

	_, err := f.periods.Close(ctx, usecase.CloseInput{AccountID: sav.ID, Year: 2024, Month: 4})
	require.NoError(t, err)

	_, err = f.ledger.ClassifyAndApply(ctx, domain.TransactionRequest{
		SourceAccountID:  chk.ID,
		SavingsAccountID: sav.ID,
		Amount:           decimal.NewFromInt(200),
		Direction:        domain.DirectionDebit,
		Category:         "emergency fund",
		Date:             date(2024, 4, 20),
	})

	var closedErr *domain.PeriodClosedError
	require.ErrorAs(t, err, &closedErr)
	assert.Equal(t, sav.ID, closedErr.AccountID)
	requireDecimal(t, "1000", f.balance(t, chk.ID))
	requireDecimal(t, "0", f.balance(t, sav.ID))

	// Same transfer in an open month goes through for both.
	_, err = f.ledger.ClassifyAndApply(ctx, domain.TransactionRequest{
		SourceAccountID:  chk.ID,
		SavingsAccountID: sav.ID,
		Amount:           decimal.NewFromInt(200),
		Direction:        domain.DirectionDebit,
		Category:         "emergency fund",
		Date:             date(2024, 5, 2),
	})
	require.NoError(t, err)
	requireDecimal(t, "800", f.balance(t, chk.ID))
	requireDecimal(t, "200", f.balance(t, sav.ID))
}

func TestLedger_LiabilitySignConvention(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	chk := f.account(t, "Checking", domain.AccountKindChecking, 0)
	loan := f.account(t, "Car loan", domain.AccountKindLoan, 0)

	// Disbursement: money in, credited to the loan liability.
	_, err := f.ledger.ClassifyAndApply(ctx, domain.TransactionRequest{
		SourceAccountID: chk.ID,
		LoanID:          loan.ID,
		Amount:          decimal.NewFromInt(5000),
		Direction:       domain.DirectionCredit,
		Category:        "car loan",
		Origin:          domain.OriginLoanDisbursement,
	})
	require.NoError(t, err)
	requireDecimal(t, "5000", f.balance(t, chk.ID))
	requireDecimal(t, "5000", f.balance(t, loan.ID))

	// Repayment: money out, debited to the loan liability.
	_, err = f.ledger.ClassifyAndApply(ctx, domain.TransactionRequest{
		SourceAccountID: chk.ID,
		LoanID:          loan.ID,
		Amount:          decimal.NewFromInt(300),
		Direction:       domain.DirectionDebit,
		Category:        "loan",
	})
	require.NoError(t, err)
	requireDecimal(t, "4700", f.balance(t, chk.ID))
	requireDecimal(t, "4700", f.balance(t, loan.ID))
}

func TestLedger_ValidationFailuresApplyNothing(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	chk := f.account(t, "Checking", domain.AccountKindChecking, 100)
	old := f.account(t, "Old savings", domain.AccountKindSavings, 100)
	eur, err := f.accounts.CreateAccount(ctx, usecase.CreateAccountInput{Name: "Euro", Currency: "EUR", InitialBalance: decimal.NewFromInt(100)})
	require.NoError(t, err)

	_, err = f.accounts.DeactivateAccount(ctx, old.ID)
	require.NoError(t, err)

	tests := []struct {
		name string
		req  domain.TransactionRequest
		err  error
	}{
		{
			name: "inactive linked account",
			req:  domain.TransactionRequest{SourceAccountID: chk.ID, SavingsAccountID: old.ID, Category: "savings"},
			err:  domain.ErrInactiveAccount,
		},
		{
			name: "inactive source account",
			req:  domain.TransactionRequest{SourceAccountID: old.ID, Category: "coffee"},
			err:  domain.ErrInactiveAccount,
		},
		{
			name: "unknown source account",
			req:  domain.TransactionRequest{SourceAccountID: "ghost", Category: "coffee"},
			err:  domain.ErrAccountNotFound,
		},
		{
			name: "unknown destination",
			req:  domain.TransactionRequest{SourceAccountID: chk.ID, DestinationAccountID: "ghost", Category: "transfer"},
			err:  domain.ErrAccountNotFound,
		},
		{
			name: "currency mismatch",
			req:  domain.TransactionRequest{SourceAccountID: chk.ID, DestinationAccountID: eur.ID, Category: "transfer"},
			err:  domain.ErrCurrencyMismatch,
		},
		{
			name: "missing link",
			req:  domain.TransactionRequest{SourceAccountID: chk.ID, Category: "loan"},
			err:  domain.ErrMissingLink,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Amount = decimal.NewFromInt(10)
			tt.req.Direction = domain.DirectionDebit

			_, err := f.ledger.ClassifyAndApply(ctx, tt.req)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	for _, id := range []string{chk.ID, old.ID, eur.ID} {
		requireDecimal(t, "100", f.balance(t, id))
	}

	ok, err := f.ledger.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLedger_ApplyRejectsHandBuiltEntries(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	chk := f.account(t, "Checking", domain.AccountKindChecking, 100)

	_, err := f.ledger.Apply(ctx, &domain.LedgerEntry{
		Date: date(2024, 5, 1),
		Postings: []domain.Posting{
			{AccountID: chk.ID, Side: domain.SideDebit, Amount: decimal.RequireFromString("10.00")},
			{Virtual: domain.VirtualIncome, Side: domain.SideCredit, Amount: decimal.RequireFromString("9.50")},
		},
	})

	var unbalanced *domain.UnbalancedError
	require.ErrorAs(t, err, &unbalanced)
	requireDecimal(t, "0.5", unbalanced.Diff)

	_, err = f.ledger.Apply(ctx, &domain.LedgerEntry{
		Postings: []domain.Posting{
			{AccountID: chk.ID, Side: domain.SideDebit, Amount: decimal.NewFromInt(10)},
		},
	})
	assert.ErrorIs(t, err, domain.ErrMissingSide)
	requireDecimal(t, "100", f.balance(t, chk.ID))
}

func TestLedger_BalanceInvariantHoldsOverSequence(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	chk := f.account(t, "Checking", domain.AccountKindChecking, 250)
	sav := f.account(t, "Savings", domain.AccountKindSavings, 1000)
	card := f.account(t, "Card", domain.AccountKindCreditCard, 0)

	reqs := []domain.TransactionRequest{
		{SourceAccountID: chk.ID, Direction: domain.DirectionCredit, Amount: decimal.RequireFromString("1234.56"), Category: "salary"},
		{SourceAccountID: chk.ID, Direction: domain.DirectionDebit, Amount: decimal.RequireFromString("99.99"), Category: "rent"},
		{SourceAccountID: chk.ID, SavingsAccountID: sav.ID, Direction: domain.DirectionDebit, Amount: decimal.RequireFromString("300"), Category: "savings"},
		{SourceAccountID: chk.ID, SavingsAccountID: sav.ID, Direction: domain.DirectionCredit, Amount: decimal.RequireFromString("50.25"), Category: "savings"},
		{SourceAccountID: card.ID, Direction: domain.DirectionDebit, Amount: decimal.RequireFromString("42.10"), Category: "restaurant"},
		{SourceAccountID: chk.ID, DestinationAccountID: card.ID, Direction: domain.DirectionDebit, Amount: decimal.RequireFromString("42.10"), Category: "card transfer"},
	}
	for i, req := range reqs {
		req.Date = date(2024, 5, i+1)
		_, err := f.ledger.ClassifyAndApply(ctx, req)
		require.NoError(t, err, "request %d", i)
	}

	for _, acc := range []*domain.Account{chk, sav, card} {
		current, err := f.accounts.GetAccount(ctx, acc.ID)
		require.NoError(t, err)

		entries, err := f.ledger.ListEntries(ctx, usecase.EntryFilter{AccountID: acc.ID})
		require.NoError(t, err)

		sum := decimal.Zero
		for _, e := range entries {
			for _, p := range e.Postings {
				if !p.IsVirtual() && p.AccountID == acc.ID {
					sum = sum.Add(current.Delta(p.Side, p.Amount))
				}
			}
			assert.True(t, e.Postings[0].Amount.Equal(e.Postings[1].Amount))
		}
		assert.True(t, current.Drift().Equal(sum), "account %s drift %s != %s", acc.Name, current.Drift(), sum)
	}

	requireDecimal(t, "1092.72", f.balance(t, chk.ID))
	requireDecimal(t, "1249.75", f.balance(t, sav.ID))
	requireDecimal(t, "0", f.balance(t, card.ID))

	ok, err := f.ledger.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLedger_ReverseEntryRestoresBalances(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	chk := f.account(t, "Checking", domain.AccountKindChecking, 1000)
	sav := f.account(t, "Savings", domain.AccountKindSavings, 0)

	original, err := f.ledger.ClassifyAndApply(ctx, domain.TransactionRequest{
		SourceAccountID:  chk.ID,
		SavingsAccountID: sav.ID,
		Amount:           decimal.NewFromInt(400),
		Direction:        domain.DirectionDebit,
		Category:         "savings",
		Date:             date(2024, 5, 3),
	})
	require.NoError(t, err)

	reversal, err := f.ledger.ReverseEntry(ctx, usecase.ReverseEntryInput{EntryID: original.ID, Reason: "typo"})
	require.NoError(t, err)

	require.NotNil(t, reversal.ReversesEntryID)
	assert.Equal(t, original.ID, *reversal.ReversesEntryID)
	assert.Equal(t, f.now, reversal.Date)
	requireDecimal(t, "1000", f.balance(t, chk.ID))
	requireDecimal(t, "0", f.balance(t, sav.ID))

	_, err = f.ledger.ReverseEntry(ctx, usecase.ReverseEntryInput{EntryID: original.ID})
	assert.ErrorIs(t, err, domain.ErrAlreadyReversed)

	_, err = f.ledger.ReverseEntry(ctx, usecase.ReverseEntryInput{EntryID: "missing"})
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)

	lines, err := f.ledger.GetEntryLines(ctx, reversal.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.False(t, l.AccountPreviousBalance.Equal(l.AccountCurrentBalance))
	}
}

func TestLedger_ReverseEntryRespectsClosedPeriods(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	chk := f.account(t, "Checking", domain.AccountKindChecking, 1000)

	original, err := f.ledger.ClassifyAndApply(ctx, domain.TransactionRequest{
		SourceAccountID: chk.ID,
		Amount:          decimal.NewFromInt(25),
		Direction:       domain.DirectionDebit,
		Category:        "coffee",
		Date:            date(2024, 4, 28),
	})
	require.NoError(t, err)

	_, err = f.periods.Close(ctx, usecase.CloseInput{AccountID: chk.ID, Year: 2024, Month: 4})
	require.NoError(t, err)

	// Original sits in a closed month even though the reversal date is open.
	_, err = f.ledger.ReverseEntry(ctx, usecase.ReverseEntryInput{EntryID: original.ID, Date: date(2024, 5, 2)})
	assert.ErrorIs(t, err, domain.ErrPeriodClosed)
	requireDecimal(t, "975", f.balance(t, chk.ID))
}

func TestLedger_ConcurrentAppliesLoseNoUpdates(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	chk := f.account(t, "Checking", domain.AccountKindChecking, 0)
	sav := f.account(t, "Savings", domain.AccountKindSavings, 0)

	const workers = 25
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)

	for i := 0; i < workers; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := f.ledger.ClassifyAndApply(ctx, domain.TransactionRequest{
				SourceAccountID: chk.ID, Amount: decimal.NewFromInt(10),
				Direction: domain.DirectionCredit, Category: "salary",
			})
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := f.ledger.ClassifyAndApply(ctx, domain.TransactionRequest{
				SourceAccountID: sav.ID, DestinationAccountID: chk.ID, Amount: decimal.NewFromInt(1),
				Direction: domain.DirectionDebit, Category: "transfer",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	requireDecimal(t, "275", f.balance(t, chk.ID))
	requireDecimal(t, "-25", f.balance(t, sav.ID))

	ok, err := f.ledger.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLedger_CloseAndApplySerialize(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	chk := f.account(t, "Checking", domain.AccountKindChecking, 0)

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		_, _ = f.periods.Close(ctx, usecase.CloseInput{AccountID: chk.ID, Year: 2024, Month: 4})
	}()

	applied := make(chan bool, 1)
	go func() {
		defer wg.Done()
		_, err := f.ledger.ClassifyAndApply(ctx, domain.TransactionRequest{
			SourceAccountID: chk.ID, Amount: decimal.NewFromInt(5),
			Direction: domain.DirectionCredit, Date: date(2024, 4, 30),
		})
		applied <- err == nil
	}()
	wg.Wait()

	// Either the entry landed before the close or it was rejected; never half of each.
	if <-applied {
		requireDecimal(t, "5", f.balance(t, chk.ID))
	} else {
		requireDecimal(t, "0", f.balance(t, chk.ID))
	}

	closed, err := f.periods.IsClosed(ctx, chk.ID, 2024, 4)
	require.NoError(t, err)
	assert.True(t, closed)
}

func TestLedger_OutboxRecordsAppliedEntries(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	chk := f.account(t, "Checking", domain.AccountKindChecking, 0)

	entry, err := f.ledger.ClassifyAndApply(ctx, domain.TransactionRequest{
		SourceAccountID: chk.ID, Amount: decimal.NewFromInt(5), Direction: domain.DirectionCredit,
	})
	require.NoError(t, err)

	events, err := f.store.Outbox().GetUnpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventTypeAccountCreated, events[0].EventType)
	assert.Equal(t, domain.EventTypeEntryApplied, events[1].EventType)
	assert.Equal(t, entry.ID, events[1].AggregateID)
}

func TestLedger_ListEntriesUnknownAccount(t *testing.T) {
	f := newLedgerFixture(t)

	_, err := f.ledger.ListEntries(context.Background(), usecase.EntryFilter{AccountID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestLedger_ApplyStorageFailureRollsBack(t *testing.T) {
	ctrl := gomock.NewController(t)

	txm := mocks.NewMockTransactionManager(ctrl)
	tx := mocks.NewMockTransaction(ctrl)
	accounts := mocks.NewMockAccountRepository(ctrl)
	entries := mocks.NewMockEntryRepository(ctrl)
	periods := mocks.NewMockPeriodRepository(ctrl)
	ids := mocks.NewMockIDGenerator(ctrl)
	observer := mocks.NewMockObserver(ctrl)

	storageErr := errors.New("disk full")

	ids.EXPECT().Generate().Return("entry-1")
	txm.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	accounts.EXPECT().GetByIDsForUpdate(gomock.Any(), tx, []string{"chk"}).Return([]*domain.Account{
		{ID: "chk", Kind: domain.AccountKindChecking, Currency: "USD", IsActive: true, Balance: decimal.NewFromInt(10)},
	}, nil)
	periods.EXPECT().IsClosedTx(gomock.Any(), tx, "chk", 2024, 5).Return(false, nil)
	accounts.EXPECT().UpdateBalance(gomock.Any(), tx, "chk", decimal.NewFromInt(15), gomock.Any()).Return(nil)
	entries.EXPECT().Create(gomock.Any(), tx, gomock.Any(), gomock.Len(1)).Return(storageErr)
	tx.EXPECT().Rollback(gomock.Any()).Return(nil)
	observer.EXPECT().EntryRejected("internal")

	uc := usecase.NewLedgerUseCase(usecase.LedgerDeps{
		TxManager:   txm,
		AccountRepo: accounts,
		EntryRepo:   entries,
		PeriodRepo:  periods,
		IDGen:       ids,
		Observer:    observer,
		Logger:      zerolog.Nop(),
	}).WithClock(fixedClock(date(2024, 5, 20)))

	_, err := uc.ClassifyAndApply(context.Background(), domain.TransactionRequest{
		SourceAccountID: "chk", Amount: decimal.NewFromInt(5), Direction: domain.DirectionCredit,
	})
	assert.ErrorIs(t, err, storageErr)
}

func TestLedger_ApplyUsesRetrier(t *testing.T) {
	ctrl := gomock.NewController(t)

	txm := mocks.NewMockTransactionManager(ctrl)
	retrier := mocks.NewMockRetrier(ctrl)
	observer := mocks.NewMockObserver(ctrl)
	ids := mocks.NewMockIDGenerator(ctrl)

	beginErr := errors.New("connection refused")
	ids.EXPECT().Generate().Return("entry-1")
	retrier.EXPECT().Retry(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, op func() error) error {
			require.ErrorIs(t, op(), beginErr)
			return op()
		})
	txm.EXPECT().Begin(gomock.Any()).Return(nil, beginErr).Times(2)
	observer.EXPECT().EntryRejected("internal")

	uc := usecase.NewLedgerUseCase(usecase.LedgerDeps{
		TxManager: txm,
		IDGen:     ids,
		Retrier:   retrier,
		Observer:  observer,
		Logger:    zerolog.Nop(),
	})

	_, err := uc.ClassifyAndApply(context.Background(), domain.TransactionRequest{
		SourceAccountID: "chk", Amount: decimal.NewFromInt(5), Direction: domain.DirectionCredit,
	})
	assert.ErrorIs(t, err, beginErr)
}

func TestLedger_ObserverSeesOutcomes(t *testing.T) {
	ctrl := gomock.NewController(t)
	observer := mocks.NewMockObserver(ctrl)

	f := newLedgerFixture(t)
	chk := f.account(t, "Checking", domain.AccountKindChecking, 0)

	uc := usecase.NewLedgerUseCase(usecase.LedgerDeps{
		TxManager:   memory.NewTxManager(f.store),
		AccountRepo: f.store.Accounts(),
		EntryRepo:   f.store.Entries(),
		PeriodRepo:  f.store.Periods(),
		IDGen:       &seqIDs{prefix: "e"},
		Observer:    observer,
		Logger:      zerolog.Nop(),
	})

	observer.EXPECT().EntryApplied(domain.ClassBill, gomock.Any())
	observer.EXPECT().EntryRejected("missing_link")

	_, err := uc.ClassifyAndApply(context.Background(), domain.TransactionRequest{
		SourceAccountID: chk.ID, Amount: decimal.NewFromInt(5), Direction: domain.DirectionDebit, Category: "rent",
	})
	require.NoError(t, err)

	_, err = uc.ClassifyAndApply(context.Background(), domain.TransactionRequest{
		SourceAccountID: chk.ID, Amount: decimal.NewFromInt(5), Direction: domain.DirectionDebit, Category: "transfer",
	})
	require.Error(t, err)
}

func TestLedger_CheckConsistency(t *testing.T) {
	tests := []struct {
		name        string
		totals      *usecase.LedgerTotals
		repoErr     error
		want        bool
		expectedErr error
	}{
		{
			name:   "balanced ledger",
			totals: &usecase.LedgerTotals{BalanceDrift: decimal.NewFromInt(40), PostedDelta: decimal.NewFromInt(40)},
			want:   true,
		},
		{
			name:        "repo error surfaces",
			repoErr:     errors.New("db down"),
			expectedErr: errors.New("db down"),
		},
		{
			name:        "balance drift not explained by entries",
			totals:      &usecase.LedgerTotals{BalanceDrift: decimal.NewFromInt(41), PostedDelta: decimal.NewFromInt(40)},
			expectedErr: usecase.ErrInconsistentLedger,
		},
		{
			name:        "unbalanced entry",
			totals:      &usecase.LedgerTotals{BalanceDrift: decimal.Zero, PostedDelta: decimal.Zero, UnbalancedEntries: 1},
			expectedErr: usecase.ErrInconsistentLedger,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			repo := mocks.NewMockLedgerRepository(ctrl)
			repo.EXPECT().CheckConsistency(gomock.Any()).Return(tt.totals, tt.repoErr)

			uc := usecase.NewLedgerUseCase(usecase.LedgerDeps{LedgerRepo: repo, Logger: zerolog.Nop()})
			got, err := uc.CheckConsistency(context.Background())

			assert.Equal(t, tt.want, got)
			if tt.expectedErr == nil {
				assert.NoError(t, err)
			} else {
				assert.EqualError(t, err, tt.expectedErr.Error())
			}
		})
	}
}

func TestLedger_ClassifyUsesCurrentRules(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockClassifierSource(ctrl)

	first := domain.NewClassifier(map[domain.TransactionClass][]string{domain.ClassTransfer: {"wire"}})
	source.EXPECT().Classifier().Return(domain.DefaultClassifier())
	source.EXPECT().Classifier().Return(first)

	uc := usecase.NewLedgerUseCase(usecase.LedgerDeps{Classifiers: source, Logger: zerolog.Nop()})

	assert.Equal(t, domain.ClassGeneric, uc.Classify("wire"))
	assert.Equal(t, domain.ClassTransfer, uc.Classify("wire"))
}


func TestLedger_SubCentAmountIsRejected(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	chk := f.account(t, "Checking", domain.AccountKindChecking, 100)

	_, err := f.ledger.ClassifyAndApply(ctx, domain.TransactionRequest{
		SourceAccountID: chk.ID, Amount: decimal.RequireFromString("0.001"),
		Direction: domain.DirectionDebit, Category: "coffee", Date: date(2024, 5, 1),
	})
	assert.ErrorIs(t, err, domain.ErrAmountTooSmall)
	requireDecimal(t, "100", f.balance(t, chk.ID))

	entries, err := f.ledger.ListEntries(ctx, usecase.EntryFilter{AccountID: chk.ID})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLedger_TransactionTimeoutBoundsLockWait(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	chk := f.account(t, "Checking", domain.AccountKindChecking, 100)

	txm := memory.NewTxManager(f.store)
	holder, err := txm.Begin(ctx)
	require.NoError(t, err)
	defer holder.Rollback(ctx)
	_, err = f.store.Accounts().GetByIDForUpdate(ctx, holder, chk.ID)
	require.NoError(t, err)

	ledger := usecase.NewLedgerUseCase(usecase.LedgerDeps{
		TxManager:   txm,
		AccountRepo: f.store.Accounts(),
		EntryRepo:   f.store.Entries(),
		PeriodRepo:  f.store.Periods(),
		LedgerRepo:  f.store.Ledger(),
		OutboxRepo:  f.store.Outbox(),
		IDGen:       &seqIDs{prefix: "t"},
		Logger:      zerolog.Nop(),
		TxTimeout:   20 * time.Millisecond,
	})

	_, err = ledger.ClassifyAndApply(ctx, domain.TransactionRequest{
		SourceAccountID: chk.ID, Amount: decimal.NewFromInt(5),
		Direction: domain.DirectionDebit, Category: "coffee", Date: date(2024, 5, 1),
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	periods := usecase.NewPeriodUseCase(usecase.PeriodDeps{
		TxManager:   txm,
		AccountRepo: f.store.Accounts(),
		PeriodRepo:  f.store.Periods(),
		IDGen:       &seqIDs{prefix: "p"},
		Logger:      zerolog.Nop(),
		TxTimeout:   20 * time.Millisecond,
	}).WithClock(fixedClock(f.now))

	_, err = periods.Close(ctx, usecase.CloseInput{AccountID: chk.ID, Year: 2024, Month: 4})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	require.NoError(t, holder.Rollback(ctx))
	requireDecimal(t, "100", f.balance(t, chk.ID))
}
