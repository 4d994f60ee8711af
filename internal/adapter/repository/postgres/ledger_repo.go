package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/iho/periodledger/internal/infrastructure/postgres/generated"
	"github.com/iho/periodledger/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return newLedgerRepository(pool)
}

func newLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{queries: generated.New(db)}
}

// CheckConsistency aggregates balance drift, posted deltas and unbalanced entries.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (*usecase.LedgerTotals, error) {
	result, err := r.queries.CheckLedgerConsistency(ctx)
	if err != nil {
		return nil, err
	}

	drift, err := toDecimal(result.TotalBalanceDrift)
	if err != nil {
		return nil, err
	}

	posted, err := toDecimal(result.TotalPostedDelta)
	if err != nil {
		return nil, err
	}

	return &usecase.LedgerTotals{
		BalanceDrift:      drift,
		PostedDelta:       posted,
		UnbalancedEntries: int(result.UnbalancedEntries),
	}, nil
}

// SumAccountDeltas sums the deltas posted to one account.
func (r *LedgerRepository) SumAccountDeltas(ctx context.Context, accountID string) (decimal.Decimal, error) {
	total, err := r.queries.SumAccountDeltas(ctx, pgtype.Text{String: accountID, Valid: true})
	if err != nil {
		return decimal.Zero, err
	}

	return toDecimal(total)
}

// SumAccountDeltasBefore sums the deltas of entries dated before the instant.
func (r *LedgerRepository) SumAccountDeltasBefore(ctx context.Context, accountID string, before time.Time) (decimal.Decimal, error) {
	total, err := r.queries.SumAccountDeltasBefore(ctx, generated.SumAccountDeltasBeforeParams{
		AccountID: pgtype.Text{String: accountID, Valid: true},
		Before:    timeToPgTimestamptz(before),
	})
	if err != nil {
		return decimal.Zero, err
	}

	return toDecimal(total)
}

func toDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(n.Int.String())
	if err != nil {
		return decimal.Zero, err
	}

	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d, nil
}
