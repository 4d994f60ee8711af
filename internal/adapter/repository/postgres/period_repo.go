package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/periodledger/internal/domain"
	"github.com/iho/periodledger/internal/infrastructure/postgres/generated"
	"github.com/iho/periodledger/internal/usecase"
)

// PeriodRepository implements usecase.PeriodRepository.
type PeriodRepository struct {
	queries *generated.Queries
}

// NewPeriodRepository creates a new PeriodRepository.
func NewPeriodRepository(pool *pgxpool.Pool) *PeriodRepository {
	return newPeriodRepository(pool)
}

func newPeriodRepository(db generated.DBTX) *PeriodRepository {
	return &PeriodRepository{queries: generated.New(db)}
}

// Create records a closed month. The unique (account, year, month) constraint
// turns a concurrent duplicate into domain.ErrAlreadyClosed.
func (r *PeriodRepository) Create(ctx context.Context, tx usecase.Transaction, period *domain.ClosedPeriod) error {
	queries, err := txQueries(tx)
	if err != nil {
		return err
	}

	n, err := queries.CreateClosedPeriod(ctx, generated.CreateClosedPeriodParams{
		ID:        period.ID,
		AccountID: period.AccountID,
		Year:      int32(period.Year),
		Month:     int32(period.Month),
		ClosedAt:  timeToPgTimestamptz(period.ClosedAt),
		ClosedBy:  period.ClosedBy,
		Notes:     period.Notes,
	})
	if err != nil {
		return err
	}

	if n == 0 {
		return fmt.Errorf("%w: account %s %s", domain.ErrAlreadyClosed, period.AccountID, period.Period())
	}

	return nil
}

// IsClosed reads the committed state.
func (r *PeriodRepository) IsClosed(ctx context.Context, accountID string, year, month int) (bool, error) {
	return r.isClosed(ctx, r.queries, accountID, year, month)
}

// IsClosedTx reads within tx, after the caller has locked the account row.
func (r *PeriodRepository) IsClosedTx(ctx context.Context, tx usecase.Transaction, accountID string, year, month int) (bool, error) {
	queries, err := txQueries(tx)
	if err != nil {
		return false, err
	}

	return r.isClosed(ctx, queries, accountID, year, month)
}

func (r *PeriodRepository) isClosed(ctx context.Context, queries *generated.Queries, accountID string, year, month int) (bool, error) {
	return queries.IsPeriodClosed(ctx, generated.IsPeriodClosedParams{
		AccountID: accountID,
		Year:      int32(year),
		Month:     int32(month),
	})
}

// ListByAccount lists the account's closed months, most recent first.
func (r *PeriodRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.ClosedPeriod, error) {
	rows, err := r.queries.ListClosedPeriodsByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	periods := make([]*domain.ClosedPeriod, 0, len(rows))
	for _, row := range rows {
		periods = append(periods, &domain.ClosedPeriod{
			ID:        row.ID,
			AccountID: row.AccountID,
			Year:      int(row.Year),
			Month:     int(row.Month),
			ClosedAt:  pgTimestamptzToTime(row.ClosedAt),
			ClosedBy:  row.ClosedBy,
			Notes:     row.Notes,
		})
	}

	return periods, nil
}
