package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const checkLedgerConsistency = `-- name: CheckLedgerConsistency :one
SELECT
    (SELECT COALESCE(SUM(balance - initial_balance), 0) FROM accounts)::NUMERIC AS total_balance_drift,
    (SELECT COALESCE(SUM(delta), 0) FROM entry_postings)::NUMERIC AS total_posted_delta,
    (SELECT COUNT(*) FROM (
        SELECT entry_id FROM entry_postings
        GROUP BY entry_id
        HAVING ABS(SUM(CASE WHEN side = 'debit' THEN amount ELSE -amount END)) >= 0.01
    ) unbalanced) AS unbalanced_entries
`

type CheckLedgerConsistencyRow struct {
	TotalBalanceDrift pgtype.Numeric `json:"total_balance_drift"`
	TotalPostedDelta  pgtype.Numeric `json:"total_posted_delta"`
	UnbalancedEntries int64          `json:"unbalanced_entries"`
}

func (q *Queries) CheckLedgerConsistency(ctx context.Context) (CheckLedgerConsistencyRow, error) {
	row := q.db.QueryRow(ctx, checkLedgerConsistency)
	var i CheckLedgerConsistencyRow
	err := row.Scan(&i.TotalBalanceDrift, &i.TotalPostedDelta, &i.UnbalancedEntries)
	return i, err
}

const sumAccountDeltas = `-- name: SumAccountDeltas :one
SELECT COALESCE(SUM(delta), 0)::NUMERIC AS total FROM entry_postings WHERE account_id = $1
`

func (q *Queries) SumAccountDeltas(ctx context.Context, accountID pgtype.Text) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, sumAccountDeltas, accountID)
	var total pgtype.Numeric
	err := row.Scan(&total)
	return total, err
}

const sumAccountDeltasBefore = `-- name: SumAccountDeltasBefore :one
SELECT COALESCE(SUM(p.delta), 0)::NUMERIC AS total
FROM entry_postings p
JOIN entries e ON e.id = p.entry_id
WHERE p.account_id = $1 AND e.entry_date < $2
`

type SumAccountDeltasBeforeParams struct {
	AccountID pgtype.Text        `json:"account_id"`
	Before    pgtype.Timestamptz `json:"before"`
}

func (q *Queries) SumAccountDeltasBefore(ctx context.Context, arg SumAccountDeltasBeforeParams) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, sumAccountDeltasBefore, arg.AccountID, arg.Before)
	var total pgtype.Numeric
	err := row.Scan(&total)
	return total, err
}
