package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createClosedPeriod = `-- name: CreateClosedPeriod :execrows
INSERT INTO closed_periods (id, account_id, year, month, closed_at, closed_by, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (account_id, year, month) DO NOTHING
`

type CreateClosedPeriodParams struct {
	ID        string             `json:"id"`
	AccountID string             `json:"account_id"`
	Year      int32              `json:"year"`
	Month     int32              `json:"month"`
	ClosedAt  pgtype.Timestamptz `json:"closed_at"`
	ClosedBy  string             `json:"closed_by"`
	Notes     string             `json:"notes"`
}

func (q *Queries) CreateClosedPeriod(ctx context.Context, arg CreateClosedPeriodParams) (int64, error) {
	result, err := q.db.Exec(ctx, createClosedPeriod,
		arg.ID,
		arg.AccountID,
		arg.Year,
		arg.Month,
		arg.ClosedAt,
		arg.ClosedBy,
		arg.Notes,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const isPeriodClosed = `-- name: IsPeriodClosed :one
SELECT EXISTS (
    SELECT 1 FROM closed_periods WHERE account_id = $1 AND year = $2 AND month = $3
) AS closed
`

type IsPeriodClosedParams struct {
	AccountID string `json:"account_id"`
	Year      int32  `json:"year"`
	Month     int32  `json:"month"`
}

func (q *Queries) IsPeriodClosed(ctx context.Context, arg IsPeriodClosedParams) (bool, error) {
	row := q.db.QueryRow(ctx, isPeriodClosed, arg.AccountID, arg.Year, arg.Month)
	var closed bool
	err := row.Scan(&closed)
	return closed, err
}

const listClosedPeriodsByAccount = `-- name: ListClosedPeriodsByAccount :many
SELECT id, account_id, year, month, closed_at, closed_by, notes FROM closed_periods WHERE account_id = $1 ORDER BY year DESC, month DESC
`

func (q *Queries) ListClosedPeriodsByAccount(ctx context.Context, accountID string) ([]ClosedPeriod, error) {
	rows, err := q.db.Query(ctx, listClosedPeriodsByAccount, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ClosedPeriod{}
	for rows.Next() {
		var i ClosedPeriod
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.Year,
			&i.Month,
			&i.ClosedAt,
			&i.ClosedBy,
			&i.Notes,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
