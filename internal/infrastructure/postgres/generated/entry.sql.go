package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createEntry = `-- name: CreateEntry :exec
INSERT INTO entries (id, request_id, entry_date, class, direction, origin, category, description, reference, reverses_entry_id, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

type CreateEntryParams struct {
	ID              string             `json:"id"`
	RequestID       string             `json:"request_id"`
	EntryDate       pgtype.Timestamptz `json:"entry_date"`
	Class           string             `json:"class"`
	Direction       string             `json:"direction"`
	Origin          string             `json:"origin"`
	Category        string             `json:"category"`
	Description     string             `json:"description"`
	Reference       string             `json:"reference"`
	ReversesEntryID pgtype.Text        `json:"reverses_entry_id"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateEntry(ctx context.Context, arg CreateEntryParams) error {
	_, err := q.db.Exec(ctx, createEntry,
		arg.ID,
		arg.RequestID,
		arg.EntryDate,
		arg.Class,
		arg.Direction,
		arg.Origin,
		arg.Category,
		arg.Description,
		arg.Reference,
		arg.ReversesEntryID,
		arg.CreatedAt,
	)
	return err
}

const createEntryPosting = `-- name: CreateEntryPosting :exec
INSERT INTO entry_postings (entry_id, position, account_id, virtual_account, side, amount, delta, account_previous_balance, account_current_balance, account_version)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`

type CreateEntryPostingParams struct {
	EntryID                string         `json:"entry_id"`
	Position               int16          `json:"position"`
	AccountID              pgtype.Text    `json:"account_id"`
	VirtualAccount         pgtype.Text    `json:"virtual_account"`
	Side                   string         `json:"side"`
	Amount                 pgtype.Numeric `json:"amount"`
	Delta                  pgtype.Numeric `json:"delta"`
	AccountPreviousBalance pgtype.Numeric `json:"account_previous_balance"`
	AccountCurrentBalance  pgtype.Numeric `json:"account_current_balance"`
	AccountVersion         pgtype.Int8    `json:"account_version"`
}

func (q *Queries) CreateEntryPosting(ctx context.Context, arg CreateEntryPostingParams) error {
	_, err := q.db.Exec(ctx, createEntryPosting,
		arg.EntryID,
		arg.Position,
		arg.AccountID,
		arg.VirtualAccount,
		arg.Side,
		arg.Amount,
		arg.Delta,
		arg.AccountPreviousBalance,
		arg.AccountCurrentBalance,
		arg.AccountVersion,
	)
	return err
}

const getEntryByID = `-- name: GetEntryByID :one
SELECT id, request_id, entry_date, class, direction, origin, category, description, reference, reverses_entry_id, created_at FROM entries WHERE id = $1
`

func (q *Queries) GetEntryByID(ctx context.Context, id string) (Entry, error) {
	row := q.db.QueryRow(ctx, getEntryByID, id)
	var i Entry
	err := row.Scan(
		&i.ID,
		&i.RequestID,
		&i.EntryDate,
		&i.Class,
		&i.Direction,
		&i.Origin,
		&i.Category,
		&i.Description,
		&i.Reference,
		&i.ReversesEntryID,
		&i.CreatedAt,
	)
	return i, err
}

const getEntryLines = `-- name: GetEntryLines :many
SELECT p.entry_id, p.account_id, p.side, p.amount, p.delta, p.account_previous_balance, p.account_current_balance, p.account_version, e.entry_date, e.created_at
FROM entry_postings p
JOIN entries e ON e.id = p.entry_id
WHERE p.entry_id = $1 AND p.account_id IS NOT NULL
ORDER BY p.position
`

type GetEntryLinesRow struct {
	EntryID                string             `json:"entry_id"`
	AccountID              pgtype.Text        `json:"account_id"`
	Side                   string             `json:"side"`
	Amount                 pgtype.Numeric     `json:"amount"`
	Delta                  pgtype.Numeric     `json:"delta"`
	AccountPreviousBalance pgtype.Numeric     `json:"account_previous_balance"`
	AccountCurrentBalance  pgtype.Numeric     `json:"account_current_balance"`
	AccountVersion         pgtype.Int8        `json:"account_version"`
	EntryDate              pgtype.Timestamptz `json:"entry_date"`
	CreatedAt              pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) GetEntryLines(ctx context.Context, entryID string) ([]GetEntryLinesRow, error) {
	rows, err := q.db.Query(ctx, getEntryLines, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []GetEntryLinesRow{}
	for rows.Next() {
		var i GetEntryLinesRow
		if err := rows.Scan(
			&i.EntryID,
			&i.AccountID,
			&i.Side,
			&i.Amount,
			&i.Delta,
			&i.AccountPreviousBalance,
			&i.AccountCurrentBalance,
			&i.AccountVersion,
			&i.EntryDate,
			&i.CreatedAt,
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

const getPostingsByEntryIDs = `-- name: GetPostingsByEntryIDs :many
SELECT entry_id, position, account_id, virtual_account, side, amount, delta, account_previous_balance, account_current_balance, account_version FROM entry_postings WHERE entry_id = ANY($1::text[]) ORDER BY entry_id, position
`

func (q *Queries) GetPostingsByEntryIDs(ctx context.Context, dollar_1 []string) ([]EntryPosting, error) {
	rows, err := q.db.Query(ctx, getPostingsByEntryIDs, dollar_1)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []EntryPosting{}
	for rows.Next() {
		var i EntryPosting
		if err := rows.Scan(
			&i.EntryID,
			&i.Position,
			&i.AccountID,
			&i.VirtualAccount,
			&i.Side,
			&i.Amount,
			&i.Delta,
			&i.AccountPreviousBalance,
			&i.AccountCurrentBalance,
			&i.AccountVersion,
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

const isEntryReversed = `-- name: IsEntryReversed :one
SELECT EXISTS (SELECT 1 FROM entries WHERE reverses_entry_id = $1) AS reversed
`

func (q *Queries) IsEntryReversed(ctx context.Context, reversesEntryID pgtype.Text) (bool, error) {
	row := q.db.QueryRow(ctx, isEntryReversed, reversesEntryID)
	var reversed bool
	err := row.Scan(&reversed)
	return reversed, err
}

const listEntriesByAccount = `-- name: ListEntriesByAccount :many
SELECT e.id, e.request_id, e.entry_date, e.class, e.direction, e.origin, e.category, e.description, e.reference, e.reverses_entry_id, e.created_at FROM entries e
WHERE EXISTS (SELECT 1 FROM entry_postings p WHERE p.entry_id = e.id AND p.account_id = $1)
  AND ($2::timestamptz IS NULL OR e.entry_date >= $2)
  AND ($3::timestamptz IS NULL OR e.entry_date < $3)
ORDER BY e.entry_date, e.created_at, e.id
LIMIT $4 OFFSET $5
`

type ListEntriesByAccountParams struct {
	AccountID pgtype.Text        `json:"account_id"`
	FromDate  pgtype.Timestamptz `json:"from_date"`
	ToDate    pgtype.Timestamptz `json:"to_date"`
	RowLimit  int32              `json:"row_limit"`
	RowOffset int32              `json:"row_offset"`
}

func (q *Queries) ListEntriesByAccount(ctx context.Context, arg ListEntriesByAccountParams) ([]Entry, error) {
	rows, err := q.db.Query(ctx, listEntriesByAccount,
		arg.AccountID,
		arg.FromDate,
		arg.ToDate,
		arg.RowLimit,
		arg.RowOffset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Entry{}
	for rows.Next() {
		var i Entry
		if err := rows.Scan(
			&i.ID,
			&i.RequestID,
			&i.EntryDate,
			&i.Class,
			&i.Direction,
			&i.Origin,
			&i.Category,
			&i.Description,
			&i.Reference,
			&i.ReversesEntryID,
			&i.CreatedAt,
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
