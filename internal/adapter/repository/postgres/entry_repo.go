package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/periodledger/internal/domain"
	"github.com/iho/periodledger/internal/infrastructure/postgres/generated"
	"github.com/iho/periodledger/internal/usecase"
)

// maxListLimit caps listings that arrive without a limit.
const maxListLimit = 10000

// EntryRepository implements usecase.EntryRepository. Each posting is one
// entry_postings row; real postings also carry their balance snapshot.
type EntryRepository struct {
	queries *generated.Queries
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return newEntryRepository(pool)
}

func newEntryRepository(db generated.DBTX) *EntryRepository {
	return &EntryRepository{queries: generated.New(db)}
}

// Create inserts the entry and its postings. lines are matched to the real
// postings in order.
func (r *EntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry, lines []*domain.EntryLine) error {
	queries, err := txQueries(tx)
	if err != nil {
		return err
	}

	var reverses pgtype.Text
	if entry.ReversesEntryID != nil {
		reverses = pgtype.Text{String: *entry.ReversesEntryID, Valid: true}
	}

	err = queries.CreateEntry(ctx, generated.CreateEntryParams{
		ID:              entry.ID,
		RequestID:       entry.RequestID,
		EntryDate:       timeToPgTimestamptz(entry.Date),
		Class:           string(entry.Class),
		Direction:       string(entry.Direction),
		Origin:          string(entry.Origin),
		Category:        entry.Category,
		Description:     entry.Description,
		Reference:       entry.Reference,
		ReversesEntryID: reverses,
		CreatedAt:       timeToPgTimestamptz(entry.CreatedAt),
	})
	if err != nil {
		return err
	}

	next := 0
	for i, p := range entry.Postings {
		params := generated.CreateEntryPostingParams{
			EntryID:        entry.ID,
			Position:       int16(i),
			AccountID:      textOrNull(p.AccountID),
			VirtualAccount: textOrNull(string(p.Virtual)),
			Side:           string(p.Side),
			Amount:         decimalToNumeric(p.Amount),
		}

		if !p.IsVirtual() && next < len(lines) {
			line := lines[next]
			next++

			params.Delta = decimalToNumeric(line.Delta)
			params.AccountPreviousBalance = decimalToNumeric(line.AccountPreviousBalance)
			params.AccountCurrentBalance = decimalToNumeric(line.AccountCurrentBalance)
			params.AccountVersion = pgtype.Int8{Int64: line.AccountVersion, Valid: true}
		}

		if err := queries.CreateEntryPosting(ctx, params); err != nil {
			return err
		}
	}

	return nil
}

// GetByID retrieves an entry with its postings.
func (r *EntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	row, err := r.queries.GetEntryByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}

		return nil, err
	}

	entries, err := r.withPostings(ctx, []generated.Entry{row})
	if err != nil {
		return nil, err
	}

	return entries[0], nil
}

// IsReversed reports whether a reversal of id exists, as seen by tx.
func (r *EntryRepository) IsReversed(ctx context.Context, tx usecase.Transaction, id string) (bool, error) {
	queries, err := txQueries(tx)
	if err != nil {
		return false, err
	}

	return queries.IsEntryReversed(ctx, pgtype.Text{String: id, Valid: true})
}

// ListByAccount lists entries posting to the account, oldest first.
func (r *EntryRepository) ListByAccount(ctx context.Context, filter usecase.EntryFilter) ([]*domain.LedgerEntry, error) {
	limit := filter.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := r.queries.ListEntriesByAccount(ctx, generated.ListEntriesByAccountParams{
		AccountID: pgtype.Text{String: filter.AccountID, Valid: true},
		FromDate:  optionalTimestamptz(filter.From),
		ToDate:    optionalTimestamptz(filter.To),
		RowLimit:  int32(limit),
		RowOffset: int32(filter.Offset),
	})
	if err != nil {
		return nil, err
	}

	return r.withPostings(ctx, rows)
}

// GetLines returns the balance snapshots of the entry's real postings.
func (r *EntryRepository) GetLines(ctx context.Context, entryID string) ([]*domain.EntryLine, error) {
	rows, err := r.queries.GetEntryLines(ctx, entryID)
	if err != nil {
		return nil, err
	}

	lines := make([]*domain.EntryLine, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, &domain.EntryLine{
			EntryID:                row.EntryID,
			AccountID:              row.AccountID.String,
			Side:                   domain.Side(row.Side),
			Amount:                 numericToDecimal(row.Amount),
			Delta:                  numericToDecimal(row.Delta),
			AccountPreviousBalance: numericToDecimal(row.AccountPreviousBalance),
			AccountCurrentBalance:  numericToDecimal(row.AccountCurrentBalance),
			AccountVersion:         row.AccountVersion.Int64,
			EntryDate:              pgTimestamptzToTime(row.EntryDate),
			CreatedAt:              pgTimestamptzToTime(row.CreatedAt),
		})
	}

	return lines, nil
}

func (r *EntryRepository) withPostings(ctx context.Context, rows []generated.Entry) ([]*domain.LedgerEntry, error) {
	if len(rows) == 0 {
		return []*domain.LedgerEntry{}, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	postingRows, err := r.queries.GetPostingsByEntryIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	postings := make(map[string][]domain.Posting, len(rows))
	for _, p := range postingRows {
		postings[p.EntryID] = append(postings[p.EntryID], domain.Posting{
			AccountID: p.AccountID.String,
			Virtual:   domain.VirtualAccount(p.VirtualAccount.String),
			Side:      domain.Side(p.Side),
			Amount:    numericToDecimal(p.Amount),
		})
	}

	entries := make([]*domain.LedgerEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row, postings[row.ID]))
	}

	return entries, nil
}

func rowToEntry(row generated.Entry, postings []domain.Posting) *domain.LedgerEntry {
	entry := &domain.LedgerEntry{
		ID:          row.ID,
		RequestID:   row.RequestID,
		Date:        pgTimestamptzToTime(row.EntryDate),
		Class:       domain.TransactionClass(row.Class),
		Direction:   domain.Direction(row.Direction),
		Origin:      domain.Origin(row.Origin),
		Category:    row.Category,
		Description: row.Description,
		Reference:   row.Reference,
		Postings:    postings,
		CreatedAt:   pgTimestamptzToTime(row.CreatedAt),
	}

	if row.ReversesEntryID.Valid {
		id := row.ReversesEntryID.String
		entry.ReversesEntryID = &id
	}

	return entry
}
