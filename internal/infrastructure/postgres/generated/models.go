package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Account struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Kind           string             `json:"kind"`
	Currency       string             `json:"currency"`
	InitialBalance pgtype.Numeric     `json:"initial_balance"`
	Balance        pgtype.Numeric     `json:"balance"`
	Version        int64              `json:"version"`
	IsActive       bool               `json:"is_active"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

type ClosedPeriod struct {
	ID        string             `json:"id"`
	AccountID string             `json:"account_id"`
	Year      int32              `json:"year"`
	Month     int32              `json:"month"`
	ClosedAt  pgtype.Timestamptz `json:"closed_at"`
	ClosedBy  string             `json:"closed_by"`
	Notes     string             `json:"notes"`
}

type Entry struct {
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

type EntryPosting struct {
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

type OutboxEvent struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
	Published     bool               `json:"published"`
}
