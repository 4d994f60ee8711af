package domain

import "time"

// Event types
const (
	EventTypeAccountCreated     = "account.created"
	EventTypeAccountDeactivated = "account.deactivated"
	EventTypeEntryApplied       = "entry.applied"
	EventTypeEntryReversed      = "entry.reversed"
	EventTypePeriodClosed       = "period.closed"
)

// Aggregate types
const (
	AggregateTypeAccount = "account"
	AggregateTypeEntry   = "entry"
	AggregateTypePeriod  = "period"
)

// OutboxEvent is written in the same transaction as the change it describes
// and published afterwards.
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// EntryAppliedPayload builds the payload for an entry.applied or entry.reversed event.
func EntryAppliedPayload(e *LedgerEntry) map[string]any {
	postings := make([]map[string]any, 0, len(e.Postings))
	for _, p := range e.Postings {
		postings = append(postings, map[string]any{
			"target":  p.Target(),
			"virtual": p.IsVirtual(),
			"side":    string(p.Side),
			"amount":  p.Amount.String(),
		})
	}

	payload := map[string]any{
		"entry_id":  e.ID,
		"date":      e.Date.Format(time.DateOnly),
		"class":     string(e.Class),
		"direction": string(e.Direction),
		"origin":    string(e.Origin),
		"amount":    e.Amount().String(),
		"postings":  postings,
	}
	if e.ReversesEntryID != nil {
		payload["reverses_entry_id"] = *e.ReversesEntryID
	}
	return payload
}

// PeriodClosedPayload builds the payload for a period.closed event.
func PeriodClosedPayload(p *ClosedPeriod) map[string]any {
	return map[string]any{
		"account_id": p.AccountID,
		"period":     p.Period().String(),
		"closed_by":  p.ClosedBy,
	}
}

// AccountPayload builds the payload for account lifecycle events.
func AccountPayload(a *Account) map[string]any {
	return map[string]any{
		"account_id": a.ID,
		"name":       a.Name,
		"kind":       string(a.Kind),
		"currency":   a.Currency,
		"active":     a.IsActive,
	}
}
