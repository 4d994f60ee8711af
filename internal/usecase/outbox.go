package usecase

import (
	"context"
	"time"

	"github.com/iho/periodledger/internal/domain"
)

// eventRecorder appends outbox events inside the caller's transaction.
// A nil repository disables recording.
type eventRecorder struct {
	repo  OutboxRepository
	idGen IDGenerator
}

func (r eventRecorder) record(
	ctx context.Context,
	tx Transaction,
	aggregateType, aggregateID, eventType string,
	payload map[string]any,
	now time.Time,
) error {
	if r.repo == nil {
		return nil
	}

	return r.repo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            r.idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     now,
	})
}

func utcNow() time.Time {
	return time.Now().UTC()
}
