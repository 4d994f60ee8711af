package redis

import (
	"context"
	"testing"
	"time"

	"github.com/iho/periodledger/internal/domain"
)

func TestStreamPublisherAppendsEvent(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	pub := NewStreamPublisher(client, "", 0)
	ctx := context.Background()

	err := pub.Publish(ctx, &domain.OutboxEvent{
		ID:            "ev-1",
		AggregateID:   "entry-1",
		AggregateType: domain.AggregateTypeEntry,
		EventType:     domain.EventTypeEntryApplied,
		Payload:       map[string]any{"amount": "150"},
		CreatedAt:     time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	msgs, err := client.XRange(ctx, DefaultEventStream, "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange failed: %v", err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}

	values := msgs[0].Values
	if values["event_type"] != domain.EventTypeEntryApplied || values["aggregate_id"] != "entry-1" {
		t.Fatalf("unexpected message values: %#v", values)
	}
	if values["payload"] != `{"amount":"150"}` {
		t.Fatalf("unexpected payload: %v", values["payload"])
	}
}
