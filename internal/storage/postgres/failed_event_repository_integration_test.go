package postgres

import (
	"testing"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

func TestFailedEventRepository_PostgresFlow(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewFailedEventRepository(store)

	ev, err := repo.Enqueue(domain.FailedEvent{
		Topic:   domain.TopicOrderCreated,
		Key:     "order-1",
		Payload: []byte(`{"orderId":"order-1"}`),
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if ev.ID == "" {
		t.Fatal("expected generated ID")
	}

	pending, err := repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending, got %d", len(pending))
	}
	if pending[0].Key != "order-1" || string(pending[0].Payload) != `{"orderId":"order-1"}` {
		t.Fatalf("unexpected event: %+v", pending[0])
	}

	stats, err := repo.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.PendingCount != 1 || stats.OldestPendingAt.IsZero() {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if err := repo.MarkSent(ev.ID); err != nil {
		t.Fatalf("mark sent: %v", err)
	}
	pending, err = repo.PullPending(10)
	if err != nil {
		t.Fatalf("pull pending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected empty backlog, got %d", len(pending))
	}

	if err := repo.MarkFailed("missing"); err == nil {
		t.Fatal("expected error for unknown ID")
	}
}
