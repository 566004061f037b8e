package republish

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

type stubJournal struct {
	mu        sync.Mutex
	pending   []domain.FailedEvent
	pullErr   error
	sentIDs   []string
	failedIDs []string
}

func (s *stubJournal) Enqueue(ev domain.FailedEvent) (domain.FailedEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, ev)
	return ev, nil
}

func (s *stubJournal) PullPending(limit int) ([]domain.FailedEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pullErr != nil {
		return nil, s.pullErr
	}
	if limit > len(s.pending) {
		limit = len(s.pending)
	}
	return append([]domain.FailedEvent(nil), s.pending[:limit]...), nil
}

func (s *stubJournal) Stats() (domain.FailedEventStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := domain.FailedEventStats{PendingCount: len(s.pending)}
	if len(s.pending) > 0 {
		stats.OldestPendingAt = time.Now().UTC().Add(-time.Minute)
	}
	return stats, nil
}

func (s *stubJournal) MarkSent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sentIDs = append(s.sentIDs, id)
	s.removeLocked(id)
	return nil
}

func (s *stubJournal) MarkFailed(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failedIDs = append(s.failedIDs, id)
	s.removeLocked(id)
	return nil
}

func (s *stubJournal) removeLocked(id string) {
	for i, ev := range s.pending {
		if ev.ID == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
}

type stubPublisher struct {
	mu             sync.Mutex
	err            error
	sequenceErrors []error
	published      []json.RawMessage
	callCount      int
}

func (s *stubPublisher) Publish(topic, key string, event any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := s.callCount
	s.callCount++

	if len(s.sequenceErrors) > 0 {
		if call < len(s.sequenceErrors) && s.sequenceErrors[call] != nil {
			return s.sequenceErrors[call]
		}
	} else if s.err != nil {
		return s.err
	}

	if raw, ok := event.(json.RawMessage); ok {
		s.published = append(s.published, raw)
	}
	return nil
}

func (s *stubPublisher) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callCount
}

func TestWorker_ProcessOnce_MarkSent(t *testing.T) {
	t.Parallel()

	journal := &stubJournal{
		pending: []domain.FailedEvent{
			{
				ID:      "ev-1",
				Topic:   domain.TopicOrderCreated,
				Key:     "order-1",
				Payload: []byte(`{"orderId":"order-1"}`),
			},
		},
	}
	publisher := &stubPublisher{}

	worker := NewWorker(
		journal,
		publisher,
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	)

	worker.ProcessOnce(context.Background())

	if got := len(journal.sentIDs); got != 1 {
		t.Fatalf("expected 1 sent mark, got %d", got)
	}
	if journal.sentIDs[0] != "ev-1" {
		t.Fatalf("expected sent id ev-1, got %s", journal.sentIDs[0])
	}
	if got := len(journal.failedIDs); got != 0 {
		t.Fatalf("expected 0 failed marks, got %d", got)
	}
	if got := publisher.calls(); got != 1 {
		t.Fatalf("expected 1 publish call, got %d", got)
	}
	if string(publisher.published[0]) != `{"orderId":"order-1"}` {
		t.Fatalf("payload must pass through unchanged, got %s", publisher.published[0])
	}
}

func TestWorker_ProcessOnce_MarkFailedAfterRetries(t *testing.T) {
	t.Parallel()

	journal := &stubJournal{
		pending: []domain.FailedEvent{
			{
				ID:      "ev-2",
				Topic:   domain.TopicOrderStatusChanged,
				Key:     "order-2",
				Payload: []byte(`{"orderId":"order-2"}`),
			},
		},
	}
	publisher := &stubPublisher{err: errors.New("publish failed")}

	worker := NewWorker(
		journal,
		publisher,
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	)

	worker.ProcessOnce(context.Background())

	if got := publisher.calls(); got != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", got)
	}
	if got := len(journal.sentIDs); got != 0 {
		t.Fatalf("expected 0 sent marks, got %d", got)
	}
	if got := len(journal.failedIDs); got != 1 {
		t.Fatalf("expected 1 failed mark, got %d", got)
	}
}

func TestWorker_ProcessOnce_SuccessAfterRetry(t *testing.T) {
	t.Parallel()

	journal := &stubJournal{
		pending: []domain.FailedEvent{
			{
				ID:      "ev-3",
				Topic:   domain.TopicOrderCreated,
				Key:     "order-3",
				Payload: []byte(`{"orderId":"order-3"}`),
			},
		},
	}
	publisher := &stubPublisher{
		sequenceErrors: []error{
			errors.New("attempt 1"),
			errors.New("attempt 2"),
			nil,
		},
	}

	worker := NewWorker(
		journal,
		publisher,
		WithRetryBaseDelay(0),
		WithMaxAttempts(3),
	)

	worker.ProcessOnce(context.Background())

	if got := publisher.calls(); got != 3 {
		t.Fatalf("expected 3 publish attempts, got %d", got)
	}
	if got := len(journal.sentIDs); got != 1 {
		t.Fatalf("expected 1 sent mark, got %d", got)
	}
	if got := len(journal.failedIDs); got != 0 {
		t.Fatalf("expected 0 failed marks, got %d", got)
	}
}

func TestWorker_ProcessOnce_PullError(t *testing.T) {
	t.Parallel()

	journal := &stubJournal{pullErr: errors.New("storage down")}
	publisher := &stubPublisher{}

	worker := NewWorker(journal, publisher, WithRetryBaseDelay(0))
	worker.ProcessOnce(context.Background())

	if got := publisher.calls(); got != 0 {
		t.Fatalf("expected no publish calls, got %d", got)
	}
}

func TestWorker_RunStopsOnContextCancel(t *testing.T) {
	t.Parallel()

	journal := &stubJournal{}
	publisher := &stubPublisher{}
	worker := NewWorker(journal, publisher, WithPollInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancel")
	}
}

func TestWorker_RetryBackoffGrowth(t *testing.T) {
	t.Parallel()

	worker := NewWorker(&stubJournal{}, &stubPublisher{}, WithRetryBaseDelay(50*time.Millisecond))

	if got := worker.retryBackoff(1); got != 50*time.Millisecond {
		t.Fatalf("expected 50ms, got %v", got)
	}
	if got := worker.retryBackoff(2); got != 100*time.Millisecond {
		t.Fatalf("expected 100ms, got %v", got)
	}
	if got := worker.retryBackoff(3); got != 200*time.Millisecond {
		t.Fatalf("expected 200ms, got %v", got)
	}
}
