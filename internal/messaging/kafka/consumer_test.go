package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

type mockConsumerGroup struct {
	consumeFn func(context.Context, []string, sarama.ConsumerGroupHandler) error
	errorsCh  chan error
	closeFn   func() error
}

func (m *mockConsumerGroup) Consume(ctx context.Context, topics []string, handler sarama.ConsumerGroupHandler) error {
	if m.consumeFn != nil {
		return m.consumeFn(ctx, topics, handler)
	}
	return nil
}

func (m *mockConsumerGroup) Errors() <-chan error {
	return m.errorsCh
}

func (m *mockConsumerGroup) Close() error {
	if m.closeFn != nil {
		return m.closeFn()
	}
	if m.errorsCh != nil {
		close(m.errorsCh)
	}
	return nil
}

func (m *mockConsumerGroup) Pause(map[string][]int32)  {}
func (m *mockConsumerGroup) Resume(map[string][]int32) {}
func (m *mockConsumerGroup) PauseAll()                 {}
func (m *mockConsumerGroup) ResumeAll()                {}

type mockSession struct {
	ctx    context.Context
	marked []*sarama.ConsumerMessage
}

func (m *mockSession) Claims() map[string][]int32               { return nil }
func (m *mockSession) MemberID() string                         { return "member" }
func (m *mockSession) GenerationID() int32                      { return 1 }
func (m *mockSession) MarkOffset(string, int32, int64, string)  {}
func (m *mockSession) Commit()                                  {}
func (m *mockSession) ResetOffset(string, int32, int64, string) {}
func (m *mockSession) Context() context.Context                 { return m.ctx }
func (m *mockSession) MarkMessage(msg *sarama.ConsumerMessage, _ string) {
	m.marked = append(m.marked, msg)
}

type mockClaim struct {
	topic     string
	partition int32
	messages  chan *sarama.ConsumerMessage
}

func (m *mockClaim) Topic() string                            { return m.topic }
func (m *mockClaim) Partition() int32                         { return m.partition }
func (m *mockClaim) InitialOffset() int64                     { return 0 }
func (m *mockClaim) HighWaterMarkOffset() int64               { return 0 }
func (m *mockClaim) Messages() <-chan *sarama.ConsumerMessage { return m.messages }

func newTestConsumer(group sarama.ConsumerGroup) *Consumer {
	return &Consumer{
		consumer: group,
		groupID:  domain.GroupInventoryReconciler,
		handlers: make(map[string]domain.EventHandler),
		logger:   log.WithField("test", "consumer"),
	}
}

func TestNewConsumer_InvalidBroker(t *testing.T) {
	if _, err := NewConsumer([]string{"invalid-broker:9092"}, "group"); err == nil {
		t.Fatal("expected new consumer error")
	}
}

func TestConsumer_Subscribe(t *testing.T) {
	consumer := newTestConsumer(&mockConsumerGroup{})

	handler := func(context.Context, string, []byte) error { return nil }
	if err := consumer.Subscribe(domain.TopicOrderCreated, domain.GroupInventoryReconciler, handler); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}
	if err := consumer.Subscribe(domain.TopicOrderCreated, domain.GroupInventoryReconciler, handler); err == nil {
		t.Fatal("expected duplicate subscription error")
	}
	if err := consumer.Subscribe(domain.TopicOrderStatusChanged, "other-group", handler); err == nil {
		t.Fatal("expected group mismatch error")
	}
}

func TestConsumer_StartWithoutSubscriptions(t *testing.T) {
	consumer := newTestConsumer(&mockConsumerGroup{errorsCh: make(chan error)})
	if err := consumer.Start(context.Background()); err == nil {
		t.Fatal("expected error when no topics are subscribed")
	}
}

func TestConsumer_StartStop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	consumeCalls := 0
	errorsCh := make(chan error, 1)
	group := &mockConsumerGroup{
		errorsCh: errorsCh,
		consumeFn: func(_ context.Context, _ []string, _ sarama.ConsumerGroupHandler) error {
			consumeCalls++
			cancel()
			return nil
		},
		closeFn: func() error {
			close(errorsCh)
			return nil
		},
	}

	consumer := newTestConsumer(group)
	if err := consumer.Subscribe(domain.TopicOrderCreated, domain.GroupInventoryReconciler, func(context.Context, string, []byte) error { return nil }); err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	errorsCh <- errors.New("background error")
	if err := consumer.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := consumer.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if consumeCalls == 0 {
		t.Fatal("expected consume call")
	}
}

func TestConsumer_ConsumeClaim_MarksMessageEvenOnHandlerError(t *testing.T) {
	consumer := newTestConsumer(&mockConsumerGroup{})
	handlerCalls := 0
	err := consumer.Subscribe(domain.TopicOrderCreated, domain.GroupInventoryReconciler, func(_ context.Context, key string, _ []byte) error {
		handlerCalls++
		return errors.New("handler blew up")
	})
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	session := &mockSession{ctx: context.Background()}
	claim := &mockClaim{
		topic:    domain.TopicOrderCreated,
		messages: make(chan *sarama.ConsumerMessage, 1),
	}
	claim.messages <- &sarama.ConsumerMessage{
		Topic: domain.TopicOrderCreated,
		Key:   []byte("order-1"),
		Value: []byte(`{"orderId":"order-1"}`),
	}
	close(claim.messages)

	if err := consumer.ConsumeClaim(session, claim); err != nil {
		t.Fatalf("consume claim: %v", err)
	}

	if handlerCalls != 1 {
		t.Fatalf("expected 1 handler call, got %d", handlerCalls)
	}
	if len(session.marked) != 1 {
		t.Fatalf("expected message to be marked despite handler error, got %d marks", len(session.marked))
	}
}
