// Package memory реализует внутрипроцессную шину событий для локального
// запуска и тестов. Семантика повторяет Kafka-канал: доставка at-least-once,
// порядок сохраняется только для сообщений с одним ключом.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

const defaultPartitions = 4

type envelope struct {
	topic   string
	key     string
	payload []byte
}

type subscription struct {
	groupID string
	handler domain.EventHandler
}

// Bus доставляет события подписчикам внутри процесса. Сообщения с одним
// ключом попадают в одну партицию, поэтому обрабатываются последовательно.
type Bus struct {
	mu         sync.RWMutex
	subs       map[string][]subscription
	partitions []chan envelope
	wg         sync.WaitGroup
	closed     bool
	logger     *log.Entry
}

// NewBus создает шину с фиксированным числом партиций.
func NewBus(logger *log.Entry) *Bus {
	bus := &Bus{
		subs:       make(map[string][]subscription),
		partitions: make([]chan envelope, defaultPartitions),
		logger:     logger,
	}

	for i := range bus.partitions {
		bus.partitions[i] = make(chan envelope, 64)
		bus.wg.Add(1)
		go bus.run(bus.partitions[i])
	}

	return bus
}

// Publish сериализует событие и кладет его в партицию, выбранную по ключу.
func (b *Bus) Publish(topic, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event for topic %s: %w", topic, err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return fmt.Errorf("bus is closed")
	}

	b.partitions[b.partitionFor(key)] <- envelope{topic: topic, key: key, payload: payload}
	return nil
}

// Subscribe регистрирует обработчик темы. Несколько групп на одну тему
// получают каждая свою копию сообщения, как независимые consumer group.
func (b *Bus) Subscribe(topic, groupID string, handler domain.EventHandler) error {
	if handler == nil {
		return fmt.Errorf("handler is nil for topic %s", topic)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("bus is closed")
	}

	for _, sub := range b.subs[topic] {
		if sub.groupID == groupID {
			return fmt.Errorf("group %s is already subscribed to topic %s", groupID, topic)
		}
	}

	b.subs[topic] = append(b.subs[topic], subscription{groupID: groupID, handler: handler})
	return nil
}

// Close останавливает доставку и дожидается обработки уже принятых сообщений.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, partition := range b.partitions {
		close(partition)
	}
	b.mu.Unlock()

	b.wg.Wait()
}

func (b *Bus) run(partition <-chan envelope) {
	defer b.wg.Done()

	for msg := range partition {
		b.mu.RLock()
		subs := make([]subscription, len(b.subs[msg.topic]))
		copy(subs, b.subs[msg.topic])
		b.mu.RUnlock()

		for _, sub := range subs {
			if err := sub.handler(context.Background(), msg.key, msg.payload); err != nil {
				b.logger.WithFields(log.Fields{
					"topic": msg.topic,
					"group": sub.groupID,
					"key":   msg.key,
				}).WithError(err).Error("event handler failed")
			}
		}
	}
}

func (b *Bus) partitionFor(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32()) % len(b.partitions)
}

var (
	_ domain.EventPublisher  = (*Bus)(nil)
	_ domain.EventSubscriber = (*Bus)(nil)
)
