package kafka

import (
	"context"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

// Consumer представляет Kafka consumer group с at-least-once доставкой.
// Политика потребления best-effort: ошибка обработчика логируется, но
// сообщение помечается обработанным — канал не знает о внутренних сбоях
// подписчика. Повторная доставка возможна после rebalance или падения
// до коммита offset, поэтому обработчики обязаны переносить дубликаты.
type Consumer struct {
	consumer sarama.ConsumerGroup
	groupID  string
	topics   []string
	handlers map[string]domain.EventHandler
	logger   *log.Entry
	wg       sync.WaitGroup
}

// NewConsumer создает новый Kafka consumer для заданной consumer group.
func NewConsumer(brokers []string, groupID string) (*Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Group.Rebalance.Strategy = sarama.NewBalanceStrategyRoundRobin()
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Return.Errors = true

	consumer, err := sarama.NewConsumerGroup(brokers, groupID, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	return &Consumer{
		consumer: consumer,
		groupID:  groupID,
		handlers: make(map[string]domain.EventHandler),
		logger:   log.WithField("component", "kafka-consumer"),
	}, nil
}

// Subscribe регистрирует обработчик топика. Вызывается до Start.
func (c *Consumer) Subscribe(topic, groupID string, handler domain.EventHandler) error {
	if groupID != c.groupID {
		return fmt.Errorf("consumer belongs to group %q, cannot subscribe as %q", c.groupID, groupID)
	}
	if _, exists := c.handlers[topic]; exists {
		return fmt.Errorf("handler already registered for topic %q", topic)
	}
	c.handlers[topic] = handler
	c.topics = append(c.topics, topic)
	return nil
}

// Start запускает consumer в отдельных горутинах.
func (c *Consumer) Start(ctx context.Context) error {
	if len(c.topics) == 0 {
		return fmt.Errorf("no topics subscribed")
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			// Consume должен вызываться в цикле, так как при rebalance он завершается
			if err := c.consumer.Consume(ctx, c.topics, c); err != nil {
				c.logger.WithError(err).Error("error from consumer")
			}

			if ctx.Err() != nil {
				return
			}
		}
	}()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for err := range c.consumer.Errors() {
			c.logger.WithError(err).Error("consumer error")
		}
	}()

	c.logger.WithFields(log.Fields{
		"group":  c.groupID,
		"topics": c.topics,
	}).Info("kafka consumer started")
	return nil
}

// Stop останавливает consumer.
func (c *Consumer) Stop() error {
	if err := c.consumer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka consumer: %w", err)
	}
	c.wg.Wait()
	c.logger.Info("kafka consumer stopped")
	return nil
}

// Setup вызывается при старте consumer session.
func (c *Consumer) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup вызывается при завершении consumer session.
func (c *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim обрабатывает сообщения из partition.
func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}

			c.logger.WithFields(log.Fields{
				"topic":     message.Topic,
				"partition": message.Partition,
				"offset":    message.Offset,
			}).Debug("received message")

			c.dispatch(session.Context(), message)

			// Best-effort: сообщение помечается независимо от исхода обработки.
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, message *sarama.ConsumerMessage) {
	handler, ok := c.handlers[message.Topic]
	if !ok {
		c.logger.WithField("topic", message.Topic).Warn("no handler registered for topic")
		return
	}

	if err := handler(ctx, string(message.Key), message.Value); err != nil {
		c.logger.WithError(err).WithFields(log.Fields{
			"topic":     message.Topic,
			"partition": message.Partition,
			"offset":    message.Offset,
		}).Error("event handler failed, message is still considered consumed")
	}
}

var _ domain.EventSubscriber = (*Consumer)(nil)
