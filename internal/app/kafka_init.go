package app

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
	"github.com/vladislavdragonenkov/orderflow/internal/messaging/kafka"
	messagingmem "github.com/vladislavdragonenkov/orderflow/internal/messaging/memory"
)

// messaging объединяет publisher и subscriber одного канала событий.
// start не nil только для Kafka: консьюмер требует отдельного цикла.
type messaging struct {
	publisher  domain.EventPublisher
	subscriber domain.EventSubscriber
	start      func(ctx context.Context) error
	close      func(logger *log.Entry)
}

// initMessaging выбирает канал событий: Kafka при настроенных брокерах,
// иначе внутрипроцессная шина с теми же гарантиями порядка по ключу.
func initMessaging(cfg Config, logger *log.Entry) (*messaging, error) {
	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		bus := messagingmem.NewBus(logger.WithField("component", "memory-bus"))
		logger.Info("kafka brokers are not configured, using in-process event bus")
		return &messaging{
			publisher:  bus,
			subscriber: bus,
			close: func(*log.Entry) {
				bus.Close()
			},
		}, nil
	}

	producer, err := kafka.NewProducer(brokers)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	consumer, err := kafka.NewConsumer(brokers, domain.GroupInventoryReconciler)
	if err != nil {
		_ = producer.Close()
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}

	logger.WithField("brokers", brokers).Info("kafka producer and consumer initialized")
	return &messaging{
		publisher:  producer,
		subscriber: consumer,
		start:      consumer.Start,
		close: func(closeLogger *log.Entry) {
			if err := consumer.Stop(); err != nil {
				closeLogger.WithError(err).Warn("failed to stop kafka consumer")
			}
			if err := producer.Close(); err != nil {
				closeLogger.WithError(err).Warn("failed to close kafka producer")
			} else {
				closeLogger.Info("kafka producer closed")
			}
		},
	}, nil
}
