// Package orders реализует синхронную часть жизненного цикла заказа:
// валидацию покупателя и товаров, сохранение заказа и публикацию событий.
package orders

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
	"github.com/vladislavdragonenkov/orderflow/internal/metrics"
)

// CreateOrderLine — позиция входящего запроса на создание заказа.
type CreateOrderLine struct {
	ProductID string
	Quantity  int32
}

// CreateOrderCommand — входной запрос на создание заказа.
type CreateOrderCommand struct {
	BuyerID string
	Lines   []CreateOrderLine
}

// Service — сервис заказов. Создание и смена статуса проходят синхронно,
// публикация событий выполняется fire-and-forget: ошибка публикации не
// откатывает уже сохранённый заказ, событие попадает в журнал повторов.
type Service struct {
	orders    domain.OrderRepository
	validator domain.ValidationClient
	publisher domain.EventPublisher
	journal   domain.FailedEventRepository
	timeline  domain.TimelineRepository
	logger    *log.Entry
	metrics   *metrics.OrderMetrics
	now       func() time.Time
}

// Option настраивает сервис заказов.
type Option func(*Service)

// WithJournal включает журнал неопубликованных событий.
func WithJournal(journal domain.FailedEventRepository) Option {
	return func(s *Service) { s.journal = journal }
}

// WithTimeline включает запись истории статусов.
func WithTimeline(timeline domain.TimelineRepository) Option {
	return func(s *Service) { s.timeline = timeline }
}

// WithMetrics включает метрики сервиса.
func WithMetrics(m *metrics.OrderMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService создаёт сервис заказов.
func NewService(
	orders domain.OrderRepository,
	validator domain.ValidationClient,
	publisher domain.EventPublisher,
	logger *log.Entry,
	opts ...Option,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "orders")
	}
	s := &Service{
		orders:    orders,
		validator: validator,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder проверяет покупателя и товары, сохраняет заказ со статусом
// PENDING и публикует событие order-created. Любой отказ валидации
// останавливает запрос до записи: заказ либо сохранён целиком, либо не
// сохранён вовсе.
func (s *Service) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (domain.Order, error) {
	start := s.now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordCreateDuration(time.Since(start))
		}
	}()

	if err := validateCommand(cmd); err != nil {
		s.reject("validation")
		return domain.Order{}, err
	}

	if _, err := s.validator.GetBuyer(ctx, cmd.BuyerID); err != nil {
		s.reject("buyer_not_found")
		return domain.Order{}, err
	}

	lines := make([]domain.OrderLine, 0, len(cmd.Lines))
	for _, in := range cmd.Lines {
		entry, err := s.validator.GetProduct(ctx, in.ProductID)
		if err != nil {
			s.reject("product_not_found")
			return domain.Order{}, err
		}
		if entry.StockQuantity < in.Quantity {
			s.reject("insufficient_stock")
			return domain.Order{}, fmt.Errorf("%w for product %s. Available: %d, Requested: %d",
				domain.ErrInsufficientStock, in.ProductID, entry.StockQuantity, in.Quantity)
		}

		// Снимок каталога на момент создания: имя и цена фиксируются в заказе.
		lines = append(lines, domain.OrderLine{
			ID:          uuid.NewString(),
			ProductID:   entry.ID,
			ProductName: entry.Name,
			Quantity:    in.Quantity,
			UnitPrice:   entry.Price,
		})
	}

	order := domain.Order{
		ID:      uuid.NewString(),
		BuyerID: cmd.BuyerID,
		Status:  domain.OrderStatusPending,
		Lines:   lines,
	}
	order.ComputeTotal()

	saved, err := s.orders.Create(order)
	if err != nil {
		return domain.Order{}, fmt.Errorf("persist order: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCreated()
	}
	s.logger.WithFields(log.Fields{
		"order_id": saved.ID,
		"buyer_id": saved.BuyerID,
		"total":    saved.TotalAmount.String(),
	}).Info("order created")

	s.publish(domain.TopicOrderCreated, saved.ID, domain.NewOrderCreatedEvent(saved))
	s.recordTimeline(domain.TimelineEvent{
		OrderID:  saved.ID,
		Type:     "created",
		Status:   saved.Status,
		Occurred: saved.CreatedAt,
	})

	return saved, nil
}

// UpdateStatus переводит заказ в новый статус, если переход допустим.
// Проверка перехода выполняется внутри атомарного read-modify-write.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, next domain.OrderStatus) (domain.Order, error) {
	var previous domain.OrderStatus

	updated, err := s.orders.Update(orderID, func(order *domain.Order) error {
		previous = order.Status
		if err := domain.ValidateTransition(order.Status, next); err != nil {
			return err
		}
		order.Status = next
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordStatusChange()
	}
	s.logger.WithFields(log.Fields{
		"order_id": updated.ID,
		"from":     previous,
		"to":       updated.Status,
	}).Info("order status changed")

	s.publish(domain.TopicOrderStatusChanged, updated.ID,
		domain.NewOrderStatusChangedEvent(updated, previous, updated.UpdatedAt))
	s.recordTimeline(domain.TimelineEvent{
		OrderID:  updated.ID,
		Type:     "status_changed",
		Status:   updated.Status,
		Occurred: updated.UpdatedAt,
	})

	return updated, nil
}

// GetOrder возвращает заказ по идентификатору.
func (s *Service) GetOrder(ctx context.Context, orderID string) (domain.Order, error) {
	return s.orders.Get(orderID)
}

// ListOrders возвращает все заказы.
func (s *Service) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.orders.List()
}

// ListOrdersByBuyer возвращает заказы одного покупателя.
func (s *Service) ListOrdersByBuyer(ctx context.Context, buyerID string) ([]domain.Order, error) {
	return s.orders.ListByBuyer(buyerID)
}

// OrderHistory возвращает историю статусов заказа.
func (s *Service) OrderHistory(ctx context.Context, orderID string) ([]domain.TimelineEvent, error) {
	if s.timeline == nil {
		return nil, nil
	}
	if _, err := s.orders.Get(orderID); err != nil {
		return nil, err
	}
	return s.timeline.List(orderID)
}

// publish отправляет событие fire-and-forget. Неудача логируется, считается
// в метриках и попадает в журнал для внеполосного повтора.
func (s *Service) publish(topic, key string, event any) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(topic, key, event)
	if err == nil {
		return
	}

	s.logger.WithFields(log.Fields{
		"topic": topic,
		"key":   key,
	}).WithError(err).Error("event publish failed")
	if s.metrics != nil {
		s.metrics.RecordPublishFailure(topic)
	}

	if s.journal == nil {
		return
	}
	payload, marshalErr := marshalEvent(event)
	if marshalErr != nil {
		s.logger.WithError(marshalErr).Error("cannot journal unmarshalable event")
		return
	}
	if _, journalErr := s.journal.Enqueue(domain.FailedEvent{
		Topic:   topic,
		Key:     key,
		Payload: payload,
	}); journalErr != nil {
		s.logger.WithError(journalErr).Error("failed event journal write failed")
	}
}

func (s *Service) recordTimeline(event domain.TimelineEvent) {
	if s.timeline == nil {
		return
	}
	if err := s.timeline.Append(event); err != nil {
		s.logger.WithError(err).WithField("order_id", event.OrderID).Error("timeline append failed")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordTimelineEvent()
	}
}

func (s *Service) reject(reason string) {
	if s.metrics != nil {
		s.metrics.RecordOrderRejected(reason)
	}
}

func marshalEvent(event any) ([]byte, error) {
	return json.Marshal(event)
}

func validateCommand(cmd CreateOrderCommand) error {
	if cmd.BuyerID == "" {
		return domain.ErrBuyerRequired
	}
	if len(cmd.Lines) == 0 {
		return domain.ErrLinesRequired
	}
	for _, line := range cmd.Lines {
		if line.ProductID == "" {
			return fmt.Errorf("%w: product id is empty", domain.ErrValidation)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: product %s", domain.ErrLineQuantityInvalid, line.ProductID)
		}
	}
	return nil
}
