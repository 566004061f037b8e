// Package inventory реализует асинхронную реконсиляцию запасов:
// обработку событий order-created и списание запаса в каталоге.
package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
	"github.com/vladislavdragonenkov/orderflow/internal/metrics"
)

// Reconciler списывает запас по позициям полученного заказа.
// Обработка best-effort: отказ одной позиции не останавливает остальные,
// событие считается потреблённым при любом исходе.
type Reconciler struct {
	products  domain.ProductStore
	processed domain.ProcessedEventRepository
	logger    *log.Entry
	metrics   *metrics.ReconcilerMetrics
}

// Option настраивает реконсилятор.
type Option func(*Reconciler)

// WithDuplicateGuard включает подавление повторной доставки по ключу заказа.
// Без него повторная доставка события списывает запас ещё раз.
func WithDuplicateGuard(processed domain.ProcessedEventRepository) Option {
	return func(r *Reconciler) { r.processed = processed }
}

// WithMetrics включает метрики реконсилятора.
func WithMetrics(m *metrics.ReconcilerMetrics) Option {
	return func(r *Reconciler) { r.metrics = m }
}

// NewReconciler создаёт реконсилятор запасов.
func NewReconciler(products domain.ProductStore, logger *log.Entry, opts ...Option) *Reconciler {
	if logger == nil {
		logger = log.New().WithField("component", "inventory")
	}
	r := &Reconciler{
		products: products,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleOrderCreated обрабатывает одно событие order-created.
// Возвращает ошибку только при нечитаемом payload; отказ списания отдельной
// позиции логируется и не прерывает обработку.
func (r *Reconciler) HandleOrderCreated(ctx context.Context, key string, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		r.logger.WithField("key", key).WithError(err).Error("cannot decode order-created event")
		return fmt.Errorf("decode order-created event: %w", err)
	}

	if r.metrics != nil {
		r.metrics.RecordEventConsumed()
	}

	if r.processed != nil {
		firstSeen, err := r.processed.MarkProcessed(event.OrderID, time.Now().UTC())
		if err != nil {
			r.logger.WithField("order_id", event.OrderID).WithError(err).Error("duplicate guard failed, processing anyway")
		} else if !firstSeen {
			r.logger.WithField("order_id", event.OrderID).Info("duplicate delivery suppressed")
			r.recordLine(metrics.ReconcileResultDuplicateSuppressed)
			return nil
		}
	}

	for _, item := range event.Items {
		r.reconcileLine(ctx, event.OrderID, item)
	}

	return nil
}

func (r *Reconciler) reconcileLine(ctx context.Context, orderID string, item domain.OrderLineEvent) {
	logger := r.logger.WithFields(log.Fields{
		"order_id":   orderID,
		"product_id": item.ProductID,
		"quantity":   item.Quantity,
	})

	if _, err := r.products.Get(ctx, item.ProductID); err != nil {
		// Товар исчез между валидацией и реконсиляцией.
		logger.WithError(err).Warn("product vanished, line skipped")
		r.recordLine(metrics.ReconcileResultProductMissing)
		return
	}

	err := r.products.DecrementStock(ctx, item.ProductID, item.Quantity)
	switch {
	case err == nil:
		logger.Debug("stock decremented")
		r.recordLine(metrics.ReconcileResultApplied)
	case errors.Is(err, domain.ErrInsufficientStock):
		logger.WithError(err).Warn("insufficient stock, line skipped")
		r.recordLine(metrics.ReconcileResultInsufficientStock)
	case errors.Is(err, domain.ErrProductNotFound):
		logger.WithError(err).Warn("product vanished at decrement, line skipped")
		r.recordLine(metrics.ReconcileResultProductMissing)
	default:
		logger.WithError(err).Error("stock decrement failed")
		r.recordLine(metrics.ReconcileResultStoreError)
	}
}

func (r *Reconciler) recordLine(result string) {
	if r.metrics != nil {
		r.metrics.RecordLineResult(result)
	}
}

var _ domain.EventHandler = (*Reconciler)(nil).HandleOrderCreated
