package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты обработки одной позиции реконсилятором.
const (
	ReconcileResultApplied             = "applied"
	ReconcileResultProductMissing      = "product_missing"
	ReconcileResultInsufficientStock   = "insufficient_stock"
	ReconcileResultStoreError          = "store_error"
	ReconcileResultDuplicateSuppressed = "duplicate_suppressed"
)

// OrderMetrics содержит метрики оркестратора заказов.
// Отдельный счётчик publish failures — операторский сигнал о том, что
// накапливается разрыв между заказами и списаниями запаса.
type OrderMetrics struct {
	ordersCreated  prometheus.Counter
	ordersRejected *prometheus.CounterVec
	statusChanges  prometheus.Counter
	createDuration prometheus.Histogram

	publishFailures *prometheus.CounterVec
	timelineEvents  prometheus.Counter
}

// NewOrderMetrics создаёт новый экземпляр метрик оркестратора.
func NewOrderMetrics() *OrderMetrics {
	return newOrderMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newOrderMetricsWithRegisterer(registerer prometheus.Registerer) *OrderMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &OrderMetrics{
		ordersCreated: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderflow_orders_created_total",
			Help: "Total number of orders successfully created",
		}),
		ordersRejected: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orderflow_orders_rejected_total",
			Help: "Total number of rejected order operations grouped by reason",
		}, []string{"reason"}),
		statusChanges: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderflow_status_changes_total",
			Help: "Total number of committed order status transitions",
		}),
		createDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "orderflow_order_create_duration_seconds",
			Help:    "Duration of createOrder calls including validation round-trips",
			Buckets: prometheus.DefBuckets,
		}),
		publishFailures: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orderflow_event_publish_failures_total",
			Help: "Total number of swallowed event publish failures grouped by topic",
		}, []string{"topic"}),
		timelineEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderflow_timeline_events_total",
			Help: "Total number of timeline events recorded",
		}),
	}
}

// RecordOrderCreated увеличивает счётчик созданных заказов.
func (m *OrderMetrics) RecordOrderCreated() {
	m.ordersCreated.Inc()
}

// RecordOrderRejected увеличивает счётчик отклонённых операций.
func (m *OrderMetrics) RecordOrderRejected(reason string) {
	m.ordersRejected.WithLabelValues(reason).Inc()
}

// RecordStatusChange увеличивает счётчик применённых переходов статуса.
func (m *OrderMetrics) RecordStatusChange() {
	m.statusChanges.Inc()
}

// RecordCreateDuration записывает длительность createOrder.
func (m *OrderMetrics) RecordCreateDuration(duration time.Duration) {
	m.createDuration.Observe(duration.Seconds())
}

// RecordPublishFailure фиксирует проглоченную ошибку публикации события.
func (m *OrderMetrics) RecordPublishFailure(topic string) {
	m.publishFailures.WithLabelValues(topic).Inc()
}

// RecordTimelineEvent увеличивает счётчик событий timeline.
func (m *OrderMetrics) RecordTimelineEvent() {
	m.timelineEvents.Inc()
}

// ReconcilerMetrics содержит метрики реконсилятора запасов.
type ReconcilerMetrics struct {
	eventsConsumed prometheus.Counter
	lineResults    *prometheus.CounterVec
}

// NewReconcilerMetrics создаёт новый экземпляр метрик реконсилятора.
func NewReconcilerMetrics() *ReconcilerMetrics {
	return newReconcilerMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func newReconcilerMetricsWithRegisterer(registerer prometheus.Registerer) *ReconcilerMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &ReconcilerMetrics{
		eventsConsumed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orderflow_reconcile_events_total",
			Help: "Total number of order-created events consumed by the inventory reconciler",
		}),
		lineResults: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orderflow_reconcile_lines_total",
			Help: "Per-line reconciliation outcomes grouped by result",
		}, []string{"result"}),
	}
}

// RecordEventConsumed увеличивает счётчик обработанных событий.
func (m *ReconcilerMetrics) RecordEventConsumed() {
	m.eventsConsumed.Inc()
}

// RecordLineResult фиксирует исход обработки одной позиции.
func (m *ReconcilerMetrics) RecordLineResult(result string) {
	m.lineResults.WithLabelValues(result).Inc()
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}
