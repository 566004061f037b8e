package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/orderflow/internal/health"
	"github.com/vladislavdragonenkov/orderflow/internal/metrics"
	"github.com/vladislavdragonenkov/orderflow/internal/service/idempotency"
	"github.com/vladislavdragonenkov/orderflow/internal/service/inventory"
	"github.com/vladislavdragonenkov/orderflow/internal/service/orders"
	"github.com/vladislavdragonenkov/orderflow/internal/service/republish"
	httpapi "github.com/vladislavdragonenkov/orderflow/internal/transport/http"
	"github.com/vladislavdragonenkov/orderflow/internal/version"
)

// Run собирает зависимости и запускает сервис заказов: HTTP API, фоновые
// воркеры и, при настроенных брокерах, Kafka-консьюмер реконсилятора.
// Блокируется до отмены контекста или фатальной ошибки сервера.
func Run(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.WithField("component", "app")

	deps, err := NewDependencies(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := deps.Close(); closeErr != nil {
			logger.WithError(closeErr).Warn("failed to close storage")
		}
	}()

	msg, err := initMessaging(cfg, logger)
	if err != nil {
		return err
	}
	defer msg.close(logger)

	orderMetrics := metrics.NewOrderMetrics()
	service := orders.NewService(
		deps.Orders,
		deps.Validator,
		msg.publisher,
		logger.WithField("layer", "orders"),
		orders.WithJournal(deps.Journal),
		orders.WithTimeline(deps.Timeline),
		orders.WithMetrics(orderMetrics),
	)

	if cfg.ReconcilerEnabled {
		if err := subscribeReconciler(cfg, deps, msg, logger); err != nil {
			return err
		}
	}

	republisher := republish.NewWorker(
		deps.Journal,
		msg.publisher,
		republish.WithLogger(logger.WithField("layer", "republish")),
		republish.WithPollInterval(cfg.RepublishPollInterval),
		republish.WithBatchSize(cfg.RepublishBatchSize),
		republish.WithMaxAttempts(cfg.RepublishMaxAttempts),
	)
	go republisher.Run(ctx)

	if cfg.DuplicateGuard {
		cleanup := idempotency.NewCleanupWorker(
			deps.Processed,
			idempotency.WithLogger(logger.WithField("layer", "cleanup")),
			idempotency.WithInterval(cfg.CleanupInterval),
			idempotency.WithRetention(cfg.CleanupRetention),
		)
		go cleanup.Run(ctx)
	}

	errCh := make(chan error, 2)

	if msg.start != nil {
		go func() {
			if startErr := msg.start(ctx); startErr != nil && !errors.Is(startErr, context.Canceled) {
				errCh <- fmt.Errorf("kafka consumer: %w", startErr)
			}
		}()
	}

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, newHealthHandler(ctx, deps))

	router := httpapi.NewRouter(
		httpapi.NewHandlers(service, logger.WithField("layer", "http")),
		logger.WithField("layer", "http"),
	)
	apiSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		logger.Infof("HTTP API слушает %s", cfg.HTTPAddr)
		if serveErr := apiSrv.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("получен сигнал остановки, останавливаем HTTP сервер")
		shutdownHTTP(apiSrv, cfg.ShutdownTimeout, logger)
		shutdownHTTP(metricsSrv, cfg.ShutdownTimeout, logger)
		return ctx.Err()
	case err := <-errCh:
		shutdownHTTP(apiSrv, cfg.ShutdownTimeout, logger)
		shutdownHTTP(metricsSrv, cfg.ShutdownTimeout, logger)
		return err
	}
}

// subscribeReconciler подключает реконсилятор запасов к топику order-created.
func subscribeReconciler(cfg Config, deps *Dependencies, msg *messaging, logger *log.Entry) error {
	opts := []inventory.Option{
		inventory.WithMetrics(metrics.NewReconcilerMetrics()),
	}
	if cfg.DuplicateGuard {
		opts = append(opts, inventory.WithDuplicateGuard(deps.Processed))
		logger.Info("duplicate guard enabled for inventory reconciler")
	}

	reconciler := inventory.NewReconciler(
		deps.Products,
		logger.WithField("layer", "inventory"),
		opts...,
	)
	return msg.subscriber.Subscribe(
		domain.TopicOrderCreated,
		domain.GroupInventoryReconciler,
		reconciler.HandleOrderCreated,
	)
}

// newHealthHandler собирает health-эндпоинт с проверками компонентов.
func newHealthHandler(ctx context.Context, deps *Dependencies) *healthcheck.Handler {
	v, _, _ := version.Info()
	handler := healthcheck.NewHandler(v)

	if deps.Store != nil {
		handler.RegisterChecker("storage", healthcheck.NewSimpleChecker("storage", func() error {
			return deps.Store.Ping(ctx)
		}))
	}

	handler.RegisterChecker("event-journal", journalChecker{journal: deps.Journal})

	return handler
}

// journalChecker сообщает о backlog журнала неопубликованных событий.
// Backlog не делает сервис неработоспособным: воркер переиздаёт события
// сам, поэтому статус понижается только до degraded.
type journalChecker struct {
	journal domain.FailedEventRepository
}

func (c journalChecker) Check() healthcheck.Check {
	start := time.Now()
	stats, err := c.journal.Stats()
	duration := time.Since(start)

	if err != nil {
		return healthcheck.Check{
			Name:       "event-journal",
			Status:     healthcheck.StatusUnhealthy,
			Message:    err.Error(),
			DurationMs: duration.Milliseconds(),
		}
	}
	if stats.PendingCount > 0 {
		return healthcheck.Check{
			Name:       "event-journal",
			Status:     healthcheck.StatusDegraded,
			Message:    fmt.Sprintf("%d events pending republish", stats.PendingCount),
			DurationMs: duration.Milliseconds(),
		}
	}
	return healthcheck.Check{
		Name:       "event-journal",
		Status:     healthcheck.StatusHealthy,
		DurationMs: duration.Milliseconds(),
	}
}

// startMetricsServer запускает HTTP-обработчики /metrics и health-проб.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler *healthcheck.Handler) *http.Server {
	srv := &http.Server{Addr: addr, Handler: newOpsMux(healthHandler)}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez, %s/readyz", addr, addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, 5*time.Second, logger)
	}()

	return srv
}

// newOpsMux собирает operational-эндпоинты: метрики и health-пробы.
func newOpsMux(healthHandler *healthcheck.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)
	mux.HandleFunc("/readyz", healthHandler.ReadinessHandler)
	return mux
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, timeout time.Duration, logger *log.Entry) {
	if srv == nil {
		return
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("http shutdown with error")
	}
}
