package app

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/clients"
	"github.com/vladislavdragonenkov/orderflow/internal/domain"
	storagemem "github.com/vladislavdragonenkov/orderflow/internal/storage/memory"
	"github.com/vladislavdragonenkov/orderflow/internal/storage/postgres"
)

// Dependencies содержит хранилища и клиентов приложения.
type Dependencies struct {
	Orders    domain.OrderRepository
	Products  domain.ProductStore
	Timeline  domain.TimelineRepository
	Journal   domain.FailedEventRepository
	Processed domain.ProcessedEventRepository
	Validator domain.ValidationClient

	// Store не nil только для драйвера postgres.
	Store  *postgres.Store
	Logger *log.Entry
}

// NewDependencies создаёт зависимости согласно драйверу хранилища.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{Logger: logger}

	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("init postgres storage: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("apply migrations: %w", err)
			}
		}
		deps.Store = store
		deps.Orders = postgres.NewOrderRepository(store)
		deps.Products = postgres.NewProductStore(store)
		deps.Timeline = postgres.NewTimelineRepository(store)
		deps.Journal = postgres.NewFailedEventRepository(store)
		deps.Processed = postgres.NewProcessedEventRepository(store)
		logger.Info("postgres storage initialized")

	case StorageDriverMemory:
		deps.Orders = storagemem.NewOrderRepository()
		deps.Products = storagemem.NewProductStore(demoCatalog()...)
		deps.Timeline = storagemem.NewTimelineRepository()
		deps.Journal = storagemem.NewFailedEventRepository()
		deps.Processed = storagemem.NewProcessedEventRepository()
		logger.Info("in-memory storage initialized")

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	deps.Validator = newValidator(cfg, logger)
	return deps, nil
}

// Close освобождает ресурсы хранилища.
func (d *Dependencies) Close() error {
	if d == nil || d.Store == nil {
		return nil
	}
	return d.Store.Close()
}

// newValidator выбирает HTTP-клиент внешних сервисов либо статический
// справочник, когда адреса сервисов не настроены.
func newValidator(cfg Config, logger *log.Entry) domain.ValidationClient {
	if cfg.UserServiceURL != "" && cfg.ProductServiceURL != "" {
		return clients.NewHTTPValidationClient(
			cfg.UserServiceURL,
			cfg.ProductServiceURL,
			cfg.ValidationTimeout,
			logger.WithField("component", "validation-client"),
		)
	}

	logger.Warn("user/product service URLs are not configured, using static demo catalog")
	static := clients.NewStaticValidationClient()
	static.AddBuyer(domain.BuyerIdentity{ID: "1", Name: "Demo Buyer", Email: "demo@example.com"})
	for _, entry := range demoCatalog() {
		static.AddProduct(entry)
	}
	return static
}

// demoCatalog — стартовый каталог demo-режима. Тот же набор попадает и в
// статический справочник, и в хранилище запасов, чтобы реконсиляция
// списывала те товары, которые прошли валидацию.
func demoCatalog() []domain.CatalogEntry {
	return []domain.CatalogEntry{
		{ID: "1", Name: "Laptop", Price: decimal.RequireFromString("999.99"), StockQuantity: 100},
		{ID: "2", Name: "Mouse", Price: decimal.RequireFromString("30.30"), StockQuantity: 500},
		{ID: "3", Name: "Keyboard", Price: decimal.RequireFromString("75.00"), StockQuantity: 250},
	}
}
