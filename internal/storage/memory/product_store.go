package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

// productStoreInMemory — in-memory витрина каталога, из которой реконсилятор
// списывает запас. Seed задаёт начальное состояние.
type productStoreInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.CatalogEntry
}

// NewProductStore создаёт хранилище каталога с начальным набором товаров.
func NewProductStore(seed ...domain.CatalogEntry) domain.ProductStore {
	store := &productStoreInMemory{items: make(map[string]domain.CatalogEntry, len(seed))}
	for _, entry := range seed {
		store.items[entry.ID] = entry
	}
	return store
}

// Get возвращает запись каталога или ErrProductNotFound.
func (s *productStoreInMemory) Get(_ context.Context, productID string) (domain.CatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.items[productID]
	if !ok {
		return domain.CatalogEntry{}, fmt.Errorf("%w with ID: %s", domain.ErrProductNotFound, productID)
	}
	return entry, nil
}

// DecrementStock атомарно списывает quantity, не опускаясь ниже нуля.
func (s *productStoreInMemory) DecrementStock(_ context.Context, productID string, quantity int32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.items[productID]
	if !ok {
		return fmt.Errorf("%w with ID: %s", domain.ErrProductNotFound, productID)
	}
	if entry.StockQuantity < quantity {
		return fmt.Errorf("%w for product %s. Available: %d, Requested: %d",
			domain.ErrInsufficientStock, productID, entry.StockQuantity, quantity)
	}

	entry.StockQuantity -= quantity
	s.items[productID] = entry
	return nil
}

var _ domain.ProductStore = (*productStoreInMemory)(nil)
