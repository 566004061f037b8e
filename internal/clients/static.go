package clients

import (
	"context"
	"fmt"
	"sync"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

// StaticValidationClient отвечает из заранее заданных справочников.
// Используется в demo-режиме и в тестах, когда внешние сервисы
// пользователей и каталога не настроены.
type StaticValidationClient struct {
	mu       sync.RWMutex
	buyers   map[string]domain.BuyerIdentity
	products map[string]domain.CatalogEntry
}

var _ domain.ValidationClient = (*StaticValidationClient)(nil)

// NewStaticValidationClient создаёт пустой статический клиент.
func NewStaticValidationClient() *StaticValidationClient {
	return &StaticValidationClient{
		buyers:   make(map[string]domain.BuyerIdentity),
		products: make(map[string]domain.CatalogEntry),
	}
}

// AddBuyer регистрирует покупателя в статическом справочнике.
func (c *StaticValidationClient) AddBuyer(buyer domain.BuyerIdentity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buyers[buyer.ID] = buyer
}

// AddProduct регистрирует товар в статическом каталоге.
func (c *StaticValidationClient) AddProduct(entry domain.CatalogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[entry.ID] = entry
}

// GetBuyer возвращает покупателя или ErrBuyerNotFound.
func (c *StaticValidationClient) GetBuyer(_ context.Context, buyerID string) (domain.BuyerIdentity, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	buyer, ok := c.buyers[buyerID]
	if !ok {
		return domain.BuyerIdentity{}, fmt.Errorf("%w with ID: %s", domain.ErrBuyerNotFound, buyerID)
	}
	return buyer, nil
}

// GetProduct возвращает снимок каталога или ErrProductNotFound.
func (c *StaticValidationClient) GetProduct(_ context.Context, productID string) (domain.CatalogEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.products[productID]
	if !ok {
		return domain.CatalogEntry{}, fmt.Errorf("%w with ID: %s", domain.ErrProductNotFound, productID)
	}
	return entry, nil
}
