package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

type productStore struct {
	db *sql.DB
}

// NewProductStore создаёт PostgreSQL-реализацию ProductStore.
func NewProductStore(store *Store) domain.ProductStore {
	return &productStore{db: store.DB()}
}

func (s *productStore) Get(ctx context.Context, productID string) (domain.CatalogEntry, error) {
	queryCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var entry domain.CatalogEntry
	err := s.db.QueryRowContext(queryCtx, `
		SELECT id, name, description, price, stock_quantity
		FROM products
		WHERE id = $1
	`, productID).Scan(&entry.ID, &entry.Name, &entry.Description, &entry.Price, &entry.StockQuantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.CatalogEntry{}, fmt.Errorf("%w with ID: %s", domain.ErrProductNotFound, productID)
		}
		return domain.CatalogEntry{}, fmt.Errorf("select product: %w", err)
	}

	return entry, nil
}

// DecrementStock списывает запас одним условным UPDATE: строка меняется
// только если запаса хватает, гонка двух списаний решается на стороне базы.
func (s *productStore) DecrementStock(ctx context.Context, productID string, quantity int32) error {
	queryCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := s.db.ExecContext(queryCtx, `
		UPDATE products
		SET stock_quantity = stock_quantity - $2
		WHERE id = $1
		  AND stock_quantity >= $2
	`, productID, quantity)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	entry, err := s.Get(ctx, productID)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w for product %s. Available: %d, Requested: %d",
		domain.ErrInsufficientStock, productID, entry.StockQuantity, quantity)
}

// Upsert перезаписывает запись каталога (сидинг и тесты).
func (s *productStore) Upsert(ctx context.Context, entry domain.CatalogEntry) error {
	queryCtx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	_, err := s.db.ExecContext(queryCtx, `
		INSERT INTO products (id, name, description, price, stock_quantity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    description = EXCLUDED.description,
		    price = EXCLUDED.price,
		    stock_quantity = EXCLUDED.stock_quantity
	`, entry.ID, entry.Name, entry.Description, entry.Price, entry.StockQuantity)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

var _ domain.ProductStore = (*productStore)(nil)
