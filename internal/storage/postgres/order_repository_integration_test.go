package postgres

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

func newIntegrationOrder(buyerID string) domain.Order {
	order := domain.Order{
		ID:      uuid.NewString(),
		BuyerID: buyerID,
		Status:  domain.OrderStatusPending,
		Lines: []domain.OrderLine{
			{
				ID:          uuid.NewString(),
				ProductID:   "p1",
				ProductName: "Laptop",
				Quantity:    2,
				UnitPrice:   decimal.RequireFromString("999.99"),
			},
			{
				ID:          uuid.NewString(),
				ProductID:   "p2",
				ProductName: "Mouse",
				Quantity:    1,
				UnitPrice:   decimal.RequireFromString("30.30"),
			},
		},
	}
	order.ComputeTotal()
	return order
}

func TestOrderRepository_PostgresCreateGet(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	order := newIntegrationOrder("42")
	saved, err := repo.Create(order)
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if saved.CreatedAt.IsZero() || saved.UpdatedAt.IsZero() {
		t.Fatal("expected database-assigned timestamps")
	}

	got, err := repo.Get(order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.BuyerID != "42" || got.Status != domain.OrderStatusPending {
		t.Fatalf("unexpected order: %+v", got)
	}
	if len(got.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(got.Lines))
	}
	if got.Lines[0].ProductID != "p1" || got.Lines[1].ProductID != "p2" {
		t.Fatalf("line order not preserved: %+v", got.Lines)
	}
	if !got.TotalAmount.Equal(decimal.RequireFromString("2030.28")) {
		t.Fatalf("unexpected total: %s", got.TotalAmount)
	}

	if _, err := repo.Create(order); !errors.Is(err, domain.ErrOrderExists) {
		t.Fatalf("expected ErrOrderExists, got %v", err)
	}
	if _, err := repo.Get(uuid.NewString()); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrderRepository_PostgresListByBuyer(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	for _, buyerID := range []string{"42", "42", "7"} {
		if _, err := repo.Create(newIntegrationOrder(buyerID)); err != nil {
			t.Fatalf("create order: %v", err)
		}
	}

	all, err := repo.List()
	if err != nil {
		t.Fatalf("list orders: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(all))
	}

	byBuyer, err := repo.ListByBuyer("42")
	if err != nil {
		t.Fatalf("list by buyer: %v", err)
	}
	if len(byBuyer) != 2 {
		t.Fatalf("expected 2 orders for buyer 42, got %d", len(byBuyer))
	}
}

func TestOrderRepository_PostgresUpdate(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repo := NewOrderRepository(store)

	order := newIntegrationOrder("42")
	if _, err := repo.Create(order); err != nil {
		t.Fatalf("create order: %v", err)
	}

	updated, err := repo.Update(order.ID, func(o *domain.Order) error {
		o.Status = domain.OrderStatusConfirmed
		return nil
	})
	if err != nil {
		t.Fatalf("update order: %v", err)
	}
	if updated.Status != domain.OrderStatusConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", updated.Status)
	}

	boom := errors.New("apply failed")
	if _, err := repo.Update(order.ID, func(o *domain.Order) error {
		o.Status = domain.OrderStatusCancelled
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected apply error, got %v", err)
	}

	got, err := repo.Get(order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if got.Status != domain.OrderStatusConfirmed {
		t.Fatalf("failed apply must not change the order, got %s", got.Status)
	}

	if _, err := repo.Update(uuid.NewString(), func(*domain.Order) error { return nil }); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
