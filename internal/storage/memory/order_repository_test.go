package memory

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

func sampleOrder(id, buyerID string) domain.Order {
	order := domain.Order{
		ID:      id,
		BuyerID: buyerID,
		Status:  domain.OrderStatusPending,
		Lines: []domain.OrderLine{
			{
				ID:          id + "-line-1",
				ProductID:   "p1",
				ProductName: "Laptop",
				Quantity:    2,
				UnitPrice:   decimal.RequireFromString("999.99"),
			},
		},
	}
	order.ComputeTotal()
	return order
}

func TestOrderRepository_CreateAssignsTimestamps(t *testing.T) {
	repo := NewOrderRepository()

	saved, err := repo.Create(sampleOrder("o1", "42"))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if saved.CreatedAt.IsZero() || saved.UpdatedAt.IsZero() {
		t.Fatal("expected repository to assign timestamps")
	}
	if !saved.CreatedAt.Equal(saved.UpdatedAt) {
		t.Fatal("expected created_at to equal updated_at on insert")
	}

	if _, err := repo.Create(sampleOrder("o1", "42")); !errors.Is(err, domain.ErrOrderExists) {
		t.Fatalf("expected ErrOrderExists, got %v", err)
	}
}

func TestOrderRepository_GetReturnsCopy(t *testing.T) {
	repo := NewOrderRepository()
	if _, err := repo.Create(sampleOrder("o1", "42")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	first, err := repo.Get("o1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	first.Lines[0].Quantity = 99

	second, err := repo.Get("o1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if second.Lines[0].Quantity != 2 {
		t.Fatal("mutation of returned order leaked into the repository")
	}

	if _, err := repo.Get("missing"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	} else if !strings.Contains(err.Error(), "with ID: missing") {
		t.Fatalf("error must name the order ID, got %q", err)
	}
}

func TestOrderRepository_ListByBuyer(t *testing.T) {
	repo := NewOrderRepository()
	for _, id := range []string{"o1", "o2"} {
		if _, err := repo.Create(sampleOrder(id, "42")); err != nil {
			t.Fatalf("create %s failed: %v", id, err)
		}
	}
	if _, err := repo.Create(sampleOrder("o3", "7")); err != nil {
		t.Fatalf("create o3 failed: %v", err)
	}

	all, err := repo.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(all))
	}

	byBuyer, err := repo.ListByBuyer("42")
	if err != nil {
		t.Fatalf("list by buyer failed: %v", err)
	}
	if len(byBuyer) != 2 {
		t.Fatalf("expected 2 orders for buyer 42, got %d", len(byBuyer))
	}
	for _, order := range byBuyer {
		if order.BuyerID != "42" {
			t.Fatalf("unexpected buyer %s in selection", order.BuyerID)
		}
	}

	empty, err := repo.ListByBuyer("nobody")
	if err != nil {
		t.Fatalf("list by unknown buyer failed: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty selection, got %d orders", len(empty))
	}
}

func TestOrderRepository_UpdateAppliesAtomically(t *testing.T) {
	repo := NewOrderRepository().(*orderRepositoryInMemory)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	current := base
	repo.now = func() time.Time {
		current = current.Add(time.Second)
		return current
	}

	if _, err := repo.Create(sampleOrder("o1", "42")); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := repo.Update("o1", func(order *domain.Order) error {
		order.Status = domain.OrderStatusConfirmed
		return nil
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Status != domain.OrderStatusConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", updated.Status)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Fatal("expected updated_at to advance")
	}

	boom := errors.New("apply failed")
	if _, err := repo.Update("o1", func(order *domain.Order) error {
		order.Status = domain.OrderStatusCancelled
		return boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected apply error, got %v", err)
	}

	stored, err := repo.Get("o1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Status != domain.OrderStatusConfirmed {
		t.Fatalf("failed apply must not change stored order, got %s", stored.Status)
	}

	if _, err := repo.Update("missing", func(*domain.Order) error { return nil }); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}
