package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestOrder() Order {
	now := time.Now().UTC()
	order := Order{
		ID:      "order-1",
		BuyerID: "buyer-1",
		Status:  OrderStatusPending,
		Lines: []OrderLine{
			{ID: "line-1", ProductID: "product-1", ProductName: "Laptop", Quantity: 2, UnitPrice: decimal.RequireFromString("999.99")},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	order.ComputeTotal()
	return order
}

func TestOrder_ComputeTotal(t *testing.T) {
	order := newTestOrder()

	want := decimal.RequireFromString("1999.98")
	if !order.TotalAmount.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, order.TotalAmount)
	}
}

func TestOrder_ComputeTotal_MultiLine(t *testing.T) {
	order := newTestOrder()
	order.Lines = append(order.Lines, OrderLine{
		ID:          "line-2",
		ProductID:   "product-2",
		ProductName: "Mouse",
		Quantity:    3,
		UnitPrice:   decimal.RequireFromString("10.10"),
	})
	order.ComputeTotal()

	want := decimal.RequireFromString("2030.28")
	if !order.TotalAmount.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, order.TotalAmount)
	}
}

func TestOrder_ComputeTotal_NoFloatDrift(t *testing.T) {
	// 0.1 * 3 в float64 дал бы 0.30000000000000004.
	order := Order{
		BuyerID: "buyer-1",
		Lines: []OrderLine{
			{ID: "line-1", ProductID: "product-1", Quantity: 3, UnitPrice: decimal.RequireFromString("0.10")},
		},
	}
	order.ComputeTotal()

	if got := order.TotalAmount.String(); got != "0.30" && got != "0.3" {
		t.Fatalf("expected exact total 0.30, got %s", got)
	}
}

func TestOrder_ValidateInvariants_Valid(t *testing.T) {
	order := newTestOrder()
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("expected no invariant violations, got %v", errs)
	}
}

func TestOrder_ValidateInvariants_Violations(t *testing.T) {
	order := Order{
		Lines: []OrderLine{
			{ID: "line-1", ProductID: "product-1", Quantity: 0, UnitPrice: decimal.RequireFromString("-1")},
		},
		TotalAmount: decimal.RequireFromString("100"),
	}

	errs := order.ValidateInvariants()
	if len(errs) != 4 {
		t.Fatalf("expected 4 violations (buyer, qty, price, total), got %d: %v", len(errs), errs)
	}
}

func TestParseOrderStatus(t *testing.T) {
	for _, raw := range []string{"PENDING", "CONFIRMED", "SHIPPED", "DELIVERED", "CANCELLED"} {
		status, err := ParseOrderStatus(raw)
		if err != nil {
			t.Fatalf("parse %s: %v", raw, err)
		}
		if string(status) != raw {
			t.Fatalf("expected %s, got %s", raw, status)
		}
	}

	if _, err := ParseOrderStatus("pending"); err == nil {
		t.Fatal("expected error for lowercase status")
	}
	if _, err := ParseOrderStatus("REFUNDED"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}
