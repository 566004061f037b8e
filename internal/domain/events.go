package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Topics событийного канала. Ключ партиционирования — orderId,
// что гарантирует упорядоченную доставку событий одного заказа.
const (
	TopicOrderCreated       = "order-created"
	TopicOrderStatusChanged = "order-status-changed"

	// GroupInventoryReconciler — consumer group реконсилятора запасов.
	GroupInventoryReconciler = "product-service-group"
)

// OrderLineEvent — позиция заказа внутри события.
type OrderLineEvent struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int32           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// OrderCreatedEvent публикуется после успешного сохранения заказа.
// Несёт полный снимок позиций, чтобы потребитель мог действовать
// без дополнительного синхронного запроса.
type OrderCreatedEvent struct {
	OrderID     string           `json:"orderId"`
	BuyerID     string           `json:"buyerId"`
	Items       []OrderLineEvent `json:"items"`
	TotalAmount decimal.Decimal  `json:"totalAmount"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// OrderStatusChangedEvent публикуется после смены статуса заказа.
type OrderStatusChangedEvent struct {
	OrderID        string      `json:"orderId"`
	BuyerID        string      `json:"buyerId"`
	PreviousStatus OrderStatus `json:"previousStatus"`
	NewStatus      OrderStatus `json:"newStatus"`
	ChangedAt      time.Time   `json:"changedAt"`
}

// NewOrderCreatedEvent строит событие из сохранённого заказа.
func NewOrderCreatedEvent(order Order) OrderCreatedEvent {
	items := make([]OrderLineEvent, 0, len(order.Lines))
	for _, line := range order.Lines {
		items = append(items, OrderLineEvent{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			Price:       line.UnitPrice,
		})
	}
	return OrderCreatedEvent{
		OrderID:     order.ID,
		BuyerID:     order.BuyerID,
		Items:       items,
		TotalAmount: order.TotalAmount,
		CreatedAt:   order.CreatedAt,
	}
}

// NewOrderStatusChangedEvent строит событие смены статуса.
func NewOrderStatusChangedEvent(order Order, previous OrderStatus, changedAt time.Time) OrderStatusChangedEvent {
	return OrderStatusChangedEvent{
		OrderID:        order.ID,
		BuyerID:        order.BuyerID,
		PreviousStatus: previous,
		NewStatus:      order.Status,
		ChangedAt:      changedAt,
	}
}
