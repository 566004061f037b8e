package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
	"github.com/vladislavdragonenkov/orderflow/internal/service/orders"
)

// createOrderRequest — тело POST /orders.
type createOrderRequest struct {
	BuyerID string                   `json:"buyerId"`
	Items   []createOrderRequestItem `json:"items"`
}

type createOrderRequestItem struct {
	ProductID string `json:"productId"`
	Quantity  int32  `json:"quantity"`
}

func (r createOrderRequest) toCommand() orders.CreateOrderCommand {
	lines := make([]orders.CreateOrderLine, 0, len(r.Items))
	for _, item := range r.Items {
		lines = append(lines, orders.CreateOrderLine{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return orders.CreateOrderCommand{BuyerID: r.BuyerID, Lines: lines}
}

// orderResponse — представление заказа в ответах API.
type orderResponse struct {
	ID          string              `json:"id"`
	BuyerID     string              `json:"buyerId"`
	Items       []orderItemResponse `json:"items"`
	TotalAmount decimal.Decimal     `json:"totalAmount"`
	Status      string              `json:"status"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

type orderItemResponse struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int32           `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type timelineEventResponse struct {
	Type     string    `json:"type"`
	Status   string    `json:"status"`
	Occurred time.Time `json:"occurredAt"`
}

// errorResponse — тело отказа. Статус дублируется строкой в теле.
type errorResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

func toOrderResponse(order domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(order.Lines))
	for _, line := range order.Lines {
		items = append(items, orderItemResponse{
			ID:          line.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			Price:       line.UnitPrice,
		})
	}
	return orderResponse{
		ID:          order.ID,
		BuyerID:     order.BuyerID,
		Items:       items,
		TotalAmount: order.TotalAmount,
		Status:      string(order.Status),
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
	}
}

func toOrderResponses(orderList []domain.Order) []orderResponse {
	result := make([]orderResponse, 0, len(orderList))
	for _, order := range orderList {
		result = append(result, toOrderResponse(order))
	}
	return result
}

func toTimelineResponses(events []domain.TimelineEvent) []timelineEventResponse {
	result := make([]timelineEventResponse, 0, len(events))
	for _, event := range events {
		result = append(result, timelineEventResponse{
			Type:     event.Type,
			Status:   string(event.Status),
			Occurred: event.Occurred,
		})
	}
	return result
}
