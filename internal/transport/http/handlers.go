// Package http реализует REST-интерфейс сервиса заказов.
package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
	"github.com/vladislavdragonenkov/orderflow/internal/service/orders"
)

// Handlers содержит HTTP-обработчики сервиса заказов.
type Handlers struct {
	service *orders.Service
	logger  *log.Entry
}

// NewHandlers создаёт обработчики.
func NewHandlers(service *orders.Service, logger *log.Entry) *Handlers {
	if logger == nil {
		logger = log.New().WithField("component", "http")
	}
	return &Handlers{service: service, logger: logger}
}

// RegisterRoutes регистрирует маршруты сервиса заказов.
func RegisterRoutes(router *gin.Engine, handlers *Handlers) {
	ordersAPI := router.Group("/orders")
	{
		ordersAPI.POST("", handlers.CreateOrder())
		ordersAPI.GET("", handlers.ListOrders())
		ordersAPI.GET("/:id", handlers.GetOrder())
		ordersAPI.GET("/:id/history", handlers.OrderHistory())
		ordersAPI.GET("/buyer/:buyerId", handlers.ListOrdersByBuyer())
		ordersAPI.PUT("/:id/status", handlers.UpdateStatus())
	}
}

// CreateOrder обрабатывает POST /orders.
func (h *Handlers) CreateOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.respondRejection(c, "malformed request body")
			return
		}

		order, err := h.service.CreateOrder(c.Request.Context(), req.toCommand())
		if err != nil {
			h.respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, toOrderResponse(order))
	}
}

// GetOrder обрабатывает GET /orders/:id.
func (h *Handlers) GetOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := h.service.GetOrder(c.Request.Context(), c.Param("id"))
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}

// ListOrders обрабатывает GET /orders.
func (h *Handlers) ListOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderList, err := h.service.ListOrders(c.Request.Context())
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toOrderResponses(orderList))
	}
}

// ListOrdersByBuyer обрабатывает GET /orders/buyer/:buyerId.
func (h *Handlers) ListOrdersByBuyer() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderList, err := h.service.ListOrdersByBuyer(c.Request.Context(), c.Param("buyerId"))
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toOrderResponses(orderList))
	}
}

// UpdateStatus обрабатывает PUT /orders/:id/status?status=CONFIRMED.
func (h *Handlers) UpdateStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		status, err := domain.ParseOrderStatus(c.Query("status"))
		if err != nil {
			h.respondError(c, err)
			return
		}

		order, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), status)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toOrderResponse(order))
	}
}

// OrderHistory обрабатывает GET /orders/:id/history.
func (h *Handlers) OrderHistory() gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := h.service.OrderHistory(c.Request.Context(), c.Param("id"))
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toTimelineResponses(events))
	}
}

// respondError превращает ошибку сервиса в HTTP-ответ. Бизнес-отказы,
// включая отсутствие сущностей, возвращаются как 400 с текстом ошибки.
func (h *Handlers) respondError(c *gin.Context, err error) {
	if domain.IsRejection(err) {
		c.JSON(http.StatusBadRequest, errorResponse{
			Message: err.Error(),
			Status:  strconv.Itoa(http.StatusBadRequest),
		})
		return
	}

	h.logger.WithError(err).Error("request failed")
	c.JSON(http.StatusInternalServerError, errorResponse{
		Message: "internal server error",
		Status:  strconv.Itoa(http.StatusInternalServerError),
	})
}

func (h *Handlers) respondRejection(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Message: message,
		Status:  strconv.Itoa(http.StatusBadRequest),
	})
}
