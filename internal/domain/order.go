package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает жизненный цикл заказа.
type OrderStatus string

const (
	// OrderStatusPending — заказ создан, но ещё не подтверждён.
	OrderStatusPending OrderStatus = "PENDING"
	// OrderStatusConfirmed — заказ подтверждён и передан в обработку.
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	// OrderStatusShipped — заказ передан в доставку.
	OrderStatusShipped OrderStatus = "SHIPPED"
	// OrderStatusDelivered — заказ доставлен покупателю. Терминальный статус.
	OrderStatusDelivered OrderStatus = "DELIVERED"
	// OrderStatusCancelled — заказ отменён. Терминальный статус.
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// ParseOrderStatus валидирует строковое представление статуса.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	switch OrderStatus(raw) {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return OrderStatus(raw), nil
	default:
		return "", ErrUnknownStatus
	}
}

// OrderLine представляет одну позицию заказа.
// Имя и цена товара — снимок каталога на момент создания заказа;
// последующие изменения каталога на уже созданные заказы не влияют.
type OrderLine struct {
	// ID позиции нужен для однозначной идентификации в хранилище и ответах API.
	ID string
	// ProductID — внешний идентификатор товара в каталоге.
	ProductID string
	// ProductName — имя товара на момент создания заказа.
	ProductName string
	// Quantity — количество единиц товара, всегда >= 1.
	Quantity int32
	// UnitPrice — цена за единицу на момент создания заказа (2 знака после запятой).
	UnitPrice decimal.Decimal
}

// Subtotal возвращает стоимость позиции: цена × количество.
func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity))
}

// Order агрегирует состояние заказа и его позиции.
// Позиции принадлежат заказу целиком и после создания не изменяются.
type Order struct {
	ID          string
	BuyerID     string
	Status      OrderStatus
	Lines       []OrderLine
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ComputeTotal пересчитывает сумму заказа из позиций.
// TotalAmount никогда не выставляется напрямую — только через этот пересчёт.
func (o *Order) ComputeTotal() {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Subtotal())
	}
	o.TotalAmount = total
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.BuyerID == "" {
		errs = append(errs, ErrBuyerRequired)
	}
	if len(o.Lines) == 0 {
		errs = append(errs, ErrLinesRequired)
	}

	// Сверяем сумму заказа с суммой позиций: qty * price.
	calc := decimal.Zero
	for _, line := range o.Lines {
		if line.Quantity < 1 {
			errs = append(errs, ErrLineQuantityInvalid)
		}
		if line.UnitPrice.IsNegative() {
			errs = append(errs, ErrLinePriceInvalid)
		}
		calc = calc.Add(line.Subtotal())
	}
	if !calc.Equal(o.TotalAmount) {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}

// CatalogEntry — снимок товара во внешнем каталоге.
// Читается при валидации заказа, запас уменьшается только реконсилятором.
type CatalogEntry struct {
	ID            string
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int32
}

// BuyerIdentity — запись о покупателе во внешнем справочнике. Только для чтения.
type BuyerIdentity struct {
	ID    string
	Name  string
	Email string
}

// TimelineEvent фиксирует шаг жизненного цикла заказа для истории статусов.
type TimelineEvent struct {
	OrderID  string
	Type     string
	Status   OrderStatus
	Occurred time.Time
}
