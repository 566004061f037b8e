package domain

import "fmt"

// statusTransitions задаёт допустимые переходы статусов:
// PENDING → CONFIRMED → SHIPPED → DELIVERED, отмена доступна из любого
// нетерминального статуса. DELIVERED и CANCELLED — терминальные.
var statusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered, OrderStatusCancelled},
	OrderStatusDelivered: {},
	OrderStatusCancelled: {},
}

// IsTerminal сообщает, является ли статус конечным.
func (s OrderStatus) IsTerminal() bool {
	return len(statusTransitions[s]) == 0
}

// CanTransitionTo проверяет допустимость перехода по таблице.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidateTransition возвращает ErrIllegalTransition для запрещённого перехода.
// Каждый запрос на смену статуса обязан пройти эту проверку до записи.
func ValidateTransition(from, to OrderStatus) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}
	return nil
}
