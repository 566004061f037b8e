package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора покупателя.
	ErrBuyerRequired = errors.New("buyer_id is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrLinesRequired = errors.New("order must contain at least one item")
	// Ошибка при некорректном количестве товара (< 1).
	ErrLineQuantityInvalid = errors.New("item quantity must be at least 1")
	// Ошибка, если цена позиции отрицательная.
	ErrLinePriceInvalid = errors.New("item price must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrTotalMismatch = errors.New("order total does not match items sum")
	// ErrBuyerNotFound — справочник пользователей не подтвердил покупателя
	// (отсутствует или справочник недоступен).
	ErrBuyerNotFound = errors.New("user not found")
	// ErrProductNotFound — каталог не подтвердил товар
	// (отсутствует или каталог недоступен).
	ErrProductNotFound = errors.New("product not found")
	// ErrInsufficientStock — запрошенное количество превышает доступный запас.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderExists возвращается при попытке создать заказ с занятым ID.
	ErrOrderExists = errors.New("order already exists")
	// ErrIllegalTransition — запрошенный переход статуса запрещён таблицей переходов.
	ErrIllegalTransition = errors.New("illegal status transition")
	// ErrUnknownStatus — строка не является известным статусом заказа.
	ErrUnknownStatus = errors.New("unknown order status")
	// ErrValidation — некорректная форма запроса.
	ErrValidation = errors.New("invalid request")
	// ErrEventJournal — ошибка при работе с журналом неопубликованных событий.
	ErrEventJournal = errors.New("event journal operation failed")
)

// IsRejection сообщает, относится ли ошибка к классу бизнес-отказов,
// которые возвращаются вызывающему как отклонённый запрос.
func IsRejection(err error) bool {
	return errors.Is(err, ErrBuyerRequired) ||
		errors.Is(err, ErrLinesRequired) ||
		errors.Is(err, ErrLineQuantityInvalid) ||
		errors.Is(err, ErrLinePriceInvalid) ||
		errors.Is(err, ErrBuyerNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrIllegalTransition) ||
		errors.Is(err, ErrUnknownStatus) ||
		errors.Is(err, ErrValidation)
}
