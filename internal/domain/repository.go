package domain

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ целиком (вместе с позициями) одной
	// атомарной записью. Временные метки created_at/updated_at присваивает
	// хранилище в момент вставки. Возвращает сохранённый заказ или
	// ErrOrderExists, если запись с таким ID уже есть.
	Create(order Order) (Order, error)
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// List возвращает все заказы в стабильном для реализации порядке.
	List() ([]Order, error)
	// ListByBuyer возвращает заказы покупателя.
	ListByBuyer(buyerID string) ([]Order, error)
	// Update выполняет атомарный read-modify-write одного агрегата:
	// apply получает текущее состояние и мутирует его; при ошибке apply
	// хранимый заказ остаётся без изменений. updated_at присваивает
	// хранилище в момент записи.
	Update(id string, apply func(order *Order) error) (Order, error)
}
