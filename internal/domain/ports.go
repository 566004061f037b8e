package domain

import (
	"context"
	"time"
)

// ValidationClient описывает синхронные обращения к внешним авторитетам:
// справочнику пользователей и каталогу товаров. Узкий интерфейс, чтобы
// в тестах его можно было заменить без сети.
type ValidationClient interface {
	// GetBuyer подтверждает существование покупателя или возвращает
	// ErrBuyerNotFound (в том числе при недоступности справочника).
	GetBuyer(ctx context.Context, buyerID string) (BuyerIdentity, error)
	// GetProduct возвращает снимок каталога (имя, цена, запас) или
	// ErrProductNotFound (в том числе при недоступности каталога).
	GetProduct(ctx context.Context, productID string) (CatalogEntry, error)
}

// EventPublisher публикует событие в канал. Доставка at-least-once,
// порядок гарантируется только в пределах одного ключа.
type EventPublisher interface {
	Publish(topic, key string, event any) error
}

// EventHandler обрабатывает одно доставленное событие. Повторная доставка
// возможна, обработчики обязаны переносить дубликаты.
type EventHandler func(ctx context.Context, key string, payload []byte) error

// EventSubscriber регистрирует обработчик на топик в составе consumer group.
type EventSubscriber interface {
	Subscribe(topic, groupID string, handler EventHandler) error
}

// ProductStore — хранилище каталога, в которое реконсилятор списывает запас.
type ProductStore interface {
	// Get возвращает текущую запись каталога или ErrProductNotFound.
	Get(ctx context.Context, productID string) (CatalogEntry, error)
	// DecrementStock атомарно уменьшает запас на quantity, не опускаясь
	// ниже нуля. Возвращает ErrInsufficientStock, если условие stock >= quantity
	// не выполнено на момент списания, и ErrProductNotFound, если товара нет.
	DecrementStock(ctx context.Context, productID string, quantity int32) error
}

// FailedEvent — событие, публикация которого в канал не удалась.
// Сохраняется для внеполосного повтора (воркер или cmd/republish).
type FailedEvent struct {
	ID      string
	Topic   string
	Key     string
	Payload []byte
}

// FailedEventStats описывает текущий backlog журнала неопубликованных событий.
type FailedEventStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}

// FailedEventRepository хранит события, ожидающие повторной публикации.
type FailedEventRepository interface {
	Enqueue(ev FailedEvent) (FailedEvent, error)
	PullPending(limit int) ([]FailedEvent, error)
	Stats() (FailedEventStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}

// ProcessedEventRepository хранит ключи уже обработанных событий.
// Используется опциональной защитой реконсилятора от повторной доставки.
type ProcessedEventRepository interface {
	// MarkProcessed записывает ключ и возвращает false, если ключ уже был.
	MarkProcessed(key string, processedAt time.Time) (bool, error)
	// DeleteExpired удаляет записи старше before, максимум limit штук.
	DeleteExpired(before time.Time, limit int) (int, error)
}

// TimelineRepository хранит историю статусов заказа.
type TimelineRepository interface {
	Append(event TimelineEvent) error
	List(orderID string) ([]TimelineEvent, error)
}
