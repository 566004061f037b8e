package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

// processedEventRepositoryInMemory хранит ключи уже обработанных событий.
type processedEventRepositoryInMemory struct {
	mu    sync.Mutex
	items map[string]time.Time
}

// NewProcessedEventRepository создаёт in-memory реализацию ProcessedEventRepository.
func NewProcessedEventRepository() domain.ProcessedEventRepository {
	return &processedEventRepositoryInMemory{items: make(map[string]time.Time)}
}

// MarkProcessed записывает ключ; возвращает false, если ключ уже встречался.
func (r *processedEventRepositoryInMemory) MarkProcessed(key string, processedAt time.Time) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, domain.ErrEventJournal
	}
	if processedAt.IsZero() {
		processedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, seen := r.items[key]; seen {
		return false, nil
	}
	r.items[key] = processedAt
	return true, nil
}

// DeleteExpired удаляет записи старше before, максимум limit штук.
func (r *processedEventRepositoryInMemory) DeleteExpired(before time.Time, limit int) (int, error) {
	if before.IsZero() {
		before = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for key, processedAt := range r.items {
		if processedAt.After(before) {
			continue
		}
		delete(r.items, key)
		removed++
		if limit > 0 && removed >= limit {
			break
		}
	}
	return removed, nil
}

var _ domain.ProcessedEventRepository = (*processedEventRepositoryInMemory)(nil)
