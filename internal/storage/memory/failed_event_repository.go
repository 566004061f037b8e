package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

// failedEventRecord хранит событие и служебные поля для in-memory журнала.
type failedEventRecord struct {
	event      domain.FailedEvent
	status     string
	attemptCnt int
	createdAt  time.Time
	updatedAt  time.Time
}

// failedEventRepositoryInMemory — in-memory журнал событий, публикация
// которых в канал не удалась.
type failedEventRepositoryInMemory struct {
	mu      sync.RWMutex
	records map[string]*failedEventRecord
}

// NewFailedEventRepository создаёт in-memory реализацию журнала.
func NewFailedEventRepository() *failedEventRepositoryInMemory {
	return &failedEventRepositoryInMemory{records: make(map[string]*failedEventRecord)}
}

// Enqueue сохраняет событие со статусом `pending` и возвращает его с присвоенным ID.
func (r *failedEventRepositoryInMemory) Enqueue(ev domain.FailedEvent) (domain.FailedEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	r.records[ev.ID] = &failedEventRecord{
		event:     cloneFailedEvent(ev),
		status:    "pending",
		createdAt: now,
		updatedAt: now,
	}
	return ev, nil
}

// PullPending возвращает до limit событий со статусом `pending`, старые первыми.
func (r *failedEventRepositoryInMemory) PullPending(limit int) ([]domain.FailedEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	pending := make([]*failedEventRecord, 0, len(r.records))
	for _, rec := range r.records {
		if rec.status == "pending" {
			pending = append(pending, rec)
		}
	}
	sortFailedRecords(pending)

	result := make([]domain.FailedEvent, 0, limit)
	for _, rec := range pending {
		result = append(result, cloneFailedEvent(rec.event))
		if len(result) >= limit {
			break
		}
	}
	return result, nil
}

// Stats возвращает размер backlog и возраст самой старой записи.
func (r *failedEventRepositoryInMemory) Stats() (domain.FailedEventStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := domain.FailedEventStats{}
	for _, rec := range r.records {
		if rec.status != "pending" {
			continue
		}
		stats.PendingCount++
		if stats.OldestPendingAt.IsZero() || rec.createdAt.Before(stats.OldestPendingAt) {
			stats.OldestPendingAt = rec.createdAt
		}
	}
	return stats, nil
}

// MarkSent обновляет статус события после успешной публикации.
func (r *failedEventRepositoryInMemory) MarkSent(id string) error {
	return r.markStatus(id, "sent")
}

// MarkFailed фиксирует очередную неудачную попытку публикации.
func (r *failedEventRepositoryInMemory) MarkFailed(id string) error {
	return r.markStatus(id, "failed")
}

func (r *failedEventRepositoryInMemory) markStatus(id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return domain.ErrEventJournal
	}
	record.status = status
	record.attemptCnt++
	record.updatedAt = time.Now().UTC()
	return nil
}

func sortFailedRecords(records []*failedEventRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].createdAt.Before(records[j].createdAt)
	})
}

func cloneFailedEvent(src domain.FailedEvent) domain.FailedEvent {
	dst := src
	dst.Payload = append([]byte(nil), src.Payload...)
	return dst
}

var _ domain.FailedEventRepository = (*failedEventRepositoryInMemory)(nil)
