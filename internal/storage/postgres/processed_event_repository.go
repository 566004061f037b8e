package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

type processedEventRepository struct {
	db *sql.DB
}

// NewProcessedEventRepository создаёт PostgreSQL-реализацию реестра
// обработанных событий.
func NewProcessedEventRepository(store *Store) domain.ProcessedEventRepository {
	return &processedEventRepository{db: store.DB()}
}

// MarkProcessed вставляет ключ; конфликт по первичному ключу означает,
// что событие уже было обработано.
func (r *processedEventRepository) MarkProcessed(key string, processedAt time.Time) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, fmt.Errorf("%w: event key is empty", domain.ErrEventJournal)
	}
	if processedAt.IsZero() {
		processedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO processed_events (event_key, processed_at)
		VALUES ($1, $2)
		ON CONFLICT (event_key) DO NOTHING
	`, key, processedAt)
	if err != nil {
		return false, fmt.Errorf("mark processed event: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}

	return affected > 0, nil
}

func (r *processedEventRepository) DeleteExpired(before time.Time, limit int) (int, error) {
	if before.IsZero() {
		before = time.Now().UTC()
	}
	if limit <= 0 {
		limit = 1000
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		DELETE FROM processed_events
		WHERE event_key IN (
			SELECT event_key
			FROM processed_events
			WHERE processed_at <= $1
			ORDER BY processed_at ASC
			LIMIT $2
		)
	`, before, limit)
	if err != nil {
		return 0, fmt.Errorf("delete expired processed events: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	return int(affected), nil
}

var _ domain.ProcessedEventRepository = (*processedEventRepository)(nil)
