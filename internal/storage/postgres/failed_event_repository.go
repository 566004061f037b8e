package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/orderflow/internal/domain"
)

type failedEventRepository struct {
	db *sql.DB
}

// NewFailedEventRepository создаёт PostgreSQL-реализацию журнала
// неопубликованных событий.
func NewFailedEventRepository(store *Store) domain.FailedEventRepository {
	return &failedEventRepository{db: store.DB()}
}

func (r *failedEventRepository) Enqueue(ev domain.FailedEvent) (domain.FailedEvent, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO failed_events (id, topic, event_key, payload, status)
		VALUES ($1, $2, $3, $4, 'pending')
	`, ev.ID, ev.Topic, ev.Key, ev.Payload)
	if err != nil {
		return domain.FailedEvent{}, fmt.Errorf("enqueue failed event: %w", err)
	}

	return ev, nil
}

func (r *failedEventRepository) PullPending(limit int) ([]domain.FailedEvent, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, topic, event_key, payload
		FROM failed_events
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("pull pending failed events: %w", err)
	}
	defer rows.Close()

	events := make([]domain.FailedEvent, 0, limit)
	for rows.Next() {
		var ev domain.FailedEvent
		if err := rows.Scan(&ev.ID, &ev.Topic, &ev.Key, &ev.Payload); err != nil {
			return nil, fmt.Errorf("scan failed event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failed events: %w", err)
	}

	return events, nil
}

func (r *failedEventRepository) Stats() (domain.FailedEventStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var stats domain.FailedEventStats
	var oldest sql.NullTime

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), MIN(created_at)
		FROM failed_events
		WHERE status = 'pending'
	`).Scan(&stats.PendingCount, &oldest)
	if err != nil {
		return domain.FailedEventStats{}, fmt.Errorf("query failed event stats: %w", err)
	}
	if oldest.Valid {
		stats.OldestPendingAt = oldest.Time
	}

	return stats, nil
}

func (r *failedEventRepository) MarkSent(id string) error {
	return r.markStatus(id, "sent")
}

func (r *failedEventRepository) MarkFailed(id string) error {
	return r.markStatus(id, "failed")
}

func (r *failedEventRepository) markStatus(id, status string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE failed_events
		SET status = $2,
		    attempt_count = attempt_count + 1,
		    updated_at = NOW()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("mark failed event %s: %w", status, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: record %s not found", domain.ErrEventJournal, id)
	}

	return nil
}

var _ domain.FailedEventRepository = (*failedEventRepository)(nil)
