package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aexfood/orders/internal/domain/outbox"
)

var _ outbox.Repository = (*OutboxRepository)(nil)

// OutboxRepository implements outbox.Repository backed by PostgreSQL.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository returns an OutboxRepository that uses the given pool.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

// PullPending returns up to limit pending events, oldest first.
func (r *OutboxRepository) PullPending(ctx context.Context, limit int) ([]outbox.Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, aggregate_type, aggregate_id, event_type, payload, status, attempts, created_at
		FROM outbox_events
		WHERE status = 'pending'
		ORDER BY created_at, id
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, storageErr("pull pending events", err)
	}
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (outbox.Event, error) {
		var (
			e      outbox.Event
			status string
		)
		err := row.Scan(&e.ID, &e.AggregateType, &e.AggregateID, &e.EventType, &e.Payload, &status, &e.Attempts, &e.CreatedAt)
		e.Status = outbox.Status(status)
		return e, err
	})
	if err != nil {
		return nil, storageErr("pull pending events", err)
	}
	return events, nil
}

// MarkSent records a successful delivery.
func (r *OutboxRepository) MarkSent(ctx context.Context, id uuid.UUID, attempts int) error {
	return r.mark(ctx, id, outbox.StatusSent, attempts)
}

// MarkFailed records that delivery was given up.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, attempts int) error {
	return r.mark(ctx, id, outbox.StatusFailed, attempts)
}

func (r *OutboxRepository) mark(ctx context.Context, id uuid.UUID, status outbox.Status, attempts int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE outbox_events SET status = $2, attempts = $3, updated_at = NOW() WHERE id = $1`,
		id, string(status), attempts,
	)
	return storageErr("mark event "+string(status), err)
}

// Stats returns the size and age of the pending backlog.
func (r *OutboxRepository) Stats(ctx context.Context) (outbox.Stats, error) {
	var (
		stats  outbox.Stats
		oldest *time.Time
	)
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*), MIN(created_at) FROM outbox_events WHERE status = 'pending'`,
	).Scan(&stats.PendingCount, &oldest)
	if err != nil {
		return outbox.Stats{}, storageErr("outbox stats", err)
	}
	if oldest != nil {
		stats.OldestPendingAt = oldest.UTC()
	}
	return stats, nil
}
