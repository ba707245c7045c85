// Package outbox implements the transactional outbox: domain events are
// written in the same transaction as the state change that caused them and
// published to the message broker afterwards by a Worker.
package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is the delivery state of an outbox event.
type Status string

// Delivery states.
const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Event is a domain event waiting for delivery.
type Event struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	// Payload is the JSON encoded event body.
	Payload   []byte
	Status    Status
	Attempts  int
	CreatedAt time.Time
}

// Stats describes the pending backlog.
type Stats struct {
	PendingCount    int64
	OldestPendingAt time.Time
}

// Repository reads and updates stored events. Events are inserted by the
// unit of work that produces them, not through this interface.
type Repository interface {
	PullPending(ctx context.Context, limit int) ([]Event, error)
	MarkSent(ctx context.Context, id uuid.UUID, attempts int) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int) error
	Stats(ctx context.Context) (Stats, error)
}

// Publisher delivers an event to the broker.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}
