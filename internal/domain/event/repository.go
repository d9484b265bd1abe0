package event

import (
	"context"
	"time"
)

// Repository defines persistence for scheduled events.
type Repository interface {
	Create(ctx context.Context, ev *ScheduledEvent) error
	// ListDue returns up to limit events with completed=false and
	// fire_at <= now, oldest fire time first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*ScheduledEvent, error)
	// Update persists the mutable execution fields (completed, attempts,
	// last_error, completed_at) of an existing event.
	Update(ctx context.Context, ev *ScheduledEvent) error
}
