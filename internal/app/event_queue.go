// internal/app/event_queue.go
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"birthday_card_bot/internal/domain/event"

	"github.com/sirupsen/logrus"
)

// Handler executes one scheduled event. A nil error marks the event
// completed; a non-nil error leaves it pending for the next poll.
type Handler func(ctx context.Context, ev *event.ScheduledEvent) error

// EventQueue is the persisted one-shot job queue. Producers call Schedule;
// the scheduler driver calls Poll on a fixed cadence, which doubles as the
// retry interval for failed events (no backoff curve is computed from the
// attempt count).
type EventQueue struct {
	repo     event.Repository
	handlers map[event.Kind]Handler
	logger   *logrus.Entry
}

func NewEventQueue(repo event.Repository, logger *logrus.Entry) *EventQueue {
	return &EventQueue{
		repo:     repo,
		handlers: make(map[event.Kind]Handler),
		logger:   logger,
	}
}

// Register binds a handler to an event kind. Registering the same kind twice
// replaces the previous handler.
func (q *EventQueue) Register(kind event.Kind, h Handler) {
	q.handlers[kind] = h
}

// Schedule persists a new pending event. No deduplication is performed;
// callers are responsible for not scheduling semantically duplicate work.
func (q *EventQueue) Schedule(ctx context.Context, kind event.Kind, fireAt time.Time, payload event.Payload) (*event.ScheduledEvent, error) {
	ev := &event.ScheduledEvent{
		Kind:    kind,
		FireAt:  fireAt,
		Payload: payload,
	}
	if err := q.repo.Create(ctx, ev); err != nil {
		return nil, fmt.Errorf("failed to schedule %s event: %w", kind, err)
	}
	q.logger.WithFields(logrus.Fields{
		"event_id": ev.ID,
		"kind":     kind,
		"fire_at":  fireAt.Format(time.RFC3339),
	}).Info("Scheduled event")
	return ev, nil
}

// Poll loads up to limit due events and executes them sequentially. One
// event's failure never prevents the remaining due events from being
// attempted. Poll returns an error only when the due-events query itself
// fails; execution failures are recorded on the events and retried on a later
// poll.
func (q *EventQueue) Poll(ctx context.Context, now time.Time, limit int) error {
	due, err := q.repo.ListDue(ctx, now, limit)
	if err != nil {
		return fmt.Errorf("failed to load due events: %w", err)
	}
	if len(due) == 0 {
		q.logger.Debug("No due events to process")
		return nil
	}
	q.logger.Infof("Processing %d due events", len(due))

	for _, ev := range due {
		q.execute(ctx, ev, now)
	}
	return nil
}

func (q *EventQueue) execute(ctx context.Context, ev *event.ScheduledEvent, now time.Time) {
	logCtx := q.logger.WithFields(logrus.Fields{
		"event_id": ev.ID,
		"kind":     ev.Kind,
		"attempts": ev.Attempts,
	})

	handler, ok := q.handlers[ev.Kind]
	var execErr error
	if !ok {
		execErr = fmt.Errorf("no handler registered for kind %s", ev.Kind)
	} else {
		execErr = handler(ctx, ev)
	}

	if execErr != nil {
		ev.Attempts++
		ev.LastError = sql.NullString{String: execErr.Error(), Valid: true}
		logCtx.WithError(execErr).Errorf("Event execution failed (attempt %d), will retry on next poll", ev.Attempts)
	} else {
		ev.Completed = true
		ev.CompletedAt = sql.NullTime{Time: now, Valid: true}
		logCtx.Info("Event executed successfully")
	}

	if err := q.repo.Update(ctx, ev); err != nil {
		// The event stays pending in the store and will be re-attempted;
		// for a completed event that means a duplicate execution, which the
		// at-least-once contract allows.
		logCtx.WithError(err).Error("Failed to persist event execution result")
	}
}
