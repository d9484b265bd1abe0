// internal/infra/database/postgres_event_repository.go
package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"birthday_card_bot/internal/domain/event"
	"time"
)

var ErrEventNotFound = fmt.Errorf("scheduled event not found")

type PostgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

func (r *PostgresEventRepository) Create(ctx context.Context, ev *event.ScheduledEvent) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("error marshaling event payload: %w", err)
	}

	query := `INSERT INTO scheduled_events (kind, fire_at, payload, completed, attempts, last_error)
               VALUES ($1, $2, $3, $4, $5, $6)
               RETURNING id, created_at`
	err = r.db.QueryRowContext(ctx, query, ev.Kind, ev.FireAt, payload, ev.Completed, ev.Attempts, ev.LastError).
		Scan(&ev.ID, &ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating scheduled event: %w", err)
	}
	return nil
}

func (r *PostgresEventRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*event.ScheduledEvent, error) {
	query := `SELECT id, kind, fire_at, payload, completed, attempts, last_error, created_at, completed_at
               FROM scheduled_events
               WHERE completed = FALSE AND fire_at <= $1
               ORDER BY fire_at ASC
               LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying due scheduled events: %w", err)
	}
	defer rows.Close()

	events := make([]*event.ScheduledEvent, 0)
	for rows.Next() {
		ev := &event.ScheduledEvent{}
		var payload []byte
		if err := rows.Scan(
			&ev.ID, &ev.Kind, &ev.FireAt, &payload, &ev.Completed,
			&ev.Attempts, &ev.LastError, &ev.CreatedAt, &ev.CompletedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning scheduled event row: %w", err)
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &ev.Payload); err != nil {
				return nil, fmt.Errorf("error unmarshaling payload for event %d: %w", ev.ID, err)
			}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scheduled event rows: %w", err)
	}
	return events, nil
}

func (r *PostgresEventRepository) Update(ctx context.Context, ev *event.ScheduledEvent) error {
	query := `UPDATE scheduled_events
               SET completed = $1, attempts = $2, last_error = $3, completed_at = $4
               WHERE id = $5
               RETURNING id`
	var id int64
	err := r.db.QueryRowContext(ctx, query, ev.Completed, ev.Attempts, ev.LastError, ev.CompletedAt, ev.ID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrEventNotFound
		}
		return fmt.Errorf("error updating scheduled event: %w", err)
	}
	return nil
}
