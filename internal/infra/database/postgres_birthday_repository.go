// internal/infra/database/postgres_birthday_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"birthday_card_bot/internal/domain/birthday"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Custom errors
var ErrBirthdayNotFound = fmt.Errorf("birthday record not found")

type PostgresBirthdayRepository struct {
	db *sql.DB
}

func NewPostgresBirthdayRepository(db *sql.DB) *PostgresBirthdayRepository {
	return &PostgresBirthdayRepository{db: db}
}

func (r *PostgresBirthdayRepository) Get(ctx context.Context, subjectID string) (*birthday.Record, error) {
	query := `SELECT subject_id, birth_month, birth_day, timezone_hint, created_at, updated_at
               FROM birthdays WHERE subject_id = $1`
	rec := &birthday.Record{}
	var month, day int
	err := r.db.QueryRowContext(ctx, query, subjectID).Scan(
		&rec.SubjectID, &month, &day, &rec.TimezoneHint, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBirthdayNotFound
		}
		return nil, fmt.Errorf("error getting birthday record: %w", err)
	}
	rec.MonthDay = birthday.MonthDay{Month: time.Month(month), Day: day}
	return rec, nil
}

// Set upserts the record keyed by subject_id, so at most one row exists per
// subject.
func (r *PostgresBirthdayRepository) Set(ctx context.Context, rec *birthday.Record) error {
	query := `INSERT INTO birthdays (subject_id, birth_month, birth_day, timezone_hint)
               VALUES ($1, $2, $3, $4)
               ON CONFLICT (subject_id) DO UPDATE
               SET birth_month = EXCLUDED.birth_month,
                   birth_day = EXCLUDED.birth_day,
                   timezone_hint = EXCLUDED.timezone_hint,
                   updated_at = NOW()
               RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, rec.SubjectID, int(rec.MonthDay.Month), rec.MonthDay.Day, rec.TimezoneHint).
		Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error upserting birthday record: %w", err)
	}
	return nil
}

func (r *PostgresBirthdayRepository) ListAll(ctx context.Context) ([]*birthday.Record, error) {
	query := `SELECT subject_id, birth_month, birth_day, timezone_hint, created_at, updated_at
               FROM birthdays ORDER BY subject_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing birthday records: %w", err)
	}
	defer rows.Close()

	records := make([]*birthday.Record, 0)
	for rows.Next() {
		rec := &birthday.Record{}
		var month, day int
		if err := rows.Scan(&rec.SubjectID, &month, &day, &rec.TimezoneHint, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning birthday record: %w", err)
		}
		rec.MonthDay = birthday.MonthDay{Month: time.Month(month), Day: day}
		records = append(records, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating birthday records: %w", err)
	}
	return records, nil
}

// ScanMatchingOffset does a full scan filtered through MonthDay matching.
// Acceptable at the expected scale of a few thousand records; replace with an
// indexed (birth_month, birth_day) equality query if that ever changes.
func (r *PostgresBirthdayRepository) ScanMatchingOffset(ctx context.Context, today time.Time, offsetDays int) ([]string, error) {
	records, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	matches := make([]string, 0)
	for _, rec := range records {
		if rec.MonthDay.MatchesOffset(today, offsetDays) {
			matches = append(matches, rec.SubjectID)
		}
	}
	return matches, nil
}

func (r *PostgresBirthdayRepository) ScanMatchingExact(ctx context.Context, today time.Time) ([]string, error) {
	return r.ScanMatchingOffset(ctx, today, 0)
}
