package birthday

import (
	"context"
	"time"
)

// Repository defines the operations for persisting and retrieving birthday
// records. The matching scans are a full scan filtered through MonthDay
// matching; at the expected scale (a few thousand records) this is fine, and
// a larger deployment can swap in an indexed month-day query without touching
// the contract.
type Repository interface {
	Get(ctx context.Context, subjectID string) (*Record, error)
	Set(ctx context.Context, record *Record) error // upsert by SubjectID
	ListAll(ctx context.Context) ([]*Record, error)

	// ScanMatchingOffset returns the subject IDs whose stored month-day
	// equals today + offsetDays calendar days.
	ScanMatchingOffset(ctx context.Context, today time.Time, offsetDays int) ([]string, error)
	// ScanMatchingExact returns the subject IDs whose stored month-day
	// equals today's month and day.
	ScanMatchingExact(ctx context.Context, today time.Time) ([]string, error)
}
