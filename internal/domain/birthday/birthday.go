package birthday

import (
	"database/sql"
	"time"
)

// Record stores the birthday of one subject. At most one record exists per
// subject; Set overwrites. Corresponds to the 'birthdays' table.
type Record struct {
	SubjectID    string // opaque platform user ID, primary key
	MonthDay     MonthDay
	TimezoneHint sql.NullString // optional, informational only
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
