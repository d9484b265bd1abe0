// internal/domain/event/event.go
package event

import (
	"database/sql"
	"time"
)

// Kind identifies what a scheduled event does when it fires. The set is open
// for extension; handlers are registered per kind at startup.
type Kind string

const (
	KindRoleRevoke     Kind = "ROLE_REVOKE"
	KindSendReminder   Kind = "SEND_REMINDER"
	KindCleanupChannel Kind = "CLEANUP_CHANNEL"
)

// Payload carries kind-specific key/value data, e.g. guild ID, subject ID,
// role ID. Stored as JSON.
type Payload map[string]string

// ScheduledEvent is a persisted one-shot deferred action. Corresponds to the
// 'scheduled_events' table.
//
// An event with Completed=false becomes visible to the poll cycle once
// FireAt <= now. Attempts only ever increases, and only on failure. A
// completed event is terminal and is never executed again. Events are kept
// after completion for audit; pruning is an operational concern.
type ScheduledEvent struct {
	ID          int64
	Kind        Kind
	FireAt      time.Time
	Payload     Payload
	Completed   bool
	Attempts    int
	LastError   sql.NullString
	CreatedAt   time.Time
	CompletedAt sql.NullTime
}
