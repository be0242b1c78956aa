// Package storage is the persistence collaborator for the security core:
// canary-token rows, the single security-mode row with lazy expiry, and the
// append-only audit log, all in one bbolt file. Callers treat every read as
// possibly stale and every write as possibly contended; consistency comes
// from bbolt's transactions, not extra locking here.
package storage

import "time"

// Bucket names for the bbolt database.
const (
	CanariesBucket     = "canaries"
	SecurityModeBucket = "security_mode"
	AuditEventsBucket  = "audit_events"
	MetaBucket         = "meta"
)

// Meta keys.
const (
	SchemaVersionKey = "schema"
	ModeStateKey     = "current"
)

// CurrentSchemaVersion of the database layout.
const CurrentSchemaVersion = 1

// DefaultAuditDetailBudget caps the detail field of one audit event.
const DefaultAuditDetailBudget = 1024

// CanaryRecord is one planted token row. TriggeredAt stays nil until the
// token is first seen in scanned content and is never updated again.
type CanaryRecord struct {
	Token       string     `json:"token"`
	TokenType   string     `json:"token_type"`
	Context     string     `json:"context,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	TriggeredAt *time.Time `json:"triggered_at,omitempty"`
	TriggeredBy string     `json:"triggered_by,omitempty"`
}

// ModeState is the single security-mode row. AutoRestoreAt, when set, arms
// the lazy restore performed on the read path.
type ModeState struct {
	Mode          string     `json:"mode"`
	UpdatedAt     time.Time  `json:"updated_at"`
	AutoRestoreAt *time.Time `json:"auto_restore_at,omitempty"`
}

// AuditEvent is one append-only log row. Detail is truncated to the
// configured byte budget before it is stored.
type AuditEvent struct {
	ID        string    `json:"id"`
	EventType string    `json:"event_type"`
	Severity  string    `json:"severity"`
	Source    string    `json:"source"`
	ToolName  string    `json:"tool_name,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
