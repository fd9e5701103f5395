package entity

import "time"

// AuditEvent records one account action for the audit trail.
type AuditEvent struct {
	UserID    string
	Email     string
	Action    string
	IP        string
	UserAgent string
	Metadata  map[string]any
	CreatedAt time.Time
}
