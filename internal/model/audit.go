package model

import (
	"time"

	"github.com/uptrace/bun"
)

// AuditAction names a state-changing action recorded in the audit trail.
type AuditAction string

const (
	AuditRecordCreated        AuditAction = "record_created"
	AuditConflictDetected     AuditAction = "conflict_detected"
	AuditConflictAutoResolved AuditAction = "conflict_auto_resolved"
	AuditConflictResolved     AuditAction = "conflict_resolved"
)

// AuditRecord is an append-only log entry, capped to the most recent 100.
type AuditRecord struct {
	bun.BaseModel `bun:"audit_records,alias:au"`

	ID        string      `bun:",pk" json:"id"`
	Action    AuditAction `json:"action"`
	Details   Metadata    `bun:"type:jsonb" json:"details"`
	CreatedAt time.Time   `json:"createdAt"`
}
