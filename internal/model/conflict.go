package model

import (
	"time"

	"github.com/uptrace/bun"
)

// ConflictType classifies how a manual and a synced record disagree.
type ConflictType string

const (
	ConflictTypeTimeOverlap       ConflictType = "time_overlap"
	ConflictTypeDuplicateExercise ConflictType = "duplicate_exercise"
	ConflictTypeConflictingData   ConflictType = "conflicting_data"
)

// Conflict pairs exactly one manual record with one synced record whose time
// overlap meets the minimum threshold. Both records are embedded in full so
// the conflict stays resolvable after either side is edited or held.
type Conflict struct {
	bun.BaseModel `bun:"conflicts,alias:cf"`

	ID             string          `bun:",pk" json:"id"`
	ManualRecord   *ActivityRecord `bun:"type:jsonb" json:"manualRecord"`
	SyncedRecord   *ActivityRecord `bun:"type:jsonb" json:"syncedRecord"`
	OverlapMinutes int             `json:"overlapMinutes"`
	ConflictType   ConflictType    `json:"conflictType"`
	DetectedAt     time.Time       `json:"detectedAt"`
	Resolved       bool            `json:"resolved"`
	ResolvedAt     *time.Time      `json:"resolvedAt,omitempty"`
}

// Age is the time elapsed since detection.
func (c *Conflict) Age(now time.Time) time.Duration {
	return now.Sub(c.DetectedAt)
}
