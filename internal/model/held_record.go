package model

import (
	"time"

	"github.com/uptrace/bun"
)

// HeldRecord is a synced record withheld from main storage while its conflict
// awaits resolution. The record/conflict back-references form an id-based
// join kept consistent only by the preservation service.
type HeldRecord struct {
	bun.BaseModel `bun:"held_records,alias:hr"`

	ID         string          `bun:",pk" json:"id"`
	Record     *ActivityRecord `bun:"type:jsonb" json:"record"`
	ConflictID string          `json:"conflictId"`
	HeldAt     time.Time       `json:"heldAt"`
}
