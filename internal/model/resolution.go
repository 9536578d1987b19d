package model

import (
	"time"

	"github.com/uptrace/bun"
)

// ResolutionChoice is how a conflict gets settled.
type ResolutionChoice string

const (
	ChoiceKeepManual ResolutionChoice = "keep_manual"
	ChoiceKeepSynced ResolutionChoice = "keep_synced"
	ChoiceMerge      ResolutionChoice = "merge"
	ChoiceKeepBoth   ResolutionChoice = "keep_both"
)

// MergeStrategy picks the base record when merging.
type MergeStrategy string

const (
	MergePreferManual MergeStrategy = "prefer_manual"
	MergePreferSynced MergeStrategy = "prefer_synced"
	MergeCombineAll   MergeStrategy = "combine_all"
)

// ResolutionSnapshot freezes the records involved in a resolution.
type ResolutionSnapshot struct {
	ManualRecord *ActivityRecord   `json:"manualRecord,omitempty"`
	SyncedRecord *ActivityRecord   `json:"syncedRecord,omitempty"`
	Records      []*ActivityRecord `json:"records,omitempty"`
}

// ConflictResolution is the immutable audit of how a conflict was settled.
// Never mutated or deleted except by bulk data purge.
type ConflictResolution struct {
	bun.BaseModel `bun:"conflict_resolutions,alias:cr"`

	ID           string             `bun:",pk" json:"id"`
	ConflictID   string             `json:"conflictId"`
	Choice       ResolutionChoice   `json:"choice"`
	ResolvedAt   time.Time          `json:"resolvedAt"`
	BeforeState  ResolutionSnapshot `bun:"type:jsonb" json:"beforeState"`
	AfterState   ResolutionSnapshot `bun:"type:jsonb" json:"afterState"`
	UserNotes    string             `json:"userNotes,omitempty"`
	AutoResolved bool               `json:"autoResolved"`
}
