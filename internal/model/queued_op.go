package model

import "time"

// SyncOpType is the kind of synchronization a queued operation will perform.
type SyncOpType string

const (
	SyncOpExercise SyncOpType = "exercise_sync"
	SyncOpSteps    SyncOpType = "step_sync"
)

// QueuedSyncOperation is a sync attempt parked while the device is offline or
// after in-session retries were exhausted. Kept in memory by the offline
// manager; removed on success or after the retry ceiling.
type QueuedSyncOperation struct {
	ID          string            `json:"id"`
	Type        SyncOpType        `json:"type"`
	Platform    Platform          `json:"platform"`
	Records     []*ActivityRecord `json:"records,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
	RetryCount  int               `json:"retryCount"`
	LastAttempt *time.Time        `json:"lastAttempt,omitempty"`
}
