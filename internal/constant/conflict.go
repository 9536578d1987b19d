package constant

import "time"

const (
	// DefaultOverlapThresholdMinutes is the minimum whole-minute overlap for
	// a manual/synced pair to count as a conflict.
	DefaultOverlapThresholdMinutes = 5

	// KeepBothBufferMinutes is the fixed gap inserted between the manual end
	// and the shifted synced start when both records are kept.
	KeepBothBufferMinutes = 5

	// AutoResolveConfidenceThreshold is the default confidence at or above
	// which a conflict is auto-resolved.
	AutoResolveConfidenceThreshold = 0.95

	// DuplicateAutoResolveConfidence is the confidence above which a
	// duplicate-exercise conflict is auto-resolved even below the general threshold.
	DuplicateAutoResolveConfidence = 0.9

	// MergeAutoResolveConfidence is the confidence above which auto-resolution
	// merges instead of keeping the manual record.
	MergeAutoResolveConfidence = 0.8

	// SmallOverlapMinutes is the overlap below which auto-resolution keeps both records.
	SmallOverlapMinutes = 10

	// MergeNameSimilarityFloor is the minimum word-overlap name similarity for
	// a merge to be a valid resolution choice.
	MergeNameSimilarityFloor = 0.3

	// DefaultMaxConflictAge is how long a conflict may stay held before it is
	// force-resolved.
	DefaultMaxConflictAge = 30 * 24 * time.Hour

	// AuditRetentionCap is the number of most recent audit entries retained.
	AuditRetentionCap = 100

	// QueueRetryCeiling is the number of drain failures after which a queued
	// sync operation is dropped.
	QueueRetryCeiling = 3
)
