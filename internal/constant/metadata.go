package constant

// Well-known metadata keys. Platform adapters may attach any key; the keys
// below are the ones the core itself reads or writes.
const (
	MetaKeyConfidence = "confidence"
	MetaKeyOriginalID = "originalId"

	// merge provenance
	MetaKeyMergedFrom    = "mergedFrom"
	MetaKeyMergeStrategy = "mergeStrategy"
	MetaKeyMergedAt      = "mergedAt"

	// keep-both adjustment
	MetaKeyAdjustedForConflict = "adjustedForConflict"
	MetaKeyAdjustedPairID      = "adjustedPairId"

	// hold bookkeeping, stripped before a held record is released to main storage
	MetaKeyHeldAt     = "heldAt"
	MetaKeyConflictID = "conflictId"
)

// DefaultConfidence is assumed for synced records that carry no confidence metadata.
const DefaultConfidence = 0.5
