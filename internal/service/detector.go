package service

import (
	"math"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/stridefit/backend/internal/app/appconfig"
	"github.com/stridefit/backend/internal/model"
)

// Detector finds and classifies disagreements between manually entered and
// platform-synced activity records. It is stateless: pure computation over
// the records passed in, no storage access.
type Detector struct {
	overlapThresholdMinutes int
}

func NewDetector(conf *appconfig.Config) *Detector {
	return &Detector{
		overlapThresholdMinutes: conf.ConflictOverlapThresholdMinutes,
	}
}

// Overlap is the time intersection of two records' intervals.
type Overlap struct {
	HasOverlap     bool
	OverlapMinutes int
	OverlapStart   time.Time
	OverlapEnd     time.Time
}

// DetectionResult aggregates one detection pass.
type DetectionResult struct {
	Conflicts     []*model.Conflict          `json:"conflicts"`
	TotalAnalyzed int                        `json:"totalAnalyzed"`
	ManualCount   int                        `json:"manualCount"`
	SyncedCount   int                        `json:"syncedCount"`
	CountsByType  map[model.ConflictType]int `json:"countsByType"`
}

// Detect partitions records by origin and compares every manual record
// against every synced record. O(M×N); well-formed input never fails.
func (d *Detector) Detect(records []*model.ActivityRecord) *DetectionResult {
	result := &DetectionResult{
		Conflicts:     []*model.Conflict{},
		TotalAnalyzed: len(records),
		CountsByType:  map[model.ConflictType]int{},
	}

	var manual, synced []*model.ActivityRecord
	for _, r := range records {
		switch r.Origin {
		case model.OriginManual:
			manual = append(manual, r)
		case model.OriginSynced:
			synced = append(synced, r)
		}
	}
	result.ManualCount = len(manual)
	result.SyncedCount = len(synced)

	now := time.Now()
	for _, m := range manual {
		for _, s := range synced {
			overlap := d.CalculateOverlap(m, s)
			if !overlap.HasOverlap {
				continue
			}

			conflict := &model.Conflict{
				ID:             ulid.Make().String(),
				ManualRecord:   m,
				SyncedRecord:   s,
				OverlapMinutes: overlap.OverlapMinutes,
				ConflictType:   d.classify(m, s, overlap),
				DetectedAt:     now,
			}
			result.Conflicts = append(result.Conflicts, conflict)
			result.CountsByType[conflict.ConflictType]++
		}
	}

	return result
}

// WouldConflict reports whether two records would be detected as a conflict.
// Same-origin pairs never conflict.
func (d *Detector) WouldConflict(a, b *model.ActivityRecord) bool {
	if a.Origin == b.Origin {
		return false
	}
	return d.CalculateOverlap(a, b).HasOverlap
}

// ConflictsFor returns the conflicts a single record would have against every
// counter-origin record in all.
func (d *Detector) ConflictsFor(record *model.ActivityRecord, all []*model.ActivityRecord) []*model.Conflict {
	pool := make([]*model.ActivityRecord, 0, len(all)+1)
	pool = append(pool, record)
	for _, r := range all {
		if r.ID == record.ID || r.Origin == record.Origin {
			continue
		}
		pool = append(pool, r)
	}

	conflicts := []*model.Conflict{}
	for _, c := range d.Detect(pool).Conflicts {
		if c.ManualRecord.ID == record.ID || c.SyncedRecord.ID == record.ID {
			conflicts = append(conflicts, c)
		}
	}
	return conflicts
}

// CalculateOverlap computes the intersection window of the two records.
// An overlap only counts once its rounded whole-minute length reaches the
// configured threshold.
func (d *Detector) CalculateOverlap(a, b *model.ActivityRecord) Overlap {
	start := a.StartTime
	if b.StartTime.After(start) {
		start = b.StartTime
	}
	end := a.EndTime()
	if b.EndTime().Before(end) {
		end = b.EndTime()
	}

	if !end.After(start) {
		return Overlap{}
	}

	minutes := int(math.Round(end.Sub(start).Minutes()))
	if minutes < d.overlapThresholdMinutes {
		return Overlap{}
	}

	return Overlap{
		HasOverlap:     true,
		OverlapMinutes: minutes,
		OverlapStart:   start,
		OverlapEnd:     end,
	}
}

// classify applies the classification rules in their documented order; the
// order is load-bearing because the thresholds overlap (a pair can satisfy
// both a duplicate rule and the conflicting-data rule).
func (d *Detector) classify(m, s *model.ActivityRecord, overlap Overlap) model.ConflictType {
	nameSim := nameSimilarity(m.Name, s.Name)
	durSim := durationSimilarity(m.DurationMinutes, s.DurationMinutes)

	minDuration := m.DurationMinutes
	if s.DurationMinutes < minDuration {
		minDuration = s.DurationMinutes
	}

	switch {
	case nameSim >= 0.8 && durSim >= 0.8:
		return model.ConflictTypeDuplicateExercise
	case sharedCanonicalTerm(m.Name, s.Name) && durSim >= 0.8:
		return model.ConflictTypeDuplicateExercise
	case durSim >= 0.9 && float64(overlap.OverlapMinutes) >= 0.8*float64(minDuration):
		return model.ConflictTypeDuplicateExercise
	case float64(overlap.OverlapMinutes) > 0.5*float64(minDuration):
		return model.ConflictTypeConflictingData
	default:
		return model.ConflictTypeTimeOverlap
	}
}
