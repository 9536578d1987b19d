package service

import (
	"math"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/stridefit/backend/internal/constant"
	"github.com/stridefit/backend/internal/model"
	"github.com/stridefit/backend/internal/pkg/sterr"
)

// Resolver turns a conflict plus a resolution choice into the records that
// survive it and an immutable resolution audit. Stateless; persistence is the
// preservation service's job.
type Resolver struct{}

func NewResolver() *Resolver {
	return &Resolver{}
}

type ResolveOptions struct {
	UserNotes        string
	PreserveMetadata bool
	MergeStrategy    model.MergeStrategy
}

type ResolveResult struct {
	Resolution       *model.ConflictResolution `json:"resolution"`
	ResultingRecords []*model.ActivityRecord   `json:"resultingRecords"`
}

func (r *Resolver) Resolve(conflict *model.Conflict, choice model.ResolutionChoice, opts ResolveOptions) (*ResolveResult, error) {
	if err := r.Validate(conflict, choice); err != nil {
		return nil, err
	}

	now := time.Now()

	var resulting []*model.ActivityRecord
	switch choice {
	case model.ChoiceKeepManual:
		resulting = []*model.ActivityRecord{conflict.ManualRecord}
	case model.ChoiceKeepSynced:
		resulting = []*model.ActivityRecord{conflict.SyncedRecord}
	case model.ChoiceMerge:
		resulting = []*model.ActivityRecord{r.merge(conflict, opts, now)}
	case model.ChoiceKeepBoth:
		resulting = r.keepBoth(conflict, now)
	}

	resolution := &model.ConflictResolution{
		ID:         ulid.Make().String(),
		ConflictID: conflict.ID,
		Choice:     choice,
		ResolvedAt: now,
		BeforeState: model.ResolutionSnapshot{
			ManualRecord: conflict.ManualRecord,
			SyncedRecord: conflict.SyncedRecord,
		},
		AfterState: model.ResolutionSnapshot{
			Records: resulting,
		},
		UserNotes: opts.UserNotes,
	}

	return &ResolveResult{
		Resolution:       resolution,
		ResultingRecords: resulting,
	}, nil
}

// Validate rejects unknown choices, and rejects merges of activities whose
// names share too few words to plausibly describe the same exercise.
func (r *Resolver) Validate(conflict *model.Conflict, choice model.ResolutionChoice) error {
	switch choice {
	case model.ChoiceKeepManual, model.ChoiceKeepSynced, model.ChoiceKeepBoth:
		return nil
	case model.ChoiceMerge:
		sim := wordOverlapSimilarity(conflict.ManualRecord.Name, conflict.SyncedRecord.Name)
		if sim < constant.MergeNameSimilarityFloor {
			return sterr.ErrInvalidReq.Msg(
				"cannot merge: %q and %q appear to be unrelated activities (name similarity %.2f, minimum %.2f)",
				conflict.ManualRecord.Name, conflict.SyncedRecord.Name, sim, constant.MergeNameSimilarityFloor)
		}
		return nil
	default:
		return sterr.ErrInvalidReq.Msg("unknown resolution choice: %q", string(choice))
	}
}

func (r *Resolver) merge(conflict *model.Conflict, opts ResolveOptions, now time.Time) *model.ActivityRecord {
	strategy := opts.MergeStrategy
	if strategy == "" {
		strategy = model.MergePreferManual
	}

	manual, synced := conflict.ManualRecord, conflict.SyncedRecord

	base, other := manual, synced
	if strategy == model.MergePreferSynced {
		base, other = synced, manual
	}

	start := manual.StartTime
	if synced.StartTime.Before(start) {
		start = synced.StartTime
	}
	end := manual.EndTime()
	if synced.EndTime().After(end) {
		end = synced.EndTime()
	}

	merged := base.Clone()
	merged.ID = ulid.Make().String()
	merged.StartTime = start
	merged.DurationMinutes = int(math.Round(end.Sub(start).Minutes()))
	merged.Origin = model.OriginManual
	merged.Platform = nil
	merged.UpdatedAt = now

	if opts.PreserveMetadata || strategy == model.MergeCombineAll {
		for k, v := range other.Metadata {
			if _, exists := merged.Metadata[k]; exists {
				// colliding keys survive under an _alt suffix instead of being overwritten
				merged.Metadata[k+"_alt"] = v
			} else {
				merged.Metadata[k] = v
			}
		}
	}

	merged.Metadata[constant.MetaKeyOriginalID] = model.StringValue(base.ID)
	merged.Metadata[constant.MetaKeyMergedFrom] = model.ListValue([]model.MetaValue{
		model.StringValue(manual.ID),
		model.StringValue(synced.ID),
	})
	merged.Metadata[constant.MetaKeyMergeStrategy] = model.StringValue(string(strategy))
	merged.Metadata[constant.MetaKeyMergedAt] = model.TimeValue(now)

	return merged
}

// keepBoth retains both records, shifting the synced one past the manual end
// plus a fixed buffer so the pair can no longer overlap.
func (r *Resolver) keepBoth(conflict *model.Conflict, now time.Time) []*model.ActivityRecord {
	manual := conflict.ManualRecord.Clone()
	synced := conflict.SyncedRecord.Clone()

	synced.StartTime = manual.EndTime().Add(constant.KeepBothBufferMinutes * time.Minute)
	synced.UpdatedAt = now
	manual.UpdatedAt = now

	manual.Metadata[constant.MetaKeyAdjustedForConflict] = model.BoolValue(true)
	manual.Metadata[constant.MetaKeyAdjustedPairID] = model.StringValue(synced.ID)
	synced.Metadata[constant.MetaKeyAdjustedForConflict] = model.BoolValue(true)
	synced.Metadata[constant.MetaKeyAdjustedPairID] = model.StringValue(manual.ID)

	return []*model.ActivityRecord{manual, synced}
}
