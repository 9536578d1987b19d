package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridefit/backend/internal/constant"
	"github.com/stridefit/backend/internal/model"
)

func testConflict(t *testing.T, m, s *model.ActivityRecord) *model.Conflict {
	t.Helper()
	d := newTestDetector()
	result := d.Detect([]*model.ActivityRecord{m, s})
	require.Len(t, result.Conflicts, 1)
	return result.Conflicts[0]
}

func TestResolveKeepOne(t *testing.T) {
	r := NewResolver()

	m := testRecord("m1", "Running", model.OriginManual, 8, 0, 30)
	s := testRecord("s1", "Running", model.OriginSynced, 8, 10, 30)
	conflict := testConflict(t, m, s)

	t.Run("KeepManual", func(t *testing.T) {
		result, err := r.Resolve(conflict, model.ChoiceKeepManual, ResolveOptions{})
		require.NoError(t, err)
		require.Len(t, result.ResultingRecords, 1)
		assert.Equal(t, "m1", result.ResultingRecords[0].ID)
		assert.Equal(t, model.ChoiceKeepManual, result.Resolution.Choice)
		assert.False(t, result.Resolution.AutoResolved)
	})

	t.Run("KeepSynced", func(t *testing.T) {
		result, err := r.Resolve(conflict, model.ChoiceKeepSynced, ResolveOptions{UserNotes: "tracker is right"})
		require.NoError(t, err)
		require.Len(t, result.ResultingRecords, 1)
		assert.Equal(t, "s1", result.ResultingRecords[0].ID)
		assert.Equal(t, "tracker is right", result.Resolution.UserNotes)
	})

	t.Run("ResolutionSnapshotsBothSides", func(t *testing.T) {
		result, err := r.Resolve(conflict, model.ChoiceKeepManual, ResolveOptions{})
		require.NoError(t, err)
		assert.Equal(t, "m1", result.Resolution.BeforeState.ManualRecord.ID)
		assert.Equal(t, "s1", result.Resolution.BeforeState.SyncedRecord.ID)
		require.Len(t, result.Resolution.AfterState.Records, 1)
		assert.Equal(t, conflict.ID, result.Resolution.ConflictID)
	})
}

func TestResolveMerge(t *testing.T) {
	r := NewResolver()

	m := testRecord("m1", "Morning Run", model.OriginManual, 8, 0, 30)
	m.Metadata["notes"] = model.StringValue("felt great")
	s := testRecord("s1", "Running", model.OriginSynced, 8, 10, 35)
	platform := model.PlatformGarmin
	s.Platform = &platform
	s.Metadata["notes"] = model.StringValue("auto-recorded")
	s.Metadata["heartRate"] = model.NumberValue(152)
	conflict := testConflict(t, m, s)

	t.Run("SpansUnionOfBothIntervals", func(t *testing.T) {
		result, err := r.Resolve(conflict, model.ChoiceMerge, ResolveOptions{})
		require.NoError(t, err)
		require.Len(t, result.ResultingRecords, 1)

		merged := result.ResultingRecords[0]
		assert.Equal(t, m.StartTime, merged.StartTime)
		// 08:00 to 08:45
		assert.Equal(t, 45, merged.DurationMinutes)
		assert.Equal(t, model.OriginManual, merged.Origin)
		assert.Nil(t, merged.Platform)
		assert.NotEqual(t, m.ID, merged.ID)
		assert.NotEqual(t, s.ID, merged.ID)
	})

	t.Run("ProvenanceMetadata", func(t *testing.T) {
		result, err := r.Resolve(conflict, model.ChoiceMerge, ResolveOptions{MergeStrategy: model.MergePreferSynced})
		require.NoError(t, err)
		merged := result.ResultingRecords[0]

		from, ok := merged.Metadata[constant.MetaKeyMergedFrom]
		require.True(t, ok)
		ids, ok := from.List()
		require.True(t, ok)
		require.Len(t, ids, 2)
		first, _ := ids[0].String()
		second, _ := ids[1].String()
		assert.Equal(t, "m1", first)
		assert.Equal(t, "s1", second)

		strategy, _ := merged.Metadata.GetString(constant.MetaKeyMergeStrategy)
		assert.Equal(t, string(model.MergePreferSynced), strategy)
		assert.Equal(t, "Running", merged.Name, "prefer_synced bases the merge on the synced record")

		original, _ := merged.Metadata.GetString(constant.MetaKeyOriginalID)
		assert.Equal(t, "s1", original, "the merged record remembers which record it was based on")
	})

	t.Run("CollidingKeysSurviveUnderAltSuffix", func(t *testing.T) {
		result, err := r.Resolve(conflict, model.ChoiceMerge, ResolveOptions{PreserveMetadata: true})
		require.NoError(t, err)
		merged := result.ResultingRecords[0]

		notes, _ := merged.Metadata.GetString("notes")
		assert.Equal(t, "felt great", notes, "base record wins the original key")
		alt, _ := merged.Metadata.GetString("notes_alt")
		assert.Equal(t, "auto-recorded", alt)
		hr, _ := merged.Metadata.GetNumber("heartRate")
		assert.Equal(t, 152.0, hr)
	})

	t.Run("InputsNotMutated", func(t *testing.T) {
		_, err := r.Resolve(conflict, model.ChoiceMerge, ResolveOptions{PreserveMetadata: true})
		require.NoError(t, err)
		assert.NotContains(t, m.Metadata, constant.MetaKeyMergedFrom)
		assert.NotContains(t, s.Metadata, constant.MetaKeyMergedFrom)
	})

	t.Run("RejectsUnrelatedActivities", func(t *testing.T) {
		yoga := testRecord("m2", "Yoga", model.OriginManual, 9, 0, 30)
		hiit := testRecord("s2", "Hiit", model.OriginSynced, 9, 2, 30)
		c := testConflict(t, yoga, hiit)

		_, err := r.Resolve(c, model.ChoiceMerge, ResolveOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot merge")
	})
}

func TestResolveKeepBoth(t *testing.T) {
	r := NewResolver()
	d := newTestDetector()

	m := testRecord("m1", "Yoga", model.OriginManual, 8, 0, 60)
	s := testRecord("s1", "Pilates", model.OriginSynced, 8, 50, 60)
	conflict := testConflict(t, m, s)

	result, err := r.Resolve(conflict, model.ChoiceKeepBoth, ResolveOptions{})
	require.NoError(t, err)
	require.Len(t, result.ResultingRecords, 2)

	manual, synced := result.ResultingRecords[0], result.ResultingRecords[1]

	t.Run("SyncedShiftedPastManualEnd", func(t *testing.T) {
		assert.Equal(t, m.EndTime().Add(constant.KeepBothBufferMinutes*time.Minute), synced.StartTime)
		assert.False(t, d.WouldConflict(manual, synced), "resolved pair must not re-detect")
	})

	t.Run("BothSidesTagged", func(t *testing.T) {
		adjusted, _ := manual.Metadata.GetBool(constant.MetaKeyAdjustedForConflict)
		assert.True(t, adjusted)
		pair, _ := manual.Metadata.GetString(constant.MetaKeyAdjustedPairID)
		assert.Equal(t, "s1", pair)
		pair, _ = synced.Metadata.GetString(constant.MetaKeyAdjustedPairID)
		assert.Equal(t, "m1", pair)
	})

	t.Run("OriginalsUntouched", func(t *testing.T) {
		assert.Equal(t, testDay.Add(8*time.Hour+50*time.Minute), s.StartTime)
		assert.NotContains(t, m.Metadata, constant.MetaKeyAdjustedForConflict)
	})
}

func TestResolveValidate(t *testing.T) {
	r := NewResolver()

	m := testRecord("m1", "Running", model.OriginManual, 8, 0, 30)
	s := testRecord("s1", "Running", model.OriginSynced, 8, 10, 30)
	conflict := testConflict(t, m, s)

	t.Run("UnknownChoice", func(t *testing.T) {
		_, err := r.Resolve(conflict, model.ResolutionChoice("discard_everything"), ResolveOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown resolution choice")
	})

	t.Run("KeepChoicesAlwaysValid", func(t *testing.T) {
		for _, choice := range []model.ResolutionChoice{model.ChoiceKeepManual, model.ChoiceKeepSynced, model.ChoiceKeepBoth} {
			assert.NoError(t, r.Validate(conflict, choice))
		}
	})
}

func TestRecommend(t *testing.T) {
	r := NewResolver()

	t.Run("HighSimilarityHighConfidence", func(t *testing.T) {
		m := testRecord("m1", "Running", model.OriginManual, 8, 0, 30)
		s := testRecord("s1", "Running", model.OriginSynced, 8, 2, 30)
		s.Metadata["confidence"] = model.NumberValue(0.95)
		rec := r.Recommend(testConflict(t, m, s))
		assert.Equal(t, model.ChoiceKeepSynced, rec.Choice)
	})

	t.Run("HighSimilarityLowConfidence", func(t *testing.T) {
		m := testRecord("m1", "Running", model.OriginManual, 8, 0, 30)
		s := testRecord("s1", "Running", model.OriginSynced, 8, 2, 30)
		s.Metadata["confidence"] = model.NumberValue(0.4)
		rec := r.Recommend(testConflict(t, m, s))
		assert.Equal(t, model.ChoiceKeepManual, rec.Choice)
	})

	t.Run("BarelyOverlappingDistinctActivities", func(t *testing.T) {
		m := testRecord("m1", "Yoga", model.OriginManual, 8, 0, 60)
		s := testRecord("s1", "Pilates", model.OriginSynced, 8, 50, 60)
		rec := r.Recommend(testConflict(t, m, s))
		assert.Equal(t, model.ChoiceKeepBoth, rec.Choice)
	})

	t.Run("SubstantialOverlapDisagreeingNames", func(t *testing.T) {
		m := testRecord("m1", "Yoga", model.OriginManual, 8, 0, 30)
		s := testRecord("s1", "Pilates", model.OriginSynced, 8, 10, 60)
		rec := r.Recommend(testConflict(t, m, s))
		assert.Equal(t, model.ChoiceMerge, rec.Choice)
	})
}

func TestPresent(t *testing.T) {
	r := NewResolver()

	m := testRecord("m1", "Yoga", model.OriginManual, 8, 0, 30)
	s := testRecord("s1", "Pilates", model.OriginSynced, 8, 10, 60)
	platform := model.PlatformGoogleFit
	s.Platform = &platform

	p := r.Present(testConflict(t, m, s))

	t.Run("RecordViews", func(t *testing.T) {
		assert.Equal(t, "08:00 – 08:30", p.Manual.TimeLabel)
		assert.Equal(t, "30 min", p.Manual.DurationLabel)
		assert.Equal(t, "Manual entry", p.Manual.SourceLabel)
		assert.Equal(t, "1 h 00 min", p.Synced.DurationLabel)
		assert.Equal(t, "Google Fit", p.Synced.PlatformLabel)
		assert.Equal(t, 20, p.OverlapMinutes)
	})

	t.Run("TimelineOrderedAndGapFree", func(t *testing.T) {
		require.Len(t, p.Timeline, 3)
		assert.Equal(t, "manual", p.Timeline[0].Kind)
		assert.Equal(t, "overlap", p.Timeline[1].Kind)
		assert.Equal(t, "synced", p.Timeline[2].Kind)

		for i := 1; i < len(p.Timeline); i++ {
			assert.Equal(t, p.Timeline[i-1].End, p.Timeline[i].Start)
		}
		assert.Equal(t, m.StartTime, p.Timeline[0].Start)
		assert.Equal(t, s.EndTime(), p.Timeline[2].End)
	})
}
