package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridefit/backend/internal/app/appconfig"
	"github.com/stridefit/backend/internal/constant"
	"github.com/stridefit/backend/internal/model"
	modelcache "github.com/stridefit/backend/internal/model/cache"
)

type preservationFixture struct {
	p           *Preservation
	records     *fakeRecordStore
	conflicts   *fakeConflictStore
	held        *fakeHeldStore
	resolutions *fakeResolutionStore
	audits      *fakeAuditStore
}

func newTestPreservation(mutate func(*appconfig.ConfigSpec)) *preservationFixture {
	modelcache.Initialize()
	modelcache.Flush()

	spec := appconfig.ConfigSpec{
		ConflictOverlapThresholdMinutes: 5,
		AutoResolveConfidenceThreshold:  0.95,
		MaxConflictAge:                  720 * time.Hour,
		AuditRetentionCap:               100,
	}
	if mutate != nil {
		mutate(&spec)
	}
	conf := &appconfig.Config{ConfigSpec: spec}

	f := &preservationFixture{
		records:     newFakeRecordStore(),
		conflicts:   newFakeConflictStore(),
		held:        newFakeHeldStore(),
		resolutions: newFakeResolutionStore(),
		audits:      newFakeAuditStore(),
	}
	f.p = NewPreservation(conf, NewDetector(conf), NewResolver(), f.records, f.conflicts, f.held, f.resolutions, f.audits)
	return f
}

func syncedWithConfidence(id, name string, hour, minute, duration int, confidence float64) *model.ActivityRecord {
	rec := testRecord(id, name, model.OriginSynced, hour, minute, duration)
	rec.Metadata["confidence"] = model.NumberValue(confidence)
	return rec
}

func TestSyncBatchCommitsCleanRecords(t *testing.T) {
	f := newTestPreservation(nil)
	ctx := context.Background()

	batch := []*model.ActivityRecord{
		testRecord("s1", "Running", model.OriginSynced, 8, 0, 30),
		testRecord("s2", "Yoga", model.OriginSynced, 18, 0, 30),
	}

	outcome, err := f.p.SyncBatch(ctx, batch)
	require.NoError(t, err)

	assert.Len(t, outcome.Committed, 2)
	assert.Empty(t, outcome.HeldRecords)
	assert.Empty(t, outcome.Errors)
	assert.Len(t, f.records.records, 2)
	assert.Equal(t, []model.AuditAction{model.AuditRecordCreated, model.AuditRecordCreated}, f.audits.actions())
}

func TestSyncBatchHoldsConflictedRecords(t *testing.T) {
	f := newTestPreservation(func(spec *appconfig.ConfigSpec) {
		spec.PreserveAllConflicts = true
	})
	ctx := context.Background()

	manual := testRecord("m1", "Running", model.OriginManual, 8, 0, 30)
	require.NoError(t, f.records.Save(ctx, manual))

	batch := []*model.ActivityRecord{
		syncedWithConfidence("s1", "Running", 8, 10, 30, 0.99),
		testRecord("s2", "Yoga", model.OriginSynced, 18, 0, 30),
	}

	outcome, err := f.p.SyncBatch(ctx, batch)
	require.NoError(t, err)

	t.Run("EveryRecordCommittedOrHeld", func(t *testing.T) {
		assert.Equal(t, len(batch), len(outcome.Committed)+len(outcome.HeldRecords))
		assert.Len(t, outcome.Committed, 1)
		assert.Len(t, outcome.HeldRecords, 1)
		assert.Zero(t, outcome.AutoResolved, "preserve-all must disable auto-resolution")
	})

	t.Run("HeldRecordWithheldFromMainStorage", func(t *testing.T) {
		assert.Nil(t, f.records.records["s1"])
		assert.NotNil(t, f.records.records["s2"])
	})

	t.Run("HeldRecordCarriesBackReferences", func(t *testing.T) {
		held := outcome.HeldRecords[0]
		conflict := outcome.HeldConflicts[0]
		assert.Equal(t, conflict.ID, held.ConflictID)

		id, ok := held.Record.Metadata.GetString(constant.MetaKeyConflictID)
		assert.True(t, ok)
		assert.Equal(t, conflict.ID, id)
		_, ok = held.Record.Metadata[constant.MetaKeyHeldAt]
		assert.True(t, ok)
	})

	t.Run("ConflictPersistedUnresolved", func(t *testing.T) {
		unresolved, err := f.conflicts.ListUnresolved(ctx)
		require.NoError(t, err)
		require.Len(t, unresolved, 1)
		assert.Equal(t, model.ConflictTypeDuplicateExercise, unresolved[0].ConflictType)
	})

	t.Run("OriginalBatchRecordNotMutated", func(t *testing.T) {
		assert.NotContains(t, batch[0].Metadata, constant.MetaKeyHeldAt)
	})
}

func TestSyncBatchRerunReusesHeldConflict(t *testing.T) {
	f := newTestPreservation(func(spec *appconfig.ConfigSpec) {
		spec.PreserveAllConflicts = true
	})
	ctx := context.Background()

	require.NoError(t, f.records.Save(ctx, testRecord("m1", "Running", model.OriginManual, 8, 0, 30)))

	batch := []*model.ActivityRecord{
		syncedWithConfidence("s1", "Running", 8, 10, 30, 0.99),
	}

	first, err := f.p.SyncBatch(ctx, batch)
	require.NoError(t, err)
	require.Len(t, first.HeldRecords, 1)

	second, err := f.p.SyncBatch(ctx, batch)
	require.NoError(t, err)

	t.Run("NoSecondConflictMinted", func(t *testing.T) {
		unresolved, err := f.conflicts.ListUnresolved(ctx)
		require.NoError(t, err)
		require.Len(t, unresolved, 1)
		assert.Equal(t, first.HeldConflicts[0].ID, unresolved[0].ID)
	})

	t.Run("RerunReportsTheOriginalHold", func(t *testing.T) {
		require.Len(t, second.HeldRecords, 1)
		require.Len(t, second.HeldConflicts, 1)
		assert.Equal(t, first.HeldConflicts[0].ID, second.HeldConflicts[0].ID)
		assert.Equal(t, first.HeldRecords[0].ConflictID, second.HeldRecords[0].ConflictID)
		assert.Empty(t, second.Errors)
	})

	t.Run("JoinStaysConsistent", func(t *testing.T) {
		violations, err := f.p.ValidateState(ctx)
		require.NoError(t, err)
		assert.Empty(t, violations)
	})
}

func TestSyncBatchAutoResolves(t *testing.T) {
	t.Run("HighConfidenceDuplicateKeepsSynced", func(t *testing.T) {
		f := newTestPreservation(nil)
		ctx := context.Background()

		require.NoError(t, f.records.Save(ctx, testRecord("m1", "Running", model.OriginManual, 8, 0, 30)))

		outcome, err := f.p.SyncBatch(ctx, []*model.ActivityRecord{
			syncedWithConfidence("s1", "Running", 8, 10, 30, 0.96),
		})
		require.NoError(t, err)

		assert.Equal(t, 1, outcome.AutoResolved)
		assert.Empty(t, outcome.HeldRecords)
		assert.NotNil(t, f.records.records["s1"], "keep_synced commits the synced record")

		require.Len(t, f.resolutions.resolutions, 1)
		resolution := f.resolutions.resolutions[0]
		assert.True(t, resolution.AutoResolved)
		assert.Equal(t, model.ChoiceKeepSynced, resolution.Choice)

		assert.Contains(t, f.audits.actions(), model.AuditConflictAutoResolved)
	})

	t.Run("LowConfidenceIsHeld", func(t *testing.T) {
		f := newTestPreservation(nil)
		ctx := context.Background()

		require.NoError(t, f.records.Save(ctx, testRecord("m1", "Yoga", model.OriginManual, 9, 0, 40)))

		outcome, err := f.p.SyncBatch(ctx, []*model.ActivityRecord{
			syncedWithConfidence("s1", "Running", 9, 30, 40, 0.6),
		})
		require.NoError(t, err)

		assert.Zero(t, outcome.AutoResolved)
		require.Len(t, outcome.HeldRecords, 1)
		assert.Nil(t, f.records.records["s1"])
	})

	t.Run("SyncedRecordConflictingWithSeveralManualsProcessedOnce", func(t *testing.T) {
		f := newTestPreservation(func(spec *appconfig.ConfigSpec) {
			spec.PreserveAllConflicts = true
		})
		ctx := context.Background()

		require.NoError(t, f.records.Save(ctx, testRecord("m1", "Running", model.OriginManual, 8, 0, 30)))
		require.NoError(t, f.records.Save(ctx, testRecord("m2", "Running", model.OriginManual, 8, 20, 30)))

		outcome, err := f.p.SyncBatch(ctx, []*model.ActivityRecord{
			syncedWithConfidence("s1", "Running", 8, 10, 30, 0.9),
		})
		require.NoError(t, err)

		assert.Len(t, outcome.HeldRecords, 1)
		assert.Len(t, outcome.HeldConflicts, 1)
		held, err := f.held.List(ctx)
		require.NoError(t, err)
		assert.Len(t, held, 1)
	})
}

func TestResolvePreserved(t *testing.T) {
	holdOne := func(t *testing.T, f *preservationFixture) *model.Conflict {
		t.Helper()
		ctx := context.Background()
		require.NoError(t, f.records.Save(ctx, testRecord("m1", "Running", model.OriginManual, 8, 0, 30)))
		outcome, err := f.p.SyncBatch(ctx, []*model.ActivityRecord{
			syncedWithConfidence("s1", "Running", 8, 10, 30, 0.6),
		})
		require.NoError(t, err)
		require.Len(t, outcome.HeldConflicts, 1)
		return outcome.HeldConflicts[0]
	}

	t.Run("ReleasesHeldRecordWithoutHoldMetadata", func(t *testing.T) {
		f := newTestPreservation(func(spec *appconfig.ConfigSpec) {
			spec.PreserveAllConflicts = true
		})
		ctx := context.Background()
		conflict := holdOne(t, f)

		result, err := f.p.ResolvePreserved(ctx, conflict.ID, model.ChoiceKeepSynced, ResolveOptions{UserNotes: "tracker wins"})
		require.NoError(t, err)
		require.Len(t, result.ResultingRecords, 1)

		released := f.records.records["s1"]
		require.NotNil(t, released)
		assert.NotContains(t, released.Metadata, constant.MetaKeyHeldAt)
		assert.NotContains(t, released.Metadata, constant.MetaKeyConflictID)

		held, err := f.held.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, held)

		stored, err := f.conflicts.GetByID(ctx, conflict.ID)
		require.NoError(t, err)
		assert.True(t, stored.Resolved)
		require.NotNil(t, stored.ResolvedAt)

		require.Len(t, f.resolutions.resolutions, 1)
		assert.False(t, f.resolutions.resolutions[0].AutoResolved)
		assert.Equal(t, "tracker wins", f.resolutions.resolutions[0].UserNotes)
		assert.Contains(t, f.audits.actions(), model.AuditConflictResolved)
	})

	t.Run("ResolvingTwiceFails", func(t *testing.T) {
		f := newTestPreservation(func(spec *appconfig.ConfigSpec) {
			spec.PreserveAllConflicts = true
		})
		ctx := context.Background()
		conflict := holdOne(t, f)

		_, err := f.p.ResolvePreserved(ctx, conflict.ID, model.ChoiceKeepManual, ResolveOptions{})
		require.NoError(t, err)

		_, err = f.p.ResolvePreserved(ctx, conflict.ID, model.ChoiceKeepSynced, ResolveOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already resolved")
	})

	t.Run("UnknownConflict", func(t *testing.T) {
		f := newTestPreservation(nil)
		_, err := f.p.ResolvePreserved(context.Background(), "nope", model.ChoiceKeepManual, ResolveOptions{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("InvalidChoiceLeavesStateIntact", func(t *testing.T) {
		f := newTestPreservation(func(spec *appconfig.ConfigSpec) {
			spec.PreserveAllConflicts = true
		})
		ctx := context.Background()
		conflict := holdOne(t, f)

		_, err := f.p.ResolvePreserved(ctx, conflict.ID, model.ResolutionChoice("bogus"), ResolveOptions{})
		require.Error(t, err)

		held, err := f.held.List(ctx)
		require.NoError(t, err)
		assert.Len(t, held, 1, "failed resolution must not release the held record")
		stored, _ := f.conflicts.GetByID(ctx, conflict.ID)
		assert.False(t, stored.Resolved)
	})
}

func TestForceResolveOld(t *testing.T) {
	f := newTestPreservation(func(spec *appconfig.ConfigSpec) {
		spec.PreserveAllConflicts = true
	})
	ctx := context.Background()

	require.NoError(t, f.records.Save(ctx, testRecord("m1", "Running", model.OriginManual, 8, 0, 30)))
	outcome, err := f.p.SyncBatch(ctx, []*model.ActivityRecord{
		syncedWithConfidence("s1", "Running", 8, 10, 30, 0.6),
	})
	require.NoError(t, err)
	require.Len(t, outcome.HeldConflicts, 1)

	t.Run("FreshConflictLeftAlone", func(t *testing.T) {
		resolved, err := f.p.ForceResolveOld(ctx)
		require.NoError(t, err)
		assert.Zero(t, resolved)
	})

	t.Run("StaleConflictForceResolved", func(t *testing.T) {
		stored, _ := f.conflicts.GetByID(ctx, outcome.HeldConflicts[0].ID)
		stored.DetectedAt = time.Now().Add(-31 * 24 * time.Hour)

		resolved, err := f.p.ForceResolveOld(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, resolved)

		assert.True(t, stored.Resolved)
		held, err := f.held.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, held)
		require.Len(t, f.resolutions.resolutions, 1)
		assert.True(t, f.resolutions.resolutions[0].AutoResolved)
	})
}

func TestCleanup(t *testing.T) {
	f := newTestPreservation(func(spec *appconfig.ConfigSpec) {
		spec.AuditRetentionCap = 2
	})
	ctx := context.Background()

	old := time.Now().Add(-100 * 24 * time.Hour)
	require.NoError(t, f.conflicts.Save(ctx, &model.Conflict{ID: "c-old", Resolved: true, ResolvedAt: &old}))
	recent := time.Now()
	require.NoError(t, f.conflicts.Save(ctx, &model.Conflict{ID: "c-new", Resolved: true, ResolvedAt: &recent}))
	require.NoError(t, f.conflicts.Save(ctx, &model.Conflict{ID: "c-open"}))

	for i := 0; i < 5; i++ {
		require.NoError(t, f.audits.Append(ctx, model.AuditRecordCreated, nil))
	}

	deleted, err := f.p.Cleanup(ctx, time.Now().Add(-90*24*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 1, deleted)
	assert.NotContains(t, f.conflicts.conflicts, "c-old")
	assert.Contains(t, f.conflicts.conflicts, "c-new")
	assert.Contains(t, f.conflicts.conflicts, "c-open")
	assert.Len(t, f.audits.audits, 2)
}

func TestValidateState(t *testing.T) {
	f := newTestPreservation(func(spec *appconfig.ConfigSpec) {
		spec.PreserveAllConflicts = true
	})
	ctx := context.Background()

	require.NoError(t, f.records.Save(ctx, testRecord("m1", "Running", model.OriginManual, 8, 0, 30)))
	outcome, err := f.p.SyncBatch(ctx, []*model.ActivityRecord{
		syncedWithConfidence("s1", "Running", 8, 10, 30, 0.6),
	})
	require.NoError(t, err)
	require.Len(t, outcome.HeldConflicts, 1)

	t.Run("ConsistentAfterHold", func(t *testing.T) {
		violations, err := f.p.ValidateState(ctx)
		require.NoError(t, err)
		assert.Empty(t, violations)
	})

	t.Run("ReportsOrphanedConflict", func(t *testing.T) {
		require.NoError(t, f.held.DeleteByConflictID(ctx, outcome.HeldConflicts[0].ID))
		violations, err := f.p.ValidateState(ctx)
		require.NoError(t, err)
		require.Len(t, violations, 1)
		assert.Contains(t, violations[0], "has no held record")
	})

	t.Run("ReportsDanglingHeldRecord", func(t *testing.T) {
		require.NoError(t, f.held.Save(ctx, &model.HeldRecord{ID: "h-x", ConflictID: "ghost"}))
		violations, err := f.p.ValidateState(ctx)
		require.NoError(t, err)
		require.Len(t, violations, 2)
		assert.Contains(t, violations[0], "missing conflict")
		assert.Contains(t, violations[1], "has no held record")
	})
}
