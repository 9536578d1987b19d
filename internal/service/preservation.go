package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stridefit/backend/internal/app/appconfig"
	"github.com/stridefit/backend/internal/constant"
	"github.com/stridefit/backend/internal/model"
	modelcache "github.com/stridefit/backend/internal/model/cache"
	"github.com/stridefit/backend/internal/pkg/observability"
	"github.com/stridefit/backend/internal/pkg/sterr"
)

// Preservation orchestrates a sync cycle: it runs the detector over newly
// synced records plus the existing ones, commits the clean records, holds or
// auto-resolves the conflicted ones, and later releases held state through
// explicit resolution. It is the sole writer of conflicts, held records,
// resolutions and audit entries.
type Preservation struct {
	Detector *Detector
	Resolver *Resolver

	Records     RecordStore
	Conflicts   ConflictStore
	Held        HeldStore
	Resolutions ResolutionStore
	Audits      AuditStore

	preserveAll       bool
	confidenceThresh  float64
	maxConflictAge    time.Duration
	auditRetentionCap int

	// syncMu serializes sync cycles; overlapping triggers for the same scope
	// must not run concurrently.
	syncMu sync.Mutex
}

func NewPreservation(
	conf *appconfig.Config,
	detector *Detector,
	resolver *Resolver,
	records RecordStore,
	conflicts ConflictStore,
	held HeldStore,
	resolutions ResolutionStore,
	audits AuditStore,
) *Preservation {
	return &Preservation{
		Detector:          detector,
		Resolver:          resolver,
		Records:           records,
		Conflicts:         conflicts,
		Held:              held,
		Resolutions:       resolutions,
		Audits:            audits,
		preserveAll:       conf.PreserveAllConflicts,
		confidenceThresh:  conf.AutoResolveConfidenceThreshold,
		maxConflictAge:    conf.MaxConflictAge,
		auditRetentionCap: conf.AuditRetentionCap,
	}
}

// RecordError reports a persistence failure for a single record; the batch
// keeps going, so callers must treat each record's fate independently.
type RecordError struct {
	RecordID string `json:"recordId"`
	Error    string `json:"error"`
}

// SyncOutcome is the fate of every record in one sync batch. Every new synced
// record id appears in exactly one of Committed or HeldRecords.
type SyncOutcome struct {
	Committed     []*model.ActivityRecord `json:"committed"`
	HeldConflicts []*model.Conflict       `json:"heldConflicts"`
	HeldRecords   []*model.HeldRecord     `json:"heldRecords"`
	AutoResolved  int                     `json:"autoResolved"`
	Errors        []RecordError           `json:"errors,omitempty"`
}

// SyncBatch runs a sync cycle against everything currently in main storage.
func (s *Preservation) SyncBatch(ctx context.Context, newSynced []*model.ActivityRecord) (*SyncOutcome, error) {
	existing, err := s.Records.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.ProcessSyncResult(ctx, newSynced, existing)
}

// ProcessSyncResult runs one sync cycle over the new synced records.
func (s *Preservation) ProcessSyncResult(ctx context.Context, newSynced, existing []*model.ActivityRecord) (*SyncOutcome, error) {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	start := time.Now()
	defer func() {
		observability.SyncCycleDuration.WithLabelValues().Observe(time.Since(start).Seconds())
	}()

	pool := make([]*model.ActivityRecord, 0, len(existing)+len(newSynced))
	pool = append(pool, existing...)
	pool = append(pool, newSynced...)
	detection := s.Detector.Detect(pool)

	// A synced record may conflict with several manual records; it is
	// processed once, against the first conflict detected for it.
	conflictBySynced := map[string]*model.Conflict{}
	for _, c := range detection.Conflicts {
		if _, seen := conflictBySynced[c.SyncedRecord.ID]; !seen {
			conflictBySynced[c.SyncedRecord.ID] = c
		}
	}

	outcome := &SyncOutcome{
		Committed:     []*model.ActivityRecord{},
		HeldConflicts: []*model.Conflict{},
		HeldRecords:   []*model.HeldRecord{},
	}

	for _, rec := range newSynced {
		conflict, has := conflictBySynced[rec.ID]
		if !has {
			if err := s.commit(ctx, rec); err != nil {
				outcome.Errors = append(outcome.Errors, RecordError{RecordID: rec.ID, Error: err.Error()})
			}
			outcome.Committed = append(outcome.Committed, rec)
			continue
		}

		// a record already held from an earlier run keeps its original
		// conflict; re-running the batch must not mint a second one
		prior, err := s.Held.GetByID(ctx, rec.ID)
		if err != nil {
			outcome.Errors = append(outcome.Errors, RecordError{RecordID: rec.ID, Error: err.Error()})
		}
		if prior != nil {
			if existing, err := s.Conflicts.GetByID(ctx, prior.ConflictID); err != nil {
				outcome.Errors = append(outcome.Errors, RecordError{RecordID: rec.ID, Error: err.Error()})
			} else if existing != nil {
				conflict = existing
			}
			outcome.HeldConflicts = append(outcome.HeldConflicts, conflict)
			outcome.HeldRecords = append(outcome.HeldRecords, prior)
			continue
		}

		observability.ConflictsDetected.WithLabelValues(string(conflict.ConflictType)).Inc()

		if s.shouldAutoResolve(conflict, time.Now()) {
			if err := s.autoResolve(ctx, conflict); err != nil {
				// fall back to holding the record so nothing is lost
				log.Warn().Err(err).Str("conflict", conflict.ID).Msg("auto-resolution failed, holding record instead")
				held, herr := s.hold(ctx, conflict, rec)
				if herr != nil {
					outcome.Errors = append(outcome.Errors, RecordError{RecordID: rec.ID, Error: herr.Error()})
				}
				outcome.HeldConflicts = append(outcome.HeldConflicts, conflict)
				outcome.HeldRecords = append(outcome.HeldRecords, held)
				continue
			}
			outcome.AutoResolved++
			outcome.Committed = append(outcome.Committed, rec)
			continue
		}

		held, err := s.hold(ctx, conflict, rec)
		if err != nil {
			outcome.Errors = append(outcome.Errors, RecordError{RecordID: rec.ID, Error: err.Error()})
		}
		outcome.HeldConflicts = append(outcome.HeldConflicts, conflict)
		outcome.HeldRecords = append(outcome.HeldRecords, held)
	}

	modelcache.Flush()
	return outcome, nil
}

func (s *Preservation) commit(ctx context.Context, rec *model.ActivityRecord) error {
	if err := s.Records.Save(ctx, rec); err != nil {
		return err
	}
	return s.Audits.Append(ctx, model.AuditRecordCreated, model.Metadata{
		"recordId": model.StringValue(rec.ID),
		"origin":   model.StringValue(string(rec.Origin)),
	})
}

// shouldAutoResolve decides whether a conflict is settled without the user.
func (s *Preservation) shouldAutoResolve(conflict *model.Conflict, now time.Time) bool {
	if s.preserveAll {
		return false
	}

	confidence := conflict.SyncedRecord.Confidence(constant.DefaultConfidence)

	if confidence >= s.confidenceThresh {
		return true
	}
	if conflict.Age(now) > s.maxConflictAge {
		return true
	}
	if conflict.ConflictType == model.ConflictTypeDuplicateExercise && confidence > constant.DuplicateAutoResolveConfidence {
		return true
	}
	return false
}

// autoChoice is the fixed decision table for unattended resolution.
func (s *Preservation) autoChoice(conflict *model.Conflict) (model.ResolutionChoice, ResolveOptions) {
	confidence := conflict.SyncedRecord.Confidence(constant.DefaultConfidence)

	switch {
	case conflict.ConflictType == model.ConflictTypeDuplicateExercise && confidence > constant.DuplicateAutoResolveConfidence:
		return model.ChoiceKeepSynced, ResolveOptions{}
	case conflict.OverlapMinutes < constant.SmallOverlapMinutes:
		return model.ChoiceKeepBoth, ResolveOptions{}
	case confidence > constant.MergeAutoResolveConfidence:
		return model.ChoiceMerge, ResolveOptions{MergeStrategy: model.MergePreferSynced}
	default:
		return model.ChoiceKeepManual, ResolveOptions{}
	}
}

func (s *Preservation) autoResolve(ctx context.Context, conflict *model.Conflict) error {
	choice, opts := s.autoChoice(conflict)

	result, err := s.Resolver.Resolve(conflict, choice, opts)
	if err != nil {
		return err
	}

	for _, rec := range result.ResultingRecords {
		if err := s.Records.Save(ctx, rec); err != nil {
			return err
		}
	}

	conflict.Resolved = true
	resolvedAt := result.Resolution.ResolvedAt
	conflict.ResolvedAt = &resolvedAt
	if err := s.Conflicts.Save(ctx, conflict); err != nil {
		return err
	}

	result.Resolution.AutoResolved = true
	if err := s.Resolutions.Save(ctx, result.Resolution); err != nil {
		return err
	}

	observability.ConflictsAutoResolved.WithLabelValues(string(choice)).Inc()

	return s.Audits.Append(ctx, model.AuditConflictAutoResolved, model.Metadata{
		"conflictId": model.StringValue(conflict.ID),
		"choice":     model.StringValue(string(choice)),
		"type":       model.StringValue(string(conflict.ConflictType)),
	})
}

// hold withholds the synced record from main storage until its conflict is
// explicitly resolved.
func (s *Preservation) hold(ctx context.Context, conflict *model.Conflict, rec *model.ActivityRecord) (*model.HeldRecord, error) {
	now := time.Now()

	withheld := rec.Clone()
	withheld.Metadata[constant.MetaKeyHeldAt] = model.TimeValue(now)
	withheld.Metadata[constant.MetaKeyConflictID] = model.StringValue(conflict.ID)

	held := &model.HeldRecord{
		ID:         rec.ID,
		Record:     withheld,
		ConflictID: conflict.ID,
		HeldAt:     now,
	}

	if err := s.Conflicts.Save(ctx, conflict); err != nil {
		return held, err
	}
	if err := s.Held.Save(ctx, held); err != nil {
		return held, err
	}
	err := s.Audits.Append(ctx, model.AuditConflictDetected, model.Metadata{
		"conflictId": model.StringValue(conflict.ID),
		"recordId":   model.StringValue(rec.ID),
		"type":       model.StringValue(string(conflict.ConflictType)),
	})
	return held, err
}

// ResolvePreserved settles a held conflict with an explicit user choice.
func (s *Preservation) ResolvePreserved(ctx context.Context, conflictID string, choice model.ResolutionChoice, opts ResolveOptions) (*ResolveResult, error) {
	conflict, err := s.Conflicts.GetByID(ctx, conflictID)
	if err != nil {
		return nil, err
	}
	if conflict == nil {
		return nil, sterr.ErrNotFound.Msg("conflict %q not found", conflictID)
	}
	if conflict.Resolved {
		return nil, sterr.ErrInvalidReq.Msg("conflict %q is already resolved", conflictID)
	}

	result, err := s.Resolver.Resolve(conflict, choice, opts)
	if err != nil {
		return nil, err
	}

	for _, rec := range result.ResultingRecords {
		released := rec.Clone()
		delete(released.Metadata, constant.MetaKeyHeldAt)
		delete(released.Metadata, constant.MetaKeyConflictID)
		if err := s.Records.Save(ctx, released); err != nil {
			return nil, err
		}
	}

	if err := s.Resolutions.Save(ctx, result.Resolution); err != nil {
		return nil, err
	}
	if err := s.Held.DeleteByConflictID(ctx, conflictID); err != nil {
		return nil, err
	}
	if err := s.Conflicts.MarkResolved(ctx, conflictID, result.Resolution.ResolvedAt); err != nil {
		return nil, err
	}

	if err := s.Audits.Append(ctx, model.AuditConflictResolved, model.Metadata{
		"conflictId": model.StringValue(conflictID),
		"choice":     model.StringValue(string(choice)),
	}); err != nil {
		return nil, err
	}

	modelcache.Flush()
	return result, nil
}

// GetPreserved lists unresolved conflicts, read-through cached.
func (s *Preservation) GetPreserved(ctx context.Context) ([]*model.Conflict, error) {
	var conflicts []*model.Conflict
	err := modelcache.PreservedConflicts.MutexGetSet(&conflicts, func() ([]*model.Conflict, error) {
		return s.Conflicts.ListUnresolved(ctx)
	}, time.Minute)
	return conflicts, err
}

// GetConflict loads a single conflict by id, read-through cached. Unknown ids
// yield a not-found error rather than a nil conflict.
func (s *Preservation) GetConflict(ctx context.Context, id string) (*model.Conflict, error) {
	var conflict model.Conflict
	err := modelcache.ConflictByID.MutexGetSet(id, &conflict, func() (model.Conflict, error) {
		c, err := s.Conflicts.GetByID(ctx, id)
		if err != nil {
			return model.Conflict{}, err
		}
		if c == nil {
			return model.Conflict{}, sterr.ErrNotFound.Msg("conflict %q not found", id)
		}
		return *c, nil
	}, time.Minute)
	if err != nil {
		return nil, err
	}
	return &conflict, nil
}

// GetHeld lists records currently withheld from main storage.
func (s *Preservation) GetHeld(ctx context.Context) ([]*model.HeldRecord, error) {
	var held []*model.HeldRecord
	err := modelcache.HeldRecords.MutexGetSet(&held, func() ([]*model.HeldRecord, error) {
		return s.Held.List(ctx)
	}, time.Minute)
	return held, err
}

// Cleanup deletes resolved conflicts older than cutoff and trims the audit
// trail to its retention cap. Returns the number of conflicts removed.
func (s *Preservation) Cleanup(ctx context.Context, cutoff time.Time) (int, error) {
	deleted, err := s.Conflicts.DeleteResolvedBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if err := s.Audits.TrimTo(ctx, s.auditRetentionCap); err != nil {
		return deleted, err
	}
	modelcache.Flush()
	return deleted, nil
}

// ForceResolveOld applies auto-resolution to every preserved conflict older
// than the maximum conflict age, regardless of confidence. Returns the count
// resolved.
func (s *Preservation) ForceResolveOld(ctx context.Context) (int, error) {
	conflicts, err := s.Conflicts.ListUnresolved(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now()
	resolved := 0
	for _, conflict := range conflicts {
		if conflict.Age(now) <= s.maxConflictAge {
			continue
		}

		choice, opts := s.autoChoice(conflict)
		result, err := s.Resolver.Resolve(conflict, choice, opts)
		if err != nil {
			log.Warn().Err(err).Str("conflict", conflict.ID).Msg("force-resolution failed")
			continue
		}

		failed := false
		for _, rec := range result.ResultingRecords {
			released := rec.Clone()
			delete(released.Metadata, constant.MetaKeyHeldAt)
			delete(released.Metadata, constant.MetaKeyConflictID)
			if err := s.Records.Save(ctx, released); err != nil {
				log.Warn().Err(err).Str("conflict", conflict.ID).Msg("force-resolution persist failed")
				failed = true
				break
			}
		}
		if failed {
			continue
		}

		result.Resolution.AutoResolved = true
		if err := s.Resolutions.Save(ctx, result.Resolution); err != nil {
			return resolved, err
		}
		if err := s.Held.DeleteByConflictID(ctx, conflict.ID); err != nil {
			return resolved, err
		}
		if err := s.Conflicts.MarkResolved(ctx, conflict.ID, result.Resolution.ResolvedAt); err != nil {
			return resolved, err
		}
		if err := s.Audits.Append(ctx, model.AuditConflictAutoResolved, model.Metadata{
			"conflictId": model.StringValue(conflict.ID),
			"choice":     model.StringValue(string(choice)),
			"forced":     model.BoolValue(true),
		}); err != nil {
			return resolved, err
		}
		resolved++
	}

	if resolved > 0 {
		modelcache.Flush()
	}
	return resolved, nil
}

// ValidateState cross-checks the held-record/conflict join: every held record
// must reference a live preserved conflict and every preserved conflict must
// have its held record. Violations are reported, not repaired.
func (s *Preservation) ValidateState(ctx context.Context) ([]string, error) {
	conflicts, err := s.Conflicts.ListUnresolved(ctx)
	if err != nil {
		return nil, err
	}
	held, err := s.Held.List(ctx)
	if err != nil {
		return nil, err
	}

	byConflict := map[string]bool{}
	violations := []string{}

	for _, c := range conflicts {
		byConflict[c.ID] = false
	}
	for _, h := range held {
		if _, ok := byConflict[h.ConflictID]; !ok {
			violations = append(violations, "held record "+h.ID+" references missing conflict "+h.ConflictID)
			continue
		}
		byConflict[h.ConflictID] = true
	}
	for _, c := range conflicts {
		if !byConflict[c.ID] {
			violations = append(violations, "preserved conflict "+c.ID+" has no held record")
		}
	}

	return violations, nil
}
