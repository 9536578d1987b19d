package service

import (
	"context"
	"sort"
	"time"

	"github.com/stridefit/backend/internal/model"
)

// In-memory stand-ins for the bun-backed repos.

type fakeRecordStore struct {
	records map[string]*model.ActivityRecord
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{records: map[string]*model.ActivityRecord{}}
}

func (f *fakeRecordStore) Save(_ context.Context, record *model.ActivityRecord) error {
	f.records[record.ID] = record
	return nil
}

func (f *fakeRecordStore) GetByID(_ context.Context, id string) (*model.ActivityRecord, error) {
	return f.records[id], nil
}

func (f *fakeRecordStore) List(_ context.Context) ([]*model.ActivityRecord, error) {
	out := make([]*model.ActivityRecord, 0, len(f.records))
	for _, r := range f.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRecordStore) ListByTimeWindow(ctx context.Context, from, to time.Time) ([]*model.ActivityRecord, error) {
	all, _ := f.List(ctx)
	out := []*model.ActivityRecord{}
	for _, r := range all {
		if !r.StartTime.Before(from) && r.StartTime.Before(to) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRecordStore) Delete(_ context.Context, id string) error {
	delete(f.records, id)
	return nil
}

type fakeConflictStore struct {
	conflicts map[string]*model.Conflict
}

func newFakeConflictStore() *fakeConflictStore {
	return &fakeConflictStore{conflicts: map[string]*model.Conflict{}}
}

func (f *fakeConflictStore) Save(_ context.Context, conflict *model.Conflict) error {
	f.conflicts[conflict.ID] = conflict
	return nil
}

func (f *fakeConflictStore) GetByID(_ context.Context, id string) (*model.Conflict, error) {
	return f.conflicts[id], nil
}

func (f *fakeConflictStore) ListUnresolved(_ context.Context) ([]*model.Conflict, error) {
	out := []*model.Conflict{}
	for _, c := range f.conflicts {
		if !c.Resolved {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeConflictStore) MarkResolved(_ context.Context, id string, resolvedAt time.Time) error {
	if c, ok := f.conflicts[id]; ok {
		c.Resolved = true
		c.ResolvedAt = &resolvedAt
	}
	return nil
}

func (f *fakeConflictStore) DeleteResolvedBefore(_ context.Context, cutoff time.Time) (int, error) {
	deleted := 0
	for id, c := range f.conflicts {
		if c.Resolved && c.ResolvedAt != nil && c.ResolvedAt.Before(cutoff) {
			delete(f.conflicts, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeHeldStore struct {
	held map[string]*model.HeldRecord // by conflict id
}

func newFakeHeldStore() *fakeHeldStore {
	return &fakeHeldStore{held: map[string]*model.HeldRecord{}}
}

func (f *fakeHeldStore) Save(_ context.Context, held *model.HeldRecord) error {
	f.held[held.ConflictID] = held
	return nil
}

func (f *fakeHeldStore) GetByID(_ context.Context, id string) (*model.HeldRecord, error) {
	for _, h := range f.held {
		if h.ID == id {
			return h, nil
		}
	}
	return nil, nil
}

func (f *fakeHeldStore) GetByConflictID(_ context.Context, conflictID string) (*model.HeldRecord, error) {
	return f.held[conflictID], nil
}

func (f *fakeHeldStore) List(_ context.Context) ([]*model.HeldRecord, error) {
	out := make([]*model.HeldRecord, 0, len(f.held))
	for _, h := range f.held {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeHeldStore) DeleteByConflictID(_ context.Context, conflictID string) error {
	delete(f.held, conflictID)
	return nil
}

type fakeResolutionStore struct {
	resolutions []*model.ConflictResolution
}

func newFakeResolutionStore() *fakeResolutionStore {
	return &fakeResolutionStore{}
}

func (f *fakeResolutionStore) Save(_ context.Context, resolution *model.ConflictResolution) error {
	f.resolutions = append(f.resolutions, resolution)
	return nil
}

func (f *fakeResolutionStore) GetByConflictID(_ context.Context, conflictID string) (*model.ConflictResolution, error) {
	for _, r := range f.resolutions {
		if r.ConflictID == conflictID {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeResolutionStore) List(_ context.Context) ([]*model.ConflictResolution, error) {
	return f.resolutions, nil
}

type fakeAuditStore struct {
	audits []*model.AuditRecord
}

func newFakeAuditStore() *fakeAuditStore {
	return &fakeAuditStore{}
}

func (f *fakeAuditStore) Append(_ context.Context, action model.AuditAction, details model.Metadata) error {
	f.audits = append(f.audits, &model.AuditRecord{
		Action:    action,
		Details:   details,
		CreatedAt: time.Now(),
	})
	return nil
}

func (f *fakeAuditStore) List(_ context.Context) ([]*model.AuditRecord, error) {
	return f.audits, nil
}

func (f *fakeAuditStore) TrimTo(_ context.Context, keep int) error {
	if len(f.audits) > keep {
		f.audits = f.audits[len(f.audits)-keep:]
	}
	return nil
}

func (f *fakeAuditStore) DeleteBefore(_ context.Context, cutoff time.Time) error {
	out := f.audits[:0]
	for _, a := range f.audits {
		if !a.CreatedAt.Before(cutoff) {
			out = append(out, a)
		}
	}
	f.audits = out
	return nil
}

func (f *fakeAuditStore) actions() []model.AuditAction {
	out := make([]model.AuditAction, 0, len(f.audits))
	for _, a := range f.audits {
		out = append(out, a.Action)
	}
	return out
}
