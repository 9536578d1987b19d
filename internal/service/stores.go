package service

import (
	"context"
	"time"

	"github.com/stridefit/backend/internal/model"
)

// The preservation service talks to storage through these interfaces; the
// bun-backed implementations live in internal/repo, and tests substitute
// in-memory fakes.

type RecordStore interface {
	Save(ctx context.Context, record *model.ActivityRecord) error
	GetByID(ctx context.Context, id string) (*model.ActivityRecord, error)
	List(ctx context.Context) ([]*model.ActivityRecord, error)
	ListByTimeWindow(ctx context.Context, from, to time.Time) ([]*model.ActivityRecord, error)
	Delete(ctx context.Context, id string) error
}

type ConflictStore interface {
	Save(ctx context.Context, conflict *model.Conflict) error
	GetByID(ctx context.Context, id string) (*model.Conflict, error)
	ListUnresolved(ctx context.Context) ([]*model.Conflict, error)
	MarkResolved(ctx context.Context, id string, resolvedAt time.Time) error
	DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type HeldStore interface {
	Save(ctx context.Context, held *model.HeldRecord) error
	GetByID(ctx context.Context, id string) (*model.HeldRecord, error)
	GetByConflictID(ctx context.Context, conflictID string) (*model.HeldRecord, error)
	List(ctx context.Context) ([]*model.HeldRecord, error)
	DeleteByConflictID(ctx context.Context, conflictID string) error
}

type ResolutionStore interface {
	Save(ctx context.Context, resolution *model.ConflictResolution) error
	GetByConflictID(ctx context.Context, conflictID string) (*model.ConflictResolution, error)
	List(ctx context.Context) ([]*model.ConflictResolution, error)
}

type AuditStore interface {
	Append(ctx context.Context, action model.AuditAction, details model.Metadata) error
	List(ctx context.Context) ([]*model.AuditRecord, error)
	TrimTo(ctx context.Context, keep int) error
	DeleteBefore(ctx context.Context, cutoff time.Time) error
}
