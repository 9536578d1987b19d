package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/xid"
	"github.com/uptrace/bun"

	"github.com/stridefit/backend/internal/constant"
	"github.com/stridefit/backend/internal/model"
)

type Audit struct {
	DB *bun.DB
}

func NewAudit(db *bun.DB) *Audit {
	return &Audit{DB: db}
}

// Append inserts an audit entry and trims history beyond the retention cap.
func (r *Audit) Append(ctx context.Context, action model.AuditAction, details model.Metadata) error {
	entry := &model.AuditRecord{
		ID:        xid.New().String(),
		Action:    action,
		Details:   details,
		CreatedAt: time.Now(),
	}
	if _, err := r.DB.NewInsert().Model(entry).Exec(ctx); err != nil {
		return err
	}
	return r.TrimTo(ctx, constant.AuditRetentionCap)
}

func (r *Audit) List(ctx context.Context) ([]*model.AuditRecord, error) {
	var entries []*model.AuditRecord
	err := r.DB.NewSelect().
		Model(&entries).
		Order("created_at DESC").
		Scan(ctx)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	return entries, nil
}

// TrimTo keeps only the keep most recent entries.
func (r *Audit) TrimTo(ctx context.Context, keep int) error {
	_, err := r.DB.NewDelete().
		Model((*model.AuditRecord)(nil)).
		Where("id NOT IN (?)", r.DB.NewSelect().
			Model((*model.AuditRecord)(nil)).
			Column("id").
			Order("created_at DESC").
			Limit(keep)).
		Exec(ctx)
	return err
}

func (r *Audit) DeleteBefore(ctx context.Context, cutoff time.Time) error {
	_, err := r.DB.NewDelete().
		Model((*model.AuditRecord)(nil)).
		Where("created_at < ?", cutoff).
		Exec(ctx)
	return err
}
