package repo

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/stridefit/backend/internal/model"
)

type HeldRecord struct {
	DB *bun.DB
}

func NewHeldRecord(db *bun.DB) *HeldRecord {
	return &HeldRecord{DB: db}
}

func (r *HeldRecord) Save(ctx context.Context, held *model.HeldRecord) error {
	_, err := r.DB.NewInsert().
		Model(held).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	return err
}

func (r *HeldRecord) GetByID(ctx context.Context, id string) (*model.HeldRecord, error) {
	var held model.HeldRecord
	err := r.DB.NewSelect().
		Model(&held).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &held, nil
}

func (r *HeldRecord) GetByConflictID(ctx context.Context, conflictID string) (*model.HeldRecord, error) {
	var held model.HeldRecord
	err := r.DB.NewSelect().
		Model(&held).
		Where("conflict_id = ?", conflictID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &held, nil
}

func (r *HeldRecord) List(ctx context.Context) ([]*model.HeldRecord, error) {
	var held []*model.HeldRecord
	err := r.DB.NewSelect().
		Model(&held).
		Order("held_at ASC").
		Scan(ctx)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	return held, nil
}

func (r *HeldRecord) DeleteByConflictID(ctx context.Context, conflictID string) error {
	_, err := r.DB.NewDelete().
		Model((*model.HeldRecord)(nil)).
		Where("conflict_id = ?", conflictID).
		Exec(ctx)
	return err
}
