package repo

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/stridefit/backend/internal/model"
)

type Resolution struct {
	DB *bun.DB
}

func NewResolution(db *bun.DB) *Resolution {
	return &Resolution{DB: db}
}

func (r *Resolution) Save(ctx context.Context, resolution *model.ConflictResolution) error {
	_, err := r.DB.NewInsert().
		Model(resolution).
		Exec(ctx)
	return err
}

func (r *Resolution) GetByConflictID(ctx context.Context, conflictID string) (*model.ConflictResolution, error) {
	var resolution model.ConflictResolution
	err := r.DB.NewSelect().
		Model(&resolution).
		Where("conflict_id = ?", conflictID).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &resolution, nil
}

func (r *Resolution) List(ctx context.Context) ([]*model.ConflictResolution, error) {
	var resolutions []*model.ConflictResolution
	err := r.DB.NewSelect().
		Model(&resolutions).
		Order("resolved_at DESC").
		Scan(ctx)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	return resolutions, nil
}
