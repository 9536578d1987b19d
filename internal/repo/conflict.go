package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/stridefit/backend/internal/model"
)

type Conflict struct {
	DB *bun.DB
}

func NewConflict(db *bun.DB) *Conflict {
	return &Conflict{DB: db}
}

func (r *Conflict) Save(ctx context.Context, conflict *model.Conflict) error {
	_, err := r.DB.NewInsert().
		Model(conflict).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	return err
}

func (r *Conflict) GetByID(ctx context.Context, id string) (*model.Conflict, error) {
	var conflict model.Conflict
	err := r.DB.NewSelect().
		Model(&conflict).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &conflict, nil
}

func (r *Conflict) ListUnresolved(ctx context.Context) ([]*model.Conflict, error) {
	var conflicts []*model.Conflict
	err := r.DB.NewSelect().
		Model(&conflicts).
		Where("resolved = FALSE").
		Order("detected_at ASC").
		Scan(ctx)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	return conflicts, nil
}

func (r *Conflict) MarkResolved(ctx context.Context, id string, resolvedAt time.Time) error {
	_, err := r.DB.NewUpdate().
		Model((*model.Conflict)(nil)).
		Set("resolved = TRUE").
		Set("resolved_at = ?", resolvedAt).
		Where("id = ?", id).
		Exec(ctx)
	return err
}

func (r *Conflict) DeleteResolvedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := r.DB.NewDelete().
		Model((*model.Conflict)(nil)).
		Where("resolved = TRUE").
		Where("resolved_at < ?", cutoff).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}
