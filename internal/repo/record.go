package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"

	"github.com/stridefit/backend/internal/model"
)

type Record struct {
	DB *bun.DB
}

func NewRecord(db *bun.DB) *Record {
	return &Record{DB: db}
}

// Save upserts by id so re-running an interrupted sync cycle stays idempotent.
func (r *Record) Save(ctx context.Context, record *model.ActivityRecord) error {
	_, err := r.DB.NewInsert().
		Model(record).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("start_time = EXCLUDED.start_time").
		Set("duration_minutes = EXCLUDED.duration_minutes").
		Set("metadata = EXCLUDED.metadata").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (r *Record) GetByID(ctx context.Context, id string) (*model.ActivityRecord, error) {
	var record model.ActivityRecord
	err := r.DB.NewSelect().
		Model(&record).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return &record, nil
}

func (r *Record) List(ctx context.Context) ([]*model.ActivityRecord, error) {
	var records []*model.ActivityRecord
	err := r.DB.NewSelect().
		Model(&records).
		Order("start_time ASC").
		Scan(ctx)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	return records, nil
}

func (r *Record) ListByTimeWindow(ctx context.Context, from, to time.Time) ([]*model.ActivityRecord, error) {
	var records []*model.ActivityRecord
	err := r.DB.NewSelect().
		Model(&records).
		Where("start_time >= ?", from).
		Where("start_time < ?", to).
		Order("start_time ASC").
		Scan(ctx)

	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	return records, nil
}

func (r *Record) Delete(ctx context.Context, id string) error {
	_, err := r.DB.NewDelete().
		Model((*model.ActivityRecord)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
