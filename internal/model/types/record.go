package types

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/stridefit/backend/internal/model"
)

// ActivityRecordRequest is one incoming activity record, manual or synced.
type ActivityRecordRequest struct {
	ID              string         `json:"id" validate:"omitempty,max=64"`
	Name            string         `json:"name" validate:"required,max=256"`
	StartTime       time.Time      `json:"startTime" validate:"required"`
	DurationMinutes int            `json:"durationMinutes" validate:"required,min=1,max=1440"`
	Origin          string         `json:"origin" validate:"required,recordorigin"`
	Platform        string         `json:"platform" validate:"omitempty,max=64"`
	Metadata        model.Metadata `json:"metadata"`
}

// ToRecord materializes the request into a model record, minting an id when
// the caller did not supply one.
func (r *ActivityRecordRequest) ToRecord() *model.ActivityRecord {
	now := time.Now()

	rec := &model.ActivityRecord{
		ID:              r.ID,
		Name:            r.Name,
		StartTime:       r.StartTime,
		DurationMinutes: r.DurationMinutes,
		Origin:          model.Origin(r.Origin),
		Metadata:        r.Metadata,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if rec.ID == "" {
		rec.ID = ulid.Make().String()
	}
	if rec.Metadata == nil {
		rec.Metadata = model.Metadata{}
	}
	if r.Platform != "" {
		p := model.Platform(r.Platform)
		rec.Platform = &p
	}
	return rec
}

// SyncBatchRequest carries a batch of records arriving from a platform sync.
type SyncBatchRequest struct {
	Platform string                   `json:"platform" validate:"omitempty,max=64"`
	Records  []*ActivityRecordRequest `json:"records" validate:"required,min=1,max=500,dive"`
}
