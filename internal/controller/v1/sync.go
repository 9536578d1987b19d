package v1

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/stridefit/backend/internal/model"
	"github.com/stridefit/backend/internal/model/types"
	"github.com/stridefit/backend/internal/server/svr"
	"github.com/stridefit/backend/internal/service"
	"github.com/stridefit/backend/internal/util/rekuest"
)

type SyncController struct {
	Preservation *service.Preservation
	Offline      *service.Offline
	Retry        *service.Retry
}

func RegisterSync(v1 *svr.V1, preservation *service.Preservation, offline *service.Offline, retry *service.Retry) {
	c := &SyncController{
		Preservation: preservation,
		Offline:      offline,
		Retry:        retry,
	}

	v1.Post("/sync", c.Sync)
	v1.Get("/offline", c.GetOfflineStatus)
	v1.Post("/offline/drain", c.DrainQueue)
}

func (c *SyncController) Sync(ctx *fiber.Ctx) error {
	var request types.SyncBatchRequest
	if err := rekuest.ValidBody(ctx, &request); err != nil {
		return err
	}

	records := make([]*model.ActivityRecord, 0, len(request.Records))
	for _, r := range request.Records {
		records = append(records, r.ToRecord())
	}

	if err := c.Offline.GuardSync(); err != nil {
		c.Offline.Enqueue(&model.QueuedSyncOperation{
			Type:      model.SyncOpExercise,
			Platform:  model.Platform(request.Platform),
			Records:   records,
			Timestamp: time.Now(),
		})
		return err
	}

	var outcome *service.SyncOutcome
	result := c.Retry.Do(ctx.Context(), "sync:"+request.Platform, func(rctx context.Context) error {
		out, err := c.Preservation.SyncBatch(rctx, records)
		if err != nil {
			return err
		}
		outcome = out
		return nil
	})
	if result.Err != nil {
		return result.Err
	}

	return ctx.JSON(outcome)
}

// OfflineStatus is the queue visible to clients deciding whether to retry.
type OfflineStatus struct {
	Online       bool                         `json:"online"`
	PendingCount int                          `json:"pendingCount"`
	Pending      []*model.QueuedSyncOperation `json:"pending"`
}

func (c *SyncController) GetOfflineStatus(ctx *fiber.Ctx) error {
	pending := c.Offline.Pending()
	return ctx.JSON(OfflineStatus{
		Online:       c.Offline.Online(),
		PendingCount: len(pending),
		Pending:      pending,
	})
}

func (c *SyncController) DrainQueue(ctx *fiber.Ctx) error {
	c.Offline.Drain(ctx.Context())
	return ctx.SendStatus(fiber.StatusAccepted)
}
