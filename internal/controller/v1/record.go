package v1

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/stridefit/backend/internal/model"
	"github.com/stridefit/backend/internal/model/types"
	"github.com/stridefit/backend/internal/server/svr"
	"github.com/stridefit/backend/internal/service"
	"github.com/stridefit/backend/internal/util/rekuest"
)

type RecordController struct {
	Records  service.RecordStore
	Detector *service.Detector
}

func RegisterRecord(v1 *svr.V1, records service.RecordStore, detector *service.Detector) {
	c := &RecordController{
		Records:  records,
		Detector: detector,
	}

	v1.Get("/records", c.GetRecords)
	v1.Get("/records/:recordId", c.GetRecordByID)
	v1.Post("/records", c.CreateRecord)
	v1.Delete("/records/:recordId", c.DeleteRecord)
}

func (c *RecordController) GetRecords(ctx *fiber.Ctx) error {
	from := ctx.QueryInt("from", 0)
	to := ctx.QueryInt("to", 0)

	if from > 0 && to > 0 {
		records, err := c.Records.ListByTimeWindow(ctx.Context(), time.Unix(int64(from), 0), time.Unix(int64(to), 0))
		if err != nil {
			return err
		}
		return ctx.JSON(records)
	}

	records, err := c.Records.List(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(records)
}

func (c *RecordController) GetRecordByID(ctx *fiber.Ctx) error {
	record, err := c.Records.GetByID(ctx.Context(), ctx.Params("recordId"))
	if err != nil {
		return err
	}
	if record == nil {
		return fiber.ErrNotFound
	}
	return ctx.JSON(record)
}

// CreateRecordResponse reports the stored record along with the conflicts it
// would raise against counter-origin records already in storage. Detection is
// advisory here; conflicts get persisted by the next sync cycle.
type CreateRecordResponse struct {
	Record    *model.ActivityRecord `json:"record"`
	Conflicts []*model.Conflict     `json:"conflicts"`
}

func (c *RecordController) CreateRecord(ctx *fiber.Ctx) error {
	var request types.ActivityRecordRequest
	if err := rekuest.ValidBody(ctx, &request); err != nil {
		return err
	}

	record := request.ToRecord()
	if err := c.Records.Save(ctx.Context(), record); err != nil {
		return err
	}

	existing, err := c.Records.List(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(CreateRecordResponse{
		Record:    record,
		Conflicts: c.Detector.ConflictsFor(record, existing),
	})
}

func (c *RecordController) DeleteRecord(ctx *fiber.Ctx) error {
	if err := c.Records.Delete(ctx.Context(), ctx.Params("recordId")); err != nil {
		return err
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}
