package v1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/stridefit/backend/internal/model"
	"github.com/stridefit/backend/internal/model/types"
	"github.com/stridefit/backend/internal/server/svr"
	"github.com/stridefit/backend/internal/service"
	"github.com/stridefit/backend/internal/util/rekuest"
)

type ConflictController struct {
	Preservation *service.Preservation
	Resolver     *service.Resolver
	Resolutions  service.ResolutionStore
}

func RegisterConflict(v1 *svr.V1, preservation *service.Preservation, resolver *service.Resolver, resolutions service.ResolutionStore) {
	c := &ConflictController{
		Preservation: preservation,
		Resolver:     resolver,
		Resolutions:  resolutions,
	}

	v1.Get("/conflicts", c.GetConflicts)
	v1.Get("/conflicts/:conflictId", c.GetConflictByID)
	v1.Post("/conflicts/:conflictId/resolve", c.ResolveConflict)
	v1.Get("/conflicts/:conflictId/resolution", c.GetResolution)
	v1.Get("/resolutions", c.GetResolutions)
	v1.Get("/held", c.GetHeldRecords)
}

// ConflictDetail is one unresolved conflict together with its derived
// presentation and the non-binding recommendation.
type ConflictDetail struct {
	Conflict       *model.Conflict               `json:"conflict"`
	Presentation   *service.ConflictPresentation `json:"presentation"`
	Recommendation service.Recommendation        `json:"recommendation"`
}

func (c *ConflictController) GetConflicts(ctx *fiber.Ctx) error {
	conflicts, err := c.Preservation.GetPreserved(ctx.Context())
	if err != nil {
		return err
	}

	details := make([]*ConflictDetail, 0, len(conflicts))
	for _, conflict := range conflicts {
		details = append(details, &ConflictDetail{
			Conflict:       conflict,
			Presentation:   c.Resolver.Present(conflict),
			Recommendation: c.Resolver.Recommend(conflict),
		})
	}
	return ctx.JSON(details)
}

func (c *ConflictController) GetConflictByID(ctx *fiber.Ctx) error {
	conflictID := ctx.Params("conflictId")

	conflict, err := c.Preservation.GetConflict(ctx.Context(), conflictID)
	if err != nil {
		return err
	}

	return ctx.JSON(&ConflictDetail{
		Conflict:       conflict,
		Presentation:   c.Resolver.Present(conflict),
		Recommendation: c.Resolver.Recommend(conflict),
	})
}

func (c *ConflictController) ResolveConflict(ctx *fiber.Ctx) error {
	conflictID := ctx.Params("conflictId")

	var request types.ResolveConflictRequest
	if err := rekuest.ValidBody(ctx, &request); err != nil {
		return err
	}

	result, err := c.Preservation.ResolvePreserved(ctx.Context(), conflictID, model.ResolutionChoice(request.Choice), service.ResolveOptions{
		UserNotes:        request.UserNotes,
		PreserveMetadata: request.PreserveMetadata,
		MergeStrategy:    model.MergeStrategy(request.MergeStrategy),
	})
	if err != nil {
		return err
	}

	return ctx.JSON(result)
}

func (c *ConflictController) GetResolution(ctx *fiber.Ctx) error {
	conflictID := ctx.Params("conflictId")

	resolution, err := c.Resolutions.GetByConflictID(ctx.Context(), conflictID)
	if err != nil {
		return err
	}
	if resolution == nil {
		return fiber.ErrNotFound
	}
	return ctx.JSON(resolution)
}

func (c *ConflictController) GetResolutions(ctx *fiber.Ctx) error {
	resolutions, err := c.Resolutions.List(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(resolutions)
}

func (c *ConflictController) GetHeldRecords(ctx *fiber.Ctx) error {
	held, err := c.Preservation.GetHeld(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(held)
}
