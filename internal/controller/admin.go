package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"

	"github.com/stridefit/backend/internal/app/appconfig"
	"github.com/stridefit/backend/internal/model/types"
	"github.com/stridefit/backend/internal/server/svr"
	"github.com/stridefit/backend/internal/service"
	"github.com/stridefit/backend/internal/util/rekuest"
)

type AdminController struct {
	fx.In

	Config       *appconfig.Config
	Preservation *service.Preservation
	Offline      *service.Offline
	Audits       service.AuditStore
}

func RegisterAdmin(admin *svr.Admin, c AdminController) {
	admin.Post("/cleanup", c.Cleanup)
	admin.Post("/force-resolve", c.ForceResolveOld)
	admin.Get("/state", c.ValidateState)
	admin.Post("/connectivity", c.SetConnectivity)
	admin.Get("/audit", c.GetAuditTrail)
}

func (c AdminController) Cleanup(ctx *fiber.Ctx) error {
	cutoff := time.Now().Add(-c.Config.ResolvedConflictRetention)

	deleted, err := c.Preservation.Cleanup(ctx.Context(), cutoff)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"deleted": deleted,
		"cutoff":  cutoff,
	})
}

func (c AdminController) ForceResolveOld(ctx *fiber.Ctx) error {
	resolved, err := c.Preservation.ForceResolveOld(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"resolved": resolved,
	})
}

func (c AdminController) ValidateState(ctx *fiber.Ctx) error {
	violations, err := c.Preservation.ValidateState(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"consistent": len(violations) == 0,
		"violations": violations,
	})
}

func (c AdminController) SetConnectivity(ctx *fiber.Ctx) error {
	var request types.ConnectivityRequest
	if err := rekuest.ValidBody(ctx, &request); err != nil {
		return err
	}
	c.Offline.SetOnline(request.Online)
	return ctx.JSON(fiber.Map{
		"online": c.Offline.Online(),
	})
}

func (c AdminController) GetAuditTrail(ctx *fiber.Ctx) error {
	audits, err := c.Audits.List(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(audits)
}
