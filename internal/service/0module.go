package service

import (
	"go.uber.org/fx"

	"github.com/stridefit/backend/internal/repo"
)

func Module() fx.Option {
	return fx.Module("service", fx.Provide(
		NewRetry,
		NewOffline,
		NewDetector,
		NewResolver,
		NewPreservation,

		// bind the bun-backed repos to the store interfaces the services accept
		func(r *repo.Record) RecordStore { return r },
		func(r *repo.Conflict) ConflictStore { return r },
		func(r *repo.HeldRecord) HeldStore { return r },
		func(r *repo.Resolution) ResolutionStore { return r },
		func(r *repo.Audit) AuditStore { return r },
	))
}
