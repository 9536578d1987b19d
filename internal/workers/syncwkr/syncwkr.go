package syncwkr

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/fx"

	"github.com/stridefit/backend/internal/app/appconfig"
	"github.com/stridefit/backend/internal/pkg/observability"
	"github.com/stridefit/backend/internal/service"
)

type WorkerDeps struct {
	fx.In
	Preservation *service.Preservation
	Offline      *service.Offline
}

// Worker is the periodic maintenance loop: it force-resolves conflicts that
// have been preserved past the maximum age, purges resolved conflicts past
// retention, and keeps the connectivity probe running.
type Worker struct {
	// count counts batches worker has completed so far
	count int

	// interval describes the interval in-between different batches of job running
	interval time.Duration

	// timeout describes the timeout for a single batch to run
	timeout time.Duration

	// retention is how long resolved conflicts are kept before cleanup
	retention time.Duration

	// deps
	WorkerDeps
}

func Start(conf *appconfig.Config, deps WorkerDeps, lc fx.Lifecycle) {
	deps.Offline.StartProbe()
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			deps.Offline.Cleanup()
			return nil
		},
	})

	if !conf.WorkerEnabled {
		log.Info().Msg("worker is disabled due to configuration")
		return
	}

	w := &Worker{
		interval:   conf.WorkerInterval,
		timeout:    conf.WorkerTimeout,
		retention:  conf.ResolvedConflictRetention,
		WorkerDeps: deps,
	}
	cancel := w.do()

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			cancel()
			return nil
		},
	})
}

func (w *Worker) do() context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.interval):
			}

			log.Info().
				Int("count", w.count).
				Msg("worker batch started")

			batchCtx, batchCancel := context.WithTimeout(ctx, w.timeout)

			start := time.Now()
			resolved, err := w.Preservation.ForceResolveOld(batchCtx)
			observability.WorkerBatchDuration.WithLabelValues("force_resolve").Set(time.Since(start).Seconds())
			if err != nil {
				log.Error().Err(err).Msg("worker force-resolve failed")
			} else if resolved > 0 {
				log.Info().Int("resolved", resolved).Msg("worker force-resolved stale conflicts")
			}

			start = time.Now()
			deleted, err := w.Preservation.Cleanup(batchCtx, time.Now().Add(-w.retention))
			observability.WorkerBatchDuration.WithLabelValues("cleanup").Set(time.Since(start).Seconds())
			if err != nil {
				log.Error().Err(err).Msg("worker cleanup failed")
			} else if deleted > 0 {
				log.Info().Int("deleted", deleted).Msg("worker purged resolved conflicts")
			}

			batchCancel()

			log.Info().Int("count", w.count).Msg("worker batch finished")
			w.count++
		}
	}()

	return cancel
}

func (w *Worker) Count() int {
	return w.count
}
