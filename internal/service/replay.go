package service

import (
	"context"

	"github.com/stridefit/backend/internal/model"
)

// WireReplay connects the offline queue to the preservation pipeline, so a
// batch parked while offline re-enters a normal sync cycle once the queue
// drains. Conflict detection applies to replayed batches the same as live
// ones.
func WireReplay(offline *Offline, preservation *Preservation) {
	offline.SetExecutor(func(ctx context.Context, op *model.QueuedSyncOperation) error {
		if len(op.Records) == 0 {
			return nil
		}
		_, err := preservation.SyncBatch(ctx, op.Records)
		return err
	})
}
