package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridefit/backend/internal/app/appconfig"
	"github.com/stridefit/backend/internal/model"
	"github.com/stridefit/backend/internal/pkg/sterr"
)

func newTestOffline() *Offline {
	return NewOffline(&appconfig.Config{ConfigSpec: appconfig.ConfigSpec{
		ConnectivityProbeInterval: time.Minute,
		ConnectivityProbeAddress:  "127.0.0.1:1",
	}})
}

func op(id string) *model.QueuedSyncOperation {
	return &model.QueuedSyncOperation{
		ID:        id,
		Type:      model.SyncOpExercise,
		Platform:  model.PlatformFitbit,
		Timestamp: time.Now(),
	}
}

func TestOfflineGuard(t *testing.T) {
	o := newTestOffline()
	defer o.Cleanup()

	assert.NoError(t, o.GuardSync(), "manager starts online")

	o.SetOnline(false)
	err := o.GuardSync()
	require.Error(t, err)
	assert.ErrorIs(t, err, sterr.ErrOffline)
}

func TestOfflineQueueDrainsFIFO(t *testing.T) {
	o := newTestOffline()
	defer o.Cleanup()

	var executed []string
	o.SetExecutor(func(_ context.Context, op *model.QueuedSyncOperation) error {
		executed = append(executed, op.ID)
		return nil
	})

	o.SetOnline(false)
	o.Enqueue(op("a"))
	o.Enqueue(op("b"))
	o.Enqueue(op("c"))

	require.Len(t, o.Pending(), 3)
	assert.Empty(t, executed, "nothing runs while offline")

	o.SetOnline(true)

	assert.Equal(t, []string{"a", "b", "c"}, executed)
	assert.Empty(t, o.Pending())
}

func TestOfflineEnqueueWhileOnlineDrainsImmediately(t *testing.T) {
	o := newTestOffline()
	defer o.Cleanup()

	var executed []string
	o.SetExecutor(func(_ context.Context, op *model.QueuedSyncOperation) error {
		executed = append(executed, op.ID)
		return nil
	})

	o.Enqueue(op("a"))
	assert.Equal(t, []string{"a"}, executed)
	assert.Empty(t, o.Pending())
}

func TestOfflineRetryCeiling(t *testing.T) {
	o := newTestOffline()
	defer o.Cleanup()

	attempts := map[string]int{}
	o.SetExecutor(func(_ context.Context, op *model.QueuedSyncOperation) error {
		attempts[op.ID]++
		if op.ID == "bad" {
			return sterr.NewRetryable("platform unavailable")
		}
		return nil
	})

	o.SetOnline(false)
	o.Enqueue(op("bad"))
	o.Enqueue(op("good"))

	// each transition to online runs one drain pass
	for i := 0; i < 3; i++ {
		o.SetOnline(true)
		o.SetOnline(false)
	}

	assert.Equal(t, 3, attempts["bad"], "dropped after the third failed attempt")
	assert.Equal(t, 1, attempts["good"])
	assert.Empty(t, o.Pending())
}

func TestOfflineFailedOpKeepsQueuePosition(t *testing.T) {
	o := newTestOffline()
	defer o.Cleanup()

	fail := true
	var executed []string
	o.SetExecutor(func(_ context.Context, op *model.QueuedSyncOperation) error {
		executed = append(executed, op.ID)
		if op.ID == "a" && fail {
			return sterr.NewRetryable("transient")
		}
		return nil
	})

	o.SetOnline(false)
	o.Enqueue(op("a"))
	o.Enqueue(op("b"))
	o.SetOnline(true)

	// a failed once and is retained, b succeeded
	require.Len(t, o.Pending(), 1)
	assert.Equal(t, "a", o.Pending()[0].ID)
	assert.Equal(t, 1, o.Pending()[0].RetryCount)

	fail = false
	o.Drain(context.Background())
	assert.Equal(t, []string{"a", "b", "a"}, executed)
	assert.Empty(t, o.Pending())
}

func TestOfflineNotifications(t *testing.T) {
	o := newTestOffline()
	defer o.Cleanup()

	var events []OfflineEvent
	dispose := o.Subscribe(func(n OfflineNotification) {
		events = append(events, n.Event)
	})

	o.SetOnline(false)
	require.Equal(t, []OfflineEvent{EventWentOffline}, events)

	o.Enqueue(op("a"))
	require.Equal(t, []OfflineEvent{EventWentOffline, EventPendingCount}, events)

	dispose()
	o.SetOnline(true)
	assert.Len(t, events, 2, "disposed listener receives nothing")
}

func TestOfflineCleanup(t *testing.T) {
	o := newTestOffline()

	o.Cleanup()
	o.Cleanup()

	o.Enqueue(op("a"))
	assert.Empty(t, o.Pending(), "enqueue after cleanup is ignored")

	o.SetOnline(false)
	assert.True(t, o.Online(), "transitions after cleanup are ignored")
}
