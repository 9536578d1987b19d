package service

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog/log"

	"github.com/stridefit/backend/internal/app/appconfig"
	"github.com/stridefit/backend/internal/constant"
	"github.com/stridefit/backend/internal/model"
	"github.com/stridefit/backend/internal/pkg/observability"
	"github.com/stridefit/backend/internal/pkg/sterr"
)

// OfflineEvent is what the offline manager tells its subscribers.
type OfflineEvent string

const (
	EventWentOffline  OfflineEvent = "went_offline"
	EventBackOnline   OfflineEvent = "back_online"
	EventPendingCount OfflineEvent = "pending_count"
)

// OfflineNotification is delivered to subscribers on every state change.
type OfflineNotification struct {
	Event        OfflineEvent `json:"event"`
	PendingCount int          `json:"pendingCount"`
	At           time.Time    `json:"at"`
}

// ConnectivityProbe reports whether the network is reachable right now.
type ConnectivityProbe func(ctx context.Context) bool

// SyncExecutor performs one queued sync operation. Platform adapters supply
// the real implementation.
type SyncExecutor func(ctx context.Context, op *model.QueuedSyncOperation) error

// Offline tracks connectivity, parks sync operations while offline, and
// drains them in FIFO order when connectivity returns. All state is owned
// here and mutated only through these methods.
type Offline struct {
	probeInterval time.Duration
	probe         ConnectivityProbe
	executor      SyncExecutor

	mu         sync.Mutex
	online     bool
	draining   bool
	cleanedUp  bool
	queue      []*model.QueuedSyncOperation
	listeners  map[int]func(OfflineNotification)
	nextListen int
	stopProbe  chan struct{}
}

func NewOffline(conf *appconfig.Config) *Offline {
	address := conf.ConnectivityProbeAddress
	return &Offline{
		probeInterval: conf.ConnectivityProbeInterval,
		probe:         dialProbe(address),
		online:        true,
		listeners:     map[int]func(OfflineNotification){},
	}
}

func dialProbe(address string) ConnectivityProbe {
	return func(ctx context.Context) bool {
		d := net.Dialer{Timeout: 5 * time.Second}
		conn, err := d.DialContext(ctx, "tcp", address)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}
}

// SetProbe replaces the connectivity probe. For tests and manual override.
func (o *Offline) SetProbe(probe ConnectivityProbe) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.probe = probe
}

// SetExecutor wires the sync executor the drain loop invokes per operation.
func (o *Offline) SetExecutor(executor SyncExecutor) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.executor = executor
}

// Online reports current connectivity.
func (o *Offline) Online() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.online
}

// SetOnline injects a connectivity transition. Going offline notifies
// subscribers; coming back online notifies and triggers a drain.
func (o *Offline) SetOnline(online bool) {
	o.mu.Lock()
	if o.cleanedUp || o.online == online {
		o.mu.Unlock()
		return
	}
	o.online = online
	pending := len(o.queue)
	o.mu.Unlock()

	if online {
		log.Info().Int("pending", pending).Msg("connectivity restored")
		o.notify(EventBackOnline, pending)
		o.Drain(context.Background())
	} else {
		log.Warn().Int("pending", pending).Msg("connectivity lost")
		o.notify(EventWentOffline, pending)
	}
}

// Subscribe registers a listener and returns its disposer.
func (o *Offline) Subscribe(fn func(OfflineNotification)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.nextListen
	o.nextListen++
	o.listeners[id] = fn

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.listeners, id)
	}
}

func (o *Offline) notify(event OfflineEvent, pending int) {
	o.mu.Lock()
	fns := make([]func(OfflineNotification), 0, len(o.listeners))
	for _, fn := range o.listeners {
		fns = append(fns, fn)
	}
	o.mu.Unlock()

	n := OfflineNotification{Event: event, PendingCount: pending, At: time.Now()}
	for _, fn := range fns {
		fn(n)
	}
}

// GuardSync rejects a sync attempt outright while offline, so callers queue
// instead of attempting the network.
func (o *Offline) GuardSync() error {
	if !o.Online() {
		return sterr.ErrOffline
	}
	return nil
}

// Enqueue parks a sync operation; if currently online the queue is drained
// immediately.
func (o *Offline) Enqueue(op *model.QueuedSyncOperation) {
	if op.ID == "" {
		op.ID = xid.New().String()
	}
	op.RetryCount = 0

	o.mu.Lock()
	if o.cleanedUp {
		o.mu.Unlock()
		return
	}
	o.queue = append(o.queue, op)
	pending := len(o.queue)
	online := o.online
	o.mu.Unlock()

	observability.OfflineQueueDepth.Set(float64(pending))
	o.notify(EventPendingCount, pending)

	if online {
		o.Drain(context.Background())
	}
}

// Pending returns a copy of the queued operations in order.
func (o *Offline) Pending() []*model.QueuedSyncOperation {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]*model.QueuedSyncOperation, len(o.queue))
	copy(out, o.queue)
	return out
}

// Drain processes queued operations strictly in insertion order. A single
// pass runs to completion before another may start; overlapping triggers
// collapse into the pass already running. An operation failing its third
// attempt is dropped with a warning.
func (o *Offline) Drain(ctx context.Context) {
	o.mu.Lock()
	if o.draining || o.cleanedUp || !o.online || o.executor == nil {
		o.mu.Unlock()
		return
	}
	o.draining = true
	batch := o.queue
	o.queue = nil
	o.mu.Unlock()

	var retained []*model.QueuedSyncOperation
	for i, op := range batch {
		o.mu.Lock()
		stopped := o.cleanedUp || !o.online
		o.mu.Unlock()
		if stopped {
			retained = append(retained, batch[i:]...)
			break
		}

		now := time.Now()
		op.LastAttempt = &now
		err := o.executor(ctx, op)
		if err == nil {
			continue
		}

		op.RetryCount++
		if op.RetryCount >= constant.QueueRetryCeiling {
			log.Warn().
				Str("op", op.ID).
				Str("type", string(op.Type)).
				Int("retries", op.RetryCount).
				Err(err).
				Msg("dropping queued sync operation after retry ceiling")
			continue
		}
		retained = append(retained, op)
	}

	o.mu.Lock()
	// operations enqueued during the pass keep their place behind the retained ones
	o.queue = append(retained, o.queue...)
	pending := len(o.queue)
	o.draining = false
	o.mu.Unlock()

	observability.OfflineQueueDepth.Set(float64(pending))
	o.notify(EventPendingCount, pending)
}

// StartProbe begins periodic connectivity probing. Stops on Cleanup.
func (o *Offline) StartProbe() {
	o.mu.Lock()
	if o.cleanedUp || o.stopProbe != nil {
		o.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	o.stopProbe = stop
	probe := o.probe
	interval := o.probeInterval
	o.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), interval)
				o.SetOnline(probe(ctx))
				cancel()
			}
		}
	}()
}

// Cleanup stops the probe, clears listeners and marks the manager done;
// in-flight work checks the flag before further side effects. Idempotent.
func (o *Offline) Cleanup() {
	o.mu.Lock()
	if o.cleanedUp {
		o.mu.Unlock()
		return
	}
	o.cleanedUp = true
	if o.stopProbe != nil {
		close(o.stopProbe)
		o.stopProbe = nil
	}
	o.listeners = map[int]func(OfflineNotification){}
	o.mu.Unlock()
}
