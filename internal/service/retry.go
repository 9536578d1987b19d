package service

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	retrygo "github.com/avast/retry-go/v4"

	"github.com/stridefit/backend/internal/app/appconfig"
	"github.com/stridefit/backend/internal/pkg/observability"
	"github.com/stridefit/backend/internal/pkg/sterr"
)

// Retry is the shared backoff engine: exponential delays with jitter for
// retryable sync failures, a hard attempt ceiling, and per-operation counters
// that reset on success or on a terminal outcome.
type Retry struct {
	baseDelay   time.Duration
	maxDelay    time.Duration
	multiplier  float64
	maxAttempts int

	mu       sync.Mutex
	counters map[string]int
}

func NewRetry(conf *appconfig.Config) *Retry {
	return &Retry{
		baseDelay:   conf.RetryBaseDelay,
		maxDelay:    conf.RetryMaxDelay,
		multiplier:  conf.RetryMultiplier,
		maxAttempts: conf.RetryMaxAttempts,
		counters:    map[string]int{},
	}
}

// RetryOutcome is the terminal result of driving one operation through the
// engine.
type RetryOutcome struct {
	Attempts          int           `json:"attempts"`
	MaxRetriesReached bool          `json:"maxRetriesReached"`
	NextRetryDelay    time.Duration `json:"nextRetryDelay"`
	Err               error         `json:"-"`
}

// NextDelay computes the scheduled delay before the given attempt (1-based):
// min(base × multiplier^(attempt-1), max) plus up to 10% random jitter.
func (r *Retry) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(r.baseDelay) * math.Pow(r.multiplier, float64(attempt-1))
	if delay > float64(r.maxDelay) {
		delay = float64(r.maxDelay)
	}
	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}

// Attempts reports the in-session attempt count for an operation key.
func (r *Retry) Attempts(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[key]
}

func (r *Retry) reset(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.counters, key)
}

func (r *Retry) bump(key string, attempts int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[key] = attempts
}

// Do runs op, retrying retryable failures with the engine's delay law until
// the attempt ceiling. Non-retryable failures stop immediately. Either way a
// terminal failure reports MaxRetriesReached with no further delay scheduled,
// and the operation's counter resets.
func (r *Retry) Do(ctx context.Context, key string, op func(ctx context.Context) error) RetryOutcome {
	attempts := 0

	err := retrygo.Do(
		func() error {
			attempts++
			r.bump(key, attempts)
			return op(ctx)
		},
		retrygo.Context(ctx),
		retrygo.Attempts(uint(r.maxAttempts)),
		retrygo.LastErrorOnly(true),
		retrygo.RetryIf(sterr.IsRetryable),
		retrygo.DelayType(func(n uint, _ error, _ *retrygo.Config) time.Duration {
			// n is the zero-based count of failures so far
			return r.NextDelay(int(n) + 1)
		}),
	)

	r.reset(key)

	if err != nil {
		observability.SyncRetryAttempts.WithLabelValues("exhausted").Inc()
		return RetryOutcome{
			Attempts:          attempts,
			MaxRetriesReached: true,
			NextRetryDelay:    0,
			Err:               err,
		}
	}

	observability.SyncRetryAttempts.WithLabelValues("success").Inc()
	return RetryOutcome{Attempts: attempts}
}
