package appconfig

import (
	"time"

	"github.com/stridefit/backend/internal/app/appcontext"
)

type ConfigSpec struct {
	// ServiceAddress is the listen address the server would listen on for serving normal service requests.
	ServiceAddress string `required:"true" split_words:"true" default:"localhost:9040"`

	// LogJsonStdout is whether to log JSON logs (instead of pretty-print logs) to stdout for the ease of log collection.
	LogJsonStdout bool `split_words:"true" default:"false"`

	// DevMode to indicate development mode. When true, the program would provide a more contextual message when
	// encountered a panic and lower the log level to trace.
	DevMode bool `split_words:"true"`

	// PostgresDSN is the data source name for the PostgreSQL database. See
	// https://bun.uptrace.dev/postgres/#pgdriver for more details on how to construct a PostgreSQL DSN.
	PostgresDSN string `required:"true" split_words:"true"`

	PostgresMaxOpenConns    int           `split_words:"true" default:"10"`
	PostgresMaxIdleConns    int           `split_words:"true" default:"2"`
	PostgresConnMaxLifeTime time.Duration `split_words:"true" default:"5m"`
	PostgresConnMaxIdleTime time.Duration `split_words:"true" default:"5m"`

	BunDebugVerbose bool `split_words:"true"`

	// HTTPServerShutdownTimeout is the timeout for the HTTP server to shut down gracefully.
	HTTPServerShutdownTimeout time.Duration `required:"true" split_words:"true" default:"60s"`

	// ConflictOverlapThresholdMinutes is the minimum whole-minute overlap between a manual and a synced
	// record for the pair to be considered a conflict at all.
	ConflictOverlapThresholdMinutes int `split_words:"true" default:"5"`

	// AutoResolveConfidenceThreshold is the minimum sync confidence at which a detected conflict is
	// resolved automatically instead of being held for manual resolution.
	AutoResolveConfidenceThreshold float64 `split_words:"true" default:"0.95"`

	// MaxConflictAge is the age past which a held conflict is force-resolved regardless of confidence.
	MaxConflictAge time.Duration `split_words:"true" default:"720h"`

	// PreserveAllConflicts disables auto-resolution entirely; every detected conflict is held.
	PreserveAllConflicts bool `split_words:"true"`

	// ResolvedConflictRetention is how long resolved conflicts are kept before cleanup deletes them.
	ResolvedConflictRetention time.Duration `split_words:"true" default:"2160h"`

	// AuditRetentionCap is the number of most recent audit entries kept by cleanup.
	AuditRetentionCap int `split_words:"true" default:"100"`

	// ConnectivityProbeInterval is the interval in-between connectivity probes of the offline manager.
	ConnectivityProbeInterval time.Duration `split_words:"true" default:"30s"`

	// ConnectivityProbeAddress is the TCP address dialed by the default connectivity probe.
	ConnectivityProbeAddress string `split_words:"true" default:"1.1.1.1:443"`

	// RetryBaseDelay is the first retry delay of the backoff engine.
	RetryBaseDelay time.Duration `split_words:"true" default:"1s"`

	// RetryMaxDelay caps the backoff delay.
	RetryMaxDelay time.Duration `split_words:"true" default:"30s"`

	// RetryMultiplier is the exponential backoff multiplier.
	RetryMultiplier float64 `split_words:"true" default:"2"`

	// RetryMaxAttempts is the in-session retry ceiling before an operation is queued offline.
	RetryMaxAttempts int `split_words:"true" default:"3"`

	// WorkerInterval describes the interval in-between different maintenance batches
	// (force-resolving stale conflicts and cleaning up resolved ones).
	WorkerInterval time.Duration `required:"true" split_words:"true" default:"10m"`

	// WorkerTimeout describes the timeout for a single maintenance batch to run.
	WorkerTimeout time.Duration `required:"true" split_words:"true" default:"10m"`

	// WorkerEnabled is a flag to indicate whether to enable the maintenance worker.
	WorkerEnabled bool `split_words:"true"`
}

type Config struct {
	// ConfigSpec is the configuration specification injected to the config.
	ConfigSpec

	// AppContext is the application context
	AppContext appcontext.Ctx
}
