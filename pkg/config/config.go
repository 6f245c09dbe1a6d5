package config

import "time"

// Config is the root configuration structure for custodian.
// It contains the record store connection, the activity webhook, the
// retention and backup schedules, and the ambient service settings.
type Config struct {
	// Store selects and configures the record store backend.
	Store StoreConfig `yaml:"store"`

	// Webhook configures the activity notification channel.
	Webhook WebhookConfig `yaml:"webhook"`

	// Retention configures the periodic cleanup of expired records.
	Retention RetentionConfig `yaml:"retention"`

	// Backup configures full snapshots of the record store.
	Backup BackupConfig `yaml:"backup"`

	// Lock selects how overlapping scheduler runs are prevented.
	Lock LockConfig `yaml:"lock"`

	// Server configures the admin HTTP API.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// StoreConfig contains configuration for the record store.
type StoreConfig struct {
	// Backend is the storage backend: "sqlite" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// WaitTimeout bounds how long backup and restore wait for the store
	// to become reachable.
	// Default: 30s
	WaitTimeout time.Duration `yaml:"wait_timeout"`

	// SQLite contains SQLite-specific configuration.
	SQLite SQLiteConfig `yaml:"sqlite"`
}

// SQLiteConfig contains SQLite backend configuration.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/giftpoints.db"
	Path string `yaml:"path"`

	// Driver is "sqlite3" (cgo) or "sqlite" (pure Go).
	// Default: "sqlite3"
	Driver string `yaml:"driver"`

	// Database is the logical database name written into backups.
	// Default: derived from Path.
	Database string `yaml:"database"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// WALMode enables Write-Ahead Logging.
	// Default: true
	WALMode *bool `yaml:"wal_mode"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// WebhookConfig contains configuration for the activity webhook.
type WebhookConfig struct {
	// URL is the webhook endpoint. It is a secret: the path embeds the
	// token. Empty disables activity notifications.
	URL string `yaml:"url"`

	// Mention is a role mention placed in every message, e.g. "<@&123>".
	Mention string `yaml:"mention"`

	// Username overrides the webhook display name.
	Username string `yaml:"username"`

	// Footer is shown beneath every embed.
	// Default: "GiftPoints Activity"
	Footer string `yaml:"footer"`

	// QueueSize bounds undelivered notifications.
	// Default: 256
	QueueSize int `yaml:"queue_size"`

	// Timeout bounds a single delivery.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// RetentionConfig contains configuration for scheduled cleanup.
type RetentionConfig struct {
	// Enabled turns the retention scheduler on.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Schedule is a cron expression or descriptor.
	// Default: "@every 168h"
	Schedule string `yaml:"schedule"`

	// RunOnStart triggers one run as soon as the scheduler starts.
	// Default: true
	RunOnStart *bool `yaml:"run_on_start"`

	// Classes lists the record classes subject to retention.
	// Default: accepted/rejected orders after 7 days, attempts after 14 days.
	Classes []RetentionClassConfig `yaml:"classes"`
}

// RetentionClassConfig describes one class of expiring records.
type RetentionClassConfig struct {
	// Name identifies the class in audit entries and summaries.
	Name string `yaml:"name"`

	// Collection is the store collection holding the records.
	Collection string `yaml:"collection"`

	// TimeField is the timestamp compared against the cutoff.
	// Default: "createdAt"
	TimeField string `yaml:"time_field"`

	// Statuses restricts the class to records in one of these states.
	// Empty matches every status.
	Statuses []string `yaml:"statuses"`

	// MaxAgeDays is the age after which a record expires.
	MaxAgeDays int `yaml:"max_age_days"`
}

// BackupConfig contains configuration for backups.
type BackupConfig struct {
	// Enabled turns the backup scheduler on.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Dir is where backup manifests are written.
	// Default: "backups"
	Dir string `yaml:"dir"`

	// Hour is the local hour (0-23) of the daily backup.
	// Default: 2
	Hour *int `yaml:"hour"`

	// RetentionDays is how long manifests are kept.
	// Default: 30
	RetentionDays int `yaml:"retention_days"`

	// RunOnStart takes one backup as soon as the scheduler starts.
	// Default: true
	RunOnStart *bool `yaml:"run_on_start"`

	// Pretty indents manifest JSON.
	// Default: false
	Pretty bool `yaml:"pretty"`
}

// LockConfig contains configuration for scheduler locks.
type LockConfig struct {
	// Backend is "local" or "redis".
	// Default: "local"
	Backend string `yaml:"backend"`

	// TTL bounds how long a redis lock is held without release.
	// Default: 1h
	TTL time.Duration `yaml:"ttl"`

	// Redis contains redis connection settings.
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig contains redis connection settings.
type RedisConfig struct {
	// Addr is the "host:port" of the redis server.
	// Default: "localhost:6379"
	Addr string `yaml:"addr"`

	// Password authenticates to redis. Optional.
	Password string `yaml:"password"`

	// DB selects the redis database.
	DB int `yaml:"db"`

	// KeyPrefix namespaces lock keys.
	// Default: "custodian:lock:"
	KeyPrefix string `yaml:"key_prefix"`
}

// ServerConfig contains configuration for the admin HTTP API.
type ServerConfig struct {
	// Enabled turns the admin API on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ListenAddress is "host:port".
	// Default: "127.0.0.1:8090"
	ListenAddress string `yaml:"listen_address"`

	// AdminToken, when set, is required as a bearer token on /api routes.
	AdminToken string `yaml:"admin_token"`

	// ReadTimeout bounds reading a request.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writing a response. Restores can be slow.
	// Default: 5m
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// TLS serves the admin API over HTTPS when a certificate is set.
	TLS TLSConfig `yaml:"tls"`
}

// TLSConfig contains admin API TLS configuration.
type TLSConfig struct {
	// CertFile is the PEM certificate chain. Empty disables TLS.
	CertFile string `yaml:"cert_file"`

	// KeyFile is the PEM private key.
	KeyFile string `yaml:"key_file"`

	// MinVersion is "1.2" or "1.3".
	// Default: "1.3"
	MinVersion string `yaml:"min_version"`

	// ReloadInterval is how often the files are checked for renewal.
	// Default: 5m
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

// Enabled reports whether a certificate is configured.
func (c TLSConfig) Enabled() bool {
	return c.CertFile != ""
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes the source location in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains metrics configuration.
type MetricsConfig struct {
	// Enabled exposes Prometheus metrics on the admin server.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the metrics endpoint path.
	// Default: "/metrics"
	Path string `yaml:"path"`
}

// TracingConfig contains OpenTelemetry tracing configuration. Spans cover
// retention runs, backups, restores and admin API requests.
type TracingConfig struct {
	// Enabled turns on span export.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "custodian"
	ServiceName string `yaml:"service_name"`

	// Sampler is "always", "never" or "ratio".
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces kept when Sampler is "ratio".
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure"`

	// Timeout bounds each export.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// Bool dereferences an optional flag, treating nil as false.
func Bool(b *bool) bool {
	return b != nil && *b
}

func boolPtr(b bool) *bool { return &b }

func intPtr(i int) *int { return &i }
