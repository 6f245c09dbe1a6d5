package config

import "time"

// Default values for configuration fields.
const (
	// Store defaults
	DefaultStoreBackend       = "sqlite"
	DefaultStoreWaitTimeout   = 30 * time.Second
	DefaultSQLitePath         = "data/giftpoints.db"
	DefaultSQLiteDriver       = "sqlite3"
	DefaultSQLiteMaxOpenConns = 10
	DefaultSQLiteWALMode      = true
	DefaultSQLiteBusyTimeout  = 5 * time.Second

	// Webhook defaults
	DefaultWebhookFooter    = "GiftPoints Activity"
	DefaultWebhookQueueSize = 256
	DefaultWebhookTimeout   = 10 * time.Second

	// Retention defaults
	DefaultRetentionEnabled    = true
	DefaultRetentionSchedule   = "@every 168h"
	DefaultRetentionRunOnStart = true
	DefaultRetentionTimeField  = "createdAt"
	DefaultOrderMaxAgeDays     = 7
	DefaultAttemptMaxAgeDays   = 14

	// Backup defaults
	DefaultBackupEnabled       = true
	DefaultBackupDir           = "backups"
	DefaultBackupHour          = 2
	DefaultBackupRetentionDays = 30
	DefaultBackupRunOnStart    = true

	// Lock defaults
	DefaultLockBackend    = "local"
	DefaultLockTTL        = time.Hour
	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisKeyPrefix = "custodian:lock:"

	// Server defaults
	DefaultServerListenAddress   = "127.0.0.1:8090"
	DefaultServerReadTimeout     = 15 * time.Second
	DefaultServerWriteTimeout    = 5 * time.Minute
	DefaultServerShutdownTimeout = 30 * time.Second

	// Telemetry defaults
	DefaultLoggingLevel   = "info"
	DefaultLoggingFormat  = "json"
	DefaultMetricsEnabled = true
	DefaultMetricsPath    = "/metrics"

	// TLS defaults
	DefaultTLSMinVersion     = "1.3"
	DefaultTLSReloadInterval = 5 * time.Minute

	// Tracing defaults
	DefaultTracingServiceName = "custodian"
	DefaultTracingSampler     = "always"
	DefaultTracingSampleRatio = 1.0
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingTimeout     = 10 * time.Second
)

// DefaultRetentionClasses returns the reference retention classes: settled
// orders expire 7 days after their last update, attempts 14 days after
// creation.
func DefaultRetentionClasses() []RetentionClassConfig {
	return []RetentionClassConfig{
		{
			Name:       "orders",
			Collection: "orders",
			TimeField:  "updatedAt",
			Statuses:   []string{"accepted", "rejected"},
			MaxAgeDays: DefaultOrderMaxAgeDays,
		},
		{
			Name:       "attempts",
			Collection: "attempts",
			TimeField:  "createdAt",
			MaxAgeDays: DefaultAttemptMaxAgeDays,
		},
	}
}

// ApplyDefaults fills zero-valued fields of cfg with their defaults.
// Optional flags (pointer fields) are only set when absent from the file,
// so an explicit "false" survives.
func ApplyDefaults(cfg *Config) {
	// Store defaults
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = DefaultStoreBackend
	}
	if cfg.Store.WaitTimeout == 0 {
		cfg.Store.WaitTimeout = DefaultStoreWaitTimeout
	}
	if cfg.Store.SQLite.Path == "" {
		cfg.Store.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Store.SQLite.Driver == "" {
		cfg.Store.SQLite.Driver = DefaultSQLiteDriver
	}
	if cfg.Store.SQLite.MaxOpenConns == 0 {
		cfg.Store.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	if cfg.Store.SQLite.WALMode == nil {
		cfg.Store.SQLite.WALMode = boolPtr(DefaultSQLiteWALMode)
	}
	if cfg.Store.SQLite.BusyTimeout == 0 {
		cfg.Store.SQLite.BusyTimeout = DefaultSQLiteBusyTimeout
	}

	// Webhook defaults
	if cfg.Webhook.Footer == "" {
		cfg.Webhook.Footer = DefaultWebhookFooter
	}
	if cfg.Webhook.QueueSize == 0 {
		cfg.Webhook.QueueSize = DefaultWebhookQueueSize
	}
	if cfg.Webhook.Timeout == 0 {
		cfg.Webhook.Timeout = DefaultWebhookTimeout
	}

	// Retention defaults
	if cfg.Retention.Enabled == nil {
		cfg.Retention.Enabled = boolPtr(DefaultRetentionEnabled)
	}
	if cfg.Retention.Schedule == "" {
		cfg.Retention.Schedule = DefaultRetentionSchedule
	}
	if cfg.Retention.RunOnStart == nil {
		cfg.Retention.RunOnStart = boolPtr(DefaultRetentionRunOnStart)
	}
	if cfg.Retention.Classes == nil {
		cfg.Retention.Classes = DefaultRetentionClasses()
	}
	for i := range cfg.Retention.Classes {
		if cfg.Retention.Classes[i].TimeField == "" {
			cfg.Retention.Classes[i].TimeField = DefaultRetentionTimeField
		}
		if cfg.Retention.Classes[i].Collection == "" {
			cfg.Retention.Classes[i].Collection = cfg.Retention.Classes[i].Name
		}
	}

	// Backup defaults
	if cfg.Backup.Enabled == nil {
		cfg.Backup.Enabled = boolPtr(DefaultBackupEnabled)
	}
	if cfg.Backup.Dir == "" {
		cfg.Backup.Dir = DefaultBackupDir
	}
	if cfg.Backup.Hour == nil {
		cfg.Backup.Hour = intPtr(DefaultBackupHour)
	}
	if cfg.Backup.RetentionDays == 0 {
		cfg.Backup.RetentionDays = DefaultBackupRetentionDays
	}
	if cfg.Backup.RunOnStart == nil {
		cfg.Backup.RunOnStart = boolPtr(DefaultBackupRunOnStart)
	}

	// Lock defaults
	if cfg.Lock.Backend == "" {
		cfg.Lock.Backend = DefaultLockBackend
	}
	if cfg.Lock.TTL == 0 {
		cfg.Lock.TTL = DefaultLockTTL
	}
	if cfg.Lock.Redis.Addr == "" {
		cfg.Lock.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Lock.Redis.KeyPrefix == "" {
		cfg.Lock.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// Server defaults
	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = DefaultServerListenAddress
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}
	if cfg.Server.TLS.MinVersion == "" {
		cfg.Server.TLS.MinVersion = DefaultTLSMinVersion
	}
	if cfg.Server.TLS.ReloadInterval == 0 {
		cfg.Server.TLS.ReloadInterval = DefaultTLSReloadInterval
	}

	// Telemetry defaults
	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Telemetry.Metrics.Enabled == nil {
		cfg.Telemetry.Metrics.Enabled = boolPtr(DefaultMetricsEnabled)
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Telemetry.Tracing.ServiceName == "" {
		cfg.Telemetry.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Telemetry.Tracing.Sampler == "" {
		cfg.Telemetry.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Telemetry.Tracing.SampleRatio == 0 {
		cfg.Telemetry.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Telemetry.Tracing.Endpoint == "" {
		cfg.Telemetry.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Telemetry.Tracing.Timeout == 0 {
		cfg.Telemetry.Tracing.Timeout = DefaultTracingTimeout
	}
}

// Default returns a fully defaulted configuration.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
