package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CUSTODIAN_"

// WebhookEnvVars lists the environment variables consulted for the webhook
// URL, in order. The first non-empty one wins over the file value.
var WebhookEnvVars = []string{
	"CUSTODIAN_WEBHOOK_URL",
	"DISCORD_WEBHOOK_URL",
	"DISCORD_LOG_WEBHOOK_URL",
	"LOG_WEBHOOK_URL",
	"WEBHOOK_URL",
}

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
// An empty path yields the defaults. Environment variables are not consulted;
// use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention CUSTODIAN_SECTION_FIELD (e.g., CUSTODIAN_STORE_SQLITE_PATH) and
// always take precedence over the file.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// ResolveWebhookURL returns the first non-empty WebhookEnvVars value, or
// fallback when none is set.
func ResolveWebhookURL(fallback string) string {
	for _, name := range WebhookEnvVars {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) {
	// Store overrides
	setString(&cfg.Store.Backend, "STORE_BACKEND")
	setDuration(&cfg.Store.WaitTimeout, "STORE_WAIT_TIMEOUT")
	setString(&cfg.Store.SQLite.Path, "STORE_SQLITE_PATH")
	setString(&cfg.Store.SQLite.Driver, "STORE_SQLITE_DRIVER")
	setString(&cfg.Store.SQLite.Database, "STORE_SQLITE_DATABASE")

	// Webhook overrides
	cfg.Webhook.URL = ResolveWebhookURL(cfg.Webhook.URL)
	setString(&cfg.Webhook.Mention, "WEBHOOK_MENTION")
	setString(&cfg.Webhook.Username, "WEBHOOK_USERNAME")
	setDuration(&cfg.Webhook.Timeout, "WEBHOOK_TIMEOUT")

	// Retention overrides
	setBoolPtr(&cfg.Retention.Enabled, "RETENTION_ENABLED")
	setString(&cfg.Retention.Schedule, "RETENTION_SCHEDULE")
	setBoolPtr(&cfg.Retention.RunOnStart, "RETENTION_RUN_ON_START")

	// Backup overrides
	setBoolPtr(&cfg.Backup.Enabled, "BACKUP_ENABLED")
	setString(&cfg.Backup.Dir, "BACKUP_DIR")
	if val := os.Getenv(EnvPrefix + "BACKUP_HOUR"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			cfg.Backup.Hour = intPtr(i)
		}
	}
	setInt(&cfg.Backup.RetentionDays, "BACKUP_RETENTION_DAYS")
	setBoolPtr(&cfg.Backup.RunOnStart, "BACKUP_RUN_ON_START")

	// Lock overrides
	setString(&cfg.Lock.Backend, "LOCK_BACKEND")
	setDuration(&cfg.Lock.TTL, "LOCK_TTL")
	setString(&cfg.Lock.Redis.Addr, "LOCK_REDIS_ADDR")
	setString(&cfg.Lock.Redis.Password, "LOCK_REDIS_PASSWORD")
	setInt(&cfg.Lock.Redis.DB, "LOCK_REDIS_DB")

	// Server overrides
	if val := os.Getenv(EnvPrefix + "SERVER_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Server.Enabled = b
		}
	}
	setString(&cfg.Server.ListenAddress, "SERVER_LISTEN_ADDRESS")
	setString(&cfg.Server.AdminToken, "SERVER_ADMIN_TOKEN")
	setString(&cfg.Server.TLS.CertFile, "SERVER_TLS_CERT_FILE")
	setString(&cfg.Server.TLS.KeyFile, "SERVER_TLS_KEY_FILE")

	// Telemetry overrides
	setString(&cfg.Telemetry.Logging.Level, "TELEMETRY_LOGGING_LEVEL")
	setString(&cfg.Telemetry.Logging.Format, "TELEMETRY_LOGGING_FORMAT")
	setBoolPtr(&cfg.Telemetry.Metrics.Enabled, "TELEMETRY_METRICS_ENABLED")
	if val := os.Getenv(EnvPrefix + "TELEMETRY_TRACING_ENABLED"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.Telemetry.Tracing.Enabled = b
		}
	}
	setString(&cfg.Telemetry.Tracing.Endpoint, "TELEMETRY_TRACING_ENDPOINT")
}

func setString(dst *string, key string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func setBoolPtr(dst **bool, key string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = boolPtr(b)
		}
	}
}
