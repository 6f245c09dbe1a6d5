// Package config provides configuration management for custodian.
//
// Configuration is read from a YAML file, completed with defaults, overridden
// from the environment and validated as a whole.
//
// # Loading
//
//	cfg, err := config.LoadConfigWithEnvOverrides("custodian.yaml")
//
// An empty path skips the file and starts from defaults.
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention CUSTODIAN_SECTION_FIELD:
//
//   - CUSTODIAN_STORE_SQLITE_PATH overrides store.sqlite.path
//   - CUSTODIAN_BACKUP_HOUR overrides backup.hour
//   - CUSTODIAN_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// The webhook URL is special: the first non-empty of CUSTODIAN_WEBHOOK_URL,
// DISCORD_WEBHOOK_URL, DISCORD_LOG_WEBHOOK_URL, LOG_WEBHOOK_URL and
// WEBHOOK_URL wins over webhook.url. When none is set and the file has no
// URL, activity notifications are disabled.
//
// # Precedence
//
//  1. Default values (defaults.go)
//  2. Values from the YAML file
//  3. Environment variable overrides
//  4. Validation (fails fast, reporting every invalid field)
//
// # Reloading
//
// Watcher observes the configuration file and calls back with each valid
// new configuration; the CLI uses it to swap the webhook endpoint of the
// running activity logger without a restart.
package config
