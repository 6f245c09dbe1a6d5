package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{
			name:   "defaults",
			modify: func(*Config) {},
		},
		{
			name:      "unknown store backend",
			modify:    func(c *Config) { c.Store.Backend = "mongo" },
			wantField: "store.backend",
		},
		{
			name:      "unknown sqlite driver",
			modify:    func(c *Config) { c.Store.SQLite.Driver = "pg" },
			wantField: "store.sqlite.driver",
		},
		{
			name: "memory backend ignores sqlite settings",
			modify: func(c *Config) {
				c.Store.Backend = "memory"
				c.Store.SQLite.Path = ""
			},
		},
		{
			name:      "relative webhook url",
			modify:    func(c *Config) { c.Webhook.URL = "/api/webhooks/1/token" },
			wantField: "webhook.url",
		},
		{
			name:      "bad cron schedule",
			modify:    func(c *Config) { c.Retention.Schedule = "every tuesday" },
			wantField: "retention.schedule",
		},
		{
			name: "duplicate class",
			modify: func(c *Config) {
				c.Retention.Classes = append(c.Retention.Classes, c.Retention.Classes[0])
			},
			wantField: "retention.classes[2].name",
		},
		{
			name:      "zero max age",
			modify:    func(c *Config) { c.Retention.Classes[1].MaxAgeDays = 0 },
			wantField: "retention.classes[1].max_age_days",
		},
		{
			name:      "negative hour",
			modify:    func(c *Config) { *c.Backup.Hour = -1 },
			wantField: "backup.hour",
		},
		{
			name:      "unknown lock backend",
			modify:    func(c *Config) { c.Lock.Backend = "etcd" },
			wantField: "lock.backend",
		},
		{
			name: "server address checked only when enabled",
			modify: func(c *Config) {
				c.Server.ListenAddress = "nonsense"
			},
		},
		{
			name: "bad server address",
			modify: func(c *Config) {
				c.Server.Enabled = true
				c.Server.ListenAddress = "nonsense"
			},
			wantField: "server.listen_address",
		},
		{
			name: "tls key without cert",
			modify: func(c *Config) {
				c.Server.Enabled = true
				c.Server.TLS.KeyFile = "/etc/custodian/tls.key"
			},
			wantField: "server.tls.cert_file",
		},
		{
			name: "tls 1.1 rejected",
			modify: func(c *Config) {
				c.Server.Enabled = true
				c.Server.TLS.MinVersion = "1.1"
			},
			wantField: "server.tls.min_version",
		},
		{
			name:      "bad log level",
			modify:    func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			wantField: "telemetry.logging.level",
		},
		{
			name:   "tracing sampler checked only when enabled",
			modify: func(c *Config) { c.Telemetry.Tracing.Sampler = "sometimes" },
		},
		{
			name: "bad tracing sampler",
			modify: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Sampler = "sometimes"
			},
			wantField: "telemetry.tracing.sampler",
		},
		{
			name: "tracing ratio out of range",
			modify: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.SampleRatio = 1.5
			},
			wantField: "telemetry.tracing.sample_ratio",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := Validate(cfg)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %q, got %v", tt.wantField, verr.Errors)
			}
		})
	}
}

func TestValidate_WebhookURLNotEchoed(t *testing.T) {
	cfg := Default()
	cfg.Webhook.URL = "ftp://host/secret-token"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Errorf("validation error leaks webhook URL: %v", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	one := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if got := one.Error(); got != "configuration validation failed: a: bad" {
		t.Errorf("Error() = %q", got)
	}

	two := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	if got := two.Error(); !strings.Contains(got, "2 errors") || !strings.Contains(got, "b: worse") {
		t.Errorf("Error() = %q", got)
	}
}
