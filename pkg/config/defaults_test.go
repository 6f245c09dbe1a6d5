package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestApplyDefaults_Empty(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Store.Backend != DefaultStoreBackend {
		t.Errorf("Store.Backend = %q, want %q", cfg.Store.Backend, DefaultStoreBackend)
	}
	if cfg.Store.WaitTimeout != 30*time.Second {
		t.Errorf("Store.WaitTimeout = %v, want 30s", cfg.Store.WaitTimeout)
	}
	if !Bool(cfg.Store.SQLite.WALMode) {
		t.Error("Store.SQLite.WALMode should default to true")
	}
	if cfg.Retention.Schedule != "@every 168h" {
		t.Errorf("Retention.Schedule = %q", cfg.Retention.Schedule)
	}
	if !Bool(cfg.Retention.RunOnStart) || !Bool(cfg.Retention.Enabled) {
		t.Error("retention should be enabled and run on start by default")
	}
	if cfg.Backup.Hour == nil || *cfg.Backup.Hour != 2 {
		t.Errorf("Backup.Hour = %v, want 2", cfg.Backup.Hour)
	}
	if cfg.Backup.RetentionDays != 30 {
		t.Errorf("Backup.RetentionDays = %d, want 30", cfg.Backup.RetentionDays)
	}
	if cfg.Lock.Backend != "local" {
		t.Errorf("Lock.Backend = %q", cfg.Lock.Backend)
	}
	if cfg.Webhook.URL != "" {
		t.Error("webhook URL must not have a default")
	}

	if diff := cmp.Diff(DefaultRetentionClasses(), cfg.Retention.Classes); diff != "" {
		t.Errorf("Retention.Classes mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	off := false
	midnight := 0
	cfg := &Config{
		Retention: RetentionConfig{
			RunOnStart: &off,
			Classes:    []RetentionClassConfig{{Name: "sessions", MaxAgeDays: 1}},
		},
		Backup: BackupConfig{Hour: &midnight, RetentionDays: 7},
	}
	ApplyDefaults(cfg)

	if Bool(cfg.Retention.RunOnStart) {
		t.Error("explicit run_on_start=false was overwritten")
	}
	if *cfg.Backup.Hour != 0 {
		t.Errorf("explicit hour 0 was overwritten with %d", *cfg.Backup.Hour)
	}
	if cfg.Backup.RetentionDays != 7 {
		t.Errorf("RetentionDays = %d, want 7", cfg.Backup.RetentionDays)
	}

	want := []RetentionClassConfig{{
		Name:       "sessions",
		Collection: "sessions",
		TimeField:  DefaultRetentionTimeField,
		MaxAgeDays: 1,
	}}
	if diff := cmp.Diff(want, cfg.Retention.Classes); diff != "" {
		t.Errorf("Retention.Classes mismatch (-want +got):\n%s", diff)
	}
}

func TestDefault_IsValid(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default configuration is invalid: %v", err)
	}
}
