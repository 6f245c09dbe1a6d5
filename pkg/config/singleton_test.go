package config

import (
	"sync"
	"testing"
)

func resetSingleton() {
	SetConfig(nil)
	initOnce = sync.Once{}
}

func TestInitialize(t *testing.T) {
	resetSingleton()
	t.Cleanup(resetSingleton)
	clearWebhookEnv(t)

	path := writeConfig(t, `
backup:
  dir: /tmp/first
`)
	if err := Initialize(path); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	cfg := GetConfig()
	if cfg == nil {
		t.Fatal("expected non-nil config after Initialize")
	}
	if cfg.Backup.Dir != "/tmp/first" {
		t.Errorf("Backup.Dir = %q", cfg.Backup.Dir)
	}

	second := writeConfig(t, `
backup:
  dir: /tmp/second
`)
	if err := Initialize(second); err != nil {
		t.Fatalf("second Initialize() error = %v", err)
	}
	if GetConfig().Backup.Dir != "/tmp/first" {
		t.Error("second Initialize call should be ignored")
	}
}

func TestReloadConfig(t *testing.T) {
	resetSingleton()
	t.Cleanup(resetSingleton)
	clearWebhookEnv(t)

	SetConfig(Default())

	good := writeConfig(t, `
webhook:
  url: https://hooks.example/new
`)
	cfg, err := ReloadConfig(good)
	if err != nil {
		t.Fatalf("ReloadConfig() error = %v", err)
	}
	if cfg.Webhook.URL != "https://hooks.example/new" || GetConfig() != cfg {
		t.Error("reloaded config was not installed")
	}

	bad := writeConfig(t, `
store:
  backend: nope
`)
	if _, err := ReloadConfig(bad); err == nil {
		t.Fatal("expected error reloading invalid config")
	}
	if GetConfig() != cfg {
		t.Error("failed reload replaced the configuration")
	}
}

func TestMustGetConfig_Panics(t *testing.T) {
	resetSingleton()
	t.Cleanup(resetSingleton)

	defer func() {
		if recover() == nil {
			t.Error("MustGetConfig() should panic before Initialize")
		}
	}()
	MustGetConfig()
}
