package config

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	resetSingleton()
	t.Cleanup(resetSingleton)
	clearWebhookEnv(t)

	path := writeConfig(t, `
webhook:
  url: https://hooks.example/old
`)

	w, err := NewWatcher(path, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx, func(c *Config) { reloaded <- c }) }()

	// Give the watch loop a moment to start consuming events.
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte("webhook:\n  url: https://hooks.example/new\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Webhook.URL != "https://hooks.example/new" {
			t.Errorf("Webhook.URL = %q", cfg.Webhook.URL)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}

func TestWatcher_InvalidFileKeepsPrevious(t *testing.T) {
	resetSingleton()
	t.Cleanup(resetSingleton)
	clearWebhookEnv(t)

	path := writeConfig(t, "backup:\n  hour: 2\n")
	w, err := NewWatcher(path, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *Config, 4)
	go w.Watch(ctx, func(c *Config) { reloaded <- c })
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte("backup:\n  hour: 99\n"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-reloaded:
		t.Fatal("invalid configuration must not be delivered")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestNewWatcher_RequiresPath(t *testing.T) {
	if _, err := NewWatcher("", 0); err == nil {
		t.Error("expected error for empty path")
	}
}
