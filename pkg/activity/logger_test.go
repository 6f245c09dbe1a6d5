package activity_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"giftpoints/custodian/internal/activitytest"
	"giftpoints/custodian/pkg/activity"
)

func newTestLogger(t *testing.T, opts ...activity.Option) (*activity.Logger, *activitytest.RecordingSink, *activitytest.Metrics) {
	t.Helper()
	sink := activitytest.NewRecordingSink()
	metrics := activitytest.NewMetrics()
	config := activity.DefaultConfig()
	config.URL = "https://hooks.example.test/api/webhooks/1/secret-token"
	opts = append([]activity.Option{activity.WithSink(sink), activity.WithMetrics(metrics)}, opts...)
	return activity.NewLogger(config, opts...), sink, metrics
}

func TestLogger_NoEndpointMakesNoNetworkCalls(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	metrics := activitytest.NewMetrics()
	logger := activity.NewLogger(activity.DefaultConfig(), activity.WithMetrics(metrics))

	logger.LogLogin("alice", true, nil)
	logger.LogCleanupSummary(map[string]int{"orders": 3})
	logger.Close()

	if n := hits.Load(); n != 0 {
		t.Errorf("server received %d requests, want 0", n)
	}
	if logger.Enabled() {
		t.Error("Enabled() = true without endpoint")
	}
	if n := metrics.Count("login", activity.OutcomeDisabled); n != 1 {
		t.Errorf("disabled count = %d, want 1", n)
	}
}

func TestLogger_DeliversOverHTTP(t *testing.T) {
	received := make(chan activity.Message, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var msg activity.Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Errorf("decode: %v", err)
		}
		received <- msg
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	config := activity.DefaultConfig()
	config.URL = server.URL
	logger := activity.NewLogger(config)

	logger.LogRegistration("bob", "bob@example.com", &activity.RequestContext{IP: "192.0.2.1"})
	logger.Close()

	select {
	case msg := <-received:
		embed := msg.Embeds[0]
		if !strings.Contains(embed.Title, "User Registration") {
			t.Errorf("Title = %q", embed.Title)
		}
		if embed.Fields[0].Value != "192.0.2.1" {
			t.Errorf("IP field = %q", embed.Fields[0].Value)
		}
		if embed.Fields[3].Value != "bo***@example.com" {
			t.Errorf("email field = %q, want masked", embed.Fields[3].Value)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("webhook never received the message")
	}
}

func TestWebhookSink_ErrorsHideEndpoint(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	sink := activity.NewWebhookSink(time.Second)
	endpoint := server.URL + "/api/webhooks/1/secret-token"

	err := sink.Send(t.Context(), endpoint, &activity.Message{})
	var de *activity.DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("expected DeliveryError, got %v", err)
	}
	if de.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d", de.StatusCode)
	}

	server.Close()
	err = sink.Send(t.Context(), endpoint, &activity.Message{})
	if err == nil {
		t.Fatal("expected error from closed server")
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Errorf("error leaks endpoint: %v", err)
	}
}

func TestLogger_DeliveryFailureIsSwallowed(t *testing.T) {
	logger, sink, metrics := newTestLogger(t)
	sink.Err = errors.New("boom")

	logger.LogLogout("alice", nil)
	logger.Close()

	if n := metrics.Count("logout", activity.OutcomeFailed); n != 1 {
		t.Errorf("failed count = %d, want 1", n)
	}
}

func TestLogger_CloseDrainsQueue(t *testing.T) {
	logger, sink, metrics := newTestLogger(t)

	for i := 0; i < 10; i++ {
		logger.LogFormSubmission("alice", "survey", i, nil)
	}
	logger.Close()

	if n := len(sink.Deliveries()); n != 10 {
		t.Errorf("delivered %d, want 10", n)
	}
	if n := metrics.Count("form_submission", activity.OutcomeSent); n != 10 {
		t.Errorf("sent count = %d, want 10", n)
	}

	logger.LogLogin("late", true, nil)
	if n := metrics.Count("login", activity.OutcomeDropped); n != 1 {
		t.Errorf("dropped after close = %d, want 1", n)
	}
}

type sinkFunc func(msg *activity.Message) error

func (f sinkFunc) Send(_ context.Context, _ string, msg *activity.Message) error {
	return f(msg)
}

func TestLogger_FullQueueDrops(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var first atomic.Bool
	sink := sinkFunc(func(msg *activity.Message) error {
		if first.CompareAndSwap(false, true) {
			close(started)
			<-release
		}
		return nil
	})
	metrics := activitytest.NewMetrics()

	config := activity.DefaultConfig()
	config.URL = "https://hooks.example.test/x"
	config.QueueSize = 1
	logger := activity.NewLogger(config, activity.WithSink(sink), activity.WithMetrics(metrics))

	logger.LogLogin("a", true, nil)
	<-started
	logger.LogLogin("b", true, nil)
	logger.LogLogin("c", true, nil)
	close(release)
	logger.Close()

	if n := metrics.Count("login", activity.OutcomeDropped); n != 1 {
		t.Errorf("dropped = %d, want 1", n)
	}
	if n := metrics.Count("login", activity.OutcomeSent); n != 2 {
		t.Errorf("sent = %d, want 2", n)
	}
}

func TestLogger_SetEndpoint(t *testing.T) {
	logger, sink, _ := newTestLogger(t)

	logger.SetEndpoint("")
	logger.LogLogin("a", true, nil)
	logger.SetEndpoint("https://hooks.example.test/new")
	logger.LogLogin("b", true, nil)
	logger.Close()

	ds := sink.Deliveries()
	if len(ds) != 1 {
		t.Fatalf("delivered %d, want 1", len(ds))
	}
	if ds[0].Endpoint != "https://hooks.example.test/new" {
		t.Errorf("Endpoint = %q", ds[0].Endpoint)
	}
}

func TestLogger_NilIsSafe(t *testing.T) {
	var logger *activity.Logger
	logger.LogLogin("a", true, nil)
	logger.SetEndpoint("x")
	if logger.Enabled() {
		t.Error("nil logger should not be enabled")
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}
