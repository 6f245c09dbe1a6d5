package activity

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Delivery outcomes reported to Metrics.
const (
	OutcomeSent     = "sent"
	OutcomeFailed   = "failed"
	OutcomeDropped  = "dropped"
	OutcomeDisabled = "disabled"
)

// Config contains configuration for the activity logger.
type Config struct {
	// URL is the webhook endpoint. Empty disables delivery entirely.
	URL string

	// Mention is appended to every message content, e.g. "<@&1234>".
	Mention string

	// Username overrides the webhook's display name.
	Username string

	// Footer is shown beneath every embed.
	Footer string

	// QueueSize bounds the number of undelivered messages.
	// Default: 256
	QueueSize int

	// Timeout bounds a single delivery attempt.
	// Default: 10 seconds
	Timeout time.Duration
}

// DefaultConfig returns the default activity logger configuration.
func DefaultConfig() *Config {
	return &Config{
		Footer:    "GiftPoints Activity",
		QueueSize: 256,
		Timeout:   10 * time.Second,
	}
}

// Metrics receives one observation per event.
type Metrics interface {
	RecordActivityEvent(kind, outcome string)
}

// Logger fans activity events out to a webhook. Delivery is at-most-once and
// best-effort: callers are never blocked on, or told about, delivery.
//
// A nil *Logger is valid and discards every event.
type Logger struct {
	config   *Config
	endpoint atomic.Pointer[string]
	sink     Sink
	metrics  Metrics
	logger   *slog.Logger
	now      func() time.Time

	queue     chan *delivery
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

type delivery struct {
	url  string
	kind Kind
	msg  *Message
}

// Option configures a Logger.
type Option func(*Logger)

// WithSink replaces the HTTP webhook sink.
func WithSink(s Sink) Option {
	return func(l *Logger) { l.sink = s }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(l *Logger) { l.metrics = m }
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Logger) { l.now = now }
}

// NewLogger creates an activity logger and starts its delivery worker.
func NewLogger(config *Config, opts ...Option) *Logger {
	if config == nil {
		config = DefaultConfig()
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 256
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	l := &Logger{
		config: config,
		logger: slog.Default().With("component", "activity"),
		now:    time.Now,
		queue:  make(chan *delivery, config.QueueSize),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.sink == nil {
		l.sink = NewWebhookSink(config.Timeout)
	}
	l.SetEndpoint(config.URL)

	l.wg.Add(1)
	go l.worker()

	l.logger.Info("activity logger initialized",
		"enabled", config.URL != "",
		"queue_size", config.QueueSize,
	)

	return l
}

// SetEndpoint swaps the webhook URL. An empty URL disables delivery.
func (l *Logger) SetEndpoint(url string) {
	if l == nil {
		return
	}
	l.endpoint.Store(&url)
}

// Enabled reports whether a webhook endpoint is configured.
func (l *Logger) Enabled() bool {
	return l.endpointURL() != ""
}

func (l *Logger) endpointURL() string {
	if l == nil {
		return ""
	}
	if p := l.endpoint.Load(); p != nil {
		return *p
	}
	return ""
}

// LogEvent renders and enqueues an event. It never blocks and never fails;
// without an endpoint it does nothing.
func (l *Logger) LogEvent(kind Kind, fields []Field, rc *RequestContext) {
	if l == nil {
		return
	}

	url := l.endpointURL()
	if url == "" {
		l.record(kind, OutcomeDisabled)
		return
	}

	select {
	case <-l.done:
		l.logger.Debug("activity logger closed, dropping event", "kind", kind)
		l.record(kind, OutcomeDropped)
		return
	default:
	}

	event := &Event{
		Kind:      kind,
		Timestamp: l.now(),
		Context:   rc,
		Fields:    fields,
	}
	d := &delivery{
		url:  url,
		kind: kind,
		msg:  event.Render(l.config.Mention, l.config.Username, l.config.Footer),
	}

	select {
	case l.queue <- d:
	default:
		l.logger.Warn("activity queue full, dropping event",
			"kind", kind,
			"queue_size", l.config.QueueSize,
		)
		l.record(kind, OutcomeDropped)
	}
}

// Close stops accepting events, delivers everything already queued and
// waits for the worker to exit.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.closeOnce.Do(func() {
		close(l.done)
		l.wg.Wait()
	})
	return nil
}

func (l *Logger) worker() {
	defer l.wg.Done()

	for {
		select {
		case d := <-l.queue:
			l.deliver(d)
		case <-l.done:
			for {
				select {
				case d := <-l.queue:
					l.deliver(d)
				default:
					return
				}
			}
		}
	}
}

// deliver sends one message; failures are reduced to a log line.
func (l *Logger) deliver(d *delivery) {
	ctx, cancel := context.WithTimeout(context.Background(), l.config.Timeout)
	defer cancel()

	if err := l.sink.Send(ctx, d.url, d.msg); err != nil {
		l.logger.Warn("activity delivery failed",
			"kind", d.kind,
			"error", err,
		)
		l.record(d.kind, OutcomeFailed)
		return
	}
	l.record(d.kind, OutcomeSent)
}

func (l *Logger) record(kind Kind, outcome string) {
	if l.metrics != nil {
		l.metrics.RecordActivityEvent(string(kind), outcome)
	}
}
