package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"giftpoints/custodian/pkg/activity"
	"giftpoints/custodian/pkg/backup"
	"giftpoints/custodian/pkg/config"
	"giftpoints/custodian/pkg/retention"
	"giftpoints/custodian/pkg/telemetry/health"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
)

// Backups is the backup surface the API drives.
type Backups interface {
	List() ([]backup.Info, error)
	Create(ctx context.Context) (*backup.Result, error)
	Restore(ctx context.Context, name string) (*backup.RestoreResult, error)
}

// Retention is the retention surface the API drives.
type Retention interface {
	Run(ctx context.Context) (*retention.Report, error)
}

// Notifier records administrative actions.
type Notifier interface {
	LogAdminAction(admin, action, details string, rc *activity.RequestContext)
}

// Deps are the components served by the API. Nil components leave their
// routes unregistered.
type Deps struct {
	Backups   Backups
	Retention Retention
	Health    *health.Checker
	Metrics   http.Handler
	Notifier  Notifier
	Version   health.VersionInfo

	// Tracer records a span per admin API request when set.
	Tracer trace.Tracer
}

// Server is the admin HTTP server.
type Server struct {
	config     *config.ServerConfig
	deps       Deps
	logger     *slog.Logger
	httpServer *http.Server
	mu         sync.RWMutex
	isRunning  bool
	addr       net.Addr
}

// NewServer creates an admin server.
func NewServer(cfg *config.ServerConfig, deps Deps) *Server {
	if deps.Health == nil {
		deps.Health = health.New(0)
	}
	return &Server{
		config: cfg,
		deps:   deps,
		logger: slog.Default().With("component", "server"),
	}
}

// Handler returns the router with all routes and middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger(s.logger))
	r.Use(recoverer(s.logger))

	r.Get("/healthz", s.deps.Health.LivenessHandler())
	r.Get("/readyz", s.deps.Health.ReadinessHandler())
	r.Get("/version", health.VersionHandler(s.deps.Version.Version, s.deps.Version.Commit, s.deps.Version.BuildTime))
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics)
	}

	h := &handlers{deps: s.deps, logger: s.logger}
	r.Route("/api/v1", func(r chi.Router) {
		if s.deps.Tracer != nil {
			r.Use(traceRequests(s.deps.Tracer))
		}
		r.Use(requireToken(s.config.AdminToken))
		if s.deps.Backups != nil {
			r.Get("/backups", h.listBackups)
			r.Post("/backups", h.createBackup)
			r.Post("/backups/{name}/restore", h.restoreBackup)
		}
		if s.deps.Retention != nil {
			r.Post("/retention/run", h.runRetention)
		}
	})

	return r
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}

	scheme := "http"
	if s.config.TLS.Enabled() {
		reloader := newCertReloader(s.config.TLS, s.logger)
		if err := reloader.start(ctx); err != nil {
			ln.Close()
			s.mu.Unlock()
			return fmt.Errorf("failed to load TLS certificate: %w", err)
		}
		ln = tls.NewListener(ln, newTLSConfig(s.config.TLS, reloader))
		scheme = "https"
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
	}
	s.addr = ln.Addr()
	s.isRunning = true
	s.mu.Unlock()

	if s.config.AdminToken == "" {
		s.logger.Warn("admin API has no token configured")
	}
	s.logger.Info("admin server started", "address", ln.Addr().String(), "scheme", scheme)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errCh:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}

// Shutdown stops the server, waiting up to the configured timeout for
// in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	srv := s.httpServer
	s.mu.Unlock()

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		s.logger.Error("error during server shutdown", "error", err)
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("admin server stopped")
	return nil
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the bound address while running.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}
