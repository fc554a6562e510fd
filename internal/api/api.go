// Package api provides the HTTP server of ShopMarketer.
//
// It serves the single-page marketing tool (server-rendered HTML) and a JSON
// API with the same three actions: suggest today's marketing ideas, check
// which models the credentials can use, and write a promotional post.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BTreeMap/ShopMarketer/internal/genai"
	"github.com/BTreeMap/ShopMarketer/internal/identity"
	"github.com/BTreeMap/ShopMarketer/internal/store"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Default configuration constants
const (
	// DefaultAddr is the default listen address.
	DefaultAddr = ":8080"
	// DefaultTimezone is where "today" is evaluated for the idea prompt.
	DefaultTimezone = "Asia/Seoul"
	// shutdownTimeout bounds graceful shutdown.
	shutdownTimeout = 10 * time.Second
)

// ModelService is what the server needs from the generative-language client.
type ModelService interface {
	Model() string
	Generate(ctx context.Context, model, prompt string) (string, error)
	Probe(ctx context.Context) (genai.ProbeResult, error)
}

// Opts holds configuration options for the API server.
type Opts struct {
	Addr          string
	SessionTTL    time.Duration
	SecureCookies bool
	Location      *time.Location
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) {
		o.Addr = addr
	}
}

// WithSessionTTL sets the session cookie lifetime.
func WithSessionTTL(ttl time.Duration) Option {
	return func(o *Opts) {
		o.SessionTTL = ttl
	}
}

// WithSecureCookies marks the session cookie Secure.
func WithSecureCookies(secure bool) Option {
	return func(o *Opts) {
		o.SecureCookies = secure
	}
}

// WithLocation sets the time zone of the shop.
func WithLocation(loc *time.Location) Option {
	return func(o *Opts) {
		o.Location = loc
	}
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	models        ModelService
	sessions      store.Store
	locks         *store.Locker
	loc           *time.Location
	now           func() time.Time
	sessionTTL    time.Duration
	secureCookies bool
}

// NewServer creates a Server, applying any provided options.
func NewServer(models ModelService, sessions store.Store, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = store.DefaultSessionTTL
	}
	if cfg.Location == nil {
		loc, err := time.LoadLocation(DefaultTimezone)
		if err != nil {
			slog.Warn("NewServer: failed to load default timezone, using local time", "timezone", DefaultTimezone, "error", err)
			loc = time.Local
		}
		cfg.Location = loc
	}
	return &Server{
		models:        models,
		sessions:      sessions,
		locks:         store.NewLocker(),
		loc:           cfg.Location,
		now:           time.Now,
		sessionTTL:    cfg.SessionTTL,
		secureCookies: cfg.SecureCookies,
	}
}

// Routes builds the router of the server.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/healthz"))
	r.Use(identity.Middleware(s.sessionTTL, s.secureCookies))

	r.Get("/", s.indexHandler)
	r.Post("/idea", s.ideaPageHandler)
	r.Post("/probe", s.probePageHandler)
	r.Post("/post", s.postPageHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/session", s.sessionHandler)
		r.Post("/idea", s.ideaHandler)
		r.Get("/models", s.modelsHandler)
		r.Post("/post", s.postHandler)
	})
	return r
}

// Run wires the GenAI client, the session store and the HTTP server, then
// serves until SIGINT or SIGTERM.
func Run(genaiOpts []genai.Option, storeOpts []store.Option, apiOpts []Option) error {
	var cfg Opts
	for _, opt := range apiOpts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	gaClient, err := genai.NewClient(genaiOpts...)
	if err != nil {
		return fmt.Errorf("failed to create GenAI client: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, err := store.New(ctx, storeOpts...)
	if err != nil {
		return fmt.Errorf("failed to create session store: %w", err)
	}
	defer func() {
		if closeErr := sessions.Close(); closeErr != nil {
			slog.Error("Run: failed to close session store", "error", closeErr)
		}
	}()

	srv := NewServer(gaClient, sessions, apiOpts...)
	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("ShopMarketer listening", "addr", cfg.Addr, "model", gaClient.Model())
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
