// Package store provides session state backends for ShopMarketer.
//
// A session holds the last marketing suggestion of one browser session. State
// lives in memory by default; a Redis backend lets several server instances
// share sessions. Either way state expires with the session TTL.
package store

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// DefaultSessionTTL is how long an idle session is kept.
const DefaultSessionTTL = 12 * time.Hour

// ErrEmptySessionID is returned when a caller passes no session id.
var ErrEmptySessionID = errors.New("session id cannot be empty")

// State is the data retained across interactions within one session.
type State struct {
	ID         string    `json:"id"`
	Suggestion string    `json:"suggestion,omitempty"` // last marketing suggestion, empty when none
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasSuggestion reports whether a suggestion is stored.
func (s *State) HasSuggestion() bool {
	return s != nil && s.Suggestion != ""
}

// Store defines the interface for session state backends.
type Store interface {
	// Load returns the state of a session, or a fresh empty state if the
	// session is unknown or expired.
	Load(ctx context.Context, id string) (*State, error)
	// Save replaces the stored state of a session and refreshes its TTL.
	Save(ctx context.Context, st *State) error
	// Close releases any resources held by the store.
	Close() error
}

// Opts holds configuration options for session stores.
type Opts struct {
	RedisURL string
	TTL      time.Duration
}

// Option defines a configuration option for session stores.
type Option func(*Opts)

// WithRedisURL selects the Redis backend.
func WithRedisURL(url string) Option {
	return func(o *Opts) {
		o.RedisURL = url
	}
}

// WithTTL sets the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(o *Opts) {
		o.TTL = ttl
	}
}

// New builds the store selected by the options: Redis when a URL is given,
// in-memory otherwise.
func New(ctx context.Context, opts ...Option) (Store, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	if strings.TrimSpace(cfg.RedisURL) != "" {
		slog.Debug("store.New: using Redis session store", "ttl", cfg.TTL)
		return NewRedisStore(ctx, cfg.RedisURL, cfg.TTL)
	}
	slog.Debug("store.New: using in-memory session store", "ttl", cfg.TTL)
	return NewInMemoryStore(cfg.TTL), nil
}

func newState(id string, now time.Time) *State {
	return &State{ID: id, CreatedAt: now, UpdatedAt: now}
}
