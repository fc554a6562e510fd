// Package genai talks to the hosted generative-language service.
//
// Text generation goes through the service's OpenAI-compatible endpoint with
// the openai-go SDK. The model catalog is only exposed with capability flags
// on the native endpoint, so the probe issues a raw GET through the same SDK
// client with a per-request base URL.
package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Default configuration constants
const (
	// DefaultModel is the model identifier every request uses unless overridden.
	DefaultModel = "gemini-3-pro-preview"
	// DefaultBaseURL is the OpenAI-compatible generation endpoint.
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	// DefaultCatalogURL is the native endpoint that lists models with their capabilities.
	DefaultCatalogURL = "https://generativelanguage.googleapis.com/v1beta/"
	// DefaultTimeout bounds a single outbound request.
	DefaultTimeout = 120 * time.Second
)

var (
	// ErrMissingAPIKey is returned by NewClient when no API key was configured.
	ErrMissingAPIKey = errors.New("genai API key not set")
	// ErrNoChoicesReturned is returned when the service answers without any generated text.
	ErrNoChoicesReturned = errors.New("no choices returned")
)

// chatService is the slice of the SDK chat completion service the client needs.
type chatService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// catalogService performs raw GET requests; *openai.Client satisfies it.
type catalogService interface {
	Get(ctx context.Context, path string, params any, res any, opts ...option.RequestOption) error
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey     string
	Model      string
	BaseURL    string
	CatalogURL string
	Timeout    time.Duration
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the API key used for generation and catalog requests.
func WithAPIKey(key string) Option {
	return func(o *Opts) {
		o.APIKey = key
	}
}

// WithModel sets the model identifier.
func WithModel(model string) Option {
	return func(o *Opts) {
		o.Model = model
	}
}

// WithBaseURL sets the OpenAI-compatible generation endpoint.
func WithBaseURL(url string) Option {
	return func(o *Opts) {
		o.BaseURL = url
	}
}

// WithCatalogURL sets the native endpoint used to list models.
func WithCatalogURL(url string) Option {
	return func(o *Opts) {
		o.CatalogURL = url
	}
}

// WithTimeout bounds every outbound request.
func WithTimeout(d time.Duration) Option {
	return func(o *Opts) {
		o.Timeout = d
	}
}

// Client wraps the SDK client for generation and model listing.
type Client struct {
	chat       chatService
	catalog    catalogService
	apiKey     string
	model      string
	catalogURL string
	timeout    time.Duration
}

// NewClient creates a GenAI client, applying any provided options.
// Requests are never retried.
func NewClient(opts ...Option) (*Client, error) {
	cfg := Opts{
		Model:      DefaultModel,
		BaseURL:    DefaultBaseURL,
		CatalogURL: DefaultCatalogURL,
		Timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		slog.Error("GenAI client creation failed: API key not set")
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	cli := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(withTrailingSlash(cfg.BaseURL)),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	)
	slog.Debug("GenAI client created", "model", cfg.Model, "base_url", cfg.BaseURL, "catalog_url", cfg.CatalogURL, "timeout", cfg.Timeout)

	return &Client{
		chat:       &cli.Chat.Completions,
		catalog:    &cli,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		catalogURL: withTrailingSlash(cfg.CatalogURL),
		timeout:    cfg.Timeout,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Generate sends prompt to model and returns the generated text exactly as
// the service produced it.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	if model == "" {
		model = c.model
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
	}

	slog.Debug("Client.Generate: sending request", "model", model, "prompt_length", len(prompt))
	start := time.Now()
	resp, err := c.chat.New(ctx, params)
	if err != nil {
		slog.Error("Client.Generate: request failed", "model", model, "error", err, "elapsed", time.Since(start))
		return "", fmt.Errorf("generate content with %s: %w", model, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		slog.Warn("Client.Generate: no choices returned", "model", model)
		return "", ErrNoChoicesReturned
	}
	text := resp.Choices[0].Message.Content
	slog.Debug("Client.Generate: response received", "model", model, "response_length", len(text), "elapsed", time.Since(start))
	return text, nil
}

func withTrailingSlash(u string) string {
	if u == "" || strings.HasSuffix(u, "/") {
		return u
	}
	return u + "/"
}
