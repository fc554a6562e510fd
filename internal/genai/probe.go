package genai

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/openai/openai-go/option"
)

// GenerateContentMethod is the capability flag of models that can generate text.
const GenerateContentMethod = "generateContent"

const (
	catalogPageSize = "1000"
	// maxCatalogPages stops a misbehaving catalog from paging forever.
	maxCatalogPages = 50
)

type catalogModel struct {
	Name                       string   `json:"name"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
}

type catalogPage struct {
	Models        []catalogModel `json:"models"`
	NextPageToken string         `json:"nextPageToken"`
}

// ProbeResult is the outcome of a model capability check.
type ProbeResult struct {
	Model  string   `json:"model"`  // configured model identifier
	Models []string `json:"models"` // generation-capable models visible to the credentials
	Found  bool     `json:"found"`  // Model is a substring of at least one entry in Models
}

// ListGenerationModels returns the names of every model the credentials can
// use for content generation, in catalog order.
func (c *Client) ListGenerationModels(ctx context.Context) ([]string, error) {
	var names []string
	token := ""
	for page := 0; page < maxCatalogPages; page++ {
		opts := []option.RequestOption{
			option.WithBaseURL(c.catalogURL),
			option.WithHeaderDel("authorization"),
			option.WithHeader("x-goog-api-key", c.apiKey),
			option.WithQuery("pageSize", catalogPageSize),
		}
		if token != "" {
			opts = append(opts, option.WithQuery("pageToken", token))
		}

		var res catalogPage
		if err := c.catalog.Get(ctx, "models", nil, &res, opts...); err != nil {
			slog.Error("Client.ListGenerationModels: catalog request failed", "page", page, "error", err)
			return nil, fmt.Errorf("list models: %w", err)
		}
		for _, m := range res.Models {
			if slices.Contains(m.SupportedGenerationMethods, GenerateContentMethod) {
				names = append(names, m.Name)
			}
		}
		if res.NextPageToken == "" {
			slog.Debug("Client.ListGenerationModels: catalog listed", "pages", page+1, "generation_models", len(names))
			return names, nil
		}
		token = res.NextPageToken
	}
	slog.Warn("Client.ListGenerationModels: catalog page limit reached", "pages", maxCatalogPages)
	return names, nil
}

// Probe lists the generation-capable models and checks whether the configured
// model is among them.
func (c *Client) Probe(ctx context.Context) (ProbeResult, error) {
	names, err := c.ListGenerationModels(ctx)
	if err != nil {
		return ProbeResult{Model: c.model}, err
	}
	return ProbeResult{Model: c.model, Models: names, Found: ContainsModel(names, c.model)}, nil
}

// ContainsModel reports whether model appears as a substring of any name.
func ContainsModel(names []string, model string) bool {
	for _, n := range names {
		if strings.Contains(n, model) {
			return true
		}
	}
	return false
}
