package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/openai/openai-go/option"
)

// mockCatalog serves pages keyed by the page token of the request.
type mockCatalog struct {
	pages map[string]catalogPage
	err   error
	calls int
}

func (m *mockCatalog) Get(ctx context.Context, path string, params any, res any, opts ...option.RequestOption) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	token := ""
	if m.calls > 1 {
		token = fmt.Sprintf("page-%d", m.calls)
	}
	page, ok := m.pages[token]
	if !ok {
		return fmt.Errorf("unexpected page token %q", token)
	}
	*res.(*catalogPage) = page
	return nil
}

func twoPageCatalog() *mockCatalog {
	return &mockCatalog{pages: map[string]catalogPage{
		"": {
			Models: []catalogModel{
				{Name: "models/gemini-2.5-flash", SupportedGenerationMethods: []string{"generateContent", "countTokens"}},
				{Name: "models/text-embedding-004", SupportedGenerationMethods: []string{"embedContent"}},
			},
			NextPageToken: "page-2",
		},
		"page-2": {
			Models: []catalogModel{
				{Name: "models/gemini-3-pro-preview", SupportedGenerationMethods: []string{"generateContent"}},
				{Name: "models/aqa", SupportedGenerationMethods: nil},
			},
		},
	}}
}

func TestListGenerationModels_FiltersAndPages(t *testing.T) {
	cat := twoPageCatalog()
	client := &Client{catalog: cat, model: DefaultModel}

	names, err := client.ListGenerationModels(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"models/gemini-2.5-flash", "models/gemini-3-pro-preview"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("names = %v, want %v", names, want)
	}
	if cat.calls != 2 {
		t.Errorf("expected 2 catalog calls, got %d", cat.calls)
	}
}

func TestProbe_Found(t *testing.T) {
	client := &Client{catalog: twoPageCatalog(), model: "gemini-3-pro-preview"}
	res, err := client.Probe(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Found {
		t.Error("expected configured model to be found")
	}
	if res.Model != "gemini-3-pro-preview" || len(res.Models) != 2 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestProbe_NotFound(t *testing.T) {
	client := &Client{catalog: twoPageCatalog(), model: "gemini-9-ultra"}
	res, err := client.Probe(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Found {
		t.Error("expected configured model to be missing")
	}
}

func TestProbe_Error(t *testing.T) {
	cause := errors.New("API key not valid")
	client := &Client{catalog: &mockCatalog{err: cause}, model: DefaultModel}
	_, err := client.Probe(context.Background())
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped catalog error, got %v", err)
	}
}

func TestContainsModel(t *testing.T) {
	names := []string{"models/gemini-2.5-flash", "models/gemini-3-pro-preview"}
	cases := map[string]bool{
		"gemini-3-pro-preview": true,
		"gemini-2.5":           true,
		"gemini-3-pro":         true,
		"gpt-4o":               false,
	}
	for model, want := range cases {
		if got := ContainsModel(names, model); got != want {
			t.Errorf("ContainsModel(%q) = %v, want %v", model, got, want)
		}
	}
	if ContainsModel(nil, "gemini") {
		t.Error("empty list must not contain anything")
	}
}

// TestClient_AgainstHTTPServer drives the real SDK client against a local
// server that imitates both endpoints.
func TestClient_AgainstHTTPServer(t *testing.T) {
	var catalogKey string
	mux := http.NewServeMux()
	mux.HandleFunc("/v1beta/models", func(w http.ResponseWriter, r *http.Request) {
		catalogKey = r.Header.Get("x-goog-api-key")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pageToken") == "" {
			json.NewEncoder(w).Encode(map[string]any{
				"models": []map[string]any{
					{"name": "models/gemini-3-pro-preview", "supportedGenerationMethods": []string{"generateContent"}},
					{"name": "models/embedding-001", "supportedGenerationMethods": []string{"embedContent"}},
				},
				"nextPageToken": "next",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]any{
				{"name": "models/gemini-2.0-flash", "supportedGenerationMethods": []string{"generateContent"}},
			},
		})
	})
	mux.HandleFunc("/v1beta/openai/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["model"] == "broken-model" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"message":"model broken-model is not found","code":404}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gemini-3-pro-preview","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"안녕하세요 사장님!"}}]}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := NewClient(
		WithAPIKey("secret"),
		WithBaseURL(srv.URL+"/v1beta/openai/"),
		WithCatalogURL(srv.URL+"/v1beta/"),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	text, err := client.Generate(context.Background(), client.Model(), "hello")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != "안녕하세요 사장님!" {
		t.Errorf("text = %q", text)
	}

	if _, err := client.Generate(context.Background(), "broken-model", "hello"); err == nil {
		t.Error("expected error for unknown model")
	} else if !strings.Contains(err.Error(), "broken-model") {
		t.Errorf("error should mention the model, got %q", err.Error())
	}

	res, err := client.Probe(context.Background())
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if !res.Found || len(res.Models) != 2 {
		t.Errorf("unexpected probe result %+v", res)
	}
	if catalogKey != "secret" {
		t.Errorf("catalog request should carry the API key header, got %q", catalogKey)
	}
}
