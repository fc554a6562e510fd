package genai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// mockChatService implements chatService for testing.
type mockChatService struct {
	resp       *openai.ChatCompletion
	err        error
	lastParams openai.ChatCompletionNewParams
	calls      int
}

func (m *mockChatService) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	m.calls++
	m.lastParams = params
	return m.resp, m.err
}

func completion(content string) *openai.ChatCompletion {
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}
}

func TestGenerate_Success(t *testing.T) {
	raw := "  1. 첫 번째 아이디어\n\n2. 두 번째\n3. 세 번째  "
	mock := &mockChatService{resp: completion(raw)}
	client := &Client{chat: mock, model: DefaultModel}

	out, err := client.Generate(context.Background(), "custom-model", "prompt text")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != raw {
		t.Errorf("expected untouched text %q, got %q", raw, out)
	}
	if mock.lastParams.Model != "custom-model" {
		t.Errorf("expected model custom-model, got %q", mock.lastParams.Model)
	}
	if len(mock.lastParams.Messages) != 1 {
		t.Errorf("expected a single user message, got %d", len(mock.lastParams.Messages))
	}
}

func TestGenerate_DefaultsToConfiguredModel(t *testing.T) {
	mock := &mockChatService{resp: completion("ok")}
	client := &Client{chat: mock, model: "gemini-test"}

	if _, err := client.Generate(context.Background(), "", "p"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.lastParams.Model != "gemini-test" {
		t.Errorf("expected configured model, got %q", mock.lastParams.Model)
	}
}

func TestGenerate_ServiceError(t *testing.T) {
	cause := errors.New("service failure")
	mock := &mockChatService{err: cause}
	client := &Client{chat: mock, model: DefaultModel}

	_, err := client.Generate(context.Background(), DefaultModel, "p")
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped service error, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Errorf("error should carry the underlying message, got %q", err.Error())
	}
	if mock.calls != 1 {
		t.Errorf("expected exactly one call, got %d", mock.calls)
	}
}

func TestGenerate_NoChoices(t *testing.T) {
	client := &Client{chat: &mockChatService{resp: &openai.ChatCompletion{}}, model: DefaultModel}
	_, err := client.Generate(context.Background(), DefaultModel, "p")
	if err != ErrNoChoicesReturned {
		t.Errorf("expected ErrNoChoicesReturned, got %v", err)
	}
}

func TestNewClient_NoKey(t *testing.T) {
	_, err := NewClient()
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestNewClient_WithKey(t *testing.T) {
	cli, err := NewClient(WithAPIKey("test-key"))
	if err != nil {
		t.Fatalf("expected no error with API key, got %v", err)
	}
	if cli.Model() != DefaultModel {
		t.Errorf("expected default model %q, got %q", DefaultModel, cli.Model())
	}
	if cli.timeout != DefaultTimeout {
		t.Errorf("expected default timeout, got %v", cli.timeout)
	}
}

func TestNewClient_Options(t *testing.T) {
	cli, err := NewClient(
		WithAPIKey("k"),
		WithModel("gemini-x"),
		WithCatalogURL("http://catalog.example/v1beta"),
		WithTimeout(0),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cli.Model() != "gemini-x" {
		t.Errorf("model = %q", cli.Model())
	}
	if cli.catalogURL != "http://catalog.example/v1beta/" {
		t.Errorf("catalog url = %q", cli.catalogURL)
	}
	if cli.timeout != DefaultTimeout {
		t.Errorf("non-positive timeout should fall back to default, got %v", cli.timeout)
	}
}
