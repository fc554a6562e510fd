// Package testutil provides common test utilities and helpers for ShopMarketer tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/BTreeMap/ShopMarketer/internal/genai"
)

// ErrNoScriptedText is returned by FakeModels when Texts is exhausted.
var ErrNoScriptedText = errors.New("no scripted response")

// FakeModels is a scripted stand-in for the generative-language client.
// Generate returns Texts in order; GenErr and ProbeErr force failures.
type FakeModels struct {
	mu        sync.Mutex
	ModelName string
	Texts     []string
	GenErr    error
	Probed    genai.ProbeResult
	ProbeErr  error
	Prompts   []string
}

// Model returns the configured model name.
func (f *FakeModels) Model() string { return f.ModelName }

// Generate records the prompt and returns the next scripted text.
func (f *FakeModels) Generate(ctx context.Context, model, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Prompts = append(f.Prompts, prompt)
	if f.GenErr != nil {
		return "", f.GenErr
	}
	if len(f.Texts) == 0 {
		return "", ErrNoScriptedText
	}
	text := f.Texts[0]
	f.Texts = f.Texts[1:]
	return text, nil
}

// Probe returns Probed, or ProbeErr when set.
func (f *FakeModels) Probe(ctx context.Context) (genai.ProbeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ProbeErr != nil {
		return genai.ProbeResult{Model: f.ModelName}, f.ProbeErr
	}
	res := f.Probed
	res.Model = f.ModelName
	return res, nil
}

// SetGenerateError changes the generation failure between requests.
func (f *FakeModels) SetGenerateError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.GenErr = err
}

// SetProbeError changes the probe failure between requests.
func (f *FakeModels) SetProbeError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ProbeErr = err
}

// Calls returns how many times Generate was invoked.
func (f *FakeModels) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Prompts)
}

// Prompt returns the i-th prompt sent to Generate.
func (f *FakeModels) Prompt(i int) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.Prompts) {
		return ""
	}
	return f.Prompts[i]
}

// AssertHTTPStatus checks the HTTP status code and fails the test if it doesn't match.
func AssertHTTPStatus(t *testing.T, expected, actual int, context string) {
	t.Helper()
	if actual != expected {
		t.Errorf("%s: expected status %d, got %d", context, expected, actual)
	}
}

// AssertJSONResponse decodes JSON response and validates the status field.
func AssertJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, expectedStatus string) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}

	if status, ok := response["status"].(string); ok {
		if status != expectedStatus {
			t.Errorf("expected status '%s', got '%s'", expectedStatus, status)
		}
	} else {
		t.Error("response missing or invalid 'status' field")
	}

	return response
}

// AssertContainsAll fails the test for every want missing from body.
func AssertContainsAll(t *testing.T, body string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

// AssertContainsNone fails the test for every unwanted string found in body.
func AssertContainsNone(t *testing.T, body string, unwanted ...string) {
	t.Helper()
	for _, s := range unwanted {
		if strings.Contains(body, s) {
			t.Errorf("body should not contain %q", s)
		}
	}
}

// CreateHTTPRequest creates an HTTP request with optional JSON body for testing.
func CreateHTTPRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

// CreateFormRequest creates a url-encoded form POST for testing.
func CreateFormRequest(t *testing.T, url string, form url.Values) *http.Request {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(form.Encode()))
	if err != nil {
		t.Fatalf("failed to create HTTP request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// MustMarshalJSON marshals an object to JSON and fails test on error.
func MustMarshalJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal JSON: %v", err)
	}
	return data
}

// MustUnmarshalJSON unmarshals JSON data into target and fails test on error.
func MustUnmarshalJSON(t *testing.T, data []byte, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(data, target); err != nil {
		t.Fatalf("failed to unmarshal JSON: %v", err)
	}
}
