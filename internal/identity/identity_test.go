package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func runMiddleware(t *testing.T, req *http.Request) (string, *http.Cookie) {
	t.Helper()
	var seen string
	h := Middleware(time.Hour, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = SessionIDFromContext(r.Context())
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	for _, c := range rr.Result().Cookies() {
		if c.Name == SessionCookieName {
			return seen, c
		}
	}
	t.Fatal("session cookie not set")
	return "", nil
}

func TestMiddleware_IssuesSession(t *testing.T) {
	id, cookie := runMiddleware(t, httptest.NewRequest(http.MethodGet, "/", nil))
	if id == "" {
		t.Fatal("expected session id in context")
	}
	if cookie.Value != id {
		t.Errorf("cookie %q does not match context id %q", cookie.Value, id)
	}
	if !cookie.HttpOnly {
		t.Error("session cookie must be HttpOnly")
	}
}

func TestMiddleware_ReusesValidCookie(t *testing.T) {
	const existing = "6f1c1a9e-2f55-4a7b-8d1e-0f4f6d0c9b21"
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: existing})

	id, _ := runMiddleware(t, req)
	if id != existing {
		t.Errorf("expected existing id, got %q", id)
	}
}

func TestMiddleware_ReplacesInvalidCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "../../etc/passwd"})

	id, _ := runMiddleware(t, req)
	if id == "../../etc/passwd" || !isValidSessionID(id) {
		t.Errorf("invalid cookie value should be replaced, got %q", id)
	}
}

func TestSessionIDFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := SessionIDFromContext(req.Context()); got != "" {
		t.Errorf("expected empty id, got %q", got)
	}
}
