package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shaiso/infra/internal/auth"
	"github.com/shaiso/infra/internal/domain"
)

// mutate выполняет изменяющий запрос с сессией и корректным CSRF.
func mutate(h http.Handler, method, path, body string, session, csrf *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.AddCookie(session)
	req.AddCookie(csrf)
	req.Header.Set(auth.CSRFHeader, csrf.Value)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAdminRoutes_RequireSession(t *testing.T) {
	env := newTestEnv(nil)
	h := env.handler.Routes()

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/admin/overview"},
		{http.MethodGet, "/api/admin/sources"},
		{http.MethodPost, "/api/admin/topics"},
		{http.MethodGet, "/api/admin/alerts"},
		{http.MethodGet, "/api/admin/financials/summary"},
		{http.MethodPost, "/api/admin/subscriptions"},
		{http.MethodGet, "/api/admin/financials"},
		{http.MethodPost, "/api/admin/financials/grant"},
		{http.MethodPost, "/api/admin/financials/revoke"},
	}
	for _, p := range paths {
		rec := doRequest(h, p.method, p.path, "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: expected 401, got %d", p.method, p.path, rec.Code)
		}
	}
}

func TestCSRF(t *testing.T) {
	env := newTestEnv(nil)
	h := env.handler.Routes()
	session, csrf := login(t, h)

	tests := []struct {
		name   string
		header string
		cookie *http.Cookie
		want   int
	}{
		{"missing header", "", csrf, http.StatusForbidden},
		{"wrong header", "wrong", csrf, http.StatusForbidden},
		{"missing cookie", csrf.Value, nil, http.StatusForbidden},
		{"valid", csrf.Value, csrf, http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/admin/topics", strings.NewReader(`{"name":"`+tt.name+`"}`))
			req.AddCookie(session)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			if tt.header != "" {
				req.Header.Set(auth.CSRFHeader, tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
			if tt.want == http.StatusForbidden && detail(t, rec) != msgCSRF {
				t.Errorf("unexpected detail: %q", detail(t, rec))
			}
		})
	}

	// GET не требует CSRF
	rec := doRequest(h, http.MethodGet, "/api/admin/topics", "", session)
	if rec.Code != http.StatusOK {
		t.Errorf("GET must not require csrf, got %d", rec.Code)
	}
}

func TestOverview(t *testing.T) {
	env := newTestEnv(nil)
	h := env.handler.Routes()
	session, _ := login(t, h)

	rec := doRequest(h, http.MethodGet, "/api/admin/overview", "", session)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var o domain.Overview
	if err := json.Unmarshal(rec.Body.Bytes(), &o); err != nil {
		t.Fatal(err)
	}
	if o.Users != 2 || o.AlertsOpen != 1 {
		t.Errorf("unexpected overview: %+v", o)
	}
}

func TestSources_CRUD(t *testing.T) {
	env := newTestEnv(nil)
	h := env.handler.Routes()
	session, csrf := login(t, h)

	rec := mutate(h, http.MethodPost, "/api/admin/sources", `{"name":"habr","url":"https://habr.com/rss"}`, session, csrf)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created domain.Source
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.SourceType != domain.DefaultSourceType || created.TrustManual != domain.DefaultTrustManual {
		t.Errorf("defaults not applied: %+v", created)
	}

	rec = mutate(h, http.MethodPost, "/api/admin/sources", `{"name":"habr"}`, session, csrf)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate: expected 409, got %d", rec.Code)
	}

	path := "/api/admin/sources/" + jsonID(created.ID)
	rec = mutate(h, http.MethodPut, path, `{"trust_manual":80}`, session, csrf)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d", rec.Code)
	}

	rec = doRequest(h, http.MethodGet, path+"/state", "", session)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"state":{}`) {
		t.Errorf("state: unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = mutate(h, http.MethodDelete, path, "", session, csrf)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}

	rec = mutate(h, http.MethodDelete, path, "", session, csrf)
	if rec.Code != http.StatusNotFound || detail(t, rec) != msgSourceNotFound {
		t.Errorf("second delete: expected 404 %q, got %d %s", msgSourceNotFound, rec.Code, rec.Body.String())
	}

	rec = mutate(h, http.MethodPut, "/api/admin/sources/abc", `{}`, session, csrf)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", rec.Code)
	}
}

func TestTopics_Validation(t *testing.T) {
	env := newTestEnv(nil)
	h := env.handler.Routes()
	session, csrf := login(t, h)

	rec := mutate(h, http.MethodPost, "/api/admin/topics", `{"name":"  "}`, session, csrf)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty name: expected 422, got %d", rec.Code)
	}

	rec = mutate(h, http.MethodPost, "/api/admin/topics", `not json`, session, csrf)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad body: expected 422, got %d", rec.Code)
	}

	rec = mutate(h, http.MethodPut, "/api/admin/topics/999", `{"name":"go"}`, session, csrf)
	if rec.Code != http.StatusNotFound || detail(t, rec) != msgTopicNotFound {
		t.Errorf("missing topic: expected 404, got %d", rec.Code)
	}
}

func TestAlerts(t *testing.T) {
	env := newTestEnv(nil)
	h := env.handler.Routes()
	session, csrf := login(t, h)

	rec := mutate(h, http.MethodPost, "/api/admin/alerts/10/ack", "", session, csrf)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"acknowledged":true`) {
		t.Errorf("ack: unexpected response %d %s", rec.Code, rec.Body.String())
	}

	rec = mutate(h, http.MethodPost, "/api/admin/alerts/10/mute", "", session, csrf)
	if rec.Code != http.StatusOK {
		t.Fatalf("mute: expected 200, got %d", rec.Code)
	}
	if want := testNow.Add(domain.DefaultMuteMinutes * time.Minute); !env.store.lastMute.Equal(want) {
		t.Errorf("default mute until %v, want %v", env.store.lastMute, want)
	}

	rec = mutate(h, http.MethodPost, "/api/admin/alerts/10/mute", `{"minutes":60}`, session, csrf)
	if rec.Code != http.StatusOK {
		t.Fatalf("mute 60: expected 200, got %d", rec.Code)
	}
	if want := testNow.Add(time.Hour); !env.store.lastMute.Equal(want) {
		t.Errorf("mute until %v, want %v", env.store.lastMute, want)
	}

	rec = mutate(h, http.MethodPost, "/api/admin/alerts/10/resolve", "", session, csrf)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"status":"resolved"`) {
		t.Errorf("resolve: unexpected response %d %s", rec.Code, rec.Body.String())
	}
	if _, resolved := env.publisher.counts(); resolved != 1 {
		t.Errorf("expected one alert.resolved event, got %d", resolved)
	}

	rec = mutate(h, http.MethodPost, "/api/admin/alerts/404/ack", "", session, csrf)
	if rec.Code != http.StatusNotFound || detail(t, rec) != msgAlertNotFound {
		t.Errorf("missing alert: expected 404, got %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	env := newTestEnv(nil)
	h := env.handler.Routes()

	req := httptest.NewRequest(http.MethodOptions, "/api/admin/subscriptions", nil)
	req.Header.Set("Origin", "http://localhost:8080")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight: expected 204, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:8080" {
		t.Errorf("unexpected allow-origin: %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("credentials must be allowed")
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), auth.CSRFHeader) {
		t.Error("csrf header must be allowed")
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin must not be allowed")
	}
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(nil)
	h := env.handler.Routes()

	rec := doRequest(h, http.MethodGet, "/healthz", "")
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("request id must be generated")
	}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get(RequestIDHeader) != "req-42" {
		t.Errorf("incoming request id must be kept, got %q", rec.Header().Get(RequestIDHeader))
	}
}

func TestRecovery(t *testing.T) {
	env := newTestEnv(nil)
	panicking := Chain(Recovery(env.handler.logger))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := doRequest(panicking, http.MethodGet, "/", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if detail(t, rec) != msgInternal {
		t.Errorf("unexpected detail: %q", detail(t, rec))
	}
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
