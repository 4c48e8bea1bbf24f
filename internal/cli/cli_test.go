package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/shaiso/infra/internal/client"
)

const (
	fakeSession = "session-token"
	fakeCSRF    = "csrf-token"
)

// fakeAPI — минимальный admin API с cookie-сессией и CSRF.
type fakeAPI struct {
	mu     sync.Mutex
	bodies map[string][]byte
	csrf   map[string]string
}

func newFakeAPI(t *testing.T) (*httptest.Server, *fakeAPI) {
	t.Helper()
	f := &fakeAPI{bodies: map[string][]byte{}, csrf: map[string]string{}}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/admin/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req client.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Неверный логин или пароль."})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "admin_session", Value: fakeSession, Path: "/", HttpOnly: true})
		http.SetCookie(w, &http.Cookie{Name: "csrf_token", Value: fakeCSRF, Path: "/"})
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	mux.HandleFunc("POST /api/admin/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "admin_session", Path: "/", MaxAge: -1})
		http.SetCookie(w, &http.Cookie{Name: "csrf_token", Path: "/", MaxAge: -1})
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	mux.HandleFunc("GET /api/admin/auth/me", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, client.MeResponse{Authenticated: true, Username: "admin"})
	}))
	mux.HandleFunc("POST /api/admin/topics", f.authed(func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, http.StatusCreated, map[string]any{"id": 5, "name": "golang", "description": nil})
	}))
	mux.HandleFunc("POST /api/admin/subscriptions", f.authed(func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, http.StatusCreated, map[string]any{
			"id": 9, "user_id": 1, "plan_tier": "pro", "status": "active", "amount_rub": 990,
			"started_at": "2024-05-15T12:00:00Z", "expires_at": nil, "created_at": "2024-05-15T12:00:00Z",
		})
	}))
	mux.HandleFunc("GET /api/admin/financials/summary", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"revenue_rub": 990, "payments_count": 1, "new_subscriptions_count": 1, "active_subscriptions_count": 1,
			"by_tier": map[string]any{"pro": map[string]int{"revenue_rub": 990, "count": 1}},
		})
	}))
	mux.HandleFunc("POST /api/admin/financials/revoke", f.authed(func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, http.StatusOK, map[string]any{
			"message":   "Подписка отозвана.",
			"user":      map[string]any{"id": 1, "tg_id": 123, "plan_tier": "free", "plan_expires_at": nil},
			"cancelled": 2,
		})
	}))
	mux.HandleFunc("GET /api/admin/alerts", f.authed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{
			{"id": 1, "title": "rss-muted", "severity": "warning", "status": "OPEN", "muted_until": "2999-01-01T00:00:00Z", "created_at": "2024-05-01T10:00:00Z"},
			{"id": 2, "title": "db-unmuted", "severity": "critical", "status": "OPEN", "muted_until": "2000-01-01T00:00:00Z", "created_at": "2024-05-01T10:00:00Z"},
		})
	}))
	mux.HandleFunc("GET /api/admin/subscriptions", f.authed(func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		writeJSON(w, http.StatusOK, []any{})
	}))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, f
}

func (f *fakeAPI) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie("admin_session")
		if err != nil || c.Value != fakeSession {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Требуется авторизация."})
			return
		}
		next(w, r)
	}
}

func (f *fakeAPI) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := r.Method + " " + r.URL.Path
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.Method == http.MethodGet {
		body = []byte(r.URL.RawQuery)
	}
	f.bodies[key] = body
	f.csrf[key] = r.Header.Get("X-CSRF-Token")
}

func (f *fakeAPI) request(key string) (body []byte, csrf string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key], f.csrf[key]
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// run выполняет команду как отдельный запуск infra-admin.
func run(t *testing.T, srv *httptest.Server, sessionFile, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := &App{
		APIURL:      srv.URL,
		SessionFile: sessionFile,
		Stdout:      &out,
		Stderr:      &errOut,
		Stdin:       strings.NewReader(stdin),
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	root := NewRootCmd(app, "test")
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestCLI_RequiresLogin(t *testing.T) {
	srv, _ := newFakeAPI(t)
	file := filepath.Join(t.TempDir(), "session.json")

	_, _, err := run(t, srv, file, "", "whoami")
	if !errors.Is(err, ErrLoginRequired) {
		t.Fatalf("expected ErrLoginRequired, got %v", err)
	}
	if msg := ErrorMessage(err); !strings.Contains(msg, "infra-admin login") {
		t.Errorf("login hint missing: %q", msg)
	}
}

func TestCLI_LoginPersistsSession(t *testing.T) {
	srv, _ := newFakeAPI(t)
	file := filepath.Join(t.TempDir(), "session.json")

	if _, _, err := run(t, srv, file, "", "login", "--password", "wrong"); err == nil {
		t.Fatal("wrong password must fail")
	} else if client.Message(err) != "Неверный логин или пароль." {
		t.Errorf("unexpected message: %q", client.Message(err))
	}

	_, stderr, err := run(t, srv, file, "secret\n", "login")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(stderr, "admin") {
		t.Errorf("login message: %q", stderr)
	}

	stdout, _, err := run(t, srv, file, "", "whoami")
	if err != nil {
		t.Fatalf("whoami after login: %v", err)
	}
	if !strings.Contains(stdout, "admin") {
		t.Errorf("whoami output: %q", stdout)
	}

	if _, _, err := run(t, srv, file, "", "logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, _, err := run(t, srv, file, "", "whoami"); !errors.Is(err, ErrLoginRequired) {
		t.Errorf("session must be gone after logout, got %v", err)
	}
}

func TestCLI_LoginOverCorruptSessionFile(t *testing.T) {
	srv, _ := newFakeAPI(t)
	file := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(file, []byte("{garbage"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, _, err := run(t, srv, file, "", "login", "-p", "secret"); err != nil {
		t.Fatalf("login must overwrite a corrupt session file: %v", err)
	}
	stdout, _, err := run(t, srv, file, "", "whoami")
	if err != nil || !strings.Contains(stdout, "admin") {
		t.Errorf("whoami after login: %q, %v", stdout, err)
	}
}

func TestCLI_MutationSendsCSRF(t *testing.T) {
	srv, api := newFakeAPI(t)
	file := filepath.Join(t.TempDir(), "session.json")
	if _, _, err := run(t, srv, file, "", "login", "-p", "secret"); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := run(t, srv, file, "", "topic", "create", "--name", "golang", "--json")
	if err != nil {
		t.Fatalf("topic create: %v", err)
	}
	var topic client.Topic
	if err := json.Unmarshal([]byte(stdout), &topic); err != nil || topic.ID != 5 {
		t.Errorf("unexpected json output %q: %v", stdout, err)
	}

	body, csrf := api.request("POST /api/admin/topics")
	if csrf != fakeCSRF {
		t.Errorf("X-CSRF-Token = %q, want %q", csrf, fakeCSRF)
	}
	if !strings.Contains(string(body), `"name":"golang"`) || strings.Contains(string(body), "description") {
		t.Errorf("unexpected body: %s", body)
	}
}

func TestCLI_FinancialsAssign(t *testing.T) {
	srv, api := newFakeAPI(t)
	file := filepath.Join(t.TempDir(), "session.json")
	if _, _, err := run(t, srv, file, "", "login", "-p", "secret"); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, err := run(t, srv, file, "", "financials", "assign", "--tg-id", "123", "--amount", "990")
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !strings.Contains(stderr, "9") || !strings.Contains(stdout, "990 ₽") {
		t.Errorf("unexpected output: %q / %q", stdout, stderr)
	}

	body, _ := api.request("POST /api/admin/subscriptions")
	var sent map[string]any
	if err := json.Unmarshal(body, &sent); err != nil {
		t.Fatal(err)
	}
	if sent["tg_id"] != float64(123) || sent["amount_rub"] != float64(990) || sent["plan_tier"] != "pro" {
		t.Errorf("unexpected request: %v", sent)
	}
	if v, ok := sent["expires_at"]; !ok || v != nil {
		t.Errorf("expires_at must be null, got %v", v)
	}

	_, _, err = run(t, srv, file, "", "financials", "assign", "--tg-id", "abc")
	if err == nil || !strings.Contains(err.Error(), "Telegram ID") {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCLI_FinancialsSummary(t *testing.T) {
	srv, _ := newFakeAPI(t)
	file := filepath.Join(t.TempDir(), "session.json")
	if _, _, err := run(t, srv, file, "", "login", "-p", "secret"); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := run(t, srv, file, "", "financials", "summary", "--from", "2024-05-01", "--to", "2024-05-31")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	for _, want := range []string{"990 ₽", "free", "corp"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("summary output must contain %q:\n%s", want, stdout)
		}
	}

	_, _, err = run(t, srv, file, "", "financials", "subscriptions", "--from", "2024-06-01", "--to", "2024-05-01")
	if err == nil {
		t.Error("reversed range must be rejected")
	}
}

func TestCLI_FinancialsRevoke(t *testing.T) {
	srv, api := newFakeAPI(t)
	file := filepath.Join(t.TempDir(), "session.json")
	if _, _, err := run(t, srv, file, "", "login", "-p", "secret"); err != nil {
		t.Fatal(err)
	}

	if _, _, err := run(t, srv, file, "", "financials", "revoke"); err == nil {
		t.Error("revoke without a user must fail")
	}

	stdout, stderr, err := run(t, srv, file, "", "financials", "revoke", "--tg-id", "123")
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if !strings.Contains(stderr, "Подписка отозвана.") || !strings.Contains(stdout, "free") {
		t.Errorf("unexpected output: %q / %q", stdout, stderr)
	}

	body, csrf := api.request("POST /api/admin/financials/revoke")
	if csrf != fakeCSRF {
		t.Errorf("X-CSRF-Token = %q, want %q", csrf, fakeCSRF)
	}
	if string(body) != `{"tg_id":123}` {
		t.Errorf("unexpected request body: %s", body)
	}
}

func TestCLI_AlertListShowsMuted(t *testing.T) {
	srv, _ := newFakeAPI(t)
	file := filepath.Join(t.TempDir(), "session.json")
	if _, _, err := run(t, srv, file, "", "login", "-p", "secret"); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := run(t, srv, file, "", "alert", "list")
	if err != nil {
		t.Fatalf("alert list: %v", err)
	}

	muted := map[string]bool{}
	for _, line := range strings.Split(stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}
		// ID SEVERITY STATUS TITLE ACK MUTED ...
		muted[fields[3]] = fields[5] == "yes"
	}
	if !muted["rss-muted"] || muted["db-unmuted"] {
		t.Errorf("unexpected muted column:\n%s", stdout)
	}
}

func TestHashPassword(t *testing.T) {
	srv, _ := newFakeAPI(t)
	stdout, _, err := run(t, srv, filepath.Join(t.TempDir(), "s.json"), "", "hash-password", "s3cret")
	if err != nil {
		t.Fatal(err)
	}
	hash := strings.TrimSpace(stdout)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")); err != nil {
		t.Errorf("hash does not match: %v", err)
	}
}

func TestErrorMessage_Unauthorized(t *testing.T) {
	err := &client.APIError{Status: http.StatusUnauthorized, Message: "Требуется авторизация."}
	if got := ErrorMessage(err); got != "Требуется авторизация. Выполните: infra-admin login" {
		t.Errorf("unexpected message: %q", got)
	}
}
