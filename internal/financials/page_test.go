package financials

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/infra/internal/client"
	"github.com/shaiso/infra/internal/view"
)

// recordingServer — минимальный сервер финансов, считающий запросы.
type recordingServer struct {
	mu       sync.Mutex
	posts    []map[string]any
	summary  int
	list     int
	failPost bool
}

func (s *recordingServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/admin/financials/summary", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.summary++
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"revenue_rub":499,"payments_count":1,"new_subscriptions_count":1,"active_subscriptions_count":1,"by_tier":{"pro":{"revenue_rub":499,"count":1}}}`)
	})
	mux.HandleFunc("GET /api/admin/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.list++
		s.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"id":1,"user_id":7,"plan_tier":"pro","status":"active","amount_rub":499,"started_at":"2024-05-01T10:00:00Z","expires_at":null,"created_at":"2024-05-01T10:00:00Z"}]`)
	})
	mux.HandleFunc("POST /api/admin/subscriptions", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.posts = append(s.posts, body)
		fail := s.failPost
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if fail {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"detail":"Пользователь не найден."}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		io.WriteString(w, `{"id":1,"user_id":7,"plan_tier":"pro","status":"active","amount_rub":499,"started_at":"2024-05-01T10:00:00Z","expires_at":null,"created_at":"2024-05-01T10:00:00Z"}`)
	})
	return mux
}

func (s *recordingServer) counts() (posts, summary, list int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.posts), s.summary, s.list
}

func newTestPage(t *testing.T, srv *recordingServer) *Page {
	t.Helper()
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)

	c, err := client.New(ts.URL)
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	p := NewPage(c, time.UTC)
	t.Cleanup(p.Close)
	return p
}

func TestPage_Refresh(t *testing.T) {
	srv := &recordingServer{}
	p := newTestPage(t, srv)
	p.Range = DateRange{From: "2024-05-01", To: "2024-05-31"}

	p.Refresh(context.Background())

	sum := p.Summary.Result()
	if sum.Phase != view.Loaded {
		t.Fatalf("summary phase = %s, message %q", sum.Phase, sum.Message)
	}
	if sum.Data.RevenueRub != 499 {
		t.Errorf("revenue = %d, want 499", sum.Data.RevenueRub)
	}
	list := p.Subscriptions.Result()
	if list.Phase != view.Loaded || len(list.Data) != 1 {
		t.Errorf("unexpected list result: %+v", list)
	}
}

func TestPage_RefreshInvalidRange(t *testing.T) {
	srv := &recordingServer{}
	p := newTestPage(t, srv)
	p.Range = DateRange{From: "not-a-date"}

	p.Refresh(context.Background())

	if p.Summary.Result().Phase != view.Failed {
		t.Errorf("expected Failed summary, got %s", p.Summary.Result().Phase)
	}
	if _, summary, list := srv.counts(); summary != 0 || list != 0 {
		t.Errorf("no request expected, got summary=%d list=%d", summary, list)
	}
}

func TestPage_Submit(t *testing.T) {
	srv := &recordingServer{}
	p := newTestPage(t, srv)

	p.Form.TgID = "123"
	p.Form.PlanTier = "pro"
	p.Form.AmountRub = "499"

	if err := p.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	posts, summary, list := srv.counts()
	if posts != 1 {
		t.Fatalf("expected exactly one POST, got %d", posts)
	}
	srv.mu.Lock()
	body := srv.posts[0]
	srv.mu.Unlock()
	if body["tg_id"] != float64(123) {
		t.Errorf("tg_id must be sent as a number, got %#v", body["tg_id"])
	}
	if body["plan_tier"] != "pro" || body["amount_rub"] != float64(499) {
		t.Errorf("unexpected body: %v", body)
	}

	if p.Form.TgID != "" || p.Form.AmountRub != "" || p.Form.ExpiresAt != "" {
		t.Errorf("form must be cleared, got %+v", p.Form)
	}
	if p.Form.PlanTier != "pro" {
		t.Errorf("plan tier must be kept, got %q", p.Form.PlanTier)
	}

	if summary != 1 || list != 1 {
		t.Errorf("expected summary and list re-fetched once, got summary=%d list=%d", summary, list)
	}
	if p.SubmitError != "" {
		t.Errorf("unexpected submit error: %q", p.SubmitError)
	}
	if p.LastCreated == nil || p.LastCreated.ID != 1 {
		t.Errorf("unexpected LastCreated: %+v", p.LastCreated)
	}
}

func TestPage_SubmitServerError(t *testing.T) {
	srv := &recordingServer{failPost: true}
	p := newTestPage(t, srv)
	p.Form.TgID = "999"

	err := p.Submit(context.Background())
	if !client.IsStatus(err, http.StatusNotFound) {
		t.Fatalf("expected 404 APIError, got %v", err)
	}
	if p.SubmitError != "Пользователь не найден." {
		t.Errorf("unexpected submit error: %q", p.SubmitError)
	}
	if p.Form.TgID != "999" {
		t.Error("form must be kept on failure")
	}
	if _, summary, list := srv.counts(); summary != 0 || list != 0 {
		t.Error("no refresh expected after failed submit")
	}
}

func TestPage_SubmitValidation(t *testing.T) {
	srv := &recordingServer{}
	p := newTestPage(t, srv)
	p.Form.TgID = "12a"

	if err := p.Submit(context.Background()); err == nil {
		t.Fatal("expected validation error")
	}
	if posts, _, _ := srv.counts(); posts != 0 {
		t.Errorf("no POST expected, got %d", posts)
	}
	if p.SubmitError == "" {
		t.Error("submit error must be set")
	}
}
