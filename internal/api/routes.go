package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes возвращает http.Handler со всеми маршрутами и общей цепочкой
// middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	chain := Chain(
		Recovery(h.logger),
		RequestID(h.logger),
		Logging(),
		Metrics(),
		CORS(h.origins),
	)
	return chain(mux)
}

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	admin := h.RequireSession

	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Auth
	mux.HandleFunc("POST /api/admin/auth/login", h.Login)
	mux.HandleFunc("POST /api/admin/auth/logout", h.Logout)
	mux.Handle("GET /api/admin/auth/me", admin(http.HandlerFunc(h.Me)))

	// Overview
	mux.Handle("GET /api/admin/overview", admin(http.HandlerFunc(h.Overview)))

	// Sources
	mux.Handle("GET /api/admin/sources", admin(http.HandlerFunc(h.ListSources)))
	mux.Handle("POST /api/admin/sources", admin(http.HandlerFunc(h.CreateSource)))
	mux.Handle("PUT /api/admin/sources/{id}", admin(http.HandlerFunc(h.UpdateSource)))
	mux.Handle("DELETE /api/admin/sources/{id}", admin(http.HandlerFunc(h.DeleteSource)))
	mux.Handle("GET /api/admin/sources/{id}/state", admin(http.HandlerFunc(h.SourceState)))

	// Topics
	mux.Handle("GET /api/admin/topics", admin(http.HandlerFunc(h.ListTopics)))
	mux.Handle("POST /api/admin/topics", admin(http.HandlerFunc(h.CreateTopic)))
	mux.Handle("PUT /api/admin/topics/{id}", admin(http.HandlerFunc(h.UpdateTopic)))
	mux.Handle("DELETE /api/admin/topics/{id}", admin(http.HandlerFunc(h.DeleteTopic)))

	// Alerts
	mux.Handle("GET /api/admin/alerts", admin(http.HandlerFunc(h.ListAlerts)))
	mux.Handle("POST /api/admin/alerts/{id}/ack", admin(http.HandlerFunc(h.AckAlert)))
	mux.Handle("POST /api/admin/alerts/{id}/mute", admin(http.HandlerFunc(h.MuteAlert)))
	mux.Handle("POST /api/admin/alerts/{id}/resolve", admin(http.HandlerFunc(h.ResolveAlert)))

	// Financials
	mux.Handle("GET /api/admin/financials/summary", admin(http.HandlerFunc(h.FinancialSummary)))
	mux.Handle("GET /api/admin/financials", admin(http.HandlerFunc(h.ListSubscriptions)))
	mux.Handle("POST /api/admin/financials/grant", admin(http.HandlerFunc(h.GrantSubscription)))
	mux.Handle("POST /api/admin/financials/revoke", admin(http.HandlerFunc(h.RevokeSubscription)))
	mux.Handle("GET /api/admin/subscriptions", admin(http.HandlerFunc(h.ListSubscriptions)))
	mux.Handle("POST /api/admin/subscriptions", admin(http.HandlerFunc(h.CreateSubscription)))
}

// Healthz — проверка живости.
// GET /healthz
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
