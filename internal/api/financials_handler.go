package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/shaiso/infra/internal/domain"
	"github.com/shaiso/infra/internal/repo"
)

const msgUserNotFound = "Пользователь не найден."

// parseTime разбирает необязательный query-параметр RFC3339.
func parseTime(r *http.Request, name string) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, false
	}
	return &t, true
}

// parseInt64 разбирает необязательный целочисленный query-параметр.
func parseInt64(r *http.Request, name string) (*int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, false
	}
	return &v, true
}

// parseRange читает from/to. Возвращает false и отправляет 422 при ошибке.
func parseRange(w http.ResponseWriter, r *http.Request) (from, to *time.Time, ok bool) {
	if from, ok = parseTime(r, "from"); !ok {
		Unprocessable(w, "Некорректная дата from.")
		return nil, nil, false
	}
	if to, ok = parseTime(r, "to"); !ok {
		Unprocessable(w, "Некорректная дата to.")
		return nil, nil, false
	}
	return from, to, true
}

// FinancialSummary возвращает финансовый отчёт за период.
// GET /api/admin/financials/summary?from=&to=
func (h *Handler) FinancialSummary(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseRange(w, r)
	if !ok {
		return
	}

	summary, err := h.subscriptions.Summary(r.Context(), from, to, h.now().UTC())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}
	summary.FillTiers()
	Success(w, summary)
}

// ListSubscriptions возвращает подписки по фильтру, новые первыми.
// GET /api/admin/subscriptions?from=&to=&plan_tier=&status=&user_id=&tg_id=
func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	from, to, ok := parseRange(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := repo.SubscriptionFilter{
		From:     from,
		To:       to,
		PlanTier: domain.PlanTier(q.Get("plan_tier")),
		Status:   domain.SubscriptionStatus(q.Get("status")),
	}
	if filter.UserID, ok = parseInt64(r, "user_id"); !ok {
		Unprocessable(w, "Некорректный user_id.")
		return
	}
	if filter.TgID, ok = parseInt64(r, "tg_id"); !ok {
		Unprocessable(w, "Некорректный tg_id.")
		return
	}

	subs, err := h.subscriptions.List(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}
	if subs == nil {
		subs = []domain.Subscription{}
	}
	Success(w, subs)
}

// CreateSubscription выдаёт подписку и обновляет план пользователя.
// POST /api/admin/subscriptions
func (h *Handler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	var req CreateSubscriptionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		Unprocessable(w, msgInvalidBody)
		return
	}

	if sub, ok := h.assign(w, r, req); ok {
		Created(w, sub)
	}
}

// GrantSubscription — упрощённая выдача плана по user_id.
// POST /api/admin/financials/grant
func (h *Handler) GrantSubscription(w http.ResponseWriter, r *http.Request) {
	var req GrantSubscriptionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		Unprocessable(w, msgInvalidBody)
		return
	}
	if req.UserID <= 0 {
		BadRequest(w, "Укажите user_id.")
		return
	}

	if _, ok := h.assign(w, r, req.ToCreate()); ok {
		Success(w, MessageResponse{Message: "Подписка обновлена."})
	}
}

func (h *Handler) assign(w http.ResponseWriter, r *http.Request, req CreateSubscriptionRequest) (*domain.Subscription, bool) {
	if msg := req.Validate(); msg != "" {
		BadRequest(w, msg)
		return nil, false
	}

	sub, err := h.subscriptions.Assign(r.Context(), req.ToParams(h.now()))
	if HandleRepoError(w, h.logger, err, msgUserNotFound) {
		return nil, false
	}

	h.publish(r.Context(), "subscription.created", func(ctx context.Context) error {
		return h.publisher.PublishSubscriptionCreated(ctx, sub)
	})
	return sub, true
}

// RevokeSubscription переводит пользователя на free и отменяет его
// активные подписки.
// POST /api/admin/financials/revoke
func (h *Handler) RevokeSubscription(w http.ResponseWriter, r *http.Request) {
	var req RevokeSubscriptionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		Unprocessable(w, msgInvalidBody)
		return
	}
	if req.UserID == nil && req.TgID == nil {
		BadRequest(w, "Укажите user_id или tg_id.")
		return
	}

	res, err := h.subscriptions.Revoke(r.Context(), req.UserID, req.TgID)
	if HandleRepoError(w, h.logger, err, msgUserNotFound) {
		return
	}

	h.logger.Info("subscription revoked", "user_id", res.User.ID, "cancelled", res.Cancelled)
	Success(w, RevokeSubscriptionResponse{
		Message:   "Подписка отозвана.",
		User:      res.User,
		Cancelled: res.Cancelled,
	})
}
