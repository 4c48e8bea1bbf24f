package client

import (
	"context"
	"net/url"
	"strconv"
)

// TimeLayout — формат границ интервала в query (ISO 8601 с миллисекундами).
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Values возвращает query параметры from/to.
func (r Range) Values() url.Values {
	params := url.Values{}
	if r.From != nil {
		params.Set("from", r.From.Format(TimeLayout))
	}
	if r.To != nil {
		params.Set("to", r.To.Format(TimeLayout))
	}
	return params
}

// FinancialSummary возвращает финансовый отчёт за интервал.
func (c *Client) FinancialSummary(ctx context.Context, r Range) (*FinancialSummary, error) {
	var summary FinancialSummary
	if err := c.get(ctx, "/api/admin/financials/summary", r.Values(), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// ListSubscriptions возвращает подписки, новые первыми.
func (c *Client) ListSubscriptions(ctx context.Context, f SubscriptionFilter) ([]Subscription, error) {
	params := f.Range.Values()
	if f.PlanTier != "" {
		params.Set("plan_tier", f.PlanTier)
	}
	if f.Status != "" {
		params.Set("status", f.Status)
	}
	if f.UserID != nil {
		params.Set("user_id", strconv.FormatInt(*f.UserID, 10))
	}
	if f.TgID != nil {
		params.Set("tg_id", strconv.FormatInt(*f.TgID, 10))
	}

	var subs []Subscription
	err := c.get(ctx, "/api/admin/subscriptions", params, &subs)
	return subs, err
}

// CreateSubscription выдаёт подписку пользователю.
func (c *Client) CreateSubscription(ctx context.Context, req SubscriptionCreateRequest) (*Subscription, error) {
	var sub Subscription
	if err := c.post(ctx, "/api/admin/subscriptions", req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// RevokeSubscription переводит пользователя на free.
func (c *Client) RevokeSubscription(ctx context.Context, req RevokeRequest) (*RevokeResponse, error) {
	var resp RevokeResponse
	if err := c.post(ctx, "/api/admin/financials/revoke", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
