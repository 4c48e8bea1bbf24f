package client

import (
	"time"

	"github.com/shaiso/infra/internal/domain"
)

// --- Response types ---

// MeResponse — ответ /api/admin/auth/me.
type MeResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username"`
}

// SourceState — сохранённое состояние ингестии источника.
type SourceState struct {
	ID    int64          `json:"id"`
	State map[string]any `json:"state"`
}

// --- Request types ---

// LoginRequest — учётные данные администратора.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SourceCreate — создание источника.
type SourceCreate struct {
	Name        string   `json:"name"`
	SourceType  string   `json:"source_type,omitempty"`
	URL         *string  `json:"url,omitempty"`
	TrustManual *int     `json:"trust_manual,omitempty"`
	JobKeywords []string `json:"job_keywords,omitempty"`
	JobRegex    *string  `json:"job_regex,omitempty"`
}

// SourceUpdate — частичное обновление источника.
type SourceUpdate struct {
	Name        *string  `json:"name,omitempty"`
	SourceType  *string  `json:"source_type,omitempty"`
	URL         *string  `json:"url,omitempty"`
	TrustManual *int     `json:"trust_manual,omitempty"`
	JobKeywords []string `json:"job_keywords,omitempty"`
	JobRegex    *string  `json:"job_regex,omitempty"`
}

// TopicCreate — создание темы.
type TopicCreate struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// TopicUpdate — частичное обновление темы.
type TopicUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// SubscriptionCreateRequest — выдача подписки пользователю.
//
// Пользователь задаётся UserID или TgID. ExpiresAt без omitempty:
// бессрочная подписка уходит как null.
type SubscriptionCreateRequest struct {
	UserID    *int64     `json:"user_id,omitempty"`
	TgID      *int64     `json:"tg_id,omitempty"`
	PlanTier  string     `json:"plan_tier"`
	Status    string     `json:"status"`
	AmountRub int64      `json:"amount_rub"`
	StartedAt *time.Time `json:"started_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// RevokeRequest — отзыв плана по UserID или TgID.
type RevokeRequest struct {
	UserID *int64 `json:"user_id,omitempty"`
	TgID   *int64 `json:"tg_id,omitempty"`
}

// RevokeResponse — пользователь после отзыва и число отменённых подписок.
type RevokeResponse struct {
	Message   string `json:"message"`
	User      User   `json:"user"`
	Cancelled int64  `json:"cancelled"`
}

// Range — интервал отчёта. nil-граница не ограничивает выборку.
type Range struct {
	From *time.Time
	To   *time.Time
}

// SubscriptionFilter — параметры выборки подписок.
type SubscriptionFilter struct {
	Range
	PlanTier string
	Status   string
	UserID   *int64
	TgID     *int64
}

// Aliases для типов, приходящих с сервера без изменений.
type (
	Overview         = domain.Overview
	Source           = domain.Source
	Topic            = domain.Topic
	Alert            = domain.Alert
	Subscription     = domain.Subscription
	User             = domain.User
	FinancialSummary = domain.FinancialSummary
)
