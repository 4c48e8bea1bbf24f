package api

import (
	"strings"
	"time"

	"github.com/shaiso/infra/internal/domain"
	"github.com/shaiso/infra/internal/repo"
)

// Auth DTOs

// LoginRequest — учётные данные администратора.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// MeResponse — текущая сессия.
type MeResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username"`
}

// Source DTOs

// CreateSourceRequest — запрос на создание источника.
type CreateSourceRequest struct {
	Name        string   `json:"name"`
	SourceType  string   `json:"source_type"`
	URL         *string  `json:"url"`
	TrustManual *int     `json:"trust_manual"`
	JobKeywords []string `json:"job_keywords"`
	JobRegex    *string  `json:"job_regex"`
}

// ToDomain создаёт domain.Source с значениями по умолчанию.
func (req CreateSourceRequest) ToDomain() *domain.Source {
	s := &domain.Source{
		Name:        strings.TrimSpace(req.Name),
		SourceType:  req.SourceType,
		URL:         req.URL,
		TrustManual: domain.DefaultTrustManual,
		JobKeywords: req.JobKeywords,
		JobRegex:    req.JobRegex,
	}
	if s.SourceType == "" {
		s.SourceType = domain.DefaultSourceType
	}
	if req.TrustManual != nil {
		s.TrustManual = *req.TrustManual
	}
	return s
}

// UpdateSourceRequest — запрос на частичное обновление источника.
type UpdateSourceRequest struct {
	Name        *string  `json:"name"`
	SourceType  *string  `json:"source_type"`
	URL         *string  `json:"url"`
	TrustManual *int     `json:"trust_manual"`
	JobKeywords []string `json:"job_keywords"`
	JobRegex    *string  `json:"job_regex"`
}

// ToPatch конвертирует запрос в repo.SourcePatch.
func (req UpdateSourceRequest) ToPatch() repo.SourcePatch {
	return repo.SourcePatch{
		Name:        req.Name,
		SourceType:  req.SourceType,
		URL:         req.URL,
		TrustManual: req.TrustManual,
		JobKeywords: req.JobKeywords,
		JobRegex:    req.JobRegex,
	}
}

// SourceStateResponse — состояние ингестии источника.
type SourceStateResponse struct {
	ID    int64          `json:"id"`
	State map[string]any `json:"state"`
}

// Topic DTOs

// CreateTopicRequest — запрос на создание темы.
type CreateTopicRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

// UpdateTopicRequest — запрос на частичное обновление темы.
type UpdateTopicRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Alert DTOs

// MuteAlertRequest — запрос на mute алерта.
type MuteAlertRequest struct {
	Minutes *int `json:"minutes"`
}

// Subscription DTOs

// CreateSubscriptionRequest — выдача подписки пользователю.
type CreateSubscriptionRequest struct {
	UserID    *int64     `json:"user_id"`
	TgID      *int64     `json:"tg_id"`
	PlanTier  string     `json:"plan_tier"`
	Status    string     `json:"status"`
	AmountRub int64      `json:"amount_rub"`
	StartedAt *time.Time `json:"started_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Validate проверяет поля и возвращает текст ошибки для пользователя.
func (req *CreateSubscriptionRequest) Validate() string {
	if req.UserID == nil && req.TgID == nil {
		return "Укажите user_id или tg_id."
	}
	if req.Status == "" {
		req.Status = string(domain.SubscriptionStatusActive)
	}
	if !domain.PlanTier(req.PlanTier).IsValid() {
		return "Неизвестный план: " + req.PlanTier + "."
	}
	if !domain.SubscriptionStatus(req.Status).IsValid() {
		return "Неизвестный статус: " + req.Status + "."
	}
	if req.AmountRub < 0 {
		return "Сумма не может быть отрицательной."
	}
	return ""
}

// ToParams конвертирует запрос в repo.AssignParams.
func (req CreateSubscriptionRequest) ToParams(now time.Time) repo.AssignParams {
	p := repo.AssignParams{
		UserID:    req.UserID,
		TgID:      req.TgID,
		PlanTier:  domain.PlanTier(req.PlanTier),
		Status:    domain.SubscriptionStatus(req.Status),
		AmountRub: req.AmountRub,
		StartedAt: now.UTC(),
		ExpiresAt: req.ExpiresAt,
	}
	if req.StartedAt != nil {
		p.StartedAt = *req.StartedAt
	}
	return p
}

// GrantSubscriptionRequest — ручная выдача плана по user_id.
type GrantSubscriptionRequest struct {
	UserID    int64      `json:"user_id"`
	PlanTier  string     `json:"plan_tier"`
	AmountRub int64      `json:"amount_rub"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// ToCreate сводит грант к выдаче активной подписки.
func (req GrantSubscriptionRequest) ToCreate() CreateSubscriptionRequest {
	return CreateSubscriptionRequest{
		UserID:    &req.UserID,
		PlanTier:  req.PlanTier,
		Status:    string(domain.SubscriptionStatusActive),
		AmountRub: req.AmountRub,
		ExpiresAt: req.ExpiresAt,
	}
}

// RevokeSubscriptionRequest — отзыв плана пользователя.
type RevokeSubscriptionRequest struct {
	UserID *int64 `json:"user_id"`
	TgID   *int64 `json:"tg_id"`
}

// RevokeSubscriptionResponse — итог отзыва.
type RevokeSubscriptionResponse struct {
	Message   string      `json:"message"`
	User      domain.User `json:"user"`
	Cancelled int64       `json:"cancelled"`
}
