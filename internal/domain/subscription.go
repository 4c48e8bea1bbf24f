package domain

import "time"

// Subscription — запись о подписке (платёж или ручной грант).
//
// Каждая выдача плана создаёт новую запись; история не перезаписывается.
// Текущий план пользователя хранится в User.PlanTier.
type Subscription struct {
	// ID — идентификатор записи.
	ID int64 `json:"id"`

	// UserID — пользователь, которому выдана подписка.
	UserID int64 `json:"user_id"`

	// PlanTier — выданный план.
	PlanTier PlanTier `json:"plan_tier"`

	// Status — статус подписки.
	Status SubscriptionStatus `json:"status"`

	// AmountRub — сумма платежа в рублях (0 для грантов).
	AmountRub int64 `json:"amount_rub"`

	// StartedAt — начало действия.
	StartedAt time.Time `json:"started_at"`

	// ExpiresAt — окончание действия. nil — бессрочно.
	ExpiresAt *time.Time `json:"expires_at"`

	// CreatedAt — время создания записи. По нему фильтруются отчёты.
	CreatedAt time.Time `json:"created_at"`
}

// IsActiveAt проверяет, действует ли подписка в момент t.
func (s *Subscription) IsActiveAt(t time.Time) bool {
	if s.Status != SubscriptionStatusActive {
		return false
	}
	if s.StartedAt.After(t) {
		return false
	}
	return s.ExpiresAt == nil || !s.ExpiresAt.Before(t)
}

// TierSummary — выручка и количество подписок по одному плану.
type TierSummary struct {
	RevenueRub int64 `json:"revenue_rub"`
	Count      int64 `json:"count"`
}

// FinancialSummary — агрегированный финансовый отчёт за период.
type FinancialSummary struct {
	RevenueRub               int64                    `json:"revenue_rub"`
	PaymentsCount            int64                    `json:"payments_count"`
	NewSubscriptionsCount    int64                    `json:"new_subscriptions_count"`
	ActiveSubscriptionsCount int64                    `json:"active_subscriptions_count"`
	ByTier                   map[PlanTier]TierSummary `json:"by_tier"`
}

// FillTiers добавляет нулевые строки для планов, по которым не было подписок.
func (f *FinancialSummary) FillTiers() {
	if f.ByTier == nil {
		f.ByTier = make(map[PlanTier]TierSummary, len(PlanTiers))
	}
	for _, tier := range PlanTiers {
		if _, ok := f.ByTier[tier]; !ok {
			f.ByTier[tier] = TierSummary{}
		}
	}
}
