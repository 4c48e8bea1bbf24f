package domain

// PlanTier — тарифный план пользователя.
type PlanTier string

const (
	// PlanTierFree — бесплатный план (по умолчанию).
	PlanTierFree PlanTier = "free"

	// PlanTierPro — платный персональный план.
	PlanTierPro PlanTier = "pro"

	// PlanTierCorp — корпоративный план.
	PlanTierCorp PlanTier = "corp"
)

// PlanTiers — все известные планы в порядке отображения.
var PlanTiers = []PlanTier{PlanTierFree, PlanTierPro, PlanTierCorp}

// IsValid возвращает true для известного плана.
func (t PlanTier) IsValid() bool {
	switch t {
	case PlanTierFree, PlanTierPro, PlanTierCorp:
		return true
	default:
		return false
	}
}

// SubscriptionStatus — статус подписки.
//
// Жизненный цикл:
//
//	active → expired   (истёк expires_at, переводит scheduler)
//	       ↘ cancelled (вручную)
type SubscriptionStatus string

const (
	// SubscriptionStatusActive — подписка действует.
	SubscriptionStatusActive SubscriptionStatus = "active"

	// SubscriptionStatusExpired — срок подписки истёк.
	SubscriptionStatusExpired SubscriptionStatus = "expired"

	// SubscriptionStatusCancelled — подписка отменена.
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
)

// IsValid возвращает true для известного статуса.
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusExpired, SubscriptionStatusCancelled:
		return true
	default:
		return false
	}
}

// AlertStatus — статус алерта.
type AlertStatus string

const (
	// AlertStatusOpen — алерт активен.
	AlertStatusOpen AlertStatus = "open"

	// AlertStatusResolved — алерт закрыт.
	AlertStatusResolved AlertStatus = "resolved"
)
