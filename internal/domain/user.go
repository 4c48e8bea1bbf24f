package domain

import "time"

// User — пользователь бота (идентифицируется Telegram ID).
type User struct {
	ID            int64      `json:"id"`
	TgID          int64      `json:"tg_id"`
	Username      string     `json:"username,omitempty"`
	PlanTier      PlanTier   `json:"plan_tier"`
	PlanExpiresAt *time.Time `json:"plan_expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PlanExpired проверяет, истёк ли платный план к моменту now.
func (u *User) PlanExpired(now time.Time) bool {
	if u.PlanTier == PlanTierFree || u.PlanExpiresAt == nil {
		return false
	}
	return u.PlanExpiresAt.Before(now)
}
