package domain

import "time"

// Alert — системный алерт.
//
// DedupKey группирует повторы одной проблемы: закрытие алерта вручную
// добавляет запись RESOLVED с тем же ключом.
type Alert struct {
	ID           int64       `json:"id"`
	DedupKey     string      `json:"dedup_key"`
	Title        string      `json:"title"`
	Message      string      `json:"message"`
	Severity     string      `json:"severity"`
	Status       AlertStatus `json:"status"`
	Acknowledged bool        `json:"acknowledged"`
	MutedUntil   *time.Time  `json:"muted_until"`
	LastSentAt   *time.Time  `json:"last_sent_at"`
	CreatedAt    time.Time   `json:"created_at"`
}

// DefaultMuteMinutes — длительность mute по умолчанию.
const DefaultMuteMinutes = 15

// IsMuted проверяет, заглушён ли алерт в момент now.
func (a *Alert) IsMuted(now time.Time) bool {
	return a.MutedUntil != nil && a.MutedUntil.After(now)
}

// Overview — счётчики для главной страницы админки.
type Overview struct {
	Users      int64 `json:"users"`
	Topics     int64 `json:"topics"`
	Sources    int64 `json:"sources"`
	AlertsOpen int64 `json:"alerts_open"`
}
