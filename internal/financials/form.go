package financials

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shaiso/infra/internal/client"
	"github.com/shaiso/infra/internal/domain"
)

// DateLayout — формат календарной даты в форме.
const DateLayout = "2006-01-02"

// ValidationError — поле формы заполнено неверно. Запрос не отправляется.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// DateRange — интервал отчёта в календарных датах. Пустая дата — без границы.
type DateRange struct {
	From string
	To   string
}

// Bounds переводит даты в границы запроса: From — начало дня,
// To — конец дня (23:59:59.999) в loc.
func (r DateRange) Bounds(loc *time.Location) (client.Range, error) {
	var out client.Range

	if from := strings.TrimSpace(r.From); from != "" {
		d, err := parseDate("from", from, loc)
		if err != nil {
			return client.Range{}, err
		}
		start := startOfDay(d)
		out.From = &start
	}

	if to := strings.TrimSpace(r.To); to != "" {
		d, err := parseDate("to", to, loc)
		if err != nil {
			return client.Range{}, err
		}
		end := endOfDay(d)
		out.To = &end
	}

	if out.From != nil && out.To != nil && out.From.After(*out.To) {
		return client.Range{}, &ValidationError{Field: "from", Message: "Начало периода позже конца."}
	}
	return out, nil
}

// AssignmentForm — форма ручной выдачи подписки. Поля хранятся как
// введённый текст.
type AssignmentForm struct {
	TgID      string
	PlanTier  string
	Status    string
	AmountRub string
	ExpiresAt string
}

// NewAssignmentForm возвращает форму со значениями по умолчанию.
func NewAssignmentForm() AssignmentForm {
	return AssignmentForm{
		PlanTier: string(domain.PlanTierPro),
		Status:   string(domain.SubscriptionStatusActive),
	}
}

// Request сериализует форму в запрос создания подписки.
//
// tg_id и amount_rub уходят числами; пустая сумма — 0; пустая дата
// окончания — null (бессрочно). Дата окончания включительная: подписка
// действует до конца указанного дня в loc.
func (f AssignmentForm) Request(loc *time.Location) (client.SubscriptionCreateRequest, error) {
	var req client.SubscriptionCreateRequest

	tgRaw := strings.TrimSpace(f.TgID)
	if tgRaw == "" {
		return req, &ValidationError{Field: "tg_id", Message: "Укажите Telegram ID."}
	}
	tgID, err := strconv.ParseInt(tgRaw, 10, 64)
	if err != nil {
		return req, &ValidationError{Field: "tg_id", Message: "Telegram ID должен быть числом."}
	}
	req.TgID = &tgID

	tier := domain.PlanTier(strings.TrimSpace(f.PlanTier))
	if !tier.IsValid() {
		return req, &ValidationError{Field: "plan_tier", Message: fmt.Sprintf("Неизвестный план: %q.", f.PlanTier)}
	}
	req.PlanTier = string(tier)

	status := domain.SubscriptionStatus(strings.TrimSpace(f.Status))
	if status == "" {
		status = domain.SubscriptionStatusActive
	}
	if !status.IsValid() {
		return req, &ValidationError{Field: "status", Message: fmt.Sprintf("Неизвестный статус: %q.", f.Status)}
	}
	req.Status = string(status)

	if amountRaw := strings.TrimSpace(f.AmountRub); amountRaw != "" {
		amount, err := strconv.ParseInt(amountRaw, 10, 64)
		if err != nil || amount < 0 {
			return req, &ValidationError{Field: "amount_rub", Message: "Сумма должна быть целым неотрицательным числом."}
		}
		req.AmountRub = amount
	}

	if expRaw := strings.TrimSpace(f.ExpiresAt); expRaw != "" {
		exp, err := parseExpiry(expRaw, loc)
		if err != nil {
			return req, err
		}
		req.ExpiresAt = &exp
	}

	return req, nil
}

// ClearAfterSubmit очищает поля, уникальные для одной выдачи.
// План и статус остаются для следующей выдачи.
func (f *AssignmentForm) ClearAfterSubmit() {
	f.TgID = ""
	f.AmountRub = ""
	f.ExpiresAt = ""
}

func parseExpiry(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	d, err := parseDate("expires_at", raw, loc)
	if err != nil {
		return time.Time{}, err
	}
	return endOfDay(d), nil
}

func parseDate(field, raw string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, &ValidationError{Field: field, Message: fmt.Sprintf("Некорректная дата: %q.", raw)}
	}
	return d, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}
