package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shaiso/infra/internal/mq"
	"github.com/shaiso/infra/internal/telemetry"
)

// Sender отправляет текстовое сообщение.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Результаты обработки для метрики EventsRelayed.
const (
	resultSent    = "sent"
	resultSkipped = "skipped"
	resultError   = "error"
)

// Relay преобразует события в сообщения и отправляет их через Sender.
type Relay struct {
	sender Sender
	logger *slog.Logger
}

// NewRelay создаёт Relay. sender == nil — Telegram не настроен.
func NewRelay(sender Sender, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	return &Relay{sender: sender, logger: logger}
}

// Handle — mq.Handler. Ошибка отправки возвращается, чтобы consumer
// повторил доставку; отказ Bot API (4xx кроме 429) уходит в DLQ без
// повтора. Нераспознанные события подтверждаются.
func (r *Relay) Handle(ctx context.Context, d *mq.Delivery) error {
	msg := &d.Message
	logger := r.logger.With("message_id", msg.ID, "type", msg.Type)

	text, err := Format(msg)
	if err != nil {
		logger.Warn("skipping event", "error", err)
		r.count(msg.Type, resultSkipped)
		return nil
	}

	if r.sender == nil {
		logger.Info("telegram not configured, event dropped", "text", text)
		r.count(msg.Type, resultSkipped)
		return nil
	}

	if err := r.sender.Send(ctx, text); err != nil {
		r.count(msg.Type, resultError)
		var botErr *BotError
		if errors.As(err, &botErr) && botErr.Rejected() {
			return mq.Permanent(err)
		}
		return err
	}

	logger.Debug("event relayed")
	r.count(msg.Type, resultSent)
	return nil
}

func (r *Relay) count(t mq.MessageType, result string) {
	telemetry.EventsRelayed.WithLabelValues(string(t), result).Inc()
}

// Format возвращает текст сообщения для события.
func Format(msg *mq.Message) (string, error) {
	switch msg.Type {
	case mq.MessageTypeSubscriptionCreated:
		p, err := mq.ParsePayload[mq.SubscriptionCreatedPayload](msg)
		if err != nil {
			return "", err
		}
		return formatSubscription(p), nil

	case mq.MessageTypeAlertResolved:
		p, err := mq.ParsePayload[mq.AlertResolvedPayload](msg)
		if err != nil {
			return "", err
		}
		return p.Title + "\n" + p.Message, nil

	default:
		return "", fmt.Errorf("unknown event type %q", msg.Type)
	}
}

func formatSubscription(p mq.SubscriptionCreatedPayload) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Выдана подписка #%d\n", p.SubscriptionID)
	fmt.Fprintf(&b, "Пользователь: %d\n", p.UserID)
	fmt.Fprintf(&b, "План: %s (%s)\n", p.PlanTier, p.Status)
	fmt.Fprintf(&b, "Сумма: %d ₽\n", p.AmountRub)
	if p.ExpiresAt != nil {
		fmt.Fprintf(&b, "До: %s", p.ExpiresAt.UTC().Format("2006-01-02 15:04 MST"))
	} else {
		b.WriteString("До: бессрочно")
	}
	return b.String()
}
