package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/infra/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeSubscriptionCreated MessageType = "subscription.created"
	MessageTypeAlertResolved       MessageType = "alert.resolved"
)

// Message — конверт события.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// SubscriptionCreatedPayload — выдана подписка.
type SubscriptionCreatedPayload struct {
	SubscriptionID int64                     `json:"subscription_id"`
	UserID         int64                     `json:"user_id"`
	PlanTier       domain.PlanTier           `json:"plan_tier"`
	Status         domain.SubscriptionStatus `json:"status"`
	AmountRub      int64                     `json:"amount_rub"`
	ExpiresAt      *time.Time                `json:"expires_at"`
}

// AlertResolvedPayload — алерт закрыт вручную.
type AlertResolvedPayload struct {
	AlertID  int64  `json:"alert_id"`
	DedupKey string `json:"dedup_key"`
	Title    string `json:"title"`
	Message  string `json:"message"`
}

// Publisher публикует события админки в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
	now    func() time.Time
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
		now:    time.Now,
	}
}

// NewMessage создаёт конверт с новым ID.
func NewMessage(msgType MessageType, payload any, now time.Time) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: now,
	}
}

// Publish публикует сообщение в exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Type:         string(msg.Type),
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishSubscriptionCreated публикует событие о выданной подписке.
// Потребитель: Notifier.
func (p *Publisher) PublishSubscriptionCreated(ctx context.Context, sub *domain.Subscription) error {
	payload := SubscriptionCreatedPayload{
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		PlanTier:       sub.PlanTier,
		Status:         sub.Status,
		AmountRub:      sub.AmountRub,
		ExpiresAt:      sub.ExpiresAt,
	}
	msg := NewMessage(MessageTypeSubscriptionCreated, payload, p.now())
	return p.Publish(ctx, ExchangeAdmin, RoutingKeySubscriptionCreated, msg)
}

// PublishAlertResolved публикует событие о закрытом алерте.
// Потребитель: Notifier.
func (p *Publisher) PublishAlertResolved(ctx context.Context, resolved *domain.Alert) error {
	payload := AlertResolvedPayload{
		AlertID:  resolved.ID,
		DedupKey: resolved.DedupKey,
		Title:    resolved.Title,
		Message:  resolved.Message,
	}
	msg := NewMessage(MessageTypeAlertResolved, payload, p.now())
	return p.Publish(ctx, ExchangeAdmin, RoutingKeyAlertResolved, msg)
}
