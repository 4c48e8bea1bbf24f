package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler обрабатывает доставленное событие.
//
// nil — ack. Ошибка, обёрнутая Permanent, отправляет сообщение в DLQ
// сразу; любая другая ошибка даёт одну повторную доставку.
type Handler func(ctx context.Context, d *Delivery) error

// Delivery — доставленное событие.
type Delivery struct {
	Message Message
	Raw     amqp.Delivery
}

// Ack подтверждает событие.
func (d *Delivery) Ack() error {
	return d.Raw.Ack(false)
}

// Nack отклоняет событие. requeue=false — в DLQ.
func (d *Delivery) Nack(requeue bool) error {
	return d.Raw.Nack(false, requeue)
}

// Redelivered — событие уже доставлялось и вернулось в очередь.
func (d *Delivery) Redelivered() bool {
	return d.Raw.Redelivered
}

// settle завершает доставку по результату обработчика и сообщает,
// вернулось ли событие в очередь.
func (d *Delivery) settle(handlerErr error) (requeued bool, err error) {
	switch {
	case handlerErr == nil:
		return false, d.Ack()
	case IsPermanent(handlerErr), d.Redelivered():
		return false, d.Nack(false)
	default:
		return true, d.Nack(true)
	}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent помечает ошибку как неустранимую повтором.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent проверяет, помечена ли ошибка через Permanent.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// Consumer читает события из очереди и передаёт их Handler.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	queue    string
	handler  Handler
	prefetch int

	cancelFunc context.CancelFunc
}

// ConsumerConfig — параметры Consumer.
type ConsumerConfig struct {
	Queue   string
	Handler Handler

	// Prefetch — лимит неподтверждённых сообщений, по умолчанию 1.
	Prefetch int
}

// NewConsumer создаёт Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	return &Consumer{
		conn:     conn,
		logger:   logger.With("queue", cfg.Queue),
		queue:    cfg.Queue,
		handler:  cfg.Handler,
		prefetch: cfg.Prefetch,
	}
}

// Start блокируется до отмены ctx, переподписываясь после каждого
// переподключения Connection.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, c.cancelFunc = context.WithCancel(ctx)

	for ctx.Err() == nil {
		deliveries, err := c.subscribe()
		if err != nil {
			c.logger.Error("subscribe failed, waiting for reconnect", "error", err)
		} else {
			c.logger.Info("consumer started")
			if c.drain(ctx, deliveries) {
				break
			}
			c.logger.Warn("deliveries channel closed, waiting for reconnect")
		}

		select {
		case <-ctx.Done():
		case <-c.conn.ReconnectNotify():
			c.logger.Info("reconnected, resubscribing")
		}
	}
	return ctx.Err()
}

func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, errors.New("no channel available")
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	// autoAck=false: подтверждение только через settle
	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	return deliveries, nil
}

// drain обрабатывает события до закрытия канала. true — ctx отменён.
func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) bool {
	for {
		select {
		case <-ctx.Done():
			return true
		case raw, ok := <-deliveries:
			if !ok {
				return false
			}
			c.handleDelivery(ctx, raw)
		}
	}
}

func (c *Consumer) handleDelivery(ctx context.Context, raw amqp.Delivery) {
	d := &Delivery{Raw: raw}

	if err := json.Unmarshal(raw.Body, &d.Message); err != nil {
		c.logger.Error("malformed event, dead-lettering", "error", err, "body", string(raw.Body))
		if _, err := d.settle(Permanent(err)); err != nil {
			c.logger.Error("nack failed", "error", err)
		}
		return
	}

	logger := c.logger.With("message_id", d.Message.ID, "type", d.Message.Type)
	logger.Debug("received event")

	handlerErr := c.handler(ctx, d)
	requeued, err := d.settle(handlerErr)
	if err != nil {
		logger.Error("settle delivery failed", "error", err)
	}
	if handlerErr != nil {
		logger.Error("handler failed",
			"requeued", requeued,
			"permanent", IsPermanent(handlerErr),
			"error", handlerErr,
		)
	}
}

// Stop прерывает Start.
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
}

// ParsePayload декодирует Payload события в T.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T

	// после Unmarshal конверта Payload — map[string]any
	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return result, fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("unmarshal payload: %w", err)
	}
	return result, nil
}
