package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeAdmin    Exchange = "infra.admin"
	ExchangeAdminDLQ Exchange = "infra.admin.dlq"
)

// Queues — имена очередей.
const (
	QueueAdminNotifications    Queue = "admin.notifications"
	QueueAdminNotificationsDLQ Queue = "admin.notifications.dlq"
)

// Routing keys совпадают с типами сообщений.
const (
	RoutingKeySubscriptionCreated RoutingKey = RoutingKey(MessageTypeSubscriptionCreated)
	RoutingKeyAlertResolved       RoutingKey = RoutingKey(MessageTypeAlertResolved)
	RoutingKeyDLQ                 RoutingKey = "notifications"
)

// Binding — привязка очереди к обменнику.
type Binding struct {
	Queue      Queue
	RoutingKey RoutingKey
	Exchange   Exchange
}

// Bindings — все привязки топологии.
var Bindings = []Binding{
	{QueueAdminNotifications, RoutingKeySubscriptionCreated, ExchangeAdmin},
	{QueueAdminNotifications, RoutingKeyAlertResolved, ExchangeAdmin},
	{QueueAdminNotificationsDLQ, RoutingKeyDLQ, ExchangeAdminDLQ},
}

// SetupTopology объявляет exchanges, queues и bindings. Идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		return bindQueues(ch)
	})
}

func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeAdmin, amqp.ExchangeTopic},
		{ExchangeAdminDLQ, amqp.ExchangeDirect},
	}

	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	return nil
}

func declareQueues(ch *amqp.Channel) error {
	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// Отклонённые уведомления уходят в DLQ
		{QueueAdminNotifications, amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeAdminDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQ),
		}},
		{QueueAdminNotificationsDLQ, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}

	return nil
}

func bindQueues(ch *amqp.Channel) error {
	for _, b := range Bindings {
		err := ch.QueueBind(
			string(b.Queue),      // queue name
			string(b.RoutingKey), // routing key
			string(b.Exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.Queue, b.Exchange, err)
		}
	}

	return nil
}
