// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация событий админки
//   - consumer.go   — потребление событий
//
// Типы сообщений:
//   - subscription.created — администратор выдал подписку
//   - alert.resolved       — администратор закрыл алерт
//
// Exchanges:
//   - infra.admin     — события админки (topic)
//   - infra.admin.dlq — dead letter queue
//
// Доставка: успех — ack; ошибка — одна повторная доставка, затем DLQ;
// ошибка, обёрнутая Permanent, и некорректный JSON — сразу в DLQ.
package mq
