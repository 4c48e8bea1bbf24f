// Package notify пересылает события админки в Telegram-группу алертов.
//
// Relay — обработчик mq.Handler для очереди admin.notifications:
//
//	subscription.created → «Выдана подписка …»
//	alert.resolved       → «RESOLVED\n<message>»
//
// Без BOT_TOKEN или ALERTS_TG_GROUP_ID события только логируются
// и подтверждаются.
package notify
