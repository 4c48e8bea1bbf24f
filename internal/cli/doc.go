// Package cli реализует infra-admin — админку в терминале.
//
// CLI работает с API через internal/client, как и любой другой клиент
// админки: cookies сессии хранятся в файле (session.FileStore) и
// восстанавливаются при каждом запуске.
//
// # Команды
//
//	login, logout, whoami
//	overview
//	source      list, create, update, delete, state
//	topic       list, create, update, delete
//	alert       list, ack, mute, resolve
//	financials  summary, subscriptions, assign, revoke
//	hash-password
//
// Команды, которым нужна сессия, сначала проверяют её через /me. Без
// активной сессии печатается подсказка выполнить login.
//
// # Вывод
//
// Данные печатаются в stdout таблицей (text/tabwriter) или JSON с
// флагом --json, сообщения — в stderr:
//
//	infra-admin financials subscriptions --json | jq .
package cli
