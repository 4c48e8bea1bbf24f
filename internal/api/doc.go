// Package api содержит HTTP API админки.
//
// Структура:
//   - handler.go             — Handler с DI (хранилища, publisher, logger)
//   - routes.go              — регистрация маршрутов
//   - middleware.go          — middleware (recovery, request id, logging, metrics, CORS)
//   - session.go             — проверка сессии и CSRF для /api/admin
//   - response.go            — JSON-ответы и ошибки вида {"detail": "..."}
//   - dto.go                 — Data Transfer Objects (request/response)
//   - auth_handler.go        — вход, выход, текущая сессия
//   - admin_handler.go       — overview, источники, темы, алерты
//   - financials_handler.go  — финансовый отчёт и подписки
//
// Все маршруты, кроме login/logout, требуют сессии администратора.
package api
