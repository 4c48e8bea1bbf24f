// Package auth реализует авторизацию администратора.
//
// Сессия администратора — JWT (HS256) в HttpOnly cookie admin_session.
// Рядом выставляется читаемая cookie csrf_token: клиент возвращает её
// значение в заголовке X-CSRF-Token на изменяющих запросах
// (double-submit cookie).
package auth
