package api

import (
	"context"
	"net/http"

	"github.com/shaiso/infra/internal/auth"
	"github.com/shaiso/infra/internal/telemetry"
)

type sessionKey struct{}

// SessionFromContext возвращает сессию, проверенную RequireSession.
func SessionFromContext(ctx context.Context) (*auth.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(*auth.Session)
	return s, ok
}

// RequireSession пропускает запрос только с валидной cookie admin_session.
// Для POST/PUT/PATCH/DELETE заголовок X-CSRF-Token должен совпадать
// с cookie csrf_token.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(auth.SessionCookie)
		if err != nil || cookie.Value == "" {
			Unauthorized(w, msgUnauthorized)
			return
		}

		session, err := h.tokens.Parse(cookie.Value)
		if err != nil {
			telemetry.FromContext(r.Context()).Debug("admin session rejected", "error", err)
			Unauthorized(w, msgUnauthorized)
			return
		}

		if auth.IsMutating(r.Method) {
			var csrfCookie string
			if c, err := r.Cookie(auth.CSRFCookie); err == nil {
				csrfCookie = c.Value
			}
			if !auth.CheckCSRF(r.Header.Get(auth.CSRFHeader), csrfCookie) {
				telemetry.CSRFRejected.Inc()
				telemetry.FromContext(r.Context()).Warn("csrf check failed",
					"method", r.Method,
					"path", r.URL.Path,
					"username", session.Username,
				)
				Forbidden(w, msgCSRF)
				return
			}
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
