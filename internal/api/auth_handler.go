package api

import (
	"errors"
	"net/http"

	"github.com/shaiso/infra/internal/auth"
	"github.com/shaiso/infra/internal/config"
	"github.com/shaiso/infra/internal/telemetry"
)

// authReady проверяет, что в production авторизация настроена безопасно.
func (h *Handler) authReady() bool {
	if !h.prod {
		return true
	}
	return h.auth.PasswordHash != "" && len(h.auth.JWTSecret) >= config.MinJWTSecretLen
}

// Login проверяет учётные данные и выставляет cookies сессии и CSRF.
// POST /api/admin/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := telemetry.FromContext(r.Context())

	if !h.authReady() {
		logger.Error("admin auth is not configured for production")
		Error(w, http.StatusInternalServerError, msgAuthNotReady)
		return
	}

	var req LoginRequest
	if err := decodeJSON(r, &req, false); err != nil {
		Unprocessable(w, msgInvalidBody)
		return
	}

	if req.Username != h.auth.Username || !auth.VerifyPassword(req.Password, h.auth.PasswordHash, h.auth.Password) {
		telemetry.AdminLogins.WithLabelValues("failure").Inc()
		logger.Warn("admin login failed", "username", req.Username)
		Unauthorized(w, msgBadCredentials)
		return
	}

	token, err := h.tokens.Issue(h.auth.Username)
	if err != nil {
		if errors.Is(err, auth.ErrNotConfigured) {
			logger.Error("admin jwt secret is empty")
			Error(w, http.StatusInternalServerError, msgAuthNotReady)
			return
		}
		InternalError(w, logger, err)
		return
	}

	csrf, err := auth.GenerateCSRFToken()
	if err != nil {
		InternalError(w, logger, err)
		return
	}

	maxAge := int(h.tokens.TTL().Seconds())
	http.SetCookie(w, h.cookie(auth.SessionCookie, token, maxAge, true))
	http.SetCookie(w, h.cookie(auth.CSRFCookie, csrf, maxAge, false))

	telemetry.AdminLogins.WithLabelValues("success").Inc()
	logger.Info("admin logged in", "username", h.auth.Username)
	Success(w, OKResponse{OK: true})
}

// Logout удаляет cookies сессии и CSRF.
// POST /api/admin/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.cookie(auth.SessionCookie, "", -1, true))
	http.SetCookie(w, h.cookie(auth.CSRFCookie, "", -1, false))
	Success(w, OKResponse{OK: true})
}

// Me возвращает текущую сессию.
// GET /api/admin/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFromContext(r.Context())
	if !ok {
		Unauthorized(w, msgUnauthorized)
		return
	}
	Success(w, MeResponse{Authenticated: true, Username: session.Username})
}

// cookie собирает cookie админки. maxAge < 0 удаляет cookie.
func (h *Handler) cookie(name, value string, maxAge int, httpOnly bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: httpOnly,
		Secure:   h.prod,
		SameSite: http.SameSiteLaxMode,
	}
}
