package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/shaiso/infra/internal/repo"
)

// ErrorResponse — тело ответа с ошибкой.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// OKResponse — тело ответа без данных.
type OKResponse struct {
	OK bool `json:"ok"`
}

// MessageResponse — тело ответа с сообщением для пользователя.
type MessageResponse struct {
	Message string `json:"message"`
}

// Тексты ошибок.
const (
	msgInvalidBody    = "Некорректное тело запроса."
	msgInvalidID      = "Некорректный идентификатор."
	msgInternal       = "Внутренняя ошибка сервера."
	msgUnauthorized   = "Требуется авторизация."
	msgCSRF           = "CSRF-токен недействителен."
	msgBadCredentials = "Неверный логин или пароль."
	msgAuthNotReady   = "Админская авторизация не настроена."
	msgAlreadyExists  = "Запись с таким именем уже существует."
)

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Success отправляет успешный ответ с данными.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created отправляет ответ о создании ресурса.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// Error отправляет ответ с ошибкой.
func Error(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, ErrorResponse{Detail: detail})
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, detail string) {
	Error(w, http.StatusBadRequest, detail)
}

// Unauthorized отправляет ошибку 401.
func Unauthorized(w http.ResponseWriter, detail string) {
	Error(w, http.StatusUnauthorized, detail)
}

// Forbidden отправляет ошибку 403.
func Forbidden(w http.ResponseWriter, detail string) {
	Error(w, http.StatusForbidden, detail)
}

// NotFound отправляет ошибку 404.
func NotFound(w http.ResponseWriter, detail string) {
	Error(w, http.StatusNotFound, detail)
}

// Conflict отправляет ошибку 409.
func Conflict(w http.ResponseWriter, detail string) {
	Error(w, http.StatusConflict, detail)
}

// Unprocessable отправляет ошибку 422 (невалидные поля запроса).
func Unprocessable(w http.ResponseWriter, detail string) {
	Error(w, http.StatusUnprocessableEntity, detail)
}

// InternalError отправляет ошибку 500.
func InternalError(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal error", "error", err)
	Error(w, http.StatusInternalServerError, msgInternal)
}

// HandleRepoError преобразует ошибку репозитория в HTTP ответ.
// Возвращает true, если ответ отправлен.
func HandleRepoError(w http.ResponseWriter, logger *slog.Logger, err error, notFoundMsg string) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, repo.ErrNotFound):
		NotFound(w, notFoundMsg)
	case errors.Is(err, repo.ErrAlreadyExists):
		Conflict(w, msgAlreadyExists)
	case errors.Is(err, repo.ErrUserMismatch):
		BadRequest(w, "user_id и tg_id не совпадают.")
	case errors.Is(err, repo.ErrInvalidState):
		Unprocessable(w, err.Error())
	default:
		InternalError(w, logger, err)
	}
	return true
}

// decodeJSON читает тело запроса в dst. Пустое тело допустимо,
// если allowEmpty.
func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}
