package client

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotJSON — сервер ответил 2xx, но тело не является JSON.
var ErrNotJSON = errors.New("ответ сервера не является JSON")

// NotJSONMessage — сообщение для пользователя при ErrNotJSON.
const NotJSONMessage = "Ответ сервера не является JSON."

// NetworkMessage — сообщение для пользователя при сбое транспорта.
const NetworkMessage = "Не удалось выполнить запрос. Проверьте подключение."

// APIError — сервер ответил статусом не из диапазона 2xx.
type APIError struct {
	// Status — HTTP статус.
	Status int

	// StatusText — текст статуса из ответа.
	StatusText string

	// Message — detail из тела ответа или StatusText.
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// TransportError — запрос не дошёл до сервера или ответ не был прочитан.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsStatus проверяет, что err — APIError с указанным статусом.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Message возвращает текст ошибки для показа пользователю.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "Запрос отменён."
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return NetworkMessage
	}

	if errors.Is(err, ErrNotJSON) {
		return NotJSONMessage
	}

	return err.Error()
}
