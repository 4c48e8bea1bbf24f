package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTelegramAPIURL — адрес Bot API.
const DefaultTelegramAPIURL = "https://api.telegram.org"

const sendTimeout = 10 * time.Second

// Telegram отправляет сообщения через Bot API.
type Telegram struct {
	baseURL    string
	token      string
	chatID     int64
	httpClient *http.Client
}

// NewTelegram создаёт отправителя. Пустой baseURL — DefaultTelegramAPIURL.
func NewTelegram(baseURL, token string, chatID int64) *Telegram {
	if baseURL == "" {
		baseURL = DefaultTelegramAPIURL
	}
	return &Telegram{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		chatID:     chatID,
		httpClient: &http.Client{Timeout: sendTimeout},
	}
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type botResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Send отправляет текст в чат алертов.
func (t *Telegram) Send(ctx context.Context, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: t.chatID, Text: text})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	url := t.baseURL + "/bot" + t.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		// url содержит токен, в ошибку его не пропускаем
		return fmt.Errorf("send message: %w", redact(err, t.token))
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var out botResponse
	decodeErr := json.Unmarshal(data, &out)
	if resp.StatusCode == http.StatusOK && decodeErr == nil && out.OK {
		return nil
	}
	return &BotError{Status: resp.StatusCode, Description: out.Description}
}

// BotError — Bot API отклонил запрос.
type BotError struct {
	Status      int
	Description string
}

func (e *BotError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("telegram: status %d", e.Status)
	}
	return fmt.Sprintf("telegram: status %d: %s", e.Status, e.Description)
}

// Rejected — повтор не поможет: неверный чат, токен или текст.
// 429 и 5xx считаются временными.
func (e *BotError) Rejected() bool {
	return e.Status >= 400 && e.Status < 500 && e.Status != http.StatusTooManyRequests
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, token string) error {
	if token == "" {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "***"), err: err}
}
