package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Имена cookie и заголовка CSRF, выставляемые сервером.
const (
	CSRFCookieName = "csrf_token"
	CSRFHeaderName = "X-CSRF-Token"
)

// Request — необязательные параметры запроса.
type Request struct {
	// Method — HTTP метод. Пустой — GET.
	Method string

	// Header — дополнительные заголовки.
	Header http.Header

	// Body — тело запроса. []byte и io.Reader отправляются как есть,
	// остальное кодируется в JSON.
	Body any
}

// Client — HTTP-клиент админского API.
type Client struct {
	baseURL    *url.URL
	base       string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient задаёт http.Client. Если у него нет jar, клиент
// подставляет свой.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger задаёт логгер.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New создаёт клиент для API по адресу baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	base := strings.TrimRight(baseURL, "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL: u,
		base:    base,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}

	return c, nil
}

// BaseURL возвращает адрес API.
func (c *Client) BaseURL() string {
	return c.base
}

// Credentialed сообщает, что cookies отправляются с каждым запросом.
func (c *Client) Credentialed() bool {
	return c.httpClient.Jar != nil
}

// Cookies возвращает cookies, которые будут отправлены на BaseURL.
func (c *Client) Cookies() []*http.Cookie {
	return c.httpClient.Jar.Cookies(c.baseURL)
}

// SetCookies сохраняет cookies для BaseURL.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.httpClient.Jar.SetCookies(c.baseURL, cookies)
}

// ClearCookies удаляет из jar все cookies BaseURL.
func (c *Client) ClearCookies() {
	existing := c.Cookies()
	expired := make([]*http.Cookie, 0, len(existing))
	for _, ck := range existing {
		expired = append(expired, &http.Cookie{Name: ck.Name, Path: "/", MaxAge: -1})
	}
	c.SetCookies(expired)
}

// csrfToken читает и декодирует cookie csrf_token.
func (c *Client) csrfToken() (string, bool) {
	for _, ck := range c.Cookies() {
		if ck.Name != CSRFCookieName {
			continue
		}
		if v, err := url.PathUnescape(ck.Value); err == nil {
			return v, true
		}
		return ck.Value, true
	}
	return "", false
}

// Do выполняет запрос и возвращает тело успешного ответа.
func (c *Client) Do(ctx context.Context, path string, r *Request) (json.RawMessage, error) {
	if r == nil {
		r = &Request{}
	}
	method := strings.ToUpper(r.Method)
	if method == "" {
		method = http.MethodGet
	}

	body, contentType, err := encodeBody(r.Body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	if isMutating(method) {
		if token, ok := c.csrfToken(); ok {
			req.Header.Set(CSRFHeaderName, token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: fmt.Errorf("read body: %w", err)}
	}

	c.logger.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	return decodeResponse(resp, data)
}

// decodeResponse сводит ответ к одному результату.
func decodeResponse(resp *http.Response, data []byte) (json.RawMessage, error) {
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	parsed := json.Valid(data)

	if !parsed {
		if !ok {
			text := statusText(resp)
			return nil, &APIError{Status: resp.StatusCode, StatusText: text, Message: text}
		}
		return nil, ErrNotJSON
	}

	if !ok {
		text := statusText(resp)
		msg := text
		var body struct {
			Detail any `json:"detail"`
		}
		if json.Unmarshal(data, &body) == nil {
			if s, isStr := body.Detail.(string); isStr && s != "" {
				msg = s
			}
		}
		return nil, &APIError{Status: resp.StatusCode, StatusText: text, Message: msg}
	}

	return json.RawMessage(data), nil
}

// statusText возвращает текст после кода в статусной строке.
func statusText(resp *http.Response) string {
	code := strconv.Itoa(resp.StatusCode)
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, code))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

func encodeBody(body any) (io.Reader, string, error) {
	switch b := body.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return bytes.NewReader(b), "", nil
	case io.Reader:
		return b, "", nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, "", fmt.Errorf("marshal request: %w", err)
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

// Fetch выполняет запрос и декодирует успешный ответ в T.
func Fetch[T any](ctx context.Context, c *Client, path string, r *Request) (T, error) {
	var result T
	data, err := c.Do(ctx, path, r)
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("decode %s: %w", path, err)
	}
	return result, nil
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}
	return c.call(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.call(ctx, http.MethodPost, path, body, result)
}

func (c *Client) put(ctx context.Context, path string, body, result any) error {
	return c.call(ctx, http.MethodPut, path, body, result)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.call(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) call(ctx context.Context, method, path string, body, result any) error {
	data, err := c.Do(ctx, path, &Request{Method: method, Body: body})
	if err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
