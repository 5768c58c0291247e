// rest — низкоуровневый HTTP/JSON-клиент бэкенда платформы.
//
// Пакет не знает про сессию и токены как про жизненный цикл: он исполняет
// один описанный запрос (Request) и возвращает сырой ответ (Response).
// Протокол refresh-and-retry живёт уровнем выше, в internal/session.
//
// Сетевые ошибки оборачиваются в ErrUnavailable — это единственный
// транспортный признак класса TransientError.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pribylovaa/go-servicehours-client/internal/pkg/log"
)

var (
	// ErrUnavailable — сетевой сбой: запрос не дошёл до бэкенда или ответ
	// не был получен. Транспорт не различает таймаут/DNS/отказ соединения.
	ErrUnavailable = errors.New("backend unavailable")
)

// Client — HTTP-клиент с базовым URL и таймаутом на запрос.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// New создаёт клиент бэкенда.
func New(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// Request — дескриптор одного исходящего запроса.
type Request struct {
	// Method — HTTP-метод.
	Method string
	// Path — путь относительно базового URL (начинается с "/").
	Path string
	// Body — тело запроса; nil — запрос без тела. Сериализуется в JSON.
	Body any
	// Token — bearer-токен; пустая строка — неаутентифицированный запрос.
	Token string
}

// Response — сырой ответ бэкенда.
type Response struct {
	// StatusCode — HTTP-статус ответа.
	StatusCode int
	// Body — прочитанное тело ответа.
	Body []byte
}

// Success сообщает, что ответ — 2xx.
func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsTransient сообщает, что ответ относится к классу временных сбоев (5xx).
func (r *Response) IsTransient() bool {
	return r.StatusCode >= 500
}

// DecodeJSON разбирает тело ответа в value.
func (r *Response) DecodeJSON(value any) error {
	const op = "transport.rest.DecodeJSON"

	if err := json.Unmarshal(r.Body, value); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Do исполняет запрос: сериализует тело, подписывает заголовки и читает ответ.
// Каждый запрос получает X-Request-Id для сквозной трассировки.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	const op = "transport.rest.Do"

	lg := log.From(ctx)

	var body io.Reader
	if req.Body != nil {
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal body: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.baseURL+req.Path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", op, err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-Id", requestID)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		lg.Warn("request_failed",
			slog.String("op", op),
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.String("request_id", requestID),
			slog.String("err", err.Error()),
		)
		return nil, fmt.Errorf("%s: %s %s: %w", op, req.Method, req.Path, ErrUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, ErrUnavailable)
	}

	lg.Debug("request_done",
		slog.String("op", op),
		slog.String("method", req.Method),
		slog.String("path", req.Path),
		slog.String("request_id", requestID),
		slog.Int("status", resp.StatusCode),
	)

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       raw,
	}, nil
}
