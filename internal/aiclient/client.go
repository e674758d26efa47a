// Package aiclient реализует клиент внешнего сервиса генерации текста
// для ИИ-компаньона. Исходящие запросы ограничены по частоте на стороне
// клиента, чтобы не упираться в лимиты провайдера.
package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ErrUnavailable возвращается, когда сервис генерации недоступен или
// ответил неуспешным статусом. Вызывающая сторона не должна падать из-за
// этой ошибки: компаньон временно молчит, процесс живёт дальше.
var ErrUnavailable = errors.New("companion service unavailable")

// Client — HTTP-клиент сервиса генерации.
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient создаёт клиент с таймаутом и клиентским лимитом запросов в секунду.
func NewClient(apiURL, apiKey string, timeout time.Duration, rps float64) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// GenerateRequest — запрос на генерацию ответа компаньона.
type GenerateRequest struct {
	Messages  []Message `json:"messages"`
	Style     string    `json:"style,omitempty"`     // Предпочитаемый стиль общения
	Verbosity string    `json:"verbosity,omitempty"` // Предпочитаемая подробность
	Tier      string    `json:"tier,omitempty"`      // Уровень доступа пользователя
}

// Message — одно сообщение диалога в формате провайдера.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateResponse — ответ сервиса генерации.
type GenerateResponse struct {
	Content string `json:"content"`
}

// Generate отправляет диалог сервису генерации и возвращает текст ответа.
func (c *Client) Generate(ctx context.Context, reqParams GenerateRequest) (string, error) {
	const op = "aiclient.Generate"

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(reqParams); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/generate", &buf)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: %s: %w", op, resp.Status, ErrUnavailable)
	}

	var genResp GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return genResp.Content, nil
}
