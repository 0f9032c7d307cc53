package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/jimlawless/whereami"
)

// Ответ Telegram Bot API ограничен по размеру, больше не читаем.
const maxResponseBody = 64 << 10

// Client отправляет сообщения операторам через Telegram Bot API.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(cfg *cfg.TelegramCfg) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.APIURL, "/") + "/bot" + cfg.BotToken,
	}
}

// APIError — отказ Bot API. Ошибки 4xx, кроме 429, повторять бессмысленно.
type APIError struct {
	StatusCode  int
	Description string
}

func (a *APIError) Error() string {
	return fmt.Sprintf("%v: status %d: %s", e.ErrTelegramFailure, a.StatusCode, a.Description)
}

func (a *APIError) Unwrap() error {
	return e.ErrTelegramFailure
}

// Retryable сообщает, имеет ли смысл повторить запрос.
func (a *APIError) Retryable() bool {
	return a.StatusCode == http.StatusTooManyRequests || a.StatusCode >= http.StatusInternalServerError
}

type sendMessageReq struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// SendMessage отправляет текстовое сообщение в чат.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	body, err := json.Marshal(sendMessageReq{ChatID: chatID, Text: text})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sendMessage", bytes.NewReader(body))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), redactURL(err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), redactURL(err))
	}
	defer resp.Body.Close()

	var res apiResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBody)).Decode(&res); err != nil {
		return e.Wrap(whereami.WhereAmI(), &APIError{StatusCode: resp.StatusCode, Description: "malformed response"})
	}

	if resp.StatusCode != http.StatusOK || !res.OK {
		code := res.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		return e.Wrap(whereami.WhereAmI(), &APIError{StatusCode: code, Description: res.Description})
	}

	return nil
}

// redactURL отбрасывает URL запроса из ошибки net/http: в пути лежит токен бота.
func redactURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %s sendMessage: %w", e.ErrTelegramFailure, strings.ToLower(urlErr.Op), urlErr.Err)
	}

	return fmt.Errorf("%w: sendMessage: %w", e.ErrTelegramFailure, err)
}
