// Package whatsapp talks to the WhatsApp bridge: session status and text
// message sends. The bridge shares the engine's envelope convention and
// admits requests by X-API-Key.
//
// Bridge errors keep their own code and message when the body carries
// them; client-fault statuses (400, 401, 404, 409, 422) pass through,
// anything else surfaces as a 502.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Leo190198/promoShare/internal/apierr"
	"github.com/Leo190198/promoShare/internal/config"
	"github.com/Leo190198/promoShare/internal/domain"
)

// HTTPDoer executes a single HTTP request. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the WhatsApp bridge client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient HTTPDoer
}

// NewClient creates a WhatsApp bridge client from configuration.
func NewClient(cfg config.WhatsAppConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing).
func (c *Client) SetHTTPClient(client HTTPDoer) {
	c.httpClient = client
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, apierr.New(http.StatusInternalServerError, apierr.CodeWAKeyMissing,
			"WA_API_KEY is not configured")
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierr.New(http.StatusBadGateway, apierr.CodeWAUnreachable,
			"Failed to communicate with WhatsApp API").WithDetails(map[string]any{
			"reason": err.Error(),
			"path":   path,
		})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.New(http.StatusBadGateway, apierr.CodeWAUnreachable,
			"Failed to read WhatsApp API response").WithDetails(map[string]any{
			"reason": err.Error(),
			"path":   path,
		})
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, apierr.New(http.StatusBadGateway, apierr.CodeWAInvalidResponse,
			"WhatsApp API returned invalid JSON").WithDetails(map[string]any{
			"path":       path,
			"statusCode": resp.StatusCode,
		})
	}

	if resp.StatusCode >= http.StatusBadRequest {
		code := apierr.CodeWAHTTPError
		message := "WhatsApp API returned error"
		if env.Error != nil {
			if env.Error.Code != "" {
				code = env.Error.Code
			}
			if env.Error.Message != "" {
				message = env.Error.Message
			}
		}
		return nil, apierr.New(apierr.PassthroughStatus(resp.StatusCode), code, message).
			WithDetails(map[string]any{"path": path, "statusCode": resp.StatusCode})
	}

	return env.Data, nil
}

// SessionStatus reports whether the bridge's WhatsApp session can send.
func (c *Client) SessionStatus(ctx context.Context) (domain.SessionStatus, error) {
	data, err := c.doRequest(ctx, http.MethodGet, "/api/v1/session/status", nil)
	if err != nil {
		return domain.SessionStatus{}, err
	}

	var status domain.SessionStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return domain.SessionStatus{}, apierr.New(http.StatusBadGateway, apierr.CodeWAInvalidResponse,
			"WhatsApp API session status malformed")
	}
	return status, nil
}

// SendText delivers a text message to a chat.
func (c *Client) SendText(ctx context.Context, chatID, text string) (domain.SendReceipt, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/api/v1/messages/send", map[string]string{
		"chatId": chatID,
		"text":   text,
	})
	if err != nil {
		return domain.SendReceipt{}, err
	}

	var receipt domain.SendReceipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		return domain.SendReceipt{}, apierr.New(http.StatusBadGateway, apierr.CodeWAInvalidResponse,
			"WhatsApp API send response malformed")
	}
	return receipt, nil
}
