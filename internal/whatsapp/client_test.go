package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Leo190198/promoShare/internal/apierr"
	"github.com/Leo190198/promoShare/internal/config"
)

func newTestClient(server *httptest.Server) *Client {
	return &Client{
		baseURL: server.URL,
		apiKey:  "wa-test-key",
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func TestSessionStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/session/status", r.URL.Path)
		assert.Equal(t, "wa-test-key", r.Header.Get("X-API-Key"))
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"status": "connected", "isReady": true},
		})
	}))
	defer server.Close()

	client := newTestClient(server)
	status, err := client.SessionStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "connected", status.Status)
	assert.True(t, status.IsReady)
}

func TestSendText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/messages/send", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "123456789@g.us", body["chatId"])
		assert.Equal(t, "promo text", body["text"])
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"messageId": "true_123456789@g.us_AAA",
				"chatId":    "123456789@g.us",
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server)
	receipt, err := client.SendText(context.Background(), "123456789@g.us", "promo text")
	require.NoError(t, err)
	require.NotNil(t, receipt.MessageID)
	assert.Equal(t, "true_123456789@g.us_AAA", *receipt.MessageID)
}

func TestSendTextBridgeErrorPassthrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   map[string]string{"code": "invalid_chat_id", "message": "chatId must end with @g.us or @c.us"},
		})
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.SendText(context.Background(), "nonsense", "text")
	require.Error(t, err)

	var ae *apierr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, http.StatusUnprocessableEntity, ae.Status)
	assert.Equal(t, "invalid_chat_id", ae.Code)
	assert.Equal(t, "chatId must end with @g.us or @c.us", ae.Message)
}

func TestSendTextServerErrorBecomes502(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"success": false})
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.SendText(context.Background(), "123@g.us", "text")
	require.Error(t, err)

	var ae *apierr.Error
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, http.StatusBadGateway, ae.Status)
	assert.Equal(t, apierr.CodeWAHTTPError, ae.Code)
}

func TestMissingAPIKey(t *testing.T) {
	client := NewClient(config.WhatsAppConfig{BaseURL: "http://unused", TimeoutSeconds: 1})
	_, err := client.SessionStatus(context.Background())
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.CodeWAKeyMissing))
}

func TestUnreachableBridge(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	client := newTestClient(server)
	_, err := client.SessionStatus(context.Background())
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.CodeWAUnreachable))
}

func TestInvalidJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>proxy error</html>"))
	}))
	defer server.Close()

	client := newTestClient(server)
	_, err := client.SessionStatus(context.Background())
	require.Error(t, err)
	assert.True(t, apierr.Is(err, apierr.CodeWAInvalidResponse))
}
