// Package shopee talks to the PromoShare Shopee affiliate API: bearer
// login, product-offer search, and short-link generation.
//
// The client caches its access token behind a mutex. A 401 clears the
// token and retries the request exactly once; there is no other retry.
package shopee

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/Leo190198/promoShare/internal/apierr"
	"github.com/Leo190198/promoShare/internal/config"
	"github.com/Leo190198/promoShare/internal/domain"
)

// defaultSortType asks the catalog for its relevance-with-sales ordering.
const defaultSortType = 2

// HTTPDoer executes a single HTTP request. *http.Client satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is the PromoShare Shopee API client.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient HTTPDoer

	mu    sync.Mutex
	token string
}

// NewClient creates a Shopee API client from configuration.
func NewClient(cfg config.ShopeeConfig) *Client {
	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
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
}

func (c *Client) login(ctx context.Context) (string, error) {
	if c.username == "" || c.password == "" {
		return "", apierr.New(http.StatusInternalServerError, apierr.CodeShopeeCredentialsMissing,
			"Shopee API credentials are not configured")
	}

	payload, _ := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apierr.New(http.StatusBadGateway, apierr.CodeShopeeUnreachable,
			"Failed to reach Shopee API").WithDetails(map[string]any{"reason": err.Error()})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apierr.New(http.StatusBadGateway, apierr.CodeShopeeUnreachable,
			"Failed to read Shopee API login response").WithDetails(map[string]any{"reason": err.Error()})
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", apierr.New(http.StatusBadGateway, apierr.CodeShopeeInvalidResponse,
			"Shopee API returned invalid JSON on login")
	}
	if resp.StatusCode != http.StatusOK || !env.Success {
		return "", apierr.New(http.StatusBadGateway, apierr.CodeShopeeLoginFailed,
			"Shopee API login failed").WithDetails(map[string]any{"statusCode": resp.StatusCode})
	}

	var data struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil || data.AccessToken == "" {
		return "", apierr.New(http.StatusBadGateway, apierr.CodeShopeeLoginFailed,
			"Shopee API login response missing token")
	}
	return data.AccessToken, nil
}

func (c *Client) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}
	token, err := c.login(ctx)
	if err != nil {
		return "", err
	}
	c.token = token
	return token, nil
}

func (c *Client) clearToken() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// doRequest performs an authenticated request and unwraps the response
// envelope. A 401 clears the cached token and retries once.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	return c.doRequestAuth(ctx, method, path, body, true)
}

func (c *Client) doRequestAuth(ctx context.Context, method, path string, body any, retryAuth bool) (json.RawMessage, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, err
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
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apierr.New(http.StatusBadGateway, apierr.CodeShopeeUnreachable,
			"Failed to communicate with Shopee API").WithDetails(map[string]any{
			"reason": err.Error(),
			"path":   path,
		})
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierr.New(http.StatusBadGateway, apierr.CodeShopeeUnreachable,
			"Failed to read Shopee API response").WithDetails(map[string]any{
			"reason": err.Error(),
			"path":   path,
		})
	}

	if resp.StatusCode == http.StatusUnauthorized && retryAuth {
		c.clearToken()
		return c.doRequestAuth(ctx, method, path, body, false)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, apierr.New(http.StatusBadGateway, apierr.CodeShopeeInvalidResponse,
			"Shopee API returned invalid JSON").WithDetails(map[string]any{
			"path":       path,
			"statusCode": resp.StatusCode,
		})
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, apierr.New(http.StatusBadGateway, apierr.CodeShopeeHTTPError,
			"Shopee API returned error").WithDetails(map[string]any{
			"path":       path,
			"statusCode": resp.StatusCode,
		})
	}
	if !env.Success {
		return nil, apierr.New(http.StatusBadGateway, apierr.CodeShopeeError,
			"Shopee API operation failed").WithDetails(map[string]any{"path": path})
	}
	return env.Data, nil
}

// SearchProducts queries the product-offer catalog for a keyword. Nodes
// the catalog returns malformed are dropped; Raw keeps each node verbatim
// for the suggestion audit trail.
func (c *Client) SearchProducts(ctx context.Context, keyword string, page, limit int) ([]domain.CatalogProduct, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/api/v1/shopee/offers/products/search", map[string]any{
		"keyword":  keyword,
		"page":     page,
		"limit":    limit,
		"sortType": defaultSortType,
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Nodes []json.RawMessage `json:"nodes"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, apierr.New(http.StatusBadGateway, apierr.CodeShopeeInvalidResponse,
			"Shopee API search response malformed")
	}

	products := make([]domain.CatalogProduct, 0, len(payload.Nodes))
	for _, raw := range payload.Nodes {
		var p domain.CatalogProduct
		if err := json.Unmarshal(raw, &p); err != nil {
			continue
		}
		p.Raw = raw
		products = append(products, p)
	}
	return products, nil
}

// GenerateShortLink shortens an affiliate link.
func (c *Client) GenerateShortLink(ctx context.Context, originURL string) (string, error) {
	data, err := c.doRequest(ctx, http.MethodPost, "/api/v1/shopee/short-links", map[string]string{
		"originUrl": originURL,
	})
	if err != nil {
		return "", err
	}

	var payload struct {
		ShortLink string `json:"shortLink"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.ShortLink == "" {
		return "", apierr.New(http.StatusBadGateway, apierr.CodeShopeeInvalidResponse,
			"Shopee API short-link response missing shortLink")
	}
	return payload.ShortLink, nil
}
