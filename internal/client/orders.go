// Package client provides a typed HTTP client for the storefront orders API,
// used by other services and tooling that consume it.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"storefront-service/internal/models"
)

var (
	// ErrUnauthorized is returned when authentication fails even after a
	// refresh attempt.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotJSON is returned when the server responds with a non-JSON body,
	// which almost always means the base URL points at the wrong server.
	ErrNotJSON = errors.New("response is not JSON, check the API base URL")
)

// APIError carries an error envelope returned by the API
type APIError struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// ListOrdersParams narrows an order listing. Zero values are omitted from
// the query string.
type ListOrdersParams struct {
	Status string
	Limit  int
	Offset int
}

// OrdersClient is an authenticated client for the orders API. A 401 triggers
// exactly one token refresh followed by one retry.
type OrdersClient struct {
	httpClient *http.Client
	baseURL    string

	mu           sync.Mutex
	accessToken  string
	refreshToken string
}

// NewOrdersClient creates a client for the given API base URL
func NewOrdersClient(baseURL, accessToken, refreshToken string) *OrdersClient {
	return &OrdersClient{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		baseURL:      baseURL,
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
}

// ListOrders fetches the caller's orders matching the params.
func (c *OrdersClient) ListOrders(ctx context.Context, params ListOrdersParams) ([]models.Order, error) {
	q := url.Values{}
	if params.Status != "" {
		q.Set("status", params.Status)
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}

	path := "/api/v1/orders"
	if encoded := q.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var payload struct {
		Orders []models.Order `json:"orders"`
	}
	if err := c.get(ctx, path, &payload); err != nil {
		return nil, err
	}
	return payload.Orders, nil
}

// GetOrder fetches a single order with its items.
func (c *OrdersClient) GetOrder(ctx context.Context, orderID string) (*models.Order, []models.OrderItem, error) {
	var payload struct {
		Order models.Order       `json:"order"`
		Items []models.OrderItem `json:"items"`
	}
	if err := c.get(ctx, "/api/v1/orders/"+orderID, &payload); err != nil {
		return nil, nil, err
	}
	return &payload.Order, payload.Items, nil
}

// get issues an authenticated GET, refreshing the token once on 401.
func (c *OrdersClient) get(ctx context.Context, path string, out interface{}) error {
	status, body, err := c.do(ctx, path)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized {
		if err := c.refresh(ctx); err != nil {
			return fmt.Errorf("token refresh failed: %w", ErrUnauthorized)
		}
		status, body, err = c.do(ctx, path)
		if err != nil {
			return err
		}
		if status == http.StatusUnauthorized {
			return ErrUnauthorized
		}
	}

	if status < 200 || status >= 300 {
		apiErr := &APIError{Status: status}
		if err := json.Unmarshal(body, apiErr); err != nil {
			return fmt.Errorf("%w: status %d", ErrNotJSON, status)
		}
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrNotJSON, err)
	}
	return nil
}

// do performs one authenticated request and returns the raw response.
func (c *OrdersClient) do(ctx context.Context, path string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("http new request: %w", err)
	}

	c.mu.Lock()
	access := c.accessToken
	c.mu.Unlock()

	// Cookie is the primary credential, bearer header the fallback for
	// callers that strip cookies.
	req.AddCookie(&http.Cookie{Name: "token", Value: access})
	req.Header.Set("Authorization", "Bearer "+access)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read response body: %w", err)
	}

	return resp.StatusCode, body, nil
}

// refresh exchanges the refresh token for a new pair.
func (c *OrdersClient) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/auth/refresh", nil)
	if err != nil {
		return fmt.Errorf("http new request: %w", err)
	}

	c.mu.Lock()
	refresh := c.refreshToken
	c.mu.Unlock()

	req.AddCookie(&http.Cookie{Name: "refresh_token", Value: refresh})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("refresh rejected with status %d", resp.StatusCode)
	}

	var pair struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&pair); err != nil {
		return fmt.Errorf("decode refresh response: %w", err)
	}

	c.mu.Lock()
	c.accessToken = pair.AccessToken
	if pair.RefreshToken != "" {
		c.refreshToken = pair.RefreshToken
	}
	c.mu.Unlock()

	return nil
}
