package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// CheckoutSession is the provider's view of an in-progress payment.
type CheckoutSession struct {
	ID              string            `json:"id"`
	Status          string            `json:"status"`         // open, complete, expired
	PaymentStatus   string            `json:"payment_status"` // paid, unpaid
	AmountTotal     int64             `json:"amount_total"`
	Currency        string            `json:"currency"`
	PaymentMethod   string            `json:"payment_method"`
	ShippingAddress string            `json:"shipping_address"`
	Metadata        map[string]string `json:"metadata"`
	LineItems       []SessionLineItem `json:"line_items"`
}

// SessionLineItem is one purchasable line inside a checkout session
type SessionLineItem struct {
	ProductID string `json:"product_id"`
	StoreID   string `json:"store_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unit_price"`
}

// SessionClient retrieves checkout sessions from the payment provider.
type SessionClient interface {
	GetSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}

type sessionClient struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// NewSessionClient creates an HTTP client for the provider's session API
func NewSessionClient(baseURL, secretKey string) SessionClient {
	return &sessionClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:   baseURL,
		secretKey: secretKey,
	}
}

func (c *sessionClient) GetSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	url := fmt.Sprintf("%s/v1/checkout/sessions/%s", c.baseURL, sessionID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode, string(body))
	}

	var session CheckoutSession
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("decode session response: %w", err)
	}

	return &session, nil
}
