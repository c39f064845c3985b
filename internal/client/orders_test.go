package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// apiStub simulates the orders API with a rotating access token.
type apiStub struct {
	t            *testing.T
	validToken   string
	refreshOK    bool
	listCalls    int
	refreshCalls int
	lastQuery    string
}

func (s *apiStub) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		s.refreshCalls++
		if !s.refreshOK {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"Invalid refresh token"}`)
			return
		}
		s.validToken = "rotated-token"
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":%q,"refresh_token":"new-refresh"}`, s.validToken)
	})

	mux.HandleFunc("/api/v1/orders", func(w http.ResponseWriter, r *http.Request) {
		s.listCalls++
		s.lastQuery = r.URL.RawQuery

		token := ""
		if c, err := r.Cookie("token"); err == nil {
			token = c.Value
		}
		if token != s.validToken {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"error":"Invalid or expired token"}`)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string][]models.Order{
			"orders": {{ID: "ord-1", Status: models.OrderStatusPending}},
		})
	})

	return mux
}

func TestListOrdersBuildsQuery(t *testing.T) {
	stub := &apiStub{t: t, validToken: "good", refreshOK: true}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := NewOrdersClient(srv.URL, "good", "refresh")
	orders, err := c.ListOrders(context.Background(), ListOrdersParams{
		Status: "pending",
		Limit:  10,
		Offset: 20,
	})
	require.NoError(t, err)

	assert.Len(t, orders, 1)
	assert.Equal(t, "limit=10&offset=20&status=pending", stub.lastQuery)
}

func TestListOrdersOmitsZeroParams(t *testing.T) {
	stub := &apiStub{t: t, validToken: "good", refreshOK: true}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := NewOrdersClient(srv.URL, "good", "refresh")
	_, err := c.ListOrders(context.Background(), ListOrdersParams{})
	require.NoError(t, err)

	assert.Equal(t, "", stub.lastQuery)
}

func TestListOrdersRefreshesOnceOn401(t *testing.T) {
	stub := &apiStub{t: t, validToken: "rotated-only", refreshOK: true}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	// Stale access token: first call 401s, refresh rotates, retry succeeds.
	stub.validToken = "will-not-match"
	c := NewOrdersClient(srv.URL, "stale", "refresh")

	orders, err := c.ListOrders(context.Background(), ListOrdersParams{})
	require.NoError(t, err)

	assert.Len(t, orders, 1)
	assert.Equal(t, 1, stub.refreshCalls)
	assert.Equal(t, 2, stub.listCalls)
}

func TestListOrdersSecond401Propagates(t *testing.T) {
	stub := &apiStub{t: t, validToken: "unreachable", refreshOK: true}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/auth/refresh" {
			stub.refreshCalls++
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, `{"access_token":"still-bad","refresh_token":""}`)
			return
		}
		stub.listCalls++
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"Invalid or expired token"}`)
	}))
	defer srv.Close()

	c := NewOrdersClient(srv.URL, "stale", "refresh")
	_, err := c.ListOrders(context.Background(), ListOrdersParams{})

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, stub.refreshCalls, "exactly one refresh attempt")
	assert.Equal(t, 2, stub.listCalls, "exactly one retry")
}

func TestListOrdersRefreshFailurePropagates(t *testing.T) {
	stub := &apiStub{t: t, validToken: "never", refreshOK: false}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := NewOrdersClient(srv.URL, "stale", "bad-refresh")
	_, err := c.ListOrders(context.Background(), ListOrdersParams{})

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, 1, stub.listCalls, "no retry when refresh fails")
}

func TestListOrdersNonJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body>It works!</body></html>")
	}))
	defer srv.Close()

	c := NewOrdersClient(srv.URL, "good", "refresh")
	_, err := c.ListOrders(context.Background(), ListOrdersParams{})

	assert.ErrorIs(t, err, ErrNotJSON)
}

func TestListOrdersAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":"unknown order status: bogus"}`)
	}))
	defer srv.Close()

	c := NewOrdersClient(srv.URL, "good", "refresh")
	_, err := c.ListOrders(context.Background(), ListOrdersParams{Status: "bogus"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Message, "unknown order status")
}

func TestGetOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/orders/ord-42", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"order":{"id":"ord-42","status":"shipped"},"items":[{"product_id":"p-1","quantity":2}]}`)
	}))
	defer srv.Close()

	c := NewOrdersClient(srv.URL, "good", "refresh")
	order, items, err := c.GetOrder(context.Background(), "ord-42")
	require.NoError(t, err)

	assert.Equal(t, "ord-42", order.ID)
	assert.Equal(t, models.OrderStatusShipped, order.Status)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
}
