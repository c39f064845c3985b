package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func geocodeServer(t *testing.T, resultType string, confidence float64, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		assert.Equal(t, "/v1/geocode/search", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("apiKey"))
		assert.NotEmpty(t, r.URL.Query().Get("text"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"results":[{"formatted":"1 Main St","result_type":%q,"rank":{"confidence":%g}}]}`,
			resultType, confidence)
	}))
}

func TestValidateAddressTieredThresholds(t *testing.T) {
	tests := []struct {
		name       string
		resultType string
		confidence float64
		valid      bool
	}{
		{"high confidence address", "address", 0.55, true},
		{"low confidence street", "street", 0.35, false},
		{"street above relaxed threshold", "street", 0.45, true},
		{"building above lenient threshold", "building", 0.35, true},
		{"house above lenient threshold", "house", 0.31, true},
		{"building below lenient threshold", "building", 0.25, false},
		{"unknown type below default", "city", 0.45, false},
		{"amenity above relaxed threshold", "amenity", 0.41, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			srv := geocodeServer(t, tt.resultType, tt.confidence, &calls)
			defer srv.Close()

			c := NewGeocodeClient(srv.URL, "test-key")
			suggestion, err := c.ValidateAddress(context.Background(), "1 Main St, Springfield")
			require.NoError(t, err)

			assert.Equal(t, tt.valid, suggestion.Valid)
			assert.Equal(t, tt.confidence, suggestion.Confidence)
			assert.Equal(t, tt.resultType, suggestion.ResultType)
			assert.False(t, suggestion.Skipped)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestValidateAddressSkippedWithoutKey(t *testing.T) {
	var calls int
	srv := geocodeServer(t, "address", 0.9, &calls)
	defer srv.Close()

	c := NewGeocodeClient(srv.URL, "")
	suggestion, err := c.ValidateAddress(context.Background(), "1 Main St")
	require.NoError(t, err)

	assert.True(t, suggestion.Skipped)
	assert.False(t, suggestion.Valid)
	assert.Zero(t, calls, "no provider call without a key")
}

func TestValidateAddressNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer srv.Close()

	c := NewGeocodeClient(srv.URL, "test-key")
	suggestion, err := c.ValidateAddress(context.Background(), "asdfgh")
	require.NoError(t, err)

	assert.False(t, suggestion.Valid)
	assert.False(t, suggestion.Skipped)
}

func TestValidateAddressProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewGeocodeClient(srv.URL, "test-key")
	_, err := c.ValidateAddress(context.Background(), "1 Main St")
	assert.Error(t, err)
}
