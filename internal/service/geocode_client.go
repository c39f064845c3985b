package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// Confidence thresholds for accepting a geocoded match.
const (
	confidenceDefault  = 0.5
	confidenceBuilding = 0.3
	confidenceAccepted = 0.4
)

// acceptedResultTypes get the relaxed threshold; building and house get the
// most lenient one since house-number matches often score low overall.
var acceptedResultTypes = map[string]bool{
	"street":   true,
	"amenity":  true,
	"postcode": true,
}

// GeocodeClient validates free-text addresses against Geoapify.
type GeocodeClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

// NewGeocodeClient creates a new geocoding client. An empty API key is
// allowed; validation is then reported as skipped.
func NewGeocodeClient(baseURL, apiKey string) *GeocodeClient {
	return &GeocodeClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  util.GetLogger(),
	}
}

type geocodeResponse struct {
	Results []struct {
		Formatted  string `json:"formatted"`
		ResultType string `json:"result_type"`
		Rank       struct {
			Confidence float64 `json:"confidence"`
		} `json:"rank"`
	} `json:"results"`
}

// ValidateAddress geocodes the address and classifies the top match.
func (c *GeocodeClient) ValidateAddress(ctx context.Context, address string) (*models.AddressSuggestion, error) {
	if c.apiKey == "" {
		util.AddressValidationsTotal.WithLabelValues("skipped").Inc()
		return &models.AddressSuggestion{Skipped: true}, nil
	}
	if address == "" {
		return nil, fmt.Errorf("address is required")
	}

	ctx, span := util.StartSpan(ctx, "GeocodeClient.ValidateAddress")
	defer span.End()

	start := time.Now()
	defer func() {
		util.GeocodeLatency.Observe(time.Since(start).Seconds())
	}()

	q := url.Values{}
	q.Set("text", address)
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("apiKey", c.apiKey)

	reqURL := fmt.Sprintf("%s/v1/geocode/search?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		util.AddressValidationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		util.AddressValidationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("geocode provider returned %d: %s", resp.StatusCode, string(body))
	}

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		util.AddressValidationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(decoded.Results) == 0 {
		util.AddressValidationsTotal.WithLabelValues("no_match").Inc()
		return &models.AddressSuggestion{Valid: false}, nil
	}

	top := decoded.Results[0]
	suggestion := &models.AddressSuggestion{
		Formatted:  top.Formatted,
		ResultType: top.ResultType,
		Confidence: top.Rank.Confidence,
		Valid:      classify(top.ResultType, top.Rank.Confidence),
	}

	outcome := "invalid"
	if suggestion.Valid {
		outcome = "valid"
	}
	util.AddressValidationsTotal.WithLabelValues(outcome).Inc()

	c.logger.Debug("Address classified",
		zap.String("result_type", suggestion.ResultType),
		zap.Float64("confidence", suggestion.Confidence),
		zap.Bool("valid", suggestion.Valid))

	return suggestion, nil
}

// classify applies the tiered confidence thresholds.
func classify(resultType string, confidence float64) bool {
	if confidence > confidenceDefault {
		return true
	}
	if (resultType == "building" || resultType == "house") && confidence > confidenceBuilding {
		return true
	}
	if acceptedResultTypes[resultType] && confidence > confidenceAccepted {
		return true
	}
	return false
}
