package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Address placeholders used when the reverse lookup degrades. The address
// is advisory, so geocoding failures never block report submission.
const (
	AddressNotFound    = "Address not found"
	AddressLookupError = "Failed to fetch address"
)

// Geocoder resolves coordinates to a display address via a
// LocationIQ-compatible reverse endpoint.
type Geocoder struct {
	baseURL string
	key     string
	client  *http.Client
	logger  *zap.SugaredLogger
}

// NewGeocoder creates a new reverse geocoder.
func NewGeocoder(baseURL, key string, logger *zap.SugaredLogger) *Geocoder {
	return &Geocoder{
		baseURL: baseURL,
		key:     key,
		client:  &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// Reverse returns a best-effort display address for the coordinates.
// All failure paths return a placeholder string instead of an error.
func (g *Geocoder) Reverse(ctx context.Context, lat, lon float64) string {
	q := url.Values{}
	q.Set("key", g.key)
	q.Set("lat", fmt.Sprintf("%f", lat))
	q.Set("lon", fmt.Sprintf("%f", lon))
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return AddressLookupError
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Warnw("Reverse geocode request failed", "error", err)
		return AddressLookupError
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Warnw("Reverse geocode returned non-200", "status", resp.StatusCode)
		return AddressLookupError
	}

	var payload struct {
		DisplayName string `json:"display_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		g.logger.Warnw("Reverse geocode response unreadable", "error", err)
		return AddressLookupError
	}
	if payload.DisplayName == "" {
		return AddressNotFound
	}
	return payload.DisplayName
}
