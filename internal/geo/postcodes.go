// Package geo resolves UK postcodes to coordinates via the postcodes.io
// collaborator and provides great-circle distance helpers.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.postcodes.io"

// ErrInvalidPostcode is returned when postcodes.io cannot resolve the input.
// The API layer maps it to a 400 response.
var ErrInvalidPostcode = errors.New("invalid UK postcode")

// Coordinates is a resolved (latitude, longitude) pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// postcodesResponse is the wire shape of GET /postcodes/{postcode}.
// result is null for unknown postcodes.
type postcodesResponse struct {
	Status int `json:"status"`
	Result *struct {
		Postcode  string  `json:"postcode"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"result"`
}

// Geocoder resolves postcodes with a read-through cache. postcodes.io needs
// no API key.
type Geocoder struct {
	httpClient *http.Client
	baseURL    string
	cache      Cache
	cacheTTL   time.Duration
	logger     *slog.Logger
}

// NewGeocoder creates a Geocoder. cache may be nil to disable caching.
func NewGeocoder(cache Cache, cacheTTL time.Duration, logger *slog.Logger) *Geocoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Geocoder{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// WithBaseURL overrides the postcodes.io endpoint, for tests.
func (g *Geocoder) WithBaseURL(base string) *Geocoder {
	g.baseURL = base
	return g
}

// Geocode resolves a postcode to coordinates. Unknown postcodes and non-200
// responses return ErrInvalidPostcode.
func (g *Geocoder) Geocode(ctx context.Context, postcode string) (Coordinates, error) {
	normalised := strings.ToUpper(strings.TrimSpace(postcode))
	if normalised == "" {
		return Coordinates{}, ErrInvalidPostcode
	}

	if g.cache != nil {
		if cached, ok := g.cache.Get(ctx, normalised); ok {
			var coords Coordinates
			if err := json.Unmarshal([]byte(cached), &coords); err == nil {
				return coords, nil
			}
		}
	}

	reqURL := fmt.Sprintf("%s/postcodes/%s", g.baseURL, url.PathEscape(normalised))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Coordinates{}, fmt.Errorf("create geocode request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Coordinates{}, fmt.Errorf("geocode %s: %w", normalised, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Coordinates{}, fmt.Errorf("read geocode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("Postcode lookup failed", "postcode", normalised, "status", resp.StatusCode)
		return Coordinates{}, ErrInvalidPostcode
	}

	var decoded postcodesResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Coordinates{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if decoded.Result == nil {
		return Coordinates{}, ErrInvalidPostcode
	}

	coords := Coordinates{
		Latitude:  decoded.Result.Latitude,
		Longitude: decoded.Result.Longitude,
	}
	if g.cache != nil {
		if encoded, err := json.Marshal(coords); err == nil {
			g.cache.Set(ctx, normalised, string(encoded), g.cacheTTL)
		}
	}
	return coords, nil
}
