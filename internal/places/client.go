// Package places calls the Google Places nearby-search API and maps its
// responses into venue candidates for the selection policy.
package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pchuang/whatever-eat/app/observability/metrics"
	"github.com/pchuang/whatever-eat/internal/types"
)

const (
	defaultBaseURL      = "https://places.googleapis.com/v1"
	defaultRadiusMeters = 500

	// Covers everything the reply formatter renders.
	fieldMask = "places.id,places.displayName,places.formattedAddress,places.location," +
		"places.rating,places.priceLevel,places.types,places.googleMapsUri,places.regularOpeningHours"
)

// Searcher is the nearby-search contract the bot consumes.
type Searcher interface {
	SearchNearby(ctx context.Context, lat, lng float64) ([]types.Venue, error)
}

var _ Searcher = (*Client)(nil)

// Client is an HTTP client for the Places searchNearby endpoint. Responses
// are cached briefly by rounded coordinates so a user re-drawing from the
// same spot does not re-hit the API.
type Client struct {
	apiKey       string
	baseURL      string
	radiusMeters float64
	httpClient   *http.Client
	cache        *gocache.Cache
	logger       *slog.Logger
}

// Option adjusts a Client; used by tests to point at a fake server.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

func NewClient(apiKey string, radiusMeters float64, logger *slog.Logger, opts ...Option) *Client {
	if radiusMeters <= 0 {
		radiusMeters = defaultRadiusMeters
	}
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		apiKey:       apiKey,
		baseURL:      defaultBaseURL,
		radiusMeters: radiusMeters,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		cache:        gocache.New(1*time.Minute, 5*time.Minute),
		logger:       logger.With(slog.String("component", "places_client")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Wire shapes for the Places API v1 searchNearby call.

type searchNearbyRequest struct {
	IncludedTypes       []string            `json:"includedTypes"`
	LanguageCode        string              `json:"languageCode"`
	LocationRestriction locationRestriction `json:"locationRestriction"`
}

type locationRestriction struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type searchNearbyResponse struct {
	Places []place `json:"places"`
}

type place struct {
	ID               string         `json:"id"`
	DisplayName      *localizedText `json:"displayName"`
	FormattedAddress string         `json:"formattedAddress"`
	Rating           *float64       `json:"rating"`
	PriceLevel       string         `json:"priceLevel"`
	Types            []string       `json:"types"`
	GoogleMapsURI    string         `json:"googleMapsUri"`
	OpeningHours     *openingHours  `json:"regularOpeningHours"`
}

type localizedText struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode"`
}

type openingHours struct {
	OpenNow             bool     `json:"openNow"`
	WeekdayDescriptions []string `json:"weekdayDescriptions"`
}

// SearchNearby returns restaurants around (lat, lng). The candidate list is
// cached for a short window keyed by rounded coordinates.
func (c *Client) SearchNearby(ctx context.Context, lat, lng float64) ([]types.Venue, error) {
	ctx, span := otel.Tracer("places").Start(ctx, "SearchNearby", trace.WithAttributes(
		attribute.Float64("location.lat", lat),
		attribute.Float64("location.lng", lng),
		attribute.Float64("search.radius_m", c.radiusMeters),
	))
	defer span.End()

	if c.apiKey == "" {
		c.logger.WarnContext(ctx, "Maps API key not set, skipping nearby search")
		return []types.Venue{}, nil
	}

	cacheKey := fmt.Sprintf("%.4f,%.4f", lat, lng)
	if cached, found := c.cache.Get(cacheKey); found {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return cached.([]types.Venue), nil
	}

	start := time.Now()
	venues, err := c.search(ctx, lat, lng)
	metrics.Get().PlacesSearchDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		metrics.Get().PlacesSearchErrorsTotal.Add(ctx, 1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "nearby search failed")
		return nil, err
	}

	c.cache.Set(cacheKey, venues, gocache.DefaultExpiration)
	span.SetAttributes(attribute.Int("venues.count", len(venues)))
	c.logger.InfoContext(ctx, "Nearby search completed",
		slog.Float64("lat", lat), slog.Float64("lng", lng), slog.Int("venues", len(venues)))
	return venues, nil
}

func (c *Client) search(ctx context.Context, lat, lng float64) ([]types.Venue, error) {
	reqBody := searchNearbyRequest{
		IncludedTypes: []string{"restaurant"},
		LanguageCode:  "zh-TW",
		LocationRestriction: locationRestriction{
			Circle: circle{
				Center: latLng{Latitude: lat, Longitude: lng},
				Radius: c.radiusMeters,
			},
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchNearby", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nearby search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("nearby search returned status %d: %s", resp.StatusCode, string(body))
	}

	var decoded searchNearbyResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	venues := make([]types.Venue, 0, len(decoded.Places))
	for _, p := range decoded.Places {
		venues = append(venues, toVenue(p))
	}
	return venues, nil
}

func toVenue(p place) types.Venue {
	v := types.Venue{
		ID:         p.ID,
		Address:    p.FormattedAddress,
		Rating:     p.Rating,
		PriceLevel: p.PriceLevel,
		Types:      p.Types,
		MapsURL:    p.GoogleMapsURI,
	}
	if p.DisplayName != nil {
		v.Name = p.DisplayName.Text
	}
	if p.OpeningHours != nil {
		openNow := p.OpeningHours.OpenNow
		v.OpenNow = &openNow
		v.WeekdayHours = p.OpeningHours.WeekdayDescriptions
	}
	return v
}
