// Package openroute is a thin client for the OpenRouteService geocoding and
// directions APIs. The service is treated as unreliable by design: lookups
// that find nothing return (nil, nil), transport problems return an error,
// and callers are expected to degrade to deterministic fallbacks either way.
package openroute

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/PrincipeGhost/CorreosPremium/core/logger"
)

// Config holds the client settings injected from the application config.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// SampleDelay is slept between consecutive reverse-geocode calls when
	// sampling a route, out of courtesy to the public rate limit.
	SampleDelay time.Duration
}

const defaultBaseURL = "https://api.openrouteservice.org"

// Client talks to OpenRouteService over HTTP.
type Client struct {
	cfg   Config
	httpc *http.Client
}

// New builds a Client; zero config fields get workable defaults.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.SampleDelay < 0 {
		cfg.SampleDelay = 0
	}
	return &Client{
		cfg:   cfg,
		httpc: &http.Client{Timeout: cfg.Timeout},
	}
}

// SampleDelay exposes the configured inter-sample courtesy delay.
func (c *Client) SampleDelay() time.Duration { return c.cfg.SampleDelay }

type geocodeResp struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
		Properties struct {
			Label      string  `json:"label"`
			Confidence float64 `json:"confidence"`
			Country    string  `json:"country"`
			Region     string  `json:"region"`
			County     string  `json:"county"`
			Locality   string  `json:"locality"`
			Localadmin string  `json:"localadmin"`
		} `json:"properties"`
	} `json:"features"`
}

// Geocode resolves a free-text address to a Place. A missing match is not an
// error: the result is simply nil.
func (c *Client) Geocode(ctx context.Context, address, countryCode string) (*Place, error) {
	q := url.Values{}
	q.Set("api_key", c.cfg.APIKey)
	q.Set("text", address)
	q.Set("size", "1")
	if countryCode != "" {
		q.Set("boundary.country", countryCode)
	}

	var r geocodeResp
	if err := c.getJSON(ctx, "/geocode/search", q, &r); err != nil {
		return nil, err
	}
	place := placeFromFeature(r)
	if place == nil {
		logger.GEO.Debug("no geocode match",
			slog.String("event", "geo.geocode.miss"),
			slog.String("address", logger.SanitizeLimit(address, 128)),
		)
	}
	return place, nil
}

// ReverseGeocode resolves coordinates back to a Place, or nil when the point
// matches nothing.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (*Place, error) {
	q := url.Values{}
	q.Set("api_key", c.cfg.APIKey)
	q.Set("point.lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("point.lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("size", "1")

	var r geocodeResp
	if err := c.getJSON(ctx, "/geocode/reverse", q, &r); err != nil {
		return nil, err
	}
	return placeFromFeature(r), nil
}

func placeFromFeature(r geocodeResp) *Place {
	if len(r.Features) == 0 {
		return nil
	}
	f := r.Features[0]
	if len(f.Geometry.Coordinates) < 2 {
		return nil
	}
	locality := f.Properties.Locality
	if locality == "" {
		locality = f.Properties.Localadmin
	}
	return &Place{
		Lon:        f.Geometry.Coordinates[0],
		Lat:        f.Geometry.Coordinates[1],
		Label:      f.Properties.Label,
		Confidence: f.Properties.Confidence,
		Country:    f.Properties.Country,
		Region:     f.Properties.Region,
		County:     f.Properties.County,
		Locality:   locality,
	}
}

type directionsResp struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

// Directions routes between two coordinates with the driving-car profile.
// Distances come back in km. No route found is (nil, nil).
func (c *Client) Directions(ctx context.Context, origin, dest Point) (*Route, error) {
	body := map[string]any{
		"coordinates": [][]float64{{origin.Lon, origin.Lat}, {dest.Lon, dest.Lat}},
		"format":      "json",
		"preference":  "fastest",
		"units":       "km",
		"geometry":    true,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("openroute: marshal directions body: %w", err)
	}

	u := c.cfg.BaseURL + "/v2/directions/driving-car"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("openroute: new request: %w", err)
	}
	req.Header.Set("Authorization", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	var r directionsResp
	if err := c.doJSON(req, &r); err != nil {
		return nil, err
	}
	if len(r.Routes) == 0 {
		return nil, nil
	}
	rt := r.Routes[0]
	return &Route{
		DistanceKM:    rt.Summary.Distance,
		DurationHours: rt.Summary.Duration / 3600,
		Geometry:      rt.Geometry,
	}, nil
}

// RouteBetween geocodes both endpoints and routes between them. Any missing
// piece collapses the whole summary to nil; the caller falls back.
func (c *Client) RouteBetween(ctx context.Context, origin, dest Query) (*RouteSummary, error) {
	start := time.Now()

	senderPlace, err := c.Geocode(ctx, origin.FullAddress(), origin.CountryCode)
	if err != nil || senderPlace == nil {
		return nil, err
	}
	recipientPlace, err := c.Geocode(ctx, dest.FullAddress(), dest.CountryCode)
	if err != nil || recipientPlace == nil {
		return nil, err
	}

	route, err := c.Directions(ctx,
		Point{Lon: senderPlace.Lon, Lat: senderPlace.Lat},
		Point{Lon: recipientPlace.Lon, Lat: recipientPlace.Lat},
	)
	if err != nil || route == nil {
		return nil, err
	}

	logger.GEO.Debug("route resolved",
		slog.String("event", "geo.route"),
		slog.Float64("distance_km", route.DistanceKM),
		slog.String("from", senderPlace.Country),
		slog.String("to", recipientPlace.Country),
		slog.Duration("duration", logger.Took(start)),
	)
	return &RouteSummary{
		Sender:    *senderPlace,
		Recipient: *recipientPlace,
		Route:     *route,
	}, nil
}

// FullAddress joins the address with postal code and province when present.
func (q Query) FullAddress() string {
	parts := []string{q.Address}
	if q.PostalCode != "" {
		parts = append(parts, q.PostalCode)
	}
	if q.Province != "" {
		parts = append(parts, q.Province)
	}
	return strings.Join(parts, ", ")
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("openroute: new request: %w", err)
	}
	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("openroute: %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("openroute: %s: http %d", req.URL.Path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("openroute: %s: decode: %w", req.URL.Path, err)
	}
	return nil
}
