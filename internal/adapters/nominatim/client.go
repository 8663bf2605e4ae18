package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prabeshj/tokri/internal/core/domain"
	"github.com/prabeshj/tokri/internal/pkg/metrics"
)

const (
	DefaultBaseURL = "https://nominatim.openstreetmap.org"
	userAgent      = "tokri-geocoder/1.0"
)

// Client is a Nominatim-backed implementation of ports.Geocoder.
// Nominatim's usage policy requires an identifying User-Agent and at most
// one request per second; the debounce layer upstream keeps us under that.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// searchResult is the wire shape of one /search or /reverse entry.
// Lat and Lon arrive as strings.
type searchResult struct {
	PlaceID     int64   `json:"place_id"`
	OsmType     string  `json:"osm_type"`
	OsmID       int64   `json:"osm_id"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Class       string  `json:"class"`
	Type        string  `json:"type"`
	PlaceRank   int     `json:"place_rank"`
	Importance  float64 `json:"importance"`
	AddressType string  `json:"addresstype"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
}

// Forward resolves free text to coordinates via /search.
func (c *Client) Forward(ctx context.Context, query string) (domain.GeocodeResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("limit", "1")
	params.Set("accept-language", "en")

	var results []searchResult
	if err := c.get(ctx, "/search", params, &results); err != nil {
		return domain.GeocodeResult{}, err
	}
	if len(results) == 0 {
		return domain.GeocodeResult{}, fmt.Errorf("no results for %q", query)
	}

	return c.toResult(results[0])
}

// Reverse resolves coordinates to an address via /reverse.
func (c *Client) Reverse(ctx context.Context, coord domain.Coordinate) (domain.GeocodeResult, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coord.Latitude, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(coord.Longitude, 'f', 6, 64))
	params.Set("format", "json")
	params.Set("addressdetails", "1")
	params.Set("accept-language", "en")

	var result searchResult
	if err := c.get(ctx, "/reverse", params, &result); err != nil {
		return domain.GeocodeResult{}, err
	}
	if result.DisplayName == "" {
		return domain.GeocodeResult{}, fmt.Errorf("no address at %.6f, %.6f", coord.Latitude, coord.Longitude)
	}

	return c.toResult(result)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	start := time.Now()
	defer func() {
		direction := "forward"
		if path == "/reverse" {
			direction = "reverse"
		}
		metrics.GeocodeDuration.WithLabelValues(direction).Observe(time.Since(start).Seconds())
	}()

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("nominatim %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("nominatim %s: unexpected status %s", path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("nominatim %s: decode: %w", path, err)
	}
	return nil
}

func (c *Client) toResult(r searchResult) (domain.GeocodeResult, error) {
	lat, errLat := strconv.ParseFloat(r.Lat, 64)
	lon, errLon := strconv.ParseFloat(r.Lon, 64)
	if errLat != nil || errLon != nil {
		return domain.GeocodeResult{}, fmt.Errorf("bad coordinates %q,%q in response", r.Lat, r.Lon)
	}

	coord := domain.Coordinate{Latitude: lat, Longitude: lon}
	if !coord.Valid() {
		return domain.GeocodeResult{}, fmt.Errorf("out-of-range coordinates %f,%f in response", lat, lon)
	}

	res := domain.GeocodeResult{
		Coordinate:       &coord,
		FormattedAddress: r.DisplayName,
		Confidence:       confidence(r),
		Provider:         "nominatim",
	}

	slog.Debug("geocoded",
		"addresstype", r.AddressType,
		"place_rank", r.PlaceRank,
		"confidence", res.Confidence)

	return res, nil
}

// confidence grades a match by Nominatim's place rank: building or street
// level resolutions are trustworthy, settlement level is usable, anything
// coarser needs user confirmation.
func confidence(r searchResult) domain.Confidence {
	switch {
	case r.PlaceRank >= 26: // street, house, POI
		return domain.ConfidenceHigh
	case r.PlaceRank >= 16: // city, town, village, suburb
		return domain.ConfidenceMedium
	default: // region, country, or unclassified
		return domain.ConfidenceLow
	}
}
