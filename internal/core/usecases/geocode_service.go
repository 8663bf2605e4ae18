package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/prabeshj/tokri/internal/core/domain"
	"github.com/prabeshj/tokri/internal/core/ports"
)

// GeocodeService resolves free-text addresses and coordinates through an
// external provider. Provider failures never escape this boundary: they
// become "not found" results or coordinate fallbacks.
type GeocodeService struct {
	geocoder ports.Geocoder
	cache    ports.CacheService
	debounce *Debouncer
}

// NewGeocodeService creates a new GeocodeService. quiet is the debounce
// window for bursty text input; zero picks the 300ms default.
func NewGeocodeService(geocoder ports.Geocoder, cache ports.CacheService, quiet time.Duration) *GeocodeService {
	return &GeocodeService{
		geocoder: geocoder,
		cache:    cache,
		debounce: NewDebouncer(quiet),
	}
}

// Resolve turns free text into a GeocodeResult. Empty or whitespace-only
// queries are rejected without touching the provider.
func (s *GeocodeService) Resolve(ctx context.Context, query string) (domain.GeocodeResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.GeocodeResult{Confidence: domain.ConfidenceLow}, domain.ErrAddressNotFound
	}

	cacheKey := "geocode:fwd:" + strings.ToLower(query)
	if res, ok := s.cached(ctx, cacheKey); ok {
		return res, nil
	}

	res, err := s.geocoder.Forward(ctx, query)
	if err != nil {
		// Provider trouble and empty result sets look the same to the
		// caller: nothing usable. The caller decides whether to fall back
		// to raw text or prompt for manual verification.
		return domain.GeocodeResult{
			FormattedAddress: query,
			Confidence:       domain.ConfidenceLow,
		}, domain.ErrAddressNotFound
	}
	if res.Coordinate == nil {
		return res, domain.ErrAddressNotFound
	}

	if res.Confidence == domain.ConfidenceLow {
		// Ambiguous match: proceed optimistically but ask the user to
		// confirm against the map link.
		res.NeedsConfirmation = true
	}
	res.MapsLink = mapsLink(*res.Coordinate)

	s.store(ctx, cacheKey, res)
	return res, nil
}

// ResolveDebounced coalesces rapid successive queries: only the last
// trigger inside the quiet window reaches the provider, and a result is
// delivered to apply only while it is still the newest issued request.
func (s *GeocodeService) ResolveDebounced(ctx context.Context, query string, apply func(domain.GeocodeResult, error)) {
	s.debounce.Trigger(ctx, func(ctx context.Context) func() {
		res, err := s.Resolve(ctx, query)
		return func() { apply(res, err) }
	})
}

// ResolveCoordinate reverse-geocodes a point. On provider failure the
// formatted address falls back to the coordinate itself rendered to six
// decimal places, downstream display always needs something.
func (s *GeocodeService) ResolveCoordinate(ctx context.Context, c domain.Coordinate) (domain.GeocodeResult, error) {
	if !c.Valid() {
		return domain.GeocodeResult{}, fmt.Errorf("%w: coordinate %+v", domain.ErrInvalidInput, c)
	}

	cacheKey := fmt.Sprintf("geocode:rev:%.6f:%.6f", c.Latitude, c.Longitude)
	if res, ok := s.cached(ctx, cacheKey); ok {
		return res, nil
	}

	res, err := s.geocoder.Reverse(ctx, c)
	if err != nil || res.FormattedAddress == "" {
		loc := c
		return domain.GeocodeResult{
			Coordinate:       &loc,
			FormattedAddress: fmt.Sprintf("%.6f, %.6f", c.Latitude, c.Longitude),
			Confidence:       domain.ConfidenceLow,
			Provider:         "fallback",
			MapsLink:         mapsLink(c),
		}, nil
	}

	res.MapsLink = mapsLink(c)
	s.store(ctx, cacheKey, res)
	return res, nil
}

func (s *GeocodeService) cached(ctx context.Context, key string) (domain.GeocodeResult, bool) {
	if s.cache == nil {
		return domain.GeocodeResult{}, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		return domain.GeocodeResult{}, false
	}
	var res domain.GeocodeResult
	if err := json.Unmarshal(data, &res); err != nil {
		return domain.GeocodeResult{}, false
	}
	return res, true
}

func (s *GeocodeService) store(ctx context.Context, key string, res domain.GeocodeResult) {
	if s.cache == nil {
		return
	}
	if data, err := json.Marshal(res); err == nil {
		// Addresses don't move; cache for a day.
		_ = s.cache.Set(ctx, key, data, 86400)
	}
}

func mapsLink(c domain.Coordinate) string {
	return fmt.Sprintf("https://maps.google.com/?q=%f,%f", c.Latitude, c.Longitude)
}
