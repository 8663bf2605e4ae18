package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/prabeshj/tokri/internal/core/domain"
	"github.com/prabeshj/tokri/internal/core/ports"
	"github.com/prabeshj/tokri/internal/pkg/geospatial"
)

// SearchService runs the proximity filter/sort pipeline over the catalog.
type SearchService struct {
	listings ports.ListingRepository
	cache    ports.CacheService
}

// NewSearchService creates a new SearchService.
func NewSearchService(listings ports.ListingRepository, cache ports.CacheService) *SearchService {
	return &SearchService{listings: listings, cache: cache}
}

// Search fetches the candidate set and runs the pipeline against it.
// userLoc may be nil when the device position is unknown.
func (s *SearchService) Search(ctx context.Context, userLoc *domain.Coordinate, criteria domain.Criteria) ([]domain.Listing, error) {
	candidates, err := s.candidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("load candidates: %w", err)
	}
	return RunPipeline(userLoc, candidates, criteria), nil
}

// candidates returns the full listing set, read through the cache.
func (s *SearchService) candidates(ctx context.Context) ([]domain.Listing, error) {
	const cacheKey = "listings:all"
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var ls []domain.Listing
			if err := json.Unmarshal(data, &ls); err == nil {
				return ls, nil
			}
		}
	}

	ls, err := s.listings.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	// Cache for 2 minutes; the catalog changes rarely relative to searches.
	if s.cache != nil {
		if data, err := json.Marshal(ls); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 120)
		}
	}

	return ls, nil
}

// RunPipeline applies the filter/sort stages in their fixed order and
// returns a new, ordered slice. Input listings are never mutated; distance
// is annotated on copies. Stage order matters: text match is authoritative
// and suppresses the mode partition, the domain filters, and the radius cut.
func RunPipeline(userLoc *domain.Coordinate, listings []domain.Listing, c domain.Criteria) []domain.Listing {
	textActive := c.TextSearchActive()

	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		// Stage 1: mode partition. A free-text or category search must be
		// able to surface cross-mode results, so either bypasses the cut.
		if !textActive && !c.CategoryActive() && !matchesMode(l, c.Mode) {
			continue
		}

		// Stage 2: text match, drops everything that matches no field.
		if textActive && !matchesQuery(l, c.Query) {
			continue
		}

		// Stage 3: category match.
		if c.CategoryActive() && !matchesCategory(l, c.Category) {
			continue
		}

		// Stage 4: domain filters, suppressed while a text search is active.
		if !textActive && !matchesDomainFilters(l, c) {
			continue
		}

		l.Distance = annotateDistance(userLoc, l.Location)

		// Stage 5: distance radius. Listings with unknown distance are kept.
		if !textActive && userLoc != nil && c.MaxDistanceKm > 0 &&
			l.Distance != nil && *l.Distance > c.MaxDistanceKm {
			continue
		}

		out = append(out, l)
	}

	// Stage 6: stable sort, ties keep their original relative order.
	sortListings(out, userLoc, c.SortBy)
	return out
}

func matchesMode(l domain.Listing, mode domain.Mode) bool {
	switch mode {
	case domain.ModeFood:
		return l.StoreKind == domain.StoreRestaurant
	case domain.ModeShopping:
		return l.StoreKind != domain.StoreRestaurant
	default:
		return true
	}
}

func matchesQuery(l domain.Listing, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	for _, field := range []string{l.Name, l.Description, l.CategoryLabel, l.StoreName} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func matchesCategory(l domain.Listing, category string) bool {
	cat := strings.TrimSpace(category)
	if id, err := strconv.Atoi(cat); err == nil {
		return l.CategoryID == id
	}
	return strings.Contains(strings.ToLower(l.CategoryLabel), strings.ToLower(cat))
}

func matchesDomainFilters(l domain.Listing, c domain.Criteria) bool {
	if c.SpiceLevel != "" && l.SpiceLevel != c.SpiceLevel {
		return false
	}

	switch c.Dietary {
	case "vegetarian":
		if !l.Vegetarian {
			return false
		}
	case "vegan":
		if !l.Vegan {
			return false
		}
	}

	switch c.PriceBand {
	case domain.PriceBandUnder100:
		if l.Price >= 100 {
			return false
		}
	case domain.PriceBand100To300:
		if l.Price < 100 || l.Price > 300 {
			return false
		}
	case domain.PriceBand300To500:
		if l.Price < 300 || l.Price > 500 {
			return false
		}
	case domain.PriceBandOver500:
		if l.Price <= 500 {
			return false
		}
	}

	switch c.PrepBand {
	case domain.PrepBandQuick:
		if l.PrepMinutes > 20 {
			return false
		}
	case domain.PrepBandMedium:
		if l.PrepMinutes <= 20 || l.PrepMinutes > 45 {
			return false
		}
	case domain.PrepBandSlow:
		if l.PrepMinutes <= 45 {
			return false
		}
	}

	return true
}

func annotateDistance(userLoc *domain.Coordinate, loc *domain.Coordinate) *float64 {
	if userLoc == nil || loc == nil {
		return nil
	}
	d := geospatial.Kilometers(*userLoc, *loc)
	return &d
}

func sortListings(ls []domain.Listing, userLoc *domain.Coordinate, key domain.SortKey) {
	switch key {
	case domain.SortDistance:
		if userLoc == nil {
			return // no position: keep the incoming order
		}
		sort.SliceStable(ls, func(i, j int) bool {
			return distanceOrInf(ls[i]) < distanceOrInf(ls[j])
		})
	case domain.SortPriceAsc:
		sort.SliceStable(ls, func(i, j int) bool { return ls[i].Price < ls[j].Price })
	case domain.SortPriceDesc:
		sort.SliceStable(ls, func(i, j int) bool { return ls[i].Price > ls[j].Price })
	case domain.SortRating:
		sort.SliceStable(ls, func(i, j int) bool { return ls[i].Rating > ls[j].Rating })
	}
}

// distanceOrInf treats an unknown distance as +Inf so those listings
// always sort last under distance ordering.
func distanceOrInf(l domain.Listing) float64 {
	if l.Distance == nil {
		return math.Inf(1)
	}
	return *l.Distance
}
