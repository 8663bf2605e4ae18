package domain

import "strings"

// Mode is the app's top-level toggle between retail shopping and food.
type Mode string

const (
	ModeShopping Mode = "shopping"
	ModeFood     Mode = "food"
)

// SortKey selects the ordering of search results.
type SortKey string

const (
	SortDistance  SortKey = "distance"
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortRating    SortKey = "rating"
)

// Price bands offered by the food filter sheet.
const (
	PriceBandUnder100 = "under-100"
	PriceBand100To300 = "100-300"
	PriceBand300To500 = "300-500"
	PriceBandOver500  = "over-500"
)

// Preparation-time bands.
const (
	PrepBandQuick  = "quick"  // <= 20 min
	PrepBandMedium = "medium" // 21-45 min
	PrepBandSlow   = "slow"   // > 45 min
)

// Criteria bundles every filter a single search call honours. All fields
// are optional; the zero value of each means "no constraint". Criteria is
// an immutable value passed per call, search holds no ambient filter state.
type Criteria struct {
	Query         string  `json:"query,omitempty"`
	Category      string  `json:"category,omitempty"` // numeric id or label fragment
	Mode          Mode    `json:"mode,omitempty"`
	SpiceLevel    string  `json:"spice_level,omitempty"`
	Dietary       string  `json:"dietary,omitempty"` // "vegetarian" | "vegan"
	PriceBand     string  `json:"price_band,omitempty"`
	PrepBand      string  `json:"prep_band,omitempty"`
	MaxDistanceKm float64 `json:"max_distance_km,omitempty"` // 0 = unlimited
	SortBy        SortKey `json:"sort_by,omitempty"`
}

// TextSearchActive reports whether a free-text query is in effect.
// An active text search takes precedence over the mode partition, the
// domain filters, and the distance radius, evaluated once here instead
// of re-derived inside each stage.
func (c Criteria) TextSearchActive() bool {
	return strings.TrimSpace(c.Query) != ""
}

// CategoryActive reports whether a category constraint is set.
func (c Criteria) CategoryActive() bool {
	return strings.TrimSpace(c.Category) != ""
}
