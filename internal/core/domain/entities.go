package domain

import (
	"time"
)

// StoreKind partitions stores by the app mode they belong to.
type StoreKind string

const (
	StoreRetail     StoreKind = "retail"
	StoreRestaurant StoreKind = "restaurant"
)

// Store represents a seller location (shop or restaurant).
type Store struct {
	ID        string         `json:"id"`
	Slug      string         `json:"slug"`
	Name      string         `json:"name"`
	Kind      StoreKind      `json:"kind"`
	Address   string         `json:"address,omitempty"`
	Location  *Coordinate    `json:"location,omitempty"`
	Rating    float64        `json:"rating"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Distance  *float64       `json:"distance,omitempty"` // computed field, km
	CreatedAt time.Time      `json:"created_at"`
}

// Listing is a sellable item together with the store facts the search
// pipeline matches against. Listings whose store has no coordinates still
// flow through filtering and sorting with an unknown distance.
type Listing struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Description   string      `json:"description,omitempty"`
	CategoryID    int         `json:"category_id"`
	CategoryLabel string      `json:"category_label,omitempty"`
	StoreID       string      `json:"store_id"`
	StoreName     string      `json:"store_name,omitempty"`
	StoreKind     StoreKind   `json:"store_kind,omitempty"`
	Location      *Coordinate `json:"location,omitempty"`
	Price         float64     `json:"price"`
	Rating        float64     `json:"rating"`
	SpiceLevel    string      `json:"spice_level,omitempty"`
	Vegetarian    bool        `json:"vegetarian"`
	Vegan         bool        `json:"vegan"`
	PrepMinutes   int         `json:"prep_minutes,omitempty"`
	Distance      *float64    `json:"distance,omitempty"` // computed field, km
	CreatedAt     time.Time   `json:"created_at"`
}

// Confidence grades how trustworthy a geocoding match is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// GeocodeResult is the normalized output of an address lookup.
// Coordinate is nil when the provider returned nothing usable.
type GeocodeResult struct {
	Coordinate        *Coordinate `json:"coordinate,omitempty"`
	FormattedAddress  string      `json:"formatted_address"`
	Confidence        Confidence  `json:"confidence"`
	Provider          string      `json:"provider"`
	NeedsConfirmation bool        `json:"needs_confirmation"`
	MapsLink          string      `json:"maps_link,omitempty"`
}

// DeliveryZone is one distance band of the pricing table.
// MaxKm <= 0 marks the last, unbounded band.
type DeliveryZone struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	MinKm     float64 `json:"min_km"`
	MaxKm     float64 `json:"max_km"`
	BaseFee   float64 `json:"base_fee"`
	PerKmRate float64 `json:"per_km_rate"`
}

// Unbounded reports whether the zone has no upper distance limit.
func (z DeliveryZone) Unbounded() bool {
	return z.MaxKm <= z.MinKm
}

// Contains reports whether a distance falls inside the zone.
func (z DeliveryZone) Contains(km float64) bool {
	if km < z.MinKm {
		return false
	}
	return z.Unbounded() || km < z.MaxKm
}

// DeliveryQuote is a computed fee for a single delivery. It is derived
// state: recomputed on demand, never stored.
type DeliveryQuote struct {
	DistanceKm       float64      `json:"distance_km"`
	Zone             DeliveryZone `json:"zone"`
	Fee              float64      `json:"fee"`
	EstimatedMinutes int          `json:"estimated_minutes"`
	TimeBand         string       `json:"time_band,omitempty"`
}

// Courier is a delivery partner available for dispatch.
type Courier struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Phone     string      `json:"phone,omitempty"`
	Available bool        `json:"available"`
	Location  *Coordinate `json:"location,omitempty"`
	Distance  *float64    `json:"distance,omitempty"` // computed field, km
	CreatedAt time.Time   `json:"created_at"`
}

// CourierFix is a real-time courier location reading.
type CourierFix struct {
	Time      time.Time  `json:"time"`
	CourierID string     `json:"courier_id"`
	OrderID   string     `json:"order_id,omitempty"`
	Location  Coordinate `json:"location"`
	AccuracyM float64    `json:"accuracy_m,omitempty"`
	Speed     float64    `json:"speed,omitempty"` // m/s
}
