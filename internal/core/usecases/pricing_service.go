package usecases

import (
	"context"
	"fmt"
	"math"

	"github.com/prabeshj/tokri/internal/core/domain"
	"github.com/prabeshj/tokri/internal/core/ports"
)

// PricingService computes distance-tiered delivery fees against a zone
// table loaded once at startup. The table is read-only after load.
type PricingService struct {
	zones     []domain.DeliveryZone
	publisher ports.EventPublisher
}

// NewPricingService validates and adopts the zone table. An invalid table
// is a configuration defect, reported as ErrZoneTableIncomplete.
func NewPricingService(zones []domain.DeliveryZone, publisher ports.EventPublisher) (*PricingService, error) {
	if err := ValidateZoneTable(zones); err != nil {
		return nil, err
	}
	return &PricingService{zones: zones, publisher: publisher}, nil
}

// LoadPricingService reads the zone table from the repository and builds
// the service.
func LoadPricingService(ctx context.Context, repo ports.ZoneRepository, publisher ports.EventPublisher) (*PricingService, error) {
	zones, err := repo.ListZones(ctx)
	if err != nil {
		return nil, fmt.Errorf("load zone table: %w", err)
	}
	return NewPricingService(zones, publisher)
}

// Zones returns a copy of the active pricing table.
func (s *PricingService) Zones() []domain.DeliveryZone {
	out := make([]domain.DeliveryZone, len(s.zones))
	copy(out, s.zones)
	return out
}

// Quote resolves the zone for a distance and computes the fee and the
// estimated delivery time. Negative distance is a caller contract
// violation and is rejected, not clamped.
func (s *PricingService) Quote(ctx context.Context, distanceKm float64) (*domain.DeliveryQuote, error) {
	if distanceKm < 0 || math.IsNaN(distanceKm) {
		return nil, fmt.Errorf("%w: distance %f km", domain.ErrInvalidInput, distanceKm)
	}

	zone, ok := findZone(s.zones, distanceKm)
	if !ok {
		// A validated table covers [0, inf); reaching this means the
		// configuration changed underneath us. Fail loudly.
		return nil, fmt.Errorf("%w: no zone covers %.2f km", domain.ErrZoneTableIncomplete, distanceKm)
	}

	quote := &domain.DeliveryQuote{
		DistanceKm:       distanceKm,
		Zone:             zone,
		Fee:              zone.BaseFee + math.Max(0, distanceKm-zone.MinKm)*zone.PerKmRate,
		EstimatedMinutes: int(math.Round(30 + distanceKm*10)),
		TimeBand:         TimeBand(distanceKm),
	}

	if s.publisher != nil {
		_ = s.publisher.PublishQuote(ctx, quote)
	}

	return quote, nil
}

func findZone(zones []domain.DeliveryZone, km float64) (domain.DeliveryZone, bool) {
	for _, z := range zones {
		if z.Contains(km) {
			return z, true
		}
	}
	return domain.DeliveryZone{}, false
}

// ValidateZoneTable checks that the table forms ordered, contiguous,
// non-overlapping bands covering [0, inf). Every violation is reported
// as ErrZoneTableIncomplete so callers can treat it as fatal config.
func ValidateZoneTable(zones []domain.DeliveryZone) error {
	if len(zones) == 0 {
		return fmt.Errorf("%w: empty table", domain.ErrZoneTableIncomplete)
	}
	if zones[0].MinKm != 0 {
		return fmt.Errorf("%w: first zone starts at %.2f km, not 0", domain.ErrZoneTableIncomplete, zones[0].MinKm)
	}

	for i, z := range zones {
		last := i == len(zones)-1
		if z.MinKm < 0 {
			return fmt.Errorf("%w: zone %q has negative min", domain.ErrZoneTableIncomplete, z.Name)
		}
		if !last && z.Unbounded() {
			return fmt.Errorf("%w: zone %q is unbounded but not last", domain.ErrZoneTableIncomplete, z.Name)
		}
		if !last && zones[i+1].MinKm != z.MaxKm {
			return fmt.Errorf("%w: gap between %.2f and %.2f km", domain.ErrZoneTableIncomplete, z.MaxKm, zones[i+1].MinKm)
		}
	}

	if !zones[len(zones)-1].Unbounded() {
		return fmt.Errorf("%w: last zone must be unbounded", domain.ErrZoneTableIncomplete)
	}
	return nil
}

// TimeBand maps a distance to the coarse delivery-time label shown in
// listings ("15-25 min" etc.).
func TimeBand(distanceKm float64) string {
	switch {
	case distanceKm <= 2:
		return "15-25 min"
	case distanceKm <= 5:
		return "20-35 min"
	case distanceKm <= 10:
		return "30-50 min"
	case distanceKm <= 20:
		return "45-75 min"
	default:
		return "1-2 hours"
	}
}
