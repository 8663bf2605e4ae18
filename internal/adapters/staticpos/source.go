// Package staticpos provides a position source pinned to a configured
// coordinate, for kiosk and in-store terminal deployments that have no
// GPS hardware.
package staticpos

import (
	"context"
	"errors"

	"github.com/prabeshj/tokri/internal/core/domain"
)

// Source implements ports.LocationSource with a fixed coordinate.
type Source struct {
	coord domain.Coordinate
}

// New returns a source pinned to the given coordinate.
func New(lat, lon float64) (*Source, error) {
	c := domain.Coordinate{Latitude: lat, Longitude: lon}
	if !c.Valid() {
		return nil, errors.New("staticpos: invalid coordinate")
	}
	return &Source{coord: c}, nil
}

// Current returns the pinned coordinate. It never blocks, but honors
// context cancellation for interface symmetry.
func (s *Source) Current(ctx context.Context) (domain.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return domain.Coordinate{}, err
	}
	return s.coord, nil
}
