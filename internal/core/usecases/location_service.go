package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/prabeshj/tokri/internal/core/domain"
	"github.com/prabeshj/tokri/internal/core/ports"
)

// LocationAcquireTimeout bounds how long a position fix may take before we
// give up and report a timeout.
const LocationAcquireTimeout = 15 * time.Second

// LocationService wraps a positioning source and normalizes its failure
// modes into the domain error taxonomy. Every error it returns unwraps to
// domain.ErrLocationUnavailable so callers can match the whole family.
type LocationService struct {
	source  ports.LocationSource
	timeout time.Duration
}

func NewLocationService(source ports.LocationSource) *LocationService {
	return &LocationService{source: source, timeout: LocationAcquireTimeout}
}

// Current acquires the current position. A nil source means the deployment
// has no positioning capability at all.
func (s *LocationService) Current(ctx context.Context) (domain.Coordinate, error) {
	if s.source == nil {
		return domain.Coordinate{}, domain.ErrLocationUnsupported
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	c, err := s.source.Current(ctx)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return domain.Coordinate{}, domain.ErrLocationTimeout
		case errors.Is(err, domain.ErrLocationDenied),
			errors.Is(err, domain.ErrLocationTimeout),
			errors.Is(err, domain.ErrLocationUnsupported):
			return domain.Coordinate{}, err
		default:
			return domain.Coordinate{}, domain.ErrLocationUnavailable
		}
	}
	if !c.Valid() {
		return domain.Coordinate{}, domain.ErrLocationUnavailable
	}
	return c, nil
}
