package ports

import (
	"context"

	"github.com/prabeshj/tokri/internal/core/domain"
)

// Geocoder is the external address-search provider boundary.
type Geocoder interface {
	// Forward resolves free text to coordinates.
	Forward(ctx context.Context, query string) (domain.GeocodeResult, error)
	// Reverse resolves coordinates to a displayable address.
	Reverse(ctx context.Context, c domain.Coordinate) (domain.GeocodeResult, error)
}

// LocationSource produces the device's current GPS fix.
type LocationSource interface {
	Current(ctx context.Context) (domain.Coordinate, error)
}

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishCourierFix(ctx context.Context, fix *domain.CourierFix) error
	PublishQuote(ctx context.Context, quote *domain.DeliveryQuote) error
	PublishDispatch(ctx context.Context, orderID, courierID string) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeCourierFixes(ctx context.Context, handler func(ctx context.Context, fix *domain.CourierFix) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// CourierNotifier alerts a courier about an assignment.
type CourierNotifier interface {
	NotifyAssignment(ctx context.Context, courierID, orderID string) error
}
