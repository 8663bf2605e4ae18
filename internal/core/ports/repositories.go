package ports

import (
	"context"

	"github.com/prabeshj/tokri/internal/core/domain"
)

// StoreRepository persists stores.
type StoreRepository interface {
	Upsert(ctx context.Context, store *domain.Store) error
	GetByID(ctx context.Context, id string) (*domain.Store, error)
	List(ctx context.Context) ([]domain.Store, error)
	FindNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Store, error)
}

// ListingRepository persists listings (products and menu items).
type ListingRepository interface {
	Upsert(ctx context.Context, l *domain.Listing) error
	UpsertBatch(ctx context.Context, ls []domain.Listing) error
	GetByID(ctx context.Context, id string) (*domain.Listing, error)
	// ListAll returns the full candidate set with store facts joined in.
	ListAll(ctx context.Context) ([]domain.Listing, error)
}

// ZoneRepository loads the delivery pricing table.
type ZoneRepository interface {
	ListZones(ctx context.Context) ([]domain.DeliveryZone, error)
}

// CourierRepository persists delivery partners.
type CourierRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Courier, error)
	FindNearestAvailable(ctx context.Context, lat, lon float64, limit int) ([]domain.Courier, error)
	SetAvailability(ctx context.Context, id string, available bool) error
	UpdateLocation(ctx context.Context, id string, loc domain.Coordinate) error
}
