package http

import (
	"github.com/nats-io/nats.go"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/prabeshj/tokri/internal/adapters/postgres"
	"github.com/prabeshj/tokri/internal/adapters/valkey"
	"github.com/prabeshj/tokri/internal/core/ports"
	"github.com/prabeshj/tokri/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Search   *usecases.SearchService
	Geocode  *usecases.GeocodeService
	Pricing  *usecases.PricingService
	Location *usecases.LocationService
	Stores   ports.StoreRepository
	Listings ports.ListingRepository
	Couriers ports.CourierRepository
	Events   ports.EventPublisher
	Temporal temporalclient.Client
	NATS     *nats.Conn
	DB       *postgres.DB
	Cache    *valkey.Cache
}
