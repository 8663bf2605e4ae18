package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	temporalclient "go.temporal.io/sdk/client"

	"github.com/prabeshj/tokri/internal/core/domain"
	"github.com/prabeshj/tokri/internal/pkg/geospatial"
	"github.com/prabeshj/tokri/internal/pkg/metrics"
	"github.com/prabeshj/tokri/internal/workflows"
)

// CatalogStats holds row counts for the catalog tables.
type CatalogStats struct {
	Stores     int    `json:"stores"`
	Listings   int    `json:"listings"`
	Zones      int    `json:"zones"`
	Couriers   int    `json:"couriers"`
	LastUpdate string `json:"last_update,omitempty"`
}

// CatalogStatsHandler returns row counts from the catalog tables.
func CatalogStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.DB == nil {
			return errInternal(c, "database not available")
		}

		var stats CatalogStats
		row := deps.DB.Pool.QueryRow(c.Context(), `
			SELECT
				(SELECT count(*) FROM stores),
				(SELECT count(*) FROM listings),
				(SELECT count(*) FROM delivery_zones),
				(SELECT count(*) FROM couriers),
				COALESCE((SELECT max(created_at)::text FROM listings), '')
		`)
		if err := row.Scan(&stats.Stores, &stats.Listings, &stats.Zones,
			&stats.Couriers, &stats.LastUpdate); err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=60")
		return c.JSON(stats)
	}
}

// parseCriteria builds search criteria from query parameters. Unknown sort
// keys fall back to distance ordering.
func parseCriteria(c *fiber.Ctx) domain.Criteria {
	sortBy := domain.SortKey(c.Query("sort", string(domain.SortDistance)))
	switch sortBy {
	case domain.SortDistance, domain.SortPriceAsc, domain.SortPriceDesc, domain.SortRating:
	default:
		sortBy = domain.SortDistance
	}

	return domain.Criteria{
		Query:         c.Query("q"),
		Category:      c.Query("category"),
		Mode:          domain.Mode(c.Query("mode")),
		SpiceLevel:    c.Query("spice"),
		Dietary:       c.Query("dietary"),
		PriceBand:     c.Query("price_band"),
		PrepBand:      c.Query("prep_band"),
		MaxDistanceKm: c.QueryFloat("max_km", 0),
		SortBy:        sortBy,
	}
}

// parsePosition reads optional lat/lon query parameters. Returns nil when
// the caller sent no position.
func parsePosition(c *fiber.Ctx) (*domain.Coordinate, error) {
	rawLat, rawLon := c.Query("lat"), c.Query("lon")
	if rawLat == "" && rawLon == "" {
		return nil, nil
	}
	coord := domain.Coordinate{
		Latitude:  c.QueryFloat("lat", 0),
		Longitude: c.QueryFloat("lon", 0),
	}
	if !coord.Valid() {
		return nil, domain.ErrInvalidInput
	}
	return &coord, nil
}

// SearchHandler runs the catalog search pipeline.
// GET /v1/search?q=momo&mode=food&sort=distance&lat=26.65&lon=86.20&max_km=5
func SearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		criteria := parseCriteria(c)

		userLoc, err := parsePosition(c)
		if err != nil {
			return errBadRequest(c, "lat and lon must form a valid coordinate")
		}

		listings, err := deps.Search.Search(c.Context(), userLoc, criteria)
		if err != nil {
			return errFromDomain(c, err)
		}

		mode := string(criteria.Mode)
		if mode == "" {
			mode = "all"
		}
		metrics.SearchesTotal.WithLabelValues(mode).Inc()
		metrics.SearchResultCount.WithLabelValues(mode).Observe(float64(len(listings)))

		// Pagination over the ordered result set
		offset, limit := pageParams(c, 50, 200)
		total := len(listings)
		listings = pageSlice(listings, offset, limit)

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: listingResponses(listings), Pagination: pg})
	}
}

// listingResponse decorates a listing with display-ready distance text.
type listingResponse struct {
	domain.Listing
	DistanceText string `json:"distance_text,omitempty"`
}

func listingResponses(ls []domain.Listing) []listingResponse {
	out := make([]listingResponse, len(ls))
	for i, l := range ls {
		out[i].Listing = l
		if l.Distance != nil {
			out[i].DistanceText = geospatial.Format(*l.Distance)
		}
	}
	return out
}

// ListListingsHandler returns the whole catalog, paginated.
func ListListingsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		listings, err := deps.Listings.ListAll(c.Context())
		if err != nil {
			return errInternal(c, err.Error())
		}

		offset, limit := pageParams(c, 100, 500)
		total := len(listings)
		listings = pageSlice(listings, offset, limit)

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: listings, Pagination: pg})
	}
}

// GetListingHandler returns a single listing by ID.
func GetListingHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "listing id is required")
		}
		listing, err := deps.Listings.GetByID(c.Context(), id)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if listing == nil {
			return errNotFound(c, "listing not found")
		}
		return c.JSON(listing)
	}
}

// NearbyStoresHandler returns stores within a radius of a point.
func NearbyStoresHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat := c.QueryFloat("lat", 0)
		lon := c.QueryFloat("lon", 0)
		radiusKm := c.QueryFloat("radius_km", 5)
		limit := c.QueryInt("limit", 50)

		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		if !(domain.Coordinate{Latitude: lat, Longitude: lon}).Valid() {
			return errBadRequest(c, "lat and lon must form a valid coordinate")
		}
		if radiusKm <= 0 || radiusKm > 50 {
			return errBadRequest(c, "radius_km must be between 0 and 50")
		}
		if limit <= 0 || limit > 200 {
			limit = 50
		}

		stores, err := deps.Stores.FindNearby(c.Context(), lat, lon, radiusKm, limit)
		if err != nil {
			return errInternal(c, err.Error())
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(stores)
	}
}

// GetStoreHandler returns a single store by ID.
func GetStoreHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "store id is required")
		}
		store, err := deps.Stores.GetByID(c.Context(), id)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if store == nil {
			return errNotFound(c, "store not found")
		}
		return c.JSON(store)
	}
}

// GeocodeHandler resolves free text to coordinates.
// GET /v1/geocode?q=Janakpur
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		res, err := deps.Geocode.Resolve(c.Context(), query)
		if err != nil {
			metrics.GeocodeRequests.WithLabelValues("forward", "miss").Inc()
			return errFromDomain(c, err)
		}
		metrics.GeocodeRequests.WithLabelValues("forward", "hit").Inc()

		return c.JSON(res)
	}
}

// ReverseGeocodeHandler resolves coordinates to a display address. It
// never fails on provider trouble: the caller always gets something to
// show, possibly just the coordinates themselves.
// GET /v1/geocode/reverse?lat=26.65&lon=86.20
func ReverseGeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Query("lat") == "" || c.Query("lon") == "" {
			return errBadRequest(c, "lat and lon are required")
		}
		coord := domain.Coordinate{
			Latitude:  c.QueryFloat("lat", 0),
			Longitude: c.QueryFloat("lon", 0),
		}

		res, err := deps.Geocode.ResolveCoordinate(c.Context(), coord)
		if err != nil {
			metrics.GeocodeRequests.WithLabelValues("reverse", "miss").Inc()
			return errFromDomain(c, err)
		}
		metrics.GeocodeRequests.WithLabelValues("reverse", "hit").Inc()

		return c.JSON(res)
	}
}

// QuoteHandler computes a delivery fee quote. The caller passes either an
// explicit distance_km, or a position plus store_id and the distance is
// derived from the store's coordinates.
// GET /v1/delivery/quote?distance_km=3.2
// GET /v1/delivery/quote?lat=26.65&lon=86.20&store_id=<uuid>
func QuoteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		distanceKm := c.QueryFloat("distance_km", -1)

		if c.Query("distance_km") == "" {
			storeID := c.Query("store_id")
			if storeID == "" || c.Query("lat") == "" || c.Query("lon") == "" {
				return errBadRequest(c, "distance_km, or lat, lon and store_id, are required")
			}
			userLoc := domain.Coordinate{
				Latitude:  c.QueryFloat("lat", 0),
				Longitude: c.QueryFloat("lon", 0),
			}
			if !userLoc.Valid() {
				return errBadRequest(c, "lat and lon must form a valid coordinate")
			}

			store, err := deps.Stores.GetByID(c.Context(), storeID)
			if err != nil {
				return errInternal(c, err.Error())
			}
			if store == nil {
				return errNotFound(c, "store not found")
			}
			if store.Location == nil {
				return errBadRequest(c, "store has no coordinates, pass distance_km instead")
			}
			distanceKm = geospatial.Kilometers(userLoc, *store.Location)
		}

		quote, err := deps.Pricing.Quote(c.Context(), distanceKm)
		if err != nil {
			return errFromDomain(c, err)
		}
		metrics.QuotesIssued.WithLabelValues(quote.Zone.Name).Inc()

		return c.JSON(fiber.Map{
			"quote":         quote,
			"distance_text": geospatial.Format(quote.DistanceKm),
		})
	}
}

// ZonesHandler returns the active delivery pricing table.
func ZonesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(deps.Pricing.Zones())
	}
}

// LocationHandler acquires the server-side position fix (kiosk and
// in-store terminal deployments). Failures map to distinct status codes
// so clients can pick the right fallback.
func LocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		coord, err := deps.Location.Current(c.Context())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(coord)
	}
}

// dispatchRequest is the payload for starting a courier dispatch.
type dispatchRequest struct {
	OrderID   string  `json:"order_id"`
	PickupLat float64 `json:"pickup_lat"`
	PickupLon float64 `json:"pickup_lon"`
}

// DispatchHandler starts the courier dispatch workflow for an order.
// POST /v1/delivery/dispatch
func DispatchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Temporal == nil {
			return errUnavailable(c, "dispatch is not available")
		}

		var req dispatchRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.OrderID == "" {
			return errBadRequest(c, "order_id is required")
		}
		pickup := domain.Coordinate{Latitude: req.PickupLat, Longitude: req.PickupLon}
		if !pickup.Valid() {
			return errBadRequest(c, "pickup_lat and pickup_lon must form a valid coordinate")
		}

		run, err := deps.Temporal.ExecuteWorkflow(c.Context(),
			temporalclient.StartWorkflowOptions{
				ID:        "dispatch-" + req.OrderID,
				TaskQueue: "dispatch-queue",
			},
			workflows.DispatchWorkflow,
			workflows.DispatchInput{
				OrderID:   req.OrderID,
				PickupLat: req.PickupLat,
				PickupLon: req.PickupLon,
			},
		)
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("dispatch workflow start failed",
				"order_id", req.OrderID, "error", err)
			return errInternal(c, err.Error())
		}
		metrics.DispatchesStarted.Inc()
		LoggerFromCtx(c.UserContext()).Info("dispatch started",
			"order_id", req.OrderID, "workflow_id", run.GetID())

		return c.Status(202).JSON(fiber.Map{
			"workflow_id": run.GetID(),
			"run_id":      run.GetRunID(),
		})
	}
}

// courierFixRequest is a courier position report.
type courierFixRequest struct {
	OrderID   string  `json:"order_id,omitempty"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	AccuracyM float64 `json:"accuracy_m,omitempty"`
	Speed     float64 `json:"speed,omitempty"`
}

// CourierFixHandler ingests a courier position fix: persists it and fans
// it out to live trackers over NATS.
// POST /v1/couriers/:id/location
func CourierFixHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if id == "" {
			return errBadRequest(c, "courier id is required")
		}

		var req courierFixRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		loc := domain.Coordinate{Latitude: req.Lat, Longitude: req.Lon}
		if !loc.Valid() {
			return errBadRequest(c, "lat and lon must form a valid coordinate")
		}

		if err := deps.Couriers.UpdateLocation(c.Context(), id, loc); err != nil {
			return errInternal(c, err.Error())
		}

		fix := &domain.CourierFix{
			Time:      time.Now().UTC(),
			CourierID: id,
			OrderID:   req.OrderID,
			Location:  loc,
			AccuracyM: req.AccuracyM,
			Speed:     req.Speed,
		}
		if deps.Events != nil {
			if err := deps.Events.PublishCourierFix(c.Context(), fix); err != nil {
				return errInternal(c, err.Error())
			}
		}
		metrics.CourierFixesIngested.Inc()

		return c.Status(202).JSON(fiber.Map{"status": "accepted"})
	}
}
