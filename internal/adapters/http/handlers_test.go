package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	apihttp "github.com/prabeshj/tokri/internal/adapters/http"
	"github.com/prabeshj/tokri/internal/core/domain"
	"github.com/prabeshj/tokri/internal/core/usecases"
)

// --- Mocks ---

type fakeListings struct {
	items []domain.Listing
	err   error
}

func (f *fakeListings) Upsert(ctx context.Context, l *domain.Listing) error        { return nil }
func (f *fakeListings) UpsertBatch(ctx context.Context, ls []domain.Listing) error { return nil }

func (f *fakeListings) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	for _, l := range f.items {
		if l.ID == id {
			return &l, nil
		}
	}
	return nil, nil
}

func (f *fakeListings) ListAll(ctx context.Context) ([]domain.Listing, error) {
	return f.items, f.err
}

type fakeStores struct {
	items []domain.Store
}

func (f *fakeStores) Upsert(ctx context.Context, s *domain.Store) error { return nil }

func (f *fakeStores) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	for _, s := range f.items {
		if s.ID == id {
			return &s, nil
		}
	}
	return nil, nil
}

func (f *fakeStores) List(ctx context.Context) ([]domain.Store, error) { return f.items, nil }

func (f *fakeStores) FindNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Store, error) {
	return f.items, nil
}

type fakeGeocoder struct {
	forwardFn func(ctx context.Context, query string) (domain.GeocodeResult, error)
	reverseFn func(ctx context.Context, c domain.Coordinate) (domain.GeocodeResult, error)
}

func (f *fakeGeocoder) Forward(ctx context.Context, query string) (domain.GeocodeResult, error) {
	if f.forwardFn != nil {
		return f.forwardFn(ctx, query)
	}
	return domain.GeocodeResult{}, errors.New("no results")
}

func (f *fakeGeocoder) Reverse(ctx context.Context, c domain.Coordinate) (domain.GeocodeResult, error) {
	if f.reverseFn != nil {
		return f.reverseFn(ctx, c)
	}
	return domain.GeocodeResult{}, errors.New("no results")
}

type fakeLocationSource struct {
	coord domain.Coordinate
	err   error
}

func (f *fakeLocationSource) Current(ctx context.Context) (domain.Coordinate, error) {
	return f.coord, f.err
}

type fakeCouriers struct {
	updated []string
}

func (f *fakeCouriers) GetByID(ctx context.Context, id string) (*domain.Courier, error) {
	return nil, nil
}

func (f *fakeCouriers) FindNearestAvailable(ctx context.Context, lat, lon float64, limit int) ([]domain.Courier, error) {
	return nil, nil
}

func (f *fakeCouriers) SetAvailability(ctx context.Context, id string, available bool) error {
	return nil
}

func (f *fakeCouriers) UpdateLocation(ctx context.Context, id string, loc domain.Coordinate) error {
	f.updated = append(f.updated, id)
	return nil
}

// --- Fixtures ---

func coord(lat, lon float64) *domain.Coordinate {
	return &domain.Coordinate{Latitude: lat, Longitude: lon}
}

func catalog() []domain.Listing {
	return []domain.Listing{
		{
			ID: "A", Name: "Chicken Momo", CategoryID: 3, CategoryLabel: "Momo",
			StoreName: "Siraha Kitchen", StoreKind: domain.StoreRestaurant,
			Location: coord(26.70, 86.20), Price: 180, Rating: 4.5,
		},
		{
			ID: "B", Name: "Veg Thali", CategoryID: 5, CategoryLabel: "Thali",
			StoreName: "Janaki Bhancha", StoreKind: domain.StoreRestaurant,
			Location: coord(26.666, 86.205), Price: 250, Rating: 4.2, Vegetarian: true,
		},
		{
			ID: "C", Name: "Pizza Cutter Tool", CategoryID: 12, CategoryLabel: "Kitchenware",
			StoreName: "Siraha Hardware", StoreKind: domain.StoreRetail,
			Location: coord(26.659, 86.201), Price: 450, Rating: 3.9,
		},
	}
}

func zoneTable() []domain.DeliveryZone {
	return []domain.DeliveryZone{
		{ID: "z1", Name: "inner", MinKm: 0, MaxKm: 2, BaseFee: 20, PerKmRate: 5},
		{ID: "z2", Name: "mid", MinKm: 2, MaxKm: 5, BaseFee: 30, PerKmRate: 8},
		{ID: "z3", Name: "outer", MinKm: 5, MaxKm: 0, BaseFee: 54, PerKmRate: 10},
	}
}

type testDeps struct {
	geocoder *fakeGeocoder
	location *fakeLocationSource
	couriers *fakeCouriers
}

func newTestApp(t *testing.T) (*fiber.App, *testDeps) {
	t.Helper()

	pricing, err := usecases.NewPricingService(zoneTable(), nil)
	if err != nil {
		t.Fatalf("pricing service: %v", err)
	}

	td := &testDeps{
		geocoder: &fakeGeocoder{},
		location: &fakeLocationSource{coord: domain.Coordinate{Latitude: 26.6586, Longitude: 86.2003}},
		couriers: &fakeCouriers{},
	}

	listings := &fakeListings{items: catalog()}
	deps := &apihttp.Dependencies{
		Search:   usecases.NewSearchService(listings, nil),
		Geocode:  usecases.NewGeocodeService(td.geocoder, nil, 0),
		Pricing:  pricing,
		Location: usecases.NewLocationService(td.location),
		Stores:   &fakeStores{items: []domain.Store{{ID: "s1", Name: "Siraha Kitchen", Location: coord(26.70, 86.20)}}},
		Listings: listings,
		Couriers: td.couriers,
	}

	app := fiber.New()
	apihttp.SetupRoutes(app, deps)
	return app, td
}

func doJSON(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	var out map[string]any
	if len(data) > 0 && data[0] == '{' {
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatalf("unmarshal %q: %v", data, err)
		}
	}
	return resp.StatusCode, out
}

// --- Tests ---

func TestSearchHandler(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, "GET", "/v1/search?mode=food&sort=distance&lat=26.6586&lon=86.2003", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}

	data, ok := body["data"].([]any)
	if !ok || len(data) != 2 {
		t.Fatalf("expected 2 food results, got %v", body["data"])
	}
	first := data[0].(map[string]any)
	if first["id"] != "B" {
		t.Errorf("expected nearest listing B first, got %v", first["id"])
	}
	if txt, ok := first["distance_text"].(string); !ok || txt == "" {
		t.Error("expected display distance on results")
	}
}

func TestSearchHandler_TextBypassesMode(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, "GET", "/v1/search?mode=food&q=pizza+cutter", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	data := body["data"].([]any)
	if len(data) != 1 || data[0].(map[string]any)["id"] != "C" {
		t.Fatalf("expected the retail match, got %v", data)
	}
}

func TestSearchHandler_BadCoordinate(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := doJSON(t, app, "GET", "/v1/search?lat=999&lon=0", "")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestGeocodeHandler(t *testing.T) {
	app, td := newTestApp(t)
	td.geocoder.forwardFn = func(ctx context.Context, query string) (domain.GeocodeResult, error) {
		return domain.GeocodeResult{
			Coordinate:       coord(26.7288, 85.9266),
			FormattedAddress: "Janakpur, Nepal",
			Confidence:       domain.ConfidenceHigh,
			Provider:         "nominatim",
		}, nil
	}

	status, body := doJSON(t, app, "GET", "/v1/geocode?q=Janakpur", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["formatted_address"] != "Janakpur, Nepal" {
		t.Errorf("unexpected address %v", body["formatted_address"])
	}
}

func TestGeocodeHandler_MissingQuery(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := doJSON(t, app, "GET", "/v1/geocode", "")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestGeocodeHandler_NotFound(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, "GET", "/v1/geocode?q=xyzzy", "")
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
	if body["code"] != "not_found" {
		t.Errorf("expected not_found code, got %v", body["code"])
	}
}

func TestReverseGeocodeHandler_Fallback(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, "GET", "/v1/geocode/reverse?lat=26.6586&lon=86.2003", "")
	if status != 200 {
		t.Fatalf("fallback must still answer, got %d", status)
	}
	if body["formatted_address"] != "26.658600, 86.200300" {
		t.Errorf("expected coordinate fallback, got %v", body["formatted_address"])
	}
}

func TestQuoteHandler(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, "GET", "/v1/delivery/quote?distance_km=1.5", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	quote := body["quote"].(map[string]any)
	if quote["fee"].(float64) != 27.5 {
		t.Errorf("expected fee 27.5, got %v", quote["fee"])
	}
	if body["distance_text"] != "1.5km" {
		t.Errorf("unexpected distance text %v", body["distance_text"])
	}
}

func TestQuoteHandler_NegativeDistance(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, "GET", "/v1/delivery/quote?distance_km=-1", "")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
	if body["code"] != "bad_request" {
		t.Errorf("expected bad_request code, got %v", body["code"])
	}
}

func TestQuoteHandler_FromStore(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, "GET", "/v1/delivery/quote?lat=26.6586&lon=86.2003&store_id=s1", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	quote := body["quote"].(map[string]any)
	// Store s1 is ~4.6 km away: mid zone.
	zone := quote["zone"].(map[string]any)
	if zone["id"] != "z2" {
		t.Errorf("expected mid zone, got %v", zone["id"])
	}
}

func TestQuoteHandler_MissingParams(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := doJSON(t, app, "GET", "/v1/delivery/quote", "")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestZonesHandler(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest("GET", "/v1/zones", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var zones []domain.DeliveryZone
	if err := json.NewDecoder(resp.Body).Decode(&zones); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(zones) != 3 {
		t.Fatalf("expected 3 zones, got %d", len(zones))
	}
}

func TestLocationHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"denied", domain.ErrLocationDenied, 403},
		{"timeout", domain.ErrLocationTimeout, 504},
		{"unsupported", domain.ErrLocationUnsupported, 501},
		{"unavailable", domain.ErrLocationUnavailable, 503},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, td := newTestApp(t)
			td.location.err = tt.err

			status, _ := doJSON(t, app, "GET", "/v1/location", "")
			if status != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, status)
			}
		})
	}
}

func TestLocationHandler_OK(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, "GET", "/v1/location", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["latitude"].(float64) != 26.6586 {
		t.Errorf("unexpected latitude %v", body["latitude"])
	}
}

func TestGetListingHandler_NotFound(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := doJSON(t, app, "GET", "/v1/listings/nope", "")
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
}

func TestNearbyStoresHandler_MissingPosition(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := doJSON(t, app, "GET", "/v1/stores/nearby", "")
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestDispatchHandler_NoTemporal(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, "POST", "/v1/delivery/dispatch",
		`{"order_id":"o1","pickup_lat":26.66,"pickup_lon":86.20}`)
	if status != 503 {
		t.Fatalf("expected 503, got %d", status)
	}
	if body["retryable"] != true {
		t.Errorf("503 must be marked retryable, got %v", body["retryable"])
	}
}

func TestCourierFixHandler(t *testing.T) {
	app, td := newTestApp(t)

	status, _ := doJSON(t, app, "POST", "/v1/couriers/c1/location",
		`{"lat":26.66,"lon":86.20,"order_id":"o1"}`)
	if status != 202 {
		t.Fatalf("expected 202, got %d", status)
	}
	if len(td.couriers.updated) != 1 || td.couriers.updated[0] != "c1" {
		t.Fatalf("expected location persisted for c1, got %v", td.couriers.updated)
	}
}

func TestCourierFixHandler_BadCoordinate(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := doJSON(t, app, "POST", "/v1/couriers/c1/location", `{"lat":99,"lon":200}`)
	if status != 400 {
		t.Fatalf("expected 400, got %d", status)
	}
}

func TestHealthAndHeaders(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("X-API-Version") == "" {
		t.Error("missing X-API-Version header")
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}
}

func TestGraphQL_Search(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, "POST", "/graphql",
		`{"query":"{ search(q: \"momo\") { id name } }"}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("missing data in %v", body)
	}
	results := data["search"].([]any)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].(map[string]any)["id"] != "A" {
		t.Errorf("expected listing A, got %v", results[0])
	}
}

func TestGraphQL_Zones(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, "POST", "/graphql",
		`{"query":"{ zones { id base_fee } }"}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	data := body["data"].(map[string]any)
	zones := data["zones"].([]any)
	if len(zones) != 3 {
		t.Fatalf("expected 3 zones, got %d", len(zones))
	}
}

func TestWebSocketUnavailableWithoutBroker(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, "GET", "/ws", "")
	if status != 503 {
		t.Fatalf("expected 503 without a broker connection, got %d", status)
	}
	if body["code"] != "realtime_unavailable" {
		t.Errorf("expected realtime_unavailable, got %v", body["code"])
	}
	if body["retryable"] != true {
		t.Error("a missing broker should be marked retryable")
	}
}

func TestListListings_ClampsPageParams(t *testing.T) {
	app, _ := newTestApp(t)

	status, body := doJSON(t, app, "GET", "/v1/listings?offset=-3&limit=-5", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	pg, ok := body["pagination"].(map[string]any)
	if !ok {
		t.Fatalf("missing pagination in %v", body)
	}
	if pg["offset"].(float64) != 0 {
		t.Errorf("negative offset should clamp to 0, got %v", pg["offset"])
	}
	if pg["limit"].(float64) != 100 {
		t.Errorf("invalid limit should fall back to the default, got %v", pg["limit"])
	}
}
