package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prabeshj/tokri/internal/core/domain"
	"github.com/prabeshj/tokri/internal/core/usecases"
)

// --- Mock ListingRepository ---

type mockListingRepo struct {
	listAllFn func(ctx context.Context) ([]domain.Listing, error)
}

func (m *mockListingRepo) Upsert(ctx context.Context, l *domain.Listing) error        { return nil }
func (m *mockListingRepo) UpsertBatch(ctx context.Context, ls []domain.Listing) error { return nil }
func (m *mockListingRepo) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	return nil, nil
}

func (m *mockListingRepo) ListAll(ctx context.Context) ([]domain.Listing, error) {
	if m.listAllFn != nil {
		return m.listAllFn(ctx)
	}
	return nil, nil
}

// --- Fixtures ---

func coord(lat, lon float64) *domain.Coordinate {
	return &domain.Coordinate{Latitude: lat, Longitude: lon}
}

// siraha is the reference user position for the distance tests.
var siraha = domain.Coordinate{Latitude: 26.6586, Longitude: 86.2003}

func fixtures() []domain.Listing {
	return []domain.Listing{
		{
			ID: "A", Name: "Chicken Momo", CategoryID: 3, CategoryLabel: "Momo",
			StoreName: "Siraha Kitchen", StoreKind: domain.StoreRestaurant,
			Location: coord(26.70, 86.20), // ~4.6 km north
			Price:    180, Rating: 4.5, SpiceLevel: "medium", PrepMinutes: 15,
		},
		{
			ID: "B", Name: "Veg Thali", Description: "dal bhat set", CategoryID: 5, CategoryLabel: "Thali",
			StoreName: "Janaki Bhancha", StoreKind: domain.StoreRestaurant,
			Location: coord(26.666, 86.205), // under 1 km
			Price:    250, Rating: 4.2, Vegetarian: true, PrepMinutes: 30,
		},
		{
			ID: "C", Name: "Pizza Cutter Tool", CategoryID: 12, CategoryLabel: "Kitchenware",
			StoreName: "Siraha Hardware", StoreKind: domain.StoreRetail,
			Location: coord(26.659, 86.201),
			Price:    450, Rating: 3.9,
		},
		{
			ID: "D", Name: "Buff Sukuti", CategoryID: 7, CategoryLabel: "Dry Meat",
			StoreName: "Himal Foods", StoreKind: domain.StoreRestaurant,
			Location: nil, // store never set coordinates
			Price:    320, Rating: 4.8, SpiceLevel: "hot", PrepMinutes: 50,
		},
	}
}

func ids(ls []domain.Listing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.ID
	}
	return out
}

func equalIDs(got []domain.Listing, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i, l := range got {
		if l.ID != want[i] {
			return false
		}
	}
	return true
}

// --- Pipeline tests ---

func TestRunPipeline_DistanceSort(t *testing.T) {
	c := domain.Criteria{Mode: domain.ModeFood, SortBy: domain.SortDistance}

	got := usecases.RunPipeline(&siraha, []domain.Listing{fixtures()[0], fixtures()[1]}, c)

	if !equalIDs(got, "B", "A") {
		t.Fatalf("expected [B A], got %v", ids(got))
	}
	if got[0].Distance == nil || got[1].Distance == nil {
		t.Fatal("expected distances annotated on both results")
	}
	if *got[0].Distance >= *got[1].Distance {
		t.Errorf("expected B closer than A, got %.2f >= %.2f", *got[0].Distance, *got[1].Distance)
	}
}

func TestRunPipeline_PriceAscSort(t *testing.T) {
	c := domain.Criteria{Mode: domain.ModeFood, SortBy: domain.SortPriceAsc}

	got := usecases.RunPipeline(&siraha, []domain.Listing{fixtures()[1], fixtures()[0]}, c)

	if !equalIDs(got, "A", "B") {
		t.Fatalf("expected [A B] by ascending price, got %v", ids(got))
	}
}

func TestRunPipeline_TextSearchBypassesModePartition(t *testing.T) {
	// A retail kitchenware item must surface under food mode when the user
	// is typing a matching query.
	c := domain.Criteria{Mode: domain.ModeFood, Query: "pizza cutter"}

	got := usecases.RunPipeline(&siraha, fixtures(), c)

	if !equalIDs(got, "C") {
		t.Fatalf("expected [C], got %v", ids(got))
	}
}

func TestRunPipeline_TextSearchSuppressesDomainFilters(t *testing.T) {
	// With an active query, the vegetarian filter must not cut matches.
	c := domain.Criteria{Query: "momo", Dietary: "vegetarian"}

	got := usecases.RunPipeline(&siraha, fixtures(), c)

	if !equalIDs(got, "A") {
		t.Fatalf("expected [A] despite vegetarian filter, got %v", ids(got))
	}
}

func TestRunPipeline_TextSearchMatchesStoreName(t *testing.T) {
	c := domain.Criteria{Query: "janaki"}

	got := usecases.RunPipeline(nil, fixtures(), c)

	if !equalIDs(got, "B") {
		t.Fatalf("expected [B] via store name, got %v", ids(got))
	}
}

func TestRunPipeline_CategoryByNumericID(t *testing.T) {
	c := domain.Criteria{Mode: domain.ModeFood, Category: "3"}

	got := usecases.RunPipeline(&siraha, fixtures(), c)

	if !equalIDs(got, "A") {
		t.Fatalf("expected [A] for category id 3, got %v", ids(got))
	}
}

func TestRunPipeline_CategoryByLabelFragment(t *testing.T) {
	// A category constraint also bypasses the mode partition.
	c := domain.Criteria{Mode: domain.ModeFood, Category: "kitchen"}

	got := usecases.RunPipeline(&siraha, fixtures(), c)

	if !equalIDs(got, "C") {
		t.Fatalf("expected [C] for label fragment, got %v", ids(got))
	}
}

func TestRunPipeline_RadiusKeepsUnknownDistance(t *testing.T) {
	// D has no coordinates: the radius cut must keep it, and distance sort
	// must place it last.
	c := domain.Criteria{
		Mode:          domain.ModeFood,
		MaxDistanceKm: 2,
		SortBy:        domain.SortDistance,
	}

	got := usecases.RunPipeline(&siraha, fixtures(), c)

	// A (~4.6 km) is cut, B stays, D survives with unknown distance.
	if !equalIDs(got, "B", "D") {
		t.Fatalf("expected [B D], got %v", ids(got))
	}
	if got[1].Distance != nil {
		t.Errorf("expected nil distance for D, got %.2f", *got[1].Distance)
	}
}

func TestRunPipeline_NoPositionSkipsRadiusAndDistanceSort(t *testing.T) {
	c := domain.Criteria{
		Mode:          domain.ModeFood,
		MaxDistanceKm: 1,
		SortBy:        domain.SortDistance,
	}

	got := usecases.RunPipeline(nil, fixtures(), c)

	// Without a position nothing is cut by radius and the incoming order
	// is preserved.
	if !equalIDs(got, "A", "B", "D") {
		t.Fatalf("expected [A B D] in original order, got %v", ids(got))
	}
	for _, l := range got {
		if l.Distance != nil {
			t.Errorf("expected no distance annotation for %s", l.ID)
		}
	}
}

func TestRunPipeline_ModePartition(t *testing.T) {
	tests := []struct {
		name string
		mode domain.Mode
		want []string
	}{
		{"food", domain.ModeFood, []string{"A", "B", "D"}},
		{"shopping", domain.ModeShopping, []string{"C"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := usecases.RunPipeline(nil, fixtures(), domain.Criteria{Mode: tt.mode})
			if !equalIDs(got, tt.want...) {
				t.Fatalf("expected %v, got %v", tt.want, ids(got))
			}
		})
	}
}

func TestRunPipeline_DomainFilters(t *testing.T) {
	tests := []struct {
		name string
		c    domain.Criteria
		want []string
	}{
		{"spice hot", domain.Criteria{Mode: domain.ModeFood, SpiceLevel: "hot"}, []string{"D"}},
		{"vegetarian", domain.Criteria{Mode: domain.ModeFood, Dietary: "vegetarian"}, []string{"B"}},
		{"price 100-300", domain.Criteria{Mode: domain.ModeFood, PriceBand: domain.PriceBand100To300}, []string{"A", "B"}},
		{"price over 500", domain.Criteria{Mode: domain.ModeFood, PriceBand: domain.PriceBandOver500}, nil},
		{"prep quick", domain.Criteria{Mode: domain.ModeFood, PrepBand: domain.PrepBandQuick}, []string{"A"}},
		{"prep slow", domain.Criteria{Mode: domain.ModeFood, PrepBand: domain.PrepBandSlow}, []string{"D"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := usecases.RunPipeline(nil, fixtures(), tt.c)
			if !equalIDs(got, tt.want...) {
				t.Fatalf("expected %v, got %v", tt.want, ids(got))
			}
		})
	}
}

func TestRunPipeline_DoesNotMutateInput(t *testing.T) {
	in := fixtures()
	_ = usecases.RunPipeline(&siraha, in, domain.Criteria{SortBy: domain.SortDistance})

	for _, l := range in {
		if l.Distance != nil {
			t.Fatalf("input listing %s was mutated with a distance", l.ID)
		}
	}
	if !equalIDs(in, "A", "B", "C", "D") {
		t.Fatalf("input order changed: %v", ids(in))
	}
}

// --- Service tests ---

func TestSearchService_Search(t *testing.T) {
	repo := &mockListingRepo{
		listAllFn: func(ctx context.Context) ([]domain.Listing, error) {
			return fixtures(), nil
		},
	}

	svc := usecases.NewSearchService(repo, nil)

	got, err := svc.Search(context.Background(), &siraha, domain.Criteria{Mode: domain.ModeShopping})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalIDs(got, "C") {
		t.Fatalf("expected [C], got %v", ids(got))
	}
}

func TestSearchService_Search_RepoError(t *testing.T) {
	wantErr := errors.New("db down")
	repo := &mockListingRepo{
		listAllFn: func(ctx context.Context) ([]domain.Listing, error) {
			return nil, wantErr
		},
	}

	svc := usecases.NewSearchService(repo, nil)

	if _, err := svc.Search(context.Background(), nil, domain.Criteria{}); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped repo error, got %v", err)
	}
}

func TestSearchService_Search_CacheHitSkipsRepo(t *testing.T) {
	calls := 0
	repo := &mockListingRepo{
		listAllFn: func(ctx context.Context) ([]domain.Listing, error) {
			calls++
			return fixtures(), nil
		},
	}
	cache := newMockCache()

	svc := usecases.NewSearchService(repo, cache)

	for i := 0; i < 3; i++ {
		if _, err := svc.Search(context.Background(), nil, domain.Criteria{}); err != nil {
			t.Fatalf("search %d: %v", i, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 repo call with warm cache, got %d", calls)
	}
}
