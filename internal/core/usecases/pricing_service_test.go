package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prabeshj/tokri/internal/core/domain"
	"github.com/prabeshj/tokri/internal/core/usecases"
)

// --- Mock ZoneRepository / EventPublisher ---

type mockZoneRepo struct {
	listZonesFn func(ctx context.Context) ([]domain.DeliveryZone, error)
}

func (m *mockZoneRepo) ListZones(ctx context.Context) ([]domain.DeliveryZone, error) {
	if m.listZonesFn != nil {
		return m.listZonesFn(ctx)
	}
	return nil, nil
}

type mockPublisher struct {
	quotes   []*domain.DeliveryQuote
	fixes    []*domain.CourierFix
	dispatch int
}

func (m *mockPublisher) PublishCourierFix(ctx context.Context, fix *domain.CourierFix) error {
	m.fixes = append(m.fixes, fix)
	return nil
}

func (m *mockPublisher) PublishQuote(ctx context.Context, q *domain.DeliveryQuote) error {
	m.quotes = append(m.quotes, q)
	return nil
}

func (m *mockPublisher) PublishDispatch(ctx context.Context, orderID, courierID string) error {
	m.dispatch++
	return nil
}

// --- Fixtures ---

func zoneTable() []domain.DeliveryZone {
	return []domain.DeliveryZone{
		{ID: "z1", Name: "inner", MinKm: 0, MaxKm: 2, BaseFee: 20, PerKmRate: 5},
		{ID: "z2", Name: "mid", MinKm: 2, MaxKm: 5, BaseFee: 30, PerKmRate: 8},
		{ID: "z3", Name: "outer", MinKm: 5, MaxKm: 0, BaseFee: 54, PerKmRate: 10},
	}
}

func newPricing(t *testing.T) *usecases.PricingService {
	t.Helper()
	svc, err := usecases.NewPricingService(zoneTable(), nil)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

// --- Tests ---

func TestPricingService_Quote(t *testing.T) {
	tests := []struct {
		name       string
		distanceKm float64
		wantZone   string
		wantFee    float64
	}{
		{"inner zone partial", 1.5, "z1", 27.5}, // 20 + 1.5*5
		{"boundary is next zone base", 2.0, "z2", 30},
		{"zone start pays base only", 0, "z1", 20},
		{"mid zone", 3.5, "z2", 42}, // 30 + 1.5*8
		{"unbounded tail", 12, "z3", 124},
	}

	svc := newPricing(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := svc.Quote(context.Background(), tt.distanceKm)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if q.Zone.ID != tt.wantZone {
				t.Errorf("expected zone %s, got %s", tt.wantZone, q.Zone.ID)
			}
			if q.Fee != tt.wantFee {
				t.Errorf("expected fee %.2f, got %.2f", tt.wantFee, q.Fee)
			}
		})
	}
}

func TestPricingService_Quote_NegativeDistance(t *testing.T) {
	svc := newPricing(t)

	_, err := svc.Quote(context.Background(), -1)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestPricingService_Quote_EstimatedMinutes(t *testing.T) {
	tests := []struct {
		distanceKm  float64
		wantMinutes int
		wantBand    string
	}{
		{0, 30, "15-25 min"},
		{1.5, 45, "15-25 min"},
		{3.5, 65, "20-35 min"},
		{7, 100, "30-50 min"},
		{15, 180, "45-75 min"},
		{25, 280, "1-2 hours"},
	}

	svc := newPricing(t)

	for _, tt := range tests {
		q, err := svc.Quote(context.Background(), tt.distanceKm)
		if err != nil {
			t.Fatalf("quote %.1f km: %v", tt.distanceKm, err)
		}
		if q.EstimatedMinutes != tt.wantMinutes {
			t.Errorf("%.1f km: expected %d minutes, got %d", tt.distanceKm, tt.wantMinutes, q.EstimatedMinutes)
		}
		if q.TimeBand != tt.wantBand {
			t.Errorf("%.1f km: expected band %q, got %q", tt.distanceKm, tt.wantBand, q.TimeBand)
		}
	}
}

func TestPricingService_Quote_Publishes(t *testing.T) {
	pub := &mockPublisher{}
	svc, err := usecases.NewPricingService(zoneTable(), pub)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}

	if _, err := svc.Quote(context.Background(), 1.5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.quotes) != 1 {
		t.Fatalf("expected 1 published quote, got %d", len(pub.quotes))
	}
	if pub.quotes[0].Fee != 27.5 {
		t.Errorf("published fee %.2f, expected 27.5", pub.quotes[0].Fee)
	}
}

func TestValidateZoneTable(t *testing.T) {
	tests := []struct {
		name    string
		zones   []domain.DeliveryZone
		wantErr bool
	}{
		{"valid", zoneTable(), false},
		{"empty", nil, true},
		{"does not start at zero", []domain.DeliveryZone{
			{MinKm: 1, MaxKm: 0, BaseFee: 10},
		}, true},
		{"gap between bands", []domain.DeliveryZone{
			{MinKm: 0, MaxKm: 2, BaseFee: 10},
			{MinKm: 3, MaxKm: 0, BaseFee: 20},
		}, true},
		{"bounded tail", []domain.DeliveryZone{
			{MinKm: 0, MaxKm: 2, BaseFee: 10},
			{MinKm: 2, MaxKm: 5, BaseFee: 20},
		}, true},
		{"single unbounded band", []domain.DeliveryZone{
			{MinKm: 0, MaxKm: 0, BaseFee: 10},
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := usecases.ValidateZoneTable(tt.zones)
			if tt.wantErr && !errors.Is(err, domain.ErrZoneTableIncomplete) {
				t.Fatalf("expected ErrZoneTableIncomplete, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadPricingService(t *testing.T) {
	repo := &mockZoneRepo{
		listZonesFn: func(ctx context.Context) ([]domain.DeliveryZone, error) {
			return zoneTable(), nil
		},
	}

	svc, err := usecases.LoadPricingService(context.Background(), repo, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(svc.Zones()); got != 3 {
		t.Fatalf("expected 3 zones, got %d", got)
	}
}

func TestLoadPricingService_BadTable(t *testing.T) {
	repo := &mockZoneRepo{
		listZonesFn: func(ctx context.Context) ([]domain.DeliveryZone, error) {
			return []domain.DeliveryZone{{MinKm: 1, MaxKm: 0}}, nil
		},
	}

	if _, err := usecases.LoadPricingService(context.Background(), repo, nil); !errors.Is(err, domain.ErrZoneTableIncomplete) {
		t.Fatalf("expected ErrZoneTableIncomplete, got %v", err)
	}
}
