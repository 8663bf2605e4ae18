package postgres

import (
	"context"

	"github.com/prabeshj/tokri/internal/core/domain"
)

// ZoneRepo implements ports.ZoneRepository with pgx.
type ZoneRepo struct {
	db *DB
}

// NewZoneRepo creates a new ZoneRepo.
func NewZoneRepo(db *DB) *ZoneRepo {
	return &ZoneRepo{db: db}
}

// ListZones returns the pricing table ordered by band start. Ordering
// matters: zone resolution walks the table front to back.
func (r *ZoneRepo) ListZones(ctx context.Context) ([]domain.DeliveryZone, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, min_km, COALESCE(max_km, 0), base_fee, per_km_rate
		FROM delivery_zones
		ORDER BY min_km
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var zones []domain.DeliveryZone
	for rows.Next() {
		var z domain.DeliveryZone
		if err := rows.Scan(&z.ID, &z.Name, &z.MinKm, &z.MaxKm, &z.BaseFee, &z.PerKmRate); err != nil {
			return nil, err
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}
