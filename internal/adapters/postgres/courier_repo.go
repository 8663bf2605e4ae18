package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/prabeshj/tokri/internal/core/domain"
)

// CourierRepo implements ports.CourierRepository with pgx.
type CourierRepo struct {
	db *DB
}

// NewCourierRepo creates a new CourierRepo.
func NewCourierRepo(db *DB) *CourierRepo {
	return &CourierRepo{db: db}
}

// GetByID returns a courier by UUID.
func (r *CourierRepo) GetByID(ctx context.Context, id string) (*domain.Courier, error) {
	var c domain.Courier
	var lat, lon *float64
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(phone, ''), available,
		       ST_Y(location::geometry), ST_X(location::geometry), created_at
		FROM couriers WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Phone, &c.Available, &lat, &lon, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if lat != nil && lon != nil {
		c.Location = &domain.Coordinate{Latitude: *lat, Longitude: *lon}
	}
	return &c, nil
}

// FindNearestAvailable returns available couriers ordered by distance from
// the pickup point.
func (r *CourierRepo) FindNearestAvailable(ctx context.Context, lat, lon float64, limit int) ([]domain.Courier, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, COALESCE(phone, ''), available,
		       ST_Y(location::geometry), ST_X(location::geometry), created_at,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) / 1000.0 AS distance_km
		FROM couriers
		WHERE available AND location IS NOT NULL
		ORDER BY distance_km
		LIMIT $3
	`, lon, lat, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var couriers []domain.Courier
	for rows.Next() {
		var c domain.Courier
		var clat, clon *float64
		var distKm float64
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Phone, &c.Available,
			&clat, &clon, &c.CreatedAt, &distKm,
		); err != nil {
			return nil, err
		}
		if clat != nil && clon != nil {
			c.Location = &domain.Coordinate{Latitude: *clat, Longitude: *clon}
		}
		c.Distance = &distKm
		couriers = append(couriers, c)
	}
	return couriers, rows.Err()
}

// SetAvailability flips a courier's availability flag.
func (r *CourierRepo) SetAvailability(ctx context.Context, id string, available bool) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE couriers SET available = $2 WHERE id = $1
	`, id, available)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("courier not found")
	}
	return nil
}

// UpdateLocation records the courier's latest position fix.
func (r *CourierRepo) UpdateLocation(ctx context.Context, id string, loc domain.Coordinate) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE couriers
		SET location = ST_SetSRID(ST_MakePoint($2, $3), 4326)::geography,
		    location_updated_at = now()
		WHERE id = $1
	`, id, loc.Longitude, loc.Latitude)
	return err
}
