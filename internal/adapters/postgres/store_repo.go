package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/prabeshj/tokri/internal/core/domain"
)

// StoreRepo implements ports.StoreRepository with pgx.
type StoreRepo struct {
	db *DB
}

// NewStoreRepo creates a new StoreRepo.
func NewStoreRepo(db *DB) *StoreRepo {
	return &StoreRepo{db: db}
}

// Upsert inserts or updates a single store.
func (r *StoreRepo) Upsert(ctx context.Context, s *domain.Store) error {
	var lat, lon *float64
	if s.Location != nil {
		lat, lon = &s.Location.Latitude, &s.Location.Longitude
	}
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO stores (slug, name, kind, address, location, rating, metadata)
		VALUES ($1, $2, $3, $4,
		        CASE WHEN $5::float8 IS NULL THEN NULL
		             ELSE ST_SetSRID(ST_MakePoint($6, $5), 4326)::geography END,
		        $7, $8)
		ON CONFLICT (slug) DO UPDATE
		SET name = EXCLUDED.name, kind = EXCLUDED.kind,
		    address = EXCLUDED.address, location = EXCLUDED.location,
		    rating = EXCLUDED.rating, metadata = EXCLUDED.metadata
	`, s.Slug, s.Name, s.Kind, s.Address, lat, lon, s.Rating, s.Metadata)
	return err
}

// GetByID returns a store by UUID.
func (r *StoreRepo) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT id, slug, name, kind, COALESCE(address, ''),
		       ST_Y(location::geometry), ST_X(location::geometry),
		       rating, COALESCE(metadata, '{}'), created_at
		FROM stores WHERE id = $1
	`, id)

	s, err := scanStore(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// List returns every store.
func (r *StoreRepo) List(ctx context.Context) ([]domain.Store, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, slug, name, kind, COALESCE(address, ''),
		       ST_Y(location::geometry), ST_X(location::geometry),
		       rating, COALESCE(metadata, '{}'), created_at
		FROM stores
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stores []domain.Store
	for rows.Next() {
		s, err := scanStore(rows)
		if err != nil {
			return nil, err
		}
		stores = append(stores, *s)
	}
	return stores, rows.Err()
}

// FindNearby returns stores within radiusKm, ordered by distance, using
// PostGIS ST_DWithin on the geography column.
func (r *StoreRepo) FindNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]domain.Store, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, slug, name, kind, COALESCE(address, ''),
		       ST_Y(location::geometry), ST_X(location::geometry),
		       rating, COALESCE(metadata, '{}'), created_at,
		       ST_Distance(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) / 1000.0 AS distance_km
		FROM stores
		WHERE location IS NOT NULL
		  AND ST_DWithin(location, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
		ORDER BY distance_km
		LIMIT $4
	`, lon, lat, radiusKm*1000, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stores []domain.Store
	for rows.Next() {
		var s domain.Store
		var slat, slon *float64
		var distKm float64
		if err := rows.Scan(
			&s.ID, &s.Slug, &s.Name, &s.Kind, &s.Address,
			&slat, &slon, &s.Rating, &s.Metadata, &s.CreatedAt,
			&distKm,
		); err != nil {
			return nil, err
		}
		if slat != nil && slon != nil {
			s.Location = &domain.Coordinate{Latitude: *slat, Longitude: *slon}
		}
		s.Distance = &distKm
		stores = append(stores, s)
	}
	return stores, rows.Err()
}

func scanStore(row pgx.Row) (*domain.Store, error) {
	var s domain.Store
	var lat, lon *float64
	if err := row.Scan(
		&s.ID, &s.Slug, &s.Name, &s.Kind, &s.Address,
		&lat, &lon, &s.Rating, &s.Metadata, &s.CreatedAt,
	); err != nil {
		return nil, err
	}
	if lat != nil && lon != nil {
		s.Location = &domain.Coordinate{Latitude: *lat, Longitude: *lon}
	}
	return &s, nil
}
