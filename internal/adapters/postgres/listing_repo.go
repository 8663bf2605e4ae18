package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/prabeshj/tokri/internal/core/domain"
)

// ListingRepo implements ports.ListingRepository with pgx.
type ListingRepo struct {
	db *DB
}

// NewListingRepo creates a new ListingRepo.
func NewListingRepo(db *DB) *ListingRepo {
	return &ListingRepo{db: db}
}

const upsertListingSQL = `
	INSERT INTO listings (store_id, name, description, category_id, category_label,
	                      price, rating, spice_level, vegetarian, vegan, prep_minutes)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (store_id, name) DO UPDATE
	SET description = EXCLUDED.description,
	    category_id = EXCLUDED.category_id,
	    category_label = EXCLUDED.category_label,
	    price = EXCLUDED.price, rating = EXCLUDED.rating,
	    spice_level = EXCLUDED.spice_level,
	    vegetarian = EXCLUDED.vegetarian, vegan = EXCLUDED.vegan,
	    prep_minutes = EXCLUDED.prep_minutes`

// Upsert inserts or updates a single listing.
func (r *ListingRepo) Upsert(ctx context.Context, l *domain.Listing) error {
	_, err := r.db.Pool.Exec(ctx, upsertListingSQL,
		l.StoreID, l.Name, l.Description, l.CategoryID, l.CategoryLabel,
		l.Price, l.Rating, l.SpiceLevel, l.Vegetarian, l.Vegan, l.PrepMinutes)
	return err
}

// UpsertBatch inserts many listings using pgx.Batch.
func (r *ListingRepo) UpsertBatch(ctx context.Context, ls []domain.Listing) error {
	batch := &pgx.Batch{}
	for _, l := range ls {
		batch.Queue(upsertListingSQL,
			l.StoreID, l.Name, l.Description, l.CategoryID, l.CategoryLabel,
			l.Price, l.Rating, l.SpiceLevel, l.Vegetarian, l.Vegan, l.PrepMinutes)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range ls {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

const selectListingSQL = `
	SELECT l.id, l.name, COALESCE(l.description, ''),
	       l.category_id, COALESCE(l.category_label, ''),
	       l.store_id, s.name, s.kind,
	       ST_Y(s.location::geometry), ST_X(s.location::geometry),
	       l.price, l.rating, COALESCE(l.spice_level, ''),
	       l.vegetarian, l.vegan, COALESCE(l.prep_minutes, 0), l.created_at
	FROM listings l
	JOIN stores s ON s.id = l.store_id`

// GetByID returns a listing with its store facts joined in.
func (r *ListingRepo) GetByID(ctx context.Context, id string) (*domain.Listing, error) {
	row := r.db.Pool.QueryRow(ctx, selectListingSQL+` WHERE l.id = $1`, id)

	l, err := scanListing(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return l, nil
}

// ListAll returns the full candidate set for the search pipeline. Store
// coordinates come along so distance can be computed per caller position.
func (r *ListingRepo) ListAll(ctx context.Context) ([]domain.Listing, error) {
	rows, err := r.db.Pool.Query(ctx, selectListingSQL+` ORDER BY l.created_at, l.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *l)
	}
	return listings, rows.Err()
}

func scanListing(row pgx.Row) (*domain.Listing, error) {
	var l domain.Listing
	var lat, lon *float64
	if err := row.Scan(
		&l.ID, &l.Name, &l.Description,
		&l.CategoryID, &l.CategoryLabel,
		&l.StoreID, &l.StoreName, &l.StoreKind,
		&lat, &lon,
		&l.Price, &l.Rating, &l.SpiceLevel,
		&l.Vegetarian, &l.Vegan, &l.PrepMinutes, &l.CreatedAt,
	); err != nil {
		return nil, err
	}
	if lat != nil && lon != nil {
		l.Location = &domain.Coordinate{Latitude: *lat, Longitude: *lon}
	}
	return &l, nil
}
