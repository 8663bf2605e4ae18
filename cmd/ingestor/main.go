package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/prabeshj/tokri/internal/adapters/nominatim"
	"github.com/prabeshj/tokri/internal/core/domain"
	"github.com/prabeshj/tokri/internal/pkg/config"
)

// ---------------------------------------------------------------------------
// Catalog manifest types
// ---------------------------------------------------------------------------

type Manifest struct {
	Source string       `json:"source"`
	Stores []StoreEntry `json:"stores"`
}

type StoreEntry struct {
	Slug     string         `json:"slug"`
	Name     string         `json:"name"`
	Kind     string         `json:"kind"` // retail | restaurant
	Address  string         `json:"address,omitempty"`
	Lat      *float64       `json:"lat,omitempty"`
	Lon      *float64       `json:"lon,omitempty"`
	Rating   float64        `json:"rating,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Listings []ListingEntry `json:"listings"`
}

type ListingEntry struct {
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	CategoryID    int     `json:"category_id"`
	CategoryLabel string  `json:"category_label,omitempty"`
	Price         float64 `json:"price"`
	Rating        float64 `json:"rating,omitempty"`
	SpiceLevel    string  `json:"spice_level,omitempty"`
	Vegetarian    bool    `json:"vegetarian,omitempty"`
	Vegan         bool    `json:"vegan,omitempty"`
	PrepMinutes   int     `json:"prep_minutes,omitempty"`
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	cfg, err := config.Load("tokri-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	// Load manifest
	manifestPath := "catalog.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		log.Fatalf("read manifest: %v", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		log.Fatalf("parse manifest: %v", err)
	}

	log.Printf("Tokri Catalog Ingestor: %d stores from %s", len(manifest.Stores), manifest.Source)

	// Filter stores (optional CLI arg: slug list)
	slugFilter := map[string]bool{}
	if len(os.Args) > 2 {
		for _, s := range strings.Split(os.Args[2], ",") {
			slugFilter[strings.TrimSpace(s)] = true
		}
	}

	geocoder := nominatim.NewClient(cfg.Geocoder.BaseURL)

	var wg sync.WaitGroup
	sem := make(chan struct{}, 4) // max 4 concurrent stores

	for _, store := range manifest.Stores {
		if len(slugFilter) > 0 && !slugFilter[store.Slug] {
			continue
		}

		wg.Add(1)
		go func(s StoreEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := ingestStore(ctx, pool, geocoder, s); err != nil {
				log.Printf("ERROR [%s]: %v", s.Slug, err)
			}
		}(store)
	}

	wg.Wait()
	log.Println("ingestion complete")
}

// ---------------------------------------------------------------------------
// Per-store ingestion
// ---------------------------------------------------------------------------

func ingestStore(ctx context.Context, pool *pgxpool.Pool, geocoder *nominatim.Client, entry StoreEntry) error {
	lat, lon := entry.Lat, entry.Lon

	// Resolve missing coordinates from the address
	if (lat == nil || lon == nil) && entry.Address != "" {
		res, err := geocoder.Forward(ctx, entry.Address)
		if err != nil {
			log.Printf("[%s] geocode failed, keeping store unlocated: %v", entry.Slug, err)
		} else if res.Coordinate != nil {
			lat, lon = &res.Coordinate.Latitude, &res.Coordinate.Longitude
			if res.Confidence == domain.ConfidenceLow {
				log.Printf("[%s] low-confidence geocode for %q, verify the pin", entry.Slug, entry.Address)
			}
		}
	}

	storeID, err := upsertStore(ctx, pool, entry, lat, lon)
	if err != nil {
		return fmt.Errorf("upsert store: %w", err)
	}
	log.Printf("[%s] store_id=%s", entry.Slug, storeID)

	if err := upsertListings(ctx, pool, storeID, entry); err != nil {
		return fmt.Errorf("upsert listings: %w", err)
	}

	log.Printf("[%s] done, %d listings", entry.Slug, len(entry.Listings))
	return nil
}

func upsertStore(ctx context.Context, pool *pgxpool.Pool, s StoreEntry, lat, lon *float64) (string, error) {
	var id string
	err := pool.QueryRow(ctx, `
		INSERT INTO stores (slug, name, kind, address, location, rating, metadata)
		VALUES ($1, $2, $3, $4,
		        CASE WHEN $5::float8 IS NULL THEN NULL
		             ELSE ST_SetSRID(ST_MakePoint($6, $5), 4326)::geography END,
		        $7, $8)
		ON CONFLICT (slug) DO UPDATE
		SET name = EXCLUDED.name, kind = EXCLUDED.kind,
		    address = EXCLUDED.address, location = EXCLUDED.location,
		    rating = EXCLUDED.rating, metadata = EXCLUDED.metadata
		RETURNING id
	`, s.Slug, s.Name, s.Kind, nilEmpty(s.Address), lat, lon, s.Rating, s.Metadata).Scan(&id)
	return id, err
}

func upsertListings(ctx context.Context, pool *pgxpool.Pool, storeID string, entry StoreEntry) error {
	const batchSize = 500
	batch := &pgx.Batch{}
	count := 0

	for _, l := range entry.Listings {
		batch.Queue(`
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
			    prep_minutes = EXCLUDED.prep_minutes
		`, storeID, l.Name, nilEmpty(l.Description), l.CategoryID, nilEmpty(l.CategoryLabel),
			l.Price, l.Rating, nilEmpty(l.SpiceLevel), l.Vegetarian, l.Vegan, l.PrepMinutes)

		count++
		if count >= batchSize {
			if err := flushBatch(ctx, pool, batch, count); err != nil {
				return err
			}
			batch = &pgx.Batch{}
			count = 0
		}
	}

	if count > 0 {
		return flushBatch(ctx, pool, batch, count)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func nilEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func flushBatch(ctx context.Context, pool *pgxpool.Pool, batch *pgx.Batch, count int) error {
	br := pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := 0; i < count; i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch item %d: %w", i, err)
		}
	}
	return nil
}
