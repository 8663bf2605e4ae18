package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/prabeshj/tokri/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"latitude":  &graphql.Field{Type: graphql.Float},
			"longitude": &graphql.Field{Type: graphql.Float},
		},
	})

	listingType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Listing",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.String},
			"name":           &graphql.Field{Type: graphql.String},
			"description":    &graphql.Field{Type: graphql.String},
			"category_id":    &graphql.Field{Type: graphql.Int},
			"category_label": &graphql.Field{Type: graphql.String},
			"store_id":       &graphql.Field{Type: graphql.String},
			"store_name":     &graphql.Field{Type: graphql.String},
			"store_kind":     &graphql.Field{Type: graphql.String},
			"location":       &graphql.Field{Type: coordinateType},
			"price":          &graphql.Field{Type: graphql.Float},
			"rating":         &graphql.Field{Type: graphql.Float},
			"spice_level":    &graphql.Field{Type: graphql.String},
			"vegetarian":     &graphql.Field{Type: graphql.Boolean},
			"vegan":          &graphql.Field{Type: graphql.Boolean},
			"prep_minutes":   &graphql.Field{Type: graphql.Int},
			"distance":       &graphql.Field{Type: graphql.Float},
		},
	})

	storeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Store",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"slug":     &graphql.Field{Type: graphql.String},
			"name":     &graphql.Field{Type: graphql.String},
			"kind":     &graphql.Field{Type: graphql.String},
			"address":  &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: coordinateType},
			"rating":   &graphql.Field{Type: graphql.Float},
			"distance": &graphql.Field{Type: graphql.Float},
		},
	})

	zoneType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DeliveryZone",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"name":        &graphql.Field{Type: graphql.String},
			"min_km":      &graphql.Field{Type: graphql.Float},
			"max_km":      &graphql.Field{Type: graphql.Float},
			"base_fee":    &graphql.Field{Type: graphql.Float},
			"per_km_rate": &graphql.Field{Type: graphql.Float},
		},
	})

	quoteType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DeliveryQuote",
		Fields: graphql.Fields{
			"distance_km":       &graphql.Field{Type: graphql.Float},
			"zone":              &graphql.Field{Type: zoneType},
			"fee":               &graphql.Field{Type: graphql.Float},
			"estimated_minutes": &graphql.Field{Type: graphql.Int},
			"time_band":         &graphql.Field{Type: graphql.String},
		},
	})

	geocodeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeocodeResult",
		Fields: graphql.Fields{
			"coordinate":         &graphql.Field{Type: coordinateType},
			"formatted_address":  &graphql.Field{Type: graphql.String},
			"confidence":         &graphql.Field{Type: graphql.String},
			"provider":           &graphql.Field{Type: graphql.String},
			"needs_confirmation": &graphql.Field{Type: graphql.Boolean},
			"maps_link":          &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"search": &graphql.Field{
				Type:        graphql.NewList(listingType),
				Description: "Search the catalog with filters and ordering",
				Args: graphql.FieldConfigArgument{
					"q":        &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"mode":     &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"category": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
					"sort":     &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: "distance"},
					"lat":      &graphql.ArgumentConfig{Type: graphql.Float},
					"lon":      &graphql.ArgumentConfig{Type: graphql.Float},
					"max_km":   &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					criteria := domain.Criteria{
						Query:         p.Args["q"].(string),
						Mode:          domain.Mode(p.Args["mode"].(string)),
						Category:      p.Args["category"].(string),
						SortBy:        domain.SortKey(p.Args["sort"].(string)),
						MaxDistanceKm: p.Args["max_km"].(float64),
					}
					var userLoc *domain.Coordinate
					if lat, ok := p.Args["lat"].(float64); ok {
						if lon, ok := p.Args["lon"].(float64); ok {
							userLoc = &domain.Coordinate{Latitude: lat, Longitude: lon}
						}
					}
					return deps.Search.Search(p.Context, userLoc, criteria)
				},
			},
			"storesNearby": &graphql.Field{
				Type:        graphql.NewList(storeType),
				Description: "Find stores near a location",
				Args: graphql.FieldConfigArgument{
					"lat":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"radius_km": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 5.0},
					"limit":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lat := p.Args["lat"].(float64)
					lon := p.Args["lon"].(float64)
					radiusKm := p.Args["radius_km"].(float64)
					limit := p.Args["limit"].(int)
					return deps.Stores.FindNearby(p.Context, lat, lon, radiusKm, limit)
				},
			},
			"store": &graphql.Field{
				Type:        storeType,
				Description: "Get a store by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Stores.GetByID(p.Context, p.Args["id"].(string))
				},
			},
			"listing": &graphql.Field{
				Type:        listingType,
				Description: "Get a listing by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Listings.GetByID(p.Context, p.Args["id"].(string))
				},
			},
			"geocode": &graphql.Field{
				Type:        geocodeType,
				Description: "Resolve free text to coordinates",
				Args: graphql.FieldConfigArgument{
					"q": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Geocode.Resolve(p.Context, p.Args["q"].(string))
				},
			},
			"reverseGeocode": &graphql.Field{
				Type:        geocodeType,
				Description: "Resolve coordinates to a display address",
				Args: graphql.FieldConfigArgument{
					"lat": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lon": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					coord := domain.Coordinate{
						Latitude:  p.Args["lat"].(float64),
						Longitude: p.Args["lon"].(float64),
					}
					return deps.Geocode.ResolveCoordinate(p.Context, coord)
				},
			},
			"deliveryQuote": &graphql.Field{
				Type:        quoteType,
				Description: "Compute a delivery fee for a distance",
				Args: graphql.FieldConfigArgument{
					"distance_km": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Pricing.Quote(p.Context, p.Args["distance_km"].(float64))
				},
			},
			"zones": &graphql.Field{
				Type:        graphql.NewList(zoneType),
				Description: "The active delivery pricing table",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Pricing.Zones(), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
