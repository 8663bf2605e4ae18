package nominatim_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/prabeshj/tokri/internal/adapters/nominatim"
	"github.com/prabeshj/tokri/internal/core/domain"
)

func newServer(t *testing.T, path, body string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != path {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); ua == "" {
			t.Error("missing User-Agent header")
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestClient_Forward(t *testing.T) {
	const body = `[{
		"place_id": 12345,
		"osm_type": "relation",
		"osm_id": 999,
		"lat": "26.7288",
		"lon": "85.9266",
		"class": "boundary",
		"type": "administrative",
		"place_rank": 16,
		"importance": 0.55,
		"addresstype": "city",
		"name": "Janakpur",
		"display_name": "Janakpur, Dhanusha, Madhesh Province, Nepal"
	}]`

	srv := newServer(t, "/search", body, http.StatusOK)
	defer srv.Close()

	client := nominatim.NewClient(srv.URL)

	res, err := client.Forward(context.Background(), "Janakpur")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Coordinate == nil {
		t.Fatal("expected a coordinate")
	}
	if res.Coordinate.Latitude != 26.7288 || res.Coordinate.Longitude != 85.9266 {
		t.Errorf("unexpected coordinate %+v", res.Coordinate)
	}
	if res.Confidence != domain.ConfidenceMedium {
		t.Errorf("city rank should be medium confidence, got %s", res.Confidence)
	}
	if res.Provider != "nominatim" {
		t.Errorf("unexpected provider %q", res.Provider)
	}
}

func TestClient_Forward_NoResults(t *testing.T) {
	srv := newServer(t, "/search", `[]`, http.StatusOK)
	defer srv.Close()

	client := nominatim.NewClient(srv.URL)

	if _, err := client.Forward(context.Background(), "xyzzy"); err == nil {
		t.Fatal("expected error for empty result set")
	}
}

func TestClient_Forward_ServerError(t *testing.T) {
	srv := newServer(t, "/search", `Bandwidth limit exceeded`, http.StatusServiceUnavailable)
	defer srv.Close()

	client := nominatim.NewClient(srv.URL)

	if _, err := client.Forward(context.Background(), "Janakpur"); err == nil {
		t.Fatal("expected error for 503")
	}
}

func TestClient_Forward_ConfidenceTiers(t *testing.T) {
	tests := []struct {
		name string
		rank int
		want domain.Confidence
	}{
		{"house level", 30, domain.ConfidenceHigh},
		{"street level", 26, domain.ConfidenceHigh},
		{"village level", 19, domain.ConfidenceMedium},
		{"region level", 10, domain.ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := `[{"lat":"26.66","lon":"86.21","place_rank":` +
				strconv.Itoa(tt.rank) + `,"display_name":"somewhere"}]`
			srv := newServer(t, "/search", body, http.StatusOK)
			defer srv.Close()

			res, err := nominatim.NewClient(srv.URL).Forward(context.Background(), "somewhere")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Confidence != tt.want {
				t.Errorf("rank %d: expected %s, got %s", tt.rank, tt.want, res.Confidence)
			}
		})
	}
}

func TestClient_Reverse(t *testing.T) {
	const body = `{
		"place_id": 67890,
		"lat": "26.658600",
		"lon": "86.200300",
		"place_rank": 26,
		"addresstype": "road",
		"display_name": "Siraha-Lahan Road, Siraha Municipality, Nepal"
	}`

	srv := newServer(t, "/reverse", body, http.StatusOK)
	defer srv.Close()

	client := nominatim.NewClient(srv.URL)

	res, err := client.Reverse(context.Background(), domain.Coordinate{Latitude: 26.6586, Longitude: 86.2003})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FormattedAddress != "Siraha-Lahan Road, Siraha Municipality, Nepal" {
		t.Errorf("unexpected address %q", res.FormattedAddress)
	}
	if res.Confidence != domain.ConfidenceHigh {
		t.Errorf("road rank should be high confidence, got %s", res.Confidence)
	}
}

func TestClient_Reverse_NoAddress(t *testing.T) {
	srv := newServer(t, "/reverse", `{"error":"Unable to geocode"}`, http.StatusOK)
	defer srv.Close()

	client := nominatim.NewClient(srv.URL)

	if _, err := client.Reverse(context.Background(), domain.Coordinate{Latitude: 0, Longitude: 0}); err == nil {
		t.Fatal("expected error for unresolvable point")
	}
}
