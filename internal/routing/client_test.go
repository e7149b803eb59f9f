package routing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/yourorg/gensanfare/internal/cache"
	"github.com/yourorg/gensanfare/internal/models"
)

var testWaypoints = []models.Coordinate{
	{Lat: 6.05767, Lon: 125.10108},
	{Lat: 6.12136, Lon: 125.19028},
}

const osrmOK = `{
	"code": "Ok",
	"routes": [{
		"distance": 6300.0,
		"duration": 850.0,
		"geometry": {"coordinates": [[125.10108, 6.05767], [125.14630, 6.07760], [125.19028, 6.12136]]}
	}]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	t.Setenv("OSRM_URL", server.URL)
	return NewClient(nil)
}

func TestResolveFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(osrmOK))
	})

	result := client.Resolve(context.Background(), testWaypoints)
	if result.Status != StatusFound {
		t.Fatalf("expected StatusFound, got %v (err: %v)", result.Status, result.Err)
	}
	if result.DistanceMeters != 6300.0 {
		t.Errorf("expected 6300m, got %v", result.DistanceMeters)
	}
	if len(result.Geometry) != 3 {
		t.Errorf("expected 3 geometry points, got %d", len(result.Geometry))
	}
	// GeoJSON pairs are lon,lat; make sure they were swapped into lat,lon.
	if result.Geometry[0].Lat != 6.05767 {
		t.Errorf("expected first point lat 6.05767, got %v", result.Geometry[0].Lat)
	}
}

func TestResolveNoRoute(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// OSRM reports NoRoute with a 400 status.
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code": "NoRoute", "routes": []}`))
	})

	result := client.Resolve(context.Background(), testWaypoints)
	if result.Status != StatusNotFound {
		t.Fatalf("expected StatusNotFound, got %v", result.Status)
	}
	if result.Err != nil {
		t.Errorf("NotFound is not an error condition, got %v", result.Err)
	}
}

func TestResolveProviderError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"code": "InternalError"}`))
	})

	result := client.Resolve(context.Background(), testWaypoints)
	if result.Status != StatusProviderError {
		t.Fatalf("expected StatusProviderError, got %v", result.Status)
	}
	if result.Err == nil {
		t.Error("expected error to be set for provider failure")
	}
}

func TestResolveUnreachableProvider(t *testing.T) {
	t.Setenv("OSRM_URL", "http://127.0.0.1:1")
	client := NewClient(nil)

	result := client.Resolve(context.Background(), testWaypoints)
	if result.Status != StatusProviderError {
		t.Fatalf("expected StatusProviderError for unreachable provider, got %v", result.Status)
	}
}

func TestResolveTooFewWaypoints(t *testing.T) {
	client := NewClient(nil)

	result := client.Resolve(context.Background(), testWaypoints[:1])
	if result.Status != StatusProviderError {
		t.Fatalf("expected StatusProviderError for 1 waypoint, got %v", result.Status)
	}
}

func TestResolveUsesCache(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(osrmOK))
	}))
	t.Cleanup(server.Close)
	t.Setenv("OSRM_URL", server.URL)

	routeCache := cache.New(1*time.Minute, 5*time.Minute)
	defer routeCache.Stop()
	client := NewClient(routeCache)

	first := client.Resolve(context.Background(), testWaypoints)
	second := client.Resolve(context.Background(), testWaypoints)

	if calls != 1 {
		t.Errorf("expected 1 provider call, got %d", calls)
	}
	if first.DistanceMeters != second.DistanceMeters {
		t.Error("cached result differs from original")
	}
}
