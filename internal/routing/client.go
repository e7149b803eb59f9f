// ============================================================================
// Route Resolution Service - GenSan Fare
// ============================================================================
// OSRM client: turns an ordered list of waypoints into a driving route with
// total distance and geometry. One logical request per call, no retries;
// retry policy (if any) belongs to the caller.
// ============================================================================

package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/yourorg/gensanfare/internal/cache"
	"github.com/yourorg/gensanfare/internal/models"
)

// Status tags a RouteResult.
type Status int

const (
	// StatusFound: the provider returned a route.
	StatusFound Status = iota
	// StatusNotFound: the provider answered but found no route between the
	// waypoints.
	StatusNotFound
	// StatusProviderError: network failure, timeout, or a malformed/unexpected
	// provider response.
	StatusProviderError
)

// RouteResult is the normalized outcome of a route resolution. Callers switch
// on Status instead of inspecting provider response shapes.
type RouteResult struct {
	Status          Status
	DistanceMeters  float64
	DurationSeconds float64
	Geometry        []models.Coordinate
	Err             error // set only for StatusProviderError
}

// Resolver is what route consumers depend on; *Client satisfies it.
type Resolver interface {
	Resolve(ctx context.Context, waypoints []models.Coordinate) RouteResult
}

// Client talks to an OSRM HTTP server.
type Client struct {
	baseURL    string
	profile    string
	httpClient *http.Client
	cache      *cache.Cache
}

// osrmResponse mirrors the subset of the OSRM /route/v1 response we consume.
type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"` // meters
		Duration float64 `json:"duration"` // seconds
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"` // [lon, lat]
		} `json:"geometry"`
	} `json:"routes"`
}

// NewClient creates an OSRM client. Base URL comes from OSRM_URL (default:
// the public demo server, same one the frontend used historically).
func NewClient(routeCache *cache.Cache) *Client {
	baseURL := os.Getenv("OSRM_URL")
	if baseURL == "" {
		baseURL = "https://router.project-osrm.org"
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		profile: "driving",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: routeCache,
	}
}

// Resolve requests a driving route through the given waypoints, in order.
// At least 2 waypoints are required.
func (c *Client) Resolve(ctx context.Context, waypoints []models.Coordinate) RouteResult {
	if len(waypoints) < 2 {
		return RouteResult{
			Status: StatusProviderError,
			Err:    fmt.Errorf("need at least 2 waypoints, got %d", len(waypoints)),
		}
	}

	key := cacheKey(waypoints)
	if c.cache != nil {
		if v, found := c.cache.Get(key); found {
			return v.(RouteResult)
		}
	}

	result := c.resolve(ctx, waypoints)

	// Cache definitive answers only; provider errors are transient.
	if c.cache != nil && result.Status != StatusProviderError {
		c.cache.Set(key, result)
	}

	return result
}

func (c *Client) resolve(ctx context.Context, waypoints []models.Coordinate) RouteResult {
	// OSRM wants lon,lat pairs joined by ';' in the path.
	coords := make([]string, len(waypoints))
	for i, w := range waypoints {
		coords[i] = fmt.Sprintf("%f,%f", w.Lon, w.Lat)
	}

	u := fmt.Sprintf("%s/route/v1/%s/%s", c.baseURL, c.profile, strings.Join(coords, ";"))

	q := url.Values{}
	q.Set("overview", "full")
	q.Set("geometries", "geojson")
	q.Set("alternatives", "false")
	q.Set("steps", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u+"?"+q.Encode(), nil)
	if err != nil {
		return RouteResult{Status: StatusProviderError, Err: fmt.Errorf("building request: %w", err)}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts from the network stack count as provider errors.
		return RouteResult{Status: StatusProviderError, Err: fmt.Errorf("osrm request: %w", err)}
	}
	defer resp.Body.Close()

	var parsed osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return RouteResult{Status: StatusProviderError, Err: fmt.Errorf("decoding osrm response: %w", err)}
	}

	// OSRM reports "NoRoute"/"NoSegment" with a 400, so check the code before
	// the HTTP status.
	switch parsed.Code {
	case "Ok":
		if len(parsed.Routes) == 0 {
			return RouteResult{Status: StatusNotFound}
		}
	case "NoRoute", "NoSegment":
		return RouteResult{Status: StatusNotFound}
	default:
		return RouteResult{
			Status: StatusProviderError,
			Err:    fmt.Errorf("osrm error %d: %s", resp.StatusCode, parsed.Code),
		}
	}

	route := parsed.Routes[0]
	geometry := make([]models.Coordinate, 0, len(route.Geometry.Coordinates))
	for _, pair := range route.Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		geometry = append(geometry, models.Coordinate{Lat: pair[1], Lon: pair[0]})
	}

	return RouteResult{
		Status:          StatusFound,
		DistanceMeters:  route.Distance,
		DurationSeconds: route.Duration,
		Geometry:        geometry,
	}
}

// cacheKey rounds waypoints to 5 decimals (~1m) so tiny drag jitter still
// hits the cache.
func cacheKey(waypoints []models.Coordinate) string {
	parts := make([]string, len(waypoints))
	for i, w := range waypoints {
		parts[i] = fmt.Sprintf("%.5f,%.5f", w.Lat, w.Lon)
	}
	return "route:" + strings.Join(parts, ";")
}
