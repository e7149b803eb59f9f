// ============================================================================
// Label Resolution Service - GenSan Fare
// ============================================================================
// Nominatim (OpenStreetMap) client for forward and reverse geocoding.
// Reverse lookups never fail outward: any provider problem degrades to a
// formatted-coordinate label so an endpoint is never left blank.
// ============================================================================

package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yourorg/gensanfare/internal/cache"
	"github.com/yourorg/gensanfare/internal/models"
)

const defaultLocality = "General Santos City"

// Result is one forward-geocoding hit, in the shape the frontend consumes.
type Result struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"display_name"`
	Type        string  `json:"type"`
}

// nominatimResult mirrors a Nominatim search hit (lat/lon arrive as strings).
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Type        string `json:"type"`
}

// nominatimReverse mirrors the subset of a reverse lookup we consume.
type nominatimReverse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		Road   string `json:"road"`
		Suburb string `json:"suburb"`
	} `json:"address"`
}

// Resolver is what label consumers depend on; *Client satisfies it.
type Resolver interface {
	ReverseLabel(ctx context.Context, coord models.Coordinate) string
	ForwardLocate(ctx context.Context, query string) (models.Coordinate, bool)
}

// Client talks to a Nominatim server.
type Client struct {
	baseURL    string
	userAgent  string
	locality   string
	httpClient *http.Client
	cache      *cache.Cache
}

// NewClient creates a Nominatim client. NOMINATIM_URL overrides the public
// instance; GEOCODE_LOCALITY scopes forward searches (default "General Santos
// City", set empty to disable scoping).
func NewClient(geocodeCache *cache.Cache) *Client {
	baseURL := os.Getenv("NOMINATIM_URL")
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}

	locality := defaultLocality
	if v, ok := os.LookupEnv("GEOCODE_LOCALITY"); ok {
		locality = strings.TrimSpace(v)
	}

	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: "GenSanFare/1.0 (Fare Estimation App)",
		locality:  locality,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache: geocodeCache,
	}
}

// ReverseLabel resolves a coordinate into a short display label. Builds the
// label from [road, suburb] joined by ", "; when neither is present, or on
// any provider failure, it falls back to the formatted coordinate. This call
// never fails outward.
func (c *Client) ReverseLabel(ctx context.Context, coord models.Coordinate) string {
	key := fmt.Sprintf("rev:%.5f,%.5f", coord.Lat, coord.Lon)
	if c.cache != nil {
		if v, found := c.cache.Get(key); found {
			return v.(string)
		}
	}

	label, ok := c.reverse(ctx, coord)
	if !ok {
		// Provider failures are absorbed here; don't poison the cache.
		return coord.FallbackLabel()
	}

	if c.cache != nil {
		c.cache.Set(key, label)
	}
	return label
}

func (c *Client) reverse(ctx context.Context, coord models.Coordinate) (string, bool) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%.6f", coord.Lat))
	params.Set("lon", fmt.Sprintf("%.6f", coord.Lon))
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")

	body, err := c.get(ctx, "/reverse", params)
	if err != nil {
		return "", false
	}

	var parsed nominatimReverse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", false
	}

	parts := make([]string, 0, 2)
	if parsed.Address.Road != "" {
		parts = append(parts, parsed.Address.Road)
	}
	if parsed.Address.Suburb != "" {
		parts = append(parts, parsed.Address.Suburb)
	}

	if len(parts) == 0 {
		return coord.FallbackLabel(), true
	}
	return strings.Join(parts, ", "), true
}

// Search runs a forward geocode and returns up to limit results. The query is
// suffixed with the configured locality to bias results toward the city.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if limit <= 0 || limit > 10 {
		limit = 5
	}

	scoped := query
	if c.locality != "" {
		scoped = query + ", " + c.locality
	}

	params := url.Values{}
	params.Set("q", scoped)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("addressdetails", "1")

	body, err := c.get(ctx, "/search", params)
	if err != nil {
		return nil, err
	}

	var parsed []nominatimResult
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decoding nominatim response: %w", err)
	}

	results := make([]Result, 0, len(parsed))
	for _, nr := range parsed {
		lat, errLat := strconv.ParseFloat(nr.Lat, 64)
		lon, errLon := strconv.ParseFloat(nr.Lon, 64)
		if errLat != nil || errLon != nil {
			continue
		}
		results = append(results, Result{
			Lat:         lat,
			Lon:         lon,
			DisplayName: nr.DisplayName,
			Type:        nr.Type,
		})
	}

	return results, nil
}

// ForwardLocate resolves a free-text query to the first matching coordinate.
// Zero results or any provider error reads as not-found.
func (c *Client) ForwardLocate(ctx context.Context, query string) (models.Coordinate, bool) {
	results, err := c.Search(ctx, query, 1)
	if err != nil || len(results) == 0 {
		return models.Coordinate{}, false
	}
	return models.Coordinate{Lat: results[0].Lat, Lon: results[0].Lon}, true
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	// Nominatim's usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading nominatim response: %w", err)
	}
	return body, nil
}
