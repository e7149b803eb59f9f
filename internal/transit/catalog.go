// ============================================================================
// Fixed-Route Catalog - GenSan Fare
// ============================================================================
// Named bus/jeep lines with their ordered stops. The catalog is loaded once
// at startup — from the database when one is configured, otherwise from the
// built-in data — and never mutated afterwards.
// ============================================================================

package transit

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/yourorg/gensanfare/internal/models"
)

// ErrUnknownRoute is returned when a selection names a route key that is not
// in the catalog.
var ErrUnknownRoute = errors.New("unknown route key")

// Catalog is the immutable set of fixed routes.
type Catalog struct {
	routes map[string]models.FixedRoute
	order  []string
}

// Get returns the route for key.
func (c *Catalog) Get(key string) (models.FixedRoute, bool) {
	r, ok := c.routes[key]
	return r, ok
}

// List returns every route in stable order.
func (c *Catalog) List() []models.FixedRoute {
	out := make([]models.FixedRoute, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.routes[key])
	}
	return out
}

// Len returns the number of routes.
func (c *Catalog) Len() int {
	return len(c.order)
}

func newCatalog(routes []models.FixedRoute) *Catalog {
	c := &Catalog{routes: make(map[string]models.FixedRoute, len(routes))}
	for _, r := range routes {
		c.routes[r.Key] = r
		c.order = append(c.order, r.Key)
	}
	return c
}

// BuiltIn returns the catalog compiled into the binary: the two surveyed
// GenSan lines. Used directly when no database is configured, and as the
// seed data otherwise.
func BuiltIn() *Catalog {
	return newCatalog(builtInRoutes())
}

func builtInRoutes() []models.FixedRoute {
	return []models.FixedRoute{
		{
			Key:   "uhaw",
			Name:  "Uhaw Route",
			Color: "#10b981",
			Stops: stops([]stopDef{
				{6.05767570956232, 125.10107993582126, "Airport"},
				{6.066884922625555, 125.1434596999282, "Kanto Uhaw Station"},
				{6.077595973054012, 125.14630932006035, "Jollibee"},
				{6.103867375918512, 125.15131957789644, "GenSan Mray Logistics"},
				{6.118545877545823, 125.16105536621555, "7-Eleven Bulaong"},
				{6.113102709883002, 125.1641208727235, "Husky Terminal"},
				{6.112729529261363, 125.17019837345096, "RD Plaza"},
				{6.107332339041174, 125.17169075356206, "Pioneer Avenue"},
				{6.10715133832164, 125.17841548474036, "Palengke"},
				{6.11504792768598, 125.1810033808399, "SM"},
				{6.117269670385729, 125.18593755106797, "KCC"},
				{6.121359557284698, 125.19027992842483, "Robinsons"},
			}),
		},
		{
			Key:   "kanto-uhaw",
			Name:  "Kanto Uhaw Route",
			Color: "#f59e0b",
			Stops: stops([]stopDef{
				{6.078873108385696, 125.13528401472598, "Lado Transco Terminal"},
				{6.077396262058303, 125.14070464684552, "GenSan National High"},
				{6.077595973054012, 125.14630932006035, "Western Oil"},
				{6.107364931098272, 125.17185909281004, "Pioneer Ave"},
				{6.1094378291354685, 125.17859477710057, "Magsaysay UNITOP"},
				{6.117269670385729, 125.18593755106797, "KCC"},
				{6.118803421745483, 125.19375059719822, "Brigada Pharmacy"},
				{6.127613973270192, 125.19631931002468, "Lagao Public Market"},
			}),
		},
	}
}

type stopDef struct {
	lat, lon float64
	label    string
}

func stops(defs []stopDef) []models.Stop {
	out := make([]models.Stop, len(defs))
	for i, d := range defs {
		out[i] = models.Stop{
			Seq:   i + 1,
			Label: d.label,
			Coord: models.Coordinate{Lat: d.lat, Lon: d.lon},
		}
	}
	return out
}

// Load reads the catalog from the fixed_routes / fixed_route_stops tables.
// Returns an error when the tables are empty or unreadable; the caller falls
// back to BuiltIn.
func Load(db *sql.DB) (*Catalog, error) {
	rows, err := db.Query(`
		SELECT route_key, name, color
		FROM fixed_routes
		ORDER BY position, route_key
	`)
	if err != nil {
		return nil, fmt.Errorf("querying fixed_routes: %w", err)
	}
	defer rows.Close()

	var routes []models.FixedRoute
	for rows.Next() {
		var r models.FixedRoute
		if err := rows.Scan(&r.Key, &r.Name, &r.Color); err != nil {
			return nil, fmt.Errorf("scanning fixed route: %w", err)
		}
		routes = append(routes, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(routes) == 0 {
		return nil, errors.New("fixed_routes table is empty")
	}

	for i := range routes {
		stops, err := loadStops(db, routes[i].Key)
		if err != nil {
			return nil, err
		}
		if len(stops) < 2 {
			return nil, fmt.Errorf("route %s has %d stops, need at least 2", routes[i].Key, len(stops))
		}
		routes[i].Stops = stops
	}

	return newCatalog(routes), nil
}

func loadStops(db *sql.DB, routeKey string) ([]models.Stop, error) {
	rows, err := db.Query(`
		SELECT seq, name, latitude, longitude
		FROM fixed_route_stops
		WHERE route_key = ?
		ORDER BY seq
	`, routeKey)
	if err != nil {
		return nil, fmt.Errorf("querying stops for %s: %w", routeKey, err)
	}
	defer rows.Close()

	var stops []models.Stop
	for rows.Next() {
		var s models.Stop
		if err := rows.Scan(&s.Seq, &s.Label, &s.Coord.Lat, &s.Coord.Lon); err != nil {
			return nil, fmt.Errorf("scanning stop for %s: %w", routeKey, err)
		}
		stops = append(stops, s)
	}
	return stops, rows.Err()
}
