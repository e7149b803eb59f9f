package overlay

import (
	"github.com/yourorg/gensanfare/internal/models"
	"github.com/yourorg/gensanfare/internal/tariff"
)

// Surface is everything the core needs from the map and panel: place/move/
// remove markers, draw/remove the route line, fit the view, and push display
// text. The browser owns the actual Leaflet map; the Hub transports these
// operations to it as JSON events. Whichever session or selection is active
// owns the surface exclusively; the mode controller clears the previous
// owner's artifacts before the next one draws.
type Surface interface {
	PlaceMarker(m Marker)
	RemoveMarker(id string)
	DrawLine(l Line)
	RemoveLine(id string)
	FitView(points []models.Coordinate)
	Toast(message string)
	Display(u DisplayUpdate)
}

// Marker is a map marker command. Placing a marker with an existing ID moves
// it.
type Marker struct {
	ID      string            `json:"id"`
	At      models.Coordinate `json:"at"`
	Label   string            `json:"label,omitempty"`   // short badge text ("A", "B")
	Color   string            `json:"color,omitempty"`   // CSS color
	Tooltip string            `json:"tooltip,omitempty"` // hover text (stop name)
}

// Line is a polyline command. Drawing a line with an existing ID replaces it.
type Line struct {
	ID     string              `json:"id"`
	Color  string              `json:"color"`
	Points []models.Coordinate `json:"points"`
}

// DisplayUpdate carries the read-only panel state: endpoint labels, distance
// and fare displays, and (for fixed routes) the ordered stop list. Distance
// and Fare use "—" / "₱—" placeholders when unknown.
type DisplayUpdate struct {
	Mode       string            `json:"mode"`
	StartLabel string            `json:"start_label,omitempty"`
	EndLabel   string            `json:"end_label,omitempty"`
	Distance   string            `json:"distance,omitempty"`
	Fare       string            `json:"fare,omitempty"`
	Quote      *tariff.FareQuote `json:"quote,omitempty"`
	RouteKey   string            `json:"route_key,omitempty"`
	RouteName  string            `json:"route_name,omitempty"`
	Stops      []string          `json:"stops,omitempty"`
}
