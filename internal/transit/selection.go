package transit

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/yourorg/gensanfare/internal/models"
	"github.com/yourorg/gensanfare/internal/overlay"
	"github.com/yourorg/gensanfare/internal/routing"
	"github.com/yourorg/gensanfare/internal/tariff"
)

// Selection drives the bus/jeep overlay: at most one active fixed route at a
// time. Selecting publishes the stop markers and stop list immediately, then
// requests the reference polyline in the background — a routing failure only
// suppresses the line, never the stops.
type Selection struct {
	mu       sync.Mutex
	catalog  *Catalog
	resolver routing.Resolver
	surface  overlay.Surface
	active   string
	// generation discards polyline results that arrive after the selection
	// changed again.
	generation uint64
}

const routeLineID = "busjeep-route"

// NewSelection creates an empty selection over the given catalog.
func NewSelection(catalog *Catalog, resolver routing.Resolver, surface overlay.Surface) *Selection {
	return &Selection{
		catalog:  catalog,
		resolver: resolver,
		surface:  surface,
	}
}

// Active returns the currently selected route key, or "".
func (s *Selection) Active() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Select activates the route for key, replacing any previous selection.
// An unknown key changes nothing and returns ErrUnknownRoute.
func (s *Selection) Select(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	route, ok := s.catalog.Get(key)
	if !ok {
		log.Printf("transit: ignoring selection of unknown route %q", key)
		return fmt.Errorf("%w: %s", ErrUnknownRoute, key)
	}

	s.clearLocked()
	s.active = key
	s.generation++
	g := s.generation

	for _, stop := range route.Stops {
		s.surface.PlaceMarker(overlay.Marker{
			ID:      stopMarkerID(key, stop.Seq),
			At:      stop.Coord,
			Color:   route.Color,
			Tooltip: stop.Label,
		})
	}
	s.surface.FitView(route.Waypoints())

	// Every fixed route rides the flat bus/jeep tariff; the quote is not
	// route-specific.
	quote, err := tariff.ComputeFare(tariff.ModeJeep, 0)
	if err != nil {
		return err
	}
	s.surface.Display(overlay.DisplayUpdate{
		Mode:      "busjeep",
		Fare:      fmt.Sprintf("₱%d", quote.Fare),
		Quote:     &quote,
		RouteKey:  route.Key,
		RouteName: route.Name,
		Stops:     route.StopLabels(),
	})
	s.surface.Toast(fmt.Sprintf("🚌 %s selected", route.Name))

	// The polyline fetch outlives the request that triggered it.
	go s.drawPolyline(context.WithoutCancel(ctx), g, route)

	return nil
}

// drawPolyline resolves the reference polyline along the route's stops.
// Purely visual: on anything but success it logs and leaves the stops as-is.
func (s *Selection) drawPolyline(ctx context.Context, g uint64, route models.FixedRoute) {
	result := s.resolver.Resolve(ctx, route.Waypoints())

	s.mu.Lock()
	defer s.mu.Unlock()

	if g != s.generation {
		// Selection changed while the provider was thinking; drop silently.
		return
	}

	if result.Status != routing.StatusFound {
		log.Printf("transit: reference polyline for %s unavailable (status %d)", route.Key, result.Status)
		return
	}

	s.surface.DrawLine(overlay.Line{
		ID:     routeLineID,
		Color:  route.Color,
		Points: result.Geometry,
	})
}

// Clear removes the active selection's overlay artifacts.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Selection) clearLocked() {
	if s.active == "" {
		return
	}

	if route, ok := s.catalog.Get(s.active); ok {
		for _, stop := range route.Stops {
			s.surface.RemoveMarker(stopMarkerID(route.Key, stop.Seq))
		}
	}
	s.surface.RemoveLine(routeLineID)
	s.active = ""
	s.generation++
	s.surface.Display(overlay.DisplayUpdate{Mode: "busjeep", Fare: "₱—"})
}

func stopMarkerID(routeKey string, seq int) string {
	return fmt.Sprintf("stop:%s:%d", routeKey, seq)
}
