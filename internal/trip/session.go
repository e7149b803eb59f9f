// ============================================================================
// Trip Session - GenSan Fare
// ============================================================================
// The point-to-point (trike) session: two endpoints, a generation counter,
// and the reconciliation that turns them into one consistent display of
// labels, distance, and fare. Every endpoint mutation bumps the generation;
// a reconciliation only publishes when its captured generation is still
// current, so late provider responses can never overwrite newer state.
// ============================================================================

package trip

import (
	"context"
	"fmt"
	"sync"

	"github.com/yourorg/gensanfare/internal/models"
	"github.com/yourorg/gensanfare/internal/overlay"
	"github.com/yourorg/gensanfare/internal/routing"
	"github.com/yourorg/gensanfare/internal/tariff"
)

// Panel placeholder texts, mirrored from the frontend.
const (
	placeholderEndpoint = "Tap map or search"
	placeholderLoading  = "Loading..."
	placeholderDistance = "—"
	placeholderFare     = "₱—"
)

// Overlay artifact IDs and colors for the trike trip.
const (
	startMarkerID = "trip-start"
	endMarkerID   = "trip-end"
	tripLineID    = "trip-route"

	startMarkerColor = "#10b981"
	endMarkerColor   = "#ef4444"
	tripLineColor    = "#2563eb"
)

// State names the session's position in its lifecycle.
type State string

const (
	StateEmpty        State = "empty"
	StatePartialStart State = "partial_start"
	StatePartialEnd   State = "partial_end"
	StateComplete     State = "complete"
)

// LabelResolver is the session's reverse-geocoding dependency.
type LabelResolver interface {
	ReverseLabel(ctx context.Context, coord models.Coordinate) string
}

// Endpoint is one user-chosen trip end: an optional coordinate plus its
// resolved label and a loading flag. An endpoint with a coordinate is always
// either loading or labeled — never indefinitely blank.
type Endpoint struct {
	Coord   models.Coordinate
	Label   string
	Set     bool
	Loading bool
}

// Session holds the current start/end endpoints and orchestrates route
// resolution, label resolution, and the tariff engine into coherent display
// updates.
type Session struct {
	mu      sync.Mutex
	routes  routing.Resolver
	labels  LabelResolver
	surface overlay.Surface

	start      Endpoint
	end        Endpoint
	generation uint64
	quote      *tariff.FareQuote
}

// NewSession creates an empty session.
func NewSession(routes routing.Resolver, labels LabelResolver, surface overlay.Surface) *Session {
	return &Session{routes: routes, labels: labels, surface: surface}
}

// State reports the session's lifecycle position.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	switch {
	case !s.start.Set && !s.end.Set:
		return StateEmpty
	case s.start.Set && !s.end.Set:
		return StatePartialStart
	case !s.start.Set && s.end.Set:
		return StatePartialEnd
	default:
		return StateComplete
	}
}

// Generation returns the current generation counter.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Quote returns the last published fare quote, if any.
func (s *Session) Quote() *tariff.FareQuote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quote
}

// SetStart sets or moves the start endpoint and triggers reconciliation.
func (s *Session) SetStart(coord models.Coordinate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.start = Endpoint{Coord: coord, Set: true, Loading: true}
	s.surface.PlaceMarker(overlay.Marker{ID: startMarkerID, At: coord, Label: "A", Color: startMarkerColor})
	if !s.end.Set {
		s.surface.Toast("📍 Start point set")
	}
	s.beginReconcileLocked()
}

// SetEnd sets or moves the end endpoint and triggers reconciliation.
func (s *Session) SetEnd(coord models.Coordinate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.end = Endpoint{Coord: coord, Set: true, Loading: true}
	s.surface.PlaceMarker(overlay.Marker{ID: endMarkerID, At: coord, Label: "B", Color: endMarkerColor})
	if s.start.Set {
		s.surface.Toast("🎯 Calculating route...")
	}
	s.beginReconcileLocked()
}

// Tap applies map-click semantics: first tap sets the start, second sets the
// end, any further tap shifts the end into the start and makes the tapped
// point the new end.
func (s *Session) Tap(coord models.Coordinate) {
	s.mu.Lock()
	startSet, endSet := s.start.Set, s.end.Set
	s.mu.Unlock()

	switch {
	case !startSet:
		s.SetStart(coord)
	case !endSet:
		s.SetEnd(coord)
	default:
		s.MoveToEnd(coord)
	}
}

// MoveToEnd shifts the current end into the start and assigns newCoord as the
// new end, preserving the two-point invariant. With fewer than two endpoints
// set it behaves like SetEnd.
func (s *Session) MoveToEnd(newCoord models.Coordinate) {
	s.mu.Lock()

	if !s.start.Set || !s.end.Set {
		s.mu.Unlock()
		s.SetEnd(newCoord)
		return
	}
	defer s.mu.Unlock()

	s.start = Endpoint{Coord: s.end.Coord, Set: true, Loading: true}
	s.end = Endpoint{Coord: newCoord, Set: true, Loading: true}
	s.surface.PlaceMarker(overlay.Marker{ID: startMarkerID, At: s.start.Coord, Label: "A", Color: startMarkerColor})
	s.surface.PlaceMarker(overlay.Marker{ID: endMarkerID, At: newCoord, Label: "B", Color: endMarkerColor})
	s.surface.Toast("🔄 Route updated")
	s.beginReconcileLocked()
}

// Locate sets or moves the start endpoint from a geolocation fix and recenters
// the view on it.
func (s *Session) Locate(coord models.Coordinate) {
	s.SetStart(coord)
	s.surface.FitView([]models.Coordinate{coord})
	s.surface.Toast("✅ Location set")
}

// Reset clears both endpoints and every trip overlay artifact. In-flight
// reconciliations die by generation mismatch.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.start = Endpoint{}
	s.end = Endpoint{}
	// Both endpoints are empty again, so the counter restarts.
	s.generation = 0
	s.quote = nil

	s.surface.RemoveMarker(startMarkerID)
	s.surface.RemoveMarker(endMarkerID)
	s.surface.RemoveLine(tripLineID)
	s.surface.Display(s.displayLocked())
}

// beginReconcileLocked bumps the generation, publishes the loading
// placeholders, and kicks off the asynchronous reconciliation.
func (s *Session) beginReconcileLocked() {
	s.generation++
	s.quote = nil

	g := s.generation
	start, end := s.start, s.end
	s.surface.Display(s.displayLocked())

	go s.reconcile(g, start, end)
}

// reconcile resolves labels (and, with both endpoints set, the route and
// fare) for the captured endpoints, then publishes one combined update —
// unless a newer generation superseded it, in which case the result is
// dropped without a trace.
func (s *Session) reconcile(g uint64, start, end Endpoint) {
	ctx := context.Background()

	// Single endpoint: resolve its label, skip routing and tariff entirely.
	if start.Set != end.Set {
		coord := start.Coord
		if end.Set {
			coord = end.Coord
		}
		label := s.labels.ReverseLabel(ctx, coord)

		s.mu.Lock()
		defer s.mu.Unlock()
		if g != s.generation || !s.matchesLocked(start, end) {
			return
		}
		if start.Set {
			s.start.Label, s.start.Loading = label, false
		} else {
			s.end.Label, s.end.Loading = label, false
		}
		s.surface.Display(s.displayLocked())
		return
	}

	if !start.Set {
		return
	}

	// Both endpoints: the two label lookups and the route lookup run
	// concurrently; nothing is published until all three are in.
	var (
		startLabel, endLabel string
		result               routing.RouteResult
		wg                   sync.WaitGroup
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		startLabel = s.labels.ReverseLabel(ctx, start.Coord)
	}()
	go func() {
		defer wg.Done()
		endLabel = s.labels.ReverseLabel(ctx, end.Coord)
	}()
	go func() {
		defer wg.Done()
		result = s.routes.Resolve(ctx, []models.Coordinate{start.Coord, end.Coord})
	}()
	wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	if g != s.generation || !s.matchesLocked(start, end) {
		// A newer request superseded this one. No update, no error.
		return
	}

	s.start.Label, s.start.Loading = startLabel, false
	s.end.Label, s.end.Loading = endLabel, false

	if result.Status != routing.StatusFound {
		s.quote = nil
		s.surface.RemoveLine(tripLineID)
		s.surface.Display(s.displayLocked())
		s.surface.Toast("❌ Could not find route")
		return
	}

	quote, err := tariff.ComputeFare(tariff.ModeTrike, result.DistanceMeters/1000)
	if err != nil {
		// Unreachable with a fixed mode; treated like a routing failure.
		s.quote = nil
		s.surface.RemoveLine(tripLineID)
		s.surface.Display(s.displayLocked())
		s.surface.Toast("❌ Failed to calculate fare")
		return
	}

	s.quote = &quote
	s.surface.DrawLine(overlay.Line{ID: tripLineID, Color: tripLineColor, Points: result.Geometry})
	s.surface.FitView([]models.Coordinate{start.Coord, end.Coord})
	s.surface.Display(s.displayLocked())
	s.surface.Toast(fmt.Sprintf("💰 Estimated fare: ₱%d", quote.Fare))
}

// matchesLocked guards against the generation counter having wrapped through
// a reset: the captured endpoints must still be the live ones.
func (s *Session) matchesLocked(start, end Endpoint) bool {
	return s.start.Set == start.Set && s.end.Set == end.Set &&
		(!start.Set || s.start.Coord == start.Coord) &&
		(!end.Set || s.end.Coord == end.Coord)
}

func (s *Session) displayLocked() overlay.DisplayUpdate {
	u := overlay.DisplayUpdate{
		Mode:       string(ModeTrike),
		StartLabel: endpointLabel(s.start),
		EndLabel:   endpointLabel(s.end),
		Distance:   placeholderDistance,
		Fare:       placeholderFare,
	}
	if s.quote != nil {
		u.Distance = fmt.Sprintf("%.2f km", s.quote.DistanceKm)
		u.Fare = fmt.Sprintf("₱%d", s.quote.Fare)
		u.Quote = s.quote
	}
	return u
}

func endpointLabel(e Endpoint) string {
	switch {
	case !e.Set:
		return placeholderEndpoint
	case e.Loading:
		return placeholderLoading
	default:
		return e.Label
	}
}

// Snapshot is the session state served over the REST surface.
type Snapshot struct {
	State      State             `json:"state"`
	StartLabel string            `json:"start_label"`
	EndLabel   string            `json:"end_label"`
	Distance   string            `json:"distance"`
	Fare       string            `json:"fare"`
	Quote      *tariff.FareQuote `json:"quote,omitempty"`
}

// Snapshot returns the current display state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.displayLocked()
	return Snapshot{
		State:      s.stateLocked(),
		StartLabel: u.StartLabel,
		EndLabel:   u.EndLabel,
		Distance:   u.Distance,
		Fare:       u.Fare,
		Quote:      s.quote,
	}
}
