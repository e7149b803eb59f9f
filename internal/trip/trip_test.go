package trip

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/yourorg/gensanfare/internal/models"
	"github.com/yourorg/gensanfare/internal/overlay"
	"github.com/yourorg/gensanfare/internal/routing"
	"github.com/yourorg/gensanfare/internal/transit"
)

var (
	pioneerAve = models.Coordinate{Lat: 6.10733, Lon: 125.17169}
	kccMall    = models.Coordinate{Lat: 6.11727, Lon: 125.18594}
	airport    = models.Coordinate{Lat: 6.05768, Lon: 125.10108}
)

// recordingSurface captures overlay operations for assertions.
type recordingSurface struct {
	mu       sync.Mutex
	markers  map[string]overlay.Marker
	lines    map[string]overlay.Line
	displays []overlay.DisplayUpdate
	toasts   []string
}

func newRecordingSurface() *recordingSurface {
	return &recordingSurface{
		markers: make(map[string]overlay.Marker),
		lines:   make(map[string]overlay.Line),
	}
}

func (r *recordingSurface) PlaceMarker(m overlay.Marker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers[m.ID] = m
}

func (r *recordingSurface) RemoveMarker(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.markers, id)
}

func (r *recordingSurface) DrawLine(l overlay.Line) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines[l.ID] = l
}

func (r *recordingSurface) RemoveLine(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.lines, id)
}

func (r *recordingSurface) FitView(points []models.Coordinate) {}

func (r *recordingSurface) Toast(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, message)
}

func (r *recordingSurface) Display(u overlay.DisplayUpdate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.displays = append(r.displays, u)
}

func (r *recordingSurface) marker(id string) (overlay.Marker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.markers[id]
	return m, ok
}

func (r *recordingSurface) hasLine(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.lines[id]
	return ok
}

func (r *recordingSurface) lastDisplay() (overlay.DisplayUpdate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.displays) == 0 {
		return overlay.DisplayUpdate{}, false
	}
	return r.displays[len(r.displays)-1], true
}

func (r *recordingSurface) anyDisplay(match func(overlay.DisplayUpdate) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.displays {
		if match(u) {
			return true
		}
	}
	return false
}

func (r *recordingSurface) hasToast(message string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, toast := range r.toasts {
		if toast == message {
			return true
		}
	}
	return false
}

// coordLabels derives labels from the coordinate so tests can tell which
// lookup produced a label.
type coordLabels struct{}

func (coordLabels) ReverseLabel(ctx context.Context, c models.Coordinate) string {
	return fmt.Sprintf("near %.5f", c.Lat)
}

func labelFor(c models.Coordinate) string {
	return fmt.Sprintf("near %.5f", c.Lat)
}

// stubResolver returns a canned result.
type stubResolver struct {
	result routing.RouteResult
}

func (s *stubResolver) Resolve(ctx context.Context, waypoints []models.Coordinate) routing.RouteResult {
	return s.result
}

// gatedResolver blocks requests ending at gateAt until released; all other
// requests return immediately.
type gatedResolver struct {
	gateAt  models.Coordinate
	release chan struct{}
	gated   routing.RouteResult
	rest    routing.RouteResult
}

func (g *gatedResolver) Resolve(ctx context.Context, waypoints []models.Coordinate) routing.RouteResult {
	if len(waypoints) > 0 && waypoints[len(waypoints)-1] == g.gateAt {
		<-g.release
		return g.gated
	}
	return g.rest
}

func foundResult(meters float64) routing.RouteResult {
	return routing.RouteResult{
		Status:         routing.StatusFound,
		DistanceMeters: meters,
		Geometry:       []models.Coordinate{pioneerAve, kccMall},
	}
}

func waitFor(t *testing.T, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

// ----------------------------------------------------------------------------
// Session
// ----------------------------------------------------------------------------

func TestSetStartResolvesLabelOnly(t *testing.T) {
	surface := newRecordingSurface()
	session := NewSession(&stubResolver{result: foundResult(6300)}, coordLabels{}, surface)

	session.SetStart(pioneerAve)

	if session.State() != StatePartialStart {
		t.Fatalf("expected partial_start, got %s", session.State())
	}

	ok := waitFor(t, func() bool {
		u, ok := surface.lastDisplay()
		return ok && u.StartLabel == labelFor(pioneerAve)
	})
	if !ok {
		t.Fatal("start label never resolved")
	}

	u, _ := surface.lastDisplay()
	if u.EndLabel != "Tap map or search" {
		t.Errorf("unexpected end placeholder %q", u.EndLabel)
	}
	if u.Distance != "—" || u.Fare != "₱—" {
		t.Errorf("partial trip must not show distance/fare, got %q %q", u.Distance, u.Fare)
	}
	if surface.hasLine(tripLineID) {
		t.Error("no route line for a single endpoint")
	}
}

func TestCompleteTripPublishesFare(t *testing.T) {
	surface := newRecordingSurface()
	session := NewSession(&stubResolver{result: foundResult(6300)}, coordLabels{}, surface)

	session.SetStart(pioneerAve)
	session.SetEnd(kccMall)

	if session.State() != StateComplete {
		t.Fatalf("expected complete, got %s", session.State())
	}

	// 6.3 km by trike: 15 base + 3 extra km = 18.
	ok := waitFor(t, func() bool {
		u, ok := surface.lastDisplay()
		return ok && u.Fare == "₱18"
	})
	if !ok {
		u, _ := surface.lastDisplay()
		t.Fatalf("fare never published, last display %+v", u)
	}

	u, _ := surface.lastDisplay()
	if u.Distance != "6.30 km" {
		t.Errorf("expected 6.30 km, got %q", u.Distance)
	}
	if u.StartLabel != labelFor(pioneerAve) || u.EndLabel != labelFor(kccMall) {
		t.Errorf("labels not resolved: %q / %q", u.StartLabel, u.EndLabel)
	}
	if !surface.hasLine(tripLineID) {
		t.Error("expected route line drawn")
	}
	if !surface.hasToast("💰 Estimated fare: ₱18") {
		t.Error("missing fare toast")
	}

	quote := session.Quote()
	if quote == nil || quote.Fare != 18 {
		t.Errorf("unexpected quote %+v", quote)
	}
}

func TestRouteFailureShowsPlaceholders(t *testing.T) {
	surface := newRecordingSurface()
	resolver := &stubResolver{result: routing.RouteResult{Status: routing.StatusNotFound}}
	session := NewSession(resolver, coordLabels{}, surface)

	session.SetStart(pioneerAve)
	session.SetEnd(kccMall)

	ok := waitFor(t, func() bool {
		return surface.hasToast("❌ Could not find route")
	})
	if !ok {
		t.Fatal("expected failure toast")
	}

	u, _ := surface.lastDisplay()
	if u.Distance != "—" || u.Fare != "₱—" {
		t.Errorf("expected placeholders on failure, got %q %q", u.Distance, u.Fare)
	}
	// Labels resolve independently of the route.
	if u.StartLabel != labelFor(pioneerAve) {
		t.Errorf("start label lost on failure: %q", u.StartLabel)
	}
	if surface.hasLine(tripLineID) {
		t.Error("no line on route failure")
	}
	if session.Quote() != nil {
		t.Error("no quote on route failure")
	}
}

func TestTapSemantics(t *testing.T) {
	surface := newRecordingSurface()
	session := NewSession(&stubResolver{result: foundResult(6300)}, coordLabels{}, surface)

	session.Tap(pioneerAve)
	if session.State() != StatePartialStart {
		t.Fatalf("first tap: expected partial_start, got %s", session.State())
	}

	session.Tap(kccMall)
	if session.State() != StateComplete {
		t.Fatalf("second tap: expected complete, got %s", session.State())
	}

	// Third tap shifts the end into the start.
	session.Tap(airport)
	start, ok := surface.marker(startMarkerID)
	if !ok || start.At != kccMall {
		t.Errorf("expected start shifted to previous end, got %+v", start)
	}
	end, ok := surface.marker(endMarkerID)
	if !ok || end.At != airport {
		t.Errorf("expected end at tapped point, got %+v", end)
	}
	if !surface.hasToast("🔄 Route updated") {
		t.Error("expected route-updated toast")
	}
}

func TestResetClearsSession(t *testing.T) {
	surface := newRecordingSurface()
	session := NewSession(&stubResolver{result: foundResult(6300)}, coordLabels{}, surface)

	session.SetStart(pioneerAve)
	session.SetEnd(kccMall)
	waitFor(t, func() bool {
		u, ok := surface.lastDisplay()
		return ok && u.Fare == "₱18"
	})

	session.Reset()

	if session.State() != StateEmpty {
		t.Errorf("expected empty after reset, got %s", session.State())
	}
	if session.Generation() != 0 {
		t.Errorf("expected generation 0 after reset, got %d", session.Generation())
	}
	if _, ok := surface.marker(startMarkerID); ok {
		t.Error("start marker survived reset")
	}
	if _, ok := surface.marker(endMarkerID); ok {
		t.Error("end marker survived reset")
	}
	if surface.hasLine(tripLineID) {
		t.Error("route line survived reset")
	}

	u, _ := surface.lastDisplay()
	if u.StartLabel != "Tap map or search" || u.Fare != "₱—" {
		t.Errorf("reset display not blank: %+v", u)
	}
}

func TestStaleReconciliationNeverPublishes(t *testing.T) {
	surface := newRecordingSurface()
	resolver := &gatedResolver{
		gateAt:  kccMall,
		release: make(chan struct{}),
		gated:   foundResult(5000), // would price at ₱16
		rest:    foundResult(6300), // prices at ₱18
	}
	session := NewSession(resolver, coordLabels{}, surface)

	session.SetStart(pioneerAve)
	session.SetEnd(kccMall) // reconciliation #1 blocks in the resolver
	session.Tap(airport)    // supersedes it; reconciliation #2 completes

	ok := waitFor(t, func() bool {
		u, ok := surface.lastDisplay()
		return ok && u.Fare == "₱18"
	})
	if !ok {
		t.Fatal("second reconciliation never published")
	}

	// Let the first reconciliation finish late; its result must vanish.
	close(resolver.release)
	time.Sleep(50 * time.Millisecond)

	if surface.anyDisplay(func(u overlay.DisplayUpdate) bool { return u.Fare == "₱16" }) {
		t.Error("stale reconciliation leaked a fare update")
	}
	u, _ := surface.lastDisplay()
	if u.Fare != "₱18" {
		t.Errorf("stale result overwrote the display: %+v", u)
	}
}

// gatedLabels blocks lookups for gateAt until released.
type gatedLabels struct {
	gateAt  models.Coordinate
	release chan struct{}
}

func (g *gatedLabels) ReverseLabel(ctx context.Context, c models.Coordinate) string {
	if c == g.gateAt {
		<-g.release
	}
	return labelFor(c)
}

func TestReconciliationAcrossResetIsDropped(t *testing.T) {
	surface := newRecordingSurface()
	labels := &gatedLabels{gateAt: pioneerAve, release: make(chan struct{})}
	session := NewSession(&stubResolver{result: foundResult(6300)}, labels, surface)

	// The first label lookup hangs; reset restarts the counter; a second
	// start lands on the same generation number.
	session.SetStart(pioneerAve)
	session.Reset()
	session.SetStart(kccMall)

	ok := waitFor(t, func() bool {
		u, ok := surface.lastDisplay()
		return ok && u.StartLabel == labelFor(kccMall)
	})
	if !ok {
		t.Fatal("second start label never resolved")
	}

	close(labels.release)
	time.Sleep(50 * time.Millisecond)

	u, _ := surface.lastDisplay()
	if u.StartLabel != labelFor(kccMall) {
		t.Errorf("pre-reset lookup overwrote the label: %q", u.StartLabel)
	}
}

// ----------------------------------------------------------------------------
// Controller
// ----------------------------------------------------------------------------

func newTestController(surface *recordingSurface) *Controller {
	resolver := &stubResolver{result: foundResult(6300)}
	session := NewSession(resolver, coordLabels{}, surface)
	selection := transit.NewSelection(transit.BuiltIn(), resolver, surface)
	return NewController(session, selection)
}

func TestSwitchModeTearsDownTrike(t *testing.T) {
	surface := newRecordingSurface()
	c := newTestController(surface)

	if err := c.SetStart(pioneerAve); err != nil {
		t.Fatal(err)
	}
	if err := c.SetEnd(kccMall); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool {
		u, ok := surface.lastDisplay()
		return ok && u.Fare == "₱18"
	})

	if err := c.SwitchMode(ModeBusJeep); err != nil {
		t.Fatal(err)
	}

	if c.Mode() != ModeBusJeep {
		t.Errorf("expected busjeep, got %s", c.Mode())
	}
	if _, ok := surface.marker(startMarkerID); ok {
		t.Error("trike start marker survived mode switch")
	}
	if surface.hasLine(tripLineID) {
		t.Error("trike route line survived mode switch")
	}
	if c.Session().State() != StateEmpty {
		t.Error("trike session not reset on mode switch")
	}
}

func TestSwitchModeTearsDownSelection(t *testing.T) {
	surface := newRecordingSurface()
	c := newTestController(surface)

	if err := c.SwitchMode(ModeBusJeep); err != nil {
		t.Fatal(err)
	}
	if err := c.SelectRoute(context.Background(), "uhaw"); err != nil {
		t.Fatal(err)
	}

	if err := c.SwitchMode(ModeTrike); err != nil {
		t.Fatal(err)
	}

	if c.Selection().Active() != "" {
		t.Error("selection survived mode switch")
	}
	if _, ok := surface.marker("stop:uhaw:1"); ok {
		t.Error("stop marker survived mode switch")
	}
}

func TestSwitchModeSameModeIsNoOp(t *testing.T) {
	surface := newRecordingSurface()
	c := newTestController(surface)

	if err := c.SetStart(pioneerAve); err != nil {
		t.Fatal(err)
	}
	if err := c.SwitchMode(ModeTrike); err != nil {
		t.Fatal(err)
	}

	// The session survives a redundant switch.
	if c.Session().State() != StatePartialStart {
		t.Error("redundant mode switch reset the session")
	}
}

func TestWrongModeOperationsRejected(t *testing.T) {
	surface := newRecordingSurface()
	c := newTestController(surface)

	if err := c.SelectRoute(context.Background(), "uhaw"); !errors.Is(err, ErrWrongMode) {
		t.Errorf("expected ErrWrongMode in trike mode, got %v", err)
	}

	if err := c.SwitchMode(ModeBusJeep); err != nil {
		t.Fatal(err)
	}
	if err := c.Tap(pioneerAve); !errors.Is(err, ErrWrongMode) {
		t.Errorf("expected ErrWrongMode in busjeep mode, got %v", err)
	}

	if err := c.SwitchMode("boat"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

// ----------------------------------------------------------------------------
// Manager
// ----------------------------------------------------------------------------

func TestManagerLifecycle(t *testing.T) {
	m := NewManager(transit.BuiltIn(), &stubResolver{result: foundResult(6300)}, coordLabels{})
	defer m.Stop()

	id, controller, hub := m.Create()
	if id == "" || controller == nil || hub == nil {
		t.Fatal("incomplete session from Create")
	}
	if m.Count() != 1 {
		t.Errorf("expected 1 session, got %d", m.Count())
	}

	got, _, ok := m.Get(id)
	if !ok || got != controller {
		t.Error("Get did not return the created session")
	}
	if _, _, ok := m.Get("nope"); ok {
		t.Error("Get returned a session for an unknown id")
	}

	if !m.Remove(id) {
		t.Error("Remove failed for a live session")
	}
	if m.Remove(id) {
		t.Error("Remove succeeded twice")
	}
	if m.Count() != 0 {
		t.Errorf("expected 0 sessions, got %d", m.Count())
	}
}

func TestManagerIdleEviction(t *testing.T) {
	m := NewManager(transit.BuiltIn(), &stubResolver{result: foundResult(6300)}, coordLabels{})
	defer m.Stop()
	m.idleTTL = 10 * time.Millisecond

	id, _, _ := m.Create()
	time.Sleep(20 * time.Millisecond)
	m.evictIdle()

	if _, _, ok := m.Get(id); ok {
		t.Error("idle session not evicted")
	}
}
