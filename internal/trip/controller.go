package trip

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yourorg/gensanfare/internal/models"
	"github.com/yourorg/gensanfare/internal/transit"
)

// Mode is the active estimation mode of a session.
type Mode string

const (
	ModeTrike   Mode = "trike"
	ModeBusJeep Mode = "busjeep"
)

// ErrWrongMode is returned when an operation belongs to the inactive mode.
var ErrWrongMode = errors.New("operation not available in current mode")

// Controller owns one session's mode and routes operations to the state that
// mode owns: the point-to-point session in trike mode, the fixed-route
// selection in bus/jeep mode. Switching modes tears down the outgoing mode's
// overlay and never auto-populates the incoming one.
type Controller struct {
	mu        sync.Mutex
	mode      Mode
	session   *Session
	selection *transit.Selection
}

// NewController creates a controller starting in trike mode.
func NewController(session *Session, selection *transit.Selection) *Controller {
	return &Controller{
		mode:      ModeTrike,
		session:   session,
		selection: selection,
	}
}

// Mode returns the active mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SwitchMode changes the active mode. Switching to the mode already active is
// a no-op; the outgoing mode's state is fully cleared either way the switch
// actually happens.
func (c *Controller) SwitchMode(m Mode) error {
	if m != ModeTrike && m != ModeBusJeep {
		return fmt.Errorf("unknown mode %q", m)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if m == c.mode {
		return nil
	}

	switch c.mode {
	case ModeTrike:
		c.session.Reset()
	case ModeBusJeep:
		c.selection.Clear()
	}
	c.mode = m
	return nil
}

// Session exposes the trike session for read-only snapshots.
func (c *Controller) Session() *Session {
	return c.session
}

// Selection exposes the fixed-route selection for read-only queries.
func (c *Controller) Selection() *transit.Selection {
	return c.selection
}

// ----------------------------------------------------------------------------
// Trike-mode operations
// ----------------------------------------------------------------------------

func (c *Controller) trike() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeTrike {
		return fmt.Errorf("%w: mode is %s", ErrWrongMode, c.mode)
	}
	return nil
}

// Tap applies map-click semantics to the trike session.
func (c *Controller) Tap(coord models.Coordinate) error {
	if err := c.trike(); err != nil {
		return err
	}
	c.session.Tap(coord)
	return nil
}

// SetStart places or moves the trike start point.
func (c *Controller) SetStart(coord models.Coordinate) error {
	if err := c.trike(); err != nil {
		return err
	}
	c.session.SetStart(coord)
	return nil
}

// SetEnd places or moves the trike end point.
func (c *Controller) SetEnd(coord models.Coordinate) error {
	if err := c.trike(); err != nil {
		return err
	}
	c.session.SetEnd(coord)
	return nil
}

// Locate places the trike start point from a geolocation fix.
func (c *Controller) Locate(coord models.Coordinate) error {
	if err := c.trike(); err != nil {
		return err
	}
	c.session.Locate(coord)
	return nil
}

// Reset clears the trike session.
func (c *Controller) Reset() error {
	if err := c.trike(); err != nil {
		return err
	}
	c.session.Reset()
	return nil
}

// ----------------------------------------------------------------------------
// Bus/jeep-mode operations
// ----------------------------------------------------------------------------

func (c *Controller) busjeep() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeBusJeep {
		return fmt.Errorf("%w: mode is %s", ErrWrongMode, c.mode)
	}
	return nil
}

// SelectRoute activates a fixed route by key.
func (c *Controller) SelectRoute(ctx context.Context, key string) error {
	if err := c.busjeep(); err != nil {
		return err
	}
	return c.selection.Select(ctx, key)
}

// ClearRoute deselects the active fixed route.
func (c *Controller) ClearRoute() error {
	if err := c.busjeep(); err != nil {
		return err
	}
	c.selection.Clear()
	return nil
}
