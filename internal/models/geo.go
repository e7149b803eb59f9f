package models

import "fmt"

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// FallbackLabel renders the coordinate as a display label at 5 decimal places.
// Used whenever reverse geocoding cannot produce a street-level name.
func (c Coordinate) FallbackLabel() string {
	return fmt.Sprintf("%.5f, %.5f", c.Lat, c.Lon)
}
