package models

// Stop is one ordered stop of a fixed bus/jeep route.
type Stop struct {
	Seq   int        `json:"seq"`
	Label string     `json:"label"`
	Coord Coordinate `json:"coord"`
}

// FixedRoute is a predefined bus/jeep line: an immutable, ordered list of
// stops loaded once at startup and never mutated.
type FixedRoute struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Stops []Stop `json:"stops"`
}

// Waypoints returns the stop coordinates in route order, for the reference
// polyline request.
func (r FixedRoute) Waypoints() []Coordinate {
	pts := make([]Coordinate, len(r.Stops))
	for i, s := range r.Stops {
		pts[i] = s.Coord
	}
	return pts
}

// StopLabels returns the ordered stop names for the route detail panel.
func (r FixedRoute) StopLabels() []string {
	labels := make([]string, len(r.Stops))
	for i, s := range r.Stops {
		labels[i] = s.Label
	}
	return labels
}
