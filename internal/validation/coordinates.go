package validation

import (
	"fmt"
	"math"
)

// CoordinateError describes a coordinate validation failure.
type CoordinateError struct {
	Field   string
	Value   float64
	Message string
}

func (e *CoordinateError) Error() string {
	return fmt.Sprintf("%s: %s (value: %.6f)", e.Field, e.Message, e.Value)
}

// ValidateLatitude checks a latitude value.
func ValidateLatitude(lat float64, fieldName string) error {
	if math.IsNaN(lat) {
		return &CoordinateError{
			Field:   fieldName,
			Value:   lat,
			Message: "NaN not allowed",
		}
	}

	if math.IsInf(lat, 0) {
		return &CoordinateError{
			Field:   fieldName,
			Value:   lat,
			Message: "infinite value not allowed",
		}
	}

	if lat < -90 || lat > 90 {
		return &CoordinateError{
			Field:   fieldName,
			Value:   lat,
			Message: "must be between -90 and 90",
		}
	}

	return nil
}

// ValidateLongitude checks a longitude value.
func ValidateLongitude(lon float64, fieldName string) error {
	if math.IsNaN(lon) {
		return &CoordinateError{
			Field:   fieldName,
			Value:   lon,
			Message: "NaN not allowed",
		}
	}

	if math.IsInf(lon, 0) {
		return &CoordinateError{
			Field:   fieldName,
			Value:   lon,
			Message: "infinite value not allowed",
		}
	}

	if lon < -180 || lon > 180 {
		return &CoordinateError{
			Field:   fieldName,
			Value:   lon,
			Message: "must be between -180 and 180",
		}
	}

	return nil
}

// ValidateCoordinatePair checks a (lat, lon) pair. The prefix qualifies the
// field names in errors ("from" yields "from_lat"); empty means bare
// "lat"/"lon".
func ValidateCoordinatePair(lat, lon float64, prefix string) error {
	latField, lonField := "lat", "lon"
	if prefix != "" {
		latField, lonField = prefix+"_lat", prefix+"_lon"
	}

	if err := ValidateLatitude(lat, latField); err != nil {
		return err
	}

	if err := ValidateLongitude(lon, lonField); err != nil {
		return err
	}

	return nil
}

// ValidateGenSanRegion checks that the coordinates fall inside the General
// Santos City service area. Approximately: Lat 5.9 to 6.4, Lon 124.9 to 125.4.
func ValidateGenSanRegion(lat, lon float64) error {
	const (
		minLat = 5.9
		maxLat = 6.4
		minLon = 124.9
		maxLon = 125.4
	)

	if lat < minLat || lat > maxLat {
		return &CoordinateError{
			Field:   "latitude",
			Value:   lat,
			Message: fmt.Sprintf("outside the GenSan service area (%.1f to %.1f)", minLat, maxLat),
		}
	}

	if lon < minLon || lon > maxLon {
		return &CoordinateError{
			Field:   "longitude",
			Value:   lon,
			Message: fmt.Sprintf("outside the GenSan service area (%.1f to %.1f)", minLon, maxLon),
		}
	}

	return nil
}

// IsZeroCoordinate reports whether a coordinate is (0, 0).
func IsZeroCoordinate(lat, lon float64) bool {
	return lat == 0 && lon == 0
}
