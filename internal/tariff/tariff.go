package tariff

import (
	"errors"
	"math"
)

// ============================================================================
// TARIFF ENGINE
// ============================================================================
// Pure fare rules for General Santos City transport modes. Distances are
// rounded to 3 decimals (half away from zero) before the rule applies, so
// floating-point jitter from the routing engine never flips a fare step.

// Mode identifies a transport mode the tariff knows how to price.
type Mode string

const (
	ModeTrike Mode = "trike"
	ModeBus   Mode = "bus"
	ModeJeep  Mode = "jeep"
)

// ErrUnsupportedMode is returned when ComputeFare receives a mode outside
// {trike, bus, jeep}. With a fixed UI this indicates a programming error.
var ErrUnsupportedMode = errors.New("unsupported mode")

const (
	// Ordinance-based trike fare: ₱15 covers the first 4 km, then ₱1 per
	// started kilometer beyond that.
	trikeBaseFare   = 15
	trikeBaseKm     = 4.0
	trikePerExtraKm = 1

	// Flat fare for all bus/jeep rides inside the city.
	busJeepFlatFare = 20
)

// FareQuote is the result of a fare computation. Derived, never persisted.
type FareQuote struct {
	Mode       Mode    `json:"mode"`
	DistanceKm float64 `json:"distance_km"`
	Fare       int     `json:"fare"`
}

// ComputeFare converts a trip distance into a fare quote for the given mode.
func ComputeFare(mode Mode, distanceKm float64) (FareQuote, error) {
	rounded := roundTo(distanceKm, 3)

	var fare int
	switch mode {
	case ModeTrike:
		fare = trikeBaseFare
		if rounded > trikeBaseKm {
			// Partial kilometers beyond the base are billed as full ones:
			// 4.01 km → 16, 5.00 km → 16, 5.01 km → 17.
			fare += int(math.Ceil(rounded-trikeBaseKm)) * trikePerExtraKm
		}
	case ModeBus, ModeJeep:
		fare = busJeepFlatFare
	default:
		return FareQuote{}, ErrUnsupportedMode
	}

	return FareQuote{Mode: mode, DistanceKm: rounded, Fare: fare}, nil
}

// roundTo rounds half away from zero at the given number of decimals.
func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
