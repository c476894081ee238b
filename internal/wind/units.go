package wind

import (
	"fmt"

	"windalert/internal/types"
)

// Unit is a wind speed unit.
type Unit string

const (
	UnitKmh   Unit = "kmh"
	UnitMs    Unit = "ms"
	UnitKnots Unit = "knots"
)

// Conversion factors: 1 m/s = 3.6 km/h, 1 knot = 1.852 km/h, 1 m/s = 1.944 knots.
const (
	kmhPerMs   = 3.6
	kmhPerKnot = 1.852
	knotsPerMs = 1.944
)

func KmhToMs(v float64) float64    { return v / kmhPerMs }
func MsToKmh(v float64) float64    { return v * kmhPerMs }
func KnotsToKmh(v float64) float64 { return v * kmhPerKnot }
func KmhToKnots(v float64) float64 { return v / kmhPerKnot }
func MsToKnots(v float64) float64  { return v * knotsPerMs }
func KnotsToMs(v float64) float64  { return v / knotsPerMs }

// Convert converts a speed between units by normalizing through km/h.
func Convert(value float64, from, to Unit) (float64, error) {
	if from == to {
		if !from.valid() {
			return 0, unknownUnit(from)
		}
		return value, nil
	}

	var kmh float64
	switch from {
	case UnitKmh:
		kmh = value
	case UnitMs:
		kmh = MsToKmh(value)
	case UnitKnots:
		kmh = KnotsToKmh(value)
	default:
		return 0, unknownUnit(from)
	}

	switch to {
	case UnitKmh:
		return kmh, nil
	case UnitMs:
		return KmhToMs(kmh), nil
	case UnitKnots:
		return KmhToKnots(kmh), nil
	default:
		return 0, unknownUnit(to)
	}
}

func (u Unit) valid() bool {
	return u == UnitKmh || u == UnitMs || u == UnitKnots
}

func unknownUnit(u Unit) error {
	return types.NewAppError(types.ErrCodeValidationUnknownUnit, fmt.Sprintf("unknown wind speed unit %q", u), nil)
}
