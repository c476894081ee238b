// Package wind holds the pure decision core of the alert: compass
// classification of a bearing, the speed/direction threshold rule and unit
// conversions. Nothing in this package performs I/O or logs.
package wind

import "math"

// Qualifying arc bounds in degrees. The arc runs clockwise from WSW through
// W, NW and N to NNE and is inclusive at both ends.
const (
	QualifyingArcStart = 247.5
	QualifyingArcEnd   = 22.5
)

// Legacy NW-only sector bounds.
const (
	legacyNorthwestStart = 292.5
	legacyNorthwestEnd   = 337.5
)

// compassPoints lists the 16-point abbreviations clockwise from north.
var compassPoints = [16]string{
	"N", "NNE", "NE", "ENE",
	"E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW",
	"W", "WNW", "NW", "NNW",
}

// Classification is the derived alert decision for a bearing.
type Classification struct {
	Qualifies bool
	Abbrev    string
}

// Normalize maps any bearing into [0, 360). Negative bearings wrap.
func Normalize(deg float64) float64 {
	n := math.Mod(deg, 360)
	if n < 0 {
		n += 360
	}
	// Tiny negative remainders round up to exactly 360 after the shift.
	if n >= 360 {
		n = 0
	}
	return n
}

// Classify returns whether the bearing lies in the qualifying arc together
// with its 16-point compass abbreviation.
func Classify(deg float64) Classification {
	n := Normalize(deg)
	return Classification{
		Qualifies: inQualifyingArc(n),
		Abbrev:    abbrevNormalized(n),
	}
}

// Abbrev returns the 16-point compass abbreviation for a bearing.
//
// North covers [348.75, 360) and [0, 11.25]; every other point covers the
// half-open interval (center-11.25, center+11.25].
func Abbrev(deg float64) string {
	return abbrevNormalized(Normalize(deg))
}

func abbrevNormalized(n float64) string {
	if n <= 11.25 || n >= 348.75 {
		return compassPoints[0]
	}
	idx := int(math.Ceil((n - 11.25) / 22.5))
	if idx < 1 || idx > 15 {
		return compassPoints[0]
	}
	return compassPoints[idx]
}

func inQualifyingArc(n float64) bool {
	return n >= QualifyingArcStart || n <= QualifyingArcEnd
}

// InLegacyNorthwestSector reports whether the bearing lies in the 45° NW-only
// sector [292.5, 337.5].
//
// Deprecated: the alert rule uses the wider arc checked by Classify. This
// remains for comparing historical alert decisions only.
func InLegacyNorthwestSector(deg float64) bool {
	n := Normalize(deg)
	return n >= legacyNorthwestStart && n <= legacyNorthwestEnd
}

// compassDegrees maps a 16-point abbreviation to its center bearing.
var compassDegrees = map[string]float64{
	"N": 0, "NNE": 22.5, "NE": 45, "ENE": 67.5,
	"E": 90, "ESE": 112.5, "SE": 135, "SSE": 157.5,
	"S": 180, "SSW": 202.5, "SW": 225, "WSW": 247.5,
	"W": 270, "WNW": 292.5, "NW": 315, "NNW": 337.5,
}

// DegreesFromAbbrev converts a 16-point abbreviation to its center bearing.
// The second return value is false for unknown codes.
func DegreesFromAbbrev(abbrev string) (float64, bool) {
	d, ok := compassDegrees[abbrev]
	return d, ok
}
