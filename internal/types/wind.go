package types

import "time"

// SampleSource says where a wind reading came from relative to the
// configured provider order.
type SampleSource string

const (
	// SourcePrimary is a reading from the first provider in the list.
	SourcePrimary SampleSource = "primary"
	// SourceFallback is a reading from any later provider.
	SourceFallback SampleSource = "fallback"
	// SourceSynthetic is a reading supplied on the command line for testing.
	SourceSynthetic SampleSource = "synthetic"
)

// WindSample is a single wind reading. It is produced by the data source
// adapter once per run and is never persisted.
type WindSample struct {
	SpeedKmh     float64      `json:"speed_kmh"`
	DirectionDeg float64      `json:"direction_deg"`
	Source       SampleSource `json:"source"`
	// Provider is the concrete upstream (e.g. "open-meteo", "eccc", "test").
	Provider   string    `json:"provider"`
	ObservedAt time.Time `json:"observed_at,omitempty"`
}

// SyntheticSample builds the reading used by --test-wind-speed/--test-wind-direction.
func SyntheticSample(speedKmh, directionDeg float64, at time.Time) WindSample {
	return WindSample{
		SpeedKmh:     speedKmh,
		DirectionDeg: directionDeg,
		Source:       SourceSynthetic,
		Provider:     "test",
		ObservedAt:   at,
	}
}
