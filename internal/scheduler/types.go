// Package scheduler runs the alert check: the one-shot job an external
// scheduler (cron, EventBridge) triggers on an interval.
package scheduler

import (
	"fmt"
	"time"

	"windalert/internal/ledger"
	"windalert/internal/notifications/core"
	"windalert/internal/types"
	"windalert/internal/wind"
)

// RunInput is the per-invocation input. It doubles as the Lambda event
// payload:
//
//	{
//	  "force_alert": false,
//	  "dry_run": true,
//	  "test_wind_speed": 32,
//	  "test_wind_direction": 300
//	}
type RunInput struct {
	// ForceAlert bypasses the deduplication gate. Criteria still apply.
	ForceAlert bool `json:"force_alert"`
	// DryRun suppresses dispatch and commit. It is ORed with the configured value.
	DryRun bool `json:"dry_run"`
	// TestWindSpeed and TestWindDirection replace the fetched reading. Both or
	// neither must be set.
	TestWindSpeed     *float64 `json:"test_wind_speed,omitempty"`
	TestWindDirection *float64 `json:"test_wind_direction,omitempty"`
}

// Validate checks the synthetic reading pair.
func (in RunInput) Validate() error {
	if (in.TestWindSpeed == nil) != (in.TestWindDirection == nil) {
		return types.NewAppError(
			types.ErrCodeValidationSyntheticPair,
			"test wind speed and test wind direction must be provided together",
			nil,
		)
	}
	if in.TestWindSpeed != nil && *in.TestWindSpeed < 0 {
		return types.NewAppError(
			types.ErrCodeValidationNegativeSpeed,
			fmt.Sprintf("test wind speed %.1f is negative", *in.TestWindSpeed),
			nil,
		)
	}
	return nil
}

// Synthetic returns the reading supplied by the input, or nil.
func (in RunInput) Synthetic(now time.Time) *types.WindSample {
	if in.TestWindSpeed == nil || in.TestWindDirection == nil {
		return nil
	}
	s := types.SyntheticSample(*in.TestWindSpeed, *in.TestWindDirection, now)
	return &s
}

// RunResult describes one completed (or failed) alert check.
type RunResult struct {
	RunID   string
	Outcome core.Outcome
	Sample  types.WindSample
	// Classification is set once a reading was obtained.
	Classification wind.Classification
	// Gate is set when the deduplication gate was consulted.
	Gate *ledger.GateResult
	// Message and SID are set once an alert was dispatched.
	Message string
	SID     string
	// Ledger is the committed record after a live send; nil otherwise or when
	// the commit failed.
	Ledger *ledger.Ledger
}

// Summary is a one-line description of the run.
func (r RunResult) Summary() string {
	switch r.Outcome {
	case core.OutcomeSent, core.OutcomeDryRun:
		return fmt.Sprintf("%s: %s %.1f km/h, sid=%s", r.Outcome, r.Classification.Abbrev, r.Sample.SpeedKmh, r.SID)
	case core.OutcomeFetchFailed:
		return string(r.Outcome)
	default:
		return fmt.Sprintf("%s: %s %.1f km/h", r.Outcome, r.Classification.Abbrev, r.Sample.SpeedKmh)
	}
}
