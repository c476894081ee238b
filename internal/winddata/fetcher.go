// Package winddata turns an ordered list of weather providers into a single
// wind reading. Providers are tried strictly in order and the first success
// wins; a reading from the first provider is tagged primary, any other one
// fallback.
package winddata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"windalert/internal/types"
)

// Provider is a single weather source.
type Provider interface {
	Name() string
	Fetch(ctx context.Context) (types.WindSample, error)
}

// Attempt records the outcome of one provider call.
type Attempt struct {
	Provider string
	Err      error
	Duration time.Duration
}

// AllSourcesFailedError is returned when no provider produced a reading. It
// carries every attempt in order.
type AllSourcesFailedError struct {
	Attempts []Attempt
}

func (e *AllSourcesFailedError) Error() string {
	if len(e.Attempts) == 0 {
		return "no wind data providers configured"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Provider, a.Err))
	}
	return "all wind data sources failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the per-attempt errors to errors.Is and errors.As.
func (e *AllSourcesFailedError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// Fetcher walks the provider list.
type Fetcher struct {
	providers []Provider
	logger    *slog.Logger
}

// NewFetcher creates a Fetcher over providers, in fallback order.
func NewFetcher(providers []Provider, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{providers: providers, logger: logger}
}

// Fetch returns the first reading any provider produces, with Source set from
// the provider's position. When every provider fails the error is an
// *AllSourcesFailedError wrapped in an AppError with
// ErrCodeUpstreamWindDataUnavailable.
func (f *Fetcher) Fetch(ctx context.Context) (types.WindSample, []Attempt, error) {
	logger := types.LoggerFromContext(ctx, f.logger)
	attempts := make([]Attempt, 0, len(f.providers))

	for i, p := range f.providers {
		if err := ctx.Err(); err != nil {
			attempts = append(attempts, Attempt{Provider: p.Name(), Err: err})
			break
		}
		if i > 0 {
			logger.Info("attempting fallback wind source", "provider", p.Name())
		}

		start := time.Now()
		sample, err := p.Fetch(ctx)
		elapsed := time.Since(start)
		if err == nil {
			err = validate(sample)
		}
		if err != nil {
			logger.Warn("wind source failed",
				"provider", p.Name(),
				"error", err,
				"duration_ms", elapsed.Milliseconds(),
			)
			attempts = append(attempts, Attempt{Provider: p.Name(), Err: err, Duration: elapsed})
			continue
		}

		attempts = append(attempts, Attempt{Provider: p.Name(), Duration: elapsed})
		sample.Source = types.SourceFallback
		if i == 0 {
			sample.Source = types.SourcePrimary
		}
		if sample.Provider == "" {
			sample.Provider = p.Name()
		}
		logger.Info("wind data fetched",
			"provider", sample.Provider,
			"source", sample.Source,
			"speed_kmh", sample.SpeedKmh,
			"direction_deg", sample.DirectionDeg,
		)
		return sample, attempts, nil
	}

	failed := &AllSourcesFailedError{Attempts: attempts}
	logger.Error("all wind data sources failed", "attempts", len(attempts))
	return types.WindSample{}, attempts, types.NewAppError(
		types.ErrCodeUpstreamWindDataUnavailable,
		"no wind data available",
		failed,
	)
}

// validate rejects readings no provider should return.
func validate(s types.WindSample) error {
	if s.SpeedKmh < 0 {
		return types.NewAppError(
			types.ErrCodeValidationNegativeSpeed,
			fmt.Sprintf("negative wind speed %.1f", s.SpeedKmh),
			nil,
		)
	}
	return nil
}

// IsAllSourcesFailed reports whether err came from a Fetch where every
// provider failed.
func IsAllSourcesFailed(err error) bool {
	var target *AllSourcesFailedError
	return errors.As(err, &target)
}
