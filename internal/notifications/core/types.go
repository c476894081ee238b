// Package core holds the notification pieces shared by the SMS dispatcher and
// the alert check runner: the run outcome vocabulary, the retry schedule and
// outcome metrics.
package core

import (
	"context"
	"time"
)

// Outcome is the terminal state of one alert check run.
type Outcome string

const (
	// OutcomeSent means an SMS was dispatched and the ledger committed.
	OutcomeSent Outcome = "sent"
	// OutcomeDryRun means an alert would have been sent but dry-run was on.
	OutcomeDryRun Outcome = "dry_run"
	// OutcomeBelowCriteria means speed or direction did not qualify.
	OutcomeBelowCriteria Outcome = "suppressed_criteria"
	// OutcomeCooldown means the ledger's cooldown suppressed the alert.
	OutcomeCooldown Outcome = "suppressed_cooldown"
	// OutcomeDailyCap means the ledger's daily cap suppressed the alert.
	OutcomeDailyCap Outcome = "suppressed_daily_cap"
	// OutcomeFetchFailed means no weather source produced a reading.
	OutcomeFetchFailed Outcome = "fetch_failed"
	// OutcomeDispatchFailed means the SMS could not be sent.
	OutcomeDispatchFailed Outcome = "dispatch_failed"
)

// Failed reports whether the outcome should end the process with exit code 1.
func (o Outcome) Failed() bool {
	return o == OutcomeFetchFailed || o == OutcomeDispatchFailed
}

// Metric names and dimensions.
const (
	MetricAlertCheck       = "AlertCheck"
	MetricDispatchLatency  = "SMSDispatchLatency"
	MetricDispatchAttempts = "SMSDispatchAttempts"
	MetricWindSpeed        = "ObservedWindSpeed"

	DimOutcome  = "Outcome"
	DimSource   = "Source"
	DimProvider = "Provider"
)

// AlertMetrics records run telemetry. Implementations must not fail the run:
// errors are logged and dropped.
type AlertMetrics interface {
	RecordOutcome(ctx context.Context, outcome Outcome)
	RecordWindSample(ctx context.Context, provider string, speedKmh float64)
	RecordDispatch(ctx context.Context, attempts int, latency time.Duration)
}

// RetryPolicy defines the exponential backoff parameters for delivery retries.
type RetryPolicy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// SMSRetryPolicy is the dispatch schedule: three attempts, waiting 4s then 8s.
var SMSRetryPolicy = RetryPolicy{
	MaxAttempts:   3,
	BaseDelay:     4 * time.Second,
	MaxDelay:      10 * time.Second,
	BackoffFactor: 2.0,
}

// CalculateNextRetry computes the delay before the next retry attempt using
// exponential backoff: delay = min(BaseDelay * BackoffFactor^attempt, MaxDelay).
func CalculateNextRetry(policy RetryPolicy, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(policy.BaseDelay)
	for i := 0; i < attempt; i++ {
		delay *= policy.BackoffFactor
	}

	d := time.Duration(delay)
	if d > policy.MaxDelay {
		d = policy.MaxDelay
	}
	if d < 0 {
		// Overflow.
		d = policy.MaxDelay
	}

	return d
}
