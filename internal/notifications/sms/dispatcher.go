// Package sms delivers alert text to the configured phone, retrying transient
// provider failures on the core.SMSRetryPolicy schedule.
package sms

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"windalert/internal/external"
	"windalert/internal/notifications/core"
	"windalert/internal/types"
)

// DryRunSID is returned instead of a provider message ID when dry-run is on.
const DryRunSID = "DRY_RUN_SID"

// Config configures a Dispatcher.
type Config struct {
	From string
	To   string
	// Missing names the SMS settings that are unset. Non-empty blocks live sends.
	Missing []string
	// Policy defaults to core.SMSRetryPolicy when MaxAttempts is zero.
	Policy core.RetryPolicy
	Logger *slog.Logger
}

// Result describes a completed dispatch.
type Result struct {
	SID      string
	Attempts int
	Latency  time.Duration
	DryRun   bool
}

// Dispatcher sends one SMS per call.
type Dispatcher struct {
	sender external.SMSSender
	cfg    Config
	logger *slog.Logger
	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time
}

// NewDispatcher creates a Dispatcher. sender may be nil; live sends then fail.
func NewDispatcher(sender external.SMSSender, cfg Config) *Dispatcher {
	if cfg.Policy.MaxAttempts == 0 {
		cfg.Policy = core.SMSRetryPolicy
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		sender: sender,
		cfg:    cfg,
		logger: logger,
		sleep:  sleepCtx,
		now:    time.Now,
	}
}

// Dispatch sends body. With dryRun set it logs the message and returns
// DryRunSID without contacting the provider, and missing Twilio settings in
// Config.Missing are not checked. Only transient errors are retried; the last
// error is returned once the attempts are exhausted.
func (d *Dispatcher) Dispatch(ctx context.Context, body string, dryRun bool) (Result, error) {
	logger := types.LoggerFromContext(ctx, d.logger)

	if dryRun {
		logger.InfoContext(ctx, "[DRY RUN] would send SMS", "to", maskPhone(d.cfg.To), "body", body)
		return Result{SID: DryRunSID, DryRun: true}, nil
	}

	if len(d.cfg.Missing) > 0 || d.sender == nil {
		return Result{}, types.NewAppErrorWithDetails(
			types.ErrCodeConfigSMSIncomplete,
			"missing required Twilio configuration",
			nil,
			map[string]any{"missing": strings.Join(d.cfg.Missing, ",")},
		)
	}

	start := d.now()
	var lastErr error
	for attempt := 1; attempt <= d.cfg.Policy.MaxAttempts; attempt++ {
		sid, err := d.sender.SendSMS(ctx, d.cfg.From, d.cfg.To, body)
		if err == nil {
			res := Result{SID: sid, Attempts: attempt, Latency: d.now().Sub(start)}
			logger.InfoContext(ctx, "SMS sent", "sid", sid, "attempts", attempt)
			return res, nil
		}
		lastErr = err

		code := types.CodeOf(err)
		if !code.IsTransient() || attempt == d.cfg.Policy.MaxAttempts {
			break
		}

		wait := core.CalculateNextRetry(d.cfg.Policy, attempt-1)
		logger.WarnContext(ctx, "SMS send failed, retrying",
			"attempt", attempt,
			"code", string(code),
			"retry_in", wait.String(),
			"error", err,
		)
		if err := d.sleep(ctx, wait); err != nil {
			lastErr = types.NewAppError(types.ErrCodeUpstreamUnavailable, "SMS retry interrupted", err)
			break
		}
	}

	return Result{}, fmt.Errorf("sms dispatch: %w", lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// maskPhone keeps the last four digits of a phone number for logging.
func maskPhone(p string) string {
	if len(p) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(p)-4) + p[len(p)-4:]
}
