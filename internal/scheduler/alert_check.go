package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"windalert/internal/ledger"
	"windalert/internal/notifications/core"
	"windalert/internal/notifications/message"
	"windalert/internal/notifications/sms"
	"windalert/internal/queue"
	"windalert/internal/types"
	"windalert/internal/wind"
	"windalert/internal/winddata"
)

// WindFetcher produces the run's reading. Implemented by *winddata.Fetcher.
type WindFetcher interface {
	Fetch(ctx context.Context) (types.WindSample, []winddata.Attempt, error)
}

// MessageGenerator writes the alert text. Implemented by *message.Generator.
type MessageGenerator interface {
	Generate(ctx context.Context, speedKmh, directionDeg float64) (string, message.Source)
}

// SMSDispatcher sends the alert. Implemented by *sms.Dispatcher.
type SMSDispatcher interface {
	Dispatch(ctx context.Context, body string, dryRun bool) (sms.Result, error)
}

// EventPublisher announces sent alerts. Implemented by *queue.AlertEventPublisher.
type EventPublisher interface {
	PublishAlertSent(ctx context.Context, evt queue.AlertEvent) error
}

// AlertCheckConfig holds the collaborators of an AlertChecker. Events and
// Metrics are optional.
type AlertCheckConfig struct {
	Fetcher    WindFetcher
	Gate       *ledger.Gate
	Messages   MessageGenerator
	Dispatcher SMSDispatcher
	Events     EventPublisher
	Metrics    core.AlertMetrics

	SpotName     string
	ThresholdKmh float64
	DryRun       bool

	Clock  types.Clock
	Logger *slog.Logger
}

// AlertChecker runs FETCH -> EVALUATE -> GATE -> DISPATCH -> COMMIT once per
// call to Run.
type AlertChecker struct {
	cfg      AlertCheckConfig
	logger   *slog.Logger
	newRunID func() string
}

// NewAlertChecker creates an AlertChecker.
func NewAlertChecker(cfg AlertCheckConfig) *AlertChecker {
	if cfg.Clock == nil {
		cfg.Clock = types.RealClock{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = core.NoopAlertMetrics{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AlertChecker{
		cfg:      cfg,
		logger:   logger,
		newRunID: func() string { return uuid.New().String() },
	}
}

// Run executes one alert check. A non-nil error accompanies the
// fetch_failed and dispatch_failed outcomes and invalid input; suppressed
// runs and ledger commit failures after a send return nil.
func (c *AlertChecker) Run(ctx context.Context, in RunInput) (RunResult, error) {
	runID := types.GetRunID(ctx)
	if runID == "" {
		runID = c.newRunID()
		ctx = types.WithRunID(ctx, runID)
	}
	logger := c.logger.With("run_id", runID)
	ctx = types.WithLogger(ctx, logger)

	res := RunResult{RunID: runID}
	if err := in.Validate(); err != nil {
		return res, err
	}

	dryRun := c.cfg.DryRun || in.DryRun
	now := c.cfg.Clock.Now()
	logger.InfoContext(ctx, "starting wind alert check",
		"spot", c.cfg.SpotName,
		"dry_run", dryRun,
		"force_alert", in.ForceAlert,
	)

	// FETCH
	if s := in.Synthetic(now); s != nil {
		logger.InfoContext(ctx, "using test wind data", "speed_kmh", s.SpeedKmh, "direction_deg", s.DirectionDeg)
		res.Sample = *s
	} else {
		sample, _, err := c.cfg.Fetcher.Fetch(ctx)
		if err != nil {
			res.Outcome = core.OutcomeFetchFailed
			c.finish(ctx, logger, res)
			return res, err
		}
		res.Sample = sample
	}
	c.cfg.Metrics.RecordWindSample(ctx, res.Sample.Provider, res.Sample.SpeedKmh)

	// EVALUATE
	res.Classification = wind.Classify(res.Sample.DirectionDeg)
	if !wind.Evaluate(res.Sample.SpeedKmh, res.Sample.DirectionDeg, c.cfg.ThresholdKmh) {
		logger.InfoContext(ctx, "wind conditions do not meet alert criteria",
			"speed_kmh", res.Sample.SpeedKmh,
			"direction", res.Classification.Abbrev,
			"threshold_kmh", c.cfg.ThresholdKmh,
		)
		res.Outcome = core.OutcomeBelowCriteria
		c.finish(ctx, logger, res)
		return res, nil
	}
	logger.InfoContext(ctx, "wind conditions meet alert criteria",
		"speed_kmh", res.Sample.SpeedKmh,
		"direction", res.Classification.Abbrev,
	)

	unlock := ledger.Lock(c.cfg.Gate.Key())
	defer unlock()

	// GATE
	if in.ForceAlert {
		logger.InfoContext(ctx, "force alert set, bypassing deduplication")
	} else {
		gate := c.cfg.Gate.Check(now)
		res.Gate = &gate
		if !gate.Allowed {
			res.Outcome = core.OutcomeCooldown
			if gate.Reason == ledger.GateDailyCapReached {
				res.Outcome = core.OutcomeDailyCap
			}
			logger.InfoContext(ctx, "alert suppressed by deduplication",
				"reason", string(gate.Reason),
				"alerts_today", gate.Ledger.AlertCountToday,
				"cooldown_remaining", gate.CooldownRemaining.Round(time.Minute).String(),
			)
			c.finish(ctx, logger, res)
			return res, nil
		}
	}

	// DISPATCH
	body, src := c.cfg.Messages.Generate(ctx, res.Sample.SpeedKmh, res.Sample.DirectionDeg)
	res.Message = body
	logger.InfoContext(ctx, "sending alert", "message_source", string(src))

	sent, err := c.cfg.Dispatcher.Dispatch(ctx, body, dryRun)
	if err != nil {
		logger.ErrorContext(ctx, "failed to send SMS", "code", string(types.CodeOf(err)), "error", err)
		res.Outcome = core.OutcomeDispatchFailed
		c.finish(ctx, logger, res)
		return res, err
	}
	res.SID = sent.SID

	if dryRun {
		res.Outcome = core.OutcomeDryRun
		c.finish(ctx, logger, res)
		return res, nil
	}
	res.Outcome = core.OutcomeSent
	c.cfg.Metrics.RecordDispatch(ctx, sent.Attempts, sent.Latency)

	// COMMIT
	committed, err := c.cfg.Gate.Commit(c.cfg.Clock.Now(), res.Sample.SpeedKmh, res.Sample.DirectionDeg, body)
	if err != nil {
		logger.ErrorContext(ctx, "alert sent but ledger commit failed", "sid", sent.SID, "error", err)
	} else {
		res.Ledger = &committed
	}

	c.publish(ctx, logger, res)
	c.finish(ctx, logger, res)
	return res, nil
}

func (c *AlertChecker) publish(ctx context.Context, logger *slog.Logger, res RunResult) {
	if c.cfg.Events == nil {
		return
	}
	err := c.cfg.Events.PublishAlertSent(ctx, queue.AlertEvent{
		RunID:        res.RunID,
		Spot:         c.cfg.SpotName,
		SpeedKmh:     res.Sample.SpeedKmh,
		DirectionDeg: res.Sample.DirectionDeg,
		Abbrev:       res.Classification.Abbrev,
		Provider:     res.Sample.Provider,
		Source:       string(res.Sample.Source),
		MessageSID:   res.SID,
		Message:      res.Message,
		SentAt:       c.cfg.Clock.Now(),
	})
	if err != nil {
		logger.WarnContext(ctx, "failed to publish alert event", "error", err)
	}
}

func (c *AlertChecker) finish(ctx context.Context, logger *slog.Logger, res RunResult) {
	c.cfg.Metrics.RecordOutcome(ctx, res.Outcome)
	logger.InfoContext(ctx, "wind alert check complete", "outcome", string(res.Outcome))
}
