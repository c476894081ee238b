package ledger

import (
	"fmt"
	"log/slog"
	"time"

	"windalert/internal/wind"
)

// Policy holds the deduplication limits.
type Policy struct {
	// Cooldown is the minimum time between two alerts. Elapsed == Cooldown passes.
	Cooldown time.Duration
	// DailyCap is the maximum number of alerts per calendar date.
	DailyCap int
	// Location is the zone whose calendar date drives the daily reset.
	Location *time.Location
}

// GateReason names the outcome of a gate check.
type GateReason string

const (
	GateAllowed         GateReason = "allowed"
	GateDailyCapReached GateReason = "daily_cap_reached"
	GateCooldownActive  GateReason = "cooldown_active"
)

// GateResult is the detailed outcome of Check.
type GateResult struct {
	Allowed bool
	Reason  GateReason
	// CooldownRemaining is set when Reason is GateCooldownActive.
	CooldownRemaining time.Duration
	// Ledger is the record the decision was made against (after any rollover).
	Ledger Ledger
}

// Gate applies Policy to the ledger held in Store.
type Gate struct {
	store  Store
	policy Policy
	logger *slog.Logger
}

// NewGate creates a Gate. A nil Location means UTC.
func NewGate(store Store, policy Policy, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	return &Gate{store: store, policy: policy, logger: logger}
}

// Key returns the storage key of the underlying store, for use with Lock.
func (g *Gate) Key() string {
	return g.store.Key()
}

// ShouldSend reports whether an alert may be sent at now.
func (g *Gate) ShouldSend(now time.Time) bool {
	return g.Check(now).Allowed
}

// Check evaluates the gate at now:
//  1. On a new calendar date the daily count is reset and persisted
//     immediately, regardless of the outcome.
//  2. count >= DailyCap suppresses.
//  3. Less than Cooldown since the last alert suppresses.
//
// An unparsable last alert time counts as cooldown satisfied.
func (g *Gate) Check(now time.Time) GateResult {
	l := g.store.Load(now, g.policy.Location)

	today := CalendarDate(now, g.policy.Location)
	if l.rollover(today) {
		g.logger.Info("new day detected, resetting daily alert count", "date", today)
		if err := g.store.Save(l); err != nil {
			g.logger.Error("failed to persist daily reset", "error", err, "date", today)
		}
	}

	if l.AlertCountToday >= g.policy.DailyCap {
		g.logger.Info("daily alert limit reached",
			"daily_cap", g.policy.DailyCap,
			"alert_count_today", l.AlertCountToday,
		)
		return GateResult{Allowed: false, Reason: GateDailyCapReached, Ledger: l}
	}

	last, err := l.ParseLastAlertTime(g.policy.Location)
	if err != nil {
		g.logger.Warn("error parsing last alert time, treating cooldown as elapsed",
			"error", err,
			"last_alert_time", l.LastAlertTime,
		)
		return GateResult{Allowed: true, Reason: GateAllowed, Ledger: l}
	}

	since := now.Sub(last)
	if since < g.policy.Cooldown {
		remaining := g.policy.Cooldown - since
		g.logger.Info("in cooldown period",
			"hours_remaining", fmt.Sprintf("%.1f", remaining.Hours()),
			"last_alert_time", l.LastAlertTime,
		)
		return GateResult{
			Allowed:           false,
			Reason:            GateCooldownActive,
			CooldownRemaining: remaining,
			Ledger:            l,
		}
	}

	return GateResult{Allowed: true, Reason: GateAllowed, Ledger: l}
}

// Commit records a successfully dispatched alert. It reloads the ledger rather
// than trusting the copy used for gating, re-applies the date rollover, then
// stamps the alert and increments the daily count.
//
// LastAlertTime never moves backwards: if the stored time is later than now
// (clock skew between runs), the stored time is kept.
func (g *Gate) Commit(now time.Time, speedKmh, directionDeg float64, message string) (Ledger, error) {
	l := g.store.Load(now, g.policy.Location)
	l.rollover(CalendarDate(now, g.policy.Location))

	stamp := now
	if prev, err := l.ParseLastAlertTime(g.policy.Location); err == nil && prev.After(now) {
		g.logger.Warn("stored last alert time is in the future, keeping it",
			"last_alert_time", l.LastAlertTime,
			"now", now.Format(TimeLayout),
		)
		stamp = prev
	}

	l.LastAlertTime = stamp.Format(TimeLayout)
	l.LastAlertCondition = FormatCondition(wind.Abbrev(directionDeg), speedKmh)
	l.AlertCountToday++
	if message != "" {
		l.LastMessage = message
	}

	if err := g.store.Save(l); err != nil {
		return l, err
	}

	g.logger.Info("ledger updated",
		"alert_number_today", l.AlertCountToday,
		"condition", l.LastAlertCondition,
	)
	return l, nil
}
