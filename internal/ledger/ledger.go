// Package ledger implements the persisted deduplication record that governs
// whether a qualifying wind reading may actually produce an SMS. It enforces a
// cooldown between alerts and a per-calendar-day cap.
//
// The record is a single JSON document. Reads are lazy about day rollover: the
// daily counter is reset the first time the ledger is read on a new date, and
// that reset is persisted immediately whether or not an alert follows.
package ledger

import (
	"fmt"
	"time"
)

// Timestamp and date layouts used on disk. NaiveTimeLayout is accepted on
// read for ledgers written without a zone offset.
const (
	TimeLayout      = time.RFC3339
	NaiveTimeLayout = "2006-01-02T15:04:05.999999"
	DateLayout      = "2006-01-02"
)

// SentinelLastAlert is the far-past LastAlertTime of a fresh ledger.
const SentinelLastAlert = "2000-01-01T00:00:00Z"

// Ledger is the persisted deduplication record.
//
// LastAlertTime is kept as the raw string so that a hand-edited or corrupt
// value can be detected and treated as "cooldown satisfied" instead of
// failing the whole load.
type Ledger struct {
	LastAlertTime      string `json:"last_alert_time"`
	LastAlertCondition string `json:"last_alert_condition"`
	AlertCountToday    int    `json:"alert_count_today"`
	LastResetDate      string `json:"last_reset_date"`
	LastMessage        string `json:"last_message,omitempty"`
}

// Default returns the ledger used when no backing file exists or it cannot be
// read. LastResetDate is today so a first run does not count as a rollover.
func Default(now time.Time, loc *time.Location) Ledger {
	return Ledger{
		LastAlertTime:      SentinelLastAlert,
		LastAlertCondition: "",
		AlertCountToday:    0,
		LastResetDate:      CalendarDate(now, loc),
	}
}

// CalendarDate formats the calendar date of t in loc (UTC when loc is nil).
func CalendarDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// ParseLastAlertTime parses LastAlertTime as RFC 3339, or as a timestamp
// without offset read in loc (UTC when loc is nil). An empty value is an error.
func (l Ledger) ParseLastAlertTime(loc *time.Location) (time.Time, error) {
	if l.LastAlertTime == "" {
		return time.Time{}, fmt.Errorf("last_alert_time is empty")
	}
	t, err := time.Parse(TimeLayout, l.LastAlertTime)
	if err == nil {
		return t, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if naive, nerr := time.ParseInLocation(NaiveTimeLayout, l.LastAlertTime, loc); nerr == nil {
		return naive, nil
	}
	return time.Time{}, fmt.Errorf("parsing last_alert_time %q: %w", l.LastAlertTime, err)
}

// rollover resets the daily counter when the ledger was last reset on a
// different calendar date. It reports whether a reset happened.
func (l *Ledger) rollover(today string) bool {
	if l.LastResetDate == today {
		return false
	}
	l.AlertCountToday = 0
	l.LastResetDate = today
	return true
}

// FormatCondition renders the human summary stored in LastAlertCondition.
func FormatCondition(abbrev string, speedKmh float64) string {
	return fmt.Sprintf("%s %.1f km/h", abbrev, speedKmh)
}
