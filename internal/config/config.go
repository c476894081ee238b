// Package config defines the configuration of the wind alert. It is loaded once
// at process start and passed down as plain values; no other package reads
// the environment.
//
// Values are resolved via a priority chain:
//
//	OS Environment (Highest) -> Dotenv File -> AWS SSM Parameter Store (Lowest)
package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"windalert/internal/types"
)

// SecretString is an alias for types.SecretString so that secret fields
// stay redacted in logs and JSON.
type SecretString = types.SecretString

// Config is the top-level configuration.
type Config struct {
	// System Metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"wind-alert"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"text" validate:"oneof=text json"`
	// LogFile is an extra log sink next to stdout. Empty disables it.
	LogFile string `envconfig:"LOG_FILE" default:"/tmp/wind_alert.log"`
	// DryRun logs the SMS instead of sending it and leaves the ledger alone.
	DryRun bool `envconfig:"DRY_RUN" default:"false"`

	Spot          SpotConfig
	Alert         AlertConfig
	Sources       SourceConfig
	SMS           SMSConfig
	AI            AIConfig
	AWS           AWSConfig
	Observability ObservabilityConfig

	// Build Metadata (Injected via ldflags, not Env)
	Build BuildInfo
}

// SpotConfig is the location being watched.
type SpotConfig struct {
	Name      string  `envconfig:"SPOT_NAME" default:"Wreck Beach" validate:"required"`
	Latitude  float64 `envconfig:"SPOT_LAT" default:"49.2611" validate:"gte=-90,lte=90"`
	Longitude float64 `envconfig:"SPOT_LON" default:"-123.2614" validate:"gte=-180,lte=180"`
}

// AlertConfig holds the alert rule and the deduplication limits.
type AlertConfig struct {
	ThresholdKmh  float64 `envconfig:"WIND_SPEED_THRESHOLD_KMH" default:"25" validate:"gt=0"`
	CooldownHours float64 `envconfig:"ALERT_COOLDOWN_HOURS" default:"6" validate:"gte=0"`
	DailyLimit    int     `envconfig:"DAILY_ALERT_LIMIT" default:"4" validate:"min=1"`
	// Timezone is the IANA zone whose calendar date resets the daily count.
	Timezone      string `envconfig:"ALERT_TIMEZONE" default:"America/Vancouver" validate:"required,timezone"`
	StateFilePath string `envconfig:"STATE_FILE_PATH" default:"/tmp/wind_alert_state.json" validate:"required"`
}

// Cooldown returns CooldownHours as a duration.
func (a AlertConfig) Cooldown() time.Duration {
	return time.Duration(a.CooldownHours * float64(time.Hour))
}

// Location loads the configured time zone.
func (a AlertConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading ALERT_TIMEZONE %q: %w", a.Timezone, err)
	}
	return loc, nil
}

// SourceConfig holds the weather source endpoints, tried in this order.
type SourceConfig struct {
	OpenMeteoURL string        `envconfig:"OPEN_METEO_URL" default:"https://api.open-meteo.com" validate:"required,url"`
	ECCCURL      string        `envconfig:"ECCC_OBSERVATION_URL" default:"https://dd.weather.gc.ca/observations/xml/BC/hourly/YVR_e.xml" validate:"required,url"`
	Timeout      time.Duration `envconfig:"SOURCE_TIMEOUT" default:"10s" validate:"gt=0"`
}

// SMSConfig holds the Twilio credentials and the phone numbers. All four
// credentials are optional at load time; a live dispatch with any of them
// missing fails.
type SMSConfig struct {
	AccountSID string        `envconfig:"TWILIO_ACCOUNT_SID"`
	AuthToken  SecretString  `envconfig:"TWILIO_AUTH_TOKEN"`
	From       string        `envconfig:"TWILIO_PHONE_FROM"`
	To         string        `envconfig:"ALERT_PHONE_TO"`
	BaseURL    string        `envconfig:"TWILIO_BASE_URL" default:"https://api.twilio.com" validate:"required,url"`
	Timeout    time.Duration `envconfig:"TWILIO_TIMEOUT" default:"15s" validate:"gt=0"`
}

// Missing lists the environment variables of the unset SMS settings.
func (s SMSConfig) Missing() []string {
	var missing []string
	if strings.TrimSpace(s.AccountSID) == "" {
		missing = append(missing, "TWILIO_ACCOUNT_SID")
	}
	if !s.AuthToken.IsSet() {
		missing = append(missing, "TWILIO_AUTH_TOKEN")
	}
	if strings.TrimSpace(s.From) == "" {
		missing = append(missing, "TWILIO_PHONE_FROM")
	}
	if strings.TrimSpace(s.To) == "" {
		missing = append(missing, "ALERT_PHONE_TO")
	}
	return missing
}

// Complete reports whether every SMS setting is present.
func (s SMSConfig) Complete() bool {
	return len(s.Missing()) == 0
}

// AIConfig holds the optional OpenAI settings for message text.
type AIConfig struct {
	APIKey  SecretString  `envconfig:"OPENAI_API_KEY"`
	Model   string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini" validate:"required"`
	BaseURL string        `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com" validate:"required,url"`
	Timeout time.Duration `envconfig:"OPENAI_TIMEOUT" default:"15s" validate:"gt=0"`
}

// Enabled reports whether a real API key is configured. The placeholder keys
// used in tests ("test_key", "sk-test...") disable AI messages.
func (a AIConfig) Enabled() bool {
	key := a.APIKey.Unmask()
	if key == "" || key == "test_key" || strings.HasPrefix(key, "sk-test") {
		return false
	}
	return true
}

// AWSConfig holds AWS regional configuration and resource identifiers.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-west-2"`
	// AlertEventsQueueURL receives one message per dispatched alert. Empty disables.
	AlertEventsQueueURL string `envconfig:"ALERT_EVENTS_QUEUE_URL" validate:"omitempty,url"`

	// LocalStack Support (Empty in Prod)
	EndpointURL string `envconfig:"AWS_ENDPOINT_URL" validate:"omitempty,url"`
}

// ObservabilityConfig holds metric settings.
type ObservabilityConfig struct {
	EnableMetrics   bool   `envconfig:"ENABLE_METRICS" default:"false"`
	MetricNamespace string `envconfig:"METRIC_NAMESPACE" default:"WindAlert" validate:"required"`
}

// BuildInfo holds build-time metadata injected via ldflags.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// ConfigErrorType categorizes configuration loading failures.
type ConfigErrorType string

const (
	// ErrSSMResolution indicates a failure when fetching secrets from AWS SSM.
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
)
