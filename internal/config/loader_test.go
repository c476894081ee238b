package config

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

// testSecretProvider records the keys it was asked for and answers from values.
type testSecretProvider struct {
	values     map[string]string
	err        error
	calledWith []string
	callCount  int
}

func (p *testSecretProvider) GetParametersBatch(_ context.Context, keys []string) (map[string]string, error) {
	p.callCount++
	p.calledWith = append(p.calledWith, keys...)
	if p.err != nil {
		return nil, p.err
	}
	result := make(map[string]string)
	for _, k := range keys {
		if v, ok := p.values[k]; ok {
			result[k] = v
		}
	}
	return result, nil
}

// clearConfigEnv blanks every variable the tests touch so values from the
// host environment cannot leak in. envconfig treats an empty variable as set,
// so the ones with defaults are unset instead.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"APP_ENV", "LOG_LEVEL", "LOG_FORMAT", "LOG_FILE", "DRY_RUN",
		"SPOT_NAME", "SPOT_LAT", "SPOT_LON",
		"WIND_SPEED_THRESHOLD_KMH", "ALERT_COOLDOWN_HOURS", "DAILY_ALERT_LIMIT",
		"ALERT_TIMEZONE", "STATE_FILE_PATH",
		"OPEN_METEO_URL", "ECCC_OBSERVATION_URL", "SOURCE_TIMEOUT",
		"TWILIO_ACCOUNT_SID", "TWILIO_AUTH_TOKEN", "TWILIO_PHONE_FROM", "ALERT_PHONE_TO",
		"TWILIO_BASE_URL", "TWILIO_TIMEOUT",
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL", "OPENAI_TIMEOUT",
		"AWS_REGION", "ALERT_EVENTS_QUEUE_URL", "AWS_ENDPOINT_URL",
		"ENABLE_METRICS", "METRIC_NAMESPACE",
		"TWILIO_AUTH_TOKEN_SSM_PARAM", "OPENAI_API_KEY_SSM_PARAM",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Environment != "local" {
		t.Errorf("Environment = %q, want local", cfg.Environment)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("log settings = %q/%q, want info/text", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.LogFile != "/tmp/wind_alert.log" {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
	if cfg.DryRun {
		t.Error("DryRun should default to false")
	}
	if cfg.Spot.Name != "Wreck Beach" || cfg.Spot.Latitude != 49.2611 || cfg.Spot.Longitude != -123.2614 {
		t.Errorf("Spot = %+v", cfg.Spot)
	}
	if cfg.Alert.ThresholdKmh != 25 {
		t.Errorf("ThresholdKmh = %v, want 25", cfg.Alert.ThresholdKmh)
	}
	if cfg.Alert.Cooldown() != 6*time.Hour {
		t.Errorf("Cooldown() = %v, want 6h", cfg.Alert.Cooldown())
	}
	if cfg.Alert.DailyLimit != 4 {
		t.Errorf("DailyLimit = %d, want 4", cfg.Alert.DailyLimit)
	}
	if cfg.Alert.Timezone != "America/Vancouver" {
		t.Errorf("Timezone = %q", cfg.Alert.Timezone)
	}
	if cfg.Alert.StateFilePath != "/tmp/wind_alert_state.json" {
		t.Errorf("StateFilePath = %q", cfg.Alert.StateFilePath)
	}
	if cfg.Sources.OpenMeteoURL != "https://api.open-meteo.com" {
		t.Errorf("OpenMeteoURL = %q", cfg.Sources.OpenMeteoURL)
	}
	if !strings.HasSuffix(cfg.Sources.ECCCURL, "/YVR_e.xml") {
		t.Errorf("ECCCURL = %q", cfg.Sources.ECCCURL)
	}
	if cfg.Sources.Timeout != 10*time.Second {
		t.Errorf("Sources.Timeout = %v, want 10s", cfg.Sources.Timeout)
	}
	if cfg.AI.Model != "gpt-4o-mini" {
		t.Errorf("AI.Model = %q", cfg.AI.Model)
	}
	if cfg.AWS.Region != "us-west-2" {
		t.Errorf("AWS.Region = %q", cfg.AWS.Region)
	}
	if cfg.Observability.EnableMetrics || cfg.Observability.MetricNamespace != "WindAlert" {
		t.Errorf("Observability = %+v", cfg.Observability)
	}
	if cfg.Build.Version != "dev" {
		t.Errorf("Build.Version = %q, want dev", cfg.Build.Version)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("WIND_SPEED_THRESHOLD_KMH", "30.5")
	t.Setenv("ALERT_COOLDOWN_HOURS", "1.5")
	t.Setenv("DAILY_ALERT_LIMIT", "2")
	t.Setenv("ALERT_TIMEZONE", "UTC")
	t.Setenv("SOURCE_TIMEOUT", "3s")
	t.Setenv("DRY_RUN", "true")
	t.Setenv("TWILIO_AUTH_TOKEN", "tok_123")

	cfg, err := LoadConfig(nil)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Alert.ThresholdKmh != 30.5 {
		t.Errorf("ThresholdKmh = %v, want 30.5", cfg.Alert.ThresholdKmh)
	}
	if cfg.Alert.Cooldown() != 90*time.Minute {
		t.Errorf("Cooldown() = %v, want 1h30m", cfg.Alert.Cooldown())
	}
	if cfg.Alert.DailyLimit != 2 {
		t.Errorf("DailyLimit = %d, want 2", cfg.Alert.DailyLimit)
	}
	loc, err := cfg.Alert.Location()
	if err != nil || loc.String() != "UTC" {
		t.Errorf("Location() = %v, %v", loc, err)
	}
	if cfg.Sources.Timeout != 3*time.Second {
		t.Errorf("Sources.Timeout = %v, want 3s", cfg.Sources.Timeout)
	}
	if !cfg.DryRun {
		t.Error("DryRun should be true")
	}
	if cfg.SMS.AuthToken.Unmask() != "tok_123" {
		t.Errorf("AuthToken.Unmask() = %q", cfg.SMS.AuthToken.Unmask())
	}
	if cfg.SMS.AuthToken.String() != "***REDACTED***" {
		t.Errorf("AuthToken.String() should be redacted, got %q", cfg.SMS.AuthToken.String())
	}
}

func TestLoadConfigSetsUTC(t *testing.T) {
	clearConfigEnv(t)
	original := time.Local
	t.Cleanup(func() { time.Local = original })

	if _, err := LoadConfig(nil); err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if time.Local != time.UTC {
		t.Errorf("time.Local = %v, want UTC", time.Local)
	}
}

func TestLoadConfigValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"invalid environment", "APP_ENV", "staging"},
		{"invalid log level", "LOG_LEVEL", "verbose"},
		{"invalid log format", "LOG_FORMAT", "xml"},
		{"zero threshold", "WIND_SPEED_THRESHOLD_KMH", "0"},
		{"negative cooldown", "ALERT_COOLDOWN_HOURS", "-1"},
		{"zero daily limit", "DAILY_ALERT_LIMIT", "0"},
		{"unknown timezone", "ALERT_TIMEZONE", "Mars/Olympus_Mons"},
		{"latitude out of range", "SPOT_LAT", "91"},
		{"longitude out of range", "SPOT_LON", "-181"},
		{"bad source url", "OPEN_METEO_URL", "not a url"},
		{"bad queue url", "ALERT_EVENTS_QUEUE_URL", "queue"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig(nil)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if cfgErr.Type != ErrValidation {
				t.Errorf("Type = %s, want %s", cfgErr.Type, ErrValidation)
			}
		})
	}
}

func TestLoadConfigParsingFailure(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("DAILY_ALERT_LIMIT", "four")

	_, err := LoadConfig(nil)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T: %v", err, err)
	}
	if cfgErr.Type != ErrParsing {
		t.Errorf("Type = %s, want %s", cfgErr.Type, ErrParsing)
	}
}

func TestLoadConfigSSMResolution(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("TWILIO_AUTH_TOKEN_SSM_PARAM", "/prod/windalert/twilio/auth_token")
	t.Setenv("OPENAI_API_KEY_SSM_PARAM", "/prod/windalert/openai/api_key")

	provider := &testSecretProvider{values: map[string]string{
		"/prod/windalert/twilio/auth_token": "resolved-token",
		"/prod/windalert/openai/api_key":    "sk-live-abc",
	}}

	deps := defaultDeps()
	deps.setEnv = func(k, v string) error {
		t.Setenv(k, v)
		return nil
	}

	cfg, err := loadConfigWithDeps(provider, deps)
	if err != nil {
		t.Fatalf("loadConfigWithDeps returned error: %v", err)
	}
	if provider.callCount != 1 {
		t.Errorf("provider called %d times, want 1 batch call", provider.callCount)
	}
	if cfg.SMS.AuthToken.Unmask() != "resolved-token" {
		t.Errorf("AuthToken = %q, want resolved-token", cfg.SMS.AuthToken.Unmask())
	}
	if !cfg.AI.Enabled() {
		t.Error("AI should be enabled with the resolved key")
	}
}

func TestLoadConfigSSMSkippedForLocal(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "local")
	t.Setenv("TWILIO_AUTH_TOKEN_SSM_PARAM", "/dev/windalert/twilio/auth_token")

	provider := &testSecretProvider{}
	if _, err := LoadConfig(provider); err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if provider.callCount != 0 {
		t.Errorf("provider called %d times in local mode, want 0", provider.callCount)
	}
}

func TestLoadConfigSSMDirectEnvWins(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "dev")
	t.Setenv("TWILIO_AUTH_TOKEN", "direct")
	t.Setenv("TWILIO_AUTH_TOKEN_SSM_PARAM", "/dev/windalert/twilio/auth_token")

	provider := &testSecretProvider{values: map[string]string{
		"/dev/windalert/twilio/auth_token": "from-ssm",
	}}
	cfg, err := LoadConfig(provider)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if provider.callCount != 0 {
		t.Errorf("provider should not be called when the target is already set")
	}
	if cfg.SMS.AuthToken.Unmask() != "direct" {
		t.Errorf("AuthToken = %q, want direct", cfg.SMS.AuthToken.Unmask())
	}
}

func TestLoadConfigSSMFailures(t *testing.T) {
	tests := []struct {
		name     string
		provider SecretProvider
	}{
		{"nil provider", nil},
		{"provider error", &testSecretProvider{err: errors.New("throttled")}},
		{"parameter missing", &testSecretProvider{values: map[string]string{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			t.Setenv("APP_ENV", "prod")
			t.Setenv("TWILIO_AUTH_TOKEN_SSM_PARAM", "/prod/windalert/twilio/auth_token")

			_, err := LoadConfig(tt.provider)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %T: %v", err, err)
			}
			if cfgErr.Type != ErrSSMResolution {
				t.Errorf("Type = %s, want %s", cfgErr.Type, ErrSSMResolution)
			}
		})
	}
}

func TestResolveSSMParamsEmptyPathIgnored(t *testing.T) {
	provider := &testSecretProvider{}
	deps := loaderDeps{
		lookupEnv: func(string) (string, bool) { return "", false },
		setEnv:    func(string, string) error { return nil },
		environ:   func() []string { return []string{"TWILIO_AUTH_TOKEN_SSM_PARAM=", "PATH=/bin"} },
	}

	if err := resolveSSMParams(provider, deps); err != nil {
		t.Fatalf("resolveSSMParams returned error: %v", err)
	}
	if provider.callCount != 0 {
		t.Errorf("provider called %d times, want 0", provider.callCount)
	}
}

func TestConfigErrorFormatting(t *testing.T) {
	inner := errors.New("boom")
	withErr := &ConfigError{Type: ErrParsing, Message: "bad value", Err: inner}
	if got := withErr.Error(); got != "[PARSING_FAILED] bad value: boom" {
		t.Errorf("Error() = %q", got)
	}
	if !errors.Is(withErr, inner) {
		t.Error("ConfigError should unwrap to the inner error")
	}

	bare := &ConfigError{Type: ErrSSMResolution, Message: "no provider"}
	if got := bare.Error(); got != "[SSM_FAILURE] no provider" {
		t.Errorf("Error() = %q", got)
	}
}

func TestSMSConfigMissing(t *testing.T) {
	full := SMSConfig{AccountSID: "AC1", AuthToken: "tok", From: "+1604", To: "+1778"}
	if !full.Complete() {
		t.Errorf("full config reported missing %v", full.Missing())
	}

	partial := SMSConfig{AccountSID: "AC1", To: " "}
	got := partial.Missing()
	want := []string{"TWILIO_AUTH_TOKEN", "TWILIO_PHONE_FROM", "ALERT_PHONE_TO"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Missing() = %v, want %v", got, want)
	}
}

func TestAIConfigEnabled(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"", false},
		{"test_key", false},
		{"sk-test-123", false},
		{"sk-proj-abc", true},
	}
	for _, tt := range tests {
		if got := (AIConfig{APIKey: SecretString(tt.key)}).Enabled(); got != tt.want {
			t.Errorf("Enabled() with key %q = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestNewBuildInfoDefaults(t *testing.T) {
	info := NewBuildInfo()
	if info.Version != "dev" || info.Commit != "none" || info.BuildTime != "unknown" {
		t.Errorf("NewBuildInfo() = %+v", info)
	}
}

func TestDefaultSecretProvider(t *testing.T) {
	depsFor := func(env map[string]string) loaderDeps {
		return loaderDeps{
			lookupEnv: func(k string) (string, bool) { v, ok := env[k]; return v, ok },
		}
	}

	if p := defaultSecretProvider(depsFor(nil)); p != nil {
		t.Errorf("unset APP_ENV: got %T, want nil", p)
	}
	if p := defaultSecretProvider(depsFor(map[string]string{"APP_ENV": "local"})); p != nil {
		t.Errorf("local: got %T, want nil", p)
	}

	p := defaultSecretProvider(depsFor(map[string]string{"APP_ENV": "prod", "AWS_REGION": "ca-central-1"}))
	ssmP, ok := p.(*SSMProvider)
	if !ok {
		t.Fatalf("prod: got %T, want *SSMProvider", p)
	}
	if ssmP.region != "ca-central-1" {
		t.Errorf("region = %q, want ca-central-1", ssmP.region)
	}

	p = defaultSecretProvider(depsFor(map[string]string{"APP_ENV": "dev"}))
	if ssmP, ok := p.(*SSMProvider); !ok || ssmP.region != "us-west-2" {
		t.Errorf("dev without region: got %#v", p)
	}

	p = defaultSecretProvider(depsFor(map[string]string{"APP_ENV": "dev", "SECRETS_PROVIDER": "env"}))
	if _, ok := p.(*EnvVarProvider); !ok {
		t.Errorf("SECRETS_PROVIDER=env: got %T", p)
	}
}
