package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigError is returned by LoadConfig.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ssmParamSuffix marks SSM pointer variables: TWILIO_AUTH_TOKEN_SSM_PARAM
// holds the parameter path whose value becomes TWILIO_AUTH_TOKEN.
const ssmParamSuffix = "_SSM_PARAM"

// localEnv is the APP_ENV value that bypasses SSM resolution.
const localEnv = "local"

type envLookup func(key string) (string, bool)

type envSet func(key, value string) error

type environ func() []string

// loaderDeps lets tests resolve SSM pointers without touching the process
// environment.
type loaderDeps struct {
	lookupEnv envLookup
	setEnv    envSet
	environ   environ
}

func defaultDeps() loaderDeps {
	return loaderDeps{
		lookupEnv: os.LookupEnv,
		setEnv:    os.Setenv,
		environ:   os.Environ,
	}
}

// LoadConfig loads and validates the configuration:
//  1. Sets the process timezone to UTC. The alert day uses ALERT_TIMEZONE
//     explicitly, never time.Local.
//  2. Loads a .env file if present.
//  3. Outside APP_ENV=local, resolves _SSM_PARAM pointers through provider
//     (which may be nil when there are none).
//  4. Processes envconfig tags, sets Build, and validates.
func LoadConfig(provider SecretProvider) (*Config, error) {
	return loadConfigWithDeps(provider, defaultDeps())
}

func loadConfigWithDeps(provider SecretProvider, deps loaderDeps) (*Config, error) {
	time.Local = time.UTC

	// Existing variables win over .env entries.
	_ = godotenv.Load()

	// APP_ENV defaults to local, so an unset value skips SSM too.
	appEnv, ok := deps.lookupEnv("APP_ENV")
	if ok && appEnv != "" && appEnv != localEnv {
		if err := resolveSSMParams(provider, deps); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrParsing,
			Message: "failed to process environment configuration",
			Err:     err,
		}
	}

	cfg.Build = NewBuildInfo()

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, &ConfigError{
			Type:    ErrValidation,
			Message: "configuration validation failed",
			Err:     err,
		}
	}

	return &cfg, nil
}

// resolveSSMParams fetches every _SSM_PARAM pointer in one batch and sets the
// target variables, skipping targets that are already set.
func resolveSSMParams(provider SecretProvider, deps loaderDeps) error {
	type ssmBinding struct {
		targetEnvVar string
		ssmPath      string
	}

	var bindings []ssmBinding
	ssmPathToTarget := make(map[string]string)

	envVars := deps.environ()
	for _, envEntry := range envVars {
		eqIdx := strings.IndexByte(envEntry, '=')
		if eqIdx < 0 {
			continue
		}
		key := envEntry[:eqIdx]

		if !strings.HasSuffix(key, ssmParamSuffix) {
			continue
		}

		targetEnvVar := strings.TrimSuffix(key, ssmParamSuffix)
		if _, exists := deps.lookupEnv(targetEnvVar); exists {
			continue
		}

		ssmPath := envEntry[eqIdx+1:]
		if ssmPath == "" {
			continue
		}

		bindings = append(bindings, ssmBinding{
			targetEnvVar: targetEnvVar,
			ssmPath:      ssmPath,
		})
		ssmPathToTarget[ssmPath] = targetEnvVar
	}

	if len(bindings) == 0 {
		return nil
	}

	if provider == nil {
		targetVars := make([]string, 0, len(bindings))
		for _, b := range bindings {
			targetVars = append(targetVars, b.targetEnvVar)
		}
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("SecretProvider is required for non-local environments (need to resolve: %s)", strings.Join(targetVars, ", ")),
		}
	}

	ssmPaths := make([]string, 0, len(bindings))
	for _, b := range bindings {
		ssmPaths = append(ssmPaths, b.ssmPath)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resolved, err := provider.GetParametersBatch(ctx, ssmPaths)
	if err != nil {
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("failed to resolve %d SSM parameters", len(ssmPaths)),
			Err:     err,
		}
	}

	for ssmPath, value := range resolved {
		targetEnvVar, ok := ssmPathToTarget[ssmPath]
		if !ok {
			continue
		}
		if err := deps.setEnv(targetEnvVar, value); err != nil {
			return &ConfigError{
				Type:    ErrSSMResolution,
				Message: fmt.Sprintf("failed to set resolved value for %s", targetEnvVar),
				Err:     err,
			}
		}
	}

	var missing []string
	for _, b := range bindings {
		if _, ok := resolved[b.ssmPath]; !ok {
			missing = append(missing, b.targetEnvVar)
		}
	}
	if len(missing) > 0 {
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("SSM parameters not found for: %s", strings.Join(missing, ", ")),
		}
	}

	return nil
}

// DefaultSecretProvider returns the provider LoadConfig should use for this
// process: nil locally, SSM otherwise. SECRETS_PROVIDER=env swaps SSM for
// plain environment lookups when exercising a deployed configuration locally.
func DefaultSecretProvider() SecretProvider {
	return defaultSecretProvider(defaultDeps())
}

func defaultSecretProvider(deps loaderDeps) SecretProvider {
	appEnv, _ := deps.lookupEnv("APP_ENV")
	if appEnv == "" || appEnv == localEnv {
		return nil
	}
	if p, _ := deps.lookupEnv("SECRETS_PROVIDER"); p == "env" {
		return NewEnvVarProvider()
	}
	region, _ := deps.lookupEnv("AWS_REGION")
	if region == "" {
		region = "us-west-2"
	}
	endpoint, _ := deps.lookupEnv("AWS_ENDPOINT_URL")
	return NewSSMProvider(region, endpoint)
}
