package config

import (
	"context"
	"os"
)

// EnvVarProvider resolves keys as environment variable names. It stands in for
// SSM when running the CLI locally with APP_ENV=dev.
type EnvVarProvider struct{}

// NewEnvVarProvider creates an EnvVarProvider.
func NewEnvVarProvider() *EnvVarProvider {
	return &EnvVarProvider{}
}

// GetParametersBatch looks each key up with os.LookupEnv. Unset keys are
// omitted.
func (p *EnvVarProvider) GetParametersBatch(_ context.Context, keys []string) (map[string]string, error) {
	result := make(map[string]string, len(keys))
	for _, key := range keys {
		if val, ok := os.LookupEnv(key); ok {
			result[key] = val
		}
	}
	return result, nil
}
