package config

import "context"

// SecretProvider resolves secret values by key: SSM parameter paths in
// deployed environments, variable names locally.
type SecretProvider interface {
	// GetParametersBatch returns key -> plaintext for every key it could
	// resolve. Unknown keys are either omitted or reported as an error,
	// depending on the implementation.
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}
