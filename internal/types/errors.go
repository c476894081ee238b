package types

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode is a typed string for categorizing application errors.
type ErrorCode string

// Error code constants. Callers classify failures by code, never by message.
const (
	// Validation
	ErrCodeValidationSyntheticPair ErrorCode = "validation_synthetic_pair_incomplete"
	ErrCodeValidationNegativeSpeed ErrorCode = "validation_negative_speed"
	ErrCodeValidationUnknownUnit   ErrorCode = "validation_unknown_unit"

	// Configuration
	ErrCodeConfigSMSIncomplete ErrorCode = "config_sms_incomplete"

	// Internal
	ErrCodeInternalLedgerIO   ErrorCode = "internal_ledger_io"
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"

	// Upstream
	ErrCodeUpstreamWindDataUnavailable ErrorCode = "upstream_wind_data_unavailable"
	ErrCodeUpstreamMalformedPayload    ErrorCode = "upstream_malformed_payload"
	ErrCodeUpstreamUnavailable         ErrorCode = "upstream_unavailable"
	ErrCodeUpstreamRateLimited         ErrorCode = "upstream_rate_limited"
	ErrCodeUpstreamSMSProvider         ErrorCode = "upstream_sms_provider"
	ErrCodeUpstreamAIProvider          ErrorCode = "upstream_ai_provider"
)

// IsTransient reports whether a failure with this code is worth retrying.
// Rate limits and 5xx/network failures are transient; everything else
// (bad credentials, malformed payloads, missing configuration) is not.
func (c ErrorCode) IsTransient() bool {
	switch c {
	case ErrCodeUpstreamUnavailable, ErrCodeUpstreamRateLimited:
		return true
	default:
		return false
	}
}

// IsUpstream reports whether the code describes a third-party failure.
func (c ErrorCode) IsUpstream() bool {
	return strings.HasPrefix(string(c), "upstream_")
}

// AppError is the standard application error type used throughout the module.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy of the error with the provided details merged in.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &AppError{
		Code:    e.Code,
		Message: e.Message,
		Err:     e.Err,
		Details: merged,
	}
}

// NewAppError creates a new AppError with the given code, message, and optional
// underlying error.
func NewAppError(code ErrorCode, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewAppErrorWithDetails creates a new AppError with structured details.
func NewAppErrorWithDetails(code ErrorCode, message string, err error, details map[string]any) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: details,
	}
}

// CodeOf extracts the ErrorCode of the first AppError in err's chain.
// It returns ErrCodeInternalUnexpected when err carries no AppError.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalUnexpected
}
