package external

import (
	"context"

	"windalert/internal/types"
)

// WindSource is a weather provider that can report the current wind at the
// configured spot. The returned sample has Provider set; Source is assigned by
// the caller from the provider's position in the fallback order.
type WindSource interface {
	Name() string
	Fetch(ctx context.Context) (types.WindSample, error)
}

// SMSSender transmits a single text message and returns the provider's
// message ID.
type SMSSender interface {
	SendSMS(ctx context.Context, from, to, body string) (string, error)
}

// ChatCompleter produces text from a chat prompt.
type ChatCompleter interface {
	Complete(ctx context.Context, chat ChatRequest) (string, error)
}

// Compile-time interface compliance checks.
var (
	_ WindSource    = (*OpenMeteoClient)(nil)
	_ WindSource    = (*ECCCClient)(nil)
	_ SMSSender     = (*TwilioClient)(nil)
	_ ChatCompleter = (*OpenAIClient)(nil)
)
