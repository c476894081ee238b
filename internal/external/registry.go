package external

import (
	"log/slog"
	"net/http"

	"windalert/internal/config"
)

// ClientRegistry holds every vendor client a run needs.
type ClientRegistry struct {
	// WindSources is the fallback order: the first entry is the primary.
	WindSources []WindSource
	// SMS is nil when the Twilio settings are incomplete.
	SMS SMSSender
	// Chat is nil when AI message text is disabled.
	Chat ChatCompleter
}

// NewClientRegistry builds the vendor clients from configuration. Each vendor
// gets its own http.Client timeout and circuit breaker.
func NewClientRegistry(cfg *config.Config, logger *slog.Logger) *ClientRegistry {
	if logger == nil {
		logger = slog.Default()
	}

	sourceHTTP := &http.Client{Timeout: cfg.Sources.Timeout}
	reg := &ClientRegistry{
		WindSources: []WindSource{
			NewOpenMeteoClient(sourceHTTP, OpenMeteoConfig{
				BaseURL:   cfg.Sources.OpenMeteoURL,
				Latitude:  cfg.Spot.Latitude,
				Longitude: cfg.Spot.Longitude,
				Logger:    logger.With("client", "open-meteo"),
			}),
			NewECCCClient(sourceHTTP, ECCCConfig{
				ObservationURL: cfg.Sources.ECCCURL,
				Logger:         logger.With("client", "eccc"),
			}),
		},
	}

	if cfg.SMS.Complete() {
		reg.SMS = NewTwilioClient(&http.Client{Timeout: cfg.SMS.Timeout}, TwilioConfig{
			AccountSID: cfg.SMS.AccountSID,
			AuthToken:  cfg.SMS.AuthToken,
			BaseURL:    cfg.SMS.BaseURL,
			Logger:     logger.With("client", "twilio"),
		})
	} else {
		logger.Debug("Twilio settings incomplete, SMS client not created",
			"missing", cfg.SMS.Missing(),
		)
	}

	if cfg.AI.Enabled() {
		reg.Chat = NewOpenAIClient(&http.Client{Timeout: cfg.AI.Timeout}, OpenAIConfig{
			APIKey:  cfg.AI.APIKey,
			BaseURL: cfg.AI.BaseURL,
			Logger:  logger.With("client", "openai"),
		})
	}

	return reg
}
