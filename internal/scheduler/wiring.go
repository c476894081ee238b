package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"windalert/internal/config"
	"windalert/internal/external"
	"windalert/internal/ledger"
	"windalert/internal/notifications/core"
	"windalert/internal/notifications/message"
	"windalert/internal/notifications/sms"
	"windalert/internal/queue"
	"windalert/internal/winddata"
)

// NewAlertCheckerFromConfig wires an AlertChecker from configuration: vendor
// clients, the file ledger and, when enabled, CloudWatch metrics and the SQS
// alert event publisher.
func NewAlertCheckerFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*AlertChecker, error) {
	if logger == nil {
		logger = slog.Default()
	}

	loc, err := cfg.Alert.Location()
	if err != nil {
		return nil, err
	}

	reg := external.NewClientRegistry(cfg, logger)

	providers := make([]winddata.Provider, 0, len(reg.WindSources))
	for _, src := range reg.WindSources {
		providers = append(providers, src)
	}

	store := ledger.NewFileStore(cfg.Alert.StateFilePath, logger.With("component", "ledger"))
	gate := ledger.NewGate(store, ledger.Policy{
		Cooldown: cfg.Alert.Cooldown(),
		DailyCap: cfg.Alert.DailyLimit,
		Location: loc,
	}, logger.With("component", "ledger"))

	checkCfg := AlertCheckConfig{
		Fetcher: winddata.NewFetcher(providers, logger.With("component", "winddata")),
		Gate:    gate,
		Messages: message.NewGenerator(reg.Chat, message.Config{
			SpotName: cfg.Spot.Name,
			Model:    cfg.AI.Model,
			Logger:   logger.With("component", "message"),
		}),
		Dispatcher: sms.NewDispatcher(reg.SMS, sms.Config{
			From:    cfg.SMS.From,
			To:      cfg.SMS.To,
			Missing: cfg.SMS.Missing(),
			Logger:  logger.With("component", "sms"),
		}),
		SpotName:     cfg.Spot.Name,
		ThresholdKmh: cfg.Alert.ThresholdKmh,
		DryRun:       cfg.DryRun,
		Logger:       logger,
	}

	if cfg.Observability.EnableMetrics || cfg.AWS.AlertEventsQueueURL != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return nil, fmt.Errorf("loading AWS SDK config: %w", err)
		}

		if cfg.Observability.EnableMetrics {
			cw := cloudwatch.NewFromConfig(awsCfg, func(o *cloudwatch.Options) {
				if cfg.AWS.EndpointURL != "" {
					o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
				}
			})
			checkCfg.Metrics = core.NewCloudWatchAlertMetrics(cw, cfg.Observability.MetricNamespace, logger.With("component", "metrics"))
		}

		if cfg.AWS.AlertEventsQueueURL != "" {
			sqsClient := sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
				if cfg.AWS.EndpointURL != "" {
					o.BaseEndpoint = aws.String(cfg.AWS.EndpointURL)
				}
			})
			checkCfg.Events = queue.NewAlertEventPublisher(sqsClient, cfg.AWS.AlertEventsQueueURL, logger.With("component", "queue"))
		}
	}

	logger.Debug("alert checker wired",
		"wind_sources", len(providers),
		"sms_configured", reg.SMS != nil,
		"ai_messages", reg.Chat != nil,
		"metrics", cfg.Observability.EnableMetrics,
		"alert_events", cfg.AWS.AlertEventsQueueURL != "",
	)
	return NewAlertChecker(checkCfg), nil
}
