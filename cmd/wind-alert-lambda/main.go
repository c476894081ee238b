// Package main is the Lambda entrypoint of the wind alert. An EventBridge
// schedule invokes it with an empty event; manual invocations may pass a
// scheduler.RunInput to force an alert, dry-run or supply a test reading.
//
// Dependencies are wired once per cold start; the ledger lock keeps
// overlapping invocations in a warm container from interleaving.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	_ "time/tzdata"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"

	"windalert/internal/config"
	"windalert/internal/scheduler"
	"windalert/internal/types"
)

// alertRunner is the part of *scheduler.AlertChecker the handler needs.
type alertRunner interface {
	Run(ctx context.Context, in scheduler.RunInput) (scheduler.RunResult, error)
}

func main() {
	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	bootLogger.Info("wind alert Lambda initializing (cold start)")

	cfg, err := config.LoadConfig(config.DefaultSecretProvider())
	if err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Lambda captures stdout; a LOG_FILE would only fill /tmp.
	cfg.LogFile = ""
	logger, _ := cfg.NewLogger(os.Stdout, true)
	slog.SetDefault(logger)

	checker, err := scheduler.NewAlertCheckerFromConfig(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize alert checker", "error", err)
		os.Exit(1)
	}

	logger.Info("wind alert Lambda initialized",
		"spot", cfg.Spot.Name,
		"state_file", cfg.Alert.StateFilePath,
		"dry_run", cfg.DryRun,
	)

	lambda.Start(newHandler(checker, logger))
}

// newHandler wraps AlertChecker.Run. The Lambda request ID becomes the run ID.
// Failed outcomes are returned as errors so the invocation is marked failed
// and EventBridge retry and alarm policies apply.
func newHandler(checker alertRunner, logger *slog.Logger) func(ctx context.Context, input scheduler.RunInput) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, input scheduler.RunInput) (string, error) {
		if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
			ctx = types.WithRunID(ctx, lc.AwsRequestID)
		}

		logger.InfoContext(ctx, "wind alert handler invoked",
			"force_alert", input.ForceAlert,
			"dry_run", input.DryRun,
			"synthetic", input.TestWindSpeed != nil || input.TestWindDirection != nil,
		)

		res, err := checker.Run(ctx, input)
		if err != nil {
			logger.ErrorContext(ctx, "wind alert check failed",
				"run_id", res.RunID,
				"outcome", string(res.Outcome),
				"error", err,
			)
			return "", fmt.Errorf("wind alert check failed: %w", err)
		}

		return res.Summary(), nil
	}
}
