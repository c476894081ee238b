// Package main is the command-line entrypoint of the wind alert. One
// invocation runs one alert check and exits; cron or another scheduler
// provides the interval.
//
// Usage:
//
//	wind-alert [--dry-run] [--force-alert] [--test-wind-speed KMH --test-wind-direction DEG]
//
// Exit status is 0 when the check completed (alert sent or not) and 1 on
// fetch failure, dispatch failure, bad flags, bad configuration or any
// unexpected error.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"windalert/internal/config"
	"windalert/internal/scheduler"
)

const (
	exitOK    = 0
	exitError = 1
)

// runner is the part of *scheduler.AlertChecker main needs.
type runner interface {
	Run(ctx context.Context, in scheduler.RunInput) (scheduler.RunResult, error)
}

// buildRunner is swapped in tests.
var buildRunner = func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (runner, error) {
	return scheduler.NewAlertCheckerFromConfig(ctx, cfg, logger)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	input scheduler.RunInput
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("wind-alert", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		opts  options
		speed float64
		dir   float64
	)
	fs.BoolVar(&opts.input.DryRun, "dry-run", false, "Run without sending actual SMS alerts")
	fs.BoolVar(&opts.input.ForceAlert, "force-alert", false, "Force sending an alert (bypass deduplication)")
	fs.Float64Var(&speed, "test-wind-speed", 0, "Use test wind speed (km/h) instead of fetching real data")
	fs.Float64Var(&dir, "test-wind-direction", 0, "Use test wind direction (degrees) instead of fetching real data")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "test-wind-speed":
			opts.input.TestWindSpeed = &speed
		case "test-wind-direction":
			opts.input.TestWindDirection = &dir
		}
	})
	return opts, nil
}

// run executes one alert check and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) (code int) {
	logger := slog.New(slog.NewTextHandler(stderr, nil))
	defer func() {
		if r := recover(); r != nil {
			logger.Error("unexpected error", "panic", fmt.Sprint(r))
			code = exitError
		}
	}()

	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "wind-alert: %v\n", err)
		return exitError
	}
	// Checked before any configuration or network work.
	if err := opts.input.Validate(); err != nil {
		fmt.Fprintf(stderr, "wind-alert: %v\n", err)
		return exitError
	}

	cfg, err := config.LoadConfig(config.DefaultSecretProvider())
	if err != nil {
		fmt.Fprintf(stderr, "wind-alert: %v\n", err)
		return exitError
	}

	logger, closeLog := cfg.NewLogger(stdout, false)
	defer func() { _ = closeLog() }()
	slog.SetDefault(logger)

	if opts.input.DryRun || cfg.DryRun {
		logger.Info("running in DRY RUN mode")
	}

	checker, err := buildRunner(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		return exitError
	}

	res, err := checker.Run(ctx, opts.input)
	if err != nil {
		logger.Error("wind alert check failed", "outcome", string(res.Outcome), "error", err)
		return exitError
	}
	if res.Outcome.Failed() {
		return exitError
	}
	return exitOK
}
