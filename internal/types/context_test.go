package types

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
)

func TestWithRunID_GetRunID(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-123")
	if got := GetRunID(ctx); got != "run-123" {
		t.Errorf("GetRunID() = %q, want %q", got, "run-123")
	}
}

func TestGetRunID_Missing(t *testing.T) {
	if got := GetRunID(context.Background()); got != "" {
		t.Errorf("GetRunID() on empty context = %q, want empty", got)
	}
}

func TestLoggerFromContext(t *testing.T) {
	var stored, fallback bytes.Buffer
	storedLogger := slog.New(slog.NewTextHandler(&stored, nil))
	fallbackLogger := slog.New(slog.NewTextHandler(&fallback, nil))

	t.Run("returns stored logger", func(t *testing.T) {
		ctx := WithLogger(context.Background(), storedLogger)
		if got := LoggerFromContext(ctx, fallbackLogger); got != storedLogger {
			t.Error("expected the stored logger")
		}
	})

	t.Run("falls back when unset", func(t *testing.T) {
		if got := LoggerFromContext(context.Background(), fallbackLogger); got != fallbackLogger {
			t.Error("expected the fallback logger")
		}
	})

	t.Run("uses slog default when fallback nil", func(t *testing.T) {
		if got := LoggerFromContext(context.Background(), nil); got != slog.Default() {
			t.Error("expected slog.Default()")
		}
	})
}
