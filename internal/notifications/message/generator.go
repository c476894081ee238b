// Package message builds the SMS body for a qualifying wind reading. An AI
// model writes the text when one is configured; otherwise, or when its answer
// is unusable, a template chosen by speed tier is used.
package message

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"windalert/internal/external"
	"windalert/internal/wind"
)

// MaxSMSLength is the single-segment SMS budget the generated text must fit.
const MaxSMSLength = 160

// DefaultSystemPrompt is the persona used for AI messages.
const DefaultSystemPrompt = `You are an Australian surfer. Create a 1-2 sentence SMS alert about wind conditions.
MUST include wind direction (N/NW/W etc) and speed in km/h. Keep under 160 chars. Be funny and urgent.`

// Chat sampling parameters.
const (
	DefaultModel     = "gpt-4o-mini"
	maxTokens        = 100
	temperature      = 0.9
	presencePenalty  = 0.3
	frequencyPenalty = 0.3
)

// Source says which path produced a message.
type Source string

const (
	SourceAI       Source = "ai"
	SourceTemplate Source = "template"
)

// Config configures a Generator.
type Config struct {
	SpotName     string
	Model        string // defaults to DefaultModel
	SystemPrompt string // defaults to DefaultSystemPrompt
	Logger       *slog.Logger
}

// Generator produces alert text. A nil ChatCompleter disables AI messages.
type Generator struct {
	chat   external.ChatCompleter
	spot   string
	model  string
	prompt string
	logger *slog.Logger
}

// NewGenerator creates a Generator.
func NewGenerator(chat external.ChatCompleter, cfg Config) *Generator {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Generator{
		chat:   chat,
		spot:   cfg.SpotName,
		model:  cfg.Model,
		prompt: cfg.SystemPrompt,
		logger: cfg.Logger,
	}
}

// Generate returns the alert text and which path produced it. It never fails:
// every AI problem falls back to the template.
func (g *Generator) Generate(ctx context.Context, speedKmh, directionDeg float64) (string, Source) {
	if g.chat != nil {
		if msg, ok := g.fromAI(ctx, speedKmh, directionDeg); ok {
			return msg, SourceAI
		}
	}
	return Fallback(g.spot, speedKmh, directionDeg), SourceTemplate
}

func (g *Generator) fromAI(ctx context.Context, speedKmh, directionDeg float64) (string, bool) {
	abbrev := wind.Abbrev(directionDeg)
	speed := fmt.Sprintf("%.0f", speedKmh)

	user := fmt.Sprintf("Wind conditions at %s:\n- Wind: %s at %skm/h\n- Direction degrees: %.0f°\n\n"+
		"Create a 1-2 sentence SMS that MUST include %q and %q. Make it funny and urgent!",
		g.spot, abbrev, speed, directionDeg, abbrev, speed+"km/h")

	text, err := g.chat.Complete(ctx, external.ChatRequest{
		Model: g.model,
		Messages: []external.ChatMessage{
			{Role: "system", Content: g.prompt},
			{Role: "user", Content: user},
		},
		MaxTokens:        maxTokens,
		Temperature:      temperature,
		PresencePenalty:  presencePenalty,
		FrequencyPenalty: frequencyPenalty,
	})
	if err != nil {
		g.logger.WarnContext(ctx, "AI message failed, using template", "error", err)
		return "", false
	}

	msg := Truncate(strings.TrimSpace(text))
	if !strings.Contains(msg, abbrev) || !strings.Contains(msg, speed) {
		g.logger.WarnContext(ctx, "AI message missing wind data, using template", "message", msg)
		return "", false
	}

	g.logger.InfoContext(ctx, "generated AI message", "message", msg)
	return msg, true
}

// Truncate fits msg into MaxSMSLength characters. It keeps everything up to
// the last "!" that fits; without one it cuts and appends "...".
func Truncate(msg string) string {
	if utf8.RuneCountInString(msg) <= MaxSMSLength {
		return msg
	}

	runes := []rune(msg)
	head := string(runes[:MaxSMSLength])
	if i := strings.LastIndex(head, "!"); i > 0 {
		return head[:i+1]
	}
	return string(runes[:MaxSMSLength-3]) + "..."
}

// Fallback renders the template for the reading's speed tier. It always
// contains the direction abbreviation, the rounded speed and the spot.
func Fallback(spot string, speedKmh, directionDeg float64) string {
	dir := wind.Abbrev(directionDeg)
	switch {
	case speedKmh >= 35:
		return fmt.Sprintf("🌊 %s wind %.0fkm/h absolutely FIRING at %s! Drop everything and get here NOW legend!", dir, speedKmh, spot)
	case speedKmh >= 30:
		return fmt.Sprintf("🏄 %s %.0fkm/h pumping at %s! Epic conditions mate, time to shred!", dir, speedKmh, spot)
	default:
		return fmt.Sprintf("🌊 %s wind %.0fkm/h at %s! Solid sesh brewing, get on it!", dir, speedKmh, spot)
	}
}
