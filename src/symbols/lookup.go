package symbols

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/username/tradenorm/src/anthropic"
	"github.com/username/tradenorm/src/logger"
)

// ErrLookupDisabled is returned by NoopLookup.
var ErrLookupDisabled = errors.New("external symbol lookup disabled")

// UnknownReply is what the lookup is told to answer when it cannot name a ticker.
const UnknownReply = "UNKNOWN"

// Lookup asks an external knowledge source a short question and returns its raw
// text answer. Failures are never fatal to the caller.
type Lookup interface {
	Lookup(ctx context.Context, prompt string) (string, error)
}

// NoopLookup is the offline default.
type NoopLookup struct{}

func (NoopLookup) Lookup(context.Context, string) (string, error) {
	return "", ErrLookupDisabled
}

// LookupConfig tunes an AnthropicLookup.
type LookupConfig struct {
	Models      []string // tried in order until one answers
	MaxTokens   int64
	Temperature float64
	Timeout     time.Duration // per model call
	Limiter     *rate.Limiter // shared across lookups; nil disables limiting
}

// AnthropicLookup answers prompts with the Messages API.
type AnthropicLookup struct {
	client anthropic.Client
	cfg    LookupConfig
}

func NewAnthropicLookup(client anthropic.Client, cfg LookupConfig) *AnthropicLookup {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &AnthropicLookup{client: client, cfg: cfg}
}

func (l *AnthropicLookup) Lookup(ctx context.Context, prompt string) (string, error) {
	var lastErr error
	for i, model := range l.cfg.Models {
		if i > 0 {
			logger.L.Info("Trying backup model for symbol lookup", "model", model)
		}
		reply, err := l.ask(ctx, model, prompt)
		if err == nil && reply != "" {
			return reply, nil
		}
		if err == nil {
			err = fmt.Errorf("empty reply from %s", model)
		}
		logger.L.Warn("Symbol lookup model failed", "model", model, "error", err)
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no lookup models configured")
	}
	return "", lastErr
}

func (l *AnthropicLookup) ask(ctx context.Context, model, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	if l.cfg.Limiter != nil {
		if err := l.cfg.Limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("lookup rate limit wait: %w", err)
		}
	}

	temp := l.cfg.Temperature
	resp, err := l.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       model,
		MaxTokens:   l.cfg.MaxTokens,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Text()), nil
}

// SymbolPrompt is the constrained question used to recover a ticker.
func SymbolPrompt(symbol, description string) string {
	var sb strings.Builder
	sb.WriteString("I need the standard stock ticker symbol for this security. ")
	if description != "" {
		fmt.Fprintf(&sb, "The description is: '%s'. ", description)
	}
	fmt.Fprintf(&sb, "The potential symbol is: '%s'. ", symbol)
	sb.WriteString("Note: If this is a dissolved company, SPAC that merged, or otherwise inactive security, provide its last known ticker symbol. ")
	sb.WriteString("Reply with ONLY the standard ticker symbol (1-5 letters, no digits). If you can't determine it, reply with 'UNKNOWN'.")
	return sb.String()
}
