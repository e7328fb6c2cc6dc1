package screen

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"
)

const screenPrompt = "Return ONE tab-separated line:\n" +
	"Company<TAB>Impact tag<TAB><=500-word summary<TAB>Price-move range (e.g. '2% to 4%')<TAB><=20-word rationale\n" +
	"(Impact tag = STRONGLY POSITIVE / POSITIVE / NEUTRAL / NEGATIVE / STRONGLY NEGATIVE, " +
	"use 'N/A' if immaterial.)"

// MinTextChars is the shortest extraction worth classifying; below it there
// is too little signal for an impact call.
const MinTextChars = 300

// LLMCaller abstracts the completion endpoint so tests can substitute a
// fake classifier.
type LLMCaller interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// ClassifierConfig is injected explicitly; nothing here is process-global.
type ClassifierConfig struct {
	APIKey            string
	Model             anthropic.Model
	MaxTokens         int64
	Temperature       float64
	Attempts          int
	RequestsPerSecond float64
}

func (c ClassifierConfig) withDefaults() ClassifierConfig {
	if c.Model == "" {
		c.Model = anthropic.ModelClaudeSonnet4_20250514
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 400
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.3
	}
	if c.Attempts <= 0 {
		c.Attempts = 3
	}
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 2
	}
	return c
}

// Classifier asks the model for a one-line impact call on a disclosure.
// Connection/timeout-class failures are retried up to cfg.Attempts total,
// with the final failure propagated; any other call error yields "no answer"
// without retrying.
type Classifier struct {
	caller   LLMCaller
	limiter  *rate.Limiter
	attempts int
	sleep    func(time.Duration)
}

func NewClassifier(cfg ClassifierConfig, caller LLMCaller) *Classifier {
	cfg = cfg.withDefaults()
	return &Classifier{
		caller:   caller,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		attempts: cfg.Attempts,
		sleep:    time.Sleep,
	}
}

// Classify returns the raw single-line answer, "" when the model produced no
// usable answer, or an error only when transport failures exhausted every
// attempt.
func (c *Classifier) Classify(ctx context.Context, text string) (string, error) {
	user := text + "\nReturn one line only."
	for attempt := 1; attempt <= c.attempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
		raw, err := c.caller.Complete(ctx, screenPrompt, user)
		if err == nil {
			return strings.TrimSpace(raw), nil
		}
		if !isTransient(err) {
			log.Printf("classifier: non-retryable call error: %v", err)
			return "", nil
		}
		if attempt == c.attempts {
			return "", fmt.Errorf("classification failed after %d attempts: %w", c.attempts, err)
		}
		log.Printf("classifier: transient error (attempt %d/%d): %v", attempt, c.attempts, err)
		c.sleep(backoffDelay(attempt))
	}
	return "", nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout"),
		strings.Contains(msg, "timed out"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "unexpected eof"):
		return true
	}
	return false
}

func backoffDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 1 * time.Second
	}
	return 2 * time.Second
}

// AnthropicCaller is the production LLMCaller.
type AnthropicCaller struct {
	messages    AnthropicMessager
	model       anthropic.Model
	maxTokens   int64
	temperature float64
}

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

func NewAnthropicCaller(cfg ClassifierConfig) (*AnthropicCaller, error) {
	cfg = cfg.withDefaults()
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("anthropic API key not configured")
	}
	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return &AnthropicCaller{
		messages:    &client.Messages,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (a *AnthropicCaller) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(user))},
		Temperature: anthropic.Float(a.temperature),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}
