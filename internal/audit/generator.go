package audit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nikodemkorbiel18-create/scale-5000/internal/llm"
	"github.com/nikodemkorbiel18-create/scale-5000/pkg/logger"
	"github.com/nikodemkorbiel18-create/scale-5000/pkg/metrics"
)

// Generator turns an intake into an audit result or a typed failure
// (ErrProviderUnavailable, ErrMalformedModelOutput). It never persists.
type Generator interface {
	Mode() Mode
	Generate(ctx context.Context, in Intake) (*Result, error)
}

// ChatClient is the model dependency; *llm.Client and *llm.Lazy satisfy it.
type ChatClient interface {
	Complete(ctx context.Context, req llm.ChatRequest) (string, error)
}

// GeneratorConfig fixes the request parameters for every call.
type GeneratorConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	// Timeout bounds each model call; zero means DefaultTimeout.
	Timeout time.Duration
	// RetryMalformed allows one re-prompt with StricterPrompt.
	RetryMalformed bool
}

const DefaultTimeout = 30 * time.Second

func (c GeneratorConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

// NewGenerator returns the generator for mode.
func NewGenerator(mode Mode, client ChatClient, cfg GeneratorConfig) (Generator, error) {
	switch mode {
	case ModeStructured:
		if cfg.MaxTokens == 0 {
			cfg.MaxTokens = 1500
		}
		return &StructuredGenerator{client: client, cfg: cfg}, nil
	case ModeSimple:
		if cfg.MaxTokens == 0 {
			cfg.MaxTokens = 500
		}
		return &SimpleGenerator{client: client, cfg: cfg}, nil
	}
	return nil, fmt.Errorf("unknown audit mode %q", mode)
}

// call performs one bounded model round trip. Every failure, including a
// deadline, is reported as ErrProviderUnavailable.
func call(ctx context.Context, client ChatClient, cfg GeneratorConfig, mode Mode, p Prompt, jsonMode bool) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.timeout())
	defer cancel()

	start := time.Now()
	raw, err := client.Complete(ctx, llm.ChatRequest{
		Model: cfg.Model,
		Messages: []llm.Message{
			{Role: "system", Content: p.System},
			{Role: "user", Content: p.User},
		},
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		JSONMode:    jsonMode,
	})
	metrics.ProviderLatency.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: timed out after %s: %v", ErrProviderUnavailable, cfg.timeout(), err)
		}
		return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	return raw, nil
}

// StructuredGenerator requests JSON output and validates it against the
// result schema.
type StructuredGenerator struct {
	client ChatClient
	cfg    GeneratorConfig
}

func (g *StructuredGenerator) Mode() Mode { return ModeStructured }

func (g *StructuredGenerator) Generate(ctx context.Context, in Intake) (*Result, error) {
	p := BuildPrompt(in)
	res, err := g.attempt(ctx, p)
	if err != nil && errors.Is(err, ErrMalformedModelOutput) && g.cfg.RetryMalformed {
		logger.Warnf("structured audit: malformed model output, re-prompting once: %v", err)
		res, err = g.attempt(ctx, StricterPrompt(p))
	}
	return res, err
}

func (g *StructuredGenerator) attempt(ctx context.Context, p Prompt) (*Result, error) {
	raw, err := call(ctx, g.client, g.cfg, ModeStructured, p, true)
	if err != nil {
		return nil, err
	}
	sr, err := ParseStructured(raw)
	if err != nil {
		return nil, err
	}
	return &Result{Mode: ModeStructured, Text: Format(*sr), Structured: sr}, nil
}

// SimpleGenerator returns prose. The only check is that it is non-empty.
type SimpleGenerator struct {
	client ChatClient
	cfg    GeneratorConfig
}

func (g *SimpleGenerator) Mode() Mode { return ModeSimple }

func (g *SimpleGenerator) Generate(ctx context.Context, in Intake) (*Result, error) {
	p := BuildSimplePrompt(in)
	text, err := g.attempt(ctx, p)
	if err != nil && errors.Is(err, ErrMalformedModelOutput) && g.cfg.RetryMalformed {
		logger.Warnf("simple audit: empty model output, re-prompting once")
		text, err = g.attempt(ctx, p)
	}
	if err != nil {
		return nil, err
	}
	return &Result{Mode: ModeSimple, Text: text + "\n\n---\n\n" + DisclaimerLine}, nil
}

func (g *SimpleGenerator) attempt(ctx context.Context, p Prompt) (string, error) {
	raw, err := call(ctx, g.client, g.cfg, ModeSimple, p, false)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", ErrMalformedModelOutput)
	}
	return text, nil
}
