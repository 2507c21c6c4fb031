package conversation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/googleapi"

	"github.com/elroble/vendibot/internal/observability/metrics"
	"github.com/elroble/vendibot/pkg/logging"
)

// ErrorKind classifies generation failures so callers can branch on the
// class of fault without inspecting provider-specific errors.
type ErrorKind string

const (
	KindOverloaded        ErrorKind = "overloaded"
	KindBadRequest        ErrorKind = "bad_request"
	KindNetworkError      ErrorKind = "network_error"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindUnknown           ErrorKind = "unknown"
)

// GenerationError is the typed failure a Gateway call resolves to after
// retries exhaust.
type GenerationError struct {
	Kind ErrorKind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("conversation: generation failed (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Generation is a successful gateway result. Truncated is set when the
// remote stopped early (token limit or safety filter); the partial text is
// still returned rather than discarded.
type Generation struct {
	Text      string
	Truncated bool
	Usage     TokenUsage
}

// GatewayConfig tunes retry and timeout behavior.
type GatewayConfig struct {
	MaxRetries     int
	BaseDelay      time.Duration
	BackoffFactor  int
	RequestTimeout time.Duration
}

func (c *GatewayConfig) applyDefaults() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = 2 * time.Second
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = 2
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 45 * time.Second
	}
}

// Gateway wraps an LLMClient with per-request timeouts, transient-failure
// retries with exponential backoff, and error classification. Backoff
// sleeps are context-aware so they never stall another user's pipeline.
type Gateway struct {
	client  LLMClient
	cfg     GatewayConfig
	tracer  trace.Tracer
	logger  *logging.Logger
	metrics *metrics.ConversationMetrics
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewGateway creates a Gateway around the given client.
func NewGateway(client LLMClient, cfg GatewayConfig, logger *logging.Logger) *Gateway {
	if client == nil {
		panic("conversation: llm client cannot be nil")
	}
	cfg.applyDefaults()
	if logger == nil {
		logger = logging.Default()
	}
	return &Gateway{
		client: client,
		cfg:    cfg,
		tracer: otel.Tracer("vendibot.internal.conversation.gateway"),
		logger: logger,
		sleep:  sleepCtx,
	}
}

// SetMetrics attaches pipeline metrics. The gateway works without them.
func (g *Gateway) SetMetrics(m *metrics.ConversationMetrics) {
	g.metrics = m
}

// Generate sends the request and resolves to either a Generation or a
// *GenerationError. It never returns a raw provider error.
func (g *Gateway) Generate(ctx context.Context, req LLMRequest) (*Generation, *GenerationError) {
	ctx, span := g.tracer.Start(ctx, "conversation.generate")
	defer span.End()

	delay := g.cfg.BaseDelay
	var lastErr *GenerationError

	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			g.metrics.ObserveGenerationRetry()
			if err := g.sleep(ctx, delay); err != nil {
				span.RecordError(err)
				return nil, &GenerationError{Kind: KindNetworkError, Err: err}
			}
			delay *= time.Duration(g.cfg.BackoffFactor)
		}

		reqCtx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
		resp, err := g.client.Complete(reqCtx, req)
		cancel()

		if err == nil {
			return &Generation{
				Text:      resp.Text,
				Truncated: isTruncatedStop(resp.StopReason),
				Usage:     resp.Usage,
			}, nil
		}

		lastErr = classify(err)
		span.RecordError(err)

		if !retryable(lastErr.Kind) {
			g.logger.Warn("generation failed, not retryable",
				"kind", lastErr.Kind, "error", err)
			g.metrics.ObserveGenerationError(string(lastErr.Kind))
			return nil, lastErr
		}
		g.logger.Warn("generation attempt failed",
			"attempt", attempt+1, "kind", lastErr.Kind, "error", err)
	}

	g.logger.Error("generation retries exhausted",
		"kind", lastErr.Kind, "retries", g.cfg.MaxRetries)
	g.metrics.ObserveGenerationError(string(lastErr.Kind))
	return nil, lastErr
}

func retryable(kind ErrorKind) bool {
	return kind == KindOverloaded || kind == KindNetworkError
}

func classify(err error) *GenerationError {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 429, 503:
			return &GenerationError{Kind: KindOverloaded, Err: err}
		case 400:
			return &GenerationError{Kind: KindBadRequest, Err: err}
		}
		return &GenerationError{Kind: KindUnknown, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return &GenerationError{Kind: KindNetworkError, Err: err}
	}

	// Empty or unusable provider output.
	msg := err.Error()
	if strings.Contains(msg, "no candidates") || strings.Contains(msg, "empty content") {
		return &GenerationError{Kind: KindMalformedResponse, Err: err}
	}

	return &GenerationError{Kind: KindUnknown, Err: err}
}

func isTruncatedStop(stopReason string) bool {
	norm := strings.ToUpper(strings.TrimSpace(stopReason))
	norm = strings.TrimPrefix(norm, "FINISHREASON")
	norm = strings.ReplaceAll(norm, "_", "")
	switch norm {
	case "MAXTOKENS", "SAFETY", "RECITATION":
		return true
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
