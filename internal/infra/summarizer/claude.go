package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"

	"github.com/davisbuilds/summarize/internal/observability/logging"
	"github.com/davisbuilds/summarize/internal/observability/tracing"
	"github.com/davisbuilds/summarize/internal/resilience/circuitbreaker"
	"github.com/davisbuilds/summarize/internal/utils/text"
)

const (
	claudeName = "Anthropic"

	// defaultClaudeMaxTokens is sent when no ceiling is configured; the
	// messages API requires one.
	defaultClaudeMaxTokens = 4096
)

// Claude implements Completer with the Anthropic messages API. The SDK's own
// retries are disabled so that one Complete call is one request.
type Claude struct {
	client          anthropic.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	config          Config
	metricsRecorder SummaryMetricsRecorder
}

// NewClaude creates a Claude executor.
func NewClaude(cfg Config) (*Claude, error) {
	cfg.CircuitBreaker = completionBreaker(cfg.CircuitBreaker, circuitbreaker.ClaudeAPIConfig())
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Anthropic configuration: %w", err)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Claude{
		client:          anthropic.NewClient(opts...),
		circuitBreaker:  circuitbreaker.New(cfg.CircuitBreaker),
		config:          cfg,
		metricsRecorder: NewPrometheusSummaryMetrics(),
	}, nil
}

// Complete implements Completer.
func (c *Claude) Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "summarizer.claude",
		attribute.String("model", c.config.Model),
		attribute.Int("prompt.characters", text.CountRunes(prompt)))
	defer span.End()

	result, err := circuitbreaker.Do(c.circuitBreaker, func() (string, error) {
		return c.doComplete(ctx, prompt, opts)
	})
	if err != nil {
		tracing.RecordError(span, err)
		if errors.Is(err, circuitbreaker.ErrOpenState) {
			logging.FromContext(ctx).Warn("claude api circuit breaker open, request rejected",
				slog.String("service", c.circuitBreaker.Name()),
				slog.String("state", c.circuitBreaker.State().String()))
			return "", fmt.Errorf("%s unavailable: %w", claudeName, err)
		}
		return "", err
	}
	return result, nil
}

// doComplete performs the API call without the circuit breaker.
func (c *Claude) doComplete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	logger := logging.FromContext(ctx)
	callCtx, cancel := withDeadline(ctx, opts.Timeout)
	defer cancel()

	maxTokens := int64(opts.MaxOutputTokens)
	if maxTokens <= 0 {
		maxTokens = defaultClaudeMaxTokens
	}

	logger.Debug("starting completion",
		slog.String("provider", "anthropic"),
		slog.String("model", c.config.Model),
		slog.Int64("max_output_tokens", maxTokens))

	start := time.Now()
	message, err := c.client.Messages.New(callCtx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.config.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	duration := time.Since(start)

	if err != nil {
		classified := classifyClaudeError(callCtx, err, opts.Timeout)
		c.metricsRecorder.RecordRequest("anthropic", outcomeOf(classified))
		logger.Error("completion failed",
			slog.String("provider", "anthropic"),
			slog.Duration("duration", duration),
			slog.String("error", classified.Error()))
		return "", classified
	}

	var b strings.Builder
	for _, block := range message.Content {
		if textBlock, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(textBlock.Text)
		}
	}
	summary := strings.TrimSpace(b.String())

	if string(message.StopReason) == "refusal" {
		c.metricsRecorder.RecordRequest("anthropic", "refusal")
		refusal := summary
		if refusal == "" {
			refusal = "the model declined to answer"
		}
		return "", &RefusalError{Provider: claudeName, Refusal: refusal}
	}
	if summary == "" {
		c.metricsRecorder.RecordRequest("anthropic", "empty")
		return "", fmt.Errorf("%s: %w", claudeName, ErrEmptyCompletion)
	}

	c.metricsRecorder.RecordRequest("anthropic", "success")
	recordSummary(ctx, c.metricsRecorder, summary, opts.TargetCharacters, duration)
	return summary, nil
}

// classifyClaudeError maps SDK errors onto the package taxonomy.
func classifyClaudeError(callCtx context.Context, err error, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Provider: claudeName, Timeout: timeout}
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode > 0 {
		raw := apiErr.RawJSON()
		body := gjson.Get(raw, "error.message").String()
		if body == "" {
			body = strings.TrimSpace(raw)
		}
		return &UpstreamError{Provider: claudeName, StatusCode: apiErr.StatusCode, Body: body}
	}

	return fmt.Errorf("%s request failed: %w", claudeName, err)
}
