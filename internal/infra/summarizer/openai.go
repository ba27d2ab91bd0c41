package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"

	"github.com/davisbuilds/summarize/internal/observability/logging"
	"github.com/davisbuilds/summarize/internal/observability/tracing"
	"github.com/davisbuilds/summarize/internal/resilience/circuitbreaker"
	"github.com/davisbuilds/summarize/internal/utils/text"
)

const openAIName = "OpenAI"

// OpenAI implements Completer with the chat completions API.
type OpenAI struct {
	client          *openai.Client
	circuitBreaker  *circuitbreaker.CircuitBreaker
	config          Config
	metricsRecorder SummaryMetricsRecorder
}

// NewOpenAI creates an OpenAI executor. BaseURL may point at any compatible
// endpoint.
func NewOpenAI(cfg Config) (*OpenAI, error) {
	cfg.CircuitBreaker = completionBreaker(cfg.CircuitBreaker, circuitbreaker.OpenAIAPIConfig())
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid OpenAI configuration: %w", err)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientConfig.HTTPClient = cfg.HTTPClient
	} else {
		clientConfig.HTTPClient = &http.Client{}
	}

	return &OpenAI{
		client:          openai.NewClientWithConfig(clientConfig),
		circuitBreaker:  circuitbreaker.New(cfg.CircuitBreaker),
		config:          cfg,
		metricsRecorder: NewPrometheusSummaryMetrics(),
	}, nil
}

// Complete implements Completer.
func (o *OpenAI) Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "summarizer.openai",
		attribute.String("model", o.config.Model),
		attribute.Int("prompt.characters", text.CountRunes(prompt)))
	defer span.End()

	result, err := circuitbreaker.Do(o.circuitBreaker, func() (string, error) {
		return o.doComplete(ctx, prompt, opts)
	})
	if err != nil {
		tracing.RecordError(span, err)
		if errors.Is(err, circuitbreaker.ErrOpenState) {
			logging.FromContext(ctx).Warn("openai api circuit breaker open, request rejected",
				slog.String("service", o.circuitBreaker.Name()),
				slog.String("state", o.circuitBreaker.State().String()))
			return "", fmt.Errorf("%s unavailable: %w", openAIName, err)
		}
		return "", err
	}
	return result, nil
}

// doComplete performs the API call without the circuit breaker.
func (o *OpenAI) doComplete(ctx context.Context, prompt string, opts CompleteOptions) (string, error) {
	logger := logging.FromContext(ctx)
	callCtx, cancel := withDeadline(ctx, opts.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: o.config.Model,
		Messages: []openai.ChatCompletionMessage{{
			Role:    openai.ChatMessageRoleUser,
			Content: prompt,
		}},
	}
	if opts.MaxOutputTokens > 0 {
		req.MaxTokens = opts.MaxOutputTokens
	}

	logger.Debug("starting completion",
		slog.String("provider", "openai"),
		slog.String("model", o.config.Model),
		slog.Int("max_output_tokens", opts.MaxOutputTokens))

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(callCtx, req)
	duration := time.Since(start)

	if err != nil {
		classified := classifyOpenAIError(callCtx, err, opts.Timeout)
		o.metricsRecorder.RecordRequest("openai", outcomeOf(classified))
		logger.Error("completion failed",
			slog.String("provider", "openai"),
			slog.Duration("duration", duration),
			slog.String("error", classified.Error()))
		return "", classified
	}

	if len(resp.Choices) == 0 {
		o.metricsRecorder.RecordRequest("openai", "empty")
		return "", fmt.Errorf("%s: %w", openAIName, ErrEmptyCompletion)
	}

	message := resp.Choices[0].Message
	if refusal := strings.TrimSpace(message.Refusal); refusal != "" && strings.TrimSpace(message.Content) == "" {
		o.metricsRecorder.RecordRequest("openai", "refusal")
		return "", &RefusalError{Provider: openAIName, Refusal: refusal}
	}

	summary := strings.TrimSpace(message.Content)
	if summary == "" {
		o.metricsRecorder.RecordRequest("openai", "empty")
		return "", fmt.Errorf("%s: %w", openAIName, ErrEmptyCompletion)
	}

	o.metricsRecorder.RecordRequest("openai", "success")
	recordSummary(ctx, o.metricsRecorder, summary, opts.TargetCharacters, duration)
	return summary, nil
}

// classifyOpenAIError maps client errors onto the package taxonomy.
func classifyOpenAIError(callCtx context.Context, err error, timeout time.Duration) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Provider: openAIName, Timeout: timeout}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return &UpstreamError{Provider: openAIName, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		body := strings.TrimSpace(string(reqErr.Body))
		if body == "" && reqErr.Err != nil {
			body = reqErr.Err.Error()
		}
		return &UpstreamError{Provider: openAIName, StatusCode: reqErr.HTTPStatusCode, Body: body}
	}

	return fmt.Errorf("%s request failed: %w", openAIName, err)
}
