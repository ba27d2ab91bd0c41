// Package summarize runs one invocation end to end: resolve the link into
// content, budget it into a prompt and ask the completion API for a summary.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/davisbuilds/summarize/internal/config"
	"github.com/davisbuilds/summarize/internal/domain/entity"
	"github.com/davisbuilds/summarize/internal/infra/summarizer"
	"github.com/davisbuilds/summarize/internal/observability/logging"
	"github.com/davisbuilds/summarize/internal/observability/metrics"
	"github.com/davisbuilds/summarize/internal/observability/tracing"
	"github.com/davisbuilds/summarize/internal/resilience/retry"
	"github.com/davisbuilds/summarize/internal/usecase/linkpreview"
	"github.com/davisbuilds/summarize/internal/utils/text"
)

// DefaultContentBudget is the number of characters of content allowed into a prompt.
const DefaultContentBudget = 120_000

// LinkFetcher resolves a URL into content.
type LinkFetcher interface {
	FetchLinkContent(ctx context.Context, url string, opts linkpreview.Options) (*entity.ContentFetchResult, error)
}

// TokenEstimator counts prompt tokens for logging.
type TokenEstimator func(text, model string) (int, error)

// Config holds the service settings.
type Config struct {
	// ContentBudget caps the content placed in a prompt. Zero means DefaultContentBudget.
	ContentBudget int

	// Model is used for token estimates only.
	Model string

	// RetryDelay overrides the initial backoff between completion attempts.
	// Zero keeps retry.CompletionConfig's delay.
	RetryDelay time.Duration
}

// RunOptions select what a run produces.
type RunOptions struct {
	// ExtractOnly returns the resolved content without budgeting or summarizing.
	ExtractOnly bool

	// PromptOnly returns the prompt that would be sent, without sending it.
	PromptOnly bool
}

// Output is the result of one run.
type Output struct {
	URL     string
	Fetch   *entity.ContentFetchResult
	Budget  *entity.ContentBudgetResult
	Prompt  string
	Summary string

	MaxOutputTokens int
	Attempts        int
}

// Text returns what the CLI prints: the summary, the prompt or the content.
func (o *Output) Text() string {
	switch {
	case o.Summary != "":
		return o.Summary
	case o.Prompt != "":
		return o.Prompt
	case o.Fetch != nil:
		return o.Fetch.Content
	}
	return ""
}

// Service runs summarize invocations.
type Service struct {
	fetcher   LinkFetcher
	completer summarizer.Completer
	estimator TokenEstimator
	config    Config
}

// NewService creates a Service. completer may be nil when only extract-only
// and prompt-only runs are made.
func NewService(fetcher LinkFetcher, completer summarizer.Completer, cfg Config) *Service {
	if cfg.ContentBudget <= 0 {
		cfg.ContentBudget = DefaultContentBudget
	}
	return &Service{
		fetcher:   fetcher,
		completer: completer,
		config:    cfg,
	}
}

// WithTokenEstimator sets the prompt token estimator used in logs.
func (s *Service) WithTokenEstimator(estimator TokenEstimator) *Service {
	s.estimator = estimator
	return s
}

// Run resolves rawURL and produces the output selected by opts.
func (s *Service) Run(ctx context.Context, rawURL string, settings config.ResolvedRunSettings, opts RunOptions) (*Output, error) {
	if opts.ExtractOnly && opts.PromptOnly {
		return nil, ErrConflictingModes
	}
	mode := runMode(opts)

	ctx, span := tracing.StartSpan(ctx, "summarize.run",
		attribute.String("url", rawURL),
		attribute.String("mode", mode))
	defer span.End()

	out, err := s.run(ctx, rawURL, settings, opts)
	if err != nil {
		tracing.RecordError(span, err)
		metrics.RecordRun(mode, "failure")
		return nil, err
	}
	metrics.RecordRun(mode, "success")
	return out, nil
}

func (s *Service) run(ctx context.Context, rawURL string, settings config.ResolvedRunSettings, opts RunOptions) (*Output, error) {
	logger := logging.FromContext(ctx)

	if !opts.ExtractOnly && !opts.PromptOnly && s.completer == nil {
		return nil, ErrNoCompleter
	}

	result, err := s.fetcher.FetchLinkContent(ctx, rawURL, linkpreview.OptionsFromSettings(settings))
	if err != nil {
		return nil, err
	}
	out := &Output{URL: rawURL, Fetch: result}

	if opts.ExtractOnly {
		logger.Info("extracted content",
			slog.String("url", rawURL),
			slog.Int("characters", text.CountRunes(result.Content)))
		return out, nil
	}

	if strings.TrimSpace(result.Content) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyContent, rawURL)
	}

	budget := text.ApplyContentBudget(result.Content, s.config.ContentBudget)
	if budget.Truncated {
		metrics.RecordContentTruncated()
		logger.Warn("content clipped to budget",
			slog.Int("total_characters", budget.TotalCharacters),
			slog.Int("budget", s.config.ContentBudget))
	}
	out.Budget = &budget

	target := settings.Length.TargetCharacters()
	out.Prompt = BuildPrompt(PromptInput{
		URL:              rawURL,
		Title:            result.Title,
		SiteName:         result.SiteName,
		TargetCharacters: target,
		Budget:           budget,
	})
	s.logPromptSize(ctx, out.Prompt)

	if opts.PromptOnly {
		return out, nil
	}

	out.MaxOutputTokens = settings.MaxOutputTokens
	if out.MaxOutputTokens <= 0 {
		out.MaxOutputTokens = EstimateMaxOutputTokens(target)
	}

	summary, attempts, err := s.complete(ctx, out.Prompt, settings, summarizer.CompleteOptions{
		Timeout:          settings.Timeout,
		MaxOutputTokens:  out.MaxOutputTokens,
		TargetCharacters: target,
	})
	out.Attempts = attempts
	if err != nil {
		return nil, err
	}
	out.Summary = summary
	return out, nil
}

// complete calls the completer under the run's retry policy. Each attempt
// gets the full per-call timeout.
func (s *Service) complete(ctx context.Context, prompt string, settings config.ResolvedRunSettings, opts summarizer.CompleteOptions) (string, int, error) {
	cfg := retry.CompletionConfig(settings.Retries)
	if s.config.RetryDelay > 0 {
		cfg.InitialDelay = s.config.RetryDelay
	}
	cfg.ShouldRetry = func(err error) bool {
		return ctx.Err() == nil && shouldRetryCompletion(err)
	}

	var (
		summary  string
		attempts int
	)
	err := retry.WithBackoff(ctx, cfg, func() error {
		attempts++
		metrics.RecordCompletionAttempt()
		var err error
		summary, err = s.completer.Complete(ctx, prompt, opts)
		return err
	})
	return summary, attempts, err
}

// shouldRetryCompletion retries timeouts and transient upstream statuses.
// Refusals and other client errors are final.
func shouldRetryCompletion(err error) bool {
	if errors.Is(err, summarizer.ErrRequestTimeout) {
		return true
	}
	var upstream *summarizer.UpstreamError
	if errors.As(err, &upstream) {
		return retry.IsRetryable(err)
	}
	return false
}

func (s *Service) logPromptSize(ctx context.Context, prompt string) {
	attrs := []any{slog.Int("prompt_characters", text.CountRunes(prompt))}
	if s.estimator != nil {
		if tokens, err := s.estimator(prompt, s.config.Model); err == nil {
			attrs = append(attrs, slog.Int("prompt_tokens", tokens))
		}
	}
	logging.FromContext(ctx).Debug("prompt built", attrs...)
}

func runMode(opts RunOptions) string {
	switch {
	case opts.ExtractOnly:
		return "extract"
	case opts.PromptOnly:
		return "prompt"
	}
	return "summary"
}
