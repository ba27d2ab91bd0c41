package transcript

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/davisbuilds/summarize/internal/config"
	"github.com/davisbuilds/summarize/internal/domain/entity"
	"github.com/davisbuilds/summarize/internal/observability/logging"
	"github.com/davisbuilds/summarize/internal/observability/metrics"
	"github.com/davisbuilds/summarize/internal/observability/tracing"
)

// Chain is an immutable, ordered provider registry.
type Chain struct {
	providers []Provider
}

// NewChain builds a chain that tries providers in the given order.
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: append([]Provider(nil), providers...)}
}

// Providers returns the registered providers in trial order.
func (c *Chain) Providers() []Provider {
	return append([]Provider(nil), c.providers...)
}

// Recognizes reports whether a non-generic provider claims the URL. Only
// recognised URLs take the transcript path.
func (c *Chain) Recognizes(pctx entity.ProviderContext) bool {
	for _, p := range c.providers {
		if isGeneric(p) {
			continue
		}
		if p.CanHandle(pctx) {
			return true
		}
	}
	return false
}

// Resolve tries providers in order and stops at the first one that returns
// non-empty text.
//
// Providers disallowed by opts.Mode or whose CanHandle is false are skipped
// without being recorded. Every attempted provider is appended to
// AttemptedProviders; when text is found, Provider is set to the last one.
// Provider errors are noted and the chain continues.
func (c *Chain) Resolve(ctx context.Context, pctx entity.ProviderContext, opts FetchOptions) (entity.TranscriptResolution, entity.TranscriptDiagnostics) {
	ctx, span := tracing.StartSpan(ctx, "transcript.resolve", attribute.String("url", pctx.URL))
	defer span.End()

	logger := logging.FromContext(ctx)
	diag := entity.TranscriptDiagnostics{AttemptedProviders: []entity.ProviderID{}}
	var notes []string

	for _, p := range c.providers {
		id := p.ID()
		if !ModeAllows(opts.Mode, id) || !p.CanHandle(pctx) {
			continue
		}
		diag.AttemptedProviders = append(diag.AttemptedProviders, id)

		res, err := p.FetchTranscript(ctx, pctx, opts)
		if err != nil {
			logger.Warn("transcript provider failed",
				slog.String("provider", string(id)),
				slog.String("url", pctx.URL),
				slog.Any("error", err))
			metrics.RecordTranscriptAttempt(string(id), "error")
			notes = append(notes, fmt.Sprintf("%s: %v", id, err))
			continue
		}

		if res.Text == nil || strings.TrimSpace(*res.Text) == "" {
			metrics.RecordTranscriptAttempt(string(id), "empty")
			if reason, ok := res.Metadata["reason"].(string); ok && reason != "" {
				notes = append(notes, fmt.Sprintf("%s: %s", describe(id, res), reason))
			}
			continue
		}

		metrics.RecordTranscriptAttempt(string(id), "text")
		diag.TextProvided = true
		diag.Provider = id.Ptr()
		diag.Notes = strings.Join(notes, "; ")
		if res.Source == nil {
			res.Source = id.Ptr()
		}
		logger.Debug("transcript resolved",
			slog.String("provider", string(id)),
			slog.Int("characters", len(*res.Text)))
		span.SetAttributes(attribute.String("transcript.provider", string(id)))
		return res, diag
	}

	diag.Notes = strings.Join(notes, "; ")
	return entity.TranscriptResolution{}, diag
}

// ModeAllows reports whether a provider may run under the transcript mode.
// The mode only restricts YouTube providers.
func ModeAllows(mode config.TranscriptMode, id entity.ProviderID) bool {
	switch id {
	case entity.ProviderYoutubei, entity.ProviderCaptionTracks:
		return mode == "" || mode == config.TranscriptAuto || mode == config.TranscriptWeb
	case entity.ProviderYtDlp:
		return mode == "" || mode == config.TranscriptAuto || mode == config.TranscriptYtDlp
	case entity.ProviderApify:
		return mode == "" || mode == config.TranscriptAuto || mode == config.TranscriptApify
	default:
		return true
	}
}

func isGeneric(p Provider) bool {
	g, ok := p.(GenericProvider)
	return ok && g.Generic()
}

// describe names a provider in notes, preferring the metadata provider label
// so that placeholder providers sharing an ID stay distinguishable.
func describe(id entity.ProviderID, res entity.TranscriptResolution) string {
	if name, ok := res.Metadata["provider"].(string); ok && name != "" {
		return name
	}
	return string(id)
}
