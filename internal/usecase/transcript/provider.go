// Package transcript resolves media URLs (YouTube videos, podcasts, tweets)
// into text by trying an ordered chain of providers.
package transcript

import (
	"context"
	"net/http"
	"time"

	"github.com/davisbuilds/summarize/internal/config"
	"github.com/davisbuilds/summarize/internal/domain/entity"
)

// Provider is one way of obtaining a transcript.
//
// A provider that finds nothing returns a resolution with a nil Text and no
// error. Errors are reserved for failed attempts (network, parse) and never
// stop the chain.
type Provider interface {
	// ID identifies the provider in diagnostics.
	ID() entity.ProviderID

	// CanHandle reports whether the provider applies to the context. It must
	// not perform I/O.
	CanHandle(pctx entity.ProviderContext) bool

	// FetchTranscript attempts to obtain the transcript.
	FetchTranscript(ctx context.Context, pctx entity.ProviderContext, opts FetchOptions) (entity.TranscriptResolution, error)
}

// GenericProvider marks providers that apply to any page rather than to a
// recognised media URL. They run inside the chain but do not make a URL
// "recognised" by Chain.Recognizes.
type GenericProvider interface {
	Generic() bool
}

// FetchOptions are shared by every provider attempt for one URL.
type FetchOptions struct {
	HTTPClient *http.Client

	// ApifyToken enables the managed transcript actor. Empty disables it.
	ApifyToken string

	// Mode restricts which YouTube providers may run.
	Mode config.TranscriptMode

	// Timeout bounds each provider's network calls. Zero means no extra bound.
	Timeout time.Duration
}

// Client returns the configured HTTP client or http.DefaultClient.
func (o FetchOptions) Client() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	return http.DefaultClient
}

// NotImplemented builds the resolution returned by placeholder providers.
func NotImplemented(provider string) entity.TranscriptResolution {
	return entity.TranscriptResolution{
		Metadata: map[string]any{
			"provider": provider,
			"reason":   "not_implemented",
		},
	}
}
