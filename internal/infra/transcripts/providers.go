package transcripts

import (
	"github.com/davisbuilds/summarize/internal/usecase/transcript"
)

// Options configures the default provider set.
type Options struct {
	// YouTubeBaseURL overrides the YouTube origin for innertube and caption calls.
	YouTubeBaseURL string
	// YtDlpBinary overrides the yt-dlp executable.
	YtDlpBinary string
	// ApifyBaseURL overrides the Apify API origin.
	ApifyBaseURL string
	// ApifyActor overrides the transcript actor.
	ApifyActor string
}

// DefaultProviders returns the providers in trial order: YouTube web
// providers first, then yt-dlp and Apify, then the placeholders, then the
// generic HTML provider.
func DefaultProviders(opts Options) []transcript.Provider {
	return []transcript.Provider{
		&Youtubei{BaseURL: opts.YouTubeBaseURL},
		&CaptionTracks{BaseURL: opts.YouTubeBaseURL},
		&YtDlp{Binary: opts.YtDlpBinary},
		&Apify{BaseURL: opts.ApifyBaseURL, Actor: opts.ApifyActor},
		Podcast{},
		Twitter{},
		HTML{},
	}
}

// NewDefaultChain builds the chain over DefaultProviders.
func NewDefaultChain(opts Options) *transcript.Chain {
	return transcript.NewChain(DefaultProviders(opts)...)
}
