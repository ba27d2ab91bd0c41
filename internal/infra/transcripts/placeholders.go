package transcripts

import (
	"context"
	"net/url"
	"strings"

	"github.com/davisbuilds/summarize/internal/domain/entity"
	"github.com/davisbuilds/summarize/internal/infra/nitter"
	"github.com/davisbuilds/summarize/internal/usecase/transcript"
)

var podcastHosts = map[string]bool{
	"podcasts.apple.com":  true,
	"pca.st":              true,
	"overcast.fm":         true,
	"castbox.fm":          true,
	"podcasts.google.com": true,
}

// Podcast recognises podcast episode URLs. Podcast transcription is not
// available yet, so it always resolves to nil text.
type Podcast struct{}

var _ transcript.Provider = Podcast{}

// ID implements transcript.Provider.
func (Podcast) ID() entity.ProviderID { return entity.ProviderUnavailable }

// CanHandle implements transcript.Provider.
func (Podcast) CanHandle(pctx entity.ProviderContext) bool {
	u, err := url.Parse(pctx.URL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := strings.ToLower(u.Path)

	switch {
	case podcastHosts[host]:
		return true
	case host == "open.spotify.com":
		return strings.HasPrefix(path, "/show/") || strings.HasPrefix(path, "/episode/")
	}
	return strings.Contains(path, "/podcast/") || strings.Contains(path, "/podcasts/")
}

// FetchTranscript implements transcript.Provider.
func (Podcast) FetchTranscript(context.Context, entity.ProviderContext, transcript.FetchOptions) (entity.TranscriptResolution, error) {
	return transcript.NotImplemented("podcast"), nil
}

// Twitter recognises tweet URLs on twitter.com and x.com. Video transcripts
// for tweets are not available yet; the tweet text itself is read through the
// mirror rotation.
type Twitter struct{}

var _ transcript.Provider = Twitter{}

// ID implements transcript.Provider.
func (Twitter) ID() entity.ProviderID { return entity.ProviderUnavailable }

// CanHandle implements transcript.Provider.
func (Twitter) CanHandle(pctx entity.ProviderContext) bool {
	return nitter.IsStatusURL(pctx.URL)
}

// FetchTranscript implements transcript.Provider.
func (Twitter) FetchTranscript(context.Context, entity.ProviderContext, transcript.FetchOptions) (entity.TranscriptResolution, error) {
	return transcript.NotImplemented("twitter"), nil
}
