package transcripts

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/davisbuilds/summarize/internal/domain/entity"
	"github.com/davisbuilds/summarize/internal/usecase/transcript"
	"github.com/davisbuilds/summarize/internal/utils/text"
)

// minHTMLTranscriptLength filters out "Show transcript" buttons and labels.
const minHTMLTranscriptLength = 80

// HTML reads transcript blocks that pages publish inline, such as podcast
// show notes or conference talk pages. It applies to any page with HTML.
type HTML struct{}

var (
	_ transcript.Provider        = HTML{}
	_ transcript.GenericProvider = HTML{}
)

// ID implements transcript.Provider.
func (HTML) ID() entity.ProviderID { return entity.ProviderHTML }

// Generic implements transcript.GenericProvider.
func (HTML) Generic() bool { return true }

// CanHandle implements transcript.Provider.
func (HTML) CanHandle(pctx entity.ProviderContext) bool {
	return strings.TrimSpace(pctx.HTMLString()) != ""
}

// FetchTranscript implements transcript.Provider.
//
// The longest element whose id or class mentions "transcript" wins. Nested
// matches are not double counted because only the longest block is kept.
func (HTML) FetchTranscript(_ context.Context, pctx entity.ProviderContext, _ transcript.FetchOptions) (entity.TranscriptResolution, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pctx.HTMLString()))
	if err != nil {
		return entity.TranscriptResolution{}, err
	}

	var best string
	doc.Find(`[id*="transcript"], [class*="transcript"], [id*="Transcript"], [class*="Transcript"]`).Each(func(_ int, s *goquery.Selection) {
		s.Find("script, style, button, noscript").Remove()
		candidate := text.NormalizeWhitespace(s.Text())
		if text.CountRunes(candidate) > text.CountRunes(best) {
			best = candidate
		}
	})

	if text.CountRunes(best) < minHTMLTranscriptLength {
		return entity.TranscriptResolution{}, nil
	}
	return entity.TranscriptResolution{
		Text:     &best,
		Source:   entity.ProviderHTML.Ptr(),
		Metadata: map[string]any{"provider": "html"},
	}, nil
}
