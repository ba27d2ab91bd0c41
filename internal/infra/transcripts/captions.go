package transcripts

import (
	"context"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/davisbuilds/summarize/internal/domain/entity"
	"github.com/davisbuilds/summarize/internal/usecase/transcript"
)

// CaptionTracks reads the caption track list embedded in the watch page's
// player response and downloads the best track as json3.
type CaptionTracks struct {
	// BaseURL is the YouTube origin. Empty means DefaultYouTubeBaseURL.
	BaseURL string
}

var _ transcript.Provider = (*CaptionTracks)(nil)

// ID implements transcript.Provider.
func (p *CaptionTracks) ID() entity.ProviderID { return entity.ProviderCaptionTracks }

// CanHandle implements transcript.Provider.
func (p *CaptionTracks) CanHandle(pctx entity.ProviderContext) bool {
	_, ok := youtubeVideo(pctx)
	return ok
}

// FetchTranscript implements transcript.Provider.
func (p *CaptionTracks) FetchTranscript(ctx context.Context, pctx entity.ProviderContext, opts transcript.FetchOptions) (entity.TranscriptResolution, error) {
	videoID, ok := youtubeVideo(pctx)
	if !ok {
		return entity.TranscriptResolution{}, nil
	}

	base := p.BaseURL
	if base == "" {
		base = DefaultYouTubeBaseURL
	}
	page, err := watchPage(ctx, base, videoID, pctx, opts)
	if err != nil {
		return entity.TranscriptResolution{}, err
	}

	player, ok := playerResponse(page)
	if !ok {
		return entity.TranscriptResolution{
			Metadata: map[string]any{"provider": "captionTracks", "reason": "no_player_response"},
		}, nil
	}

	track, ok := pickCaptionTrack(player.Get("captions.playerCaptionsTracklistRenderer.captionTracks"))
	if !ok {
		return entity.TranscriptResolution{
			Metadata: map[string]any{"provider": "captionTracks", "reason": "no_caption_tracks"},
		}, nil
	}

	trackURL, err := json3URL(base, track.Get("baseUrl").String())
	if err != nil {
		return entity.TranscriptResolution{}, err
	}
	doc, err := getText(ctx, opts, trackURL)
	if err != nil {
		return entity.TranscriptResolution{}, err
	}

	return entity.TranscriptResolution{
		Text:   json3Text(doc),
		Source: entity.ProviderCaptionTracks.Ptr(),
		Metadata: map[string]any{
			"provider":       "captionTracks",
			"video_id":       videoID,
			"language":       track.Get("languageCode").String(),
			"auto_generated": track.Get("kind").String() == "asr",
		},
	}, nil
}

// pickCaptionTrack prefers a manual English track, then an automatic English
// track, then the first track.
func pickCaptionTrack(tracks gjson.Result) (gjson.Result, bool) {
	all := tracks.Array()
	if len(all) == 0 {
		return gjson.Result{}, false
	}

	score := func(t gjson.Result) int {
		s := 0
		if strings.HasPrefix(strings.ToLower(t.Get("languageCode").String()), "en") {
			s += 2
		}
		if t.Get("kind").String() != "asr" {
			s++
		}
		return s
	}

	best := all[0]
	for _, t := range all[1:] {
		if score(t) > score(best) {
			best = t
		}
	}
	if best.Get("baseUrl").String() == "" {
		return gjson.Result{}, false
	}
	return best, true
}

// json3URL resolves a track base URL against the YouTube origin and forces the
// json3 format.
func json3URL(base, trackURL string) (string, error) {
	origin, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(trackURL)
	if err != nil {
		return "", err
	}
	u := origin.ResolveReference(ref)
	q := u.Query()
	q.Set("fmt", "json3")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
