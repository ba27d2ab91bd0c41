package transcripts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/davisbuilds/summarize/internal/domain/entity"
	"github.com/davisbuilds/summarize/internal/usecase/transcript"
)

const (
	defaultClientVersion = "2.20240101.00.00"
	segmentsPath         = "actions.0.updateEngagementPanelAction.content.transcriptRenderer.content.transcriptSearchPanelRenderer.body.transcriptSegmentListRenderer.initialSegments"
)

// Youtubei fetches transcripts through the innertube get_transcript endpoint
// that the YouTube web player itself uses.
type Youtubei struct {
	// BaseURL is the YouTube origin. Empty means DefaultYouTubeBaseURL.
	BaseURL string
}

var _ transcript.Provider = (*Youtubei)(nil)

// ID implements transcript.Provider.
func (p *Youtubei) ID() entity.ProviderID { return entity.ProviderYoutubei }

// CanHandle implements transcript.Provider.
func (p *Youtubei) CanHandle(pctx entity.ProviderContext) bool {
	_, ok := youtubeVideo(pctx)
	return ok
}

// FetchTranscript implements transcript.Provider.
//
// The innertube key and the transcript panel params are scraped from the watch
// page. Videos without a transcript panel resolve to nil text with reason
// "no_transcript_params".
func (p *Youtubei) FetchTranscript(ctx context.Context, pctx entity.ProviderContext, opts transcript.FetchOptions) (entity.TranscriptResolution, error) {
	videoID, ok := youtubeVideo(pctx)
	if !ok {
		return entity.TranscriptResolution{}, nil
	}

	page, err := watchPage(ctx, p.baseURL(), videoID, pctx, opts)
	if err != nil {
		return entity.TranscriptResolution{}, err
	}

	apiKey := firstSubmatch(innertubeKeyRe, page)
	params := firstSubmatch(transcriptParamsRe, page)
	if apiKey == "" || params == "" {
		return entity.TranscriptResolution{
			Metadata: map[string]any{"provider": "youtubei", "reason": "no_transcript_params"},
		}, nil
	}
	clientVersion := firstSubmatch(clientVersionRe, page)
	if clientVersion == "" {
		clientVersion = defaultClientVersion
	}

	body, err := p.getTranscript(ctx, opts, apiKey, clientVersion, params)
	if err != nil {
		return entity.TranscriptResolution{}, err
	}

	var lines []string
	gjson.Get(body, segmentsPath).ForEach(func(_, segment gjson.Result) bool {
		var b strings.Builder
		segment.Get("transcriptSegmentRenderer.snippet.runs").ForEach(func(_, run gjson.Result) bool {
			b.WriteString(run.Get("text").String())
			return true
		})
		lines = append(lines, b.String())
		return true
	})

	return entity.TranscriptResolution{
		Text:     joinSegments(lines),
		Source:   entity.ProviderYoutubei.Ptr(),
		Metadata: map[string]any{"provider": "youtubei", "video_id": videoID},
	}, nil
}

func (p *Youtubei) getTranscript(ctx context.Context, opts transcript.FetchOptions, apiKey, clientVersion, params string) (string, error) {
	ctx, cancel := withTimeout(ctx, opts.Timeout)
	defer cancel()

	payload, err := json.Marshal(map[string]any{
		"context": map[string]any{
			"client": map[string]any{
				"clientName":    "WEB",
				"clientVersion": clientVersion,
				"hl":            "en",
			},
		},
		"params": params,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(p.baseURL(), "/") + "/youtubei/v1/get_transcript?key=" + url.QueryEscape(apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := opts.Client().Do(req)
	if err != nil {
		return "", fmt.Errorf("get_transcript: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxWatchPageSize))
	if err != nil {
		return "", fmt.Errorf("read get_transcript response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("get_transcript returned HTTP %d", resp.StatusCode)
	}
	return string(data), nil
}

func (p *Youtubei) baseURL() string {
	if p.BaseURL == "" {
		return DefaultYouTubeBaseURL
	}
	return p.BaseURL
}
