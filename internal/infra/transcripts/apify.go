package transcripts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/davisbuilds/summarize/internal/domain/entity"
	"github.com/davisbuilds/summarize/internal/observability/logging"
	"github.com/davisbuilds/summarize/internal/usecase/transcript"
)

const (
	// DefaultApifyBaseURL is the Apify API origin.
	DefaultApifyBaseURL = "https://api.apify.com"

	// DefaultApifyActor is the transcript actor run synchronously per video.
	DefaultApifyActor = "pintostudio~youtube-transcript-scraper"

	maxApifyResponseSize = 16 << 20
)

// Apify runs a managed transcript actor on the Apify platform.
//
// Rate limits (429) and server errors are retried by a retryablehttp client;
// a missing token resolves to nil text with reason "missing_api_token".
type Apify struct {
	// BaseURL is the API origin. Empty means DefaultApifyBaseURL.
	BaseURL string
	// Actor is the actor id ("user~name"). Empty means DefaultApifyActor.
	Actor string
	// RetryMax is the number of retries for 429 and 5xx responses. Zero means 2.
	RetryMax int
	// RetryWait is the minimum backoff between retries. Zero means one second.
	RetryWait time.Duration
}

var _ transcript.Provider = (*Apify)(nil)

// ID implements transcript.Provider.
func (p *Apify) ID() entity.ProviderID { return entity.ProviderApify }

// CanHandle implements transcript.Provider.
func (p *Apify) CanHandle(pctx entity.ProviderContext) bool {
	_, ok := youtubeVideo(pctx)
	return ok
}

// FetchTranscript implements transcript.Provider.
func (p *Apify) FetchTranscript(ctx context.Context, pctx entity.ProviderContext, opts transcript.FetchOptions) (entity.TranscriptResolution, error) {
	videoID, ok := youtubeVideo(pctx)
	if !ok {
		return entity.TranscriptResolution{}, nil
	}
	if strings.TrimSpace(opts.ApifyToken) == "" {
		return entity.TranscriptResolution{
			Metadata: map[string]any{"provider": "apify", "reason": "missing_api_token"},
		}, nil
	}

	ctx, cancel := withTimeout(ctx, opts.Timeout)
	defer cancel()

	payload, err := json.Marshal(map[string]any{
		"videoUrl": "https://www.youtube.com/watch?v=" + videoID,
	})
	if err != nil {
		return entity.TranscriptResolution{}, fmt.Errorf("marshal apify input: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items",
		strings.TrimRight(p.baseURL(), "/"), url.PathEscape(p.actor()))
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return entity.TranscriptResolution{}, fmt.Errorf("create apify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+opts.ApifyToken)

	resp, err := p.client(ctx, opts).Do(req)
	if err != nil {
		return entity.TranscriptResolution{}, fmt.Errorf("apify request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxApifyResponseSize))
	if err != nil {
		return entity.TranscriptResolution{}, fmt.Errorf("read apify response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return entity.TranscriptResolution{}, fmt.Errorf("apify returned HTTP %d", resp.StatusCode)
	}

	return entity.TranscriptResolution{
		Text:     apifyText(string(data)),
		Source:   entity.ProviderApify.Ptr(),
		Metadata: map[string]any{"provider": "apify", "video_id": videoID, "actor": p.actor()},
	}, nil
}

// apifyText accepts the dataset shapes produced by transcript actors: items
// carrying a "transcript" string, or segment lists under "data" or
// "transcript" with a "text" field.
func apifyText(doc string) *string {
	var lines []string
	gjson.Parse(doc).ForEach(func(_, item gjson.Result) bool {
		if t := item.Get("transcript"); t.Type == gjson.String {
			lines = append(lines, t.String())
			return true
		}
		for _, key := range []string{"data", "transcript", "segments"} {
			item.Get(key).ForEach(func(_, seg gjson.Result) bool {
				lines = append(lines, seg.Get("text").String())
				return true
			})
		}
		if t := item.Get("text"); t.Type == gjson.String {
			lines = append(lines, t.String())
		}
		return true
	})
	return joinSegments(lines)
}

func (p *Apify) client(ctx context.Context, opts transcript.FetchOptions) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.HTTPClient = opts.Client()
	client.RetryMax = p.RetryMax
	if client.RetryMax == 0 {
		client.RetryMax = 2
	}
	client.RetryWaitMin = p.RetryWait
	if client.RetryWaitMin == 0 {
		client.RetryWaitMin = time.Second
	}
	client.RetryWaitMax = 4 * client.RetryWaitMin
	client.Logger = leveledLogger{logger: logging.FromContext(ctx)}
	return client
}

func (p *Apify) baseURL() string {
	if p.BaseURL == "" {
		return DefaultApifyBaseURL
	}
	return p.BaseURL
}

func (p *Apify) actor() string {
	if p.Actor == "" {
		return DefaultApifyActor
	}
	return p.Actor
}

// leveledLogger adapts slog to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger *slog.Logger
}

func (l leveledLogger) Error(msg string, kv ...any) { l.logger.Error(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...any)  { l.logger.Debug(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...any) { l.logger.Debug(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...any)  { l.logger.Warn(msg, kv...) }
