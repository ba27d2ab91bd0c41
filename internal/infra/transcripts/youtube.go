// Package transcripts implements the transcript providers: YouTube (innertube,
// caption tracks, yt-dlp, Apify), placeholder providers for podcasts and
// tweets, and a generic provider that reads transcript blocks from page HTML.
package transcripts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/davisbuilds/summarize/internal/domain/entity"
	"github.com/davisbuilds/summarize/internal/usecase/transcript"
)

// DefaultYouTubeBaseURL is the origin used for watch pages and innertube calls.
const DefaultYouTubeBaseURL = "https://www.youtube.com"

// maxWatchPageSize bounds watch page downloads.
const maxWatchPageSize = 8 << 20

var (
	// ErrWatchPage indicates the watch page could not be loaded or parsed.
	ErrWatchPage = errors.New("youtube watch page unavailable")

	videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

	innertubeKeyRe     = regexp.MustCompile(`"INNERTUBE_API_KEY"\s*:\s*"([^"]+)"`)
	clientVersionRe    = regexp.MustCompile(`"INNERTUBE_CLIENT_VERSION"\s*:\s*"([^"]+)"`)
	transcriptParamsRe = regexp.MustCompile(`"getTranscriptEndpoint"\s*:\s*\{\s*"params"\s*:\s*"([^"]+)"`)
	playerResponseRe   = regexp.MustCompile(`ytInitialPlayerResponse\s*=\s*`)
)

var youtubeHosts = map[string]bool{
	"youtube.com":       true,
	"www.youtube.com":   true,
	"m.youtube.com":     true,
	"music.youtube.com": true,
	"youtu.be":          true,
}

// VideoID extracts the 11 character video id from watch, short, embed, live
// and youtu.be URLs.
func VideoID(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if !youtubeHosts[host] {
		return "", false
	}

	var candidate string
	if host == "youtu.be" {
		candidate = strings.Trim(u.Path, "/")
	} else {
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		switch {
		case len(segments) == 1 && segments[0] == "watch":
			candidate = u.Query().Get("v")
		case len(segments) >= 2 && (segments[0] == "shorts" || segments[0] == "embed" || segments[0] == "live" || segments[0] == "v"):
			candidate = segments[1]
		}
	}

	if !videoIDRe.MatchString(candidate) {
		return "", false
	}
	return candidate, true
}

// IsYouTubeVideo reports whether the URL names a single YouTube video.
func IsYouTubeVideo(rawURL string) bool {
	_, ok := VideoID(rawURL)
	return ok
}

// ResourceKey returns the video id as a provider context resource key, or nil.
func ResourceKey(rawURL string) *string {
	if id, ok := VideoID(rawURL); ok {
		return &id
	}
	return nil
}

// youtubeVideo resolves the video id for a provider context, preferring the
// resource key.
func youtubeVideo(pctx entity.ProviderContext) (string, bool) {
	if pctx.ResourceKey != nil && videoIDRe.MatchString(*pctx.ResourceKey) {
		return *pctx.ResourceKey, true
	}
	return VideoID(pctx.URL)
}

// watchPage returns the watch page HTML for the video. The HTML already in the
// context is used when it looks like a watch page.
func watchPage(ctx context.Context, baseURL, videoID string, pctx entity.ProviderContext, opts transcript.FetchOptions) (string, error) {
	if html := pctx.HTMLString(); strings.Contains(html, "ytInitialPlayerResponse") || strings.Contains(html, "INNERTUBE_API_KEY") {
		return html, nil
	}

	watchURL := strings.TrimRight(baseURL, "/") + "/watch?v=" + url.QueryEscape(videoID)
	body, err := getText(ctx, opts, watchURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrWatchPage, err)
	}
	return body, nil
}

// playerResponse extracts the ytInitialPlayerResponse JSON object from a
// watch page.
func playerResponse(html string) (gjson.Result, bool) {
	loc := playerResponseRe.FindStringIndex(html)
	if loc == nil {
		return gjson.Result{}, false
	}
	raw, ok := balancedObject(html[loc[1]:])
	if !ok || !gjson.Valid(raw) {
		return gjson.Result{}, false
	}
	return gjson.Parse(raw), true
}

// balancedObject returns the JSON object at the start of s, honouring string
// literals so that braces inside captions do not end it early.
func balancedObject(s string) (string, bool) {
	if s == "" || s[0] != '{' {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

func firstSubmatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return ""
}

// getText performs a GET bounded by opts.Timeout and returns the body.
func getText(ctx context.Context, opts transcript.FetchOptions, target string) (string, error) {
	ctx, cancel := withTimeout(ctx, opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := opts.Client().Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, target)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxWatchPageSize))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	return string(body), nil
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

const browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// joinSegments joins transcript lines, dropping blanks.
func joinSegments(lines []string) *string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(strings.ReplaceAll(line, "\n", " ")); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	text := strings.Join(out, "\n")
	return &text
}

// json3Text converts a YouTube json3 caption document into transcript lines.
func json3Text(doc string) *string {
	var lines []string
	gjson.Get(doc, "events").ForEach(func(_, event gjson.Result) bool {
		var b strings.Builder
		event.Get("segs").ForEach(func(_, seg gjson.Result) bool {
			b.WriteString(seg.Get("utf8").String())
			return true
		})
		lines = append(lines, b.String())
		return true
	})
	return joinSegments(lines)
}
