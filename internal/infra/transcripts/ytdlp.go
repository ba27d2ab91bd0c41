package transcripts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/davisbuilds/summarize/internal/domain/entity"
	"github.com/davisbuilds/summarize/internal/usecase/transcript"
)

// YtDlp downloads subtitles with the external yt-dlp binary.
type YtDlp struct {
	// Binary is the executable name or path. Empty means "yt-dlp" on PATH.
	Binary string
}

var _ transcript.Provider = (*YtDlp)(nil)

// ID implements transcript.Provider.
func (p *YtDlp) ID() entity.ProviderID { return entity.ProviderYtDlp }

// CanHandle implements transcript.Provider.
func (p *YtDlp) CanHandle(pctx entity.ProviderContext) bool {
	_, ok := youtubeVideo(pctx)
	return ok
}

// FetchTranscript implements transcript.Provider.
//
// A missing binary is not an error: the resolution carries reason
// "binary_not_found" so the chain moves on.
func (p *YtDlp) FetchTranscript(ctx context.Context, pctx entity.ProviderContext, opts transcript.FetchOptions) (entity.TranscriptResolution, error) {
	videoID, ok := youtubeVideo(pctx)
	if !ok {
		return entity.TranscriptResolution{}, nil
	}

	binary := p.Binary
	if binary == "" {
		binary = "yt-dlp"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return entity.TranscriptResolution{
			Metadata: map[string]any{"provider": "yt-dlp", "reason": "binary_not_found"},
		}, nil
	}

	dir, err := os.MkdirTemp("", "summarize-ytdlp-")
	if err != nil {
		return entity.TranscriptResolution{}, fmt.Errorf("create temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	ctx, cancel := withTimeout(ctx, opts.Timeout)
	defer cancel()

	// #nosec G204 -- the binary is configuration and the URL is passed as a
	// single argument after "--".
	cmd := exec.CommandContext(ctx, path,
		"--skip-download",
		"--write-subs",
		"--write-auto-subs",
		"--sub-langs", "en.*,en",
		"--sub-format", "json3",
		"--no-progress",
		"--output", filepath.Join(dir, "%(id)s.%(ext)s"),
		"--", "https://www.youtube.com/watch?v="+videoID,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return entity.TranscriptResolution{}, fmt.Errorf("yt-dlp timed out: %w", ctx.Err())
		}
		return entity.TranscriptResolution{}, fmt.Errorf("yt-dlp failed: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.json3"))
	if err != nil || len(files) == 0 {
		return entity.TranscriptResolution{
			Metadata: map[string]any{"provider": "yt-dlp", "reason": "no_subtitles"},
		}, nil
	}
	sort.Strings(files)

	data, err := os.ReadFile(files[0])
	if err != nil {
		return entity.TranscriptResolution{}, fmt.Errorf("read subtitles: %w", err)
	}

	return entity.TranscriptResolution{
		Text:     json3Text(string(data)),
		Source:   entity.ProviderYtDlp.Ptr(),
		Metadata: map[string]any{"provider": "yt-dlp", "video_id": videoID, "file": filepath.Base(files[0])},
	}, nil
}
