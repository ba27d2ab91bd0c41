package config

import (
	"fmt"
	"strings"
)

// FirecrawlMode controls when the managed scraping fallback is used.
type FirecrawlMode string

const (
	// FirecrawlOff never calls the scraping service, even for blocked pages.
	FirecrawlOff FirecrawlMode = "off"
	// FirecrawlAuto calls the scraping service only when direct HTML is blocked or fails.
	FirecrawlAuto FirecrawlMode = "auto"
	// FirecrawlAlways skips direct HTML and requires the scraping service.
	FirecrawlAlways FirecrawlMode = "always"
)

// MarkdownMode controls whether extracted HTML is converted to markdown.
type MarkdownMode string

const (
	MarkdownOff         MarkdownMode = "off"
	MarkdownAuto        MarkdownMode = "auto"
	MarkdownReadability MarkdownMode = "readability"
)

// PreprocessMode controls normalization of extracted content before it is budgeted.
type PreprocessMode string

const (
	PreprocessOff    PreprocessMode = "off"
	PreprocessAuto   PreprocessMode = "auto"
	PreprocessAlways PreprocessMode = "always"
)

// TranscriptMode restricts which YouTube transcript providers may run.
type TranscriptMode string

const (
	TranscriptAuto  TranscriptMode = "auto"
	TranscriptWeb   TranscriptMode = "web"
	TranscriptYtDlp TranscriptMode = "yt-dlp"
	TranscriptApify TranscriptMode = "apify"
)

// ParseFirecrawlMode parses a firecrawl mode flag value.
func ParseFirecrawlMode(raw string) (FirecrawlMode, error) {
	switch mode := FirecrawlMode(normalizeMode(raw)); mode {
	case FirecrawlOff, FirecrawlAuto, FirecrawlAlways:
		return mode, nil
	}
	return "", fmt.Errorf("%w: unsupported --firecrawl value %q (expected off, auto or always)", ErrInvalidSetting, raw)
}

// ParseMarkdownMode parses a markdown mode flag value.
func ParseMarkdownMode(raw string) (MarkdownMode, error) {
	switch mode := MarkdownMode(normalizeMode(raw)); mode {
	case MarkdownOff, MarkdownAuto, MarkdownReadability:
		return mode, nil
	}
	return "", fmt.Errorf("%w: unsupported --markdown-mode value %q (expected off, auto or readability)", ErrInvalidSetting, raw)
}

// ParsePreprocessMode parses a preprocess mode flag value.
func ParsePreprocessMode(raw string) (PreprocessMode, error) {
	switch mode := PreprocessMode(normalizeMode(raw)); mode {
	case PreprocessOff, PreprocessAuto, PreprocessAlways:
		return mode, nil
	}
	return "", fmt.Errorf("%w: unsupported --preprocess value %q (expected off, auto or always)", ErrInvalidSetting, raw)
}

// ParseTranscriptMode parses a --youtube flag value.
func ParseTranscriptMode(raw string) (TranscriptMode, error) {
	switch mode := TranscriptMode(normalizeMode(raw)); mode {
	case TranscriptAuto, TranscriptWeb, TranscriptYtDlp, TranscriptApify:
		return mode, nil
	case "ytdlp":
		return TranscriptYtDlp, nil
	}
	return "", fmt.Errorf("%w: unsupported --youtube value %q (expected auto, web, yt-dlp or apify)", ErrInvalidSetting, raw)
}

func normalizeMode(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
