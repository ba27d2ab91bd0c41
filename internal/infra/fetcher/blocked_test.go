package fetcher_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/davisbuilds/summarize/internal/infra/fetcher"
)

func TestDetectBlocked(t *testing.T) {
	h := fetcher.DefaultBlockHeuristics()

	tests := []struct {
		name        string
		text        string
		wantBlocked bool
		wantReason  string
	}{
		{
			name:        "cloudflare interstitial",
			text:        "Attention Required! | Cloudflare",
			wantBlocked: true,
			wantReason:  "signature:attention required! | cloudflare",
		},
		{
			name:        "signature inside long text",
			text:        strings.Repeat("filler ", 100) + "Just a moment...",
			wantBlocked: true,
			wantReason:  "signature:just a moment...",
		},
		{
			name:        "signature in a long article is ignored",
			text:        strings.Repeat("A normal sentence about the news. ", 120) + "Just a moment...",
			wantBlocked: false,
		},
		{
			name:        "generic phrase is not a challenge signature",
			text:        "Access denied. " + strings.Repeat("B", 300),
			wantBlocked: false,
		},
		{
			name:        "too short",
			text:        "Hello",
			wantBlocked: true,
			wantReason:  "too_short",
		},
		{
			name:        "empty",
			text:        "",
			wantBlocked: true,
			wantReason:  "too_short",
		},
		{
			name:        "usable article",
			text:        strings.Repeat("A", 260),
			wantBlocked: false,
		},
		{
			name:        "whitespace does not count",
			text:        strings.Repeat("A ", 60) + strings.Repeat("\n", 300),
			wantBlocked: true,
			wantReason:  "too_short",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocked, reason := fetcher.DetectBlocked(tt.text, h)
			assert.Equal(t, tt.wantBlocked, blocked)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestDetectBlocked_CustomHeuristics(t *testing.T) {
	h := fetcher.BlockHeuristics{MinTextLength: 3}

	blocked, _ := fetcher.DetectBlocked("Hello", h)
	assert.False(t, blocked)

	h.Signatures = []string{"hello"}
	blocked, reason := fetcher.DetectBlocked("HELLO there", h)
	assert.True(t, blocked)
	assert.Equal(t, "signature:hello", reason)
}

func TestDetectBlocked_MultibyteLength(t *testing.T) {
	h := fetcher.BlockHeuristics{MinTextLength: 10}

	// 10 runes, 30 bytes.
	blocked, _ := fetcher.DetectBlocked("日本語の文章です。。", h)
	assert.False(t, blocked)
}

func TestDetectBlocked_NoSignatureLimit(t *testing.T) {
	h := fetcher.BlockHeuristics{Signatures: []string{"just a moment..."}}

	blocked, reason := fetcher.DetectBlocked(strings.Repeat("filler ", 1000)+"Just a moment...", h)
	assert.True(t, blocked)
	assert.Equal(t, "signature:just a moment...", reason)
}
