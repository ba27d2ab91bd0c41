package fetcher

import (
	"strings"

	pkgconfig "github.com/davisbuilds/summarize/pkg/config"
	"github.com/davisbuilds/summarize/internal/utils/text"
)

// Blocked-page reasons reported by DetectBlocked.
const (
	BlockedReasonTooShort        = "too_short"
	BlockedReasonSignaturePrefix = "signature:"
)

// BlockHeuristics decide whether fetched text is an interstitial rather than
// the page itself.
type BlockHeuristics struct {
	// MinTextLength is the smallest visible text, in runes, that counts as content.
	MinTextLength int
	// Signatures are lowercase phrases found on bot-challenge and consent walls.
	Signatures []string
	// MaxSignatureTextLength limits signature matching to texts of at most
	// this many runes. Challenge pages are short; a long article that quotes
	// a phrase is not one. Zero matches at any length.
	MaxSignatureTextLength int
}

// DefaultBlockHeuristics returns the built-in thresholds.
func DefaultBlockHeuristics() BlockHeuristics {
	return BlockHeuristics{
		MinTextLength:          200,
		MaxSignatureTextLength: 3000,
		Signatures: []string{
			"attention required! | cloudflare",
			"just a moment...",
			"checking your browser before accessing",
			"enable javascript and cookies to continue",
			"verify you are human",
			"please enable js and disable any ad blocker",
		},
	}
}

// LoadBlockHeuristics applies environment overrides to the defaults.
//
// Environment variables:
//   - SUMMARIZE_BLOCKED_MIN_TEXT: integer rune count
//   - SUMMARIZE_BLOCKED_SIGNATURES: comma-separated phrases, added to the defaults
//   - SUMMARIZE_BLOCKED_SIGNATURE_MAX_TEXT: integer rune count, 0 for no limit
func LoadBlockHeuristics(env pkgconfig.Env) BlockHeuristics {
	h := DefaultBlockHeuristics()
	if n := env.Int("SUMMARIZE_BLOCKED_MIN_TEXT", h.MinTextLength); n >= 0 {
		h.MinTextLength = n
	}
	if n := env.Int("SUMMARIZE_BLOCKED_SIGNATURE_MAX_TEXT", h.MaxSignatureTextLength); n >= 0 {
		h.MaxSignatureTextLength = n
	}
	for _, sig := range env.StringList("SUMMARIZE_BLOCKED_SIGNATURES", nil) {
		h.Signatures = append(h.Signatures, strings.ToLower(sig))
	}
	return h
}

// DetectBlocked reports whether pageText looks like a block page, and why.
// Signatures are checked before length so that the reason names the wall,
// and only on texts within MaxSignatureTextLength.
//
//	DetectBlocked("Attention Required! | Cloudflare", DefaultBlockHeuristics())
//	// true, "signature:attention required! | cloudflare"
func DetectBlocked(pageText string, h BlockHeuristics) (bool, string) {
	normalized := text.NormalizeWhitespace(pageText)
	length := text.CountRunes(normalized)

	if h.MaxSignatureTextLength <= 0 || length <= h.MaxSignatureTextLength {
		lower := strings.ToLower(normalized)
		for _, sig := range h.Signatures {
			if sig != "" && strings.Contains(lower, sig) {
				return true, BlockedReasonSignaturePrefix + sig
			}
		}
	}
	if length < h.MinTextLength {
		return true, BlockedReasonTooShort
	}
	return false, ""
}
