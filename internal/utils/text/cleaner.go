package text

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

var (
	horizontalSpaceRe = regexp.MustCompile(`[ \t\f\v\p{Zs}]+`)
	spaceAroundLineRe = regexp.MustCompile(` ?\n ?`)
	blankLinesRe      = regexp.MustCompile(`\n{2,}`)
	anyWhitespaceRe   = regexp.MustCompile(`\s+`)
)

// DecodeHTMLEntities decodes named and numeric character references.
//
//	DecodeHTMLEntities("&lt;tag&gt; &amp; &#39;x&#39;") // "<tag> & 'x'"
func DecodeHTMLEntities(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return html.UnescapeString(s)
}

// NormalizeWhitespace collapses whitespace while keeping line structure.
//
// Non-breaking and other Unicode spaces become plain spaces, runs of horizontal
// whitespace collapse to one space, spaces next to line breaks are dropped and
// consecutive line breaks collapse into one. The result is trimmed.
func NormalizeWhitespace(s string) string {
	if s == "" {
		return ""
	}
	out := strings.ReplaceAll(s, "\r\n", "\n")
	out = strings.ReplaceAll(out, "\r", "\n")
	out = horizontalSpaceRe.ReplaceAllString(out, " ")
	out = spaceAroundLineRe.ReplaceAllString(out, "\n")
	out = blankLinesRe.ReplaceAllString(out, "\n")
	return strings.TrimSpace(out)
}

// NormalizeForPrompt prepares extracted text for inclusion in a prompt.
func NormalizeForPrompt(s string) string {
	return NormalizeWhitespace(s)
}

// NormalizeCandidate flattens a metadata candidate (title, description) onto one
// line. It reports false when nothing but whitespace remains.
func NormalizeCandidate(s string) (string, bool) {
	out := strings.TrimSpace(anyWhitespaceRe.ReplaceAllString(s, " "))
	if out == "" {
		return "", false
	}
	return out, true
}

// ClipAtSentenceBoundary shortens s to at most limit runes.
//
// The cut is made after the last '.', '!' or '?' that is followed by whitespace
// (or ends the text) and lies within the limit. Without such a boundary the text
// is clipped at exactly limit runes.
//
//	ClipAtSentenceBoundary("First sentence. Second sentence.", 22) // "First sentence."
//	ClipAtSentenceBoundary("First sentence. Second sentence.", 3)  // "Fir"
func ClipAtSentenceBoundary(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	for i := limit - 1; i > 0; i-- {
		switch runes[i] {
		case '.', '!', '?':
			next := i + 1
			if next == len(runes) || unicode.IsSpace(runes[next]) {
				return strings.TrimSpace(string(runes[:next]))
			}
		}
	}
	return string(runes[:limit])
}
