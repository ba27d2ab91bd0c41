package text_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/davisbuilds/summarize/internal/utils/text"
)

func TestNormalizeForPrompt(t *testing.T) {
	input := "Hello\u00A0\u00A0world\t\t\n\n  next \n\n\n line"

	assert.Equal(t, "Hello world\nnext\nline", text.NormalizeForPrompt(input))
	assert.Equal(t, "Hello world\nnext\nline", text.NormalizeWhitespace(input))
}

func TestNormalizeWhitespace(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "only whitespace", input: " \n\t\n ", want: ""},
		{name: "crlf line endings", input: "a\r\n\r\nb", want: "a\nb"},
		{name: "leading and trailing", input: "  a b  ", want: "a b"},
		{name: "idempotent on clean text", input: "a\nb c", want: "a\nb c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, text.NormalizeWhitespace(tt.input))
		})
	}
}

func TestDecodeHTMLEntities(t *testing.T) {
	assert.Equal(t, "<tag> & 'x'", text.DecodeHTMLEntities("&lt;tag&gt; &amp; &#39;x&#39;"))
	assert.Equal(t, "no entities", text.DecodeHTMLEntities("no entities"))
	assert.Equal(t, "\u00a0©", text.DecodeHTMLEntities("&nbsp;&copy;"))
}

func TestNormalizeCandidate(t *testing.T) {
	_, ok := text.NormalizeCandidate("")
	assert.False(t, ok)

	_, ok = text.NormalizeCandidate("   ")
	assert.False(t, ok)

	got, ok := text.NormalizeCandidate("  A   B \n C  ")
	require.True(t, ok)
	assert.Equal(t, "A B C", got)
}

func TestClipAtSentenceBoundary(t *testing.T) {
	input := "First sentence. Second sentence. Third sentence."

	tests := []struct {
		name string
		max  int
		want string
	}{
		{name: "cuts after last complete sentence", max: 22, want: "First sentence."},
		{name: "hard clip without boundary", max: 3, want: "Fir"},
		{name: "boundary at end of limit", max: 15, want: "First sentence."},
		{name: "two sentences fit", max: 40, want: "First sentence. Second sentence."},
		{name: "shorter than limit", max: 100, want: input},
		{name: "zero limit", max: 0, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := text.ClipAtSentenceBoundary(input, tt.max)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, text.CountRunes(got), max(tt.max, 0))
		})
	}
}

func TestClipAtSentenceBoundary_IgnoresAbbreviationDots(t *testing.T) {
	// "v1.2" has no whitespace after the dot, so it is not a boundary.
	got := text.ClipAtSentenceBoundary("Release v1.2 is out now", 12)
	assert.Equal(t, "Release v1.2", got)
}

func TestClipAtSentenceBoundary_NonBreakingSpaceEndsSentence(t *testing.T) {
	got := text.ClipAtSentenceBoundary("One.\u00a0Two three four.", 10)
	assert.Equal(t, "One.", got)

	got = text.ClipAtSentenceBoundary("Ends.\u2003Then more words", 12)
	assert.Equal(t, "Ends.", got)
}

func TestApplyContentBudget(t *testing.T) {
	content := "Hello world. This is a test."
	result := text.ApplyContentBudget(content, 10)

	assert.True(t, result.Truncated)
	assert.Equal(t, len(content), result.TotalCharacters)
	assert.LessOrEqual(t, text.CountRunes(result.Content), 10)
	assert.Greater(t, result.WordCount, 0)
}

func TestApplyContentBudget_Invariants(t *testing.T) {
	long := strings.Repeat("Sentence number one is here. ", 200)

	tests := []struct {
		name    string
		content string
		budget  int
	}{
		{name: "fits", content: "Short text.", budget: 100},
		{name: "exact", content: "0123456789", budget: 10},
		{name: "long ascii", content: long, budget: 500},
		{name: "multibyte", content: strings.Repeat("日本語の文章です。", 50), budget: 37},
		{name: "entities", content: "&lt;p&gt; &amp;&amp; more text here", budget: 8},
		{name: "zero budget", content: "Some text.", budget: 0},
		{name: "negative budget", content: "Some text.", budget: -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := text.ApplyContentBudget(tt.content, tt.budget)
			assert.LessOrEqual(t, text.CountRunes(r.Content), max(tt.budget, 0))
			assert.Equal(t, r.TotalCharacters > max(tt.budget, 0), r.Truncated)
			assert.Equal(t, text.CountWords(r.Content), r.WordCount)
		})
	}
}
