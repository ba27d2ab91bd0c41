// Package text cleans and budgets extracted page content before it is sent to a
// summarization model.
package text

import (
	"strings"
	"unicode/utf8"
)

// CountRunes counts the number of Unicode characters (runes) in the given text.
// All content budgets are expressed in runes, so multi-byte text such as
// Japanese or emoji is measured the same way a reader would count it.
//
// Examples:
//
//	CountRunes("hello")     // 5
//	CountRunes("こんにちは") // 5
//	CountRunes("Hello👋")   // 6
func CountRunes(text string) int {
	return utf8.RuneCountInString(text)
}

// CountWords counts whitespace-separated words.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
