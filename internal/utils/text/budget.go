package text

import "github.com/davisbuilds/summarize/internal/domain/entity"

// ApplyContentBudget decodes, normalizes and clips content to budget runes.
//
// TotalCharacters is the size of the normalized text before clipping and
// WordCount describes the returned content. The result never exceeds budget;
// a negative budget counts as zero and leaves no content.
func ApplyContentBudget(content string, budget int) entity.ContentBudgetResult {
	budget = max(budget, 0)
	normalized := NormalizeForPrompt(DecodeHTMLEntities(content))
	total := CountRunes(normalized)

	clipped := normalized
	truncated := false
	if total > budget {
		clipped = ClipAtSentenceBoundary(normalized, budget)
		truncated = true
	}

	return entity.ContentBudgetResult{
		Content:         clipped,
		Truncated:       truncated,
		TotalCharacters: total,
		WordCount:       CountWords(clipped),
	}
}
