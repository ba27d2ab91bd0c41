package summarize

import (
	"fmt"
	"strings"

	"github.com/davisbuilds/summarize/internal/domain/entity"
	"github.com/davisbuilds/summarize/internal/utils/text"
)

// PromptInput is everything the prompt template needs.
type PromptInput struct {
	URL              string
	Title            string
	SiteName         string
	TargetCharacters int
	Budget           entity.ContentBudgetResult
}

// BuildPrompt renders the single user message sent to the completion API.
// Truncation is disclosed so that the model does not present a partial text
// as complete.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Summarize the following content in about %d characters.\n", in.TargetCharacters)
	b.WriteString("Write plain prose. Keep the key facts, names and numbers. Do not add information that is not in the content.\n\n")

	fmt.Fprintf(&b, "Source: %s\n", in.URL)
	if title := strings.TrimSpace(in.Title); title != "" {
		fmt.Fprintf(&b, "Title: %s\n", title)
	}
	if site := strings.TrimSpace(in.SiteName); site != "" {
		fmt.Fprintf(&b, "Site: %s\n", site)
	}
	if in.Budget.Truncated {
		fmt.Fprintf(&b, "Note: the content was truncated to %d of %d characters.\n",
			text.CountRunes(in.Budget.Content), in.Budget.TotalCharacters)
	}

	b.WriteString("\n<content>\n")
	b.WriteString(in.Budget.Content)
	b.WriteString("\n</content>\n")
	return b.String()
}

// EstimateMaxOutputTokens returns a completion token ceiling for a summary of
// targetCharacters. It assumes about four characters per token and leaves
// half again as much room, so that a well-behaved model is never cut off.
func EstimateMaxOutputTokens(targetCharacters int) int {
	if targetCharacters <= 0 {
		return minOutputTokens
	}
	tokens := (targetCharacters*3 + 7) / 8
	if tokens < minOutputTokens {
		return minOutputTokens
	}
	if tokens > maxEstimatedOutputTokens {
		return maxEstimatedOutputTokens
	}
	return tokens
}

const (
	minOutputTokens          = 256
	maxEstimatedOutputTokens = 16384
)
