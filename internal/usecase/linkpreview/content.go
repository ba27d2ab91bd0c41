package linkpreview

import (
	"log/slog"
	"strings"

	"github.com/davisbuilds/summarize/internal/config"
	"github.com/davisbuilds/summarize/internal/domain/entity"
	"github.com/davisbuilds/summarize/internal/infra/fetcher"
	"github.com/davisbuilds/summarize/internal/utils/text"
)

// pageContent renders a fetched page according to the markdown mode. The
// bool reports whether the content is markdown.
func (c *Client) pageContent(page *fetcher.Page, st *call) (string, bool) {
	switch st.opts.Markdown {
	case config.MarkdownAuto, config.MarkdownReadability:
		if strings.TrimSpace(page.ArticleHTML) != "" {
			md, err := fetcher.ToMarkdown(page.ArticleHTML, page.FinalURL)
			if err == nil && strings.TrimSpace(md) != "" {
				return md, true
			}
			st.logger.Debug("markdown conversion unavailable, using text", slog.Any("error", err))
		}
	}
	return page.Text, false
}

// scrapeContent picks the scraper payload matching the markdown mode. With
// markdown off, the scraped HTML is reduced to text when present.
func (c *Client) scrapeContent(scraped *entity.ScrapeResult, st *call) (string, bool) {
	if st.opts.Markdown == config.MarkdownOff || st.opts.Markdown == "" {
		if scraped.HTML != nil && strings.TrimSpace(*scraped.HTML) != "" {
			if page := fetcher.ExtractPage(*scraped.HTML, st.url); strings.TrimSpace(page.Text) != "" {
				return page.Text, false
			}
		}
	}
	return scraped.Markdown, true
}

// preprocess applies the preprocess mode. Markdown keeps its line structure
// in auto mode; "always" normalizes everything; "off" leaves content as
// extracted.
func (c *Client) preprocess(content string, isMarkdown bool, mode config.PreprocessMode) string {
	switch mode {
	case config.PreprocessOff:
		return content
	case config.PreprocessAlways:
		return text.NormalizeForPrompt(text.DecodeHTMLEntities(content))
	default:
		if isMarkdown {
			return strings.TrimSpace(content)
		}
		return text.NormalizeForPrompt(text.DecodeHTMLEntities(content))
	}
}

func metadataString(meta map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := meta[key].(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
