package fetcher

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dyatlov/go-opengraph/opengraph"
	"github.com/go-shiori/go-readability"

	"github.com/davisbuilds/summarize/internal/utils/text"
)

// ExtractPage parses rawHTML without any network access. It never fails: a
// document that cannot be parsed yields a Page with empty text fields.
func ExtractPage(rawHTML, pageURL string) *Page {
	page := &Page{URL: pageURL, FinalURL: pageURL, HTML: rawHTML}

	var docTitle, metaDescription string
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML)); err == nil {
		docTitle = strings.TrimSpace(doc.Find("title").First().Text())
		metaDescription, _ = doc.Find(`meta[name="description"]`).First().Attr("content")
		page.VisibleText = VisibleText(doc)
	}

	parsedURL, _ := url.Parse(pageURL)
	if article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL); err == nil {
		page.ArticleHTML = article.Content
		page.Text = text.NormalizeWhitespace(article.TextContent)
		page.Title = article.Title
		page.Description = article.Excerpt
		page.SiteName = article.SiteName
	}
	if page.Text == "" {
		page.Text = page.VisibleText
	}

	og := opengraph.NewOpenGraph()
	if err := og.ProcessHTML(strings.NewReader(rawHTML)); err == nil {
		page.Title = firstCandidate(og.Title, page.Title, docTitle)
		page.Description = firstCandidate(og.Description, metaDescription, page.Description)
		page.SiteName = firstCandidate(og.SiteName, page.SiteName)
	} else {
		page.Title = firstCandidate(page.Title, docTitle)
		page.Description = firstCandidate(metaDescription, page.Description)
		page.SiteName = firstCandidate(page.SiteName)
	}

	return page
}

// VisibleText returns the whitespace-normalized text under <body>, excluding
// scripts, styles and templates.
func VisibleText(doc *goquery.Document) string {
	body := doc.Find("body").First().Clone()
	body.Find("script, style, noscript, template, svg").Remove()

	var b strings.Builder
	body.Find("*").AddBack().Contents().Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "#text" {
			b.WriteString(s.Text())
			b.WriteString(" ")
		}
	})
	return text.NormalizeWhitespace(b.String())
}

func firstCandidate(values ...string) string {
	for _, v := range values {
		if out, ok := text.NormalizeCandidate(text.DecodeHTMLEntities(v)); ok {
			return out
		}
	}
	return ""
}
