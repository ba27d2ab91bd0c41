package fetcher

import (
	"fmt"
	"net/url"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
)

// ToMarkdown converts article HTML to markdown. Relative links are resolved
// against pageURL's origin.
func ToMarkdown(articleHTML, pageURL string) (string, error) {
	if strings.TrimSpace(articleHTML) == "" {
		return "", nil
	}

	domain := ""
	if u, err := url.Parse(pageURL); err == nil && u.Scheme != "" && u.Host != "" {
		domain = fmt.Sprintf("%s://%s", u.Scheme, u.Host)
	}

	md, err := htmltomarkdown.ConvertString(articleHTML, converter.WithDomain(domain))
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}
