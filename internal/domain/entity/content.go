package entity

// Strategy names the path that produced a link's content.
type Strategy string

const (
	StrategyHTML      Strategy = "html"
	StrategyFirecrawl Strategy = "firecrawl"
)

// ContentFetchResult is the outcome of resolving one URL into text.
// It is built once by the link preview client and never modified afterwards.
type ContentFetchResult struct {
	Content string

	// SourceURL is the URL the content came from. It differs from the requested
	// URL when a mirror host served the page.
	SourceURL string

	Title       string
	Description string
	SiteName    string

	Diagnostics ContentFetchDiagnostics
}

// ContentFetchDiagnostics records which strategies ran. It is for logs and
// tests; callers must not branch on it.
type ContentFetchDiagnostics struct {
	Strategy   Strategy              `json:"strategy"`
	Firecrawl  FirecrawlDiagnostics  `json:"firecrawl"`
	Transcript TranscriptDiagnostics `json:"transcript"`
}

// FirecrawlDiagnostics describes the managed scraping fallback for one fetch.
type FirecrawlDiagnostics struct {
	Attempted bool   `json:"attempted"`
	Used      bool   `json:"used"`
	Notes     string `json:"notes,omitempty"`
}

// ScrapeResult is the payload returned by the managed scraping service.
type ScrapeResult struct {
	Markdown string
	HTML     *string
	Metadata map[string]any
}

// ContentBudgetResult is text clipped to a character budget.
//
// Invariants: CountRunes(Content) <= budget, and Truncated == (TotalCharacters > budget).
type ContentBudgetResult struct {
	Content         string
	Truncated       bool
	TotalCharacters int
	WordCount       int
}
