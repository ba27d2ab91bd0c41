// Package resilience groups the fault tolerance helpers used around external
// APIs.
//
//   - circuitbreaker: gobreaker wrappers for the chat completion and scraping APIs
//   - retry: exponential backoff with jitter and a pluggable retry predicate
//
// Usage Example:
//
//	cb := circuitbreaker.New(circuitbreaker.FirecrawlAPIConfig())
//	page, err := circuitbreaker.Do(cb, func() (*entity.ScrapeResult, error) {
//	    return scrape(ctx, url)
//	})
//
//	err := retry.WithBackoff(ctx, retry.CompletionConfig(2), func() error {
//	    return complete(ctx)
//	})
package resilience
