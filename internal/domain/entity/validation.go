package entity

import (
	"fmt"
	"net/url"
)

// maxURLLength bounds what the CLI accepts as a link.
const maxURLLength = 2048

// ValidateURL checks that rawURL is an absolute http(s) URL with a host.
// Network-level checks (private addresses) belong to the fetcher, which can be
// configured to skip them.
func ValidateURL(rawURL string) error {
	invalid := func(format string, args ...any) error {
		return &ValidationError{Field: "url", Message: fmt.Sprintf(format, args...)}
	}

	switch {
	case rawURL == "":
		return invalid("a link is required")
	case len(rawURL) > maxURLLength:
		return invalid("longer than %d characters", maxURLLength)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return invalid("%v", err)
	}
	switch {
	case u.Scheme != "http" && u.Scheme != "https":
		return invalid("unsupported scheme %q, expected http or https", u.Scheme)
	case u.Host == "":
		return invalid("%q has no host", rawURL)
	}
	return nil
}
