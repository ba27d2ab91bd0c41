// Package nitter rewrites twitter/x status URLs onto public Nitter mirrors.
//
// Twitter serves a JavaScript shell to anonymous clients, so the direct HTML
// fetch almost always looks blocked. Nitter front-ends render the same status as
// plain HTML. Mirrors come and go, so every URL gets the full host list in a
// rotated order: different statuses start on different mirrors, while the same
// status always yields the same order.
package nitter

import (
	"hash/fnv"
	"net/url"
	"regexp"
	"strings"
)

// DefaultHosts are the mirrors tried when no host list is configured.
var DefaultHosts = []string{
	"nitter.net",
	"xcancel.com",
	"nitter.poast.org",
	"nitter.privacydev.net",
	"nitter.tiekoetter.com",
	"nitter.space",
	"lightbrd.com",
}

var twitterHosts = map[string]struct{}{
	"twitter.com":        {},
	"www.twitter.com":    {},
	"mobile.twitter.com": {},
	"x.com":              {},
	"www.x.com":          {},
	"mobile.x.com":       {},
}

var statusPathRe = regexp.MustCompile(`^/[A-Za-z0-9_]{1,15}/status(?:es)?/\d+/?`)

// Rotation produces mirror URLs from a fixed host list.
type Rotation struct {
	hosts []string
}

// NewRotation builds a rotation over hosts. Blank and duplicate hosts are
// dropped; an empty list falls back to DefaultHosts.
func NewRotation(hosts []string) *Rotation {
	seen := make(map[string]struct{}, len(hosts))
	clean := make([]string, 0, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		clean = append(clean, h)
	}
	if len(clean) == 0 {
		clean = append(clean, DefaultHosts...)
	}
	return &Rotation{hosts: clean}
}

// Hosts returns a copy of the configured mirror hosts.
func (r *Rotation) Hosts() []string {
	return append([]string(nil), r.hosts...)
}

// IsStatusURL reports whether rawURL points at a single twitter/x status.
func IsStatusURL(rawURL string) bool {
	_, ok := parseStatusURL(rawURL)
	return ok
}

// MirrorURLs returns one URL per mirror host for a twitter/x status URL, or an
// empty slice for anything else.
//
// The starting host is chosen by an FNV-1a hash of the full input URL. Path and
// query are preserved.
func (r *Rotation) MirrorURLs(rawURL string) []string {
	u, ok := parseStatusURL(rawURL)
	if !ok {
		return []string{}
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(rawURL))
	offset := int(h.Sum32() % uint32(len(r.hosts)))

	out := make([]string, 0, len(r.hosts))
	for i := range r.hosts {
		host := r.hosts[(offset+i)%len(r.hosts)]
		mirror := url.URL{
			Scheme:   "https",
			Host:     host,
			Path:     u.Path,
			RawQuery: u.RawQuery,
		}
		out = append(out, mirror.String())
	}
	return out
}

// MirrorURLs is Rotation.MirrorURLs over DefaultHosts.
func MirrorURLs(rawURL string) []string {
	return defaultRotation.MirrorURLs(rawURL)
}

var defaultRotation = NewRotation(nil)

func parseStatusURL(rawURL string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	if _, ok := twitterHosts[strings.ToLower(u.Hostname())]; !ok {
		return nil, false
	}
	if !statusPathRe.MatchString(u.Path) {
		return nil, false
	}
	return u, true
}
