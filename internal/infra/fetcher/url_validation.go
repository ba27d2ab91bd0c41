package fetcher

import (
	"fmt"
	"net"
	"net/url"
)

// validateURL rejects anything that is not an absolute http(s) URL. With
// denyPrivateIPs set it also resolves the host and refuses private, loopback
// and link-local addresses, including on every redirect hop.
//
// Example:
//
//	err := validateURL("https://example.com/article", true)
//	if errors.Is(err, ErrPrivateIP) {
//	    // points into the local network
//	}
func validateURL(urlStr string, denyPrivateIPs bool) error {
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("%w: parse error: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme '%s' not allowed (only http/https)", ErrInvalidURL, u.Scheme)
	}

	hostname := u.Hostname()
	if hostname == "" {
		return fmt.Errorf("%w: empty hostname", ErrInvalidURL)
	}

	if !denyPrivateIPs {
		return nil
	}

	if ip := net.ParseIP(hostname); ip != nil {
		if isPrivateIP(ip) {
			return fmt.Errorf("%w: address %s", ErrPrivateIP, ip.String())
		}
		return nil
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		return fmt.Errorf("%w: DNS lookup failed for %s: %v", ErrInvalidURL, hostname, err)
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return fmt.Errorf("%w: hostname '%s' resolves to private IP %s", ErrPrivateIP, hostname, ip.String())
		}
	}
	return nil
}

// isPrivateIP reports loopback (127.0.0.0/8, ::1), RFC 1918 / RFC 4193
// private and link-local (169.254.0.0/16, fe80::/10) addresses.
func isPrivateIP(ip net.IP) bool {
	return ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified()
}
