// Package ssrf validates destination URLs before the relay will deliver
// to them. The same check runs at connection-write time and again at
// delivery time to close the DNS-rebinding window between the two.
package ssrf

import (
	"net/netip"
	"net/url"
	"strings"
)

// IsAllowed reports whether a destination URL is safe to deliver to.
// It rejects non-http(s) schemes and any host that points at loopback,
// private, link-local, unspecified, or internal address space.
func IsAllowed(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return false
	}

	return allowedHost(hostname)
}

func allowedHost(hostname string) bool {
	lower := strings.ToLower(hostname)
	if lower == "localhost" ||
		strings.HasSuffix(lower, ".local") ||
		strings.HasSuffix(lower, ".internal") {
		return false
	}

	// Shorthand IPv4 literals like 127.1 reach loopback but do not parse
	// as addresses; catch them on the raw hostname
	if strings.HasPrefix(lower, "127.") {
		return false
	}

	addr, err := netip.ParseAddr(hostname)
	if err != nil {
		// Not an IP literal; hostname-level checks above are all we can
		// do here, the delivery-time re-check catches rebinds.
		return true
	}

	if addr.Is4In6() {
		addr = addr.Unmap()
	}

	if addr.IsLoopback() || // 127.0.0.0/8, ::1
		addr.IsPrivate() || // RFC1918, fc00::/7
		addr.IsLinkLocalUnicast() || // 169.254.0.0/16, fe80::/10
		addr.IsLinkLocalMulticast() ||
		addr.IsUnspecified() {
		return false
	}

	// The rest of 0.0.0.0/8 is not routable either
	if addr.Is4() && addr.As4()[0] == 0 {
		return false
	}

	return true
}
