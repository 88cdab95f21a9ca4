package cj

import (
	"net/url"
	"slices"
	"strings"
)

const (
	// DefaultBaseURL is the canonical CJ API root, versioned path included.
	DefaultBaseURL = "https://developers.cjdropshipping.com/api2.0"

	canonicalHost = "developers.cjdropshipping.com"
	versionPath   = "/api2.0"
)

// legacyHosts are hosts CJ has retired but old configs still carry.
var legacyHosts = []string{
	"api.cjdropshipping.com",
	"developers.cjdropshipping.cn",
}

// NormalizeBaseURL returns the canonical form of a configured base URL:
// https scheme when none is given, legacy hosts rewritten, no trailing slash,
// and exactly one /api2.0 suffix.
// Examples: "" → DefaultBaseURL, "api.cjdropshipping.com/" → DefaultBaseURL,
// "http://localhost:9000" → "http://localhost:9000/api2.0"
func NormalizeBaseURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return DefaultBaseURL
	}
	if !strings.Contains(u, "://") {
		u = "https://" + u
	}
	// Scheme and host compare case-insensitively; the path is kept as given.
	if parsed, err := url.Parse(u); err == nil && parsed.Host != "" {
		parsed.Host = strings.ToLower(parsed.Host)
		if slices.Contains(legacyHosts, parsed.Host) {
			parsed.Host = canonicalHost
		}
		u = parsed.String()
	}
	u = strings.TrimRight(u, "/")
	for strings.HasSuffix(u, versionPath) {
		u = strings.TrimRight(strings.TrimSuffix(u, versionPath), "/")
	}
	return u + versionPath
}
