package urlutil

import (
	"net/url"
	"strings"
)

// Canonicalize maps equivalent spellings of a URL to one form so that
// duplicate inputs can be recognised before any request is made.
//
//   - Scheme and host are lowercased
//   - Default ports are omitted (:80 for http, :443 for https)
//   - An empty path becomes "/"
//   - Fragments are removed
//
// The query is kept: two URLs differing only in query are distinct pages
// as far as the archive is concerned.
func Canonicalize(sourceUrl url.URL) url.URL {
	canonical := sourceUrl

	canonical.Scheme = strings.ToLower(canonical.Scheme)
	canonical.Host = strings.ToLower(canonical.Host)

	if host, port := canonical.Hostname(), canonical.Port(); port != "" {
		if (canonical.Scheme == "http" && port == "80") ||
			(canonical.Scheme == "https" && port == "443") {
			canonical.Host = bracketIPv6(host)
		}
	}

	if canonical.Path == "" && canonical.Opaque == "" {
		canonical.Path = "/"
		canonical.RawPath = ""
	}

	canonical.Fragment = ""
	canonical.RawFragment = ""

	return canonical
}

// CanonicalString parses raw and returns its canonical string form.
// Unparseable input is returned trimmed but otherwise untouched.
func CanonicalString(raw string) string {
	trimmed := strings.TrimSpace(raw)
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return trimmed
	}
	canonical := Canonicalize(*parsed)
	return canonical.String()
}

// Host returns the lowercased hostname of raw, or "" when it has none.
func Host(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

func bracketIPv6(host string) string {
	if strings.Contains(host, ":") {
		return "[" + host + "]"
	}
	return host
}
