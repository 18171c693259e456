package wayback

import (
	"net"
	"net/netip"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

// Validator decides whether a raw string names a page worth submitting.
// It is pure: no I/O and no retained state beyond its exclusion list.
type Validator struct {
	excludedDomains []string
}

func NewValidator(excludedDomains []string) Validator {
	return Validator{
		excludedDomains: append([]string(nil), excludedDomains...),
	}
}

var defaultValidator = NewValidator(DefaultExcludedDomains)

// Parse validates raw against the default exclusion list.
func Parse(raw string) (ArchivableURL, *ArchiveError) {
	return defaultValidator.Parse(raw)
}

// Parse returns an ErrCauseInvalidURL error for malformed, non-web or
// local targets, and ErrCauseExcludedURL for hosts on the exclusion list.
// Both errors carry raw unchanged.
func (v Validator) Parse(raw string) (ArchivableURL, *ArchiveError) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ArchivableURL{}, invalidURL(raw, err.Error())
	}
	if !parsed.IsAbs() {
		return ArchivableURL{}, invalidURL(raw, "missing scheme")
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return ArchivableURL{}, invalidURL(raw, "missing host")
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ArchivableURL{}, invalidURL(raw, "unsupported scheme "+parsed.Scheme)
	}

	if addr, err := netip.ParseAddr(hostname); err == nil {
		if isNonPublicAddr(addr) {
			return ArchivableURL{}, invalidURL(raw, "non-public address")
		}
		return ArchivableURL{url: *parsed, host: strings.ToLower(addr.String())}, nil
	}

	if endsInNumber(hostname) {
		addr, ok := parseIPv4Host(hostname)
		if !ok {
			return ArchivableURL{}, invalidURL(raw, "invalid IPv4 address")
		}
		if isNonPublicAddr(addr) {
			return ArchivableURL{}, invalidURL(raw, "non-public address")
		}
		canonical := *parsed
		canonical.Host = addr.String()
		if port := parsed.Port(); port != "" {
			canonical.Host = net.JoinHostPort(addr.String(), port)
		}
		return ArchivableURL{url: canonical, host: addr.String()}, nil
	}

	host, err := idna.Lookup.ToASCII(hostname)
	if err != nil {
		return ArchivableURL{}, invalidURL(raw, err.Error())
	}
	host = strings.ToLower(host)

	if strings.Contains(host, "localhost") {
		return ArchivableURL{}, invalidURL(raw, "local host")
	}

	for _, pattern := range v.excludedDomains {
		if pattern != "" && strings.Contains(host, strings.ToLower(pattern)) {
			return ArchivableURL{}, &ArchiveError{Cause: ErrCauseExcludedURL, URL: raw, Message: pattern}
		}
	}

	return ArchivableURL{url: *parsed, host: host}, nil
}

// checkRedirect applies Parse to a redirect hop.
func (v Validator) checkRedirect(target *url.URL) error {
	if _, err := v.Parse(target.String()); err != nil {
		return err
	}
	return nil
}

func isNonPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsMulticast() ||
		addr.IsUnspecified()
}

// endsInNumber reports whether a host is to be read as an IPv4 address:
// its last label, ignoring one trailing dot, is decimal digits or 0x hex.
func endsInNumber(host string) bool {
	labels := strings.Split(host, ".")
	if len(labels) > 1 && labels[len(labels)-1] == "" {
		labels = labels[:len(labels)-1]
	}
	last := labels[len(labels)-1]
	if last == "" {
		return false
	}
	if strings.Trim(last, "0123456789") == "" {
		return true
	}
	_, ok := parseIPv4Number(last)
	return ok
}

// parseIPv4Host accepts the legacy IPv4 spellings browsers accept: one to
// four dotted parts, each decimal, octal (leading 0) or hex (0x), with the
// last part filling the remaining bytes. 127.1, 2130706433 and 0x7f000001
// all name 127.0.0.1.
func parseIPv4Host(host string) (netip.Addr, bool) {
	parts := strings.Split(host, ".")
	if len(parts) > 1 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) > 4 {
		return netip.Addr{}, false
	}

	numbers := make([]uint64, len(parts))
	for i, part := range parts {
		n, ok := parseIPv4Number(part)
		if !ok {
			return netip.Addr{}, false
		}
		numbers[i] = n
	}

	var value uint64
	for i, n := range numbers[:len(numbers)-1] {
		if n > 255 {
			return netip.Addr{}, false
		}
		value |= n << (8 * (3 - i))
	}
	last := numbers[len(numbers)-1]
	if last >= 1<<(8*(5-len(numbers))) {
		return netip.Addr{}, false
	}
	value |= last

	return netip.AddrFrom4([4]byte{byte(value >> 24), byte(value >> 16), byte(value >> 8), byte(value)}), true
}

func parseIPv4Number(part string) (uint64, bool) {
	if part == "" {
		return 0, false
	}
	base := 10
	switch {
	case len(part) >= 2 && (part[:2] == "0x" || part[:2] == "0X"):
		part = part[2:]
		base = 16
		if part == "" {
			return 0, true
		}
	case len(part) >= 2 && part[0] == '0':
		part = part[1:]
		base = 8
	}
	n, err := strconv.ParseUint(part, base, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
