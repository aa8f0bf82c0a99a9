package urlutil

import (
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

// Canonicalize applies a deterministic normalization to a URL, producing
// the canonical form used as a policy lookup key. It maps equivalent URL
// spellings to a single representation.
//
// The normalization follows these rules:
//   - Scheme and host are lowercased
//   - Default ports are omitted (e.g., :80 for http, :443 for https)
//   - Fragments are removed
//
// Unlike a crawl frontier key, the path and query are preserved: robots
// rules match against them byte for byte.
//
// Properties:
//   - Pure: no state, no memory
//   - Deterministic: same input always produces same output
//   - Idempotent: Canonicalize(Canonicalize(url)) == Canonicalize(url)
func Canonicalize(sourceUrl url.URL) url.URL {
	canonical := sourceUrl

	canonical.Scheme = lowerASCII(canonical.Scheme)
	canonical.Host = lowerASCII(canonical.Host)

	if host, port := canonical.Hostname(), canonical.Port(); port != "" {
		if (canonical.Scheme == "http" && port == "80") ||
			(canonical.Scheme == "https" && port == "443") {
			canonical.Host = host
		}
	}

	canonical.Fragment = ""
	canonical.RawFragment = ""

	return canonical
}

// NormalizeHost converts a hostname to its lowercased ASCII (punycode)
// form, so "BÜCHER.example" and "xn--bcher-kva.example" address the same
// robots.txt. Hostnames that cannot be converted are returned lowercased
// as-is rather than failing: the fetch will fail on its own terms.
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	ascii, err := idna.ToASCII(host)
	if err != nil || ascii == "" {
		return host
	}
	return lowerASCII(ascii)
}

// lowerASCII converts ASCII characters to lowercase without allocating
// when the input is already lowercase.
func lowerASCII(s string) string {
	needsLower := false
	for i := 0; i < len(s); i++ {
		if s[i] >= 'A' && s[i] <= 'Z' {
			needsLower = true
			break
		}
	}
	if !needsLower {
		return s
	}

	b := []byte(s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}
