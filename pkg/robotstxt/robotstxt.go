// Package robotstxt parses Robots Exclusion Protocol documents and
// answers whether a user-agent may fetch a URL, following the
// Google-flavored dialect of the REP internet draft: lenient line
// parsing, '*' and '$' pattern wildcards, longest-match arbitration with
// allow winning ties, and prefix-based user-agent group selection.
//
// The package is pure: it performs no I/O, keeps no global state and
// reports no errors. Whatever bytes a host serves, parsing yields a
// usable model, and an unparseable policy degrades to a permissive one.
package robotstxt

/*
Responsibilities

- Parse robots.txt bytes into an immutable grouped-rule model
- Match request paths against '*'/'$' patterns
- Arbitrate allow/disallow rules per the longest-match policy
- Validate crawler identities

The package deliberately leaves fetching, caching and politeness to its
callers; see internal/robots for the crawl-facing layer.
*/

// IsUserAgentAllowed parses robotsBody and reports whether userAgent may
// fetch url. The url must be percent-encoded according to RFC 3986.
//
// The degenerate inputs resolve before any parsing: an empty body means
// no policy, so everything is allowed; an empty user-agent is allowed
// against any body; an empty url against a non-empty body is not.
func IsUserAgentAllowed(robotsBody, userAgent, url string) bool {
	if robotsBody == "" {
		return true
	}
	if userAgent == "" {
		return true
	}
	if url == "" {
		return false
	}
	return Parse(robotsBody).AllowedForAgent(userAgent, url)
}
