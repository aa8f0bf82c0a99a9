package robotstxt

import "strings"

// normalizeAgent reduces a user-agent token to its comparable form:
// lowercased and truncated at the first whitespace. Webmasters write
// "Foo Bar" in user-agent lines; only "foo" is the product token.
// The same normalization applies to queried agents and to agent names
// collected from user-agent lines, keeping both sides symmetric.
func normalizeAgent(userAgent string) string {
	if i := strings.IndexAny(userAgent, " \t"); i >= 0 {
		userAgent = userAgent[:i]
	}
	return strings.ToLower(userAgent)
}

// IsValidUserAgentToObey reports whether name is a syntactically valid
// user-agent for a crawler to identify as when obeying robots.txt: it
// must be non-empty and consist only of the bytes [A-Za-z_-]. This is a
// sanity check for callers choosing their own identity; matching against
// parsed groups is deliberately more lenient.
func IsValidUserAgentToObey(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_' || c == '-') {
			return false
		}
	}
	return true
}
