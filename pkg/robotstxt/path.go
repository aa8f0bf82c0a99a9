package robotstxt

import "strings"

// pathParamsQuery extracts the portion of a URL that rules match against:
// everything from the first '/' after the authority, query and fragment
// included. "http://foo.bar/x/y?z" yields "/x/y?z", a URL with no path
// yields "/", and an empty URL yields the empty string, which matches no
// pattern. The URL is used as given: callers percent-encode it themselves.
func pathParamsQuery(url string) string {
	if url == "" {
		return ""
	}
	rest := url[schemeLen(url):]

	// The authority runs to the first '/', '?' or '#'.
	i := strings.IndexAny(rest, "/?#")
	if i < 0 {
		return "/"
	}
	rest = rest[i:]
	if rest[0] == '/' {
		return rest
	}
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		return rest[j:]
	}
	return "/"
}

// schemeLen returns the length of a leading "<scheme>://" prefix, or 0
// when the URL does not start with one. A scheme is a letter followed by
// letters, digits, '+', '-' or '.'.
func schemeLen(url string) int {
	if len(url) == 0 || !isAlpha(url[0]) {
		return 0
	}
	i := 1
	for i < len(url) && (isAlpha(url[i]) || isDigit(url[i]) || url[i] == '+' || url[i] == '-' || url[i] == '.') {
		i++
	}
	if strings.HasPrefix(url[i:], "://") {
		return i + 3
	}
	return 0
}

func isAlpha(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func isDigit(c byte) bool {
	return '0' <= c && c <= '9'
}
