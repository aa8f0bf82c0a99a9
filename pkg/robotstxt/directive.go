package robotstxt

import "strings"

// directive is the classified meaning of a line's key.
type directive int

const (
	directiveUnknown directive = iota
	directiveUserAgent
	directiveAllow
	directiveDisallow
	directiveSitemap
	directiveCrawlDelay
)

// Webmasters misspell "disallow" often enough that the reference parser
// tolerates these variants.
var disallowTypos = []string{"dissallow", "dissalow", "disalow", "diasllow", "disallaw"}

// classifyKey maps a line key to a directive. Matching is case-insensitive
// and prefix-based, mirroring the lenient reference behavior where
// "user-agent:" and "useragent blah:" classify identically. Unrecognized
// keys become directiveUnknown and are dropped by the assembler.
func classifyKey(key string) directive {
	k := strings.ToLower(key)
	switch {
	case hasAnyPrefix(k, "user-agent", "useragent", "user agent"):
		return directiveUserAgent
	case strings.HasPrefix(k, "disallow") || hasAnyPrefix(k, disallowTypos...):
		return directiveDisallow
	case strings.HasPrefix(k, "allow"):
		return directiveAllow
	case hasAnyPrefix(k, "sitemap", "site-map"):
		return directiveSitemap
	case hasAnyPrefix(k, "crawl-delay", "crawldelay"):
		return directiveCrawlDelay
	}
	return directiveUnknown
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
