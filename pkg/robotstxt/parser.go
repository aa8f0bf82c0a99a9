package robotstxt

import (
	"strconv"
	"time"
)

// Parse turns a robots.txt body into an immutable ParsedRobots model.
// It never fails: malformed fragments are dropped and the remainder is
// kept, so the worst outcome of hostile input is a permissive model.
// Parsing the same body twice yields equal models.
func Parse(robotsBody string) *ParsedRobots {
	a := assembler{}
	for _, kv := range lexLines(robotsBody) {
		switch classifyKey(kv.key) {
		case directiveUserAgent:
			a.userAgent(kv.value)
		case directiveAllow:
			a.rule(Allow, kv.value)
		case directiveDisallow:
			a.rule(Disallow, kv.value)
		case directiveSitemap:
			a.sitemap(kv.value)
		case directiveCrawlDelay:
			a.crawlDelay(kv.value)
		}
	}
	a.flush()
	return &ParsedRobots{groups: a.groups, sitemaps: a.sitemaps}
}

// assembler folds the classified line stream into groups. It is a small
// state machine: consecutive user-agent lines accumulate agents for one
// group, the first allow/disallow closes the agent list, and a later
// user-agent line starts the next group. Sitemap, crawl-delay and unknown
// lines leave the state untouched.
type assembler struct {
	groups   []Group
	sitemaps []string

	current        *Group
	collectingRule bool
}

func (a *assembler) userAgent(value string) {
	if a.current == nil || a.collectingRule {
		a.flush()
		a.current = &Group{}
		a.collectingRule = false
	}
	if name := normalizeAgent(value); name != "" {
		a.current.agents = append(a.current.agents, name)
	}
}

func (a *assembler) rule(kind RuleKind, value string) {
	if a.current == nil {
		// Rules before any user-agent line belong to no group.
		return
	}
	a.collectingRule = true
	a.current.rules = append(a.current.rules, Rule{kind: kind, pattern: escapePattern(value)})
}

func (a *assembler) sitemap(value string) {
	if value != "" {
		a.sitemaps = append(a.sitemaps, value)
	}
}

func (a *assembler) crawlDelay(value string) {
	if a.current == nil {
		return
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || seconds < 0 {
		return
	}
	delay := time.Duration(seconds * float64(time.Second))
	a.current.crawlDelay = &delay
}

// flush commits the group under construction. A group that ended up with
// no usable agent name can never match and is dropped, which makes its
// rules behave like the orphan rules they effectively are.
func (a *assembler) flush() {
	if a.current != nil && len(a.current.agents) > 0 {
		a.groups = append(a.groups, *a.current)
	}
	a.current = nil
	a.collectingRule = false
}

const upperHex = "0123456789ABCDEF"

// escapePattern canonicalizes an allow/disallow value: bytes outside
// US-ASCII are percent-encoded and pre-existing %xx escapes get their hex
// digits uppercased, e.g. /SanJosé -> /SanJos%C3%A9 and %aa -> %AA.
// ASCII bytes, reserved characters included, pass through untouched.
func escapePattern(path string) string {
	if !needsEscape(path) {
		return path
	}
	out := make([]byte, 0, len(path)+6)
	for i := 0; i < len(path); i++ {
		c := path[i]
		switch {
		case c == '%' && i+2 < len(path) && isHexDigit(path[i+1]) && isHexDigit(path[i+2]):
			out = append(out, '%', upperHexDigit(path[i+1]), upperHexDigit(path[i+2]))
			i += 2
		case c >= 0x80:
			out = append(out, '%', upperHex[c>>4], upperHex[c&0xf])
		default:
			out = append(out, c)
		}
	}
	return string(out)
}

func needsEscape(path string) bool {
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c >= 0x80 {
			return true
		}
		if c == '%' && i+2 < len(path) &&
			isHexDigit(path[i+1]) && isHexDigit(path[i+2]) &&
			(isLowerHexDigit(path[i+1]) || isLowerHexDigit(path[i+2])) {
			return true
		}
	}
	return false
}

func isHexDigit(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'f' || 'A' <= c && c <= 'F'
}

func isLowerHexDigit(c byte) bool {
	return 'a' <= c && c <= 'f'
}

func upperHexDigit(c byte) byte {
	if isLowerHexDigit(c) {
		return c - ('a' - 'A')
	}
	return c
}
