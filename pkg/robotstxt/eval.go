package robotstxt

import (
	"strings"
	"time"
)

// rulesFor selects the rules governing a queried user-agent.
//
// The query is normalized, then every group is scanned for an agent name
// the query starts with; the longest such prefix is the most specific and
// wins. Rules for the same user-agent may be split over several groups in
// the file, so every group carrying the winning name contributes its
// rules, in source order. Without a specific candidate the "*" groups
// apply; without those either, no group applies and ok is false.
//
// ok is true even when the selected groups hold no rules: a group that
// names the agent and allows everything still shadows the global groups.
func (p *ParsedRobots) rulesFor(userAgent string) (rules []Rule, ok bool) {
	name := p.mostSpecificAgent(normalizeAgent(userAgent))
	if name == "" {
		return nil, false
	}
	for _, g := range p.groups {
		if g.hasAgent(name) {
			rules = append(rules, g.rules...)
		}
	}
	return rules, true
}

// mostSpecificAgent returns the agent name to select groups by: the
// longest group agent name the query starts with, or "*" when only
// global groups exist, or "" when nothing applies. Equal-length winners
// are necessarily the same string, so ties resolve themselves.
func (p *ParsedRobots) mostSpecificAgent(query string) string {
	if query == "" {
		return ""
	}
	best := ""
	global := false
	for _, g := range p.groups {
		for _, a := range g.agents {
			if a == "*" {
				global = true
				continue
			}
			if strings.HasPrefix(query, a) && len(a) > len(best) {
				best = a
			}
		}
	}
	if best == "" && global {
		return "*"
	}
	return best
}

// allowedByRules arbitrates all matching rules for a path: the longest
// matching pattern wins, and when an allow and a disallow match at equal
// length the allow wins. No matching rule means the path is allowed.
func allowedByRules(rules []Rule, path string) bool {
	bestAllow, bestDisallow := -1, -1
	for _, r := range rules {
		n := matchLength(path, r.pattern)
		if n < 0 {
			continue
		}
		switch r.kind {
		case Allow:
			if n > bestAllow {
				bestAllow = n
			}
		case Disallow:
			if n > bestDisallow {
				bestDisallow = n
			}
		}
	}
	if bestAllow < 0 && bestDisallow < 0 {
		return true
	}
	return bestAllow >= bestDisallow
}

// AllowedForAgent reports whether userAgent may fetch url under this
// policy. The url must already be percent-encoded by the caller; its
// path, parameters and query are matched against the rules of the most
// specific applicable group.
func (p *ParsedRobots) AllowedForAgent(userAgent, url string) bool {
	rules, ok := p.rulesFor(userAgent)
	if !ok {
		return true
	}
	return allowedByRules(rules, pathParamsQuery(url))
}

// Applies reports whether any group, global ones included, governs the
// given user-agent.
func (p *ParsedRobots) Applies(userAgent string) bool {
	_, ok := p.rulesFor(userAgent)
	return ok
}

// CrawlDelayFor returns the crawl delay of the first selected group that
// specifies one, or nil. Like sitemaps, crawl delays are recorded for
// callers and never affect verdicts.
func (p *ParsedRobots) CrawlDelayFor(userAgent string) *time.Duration {
	name := p.mostSpecificAgent(normalizeAgent(userAgent))
	if name == "" {
		return nil
	}
	for _, g := range p.groups {
		if g.hasAgent(name) && g.crawlDelay != nil {
			delay := *g.crawlDelay
			return &delay
		}
	}
	return nil
}
