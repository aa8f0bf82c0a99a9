package robotstxt

// matches reports whether path matches pattern. The pattern is anchored at
// the beginning of path but not at its end, so a pattern without a final
// '$' is a prefix match. '*' matches any run of bytes, runs of '*' behave
// like a single one, and '$' is special only as the last pattern byte;
// anywhere else it is a literal. Comparison is byte-exact.
//
// Both path and pattern are externally determined, so worst-case time
// matters: the position-set sweep below is O(len(path) * len(pattern)).
func matches(path, pattern string) bool {
	// pos holds, in ascending order, every path offset the pattern prefix
	// consumed so far can end at.
	pos := make([]int, 1, len(path)+1)
	pos[0] = 0

	for i := 0; i < len(pattern); i++ {
		ch := pattern[i]
		if ch == '$' && i == len(pattern)-1 {
			return pos[len(pos)-1] == len(path)
		}
		if ch == '*' {
			// Everything from the smallest live offset to the end of the
			// path becomes reachable.
			lo := pos[0]
			pos = pos[:0]
			for p := lo; p <= len(path); p++ {
				pos = append(pos, p)
			}
			continue
		}
		live := pos[:0]
		for _, p := range pos {
			if p < len(path) && path[p] == ch {
				live = append(live, p+1)
			}
		}
		pos = live
		if len(pos) == 0 {
			return false
		}
	}
	return true
}

// matchLength returns the arbitration length of a rule against a path:
// the pattern's byte length when it matches ('*' and '$' count as one
// byte each), or -1 when it does not. Empty patterns match no path.
//
// Patterns ending in "/index.html" additionally match as their directory
// end-anchored, so allowing a directory index allows the directory itself;
// the reported length stays that of the written pattern.
func matchLength(path, pattern string) int {
	if pattern == "" {
		return -1
	}
	if matches(path, pattern) {
		return len(pattern)
	}
	if dir, ok := indexHTMLDirectory(pattern); ok && matches(path, dir) {
		return len(pattern)
	}
	return -1
}

const indexHTMLSuffix = "/index.html"

// indexHTMLDirectory rewrites a "/index.html"-suffixed pattern to its
// end-anchored directory form: "/a/index.html" becomes "/a/$".
func indexHTMLDirectory(pattern string) (string, bool) {
	if len(pattern) < len(indexHTMLSuffix) || pattern[len(pattern)-len(indexHTMLSuffix):] != indexHTMLSuffix {
		return "", false
	}
	return pattern[:len(pattern)-len("index.html")] + "$", true
}
