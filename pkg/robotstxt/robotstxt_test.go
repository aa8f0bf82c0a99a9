package robotstxt_test

import (
	"strings"
	"testing"

	"github.com/rohmanhakim/robots-policy/pkg/robotstxt"
)

// verdictCase is one end-to-end check: does agent get to fetch url under
// robots?
type verdictCase struct {
	name   string
	robots string
	agent  string
	url    string
	want   bool
}

func runVerdicts(t *testing.T, cases []verdictCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := robotstxt.IsUserAgentAllowed(tc.robots, tc.agent, tc.url)
			if got != tc.want {
				t.Errorf("IsUserAgentAllowed(%q, %q) = %v, want %v", tc.agent, tc.url, got, tc.want)
			}
		})
	}
}

func TestIsUserAgentAllowedDegenerateInputs(t *testing.T) {
	robots := "user-agent: FooBot\ndisallow: /\n"

	runVerdicts(t, []verdictCase{
		{"empty robots allows everything", "", "FooBot", "", true},
		{"empty agent is allowed", robots, "", "", true},
		{"empty url against a policy is disallowed", robots, "FooBot", "", false},
		{"all empty", "", "", "", true},
		{"empty url against a permissive policy is still disallowed",
			"user-agent: FooBot\nallow: /\n", "FooBot", "", false},
	})
}

func TestLineSyntax(t *testing.T) {
	url := "http://foo.bar/x/y"

	runVerdicts(t, []verdictCase{
		{"well-formed lines", "user-agent: FooBot\ndisallow: /\n", "FooBot", url, false},
		{"unknown keys are dropped", "foo: FooBot\nbar: /\n", "FooBot", url, true},
		{"missing colon is accepted", "user-agent FooBot\ndisallow /\n", "FooBot", url, false},
	})
}

// Rules for the same user-agent may be split over several groups; they all
// apply. Rules before the first user-agent line apply to nobody.
func TestGroupAssembly(t *testing.T) {
	robots := "allow: /foo/bar/\n" +
		"\n" +
		"user-agent: FooBot\n" +
		"disallow: /\n" +
		"allow: /x/\n" +
		"user-agent: BarBot\n" +
		"disallow: /\n" +
		"allow: /y/\n" +
		"\n" +
		"\n" +
		"allow: /w/\n" +
		"user-agent: BazBot\n" +
		"\n" +
		"user-agent: FooBot\n" +
		"allow: /z/\n" +
		"disallow: /\n"

	runVerdicts(t, []verdictCase{
		{"FooBot first group", robots, "FooBot", "http://foo.bar/x/b", true},
		{"FooBot second group also applies", robots, "FooBot", "http://foo.bar/z/d", true},
		{"FooBot other agent's allow does not apply", robots, "FooBot", "http://foo.bar/y/c", false},
		{"BarBot own allow", robots, "BarBot", "http://foo.bar/y/c", true},
		{"rule after blank lines still in group", robots, "BarBot", "http://foo.bar/w/a", true},
		{"BarBot misses FooBot's allow", robots, "BarBot", "http://foo.bar/z/d", false},
		{"BazBot shares the trailing group", robots, "BazBot", "http://foo.bar/z/d", true},
		{"orphan rule applies to nobody (FooBot)", robots, "FooBot", "http://foo.bar/foo/bar/", false},
		{"orphan rule applies to nobody (BarBot)", robots, "BarBot", "http://foo.bar/foo/bar/", false},
		{"orphan rule applies to nobody (BazBot)", robots, "BazBot", "http://foo.bar/foo/bar/", false},
	})
}

func TestDirectiveKeysCaseInsensitive(t *testing.T) {
	allowed := "http://foo.bar/x/y"
	disallowed := "http://foo.bar/a/b"

	for _, robots := range []string{
		"USER-AGENT: FooBot\nALLOW: /x/\nDISALLOW: /\n",
		"user-agent: FooBot\nallow: /x/\ndisallow: /\n",
		"uSeR-aGeNt: FooBot\nAlLoW: /x/\ndIsAlLoW: /\n",
	} {
		if !robotstxt.IsUserAgentAllowed(robots, "FooBot", allowed) {
			t.Errorf("allowed url rejected under %q", robots[:12])
		}
		if robotstxt.IsUserAgentAllowed(robots, "FooBot", disallowed) {
			t.Errorf("disallowed url accepted under %q", robots[:12])
		}
	}
}

func TestUserAgentValueCaseInsensitive(t *testing.T) {
	allowed := "http://foo.bar/x/y"
	disallowed := "http://foo.bar/a/b"

	for _, robots := range []string{
		"User-Agent: FOO BAR\nAllow: /x/\nDisallow: /\n",
		"User-Agent: foo bar\nAllow: /x/\nDisallow: /\n",
		"User-Agent: FoO bAr\nAllow: /x/\nDisallow: /\n",
	} {
		for _, agent := range []string{"Foo", "foo"} {
			if !robotstxt.IsUserAgentAllowed(robots, agent, allowed) {
				t.Errorf("agent %q: allowed url rejected", agent)
			}
			if robotstxt.IsUserAgentAllowed(robots, agent, disallowed) {
				t.Errorf("agent %q: disallowed url accepted", agent)
			}
		}
	}
}

// User-agent values are truncated at the first whitespace on both sides of
// the match: a group for "Foo Bar" governs "foo", and a queried
// "Foo Bar" normalizes to "foo" before selection.
func TestUserAgentWhitespaceTruncation(t *testing.T) {
	robots := "User-Agent: *\n" +
		"Disallow: /\n" +
		"User-Agent: Foo Bar\n" +
		"Allow: /x/\n" +
		"Disallow: /\n"
	url := "http://foo.bar/x/y"

	runVerdicts(t, []verdictCase{
		{"group name truncates to foo", robots, "Foo", url, true},
		{"query truncates to foo", robots, "Foo Bar", url, true},
		{"unrelated agent falls to global group", robots, "BazBot", url, false},
	})
}

func TestGlobalGroupFallback(t *testing.T) {
	global := "user-agent: *\n" +
		"allow: /\n" +
		"user-agent: FooBot\n" +
		"disallow: /\n"
	onlySpecific := "user-agent: FooBot\n" +
		"allow: /\n" +
		"user-agent: BarBot\n" +
		"disallow: /\n" +
		"user-agent: BazBot\n" +
		"disallow: /\n"
	url := "http://foo.bar/x/y"

	runVerdicts(t, []verdictCase{
		{"empty file allows", "", "FooBot", url, true},
		{"specific group shadows global", global, "FooBot", url, false},
		{"global applies to unnamed agents", global, "BarBot", url, true},
		{"no group at all allows", onlySpecific, "QuxBot", url, true},
	})
}

func TestPathMatchingCaseSensitive(t *testing.T) {
	url := "http://foo.bar/x/y"

	runVerdicts(t, []verdictCase{
		{"lowercase rule blocks", "user-agent: FooBot\ndisallow: /x/\n", "FooBot", url, false},
		{"uppercase rule does not", "user-agent: FooBot\ndisallow: /X/\n", "FooBot", url, true},
	})
}

func TestLongestMatchArbitration(t *testing.T) {
	url := "http://foo.bar/x/page.html"

	runVerdicts(t, []verdictCase{
		{"longer disallow wins",
			"user-agent: FooBot\ndisallow: /x/page.html\nallow: /x/\n", "FooBot", url, false},
		{"longer allow wins",
			"user-agent: FooBot\nallow: /x/page.html\ndisallow: /x/\n", "FooBot", url, true},
		{"shorter allow loses",
			"user-agent: FooBot\nallow: /x/page.html\ndisallow: /x/\n", "FooBot", "http://foo.bar/x/", false},
		{"empty patterns match nothing",
			"user-agent: FooBot\ndisallow: \nallow: \n", "FooBot", url, true},
		{"equal length favors allow",
			"user-agent: FooBot\ndisallow: /\nallow: /\n", "FooBot", url, true},
		{"trailing slash separates rules (disallowed)",
			"user-agent: FooBot\ndisallow: /x\nallow: /x/\n", "FooBot", "http://foo.bar/x", false},
		{"trailing slash separates rules (allowed)",
			"user-agent: FooBot\ndisallow: /x\nallow: /x/\n", "FooBot", "http://foo.bar/x/", true},
		{"identical patterns favor allow",
			"user-agent: FooBot\ndisallow: /x/page.html\nallow: /x/page.html\n", "FooBot", url, true},
		{"wildcard length counts as one byte (disallowed)",
			"user-agent: FooBot\nallow: /page\ndisallow: /*.html\n", "FooBot", "http://foo.bar/page.html", false},
		{"wildcard length counts as one byte (allowed)",
			"user-agent: FooBot\nallow: /page\ndisallow: /*.html\n", "FooBot", "http://foo.bar/page", true},
		{"longer literal allow beats wildcard",
			"user-agent: FooBot\nallow: /x/page.\ndisallow: /*.html\n", "FooBot", url, true},
		{"wildcard still blocks elsewhere",
			"user-agent: FooBot\nallow: /x/page.\ndisallow: /*.html\n", "FooBot", "http://foo.bar/x/y.html", false},
		{"specific group allows implicitly",
			"User-agent: *\nDisallow: /x/\nUser-agent: FooBot\nDisallow: /y/\n", "FooBot", "http://foo.bar/x/page", true},
		{"specific group still disallows its own",
			"User-agent: *\nDisallow: /x/\nUser-agent: FooBot\nDisallow: /y/\n", "FooBot", "http://foo.bar/y/page", false},
	})
}

// Rule patterns are canonicalized: bytes outside US-ASCII are
// percent-encoded, existing escapes keep their meaning. Queried URLs are
// taken as given; encoding them is the caller's job.
func TestPatternEncoding(t *testing.T) {
	runVerdicts(t, []verdictCase{
		{"reserved characters stay raw",
			"User-agent: FooBot\nDisallow: /\nAllow: /foo/bar?qux=taz&baz=http://foo.bar?tar&par\n",
			"FooBot", "http://foo.bar/foo/bar?qux=taz&baz=http://foo.bar?tar&par", true},
		{"multibyte pattern is percent-encoded",
			"User-agent: FooBot\nDisallow: /\nAllow: /foo/bar/ツ\n",
			"FooBot", "http://foo.bar/foo/bar/%E3%83%84", true},
		{"raw multibyte url does not match the encoded pattern",
			"User-agent: FooBot\nDisallow: /\nAllow: /foo/bar/ツ\n",
			"FooBot", "http://foo.bar/foo/bar/ツ", false},
		{"already-encoded pattern is kept",
			"User-agent: FooBot\nDisallow: /\nAllow: /foo/bar/%E3%83%84\n",
			"FooBot", "http://foo.bar/foo/bar/%E3%83%84", true},
		{"encoded pattern does not match raw url",
			"User-agent: FooBot\nDisallow: /\nAllow: /foo/bar/%E3%83%84\n",
			"FooBot", "http://foo.bar/foo/bar/ツ", false},
		{"unnecessary ascii escapes match only themselves (raw)",
			"User-agent: FooBot\nDisallow: /\nAllow: /foo/bar/%62%61%7A\n",
			"FooBot", "http://foo.bar/foo/bar/baz", false},
		{"unnecessary ascii escapes match only themselves (escaped)",
			"User-agent: FooBot\nDisallow: /\nAllow: /foo/bar/%62%61%7A\n",
			"FooBot", "http://foo.bar/foo/bar/%62%61%7A", true},
	})
}

func TestSpecialCharacters(t *testing.T) {
	runVerdicts(t, []verdictCase{
		{"star spans a segment",
			"User-agent: FooBot\nDisallow: /foo/bar/quz\nAllow: /foo/*/qux\n",
			"FooBot", "http://foo.bar/foo/bar/quz", false},
		{"shorter path matches nothing",
			"User-agent: FooBot\nDisallow: /foo/bar/quz\nAllow: /foo/*/qux\n",
			"FooBot", "http://foo.bar/foo/quz", true},
		{"double slash matches nothing",
			"User-agent: FooBot\nDisallow: /foo/bar/quz\nAllow: /foo/*/qux\n",
			"FooBot", "http://foo.bar/foo//quz", true},
		{"other segment matches nothing",
			"User-agent: FooBot\nDisallow: /foo/bar/quz\nAllow: /foo/*/qux\n",
			"FooBot", "http://foo.bar/foo/bax/quz", true},
		{"dollar anchors the end",
			"User-agent: FooBot\nDisallow: /foo/bar$\nAllow: /foo/bar/qux\n",
			"FooBot", "http://foo.bar/foo/bar", false},
		{"anchored pattern frees longer paths",
			"User-agent: FooBot\nDisallow: /foo/bar$\nAllow: /foo/bar/qux\n",
			"FooBot", "http://foo.bar/foo/bar/qux", true},
		{"anchored pattern frees the directory",
			"User-agent: FooBot\nDisallow: /foo/bar$\nAllow: /foo/bar/qux\n",
			"FooBot", "http://foo.bar/foo/bar/", true},
		{"anchored pattern frees siblings",
			"User-agent: FooBot\nDisallow: /foo/bar$\nAllow: /foo/bar/qux\n",
			"FooBot", "http://foo.bar/foo/bar/baz", true},
		{"hash starts a comment",
			"User-agent: FooBot\n# Disallow: /\nDisallow: /foo/quz#qux\nAllow: /\n",
			"FooBot", "http://foo.bar/foo/bar", true},
		{"comment is stripped from the pattern",
			"User-agent: FooBot\n# Disallow: /\nDisallow: /foo/quz#qux\nAllow: /\n",
			"FooBot", "http://foo.bar/foo/quz", false},
	})
}

// Allowing a directory's index.html allows the directory itself, but
// nothing shorter of an exact match.
func TestIndexHTMLIsDirectory(t *testing.T) {
	robots := "User-Agent: *\n" +
		"Allow: /allowed-slash/index.html\n" +
		"Disallow: /\n"

	runVerdicts(t, []verdictCase{
		{"directory allowed", robots, "foobot", "http://foo.com/allowed-slash/", true},
		{"index.htm is not index.html", robots, "foobot", "http://foo.com/allowed-slash/index.htm", false},
		{"exact match", robots, "foobot", "http://foo.com/allowed-slash/index.html", true},
		{"everything else stays blocked", robots, "foobot", "http://foo.com/anyother-url", false},
	})
}

// Overlong lines are cut off; the truncated rule still matches URLs
// sharing the kept prefix.
func TestLineTooLong(t *testing.T) {
	const maxLineLen = 8 * 2083
	const eolLen = len("\n")
	allow := "allow: "
	disallow := "disallow: "

	t.Run("truncated disallow still matches", func(t *testing.T) {
		maxLength := maxLineLen - len("/x/") - len(disallow) + eolLen
		longline := "/x/" + strings.Repeat("a", maxLength-len("/x/"))
		robots := "user-agent: FooBot\n" + disallow + longline + "/qux\n"

		if !robotstxt.IsUserAgentAllowed(robots, "FooBot", "http://foo.bar/fux") {
			t.Error("unrelated URL should stay allowed")
		}
		if robotstxt.IsUserAgentAllowed(robots, "FooBot", "http://foo.bar"+longline+"/fux") {
			t.Error("URL sharing the truncated prefix should be disallowed")
		}
	})

	t.Run("truncated allow still matches", func(t *testing.T) {
		maxLength := maxLineLen - len("/x/") - len(allow) + eolLen
		longlineA := "/x/" + strings.Repeat("a", maxLength-len("/x/"))
		longlineB := "/x/" + strings.Repeat("b", maxLength-len("/x/"))
		robots := "user-agent: FooBot\n" +
			"disallow: /\n" +
			allow + longlineA + "/qux\n" +
			allow + longlineB + "/qux\n"

		if robotstxt.IsUserAgentAllowed(robots, "FooBot", "http://foo.bar/") {
			t.Error("root should be disallowed")
		}
		if !robotstxt.IsUserAgentAllowed(robots, "FooBot", "http://foo.bar"+longlineA+"/qux") {
			t.Error("exact match against the kept prefix should be allowed")
		}
		if !robotstxt.IsUserAgentAllowed(robots, "FooBot", "http://foo.bar"+longlineB+"/fux") {
			t.Error("URL sharing the truncated prefix should be allowed")
		}
	})
}

// The documented URL-matching examples: /fish, /fish*, /fish/, /*.php,
// /*.php$ and /fish*.php.
func TestDocumentedPathValues(t *testing.T) {
	fish := "user-agent: FooBot\ndisallow: /\nallow: /fish\n"
	fishStar := "user-agent: FooBot\ndisallow: /\nallow: /fish*\n"
	fishDir := "user-agent: FooBot\ndisallow: /\nallow: /fish/\n"
	anyPHP := "user-agent: FooBot\ndisallow: /\nallow: /*.php\n"
	anyPHPEnd := "user-agent: FooBot\ndisallow: /\nallow: /*.php$\n"
	fishPHP := "user-agent: FooBot\ndisallow: /\nallow: /fish*.php\n"

	runVerdicts(t, []verdictCase{
		{"fish: other path", fish, "FooBot", "http://foo.bar/bar", false},
		{"fish: exact", fish, "FooBot", "http://foo.bar/fish", true},
		{"fish: suffix", fish, "FooBot", "http://foo.bar/fish.html", true},
		{"fish: subtree", fish, "FooBot", "http://foo.bar/fish/salmon.html", true},
		{"fish: prefix word", fish, "FooBot", "http://foo.bar/fishheads", true},
		{"fish: prefix subtree", fish, "FooBot", "http://foo.bar/fishheads/yummy.html", true},
		{"fish: query", fish, "FooBot", "http://foo.bar/fish.html?id=anything", true},
		{"fish: case matters", fish, "FooBot", "http://foo.bar/Fish.asp", false},
		{"fish: anchored at start", fish, "FooBot", "http://foo.bar/catfish", false},
		{"fish: query only", fish, "FooBot", "http://foo.bar/?id=fish", false},

		{"fish*: other path", fishStar, "FooBot", "http://foo.bar/bar", false},
		{"fish*: exact", fishStar, "FooBot", "http://foo.bar/fish", true},
		{"fish*: suffix", fishStar, "FooBot", "http://foo.bar/fish.html", true},
		{"fish*: subtree", fishStar, "FooBot", "http://foo.bar/fish/salmon.html", true},
		{"fish*: prefix word", fishStar, "FooBot", "http://foo.bar/fishheads", true},
		{"fish*: case matters", fishStar, "FooBot", "http://foo.bar/Fish.bar", false},
		{"fish*: anchored at start", fishStar, "FooBot", "http://foo.bar/catfish", false},

		{"fish/: other path", fishDir, "FooBot", "http://foo.bar/bar", false},
		{"fish/: directory", fishDir, "FooBot", "http://foo.bar/fish/", true},
		{"fish/: child", fishDir, "FooBot", "http://foo.bar/fish/salmon", true},
		{"fish/: query child", fishDir, "FooBot", "http://foo.bar/fish/?salmon", true},
		{"fish/: no trailing slash", fishDir, "FooBot", "http://foo.bar/fish", false},
		{"fish/: sibling file", fishDir, "FooBot", "http://foo.bar/fish.html", false},
		{"fish/: case matters", fishDir, "FooBot", "http://foo.bar/Fish/Salmon.html", false},

		{"*.php: other path", anyPHP, "FooBot", "http://foo.bar/bar", false},
		{"*.php: top level", anyPHP, "FooBot", "http://foo.bar/filename.php", true},
		{"*.php: nested", anyPHP, "FooBot", "http://foo.bar/folder/filename.php", true},
		{"*.php: with query", anyPHP, "FooBot", "http://foo.bar/folder/filename.php?parameters", true},
		{"*.php: mid-path", anyPHP, "FooBot", "http://foo.bar//folder/any.php.file.html", true},
		{"*.php: trailing slash", anyPHP, "FooBot", "http://foo.bar/filename.php/", true},
		{"*.php: in query value", anyPHP, "FooBot", "http://foo.bar/index?f=filename.php/", true},
		{"*.php: needs the dot", anyPHP, "FooBot", "http://foo.bar/php/", false},
		{"*.php: query name only", anyPHP, "FooBot", "http://foo.bar/index?php", false},
		{"*.php: case matters", anyPHP, "FooBot", "http://foo.bar/windows.PHP", false},

		{"*.php$: top level", anyPHPEnd, "FooBot", "http://foo.bar/filename.php", true},
		{"*.php$: nested", anyPHPEnd, "FooBot", "http://foo.bar/folder/filename.php", true},
		{"*.php$: query breaks the anchor", anyPHPEnd, "FooBot", "http://foo.bar/filename.php?parameters", false},
		{"*.php$: trailing slash breaks the anchor", anyPHPEnd, "FooBot", "http://foo.bar/filename.php/", false},
		{"*.php$: longer extension", anyPHPEnd, "FooBot", "http://foo.bar/filename.php5", false},
		{"*.php$: directory", anyPHPEnd, "FooBot", "http://foo.bar/php/", false},
		{"*.php$: query name", anyPHPEnd, "FooBot", "http://foo.bar/filename?php", false},
		{"*.php$: substring", anyPHPEnd, "FooBot", "http://foo.bar/aaaphpaaa", false},
		{"*.php$: case matters", anyPHPEnd, "FooBot", "http://foo.bar//windows.PHP", false},

		{"fish*.php: both parts", fishPHP, "FooBot", "http://foo.bar/fish.php", true},
		{"fish*.php: spanning segments", fishPHP, "FooBot", "http://foo.bar/fishheads/catfish.php?parameters", true},
		{"fish*.php: case matters", fishPHP, "FooBot", "http://foo.bar/Fish.PHP", false},
	})
}

func TestOrderOfPrecedenceExamples(t *testing.T) {
	runVerdicts(t, []verdictCase{
		{"allow /p beats disallow /",
			"user-agent: FooBot\nallow: /p\ndisallow: /\n", "FooBot", "http://example.com/page", true},
		{"equal folder rules favor allow",
			"user-agent: FooBot\nallow: /folder\ndisallow: /folder\n", "FooBot", "http://example.com/folder/page", true},
		{"longer wildcard disallow wins",
			"user-agent: FooBot\nallow: /page\ndisallow: /*.htm\n", "FooBot", "http://example.com/page.htm", false},
		{"anchored root allow",
			"user-agent: FooBot\nallow: /$\ndisallow: /\n", "FooBot", "http://example.com/", true},
		{"anchored root allow frees nothing else",
			"user-agent: FooBot\nallow: /$\ndisallow: /\n", "FooBot", "http://example.com/page.html", false},
	})
}
