package portage

import (
	"regexp"
	"strings"
)

// keywordsPattern matches a KEYWORDS assignment and what precedes it on the line
var keywordsPattern = regexp.MustCompile(`(?m)^([^\n#]*?)\bKEYWORDS=(?:"([^"]*)"|'([^']*)'|([^\s;]*))`)

// readKeywords returns the KEYWORDS of an ebuild. conditional is true when
// the assignment is indented or guarded (e.g. `[[ ${PV} == 9999 ]] || KEYWORDS=...`).
func readKeywords(content string) (keywords []string, conditional bool) {
	m := keywordsPattern.FindStringSubmatch(content)
	if m == nil {
		return nil, false
	}
	value := m[2] + m[3] + m[4]
	return strings.Fields(value), m[1] != ""
}

// isLive reports whether an ebuild should be treated as a live (VCS) ebuild
func isLive(version string, keywords []string, conditional bool) bool {
	if len(keywords) == 0 {
		return true
	}
	// Keywords set under a condition usually belong to the release branch only
	return conditional && strings.Contains(version, "9999")
}

// accepted applies keyword visibility: arch is stable, ~arch is testing.
// Without an arch any keyworded ebuild is visible.
func accepted(keywords []string, arch string, acceptTesting bool) bool {
	if arch == "" {
		return len(keywords) > 0
	}

	for _, kw := range keywords {
		if kw == arch || (acceptTesting && kw == "~"+arch) {
			return true
		}
	}
	return false
}
