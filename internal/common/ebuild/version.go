package ebuild

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrInvalidVersion = errors.New("invalid version string")
)

// Suffix priorities in PMS order: alpha < beta < pre < rc < (none) < p
var suffixPriority = map[string]int{
	"alpha": -4,
	"beta":  -3,
	"pre":   -2,
	"rc":    -1,
	"p":     1,
}

// versionRegex follows PMS 3.2:
// numbers, optional letter, any number of suffixes, optional revision.
var versionRegex = regexp.MustCompile(`^(\d+(?:\.\d+)*)([a-z]?)((?:_(?:alpha|beta|pre|rc|p)\d*)*)(?:-r(\d+))?$`)

var suffixRegex = regexp.MustCompile(`_(alpha|beta|pre|rc|p)(\d*)`)

// Suffix is a single _alpha/_beta/_pre/_rc/_p component
type Suffix struct {
	Name   string // e.g., "rc"
	Number string // e.g., "1", empty when omitted
}

// Version is a parsed Gentoo package version
type Version struct {
	Numbers  []string // "1.02.3" -> ["1", "02", "3"]
	Letter   string   // "1.0a" -> "a"
	Suffixes []Suffix
	Revision string // "-r1" -> "1", empty when omitted
	raw      string
}

// ParseVersion parses a version string such as "1.0.1_rc2-r1"
func ParseVersion(v string) (*Version, error) {
	m := versionRegex.FindStringSubmatch(v)
	if m == nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}

	ver := &Version{
		Numbers:  strings.Split(m[1], "."),
		Letter:   m[2],
		Revision: m[4],
		raw:      v,
	}
	for _, s := range suffixRegex.FindAllStringSubmatch(m[3], -1) {
		ver.Suffixes = append(ver.Suffixes, Suffix{Name: s[1], Number: s[2]})
	}
	return ver, nil
}

// IsValidVersion reports whether v is a well-formed version string
func IsValidVersion(v string) bool {
	return versionRegex.MatchString(v)
}

// String returns the version as it was parsed
func (v *Version) String() string {
	return v.raw
}

// WithoutRevision returns the version with any -rN suffix removed
func (v *Version) WithoutRevision() string {
	if i := strings.LastIndex(v.raw, "-r"); i >= 0 && v.Revision != "" {
		return v.raw[:i]
	}
	return v.raw
}

// Compare orders two versions using the PMS algorithm.
// Returns: -1 if v < o, 0 if v == o, 1 if v > o
func (v *Version) Compare(o *Version) int {
	if cmp := compareNumbers(v.Numbers, o.Numbers); cmp != 0 {
		return cmp
	}

	if v.Letter != o.Letter {
		if v.Letter < o.Letter {
			return -1
		}
		return 1
	}

	if cmp := compareSuffixes(v.Suffixes, o.Suffixes); cmp != 0 {
		return cmp
	}

	return compareIntStrings(v.Revision, o.Revision)
}

// compareNumbers compares the dotted numeric components.
// The first component is always compared as an integer. Later components
// with a leading zero are compared as strings with trailing zeros removed.
// When all shared components are equal, the longer list wins (1.0 < 1.0.0).
func compareNumbers(a, b []string) int {
	if cmp := compareIntStrings(a[0], b[0]); cmp != 0 {
		return cmp
	}

	n := min(len(a), len(b))
	for i := 1; i < n; i++ {
		var cmp int
		if strings.HasPrefix(a[i], "0") || strings.HasPrefix(b[i], "0") {
			cmp = strings.Compare(strings.TrimRight(a[i], "0"), strings.TrimRight(b[i], "0"))
		} else {
			cmp = compareIntStrings(a[i], b[i])
		}
		if cmp != 0 {
			return cmp
		}
	}

	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func compareSuffixes(a, b []Suffix) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		pa, pb := suffixPriority[a[i].Name], suffixPriority[b[i].Name]
		if pa != pb {
			if pa < pb {
				return -1
			}
			return 1
		}
		if cmp := compareIntStrings(a[i].Number, b[i].Number); cmp != 0 {
			return cmp
		}
	}

	// An extra _p suffix makes a version newer, any other extra suffix older
	switch {
	case len(a) > n:
		if a[n].Name == "p" {
			return 1
		}
		return -1
	case len(b) > n:
		if b[n].Name == "p" {
			return -1
		}
		return 1
	}
	return 0
}

// compareIntStrings compares two unsigned decimal strings of any length.
// An empty string counts as zero.
func compareIntStrings(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

// CompareVersions compares two Gentoo-style version strings
// Returns: -1 if v1 < v2, 0 if v1 == v2, 1 if v1 > v2
func CompareVersions(v1, v2 string) (int, error) {
	a, err := ParseVersion(v1)
	if err != nil {
		return 0, err
	}
	b, err := ParseVersion(v2)
	if err != nil {
		return 0, err
	}
	return a.Compare(b), nil
}
