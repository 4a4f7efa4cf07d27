package ebuild

import (
	"errors"
	"regexp"
	"strings"
)

var (
	ErrInvalidEbuildPath = errors.New("invalid ebuild path format")
	ErrInvalidAtom       = errors.New("invalid package atom")
)

// nameRegex matches category and package names (PMS 3.1)
var nameRegex = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9+_.-]*$`)

// Ebuild represents a parsed ebuild file path
type Ebuild struct {
	Category string // e.g., "app-misc"
	Package  string // e.g., "hello"
	Name     string // e.g., "hello" (same as Package for simple cases)
	Version  string // e.g., "1.0", "1.0_rc1", "1.0-r1"
}

// ParsePath parses an ebuild path and extracts category, package, name, and version
// Expected format: category/package/package-version.ebuild
func ParsePath(path string) (*Ebuild, error) {
	// Normalize path separators
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.TrimPrefix(path, "./")

	parts := strings.Split(path, "/")
	if len(parts) != 3 || !strings.HasSuffix(parts[2], ".ebuild") {
		return nil, ErrInvalidEbuildPath
	}

	name, version, ok := SplitPackageVersion(strings.TrimSuffix(parts[2], ".ebuild"))
	if !ok {
		return nil, ErrInvalidEbuildPath
	}

	// The filename prefix must match the package directory name
	if name != parts[1] || !nameRegex.MatchString(parts[0]) {
		return nil, ErrInvalidEbuildPath
	}

	return &Ebuild{
		Category: parts[0],
		Package:  parts[1],
		Name:     name,
		Version:  version,
	}, nil
}

// SplitPackageVersion splits "name-version" at the first hyphen that is
// followed by a valid version, so "foo-bar-1.0-r1" gives "foo-bar", "1.0-r1".
func SplitPackageVersion(pv string) (name, version string, ok bool) {
	for i := 1; i < len(pv)-1; i++ {
		if pv[i] != '-' {
			continue
		}
		if IsValidVersion(pv[i+1:]) && nameRegex.MatchString(pv[:i]) {
			return pv[:i], pv[i+1:], true
		}
	}
	return "", "", false
}

// FullName returns the category/package format
func (e *Ebuild) FullName() string {
	return e.Category + "/" + e.Package
}

// String returns the full ebuild path format: category/package/package-version.ebuild
func (e *Ebuild) String() string {
	return e.Category + "/" + e.Package + "/" + e.Name + "-" + e.Version + ".ebuild"
}

// Atom is an unversioned package reference, "category/package" or a bare
// package name that matches in any category.
type Atom struct {
	Category string // empty for bare names
	Package  string
}

// ParseAtom parses "category/package" or "package"
func ParseAtom(s string) (Atom, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, "/")
	switch len(parts) {
	case 1:
		if nameRegex.MatchString(parts[0]) {
			return Atom{Package: parts[0]}, nil
		}
	case 2:
		if nameRegex.MatchString(parts[0]) && nameRegex.MatchString(parts[1]) {
			return Atom{Category: parts[0], Package: parts[1]}, nil
		}
	}
	return Atom{}, ErrInvalidAtom
}

// String returns the atom in its original form
func (a Atom) String() string {
	if a.Category == "" {
		return a.Package
	}
	return a.Category + "/" + a.Package
}
