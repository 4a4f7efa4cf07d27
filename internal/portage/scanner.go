package portage

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/obentoo/checkbump/internal/common/ebuild"
)

// Match is one visible ebuild of a package
type Match struct {
	Category   string
	Package    string
	Version    *ebuild.Version
	Repository string
}

// String returns "category/package-version"
func (m Match) String() string {
	return m.Category + "/" + m.Package + "-" + m.Version.String()
}

// skipDirs are top-level repository directories that are never categories
var skipDirs = map[string]bool{
	"profiles":  true,
	"metadata":  true,
	"eclass":    true,
	"licenses":  true,
	"scripts":   true,
	"distfiles": true,
	"packages":  true,
}

// isCategory checks if a directory name can be a category
func isCategory(name string) bool {
	return !strings.HasPrefix(name, ".") && !skipDirs[name]
}

// categoriesWith lists the categories of repo that contain pkg
func categoriesWith(repo, pkg string) ([]string, error) {
	entries, err := os.ReadDir(repo)
	if err != nil {
		return nil, err
	}

	var categories []string
	for _, entry := range entries {
		if !entry.IsDir() || !isCategory(entry.Name()) {
			continue
		}
		if fi, err := os.Stat(filepath.Join(repo, entry.Name(), pkg)); err == nil && fi.IsDir() {
			categories = append(categories, entry.Name())
		}
	}
	return categories, nil
}

// scanPackage returns every ebuild in repo/category/pkg that is visible under s.
// A missing package directory yields no matches.
func scanPackage(repo, category, pkg string, s Settings) ([]Match, []string) {
	pkgPath := filepath.Join(repo, category, pkg)
	entries, err := os.ReadDir(pkgPath)
	if err != nil {
		return nil, nil
	}

	var matches []Match
	var skipped []string

	for _, entry := range entries {
		filename := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(filename, ".ebuild") {
			continue
		}

		eb, err := ebuild.ParsePath(category + "/" + pkg + "/" + filename)
		if err != nil {
			skipped = append(skipped, filename+": "+err.Error())
			continue
		}
		version, err := ebuild.ParseVersion(eb.Version)
		if err != nil {
			skipped = append(skipped, filename+": "+err.Error())
			continue
		}

		content, err := os.ReadFile(filepath.Join(pkgPath, filename))
		if err != nil {
			skipped = append(skipped, filename+": "+err.Error())
			continue
		}

		keywords, conditional := readKeywords(string(content))
		if isLive(eb.Version, keywords, conditional) {
			skipped = append(skipped, filename+": live ebuild")
			continue
		}
		if !accepted(keywords, s.Arch, s.AcceptTesting) {
			skipped = append(skipped, filename+": not keyworded for "+s.keywordMask())
			continue
		}

		matches = append(matches, Match{
			Category:   category,
			Package:    pkg,
			Version:    version,
			Repository: repo,
		})
	}

	return matches, skipped
}

// keywordMask describes the accepted keywords for log messages
func (s Settings) keywordMask() string {
	if s.AcceptTesting {
		return "~" + s.Arch
	}
	return s.Arch
}
