package portage

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/obentoo/checkbump/internal/common/ebuild"
	"github.com/obentoo/checkbump/internal/common/logger"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNoRepositories     = errors.New("no repositories configured")
	ErrRepositoryNotFound = errors.New("repository not found")
	ErrPackageNotFound    = errors.New("package not found")
	ErrAmbiguousPackage   = errors.New("ambiguous package name")
)

// Tree answers version queries against a set of ebuild repositories.
// It is safe for concurrent use.
type Tree struct {
	settings Settings
	repos    []string
	log      *logger.Logger

	mu     sync.Mutex
	cache  map[string]string
	lookup singleflight.Group
}

// NewTree checks that every repository in the search path exists.
// A nil log uses the default logger.
func NewTree(s Settings, log *logger.Logger) (*Tree, error) {
	repos := s.searchPath()
	if len(s.Repositories) == 0 {
		return nil, ErrNoRepositories
	}

	for _, repo := range repos {
		fi, err := os.Stat(repo)
		if err != nil || !fi.IsDir() {
			return nil, fmt.Errorf("%w: %s", ErrRepositoryNotFound, repo)
		}
	}

	if log == nil {
		log = logger.Named("portage")
	}

	return &Tree{
		settings: s,
		repos:    repos,
		log:      log,
		cache:    make(map[string]string),
	}, nil
}

// Matches returns the visible ebuilds for atom in ascending version order.
// atom is "category/package" or a bare package name.
func (t *Tree) Matches(atom string) ([]Match, error) {
	a, err := ebuild.ParseAtom(atom)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, atom)
	}

	category := a.Category
	if category == "" {
		if category, err = t.resolveCategory(a.Package); err != nil {
			return nil, err
		}
	}

	var matches []Match
	for _, repo := range t.repos {
		found, skipped := scanPackage(repo, category, a.Package, t.settings)
		for _, reason := range skipped {
			t.log.Debug("%s/%s: skipping %s", category, a.Package, reason)
		}
		matches = append(matches, found...)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Version.Compare(matches[j].Version) < 0
	})
	return matches, nil
}

// LocalVersion returns the highest visible version of atom without its
// revision: 1.0-r2 is reported as 1.0. Results are cached per atom and
// concurrent lookups of the same atom share one scan.
func (t *Tree) LocalVersion(atom string) (string, error) {
	t.mu.Lock()
	if v, ok := t.cache[atom]; ok {
		t.mu.Unlock()
		return v, nil
	}
	t.mu.Unlock()

	v, err, shared := t.lookup.Do(atom, func() (interface{}, error) {
		return t.resolve(atom)
	})
	if err != nil {
		return "", err
	}
	if shared {
		t.log.Debug("%s: shared lookup", atom)
	}
	return v.(string), nil
}

func (t *Tree) resolve(atom string) (string, error) {
	matches, err := t.Matches(atom)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %q", ErrPackageNotFound, atom)
	}

	best := matches[len(matches)-1]
	t.log.Debug("%s: newest visible ebuild is %s (%s)", atom, best, best.Repository)
	v := best.Version.WithoutRevision()

	t.mu.Lock()
	t.cache[atom] = v
	t.mu.Unlock()

	return v, nil
}

// CompareVersions orders two versions under Gentoo rules
func (t *Tree) CompareVersions(a, b string) (int, error) {
	return ebuild.CompareVersions(a, b)
}

// resolveCategory finds the single category that holds pkg
func (t *Tree) resolveCategory(pkg string) (string, error) {
	seen := make(map[string]bool)
	var categories []string

	for _, repo := range t.repos {
		found, err := categoriesWith(repo, pkg)
		if err != nil {
			return "", err
		}
		for _, c := range found {
			if !seen[c] {
				seen[c] = true
				categories = append(categories, c)
			}
		}
	}

	switch len(categories) {
	case 0:
		return "", fmt.Errorf("%w: %q", ErrPackageNotFound, pkg)
	case 1:
		return categories[0], nil
	default:
		sort.Strings(categories)
		return "", fmt.Errorf("%w: %q is in %v", ErrAmbiguousPackage, pkg, categories)
	}
}
