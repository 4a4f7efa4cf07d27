// Package portage resolves local package versions from ebuild repository trees.
package portage

import (
	"github.com/obentoo/checkbump/internal/common/config"
)

// Settings controls which ebuilds are visible to a Tree.
// It is fixed for the lifetime of the Tree.
type Settings struct {
	// Repositories are searched in order; the first is the main tree
	Repositories []string
	// Overlays are searched after Repositories when UseOverlays is set
	Overlays    []string
	UseOverlays bool
	// Arch is the keyword to accept, e.g. "amd64". Empty accepts any ebuild
	// that has keywords at all.
	Arch string
	// AcceptTesting also accepts ~Arch keywords
	AcceptTesting bool
}

// SettingsFromConfig converts the application config section
func SettingsFromConfig(cfg config.PortageConfig) Settings {
	return Settings{
		Repositories:  append([]string(nil), cfg.Repositories...),
		Overlays:      append([]string(nil), cfg.Overlays...),
		UseOverlays:   cfg.UseOverlays,
		Arch:          cfg.Arch,
		AcceptTesting: cfg.AcceptTesting,
	}
}

// searchPath returns the repositories to scan, in order
func (s Settings) searchPath() []string {
	paths := append([]string(nil), s.Repositories...)
	if s.UseOverlays {
		paths = append(paths, s.Overlays...)
	}
	return paths
}
