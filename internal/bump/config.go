// Package bump provides configuration loading for version bump checks.
package bump

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/ini.v1"
)

// Error variables for configuration errors
var (
	// ErrConfigNotLoaded is returned when the package list cannot be read
	ErrConfigNotLoaded = errors.New("failed to load config")
	// ErrMissingURL is returned when a section has no url key
	ErrMissingURL = errors.New("missing required field: url")
	// ErrMissingCommand is returned when a section has no command key
	ErrMissingCommand = errors.New("missing required field: command")
	// ErrInvalidCommand is returned when the command value has an unsupported type
	ErrInvalidCommand = errors.New("command must be a string or an array of strings")
)

// Descriptor describes one package to check.
// It is created by the loader and never modified afterwards.
type Descriptor struct {
	// Atom is the package identifier, usually "category/package"
	Atom string
	// URL is the upstream resource to fetch
	URL string
	// Commands are the extraction steps, in declaration order
	Commands []string
}

// PackageList is a parsed package list file
type PackageList struct {
	// Name is the file base name without extension, used as the report title
	Name string
	// Path is the file the list was loaded from
	Path string
	// Warnings lists keys that were present but not recognized
	Warnings []string

	packages map[string]Descriptor
}

// Descriptors returns all descriptors sorted by atom
func (l *PackageList) Descriptors() []Descriptor {
	atoms := make([]string, 0, len(l.packages))
	for atom := range l.packages {
		atoms = append(atoms, atom)
	}
	sort.Strings(atoms)

	descriptors := make([]Descriptor, 0, len(atoms))
	for _, atom := range atoms {
		descriptors = append(descriptors, l.packages[atom])
	}
	return descriptors
}

// Len returns the number of packages in the list
func (l *PackageList) Len() int {
	return len(l.packages)
}

// ReportName derives the report title from a config path: "config/sci.ini" -> "sci"
func ReportName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadFile loads a package list. Files ending in .toml are read as TOML,
// everything else as INI. Every section is validated before returning, so
// a broken entry aborts the run before any network access happens.
func LoadFile(path string) (*PackageList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrConfigNotLoaded, path, err)
	}

	var sections map[string]rawSection
	var warnings []string
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		sections, warnings, err = parseTOML(data)
	} else {
		sections, warnings, err = parseINI(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrConfigNotLoaded, path, err)
	}

	list := &PackageList{
		Name:     ReportName(path),
		Path:     path,
		Warnings: warnings,
		packages: make(map[string]Descriptor, len(sections)),
	}

	// Validate in a stable order so the reported error does not depend on map iteration
	atoms := make([]string, 0, len(sections))
	for atom := range sections {
		atoms = append(atoms, atom)
	}
	sort.Strings(atoms)

	for _, atom := range atoms {
		d, err := sections[atom].descriptor(atom)
		if err != nil {
			return nil, err
		}
		list.packages[atom] = d
	}

	return list, nil
}

// rawSection holds the two recognized keys of a section before validation
type rawSection struct {
	URL      *string
	Commands []string
	// hasCommand distinguishes a missing key from an empty one
	hasCommand bool
}

// descriptor validates the section and builds an immutable Descriptor
func (s rawSection) descriptor(atom string) (Descriptor, error) {
	if s.URL == nil || strings.TrimSpace(*s.URL) == "" {
		return Descriptor{}, fmt.Errorf("invalid url/command: %q: %w", atom, ErrMissingURL)
	}

	var commands []string
	for _, c := range s.Commands {
		for _, line := range strings.Split(c, "\n") {
			if line = strings.TrimSpace(line); line != "" {
				commands = append(commands, line)
			}
		}
	}
	if !s.hasCommand || len(commands) == 0 {
		return Descriptor{}, fmt.Errorf("invalid url/command: %q: %w", atom, ErrMissingCommand)
	}

	return Descriptor{
		Atom:     atom,
		URL:      strings.TrimSpace(*s.URL),
		Commands: commands,
	}, nil
}

// parseINI reads ConfigParser-style files: indented continuation lines
// extend the previous value, keys are case-insensitive, quotes are kept
// as written and [DEFAULT] values are inherited by every section.
func parseINI(data []byte) (map[string]rawSection, []string, error) {
	f, err := ini.LoadSources(ini.LoadOptions{
		AllowPythonMultilineValues: true,
		InsensitiveKeys:            true,
		IgnoreInlineComment:        true,
		PreserveSurroundedQuote:    true,
	}, data)
	if err != nil {
		return nil, nil, err
	}

	defaults := f.Section(ini.DefaultSection)
	lookup := func(sec *ini.Section, key string) (string, bool) {
		if sec.HasKey(key) {
			return sec.Key(key).String(), true
		}
		if defaults.HasKey(key) {
			return defaults.Key(key).String(), true
		}
		return "", false
	}

	var warnings []string
	sections := make(map[string]rawSection)
	for _, sec := range f.Sections() {
		if sec.Name() == ini.DefaultSection {
			continue
		}

		for _, key := range sec.KeyStrings() {
			if key != "url" && key != "command" {
				warnings = append(warnings, fmt.Sprintf("unknown key %q", sec.Name()+"."+key))
			}
		}

		var raw rawSection
		if url, ok := lookup(sec, "url"); ok {
			raw.URL = &url
		}
		if command, ok := lookup(sec, "command"); ok {
			raw.Commands = []string{command}
			raw.hasCommand = true
		}
		sections[sec.Name()] = raw
	}

	return sections, warnings, nil
}

// tomlSection is the TOML shape of one package table
type tomlSection struct {
	URL     *string     `toml:"url"`
	Command commandList `toml:"command"`
}

// commandList accepts either a newline-separated string or an array of strings
type commandList struct {
	lines []string
	set   bool
}

// UnmarshalTOML implements toml.Unmarshaler
func (c *commandList) UnmarshalTOML(v interface{}) error {
	c.set = true
	switch val := v.(type) {
	case string:
		c.lines = []string{val}
	case []interface{}:
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("%w: got %T element", ErrInvalidCommand, item)
			}
			c.lines = append(c.lines, s)
		}
	default:
		return fmt.Errorf("%w: got %T", ErrInvalidCommand, v)
	}
	return nil
}

// parseTOML reads one quoted table per package: ["dev-util/foo"]
func parseTOML(data []byte) (map[string]rawSection, []string, error) {
	var file map[string]tomlSection
	md, err := toml.Decode(string(data), &file)
	if err != nil {
		return nil, nil, err
	}

	var warnings []string
	for _, key := range md.Undecoded() {
		warnings = append(warnings, fmt.Sprintf("unknown key %q", key.String()))
	}

	sections := make(map[string]rawSection, len(file))
	for atom, sec := range file {
		sections[atom] = rawSection{
			URL:        sec.URL,
			Commands:   sec.Command.lines,
			hasCommand: sec.Command.set,
		}
	}

	return sections, warnings, nil
}
