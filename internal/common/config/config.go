package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrNoRepositories = errors.New("at least one portage repository must be configured")
	ErrInvalidJobs    = errors.New("jobs must be at least 1")
	ErrInvalidRetries = errors.New("http retries must not be negative")
	ErrInvalidTimeout = errors.New("timeouts must not be negative")
	ErrShellNotSet    = errors.New("extract shell is not configured")
	ErrBugURLNotSet   = errors.New("report bug_search_url is not configured")
	ErrInvalidArch    = errors.New("arch must be a plain keyword such as amd64")
)

// Default values
const (
	DefaultRepository   = "/var/db/repos/gentoo"
	DefaultBugSearchURL = "https://bugs.gentoo.org/buglist.cgi?quicksearch="
	DefaultShell        = "/bin/sh"
	DefaultHTTPTimeout  = 30 * time.Second
)

// Config represents the application configuration
type Config struct {
	Portage PortageConfig `yaml:"portage"`
	HTTP    HTTPConfig    `yaml:"http"`
	GitHub  GitHubConfig  `yaml:"github"`
	Report  ReportConfig  `yaml:"report"`
	Extract ExtractConfig `yaml:"extract"`
	Jobs    int           `yaml:"jobs"`
}

// PortageConfig holds the settings for local version lookups
type PortageConfig struct {
	Repositories  []string `yaml:"repositories"`       // Main repository first
	Overlays      []string `yaml:"overlays,omitempty"` // Extra repositories
	UseOverlays   bool     `yaml:"use_overlays"`       // Overlays are ignored unless set
	Arch          string   `yaml:"arch,omitempty"`     // e.g. "amd64"; empty disables keyword filtering
	AcceptTesting bool     `yaml:"accept_testing"`     // Accept ~arch keywords
}

// HTTPConfig holds upstream fetch settings
type HTTPConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	Retries   int           `yaml:"retries"`
	UserAgent string        `yaml:"user_agent,omitempty"`
}

// GitHubConfig holds GitHub API settings
type GitHubConfig struct {
	Token string `yaml:"token,omitempty"` // Sent to api.github.com only; ${VAR} is expanded
}

// ReportConfig holds HTML report settings
type ReportConfig struct {
	BugSearchURL string `yaml:"bug_search_url"` // The escaped atom is appended
}

// ExtractConfig holds extraction command settings
type ExtractConfig struct {
	Shell   string        `yaml:"shell"`
	Timeout time.Duration `yaml:"timeout"` // Per command; zero means no limit
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Portage: PortageConfig{
			Repositories:  []string{DefaultRepository},
			AcceptTesting: true,
		},
		HTTP: HTTPConfig{
			Timeout: DefaultHTTPTimeout,
		},
		Report: ReportConfig{
			BugSearchURL: DefaultBugSearchURL,
		},
		Extract: ExtractConfig{
			Shell: DefaultShell,
		},
		Jobs: 1,
	}
}

// ConfigPaths returns all possible config file paths in priority order
// 1. ~/.config/checkbump/config.yaml (XDG standard - priority)
// 2. ~/.checkbump/config.yaml (legacy fallback)
func ConfigPaths() ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		filepath.Join(xdgConfig, "checkbump", "config.yaml"),
		filepath.Join(home, ".checkbump", "config.yaml"),
	}, nil
}

// DefaultConfigPath returns the default config file path (XDG standard)
func DefaultConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

// FindConfigPath returns the first existing config file path
// Returns the default path if no config file exists yet
func FindConfigPath() (string, error) {
	paths, err := ConfigPaths()
	if err != nil {
		return "", err
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return paths[0], nil
}

// Load reads configuration from the first available config file
// Priority: ~/.config/checkbump/config.yaml > ~/.checkbump/config.yaml
func Load() (*Config, error) {
	configPath, err := FindConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads configuration from a specific file path.
// A missing file yields the defaults; values in the file override defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes configuration to the default config file
func (c *Config) Save() error {
	configPath, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(configPath)
}

// SaveTo writes configuration to a specific file path
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks the configuration for values that cannot work
func (c *Config) Validate() error {
	var errs []error

	if len(c.Portage.Repositories) == 0 {
		errs = append(errs, ErrNoRepositories)
	}
	if strings.ContainsAny(c.Portage.Arch, " ~*-") {
		errs = append(errs, fmt.Errorf("%w: got %q", ErrInvalidArch, c.Portage.Arch))
	}
	if c.Jobs < 1 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidJobs, c.Jobs))
	}
	if c.HTTP.Retries < 0 {
		errs = append(errs, ErrInvalidRetries)
	}
	if c.HTTP.Timeout < 0 || c.Extract.Timeout < 0 {
		errs = append(errs, ErrInvalidTimeout)
	}
	if c.Extract.Shell == "" {
		errs = append(errs, ErrShellNotSet)
	}
	if c.Report.BugSearchURL == "" {
		errs = append(errs, ErrBugURLNotSet)
	}

	return errors.Join(errs...)
}

// expandPaths expands a leading ~ in repository paths
func (c *Config) expandPaths() error {
	for _, list := range [][]string{c.Portage.Repositories, c.Portage.Overlays} {
		for i, p := range list {
			expanded, err := ExpandHome(p)
			if err != nil {
				return err
			}
			list[i] = expanded
		}
	}
	return nil
}

// ExpandHome replaces a leading ~ with the user's home directory
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[1:]), nil
}
