package main

import (
	"context"
	"fmt"
	"time"

	"github.com/obentoo/checkbump/internal/bump"
	"github.com/obentoo/checkbump/internal/common/config"
	"github.com/obentoo/checkbump/internal/common/logger"
	"github.com/obentoo/checkbump/internal/portage"
	"github.com/obentoo/checkbump/internal/report"
	"github.com/spf13/cobra"
)

// runCheck checks one package list and prints its report on stdout
func runCheck(cmd *cobra.Command, opts *options, path string) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	list, err := loadList(path)
	if err != nil {
		return err
	}

	r, err := newRunner(cfg)
	if err != nil {
		return err
	}

	html, _, err := r.check(cmd.Context(), list)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), html)
	return err
}

// loadConfig reads the application config and applies flag overrides
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFrom(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("jobs") {
		cfg.Jobs = opts.jobs
	}
	if flags.Changed("timeout") {
		cfg.HTTP.Timeout = opts.timeout
	}
	if flags.Changed("retries") {
		cfg.HTTP.Retries = opts.retries
	}
	if flags.Changed("repo") {
		if cfg.Portage.Repositories, err = expandAll(opts.repos); err != nil {
			return nil, err
		}
	}
	if flags.Changed("overlay") {
		if cfg.Portage.Overlays, err = expandAll(opts.overlays); err != nil {
			return nil, err
		}
		cfg.Portage.UseOverlays = true
	}
	if opts.noOverlays {
		cfg.Portage.UseOverlays = false
	}
	if flags.Changed("arch") {
		cfg.Portage.Arch = opts.arch
	}
	if flags.Changed("accept-testing") {
		cfg.Portage.AcceptTesting = opts.acceptTesting
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func expandAll(paths []string) ([]string, error) {
	expanded := make([]string, 0, len(paths))
	for _, p := range paths {
		e, err := config.ExpandHome(p)
		if err != nil {
			return nil, err
		}
		expanded = append(expanded, e)
	}
	return expanded, nil
}

// loadList loads a package list and reports unrecognized keys
func loadList(path string) (*bump.PackageList, error) {
	list, err := bump.LoadFile(path)
	if err != nil {
		return nil, err
	}
	for _, w := range list.Warnings {
		logger.Warn("%s: %s", path, w)
	}
	logger.Debug("%s: %d packages", path, list.Len())
	return list, nil
}

// runner holds what is shared between the package lists of one invocation
type runner struct {
	cfg     *config.Config
	checker *bump.Checker
	now     func() time.Time
}

func newRunner(cfg *config.Config) (*runner, error) {
	log := logger.Default()

	tree, err := portage.NewTree(portage.SettingsFromConfig(cfg.Portage), log.Named("portage"))
	if err != nil {
		return nil, err
	}

	retry := bump.DefaultRetryConfig()
	retry.MaxRetries = cfg.HTTP.Retries
	retry.Timeout = cfg.HTTP.Timeout

	client := bump.NewRetryableHTTPClientWithConfig(retry)
	client.SetUserAgent(cfg.HTTP.UserAgent)
	client.SetGitHubToken(cfg.GitHub.Token)

	checker, err := bump.NewChecker(client, tree,
		bump.WithJobs(cfg.Jobs),
		bump.WithExtractOptions(bump.ExtractOptions{
			Shell:   cfg.Extract.Shell,
			Timeout: cfg.Extract.Timeout,
		}),
		bump.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	return &runner{cfg: cfg, checker: checker, now: time.Now}, nil
}

// check evaluates list and renders its report
func (r *runner) check(ctx context.Context, list *bump.PackageList) (string, []bump.Result, error) {
	results, err := r.checker.Run(ctx, list.Descriptors())
	if err != nil {
		return "", nil, err
	}

	html := report.Render(list.Name, results, r.now(), report.Options{
		BugSearchURL: r.cfg.Report.BugSearchURL,
	})
	return html, results, nil
}
