package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/obentoo/checkbump/internal/bump"
	"github.com/obentoo/checkbump/internal/common/logger"
	"github.com/obentoo/checkbump/internal/common/output"
	"github.com/spf13/cobra"
)

// DefaultBuildDir is where build writes reports unless --out is given
const DefaultBuildDir = "_build"

func newBuildCmd(opts *options) *cobra.Command {
	var (
		outDir string
		clean  bool
	)

	cmd := &cobra.Command{
		Use:   "build [--out DIR] CONFIG...",
		Short: "Render a report for every package list",
		Long: `Check every package list and write DIR/<name>.html for each of them,
where <name> is the list file name without extension.

All lists are loaded and validated before anything is fetched. Any fatal
error aborts the build.

Examples:
  checkbump build config/*.ini
  checkbump build --out public --clean config/*.ini`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(cmd, opts, outDir, clean, args)
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", DefaultBuildDir, "Output directory")
	cmd.Flags().BoolVar(&clean, "clean", false, "Remove existing reports from the output directory first")

	return cmd
}

func runBuild(cmd *cobra.Command, opts *options, outDir string, clean bool, paths []string) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	lists := make([]*bump.PackageList, 0, len(paths))
	seen := make(map[string]string)
	for _, path := range paths {
		list, err := loadList(path)
		if err != nil {
			output.PrintError(w, "%s: %v", path, err)
			return err
		}
		if n := len(list.Warnings); n > 0 {
			output.PrintWarning(w, "%s: %d unknown keys ignored", path, n)
		}
		if prev, ok := seen[list.Name]; ok {
			return fmt.Errorf("%s and %s both render to %s.html", prev, path, list.Name)
		}
		seen[list.Name] = path
		lists = append(lists, list)
	}

	r, err := newRunner(cfg)
	if err != nil {
		return err
	}

	if clean {
		if err := cleanReports(outDir); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	output.PrintInfo(w, "Writing %d reports to %s", len(lists), outDir)
	var total bump.Summary
	for _, list := range lists {
		html, results, err := r.check(cmd.Context(), list)
		if err != nil {
			if cmd.Context().Err() == nil {
				output.PrintError(w, "%s: %v", list.Path, err)
			}
			return err
		}

		target := filepath.Join(outDir, list.Name+".html")
		if err := os.WriteFile(target, []byte(html), 0644); err != nil {
			return err
		}

		s := bump.Summarize(results)
		total.UpToDate += s.UpToDate
		total.Outdated += s.Outdated
		total.Failed += s.Failed
		output.PrintSuccess(w, "%s: %s", target, formatSummary(s))
		if opts.verbose {
			for _, res := range results {
				fmt.Fprintf(w, "  %s %s\n", output.FormatStatus(resultStatus(res)), output.FormatPackage(res.Atom))
			}
		}
	}

	fmt.Fprintf(w, "\n%s %d reports, %s\n",
		output.Sprint(output.Header, "Built"), len(lists), formatSummary(total))
	return nil
}

// formatSummary renders "N up to date, N outdated, N failed" with status colors
func formatSummary(s bump.Summary) string {
	return fmt.Sprintf("%s up to date, %s outdated, %s failed",
		output.Sprintf(output.UpToDate, "%d", s.UpToDate),
		output.Sprintf(output.Outdated, "%d", s.Outdated),
		output.Sprintf(output.Failed, "%d", s.Failed))
}

// resultStatus names the state of r for the colored status labels
func resultStatus(r bump.Result) string {
	switch {
	case r.Failed:
		return "failed"
	case r.UpToDate:
		return "up-to-date"
	default:
		return "outdated"
	}
}

// cleanReports removes *.html files left in dir by an earlier build
func cleanReports(dir string) error {
	stale, err := filepath.Glob(filepath.Join(dir, "*.html"))
	if err != nil {
		return err
	}
	for _, path := range stale {
		logger.Debug("Removing %s", path)
		if err := os.Remove(path); err != nil {
			return err
		}
	}
	return nil
}
