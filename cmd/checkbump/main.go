package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/obentoo/checkbump/internal/common/logger"
	"github.com/obentoo/checkbump/internal/common/output"
	"github.com/obentoo/checkbump/internal/common/version"
	"github.com/spf13/cobra"
)

// Exit codes
const (
	exitOK          = 0
	exitError       = 1
	exitInterrupted = 130
)

// options holds the flags shared by every command
type options struct {
	configPath    string
	jobs          int
	timeout       time.Duration
	retries       int
	repos         []string
	overlays      []string
	noOverlays    bool
	arch          string
	acceptTesting bool

	verbose bool
	quiet   bool
	noColor bool
	logFile string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "checkbump [flags] CONFIG",
		Short: "Check Gentoo packages against their upstream releases",
		Long: `Check the packages listed in CONFIG against their upstream releases and
print an HTML report on stdout.

CONFIG is an INI (or .toml) file with one section per package:

  [sci-electronics/gtkwave]
  url = https://gtkwave.sourceforge.net/
  command = grep -o 'gtkwave-[0-9.]*\.tar' | head -n1
      sed -e 's/gtkwave-//' -e 's/\.tar//'

Examples:
  checkbump config/sci.ini > sci.html
  checkbump --jobs 4 --arch amd64 config/sci.ini
  checkbump build config/*.ini`,
		Version:       version.Short(),
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(opts)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, args[0])
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Application config file (default ~/.config/checkbump/config.yaml)")
	flags.IntVarP(&opts.jobs, "jobs", "j", 1, "Number of packages checked in parallel")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Timeout for each upstream request")
	flags.IntVar(&opts.retries, "retries", 0, "Retries for failed upstream requests")
	flags.StringArrayVar(&opts.repos, "repo", nil, "Repository to search, main repository first (repeatable)")
	flags.StringArrayVar(&opts.overlays, "overlay", nil, "Overlay to search; enables overlays (repeatable)")
	flags.BoolVar(&opts.noOverlays, "no-overlays", false, "Ignore configured overlays")
	flags.StringVar(&opts.arch, "arch", "", "Only consider ebuilds keyworded for this arch")
	flags.BoolVar(&opts.acceptTesting, "accept-testing", true, "Accept ~arch keywords")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress non-error output")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")
	flags.StringVar(&opts.logFile, "log-file", "", "Also append log lines to this file")

	rootCmd.AddCommand(
		newBuildCmd(opts),
		newConfigCmd(opts),
		newCompletionCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// setupLogging configures the default logger from the global flags
func setupLogging(opts *options) error {
	log := logger.Default()
	log.SetLevel(logger.LevelInfo)
	if opts.verbose {
		log.SetVerbose(true)
	}
	if opts.quiet {
		log.SetQuiet(true)
	}
	if opts.noColor {
		output.NoColor()
	}
	if opts.logFile != "" {
		if err := log.EnableFileLogging(opts.logFile); err != nil {
			return err
		}
	}
	return nil
}

// execute runs the command line and returns the process exit code
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	log := logger.Default()
	log.SetOutput(stderr)
	defer log.Close()

	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if ctx.Err() != nil {
			log.Info("Interrupted")
			return exitInterrupted
		}
		log.Error("%v", err)
		return exitError
	}
	return exitOK
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
