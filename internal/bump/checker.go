package bump

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/obentoo/checkbump/internal/common/logger"
)

// ErrInvalidJobs is returned when the worker count is below one
var ErrInvalidJobs = errors.New("jobs must be at least 1")

// Checker runs the prober over a package list.
type Checker struct {
	fetcher  Fetcher
	resolver LocalResolver
	extract  ExtractOptions
	jobs     int
	log      *logger.Logger
}

// CheckerOption is a functional option for configuring Checker
type CheckerOption func(*Checker) error

// WithJobs sets how many packages are probed at once (default 1)
func WithJobs(jobs int) CheckerOption {
	return func(c *Checker) error {
		if jobs < 1 {
			return fmt.Errorf("%w: got %d", ErrInvalidJobs, jobs)
		}
		c.jobs = jobs
		return nil
	}
}

// WithExtractOptions sets the shell and per-step timeout
func WithExtractOptions(opts ExtractOptions) CheckerOption {
	return func(c *Checker) error {
		c.extract = opts
		return nil
	}
}

// WithLogger sets the logger used by the checker and its prober
func WithLogger(log *logger.Logger) CheckerOption {
	return func(c *Checker) error {
		c.log = log
		return nil
	}
}

// NewChecker creates a checker that fetches through fetcher and looks up
// local versions through resolver.
func NewChecker(fetcher Fetcher, resolver LocalResolver, opts ...CheckerOption) (*Checker, error) {
	c := &Checker{
		fetcher:  fetcher,
		resolver: resolver,
		extract:  ExtractOptions{Shell: "/bin/sh"},
		jobs:     1,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.log == nil {
		c.log = logger.Default()
	}

	return c, nil
}

// Validate builds every pipeline without running it, so that a bad
// built-in extractor aborts the run before anything is fetched.
func (c *Checker) Validate(descriptors []Descriptor) error {
	for _, d := range descriptors {
		if _, err := NewPipeline(d.Commands, c.extract); err != nil {
			return fmt.Errorf("invalid url/command: %q: %w", d.Atom, err)
		}
	}
	return nil
}

// Run evaluates descriptors and returns results in the same order.
// The first run-fatal error cancels outstanding work and is returned.
func (c *Checker) Run(ctx context.Context, descriptors []Descriptor) ([]Result, error) {
	if err := c.Validate(descriptors); err != nil {
		return nil, err
	}

	prober := NewProber(c.fetcher, c.resolver, c.extract, c.log.Named("probe"))
	results := make([]Result, len(descriptors))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.jobs)

	for i, d := range descriptors {
		if gctx.Err() != nil {
			break
		}
		i, d := i, d
		g.Go(func() error {
			result, err := prober.Probe(gctx, d)
			if err != nil {
				return err
			}
			results[i] = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Interrupted before any probe failed
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// Summary counts results by state
type Summary struct {
	UpToDate int
	Outdated int
	Failed   int
}

// Summarize counts up-to-date, outdated and failed results
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch {
		case r.Failed:
			s.Failed++
		case r.UpToDate:
			s.UpToDate++
		default:
			s.Outdated++
		}
	}
	return s
}
