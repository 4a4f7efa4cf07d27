package bump

import (
	"context"
	"fmt"

	"github.com/obentoo/checkbump/internal/common/logger"
)

// Fetcher retrieves the raw upstream resource for a package.
// RetryableHTTPClient is the production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// LocalResolver answers questions about the local package tree.
type LocalResolver interface {
	// LocalVersion returns the newest accepted version of atom, without revision
	LocalVersion(atom string) (string, error)
	// CompareVersions orders two versions: -1, 0 or 1
	CompareVersions(a, b string) (int, error)
}

// Result is an evaluated package. When Failed is set the version fields
// are empty and UpToDate is false.
type Result struct {
	Descriptor

	UpstreamVersion string
	LocalVersion    string
	UpToDate        bool

	Failed     bool
	FailReason string
}

// Prober evaluates one package: fetch, extract, resolve, compare.
type Prober struct {
	fetcher  Fetcher
	resolver LocalResolver
	extract  ExtractOptions
	log      *logger.Logger
}

// NewProber creates a prober. A nil log uses the default logger.
func NewProber(fetcher Fetcher, resolver LocalResolver, extract ExtractOptions, log *logger.Logger) *Prober {
	if log == nil {
		log = logger.Named("probe")
	}
	return &Prober{
		fetcher:  fetcher,
		resolver: resolver,
		extract:  extract,
		log:      log,
	}
}

// Probe evaluates d. A fetch failure is recorded on the result and is not
// returned as an error; extraction and lookup failures are returned and
// must abort the run.
func (p *Prober) Probe(ctx context.Context, d Descriptor) (Result, error) {
	result := Result{Descriptor: d}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	pipeline, err := NewPipeline(d.Commands, p.extract)
	if err != nil {
		return result, fmt.Errorf("%w: %q: %w", ErrCommandFailed, d.Atom, err)
	}

	p.log.Info("Fetching: %s", d.Atom)
	content, err := p.fetcher.Fetch(ctx, d.URL)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		p.log.Warn("Fetch failed: %q: %v", d.URL, err)
		result.Failed = true
		result.FailReason = err.Error()
		return result, nil
	}

	upstream, err := pipeline.Run(ctx, content)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		return result, fmt.Errorf("%s: %w", d.Atom, err)
	}
	p.log.Debug("%s: upstream version %q", d.Atom, upstream)

	local, err := p.resolver.LocalVersion(d.Atom)
	if err != nil {
		return result, err
	}
	p.log.Debug("%s: local version %q", d.Atom, local)

	result.UpstreamVersion = upstream
	result.LocalVersion = local

	// An upstream string that is not a valid version is reported, not fatal
	cmp, err := p.resolver.CompareVersions(local, upstream)
	if err != nil {
		p.log.Warn("%s: cannot compare %q with %q: %v", d.Atom, local, upstream, err)
	} else {
		result.UpToDate = cmp == 0
	}

	return result, nil
}
