// Package report renders check results as a static HTML page.
package report

import (
	_ "embed"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/obentoo/checkbump/internal/bump"
	"github.com/obentoo/checkbump/internal/common/config"
)

// TimeFormat is the footer timestamp layout, always in UTC
const TimeFormat = "2006-01-02 15:04:05"

//go:embed report.html.tmpl
var pageSource string

var page = template.Must(template.New("report").Parse(pageSource))

// Options tunes the rendered page
type Options struct {
	// BugSearchURL is the bug tracker search prefix; the escaped atom is appended
	BugSearchURL string
}

// DefaultOptions returns options pointing at Gentoo Bugzilla
func DefaultOptions() Options {
	return Options{BugSearchURL: config.DefaultBugSearchURL}
}

type row struct {
	Atom            string
	URL             template.URL
	BugURL          template.URL
	LocalVersion    string
	UpstreamVersion string
	UpToDate        bool
	Failed          bool
}

type view struct {
	Name    string
	Rows    []row
	Updated string
}

// Render builds the report page for results in the given order.
// The output depends only on its arguments.
func Render(name string, results []bump.Result, now time.Time, opts Options) string {
	if opts.BugSearchURL == "" {
		opts.BugSearchURL = config.DefaultBugSearchURL
	}

	v := view{
		Name:    name,
		Rows:    make([]row, 0, len(results)),
		Updated: now.UTC().Format(TimeFormat),
	}
	for _, r := range results {
		// URLs come from the package list, which is trusted
		v.Rows = append(v.Rows, row{
			Atom:            r.Atom,
			URL:             template.URL(r.URL),
			BugURL:          template.URL(opts.BugSearchURL + url.QueryEscape(r.Atom)),
			LocalVersion:    r.LocalVersion,
			UpstreamVersion: r.UpstreamVersion,
			UpToDate:        r.UpToDate && !r.Failed,
			Failed:          r.Failed,
		})
	}

	var b strings.Builder
	if err := page.Execute(&b, v); err != nil {
		// Only a broken template can fail here
		panic(err)
	}
	return b.String()
}
