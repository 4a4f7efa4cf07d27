// Package bump checks packages of a local tree against their upstream releases.
//
// The package implements:
//   - Package list loading from INI (ConfigParser style) or TOML files
//   - Upstream fetching with optional retries, including file:// URLs
//   - Extraction pipelines made of shell commands and built-in extractors
//     (@json, @regex, @css, @xpath)
//   - Probing and comparison against a LocalResolver, sequentially or with
//     a bounded number of workers
//
// A package list looks like:
//
//	[sci-electronics/gtkwave]
//	url = https://gtkwave.sourceforge.net/
//	command = grep -o 'gtkwave-[0-9.]*\.tar' | head -n1
//	    sed -e 's/gtkwave-//' -e 's/\.tar//'
//
// Every command receives the fetched bytes on stdin and their trimmed
// outputs are concatenated into the upstream version.
//
// Usage:
//
//	list, err := bump.LoadFile("config/sci.ini")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	checker, err := bump.NewChecker(bump.NewRetryableHTTPClient(), tree)
//	results, err := checker.Run(ctx, list.Descriptors())
package bump
