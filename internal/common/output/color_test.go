package output

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// forceColor turns colors on for the duration of a test
func forceColor(t *testing.T) {
	t.Helper()
	prevGlobal, prevDisabled := color.NoColor, disabled
	color.NoColor, disabled = false, false
	t.Cleanup(func() {
		color.NoColor, disabled = prevGlobal, prevDisabled
	})
}

func TestColorOutputMatchesStatusType(t *testing.T) {
	forceColor(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	statusColorCodes := map[string]string{
		"up-to-date": "\x1b[32m", // Green
		"outdated":   "\x1b[33m", // Yellow
		"failed":     "\x1b[31m", // Red
	}

	statusGen := gen.OneConstOf("up-to-date", "outdated", "failed")

	properties.Property("FormatStatus contains correct ANSI code for status type", prop.ForAll(
		func(status string) bool {
			return strings.Contains(FormatStatus(status), statusColorCodes[status])
		},
		statusGen,
	))

	properties.Property("FormatStatus output contains the status text", prop.ForAll(
		func(status string) bool {
			return strings.Contains(FormatStatus(status), status)
		},
		statusGen,
	))

	properties.TestingRun(t)
}

func TestNoColorFlagDisablesANSICodes(t *testing.T) {
	forceColor(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("Sprintf contains no ANSI codes when NoColor is set", prop.ForAll(
		func(text string) bool {
			NoColor()
			defer func() { color.NoColor, disabled = false, false }()

			colors := []*color.Color{UpToDate, Outdated, Failed, Success, Error, Info, Warning}
			for _, c := range colors {
				if strings.Contains(Sprintf(c, "%s", text), "\x1b[") {
					return false
				}
			}
			return true
		},
		gen.AnyString(),
	))

	properties.Property("FormatPackage contains no ANSI codes when NoColor is set", prop.ForAll(
		func(atom string) bool {
			NoColor()
			defer func() { color.NoColor, disabled = false, false }()

			return !strings.Contains(FormatPackage(atom), "\x1b[")
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestLevelColor(t *testing.T) {
	tests := map[string]*color.Color{
		"DEBUG":   Dim,
		"INFO":    Info,
		"WARNING": Warning,
		"ERROR":   Error,
	}
	for level, want := range tests {
		if got := LevelColor(level); got != want {
			t.Errorf("LevelColor(%q) returned unexpected color", level)
		}
	}
	if LevelColor("TRACE") == nil {
		t.Error("LevelColor should never return nil")
	}
}

func TestPrintHelpersWriteToWriter(t *testing.T) {
	NoColor()

	var buf bytes.Buffer
	PrintSuccess(&buf, "wrote %s", "a.html")
	PrintError(&buf, "failed %d", 2)
	PrintInfo(&buf, "info")
	PrintWarning(&buf, "warn")

	out := buf.String()
	for _, want := range []string{"✓ wrote a.html", "✗ failed 2", "→ info", "⚠ warn"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestColorFollowsWriter(t *testing.T) {
	forceColor(t)

	var buf bytes.Buffer
	if IsTerminal(&buf) {
		t.Error("a buffer is not a terminal")
	}
	if ColorFor(&buf) {
		t.Error("ColorFor(buffer) should be false even when colors are forced globally")
	}
	if got := SprintFor(&buf, Warning, "WARNING"); got != "WARNING" {
		t.Errorf("SprintFor(buffer) = %q, want plain text", got)
	}

	f, err := os.CreateTemp(t.TempDir(), "log")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if ColorFor(f) {
		t.Error("a regular file is not a terminal")
	}
}
