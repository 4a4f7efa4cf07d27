package output

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	// Package status colors
	UpToDate = color.New(color.FgGreen)
	Outdated = color.New(color.FgYellow)
	Failed   = color.New(color.FgRed)

	// Message colors
	Success = color.New(color.FgGreen)
	Warning = color.New(color.FgYellow)
	Error   = color.New(color.FgRed)
	Info    = color.New(color.FgCyan)
	Dim     = color.New(color.Faint)

	// Structural colors
	Header  = color.New(color.FgWhite, color.Bold)
	Package = color.New(color.FgBlue, color.Bold)
)

// disabled is set by NoColor and wins over terminal detection
var disabled bool

// NoColor disables color output
func NoColor() {
	disabled = true
	color.NoColor = true
}

// IsTerminal returns true if w is a terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// ColorFor reports whether text written to w should be colored.
// Unlike the color package default, it looks at w rather than stdout.
func ColorFor(w io.Writer) bool {
	return !disabled && IsTerminal(w)
}

// SprintFor returns a, colored with c only when w is a terminal
func SprintFor(w io.Writer, c *color.Color, a ...interface{}) string {
	if !ColorFor(w) {
		return fmt.Sprint(a...)
	}
	forced := *c
	forced.EnableColor()
	return forced.Sprint(a...)
}

// StatusColor returns the appropriate color for a package status
func StatusColor(status string) *color.Color {
	switch status {
	case "up-to-date":
		return UpToDate
	case "outdated":
		return Outdated
	case "failed":
		return Failed
	default:
		return color.New(color.Reset)
	}
}

// LevelColor returns the color used for a log level name
func LevelColor(level string) *color.Color {
	switch level {
	case "DEBUG":
		return Dim
	case "INFO":
		return Info
	case "WARNING":
		return Warning
	case "ERROR":
		return Error
	default:
		return color.New(color.Reset)
	}
}

// PrintSuccess prints a success message
func PrintSuccess(w io.Writer, format string, args ...interface{}) {
	Success.Fprintf(w, "✓ "+format+"\n", args...)
}

// PrintError prints an error message
func PrintError(w io.Writer, format string, args ...interface{}) {
	Error.Fprintf(w, "✗ "+format+"\n", args...)
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, format string, args ...interface{}) {
	Warning.Fprintf(w, "⚠ "+format+"\n", args...)
}

// PrintInfo prints an info message
func PrintInfo(w io.Writer, format string, args ...interface{}) {
	Info.Fprintf(w, "→ "+format+"\n", args...)
}

// Sprintf returns a colored string without printing
func Sprintf(c *color.Color, format string, args ...interface{}) string {
	return c.Sprintf(format, args...)
}

// Sprint returns a colored string without printing
func Sprint(c *color.Color, a ...interface{}) string {
	return c.Sprint(a...)
}

// FormatStatus formats a status string with appropriate color
func FormatStatus(status string) string {
	c := StatusColor(status)
	return c.Sprintf("[%s]", status)
}

// FormatPackage formats a package atom with color
func FormatPackage(atom string) string {
	return Package.Sprint(atom)
}
