package bump

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Error variables for extraction errors
var (
	// ErrCommandFailed is returned when an extraction step fails; it aborts the run
	ErrCommandFailed = errors.New("extraction command failed")
	// ErrUnknownExtractor is returned for an @name step that is not built in
	ErrUnknownExtractor = errors.New("unknown built-in extractor")
	// ErrMissingArgument is returned for a built-in step without an argument
	ErrMissingArgument = errors.New("built-in extractor needs an argument")
)

// waitDelay bounds how long a killed step may hold its output pipes
const waitDelay = 500 * time.Millisecond

// ExtractOptions configures how shell steps are spawned
type ExtractOptions struct {
	// Shell runs each command line as: Shell -c <line>
	Shell string
	// Timeout bounds each step; zero means no limit
	Timeout time.Duration
}

// Step is one stage of an extraction pipeline. Every step receives the
// original fetched bytes and returns its trimmed output.
type Step interface {
	Run(ctx context.Context, input []byte) (string, error)
	String() string
}

// ShellStep runs a command line through a shell with the input on stdin
type ShellStep struct {
	Line    string
	Shell   string
	Timeout time.Duration
}

// Run implements Step.
func (s *ShellStep) Run(ctx context.Context, input []byte) (string, error) {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.Shell, "-c", s.Line)
	cmd.Stdin = bytes.NewReader(input)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Children of the shell may keep the pipes open after it is killed
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		failure := fmt.Errorf("%w: %q: %v", ErrCommandFailed, s.Line, err)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", errors.Join(failure, errors.New(msg))
		}
		return "", failure
	}

	return strings.TrimSpace(stdout.String()), nil
}

func (s *ShellStep) String() string {
	return s.Line
}

// ParserStep runs a built-in Parser
type ParserStep struct {
	Line   string
	Parser Parser
}

// Run implements Step.
func (s *ParserStep) Run(ctx context.Context, input []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out, err := s.Parser.Parse(input)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrCommandFailed, s.Line, err)
	}
	return strings.TrimSpace(out), nil
}

func (s *ParserStep) String() string {
	return s.Line
}

// NewStep builds a step from one command line. Lines starting with @ select
// a built-in extractor: @json PATH, @regex PATTERN, @css SELECTOR, @xpath EXPR.
// Anything else is a shell command.
func NewStep(line string, opts ExtractOptions) (Step, error) {
	if !strings.HasPrefix(line, "@") {
		return &ShellStep{Line: line, Shell: opts.Shell, Timeout: opts.Timeout}, nil
	}

	name, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, fmt.Errorf("%w: %q", ErrMissingArgument, line)
	}

	var (
		parser Parser
		err    error
	)
	switch name {
	case "json":
		parser, err = NewJSONParser(arg)
	case "regex":
		parser, err = NewRegexParser(arg)
	case "css":
		parser, err = NewCSSParser(arg)
	case "xpath":
		parser, err = NewXPathParser(arg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExtractor, "@"+name)
	}
	if err != nil {
		return nil, fmt.Errorf("%q: %w", line, err)
	}

	return &ParserStep{Line: line, Parser: parser}, nil
}

// Pipeline is the ordered list of steps for one package
type Pipeline struct {
	Steps []Step
}

// NewPipeline builds a pipeline from command lines in declaration order
func NewPipeline(commands []string, opts ExtractOptions) (*Pipeline, error) {
	p := &Pipeline{Steps: make([]Step, 0, len(commands))}
	for _, line := range commands {
		step, err := NewStep(line, opts)
		if err != nil {
			return nil, err
		}
		p.Steps = append(p.Steps, step)
	}
	return p, nil
}

// Run feeds the same content to every step and concatenates their outputs:
// "echo 1." followed by "echo 2" yields "1.2". The first failing step stops
// the pipeline.
func (p *Pipeline) Run(ctx context.Context, content []byte) (string, error) {
	var result strings.Builder
	for _, step := range p.Steps {
		out, err := step.Run(ctx, content)
		if err != nil {
			return "", err
		}
		result.WriteString(out)
	}
	return result.String(), nil
}
