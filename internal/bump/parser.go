package bump

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Error variables for built-in extractor errors
var (
	// ErrJSONPathNotFound is returned when the JSON path does not exist in the document
	ErrJSONPathNotFound = errors.New("JSON path not found in response")
	// ErrInvalidJSONPath is returned when the JSON path syntax is invalid
	ErrInvalidJSONPath = errors.New("invalid JSON path syntax")
	// ErrRegexNoMatch is returned when the regex pattern does not match the content
	ErrRegexNoMatch = errors.New("regex pattern did not match")
	// ErrInvalidRegexPattern is returned when the regex pattern is invalid
	ErrInvalidRegexPattern = errors.New("invalid regex pattern")
	// ErrNoCaptureGroup is returned when the regex pattern has no capture group
	ErrNoCaptureGroup = errors.New("regex pattern must contain at least one capture group")
)

// Parser extracts a string from fetched content.
// Built-in pipeline steps (@json, @regex, @css, @xpath) are Parsers.
type Parser interface {
	Parse(content []byte) (string, error)
}

// JSONParser extracts a value using a dotted path with array indexes,
// e.g. "tag_name" or "releases[0].version".
type JSONParser struct {
	segments []pathSegment
}

// NewJSONParser validates path and returns a parser for it.
func NewJSONParser(path string) (*JSONParser, error) {
	segments, err := parseJSONPath(path)
	if err != nil {
		return nil, err
	}
	return &JSONParser{segments: segments}, nil
}

// Parse implements Parser.
func (p *JSONParser) Parse(content []byte) (string, error) {
	var data interface{}
	if err := json.Unmarshal(content, &data); err != nil {
		return "", fmt.Errorf("failed to parse JSON: %w", err)
	}

	current := data
	for _, seg := range p.segments {
		if seg.field != "" {
			obj, ok := current.(map[string]interface{})
			if !ok {
				return "", fmt.Errorf("%w: expected object at %q", ErrJSONPathNotFound, seg.field)
			}
			if current, ok = obj[seg.field]; !ok {
				return "", fmt.Errorf("%w: field %q not found", ErrJSONPathNotFound, seg.field)
			}
			continue
		}

		arr, ok := current.([]interface{})
		if !ok {
			return "", fmt.Errorf("%w: expected array at index %d", ErrJSONPathNotFound, seg.index)
		}
		if seg.index >= len(arr) {
			return "", fmt.Errorf("%w: index %d out of bounds (length %d)", ErrJSONPathNotFound, seg.index, len(arr))
		}
		current = arr[seg.index]
	}

	value, ok := scalarString(current)
	if !ok {
		return "", fmt.Errorf("%w: value at path is not a scalar", ErrJSONPathNotFound)
	}
	return value, nil
}

// pathSegment is either an object field or, when field is empty, an array index
type pathSegment struct {
	field string
	index int
}

// parseJSONPath splits "data.releases[0].tag" into segments
func parseJSONPath(path string) ([]pathSegment, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidJSONPath)
	}

	var segments []pathSegment
	for _, part := range strings.Split(path, ".") {
		name, rest, indexed := strings.Cut(part, "[")
		if name == "" {
			return nil, fmt.Errorf("%w: empty field name in %q", ErrInvalidJSONPath, path)
		}
		segments = append(segments, pathSegment{field: name})

		if !indexed {
			continue
		}
		if !strings.HasSuffix(rest, "]") {
			return nil, fmt.Errorf("%w: unclosed bracket in %q", ErrInvalidJSONPath, path)
		}
		// rest looks like "0]" or "0][1]"
		for _, idx := range strings.Split(strings.TrimSuffix(rest, "]"), "][") {
			n, err := strconv.Atoi(idx)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: invalid array index %q", ErrInvalidJSONPath, idx)
			}
			segments = append(segments, pathSegment{index: n})
		}
	}

	return segments, nil
}

// scalarString converts JSON scalars to their textual form
func scalarString(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10), true
		}
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

// RegexParser returns the first capture group of the first match.
type RegexParser struct {
	re *regexp.Regexp
}

// NewRegexParser compiles pattern, which must have a capture group.
func NewRegexParser(pattern string) (*RegexParser, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegexPattern, err)
	}
	if re.NumSubexp() < 1 {
		return nil, ErrNoCaptureGroup
	}
	return &RegexParser{re: re}, nil
}

// Parse implements Parser.
func (p *RegexParser) Parse(content []byte) (string, error) {
	matches := p.re.FindSubmatch(content)
	if len(matches) < 2 || len(matches[1]) == 0 {
		return "", fmt.Errorf("%w: %s", ErrRegexNoMatch, p.re)
	}
	return string(matches[1]), nil
}
