package bump

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"github.com/antchfx/xpath"
)

// Error variables for HTML extractor errors
var (
	// ErrInvalidSelector is returned when the CSS selector syntax is invalid
	ErrInvalidSelector = errors.New("invalid CSS selector")
	// ErrInvalidXPath is returned when the XPath expression syntax is invalid
	ErrInvalidXPath = errors.New("invalid XPath expression")
	// ErrNoElementFound is returned when nothing matches the selector or expression
	ErrNoElementFound = errors.New("no element found")
)

// CSSParser returns the text of the first element matching a CSS selector.
type CSSParser struct {
	selector string
	compiled goquery.Matcher
}

// NewCSSParser validates the selector.
func NewCSSParser(selector string) (*CSSParser, error) {
	compiled, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSelector, err)
	}
	return &CSSParser{selector: selector, compiled: compiled}, nil
}

// Parse implements Parser.
func (p *CSSParser) Parse(content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	selection := doc.FindMatcher(p.compiled)
	if selection.Length() == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoElementFound, p.selector)
	}

	return strings.TrimSpace(selection.First().Text()), nil
}

// XPathParser returns the text of the first node matching an XPath expression.
type XPathParser struct {
	expr     string
	compiled *xpath.Expr
}

// NewXPathParser validates the expression.
func NewXPathParser(expr string) (*XPathParser, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidXPath, err)
	}
	return &XPathParser{expr: expr, compiled: compiled}, nil
}

// Parse implements Parser.
func (p *XPathParser) Parse(content []byte) (string, error) {
	doc, err := htmlquery.Parse(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	node := htmlquery.QuerySelector(doc, p.compiled)
	if node == nil {
		return "", fmt.Errorf("%w: %s", ErrNoElementFound, p.expr)
	}

	return strings.TrimSpace(htmlquery.InnerText(node)), nil
}
