package sanitizer

import (
	"regexp"
	"strings"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reControl    = regexp.MustCompile(`[\x00-\x1f\x7f]+`)
	reMultiSpace = regexp.MustCompile(`\s+`)
)

func stripControl(s string) string {
	return reControl.ReplaceAllString(s, "")
}

func collapseSpaces(s string) string {
	return reMultiSpace.ReplaceAllString(s, " ")
}

// SanitizeName cleans free-text product names: control characters removed,
// whitespace collapsed, surrounding space trimmed. Case is preserved.
func SanitizeName(input string) string {
	p := Pipeline{
		stripControl,
		collapseSpaces,
		strings.TrimSpace,
	}
	return p.Apply(input)
}

// SanitizeLocation cleans free-text locations the same way as names but
// lowercases the result so location matching is case-insensitive.
func SanitizeLocation(input string) string {
	p := Pipeline{
		stripControl,
		collapseSpaces,
		strings.TrimSpace,
		strings.ToLower,
	}
	return p.Apply(input)
}

// SanitizeReference normalizes opaque external references (owner, category,
// customer, payment): trimmed, no inner whitespace allowed.
func SanitizeReference(input string) string {
	p := Pipeline{
		stripControl,
		strings.TrimSpace,
		func(s string) string { return reMultiSpace.ReplaceAllString(s, "") },
	}
	return p.Apply(input)
}
