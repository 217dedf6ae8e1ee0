package duckduckgo

import "regexp"

// DefaultTokenPattern matches the vqd token embedded in the search page
const DefaultTokenPattern = `vqd=([\d-]+)&`

// TokenExtractor finds the session token in a search response body
type TokenExtractor interface {
	Extract(body []byte) (string, bool)
}

// RegexTokenExtractor returns the first capture group of the first pattern
// that matches.
type RegexTokenExtractor struct {
	patterns []*regexp.Regexp
}

// NewRegexTokenExtractor compiles the given patterns, falling back to
// DefaultTokenPattern when none are given. Each pattern needs one capture
// group.
func NewRegexTokenExtractor(patterns ...string) (*RegexTokenExtractor, error) {
	if len(patterns) == 0 {
		patterns = []string{DefaultTokenPattern}
	}

	e := &RegexTokenExtractor{}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		e.patterns = append(e.patterns, re)
	}
	return e, nil
}

var defaultExtractor = &RegexTokenExtractor{
	patterns: []*regexp.Regexp{regexp.MustCompile(DefaultTokenPattern)},
}

// Extract implements TokenExtractor
func (e *RegexTokenExtractor) Extract(body []byte) (string, bool) {
	for _, re := range e.patterns {
		m := re.FindSubmatch(body)
		if len(m) > 1 && len(m[1]) > 0 {
			return string(m[1]), true
		}
	}
	return "", false
}
