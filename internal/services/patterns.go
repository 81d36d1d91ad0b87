package services

import (
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// MatchPatterns reports whether any pattern matches path. An empty pattern
// list matches everything. Each pattern is tried as a glob first and, when the
// glob is malformed, as a regular expression. A pattern that is neither never
// matches.
func MatchPatterns(patterns []string, path string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, path string) bool {
	glob := normalizeGlob(pattern)
	if doublestar.ValidatePattern(glob) {
		matched, err := doublestar.Match(glob, path)
		if err == nil {
			return matched
		}
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(path)
}

// normalizeGlob anchors patterns so they match at any depth: "/x" matches a
// segment boundary anywhere, "**..." is kept, everything else gets "**/".
func normalizeGlob(pattern string) string {
	switch {
	case strings.HasPrefix(pattern, "/"):
		return "**" + pattern
	case strings.HasPrefix(pattern, "**"):
		return pattern
	default:
		return "**/" + pattern
	}
}

// FilterRules holds the include and ignore pattern lists. A non-empty include
// list takes precedence and the ignore list is then never consulted.
type FilterRules struct {
	IncludePatterns []string
	IgnorePatterns  []string
}

// Admits reports whether path passes the rules
func (r FilterRules) Admits(path string) bool {
	if len(r.IncludePatterns) > 0 {
		return MatchPatterns(r.IncludePatterns, path)
	}
	if len(r.IgnorePatterns) > 0 {
		return !MatchPatterns(r.IgnorePatterns, path)
	}
	return true
}
