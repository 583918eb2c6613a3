// Package match filters expanded input paths with exclude globs and the
// hidden-file convention.
package match

import (
	"errors"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher decides whether a path found by expansion is validated.
//
// A path is dropped when any of its segments is hidden (unless
// IncludeHidden is set) or when it matches an exclude pattern. Patterns
// without a slash match the base name, so "*.schema.json" excludes schema
// files at any depth.
//
// The Matcher is safe for concurrent use after creation.
type Matcher struct {
	excludes      []string
	includeHidden bool
}

// Config configures a Matcher.
type Config struct {
	// Excludes are doublestar glob patterns; a path matching any is dropped.
	Excludes []string

	// IncludeHidden keeps paths with segments starting with '.'.
	IncludeHidden bool
}

// ErrInvalidPattern is returned when a pattern cannot be compiled.
var ErrInvalidPattern = errors.New("invalid glob pattern")

// PatternError wraps pattern-related errors with context.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return "pattern " + e.Pattern + ": " + e.Err.Error()
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// New creates a Matcher. Patterns are normalized so Windows-style
// separators work.
func New(cfg Config) (*Matcher, error) {
	excludes := make([]string, 0, len(cfg.Excludes))
	for _, raw := range cfg.Excludes {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		normalized := NormalizePattern(raw)
		if !doublestar.ValidatePattern(normalized) {
			return nil, &PatternError{Pattern: raw, Err: ErrInvalidPattern}
		}
		excludes = append(excludes, normalized)
	}
	return &Matcher{excludes: excludes, includeHidden: cfg.IncludeHidden}, nil
}

// Match reports whether rel, a slash-separated path relative to the
// expansion root, should be validated.
func (m *Matcher) Match(rel string) bool {
	if !m.includeHidden && IsHidden(rel) {
		return false
	}
	base := path.Base(rel)
	for _, exc := range m.excludes {
		target := rel
		if !strings.Contains(exc, "/") {
			target = base
		}
		if ok, _ := doublestar.Match(exc, target); ok {
			return false
		}
	}
	return true
}

// Excludes returns the normalized exclude patterns.
func (m *Matcher) Excludes() []string {
	out := make([]string, len(m.excludes))
	copy(out, m.excludes)
	return out
}
