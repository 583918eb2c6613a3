package batch

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/3leaps/fsdv/pkg/match"
	"github.com/3leaps/fsdv/pkg/schema"
	"github.com/3leaps/fsdv/pkg/source"
)

// DirPattern selects the files validated when an input is a directory.
const DirPattern = "**/*.{json,xml,yaml,yml}"

var (
	// ErrNoMatch indicates a glob pattern matched no files.
	ErrNoMatch = errors.New("pattern matched no files")

	// ErrInvalidPattern indicates malformed glob syntax.
	ErrInvalidPattern = errors.New("invalid glob pattern")
)

// ExpandOptions filters the files found by glob and directory expansion.
// Explicitly named paths and object URIs are never filtered.
type ExpandOptions struct {
	// Exclude lists doublestar patterns matched against the path relative
	// to the pattern base or directory.
	Exclude []string

	// IncludeHidden keeps files under dot-prefixed names.
	IncludeHidden bool

	// IncludeSchemas keeps *.schema.{json,yaml,yml} files. They are
	// dropped by default because they describe their siblings rather than
	// being data. A glob whose last segment names .schema. files keeps
	// them regardless.
	IncludeSchemas bool
}

// Expand turns command-line inputs into a list of locations.
//
// Object URIs and plain paths pass through unchanged, so a missing file is
// reported by the validator. Glob patterns (** supported) expand to the
// sorted files they match. Directories expand to their structured-data
// files. Schema files found by expansion are skipped unless
// opts.IncludeSchemas is set. Duplicates are dropped, keeping the first
// occurrence.
func Expand(inputs []string, opts ExpandOptions) ([]string, error) {
	m, err := match.New(match.Config{Excludes: opts.Exclude, IncludeHidden: opts.IncludeHidden})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}

	seen := map[string]bool{}
	var out []string
	add := func(loc string) {
		if !seen[loc] {
			seen[loc] = true
			out = append(out, loc)
		}
	}

	for _, in := range inputs {
		if source.IsURI(in) {
			add(in)
			continue
		}

		if st, err := os.Stat(in); err == nil && st.IsDir() {
			matches, err := globDir(in, m, opts.IncludeSchemas)
			if err != nil {
				return nil, err
			}
			for _, p := range matches {
				add(p)
			}
			continue
		}

		if !hasMeta(in) {
			add(in)
			continue
		}

		pattern := filepath.ToSlash(in)
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidPattern, in)
		}
		keepSchemas := opts.IncludeSchemas || strings.Contains(path.Base(pattern), ".schema.")
		matches, err := globPattern(in, pattern, m, keepSchemas)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoMatch, in)
		}
		for _, p := range matches {
			add(p)
		}
	}
	return out, nil
}

func globPattern(in, pattern string, m *match.Matcher, keepSchemas bool) ([]string, error) {
	matches, err := doublestar.FilepathGlob(in, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", in, err)
	}
	// FilepathGlob cleans the pattern, so its results share the cleaned base.
	base, _ := doublestar.SplitPattern(filepath.ToSlash(filepath.Clean(pattern)))
	kept := matches[:0]
	for _, p := range matches {
		if !keepSchemas && schema.IsSchemaFile(p) {
			continue
		}
		rel := filepath.ToSlash(p)
		if base != "." {
			rel = strings.TrimPrefix(strings.TrimPrefix(rel, base), "/")
		}
		if m.Match(rel) {
			kept = append(kept, p)
		}
	}
	sort.Strings(kept)
	return kept, nil
}

func globDir(dir string, m *match.Matcher, keepSchemas bool) ([]string, error) {
	rel, err := doublestar.Glob(os.DirFS(dir), DirPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("expand %s: %w", dir, err)
	}
	sort.Strings(rel)
	out := make([]string, 0, len(rel))
	for _, r := range rel {
		if !keepSchemas && schema.IsSchemaFile(r) {
			continue
		}
		if m.Match(r) {
			out = append(out, filepath.Join(dir, filepath.FromSlash(r)))
		}
	}
	return out, nil
}

func hasMeta(s string) bool {
	for _, c := range s {
		switch c {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
