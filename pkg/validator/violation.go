package validator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/3leaps/fsdv/pkg/document"
)

// Kind classifies a deviation between a document and its schema.
type Kind string

const (
	// MissingField is a required field absent from an object.
	MissingField Kind = "MissingField"

	// TypeMismatch is a value whose runtime type the schema does not allow.
	TypeMismatch Kind = "TypeMismatch"

	// UnexpectedField is an undeclared field in a closed object.
	UnexpectedField Kind = "UnexpectedField"

	// ConstraintFailed is a value that violates enum, range, pattern,
	// length or item-count constraints.
	ConstraintFailed Kind = "ConstraintFailed"
)

// Step is one path element: an object key or an array index.
type Step struct {
	Key   string
	Index int
	// IsIndex distinguishes index 0 from the empty key.
	IsIndex bool
}

// Path locates a node from the document root.
type Path []Step

// Key returns a new path extended by an object key.
func (p Path) Key(k string) Path {
	return p.with(Step{Key: k})
}

// Index returns a new path extended by an array index.
func (p Path) Index(i int) Path {
	return p.with(Step{Index: i, IsIndex: true})
}

func (p Path) with(s Step) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, s)
}

var identRe = regexp.MustCompile(`^[A-Za-z_@#][A-Za-z0-9_\-@#]*$`)

// String renders the path as $.a.b[0]; keys that are not plain identifiers
// are quoted, e.g. $["a b"].
func (p Path) String() string {
	var b strings.Builder
	b.WriteString("$")
	for _, s := range p {
		switch {
		case s.IsIndex:
			b.WriteString("[" + strconv.Itoa(s.Index) + "]")
		case identRe.MatchString(s.Key):
			b.WriteString("." + s.Key)
		default:
			b.WriteString("[" + strconv.Quote(s.Key) + "]")
		}
	}
	return b.String()
}

// Elems returns the path as keys (string) and indices (int).
func (p Path) Elems() []any {
	out := make([]any, len(p))
	for i, s := range p {
		if s.IsIndex {
			out[i] = s.Index
		} else {
			out[i] = s.Key
		}
	}
	return out
}

// MarshalJSON encodes the path as an array of keys and indices.
func (p Path) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Elems())
}

// Violation is one deviation found during comparison.
type Violation struct {
	Path     Path   `json:"path"`
	Kind     Kind   `json:"kind"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
}

// String renders the violation as "<path>: <kind> — expected X, got Y".
func (v Violation) String() string {
	s := fmt.Sprintf("%s: %s — expected %s, got %s", v.Path, v.Kind, v.Expected, v.Actual)
	if v.Line > 0 {
		s += fmt.Sprintf(" (line %d, column %d)", v.Line, v.Column)
	}
	return s
}

// Report is the outcome of validating one input.
type Report struct {
	// Source is the input location.
	Source string
	// Format is the resolved input format.
	Format     document.Format
	Violations []Violation
}

// NewReport builds a report. A nil violation list becomes empty.
func NewReport(source string, format document.Format, violations []Violation) *Report {
	if violations == nil {
		violations = []Violation{}
	}
	return &Report{Source: source, Format: format, Violations: violations}
}

// Valid reports whether no violation was found.
func (r *Report) Valid() bool {
	return len(r.Violations) == 0
}

// Count returns the number of violations of each kind.
func (r *Report) Count() map[Kind]int {
	counts := map[Kind]int{}
	for _, v := range r.Violations {
		counts[v.Kind]++
	}
	return counts
}

// MarshalJSON includes the derived valid flag.
func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Source     string      `json:"source"`
		Format     string      `json:"format"`
		Valid      bool        `json:"valid"`
		Violations []Violation `json:"violations"`
	}{r.Source, r.Format.String(), r.Valid(), r.Violations})
}
