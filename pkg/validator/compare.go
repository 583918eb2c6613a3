package validator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/3leaps/fsdv/pkg/document"
	"github.com/3leaps/fsdv/pkg/schema"
)

// CompareOptions tunes structural comparison.
type CompareOptions struct {
	// Coerce interprets string text as typed scalars and single values as
	// one-element arrays. XML inputs are always compared with coercion.
	Coerce bool
}

// Compare walks doc against s and returns every deviation in pre-order of
// the schema. Equal inputs always produce the same list.
func Compare(doc *document.Document, s *schema.Schema, opts CompareOptions) []Violation {
	c := &comparer{opts: opts, out: []Violation{}}
	c.walk(doc, s, nil)
	return c.out
}

type comparer struct {
	opts CompareOptions
	out  []Violation
}

func (c *comparer) emit(kind Kind, path Path, at document.Position, expected, actual string) {
	c.out = append(c.out, Violation{
		Path:     path,
		Kind:     kind,
		Expected: expected,
		Actual:   actual,
		Line:     at.Line,
		Column:   at.Column,
	})
}

func (c *comparer) walk(d *document.Document, s *schema.Schema, path Path) {
	if s == nil {
		return
	}
	if c.opts.Coerce {
		d = coerce(d, s)
	}

	if !typeMatches(d, s) {
		c.emit(TypeMismatch, path, d.Pos(), expectation(s), d.Kind().String())
		return
	}

	c.constraints(d, s, path)

	switch s.Variant {
	case schema.VariantObject:
		if d.Kind() == document.KindMapping {
			c.object(d, s, path)
		}
	case schema.VariantArray:
		if d.Kind() == document.KindSequence {
			for i, item := range d.Items() {
				c.walk(item, s.Items, path.Index(i))
			}
		}
	}
}

func (c *comparer) object(d *document.Document, s *schema.Schema, path Path) {
	for _, f := range s.Fields {
		v, ok := d.Get(f.Name)
		if !ok {
			if f.Required {
				c.emit(MissingField, path.Key(f.Name), d.Pos(), expectation(f.Schema), "missing")
			}
			continue
		}
		c.walk(v, f.Schema, path.Key(f.Name))
	}

	if !s.Closed {
		return
	}
	for _, f := range d.Fields() {
		if _, declared := s.Field(f.Key); declared {
			continue
		}
		c.emit(UnexpectedField, path.Key(f.Key), f.Value.Pos(), "no undeclared fields", f.Value.Kind().String())
	}
}

func (c *comparer) constraints(d *document.Document, s *schema.Schema, path Path) {
	cs := s.Constraints
	if cs.IsZero() {
		return
	}
	at := d.Pos()
	fail := func(expected, actual string) {
		c.emit(ConstraintFailed, path, at, expected, actual)
	}

	if len(cs.Enum) > 0 && !inEnum(d, cs.Enum) {
		fail("one of "+enumList(cs.Enum), d.Literal())
	}

	if n, ok := d.Float64(); ok {
		lit := d.Literal()
		if cs.Minimum != nil && n < *cs.Minimum {
			fail(">= "+formatBound(*cs.Minimum), lit)
		}
		if cs.Maximum != nil && n > *cs.Maximum {
			fail("<= "+formatBound(*cs.Maximum), lit)
		}
		if cs.ExclusiveMinimum != nil && n <= *cs.ExclusiveMinimum {
			fail("> "+formatBound(*cs.ExclusiveMinimum), lit)
		}
		if cs.ExclusiveMaximum != nil && n >= *cs.ExclusiveMaximum {
			fail("< "+formatBound(*cs.ExclusiveMaximum), lit)
		}
	}

	if d.Kind() == document.KindString {
		length := utf8.RuneCountInString(d.StringValue())
		actual := fmt.Sprintf("length %d", length)
		if cs.MinLength != nil && length < *cs.MinLength {
			fail(fmt.Sprintf("length >= %d", *cs.MinLength), actual)
		}
		if cs.MaxLength != nil && length > *cs.MaxLength {
			fail(fmt.Sprintf("length <= %d", *cs.MaxLength), actual)
		}
		if cs.Pattern != nil && !cs.Pattern.MatchString(d.StringValue()) {
			fail("match /"+cs.Pattern.String()+"/", d.Literal())
		}
	}

	if d.Kind() == document.KindSequence {
		n := d.Len()
		actual := fmt.Sprintf("%d items", n)
		if cs.MinItems != nil && n < *cs.MinItems {
			fail(fmt.Sprintf("at least %d items", *cs.MinItems), actual)
		}
		if cs.MaxItems != nil && n > *cs.MaxItems {
			fail(fmt.Sprintf("at most %d items", *cs.MaxItems), actual)
		}
	}
}

// typeMatches applies declared types, or the structural type implied by an
// object or array schema when none is declared.
func typeMatches(d *document.Document, s *schema.Schema) bool {
	if s.DeclaresType() {
		return s.TypeMatches(d)
	}
	switch s.Variant {
	case schema.VariantObject:
		return d.Kind() == document.KindMapping
	case schema.VariantArray:
		return d.Kind() == document.KindSequence
	}
	return true
}

// expectation describes what a schema accepts, e.g. "string|null".
func expectation(s *schema.Schema) string {
	switch {
	case s == nil:
		return "any"
	case s.DeclaresType():
		return s.TypeNames()
	case s.Variant == schema.VariantObject:
		return "object"
	case s.Variant == schema.VariantArray:
		return "array"
	}
	return "any"
}

func inEnum(d *document.Document, enum []*document.Document) bool {
	for _, e := range enum {
		if document.Equal(d, e) {
			return true
		}
	}
	return false
}

func enumList(enum []*document.Document) string {
	parts := make([]string, len(enum))
	for i, e := range enum {
		parts[i] = e.Literal()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

var jsonNumberRe = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// coerce reinterprets untyped text for schemas that expect other types.
// The returned node keeps the source position of d.
func coerce(d *document.Document, s *schema.Schema) *document.Document {
	if d.Kind() == document.KindSequence {
		return d
	}
	if s.DeclaresType() && s.TypeMatches(d) {
		return d
	}

	if s.Variant == schema.VariantArray || s.Accepts(schema.TypeArray) {
		if d.Kind() == document.KindString && d.StringValue() == "" {
			return document.Sequence().WithPos(d.Pos())
		}
		return document.Sequence(d).WithPos(d.Pos())
	}

	if d.Kind() != document.KindString {
		return d
	}
	text := d.StringValue()

	if s.Variant == schema.VariantObject && text == "" {
		return document.Mapping().WithPos(d.Pos())
	}

	targets, fromEnum := s.Types, false
	if len(targets) == 0 {
		targets, fromEnum = enumTypes(d, s.Constraints.Enum), true
	}

	for _, t := range targets {
		var c *document.Document
		switch t {
		case schema.TypeNumber, schema.TypeInteger:
			if jsonNumberRe.MatchString(text) {
				c = document.Number(json.Number(text))
			}
		case schema.TypeBoolean:
			switch text {
			case "true", "1":
				c = document.Bool(true)
			case "false", "0":
				c = document.Bool(false)
			}
		case schema.TypeNull:
			if text == "" {
				c = document.Null()
			}
		case schema.TypeObject:
			if text == "" {
				c = document.Mapping()
			}
		}
		if c != nil && t.Matches(c) && (!fromEnum || inEnum(c, s.Constraints.Enum)) {
			return c.WithPos(d.Pos())
		}
	}
	return d
}

// enumTypes lists the scalar types of an untyped schema's enum values as
// coercion targets. Text that already matches an enum value stays text.
func enumTypes(d *document.Document, enum []*document.Document) []schema.Type {
	if len(enum) == 0 || inEnum(d, enum) {
		return nil
	}
	var out []schema.Type
	add := func(t schema.Type) {
		if !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	for _, e := range enum {
		switch e.Kind() {
		case document.KindNumber:
			add(schema.TypeNumber)
		case document.KindBool:
			add(schema.TypeBoolean)
		case document.KindNull:
			add(schema.TypeNull)
		}
	}
	return out
}
