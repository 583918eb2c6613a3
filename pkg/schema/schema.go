// Package schema defines the declarative structure a document is compared
// against, and loads it from schema files.
//
// A Schema is a tagged variant over Scalar, Object and Array. Object schemas
// keep their fields in declaration order; that order drives the order of
// reported violations.
//
// Schema files use a subset of JSON Schema and may be written in JSON or
// YAML. See Load.
package schema

import (
	"regexp"
	"strings"

	"github.com/3leaps/fsdv/pkg/document"
)

// Variant selects how a schema node is compared.
type Variant int

const (
	// VariantScalar checks the value's type and constraints only.
	VariantScalar Variant = iota
	// VariantObject additionally compares declared fields.
	VariantObject
	// VariantArray additionally compares every element.
	VariantArray
)

func (v Variant) String() string {
	switch v {
	case VariantObject:
		return "object"
	case VariantArray:
		return "array"
	default:
		return "scalar"
	}
}

// Type is a runtime value type a schema may require.
type Type string

const (
	TypeString  Type = "string"
	TypeNumber  Type = "number"
	TypeInteger Type = "integer"
	TypeBoolean Type = "boolean"
	TypeNull    Type = "null"
	TypeObject  Type = "object"
	TypeArray   Type = "array"
)

// Matches reports whether a document node has this type. Integers are
// numbers without a fractional part; every integer is also a number.
func (t Type) Matches(d *document.Document) bool {
	switch t {
	case TypeString:
		return d.Kind() == document.KindString
	case TypeNumber:
		return d.Kind() == document.KindNumber
	case TypeInteger:
		return d.IsInteger()
	case TypeBoolean:
		return d.Kind() == document.KindBool
	case TypeNull:
		return d.Kind() == document.KindNull
	case TypeObject:
		return d.Kind() == document.KindMapping
	case TypeArray:
		return d.Kind() == document.KindSequence
	}
	return false
}

// Schema describes the expected structure of a document node.
// Schemas are immutable once loaded.
type Schema struct {
	Variant Variant

	// Types lists the accepted runtime types. Empty accepts any type.
	Types []Type

	// Fields are the declared object fields in declaration order.
	Fields []Field

	// Closed rejects object fields that are not declared.
	Closed bool

	// Items is the element schema of an array. Nil accepts any element.
	Items *Schema

	Constraints Constraints

	Title       string
	Description string
}

// Field is a declared object field.
type Field struct {
	Name     string
	Required bool
	// Schema is nil when the field is only listed as required.
	Schema *Schema
}

// Constraints restrict scalar values and collection sizes.
// Nil pointers mean "not set".
type Constraints struct {
	Enum []*document.Document

	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum *float64
	ExclusiveMaximum *float64

	Pattern   *regexp.Regexp
	MinLength *int
	MaxLength *int

	MinItems *int
	MaxItems *int
}

// IsZero reports whether no constraint is set.
func (c Constraints) IsZero() bool {
	return len(c.Enum) == 0 &&
		c.Minimum == nil && c.Maximum == nil &&
		c.ExclusiveMinimum == nil && c.ExclusiveMaximum == nil &&
		c.Pattern == nil && c.MinLength == nil && c.MaxLength == nil &&
		c.MinItems == nil && c.MaxItems == nil
}

// DeclaresType reports whether the schema restricts the runtime type.
func (s *Schema) DeclaresType() bool {
	return s != nil && len(s.Types) > 0
}

// Accepts reports whether t is one of the declared types.
func (s *Schema) Accepts(t Type) bool {
	for _, have := range s.Types {
		if have == t || (have == TypeNumber && t == TypeInteger) {
			return true
		}
	}
	return false
}

// TypeMatches reports whether the node satisfies the declared types.
func (s *Schema) TypeMatches(d *document.Document) bool {
	if !s.DeclaresType() {
		return true
	}
	for _, t := range s.Types {
		if t.Matches(d) {
			return true
		}
	}
	return false
}

// TypeNames renders the declared types, e.g. "string|null".
func (s *Schema) TypeNames() string {
	names := make([]string, len(s.Types))
	for i, t := range s.Types {
		names[i] = string(t)
	}
	return strings.Join(names, "|")
}

// Field returns a declared field by name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Scalar returns a scalar schema accepting the given types.
func Scalar(types ...Type) *Schema {
	return &Schema{Variant: VariantScalar, Types: types}
}

// Object returns an open object schema with the given fields.
func Object(fields ...Field) *Schema {
	return &Schema{Variant: VariantObject, Types: []Type{TypeObject}, Fields: fields}
}

// ClosedObject returns an object schema that rejects undeclared fields.
func ClosedObject(fields ...Field) *Schema {
	s := Object(fields...)
	s.Closed = true
	return s
}

// Array returns an array schema whose elements match items.
func Array(items *Schema) *Schema {
	return &Schema{Variant: VariantArray, Types: []Type{TypeArray}, Items: items}
}

// Required declares a required field.
func Required(name string, s *Schema) Field {
	return Field{Name: name, Required: true, Schema: s}
}

// Optional declares an optional field.
func Optional(name string, s *Schema) Field {
	return Field{Name: name, Schema: s}
}

// WithConstraints returns a copy of s carrying c.
func (s *Schema) WithConstraints(c Constraints) *Schema {
	cp := *s
	cp.Constraints = c
	return &cp
}
