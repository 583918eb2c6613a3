// Package document provides the parsed, format-independent representation of
// a structured data file.
//
// A Document is a recursive value: a scalar (null, boolean, number, string),
// an ordered sequence of Documents, or a mapping from unique string keys to
// Documents. Mapping fields keep the order in which they appeared in the
// source so that traversal and reporting are deterministic.
//
// Documents are produced by Parse and are not modified afterwards. They are
// safe to share between goroutines.
package document

import (
	"encoding/json"
	"errors"
	"math"
	"math/big"
	"strconv"
)

// Kind identifies the runtime type of a Document node.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

// String returns the name used in reports for the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "array"
	case KindMapping:
		return "object"
	default:
		return "unknown"
	}
}

// Position is a 1-based line/column location in the source file.
// A zero Line means the parser did not report a position.
type Position struct {
	Line   int `json:"line,omitempty"`
	Column int `json:"column,omitempty"`
}

// IsZero reports whether the position is unknown.
func (p Position) IsZero() bool {
	return p.Line == 0
}

// Field is a single key/value entry of a mapping.
type Field struct {
	Key   string
	Value *Document
}

// Document is a node of a parsed structured data file.
type Document struct {
	kind   Kind
	b      bool
	num    json.Number
	str    string
	items  []*Document
	fields []Field
	index  map[string]int
	pos    Position
}

// Null returns a null scalar.
func Null() *Document {
	return &Document{kind: KindNull}
}

// Bool returns a boolean scalar.
func Bool(v bool) *Document {
	return &Document{kind: KindBool, b: v}
}

// Number returns a numeric scalar from its literal text.
func Number(lit json.Number) *Document {
	return &Document{kind: KindNumber, num: lit}
}

// Int returns an integer scalar.
func Int(v int64) *Document {
	return Number(json.Number(strconv.FormatInt(v, 10)))
}

// Float returns a floating point scalar.
func Float(v float64) *Document {
	return Number(json.Number(strconv.FormatFloat(v, 'g', -1, 64)))
}

// String returns a string scalar.
func String(v string) *Document {
	return &Document{kind: KindString, str: v}
}

// Sequence returns an ordered sequence of the given items.
func Sequence(items ...*Document) *Document {
	return &Document{kind: KindSequence, items: items}
}

// Mapping returns a mapping built from fields in order. When a key repeats,
// the later value replaces the earlier one but keeps the first position.
func Mapping(fields ...Field) *Document {
	d := &Document{kind: KindMapping, index: make(map[string]int, len(fields))}
	for _, f := range fields {
		d.set(f.Key, f.Value)
	}
	return d
}

func (d *Document) set(key string, v *Document) {
	if i, ok := d.index[key]; ok {
		d.fields[i].Value = v
		return
	}
	d.index[key] = len(d.fields)
	d.fields = append(d.fields, Field{Key: key, Value: v})
}

// at records the source position of a node during parsing.
func (d *Document) at(p Position) *Document {
	d.pos = p
	return d
}

// WithPos returns a shallow copy of d located at p.
func (d *Document) WithPos(p Position) *Document {
	cp := *d
	cp.pos = p
	return &cp
}

// Kind returns the node kind.
func (d *Document) Kind() Kind {
	if d == nil {
		return KindNull
	}
	return d.kind
}

// Pos returns the source position of the node, if known.
func (d *Document) Pos() Position {
	if d == nil {
		return Position{}
	}
	return d.pos
}

// IsScalar reports whether the node is a null, boolean, number or string.
func (d *Document) IsScalar() bool {
	k := d.Kind()
	return k != KindSequence && k != KindMapping
}

// BoolValue returns the boolean value of a KindBool node.
func (d *Document) BoolValue() bool { return d.b }

// StringValue returns the string value of a KindString node.
func (d *Document) StringValue() string { return d.str }

// NumberLiteral returns the literal text of a KindNumber node.
func (d *Document) NumberLiteral() json.Number { return d.num }

// Float64 returns the numeric value of a KindNumber node. Magnitudes beyond
// float64 report as ±Inf.
func (d *Document) Float64() (float64, bool) {
	if d.Kind() != KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(string(d.num), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	// Out of range literals keep their sign as an infinity so bounds
	// checks still apply.
	return f, true
}

// IsInteger reports whether the node is a number without a fractional part.
func (d *Document) IsInteger() bool {
	if d.Kind() != KindNumber {
		return false
	}
	if _, err := d.num.Int64(); err == nil {
		return true
	}
	f, ok := d.Float64()
	return ok && !math.IsInf(f, 0) && f == math.Trunc(f)
}

// Len returns the number of items of a sequence or fields of a mapping.
func (d *Document) Len() int {
	switch d.Kind() {
	case KindSequence:
		return len(d.items)
	case KindMapping:
		return len(d.fields)
	default:
		return 0
	}
}

// Items returns the elements of a sequence.
func (d *Document) Items() []*Document {
	if d.Kind() != KindSequence {
		return nil
	}
	return d.items
}

// Fields returns the fields of a mapping in source order.
func (d *Document) Fields() []Field {
	if d.Kind() != KindMapping {
		return nil
	}
	return d.fields
}

// Get returns the value of a mapping field.
func (d *Document) Get(key string) (*Document, bool) {
	if d.Kind() != KindMapping {
		return nil, false
	}
	i, ok := d.index[key]
	if !ok {
		return nil, false
	}
	return d.fields[i].Value, true
}

// Literal renders a scalar value the way it would appear in JSON. Strings
// longer than 64 runes are shortened. Containers render as their kind.
func (d *Document) Literal() string {
	switch d.Kind() {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(d.b)
	case KindNumber:
		return d.num.String()
	case KindString:
		return strconv.Quote(truncate(d.str, 64))
	default:
		return d.Kind().String()
	}
}

// Interface converts the node to plain Go values (nil, bool, json.Number,
// string, []any, map[string]any).
func (d *Document) Interface() any {
	switch d.Kind() {
	case KindBool:
		return d.b
	case KindNumber:
		return d.num
	case KindString:
		return d.str
	case KindSequence:
		out := make([]any, len(d.items))
		for i, it := range d.items {
			out[i] = it.Interface()
		}
		return out
	case KindMapping:
		out := make(map[string]any, len(d.fields))
		for _, f := range d.fields {
			out[f.Key] = f.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

// Equal reports whether two documents hold the same value. Positions are
// ignored and numbers compare by value.
func Equal(a, b *Document) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.str == b.str
	case KindNumber:
		if a.num == b.num {
			return true
		}
		fa, okA := a.Float64()
		fb, okB := b.Float64()
		if !okA || !okB {
			return false
		}
		if math.IsInf(fa, 0) || math.IsInf(fb, 0) {
			ba, _, errA := big.ParseFloat(string(a.num), 10, 256, big.ToNearestEven)
			bb, _, errB := big.ParseFloat(string(b.num), 10, 256, big.ToNearestEven)
			return errA == nil && errB == nil && ba.Cmp(bb) == 0
		}
		return fa == fb
	case KindSequence:
		if len(a.items) != len(b.items) {
			return false
		}
		for i := range a.items {
			if !Equal(a.items[i], b.items[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(a.fields) != len(b.fields) {
			return false
		}
		for _, f := range a.fields {
			other, ok := b.Get(f.Key)
			if !ok || !Equal(f.Value, other) {
				return false
			}
		}
		return true
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
