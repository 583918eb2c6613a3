package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/3leaps/fsdv/pkg/document"
	"github.com/3leaps/fsdv/pkg/source"
)

// ErrUnsupportedLanguage indicates a schema written in a language other than
// the JSON Schema subset, such as XSD.
var ErrUnsupportedLanguage = errors.New("unsupported schema language")

// LoadOptions controls how schema files are read and compiled.
type LoadOptions struct {
	// Strict closes every object schema that does not state
	// additionalProperties explicitly.
	Strict bool

	// Reader fetches schema content from a local path or object URI. Nil
	// reads local files capped at source.DefaultMaxBytes.
	Reader source.Reader
}

func (o LoadOptions) reader() source.Reader {
	if o.Reader != nil {
		return o.Reader
	}
	return source.NewFileReader(source.DefaultMaxBytes)
}

// Load reads, checks and compiles a schema file. See LoadContext.
func Load(location string, opts LoadOptions) (*Schema, error) {
	return LoadContext(context.Background(), location, opts)
}

// LoadContext reads, checks and compiles the schema at location, a local
// path or object URI, through opts.Reader. Reads share the reader's size
// cap with data inputs.
//
// The file format is determined by extension: .json for JSON, anything else
// is read as YAML (a superset of JSON). Property order in the file becomes
// the field declaration order.
//
// Returns an error if:
//   - The location names an XSD file (ErrUnsupportedLanguage)
//   - The content cannot be read (source.ErrNotFound, source.ErrTooLarge, ...)
//   - The content is not valid JSON or YAML
//   - The content fails the meta-schema check (ValidationErrors)
//   - A pattern does not compile
func LoadContext(ctx context.Context, location string, opts LoadOptions) (*Schema, error) {
	if strings.EqualFold(filepath.Ext(location), ".xsd") {
		return nil, fmt.Errorf("%w: %s: XML Schema (XSD) is not supported; describe the document with a JSON or YAML schema", ErrUnsupportedLanguage, location)
	}

	data, err := opts.reader().ReadAll(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return LoadBytes(data, location, opts)
}

// LoadBytes parses, checks and compiles schema content. The path is used
// for format detection and error messages.
func LoadBytes(data []byte, path string, opts LoadOptions) (*Schema, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("schema file is empty")
	}

	format := document.FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = document.FormatJSON
	}

	doc, err := document.Parse(format, data)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", path, err)
	}

	// Check the raw content before compiling so unsupported keywords are
	// reported instead of silently ignored.
	jsonData, err := json.Marshal(doc.Interface())
	if err != nil {
		return nil, fmt.Errorf("schema %s: failed to convert to JSON: %w", path, err)
	}
	if err := ValidateRaw(jsonData); err != nil {
		return nil, err
	}

	c := compiler{opts: opts}
	s := c.node(doc, "")
	if len(c.errs) > 0 {
		return nil, c.errs
	}
	return s, nil
}

type compiler struct {
	opts LoadOptions
	errs ValidationErrors
}

func (c *compiler) fail(ptr, format string, args ...any) {
	c.errs = append(c.errs, ValidationError{Path: ptr, Message: fmt.Sprintf(format, args...)})
}

func (c *compiler) node(d *document.Document, ptr string) *Schema {
	if d.Kind() != document.KindMapping {
		c.fail(ptr, "schema node must be an object, got %s", d.Kind())
		return &Schema{}
	}

	s := &Schema{}
	if v, ok := d.Get("title"); ok {
		s.Title = v.StringValue()
	}
	if v, ok := d.Get("description"); ok {
		s.Description = v.StringValue()
	}

	if v, ok := d.Get("type"); ok {
		switch v.Kind() {
		case document.KindString:
			s.Types = []Type{Type(v.StringValue())}
		case document.KindSequence:
			for _, it := range v.Items() {
				s.Types = append(s.Types, Type(it.StringValue()))
			}
		}
	}

	props, hasProps := d.Get("properties")
	_, hasAdditional := d.Get("additionalProperties")
	_, hasRequired := d.Get("required")
	items, hasItems := d.Get("items")

	objectish := hasProps || hasAdditional || hasRequired || s.onlyType(TypeObject)
	arrayish := hasItems || s.onlyType(TypeArray)
	switch {
	case objectish && arrayish:
		c.fail(ptr, "schema node cannot describe both an object and an array")
	case objectish:
		s.Variant = VariantObject
		c.object(s, d, props, ptr)
	case arrayish:
		s.Variant = VariantArray
		if hasItems {
			s.Items = c.node(items, ptr+"/items")
		}
	default:
		s.Variant = VariantScalar
	}

	c.constraints(s, d, ptr)
	return s
}

// onlyType reports whether t is declared and no other structured type is.
func (s *Schema) onlyType(t Type) bool {
	found := false
	for _, have := range s.Types {
		switch have {
		case t:
			found = true
		case TypeObject, TypeArray:
			return false
		}
	}
	return found
}

func (c *compiler) object(s *Schema, d, props *document.Document, ptr string) {
	required := map[string]bool{}
	var requiredOrder []string
	if r, ok := d.Get("required"); ok {
		for _, it := range r.Items() {
			name := it.StringValue()
			if !required[name] {
				requiredOrder = append(requiredOrder, name)
			}
			required[name] = true
		}
	}

	declared := map[string]bool{}
	for _, f := range props.Fields() {
		declared[f.Key] = true
		s.Fields = append(s.Fields, Field{
			Name:     f.Key,
			Required: required[f.Key],
			Schema:   c.node(f.Value, ptr+"/properties/"+escapePointer(f.Key)),
		})
	}
	// Required names without a property declaration accept any value.
	for _, name := range requiredOrder {
		if !declared[name] {
			s.Fields = append(s.Fields, Field{Name: name, Required: true})
		}
	}

	s.Closed = c.opts.Strict
	if ap, ok := d.Get("additionalProperties"); ok && ap.Kind() == document.KindBool {
		s.Closed = !ap.BoolValue()
	}
}

func (c *compiler) constraints(s *Schema, d *document.Document, ptr string) {
	cs := &s.Constraints

	if e, ok := d.Get("enum"); ok {
		cs.Enum = append(cs.Enum, e.Items()...)
	}

	cs.Minimum = c.number(d, "minimum", ptr)
	cs.Maximum = c.number(d, "maximum", ptr)
	cs.ExclusiveMinimum = c.number(d, "exclusiveMinimum", ptr)
	cs.ExclusiveMaximum = c.number(d, "exclusiveMaximum", ptr)
	cs.MinLength = c.count(d, "minLength", ptr)
	cs.MaxLength = c.count(d, "maxLength", ptr)
	cs.MinItems = c.count(d, "minItems", ptr)
	cs.MaxItems = c.count(d, "maxItems", ptr)

	if p, ok := d.Get("pattern"); ok {
		re, err := regexp.Compile(p.StringValue())
		if err != nil {
			c.fail(ptr+"/pattern", "invalid pattern: %v", err)
		} else {
			cs.Pattern = re
		}
	}

	if cs.Minimum != nil && cs.Maximum != nil && *cs.Minimum > *cs.Maximum {
		c.fail(ptr, "minimum %v is greater than maximum %v", *cs.Minimum, *cs.Maximum)
	}
	if cs.MinLength != nil && cs.MaxLength != nil && *cs.MinLength > *cs.MaxLength {
		c.fail(ptr, "minLength %d is greater than maxLength %d", *cs.MinLength, *cs.MaxLength)
	}
	if cs.MinItems != nil && cs.MaxItems != nil && *cs.MinItems > *cs.MaxItems {
		c.fail(ptr, "minItems %d is greater than maxItems %d", *cs.MinItems, *cs.MaxItems)
	}
}

func (c *compiler) number(d *document.Document, key, ptr string) *float64 {
	v, ok := d.Get(key)
	if !ok {
		return nil
	}
	f, ok := v.Float64()
	if !ok {
		c.fail(ptr+"/"+key, "must be a number")
		return nil
	}
	return &f
}

func (c *compiler) count(d *document.Document, key, ptr string) *int {
	v, ok := d.Get(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v.NumberLiteral().String())
	if err != nil || n < 0 {
		c.fail(ptr+"/"+key, "must be a non-negative integer")
		return nil
	}
	return &n
}

// escapePointer escapes a property name for use in a JSON pointer.
func escapePointer(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}
