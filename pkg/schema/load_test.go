package schema

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3leaps/fsdv/pkg/source"
)

func personSchemaJSON() string {
	return `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "person",
  "type": "object",
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "age": {"type": "integer", "minimum": 0, "maximum": 150},
    "email": {"type": ["string", "null"], "pattern": "^[^@]+@[^@]+$"},
    "role": {"enum": ["admin", "user"]},
    "tags": {"type": "array", "items": {"type": "string"}, "maxItems": 3}
  },
  "required": ["name", "age", "id"],
  "additionalProperties": false
}`
}

func personSchemaYAML() string {
	return `type: object
properties:
  name:
    type: string
  age:
    type: number
required: [name]
`
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_JSON(t *testing.T) {
	s, err := Load(writeFile(t, "person.schema.json", personSchemaJSON()), LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, VariantObject, s.Variant)
	assert.True(t, s.Closed)
	assert.Equal(t, "person", s.Title)

	var names []string
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"name", "age", "email", "role", "tags", "id"}, names, "declaration order, then undeclared required names")

	name, ok := s.Field("name")
	require.True(t, ok)
	assert.True(t, name.Required)
	require.NotNil(t, name.Schema.Constraints.MinLength)
	assert.Equal(t, 1, *name.Schema.Constraints.MinLength)

	age, _ := s.Field("age")
	assert.Equal(t, []Type{TypeInteger}, age.Schema.Types)
	assert.Equal(t, 150.0, *age.Schema.Constraints.Maximum)

	email, _ := s.Field("email")
	assert.False(t, email.Required)
	assert.Equal(t, "string|null", email.Schema.TypeNames())
	assert.NotNil(t, email.Schema.Constraints.Pattern)

	role, _ := s.Field("role")
	assert.Equal(t, VariantScalar, role.Schema.Variant)
	assert.False(t, role.Schema.DeclaresType())
	assert.Len(t, role.Schema.Constraints.Enum, 2)

	tags, _ := s.Field("tags")
	assert.Equal(t, VariantArray, tags.Schema.Variant)
	require.NotNil(t, tags.Schema.Items)
	assert.Equal(t, []Type{TypeString}, tags.Schema.Items.Types)

	id, _ := s.Field("id")
	assert.True(t, id.Required)
	assert.Nil(t, id.Schema)
}

func TestLoad_YAML(t *testing.T) {
	s, err := Load(writeFile(t, "person.schema.yaml", personSchemaYAML()), LoadOptions{})
	require.NoError(t, err)

	assert.Equal(t, VariantObject, s.Variant)
	assert.False(t, s.Closed, "objects are open unless stated otherwise")
	require.Len(t, s.Fields, 2)
	assert.Equal(t, "name", s.Fields[0].Name)
	assert.True(t, s.Fields[0].Required)
	assert.False(t, s.Fields[1].Required)
}

func TestLoad_StrictClosesObjects(t *testing.T) {
	s, err := Load(writeFile(t, "s.yaml", personSchemaYAML()), LoadOptions{Strict: true})
	require.NoError(t, err)
	assert.True(t, s.Closed)

	open := `type: object
additionalProperties: true
properties:
  a: {type: string}
`
	s, err = Load(writeFile(t, "open.yaml", open), LoadOptions{Strict: true})
	require.NoError(t, err)
	assert.False(t, s.Closed, "explicit additionalProperties wins over strict")
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name         string
		file         string
		content      string
		isValidation bool
	}{
		{name: "empty", file: "s.json", content: "  "},
		{name: "malformed json", file: "s.json", content: `{"type": "object"`},
		{name: "unknown type", file: "s.yaml", content: "type: text\n", isValidation: true},
		{name: "unsupported keyword", file: "s.yaml", content: "type: object\noneOf: []\n", isValidation: true},
		{name: "bad count", file: "s.yaml", content: "type: string\nminLength: -1\n", isValidation: true},
		{name: "bad pattern", file: "s.yaml", content: "type: string\npattern: '(['\n", isValidation: true},
		{name: "min above max", file: "s.yaml", content: "type: number\nminimum: 5\nmaximum: 1\n", isValidation: true},
		{name: "object and array", file: "s.yaml", content: "properties: {}\nitems: {}\n", isValidation: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content), LoadOptions{})
			require.Error(t, err)
			if tt.isValidation {
				assert.True(t, errors.Is(err, ErrValidationFailed), "got %v", err)
			}
		})
	}
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"), LoadOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, source.ErrNotFound))
}

// memReader serves schema content from memory, standing in for object
// storage.
type memReader map[string]string

func (m memReader) ReadAll(_ context.Context, location string) ([]byte, error) {
	data, ok := m[location]
	if !ok {
		return nil, &source.Error{Op: "GetObject", Scheme: source.SchemeS3, Location: location, Err: source.ErrNotFound}
	}
	return []byte(data), nil
}

func TestLoadContext_Reader(t *testing.T) {
	small := writeFile(t, "small.schema.json", `{"type": "string"}`)
	large := writeFile(t, "large.schema.json", `{"type": "object", "description": "`+strings.Repeat("x", 4096)+`"}`)
	remote := memReader{"s3://schemas/person.schema.yaml": personSchemaYAML()}

	tests := []struct {
		name     string
		location string
		opts     LoadOptions
		wantErr  error
		variant  Variant
	}{
		{name: "local file under cap", location: small, opts: LoadOptions{Reader: source.NewFileReader(1024)}, variant: VariantScalar},
		{name: "local file over cap", location: large, opts: LoadOptions{Reader: source.NewFileReader(1024)}, wantErr: source.ErrTooLarge},
		{name: "object uri", location: "s3://schemas/person.schema.yaml", opts: LoadOptions{Reader: remote}, variant: VariantObject},
		{name: "missing object", location: "s3://schemas/absent.schema.json", opts: LoadOptions{Reader: remote}, wantErr: source.ErrNotFound},
		{name: "xsd rejected", location: "person.xsd", wantErr: ErrUnsupportedLanguage},
		{name: "xsd rejected before reading", location: "s3://schemas/person.XSD", opts: LoadOptions{Reader: remote}, wantErr: ErrUnsupportedLanguage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := LoadContext(context.Background(), tt.location, tt.opts)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.variant, s.Variant)
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	one := ValidationErrors{{Path: "/type", Message: "bad"}}
	assert.Equal(t, "/type: bad", one.Error())

	two := ValidationErrors{{Path: "/a", Message: "x"}, {Message: "y"}}
	assert.Contains(t, two.Error(), "2 errors")
	assert.Contains(t, two.Error(), "  - y")
}
