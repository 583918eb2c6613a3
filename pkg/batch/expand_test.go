package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		p := filepath.Join(root, filepath.FromSlash(n))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("{}"), 0o644))
	}
}

func TestExpand(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.json", "b.yaml", "notes.txt", "nested/c.json", "nested/deep/d.xml")
	j := func(parts ...string) string { return filepath.Join(append([]string{root}, parts...)...) }

	tests := []struct {
		name   string
		inputs []string
		want   []string
	}{
		{
			name:   "literal paths pass through",
			inputs: []string{j("a.json"), j("missing.json")},
			want:   []string{j("a.json"), j("missing.json")},
		},
		{
			name:   "single star",
			inputs: []string{j("*.json")},
			want:   []string{j("a.json")},
		},
		{
			name:   "double star",
			inputs: []string{j("**", "*.json")},
			want:   []string{j("a.json"), j("nested", "c.json")},
		},
		{
			name:   "directory",
			inputs: []string{root},
			want:   []string{j("a.json"), j("b.yaml"), j("nested", "c.json"), j("nested", "deep", "d.xml")},
		},
		{
			name:   "uris and dedupe",
			inputs: []string{"s3://bucket/x.json", j("a.json"), "s3://bucket/x.json", j("*.json")},
			want:   []string{"s3://bucket/x.json", j("a.json")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.inputs, ExpandOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpand_Errors(t *testing.T) {
	root := t.TempDir()

	_, err := Expand([]string{filepath.Join(root, "*.yaml")}, ExpandOptions{})
	assert.ErrorIs(t, err, ErrNoMatch)

	_, err = Expand([]string{filepath.Join(root, "[.json")}, ExpandOptions{})
	assert.ErrorIs(t, err, ErrInvalidPattern)

	_, err = Expand([]string{root}, ExpandOptions{Exclude: []string{"[bad"}})
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestExpand_Filters(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.json", ".draft.json", "app.schema.json", "fixtures/x.json", "nested/.cache/y.json", "nested/z.yaml")
	j := func(parts ...string) string { return filepath.Join(append([]string{root}, parts...)...) }

	tests := []struct {
		name   string
		inputs []string
		opts   ExpandOptions
		want   []string
	}{
		{
			name:   "hidden and schema files skipped in directories",
			inputs: []string{root},
			want:   []string{j("a.json"), j("fixtures", "x.json"), j("nested", "z.yaml")},
		},
		{
			name:   "hidden and schema files skipped in globs",
			inputs: []string{j("**", "*.json")},
			want:   []string{j("a.json"), j("fixtures", "x.json")},
		},
		{
			name:   "include hidden",
			inputs: []string{j("*.json")},
			opts:   ExpandOptions{IncludeHidden: true},
			want:   []string{j(".draft.json"), j("a.json")},
		},
		{
			name:   "include schemas",
			inputs: []string{root},
			opts:   ExpandOptions{IncludeSchemas: true},
			want:   []string{j("a.json"), j("app.schema.json"), j("fixtures", "x.json"), j("nested", "z.yaml")},
		},
		{
			name:   "glob naming schema files keeps them",
			inputs: []string{j("*.schema.json")},
			want:   []string{j("app.schema.json")},
		},
		{
			name:   "exclude by base name and path",
			inputs: []string{root},
			opts:   ExpandOptions{Exclude: []string{"*.schema.json", "fixtures/**"}, IncludeSchemas: true},
			want:   []string{j("a.json"), j("nested", "z.yaml")},
		},
		{
			name:   "explicit paths are never filtered",
			inputs: []string{j(".draft.json"), j("app.schema.json")},
			opts:   ExpandOptions{Exclude: []string{"*.schema.json"}},
			want:   []string{j(".draft.json"), j("app.schema.json")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Expand(tt.inputs, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
