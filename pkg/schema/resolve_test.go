package schema

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSiblingPath(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "app.yaml")

	_, err := SiblingPath(input)
	assert.ErrorIs(t, err, ErrNoSchema)

	yml := filepath.Join(dir, "app.schema.yml")
	require.NoError(t, os.WriteFile(yml, []byte("type: object\n"), 0o644))
	got, err := SiblingPath(input)
	require.NoError(t, err)
	assert.Equal(t, yml, got)

	// .schema.json wins over .schema.yml.
	js := filepath.Join(dir, "app.schema.json")
	require.NoError(t, os.WriteFile(js, []byte(`{"type":"object"}`), 0o644))
	got, err = SiblingPath(input)
	require.NoError(t, err)
	assert.Equal(t, js, got)
}

func TestCache_LoadOnce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.schema.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"object","properties":{"a":{"type":"string"}}}`), 0o644))

	c := NewCache(LoadOptions{Strict: true})

	var wg sync.WaitGroup
	results := make([]*Schema, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := c.Load(path)
			assert.NoError(t, err)
			results[i] = s
		}()
	}
	wg.Wait()

	for _, s := range results {
		assert.Same(t, results[0], s)
	}
	assert.True(t, results[0].Closed)
}

func TestCache_ForInput(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cfg.schema.yaml"), []byte("type: object\nrequired: [name]\n"), 0o644))

	c := NewCache(LoadOptions{})
	s, err := c.ForInput(filepath.Join(dir, "cfg.json"))
	require.NoError(t, err)
	require.Len(t, s.Fields, 1)
	assert.Equal(t, "name", s.Fields[0].Name)

	_, err = c.ForInput(filepath.Join(dir, "other.json"))
	assert.ErrorIs(t, err, ErrNoSchema)
}

func TestIsSchemaFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"app.schema.json", true},
		{"deploy/app.schema.yml", true},
		{"APP.SCHEMA.YAML", true},
		{"app.json", false},
		{"schema.json", false},
		{"app.schema.xml", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSchemaFile(tt.name))
		})
	}
}
