package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrNoSchema indicates no schema was supplied and none sits beside the input.
var ErrNoSchema = errors.New("no schema found")

// SiblingExtensions are tried in order when looking for a schema next to
// an input file.
var SiblingExtensions = []string{".schema.json", ".schema.yaml", ".schema.yml"}

// IsSchemaFile reports whether name ends in one of SiblingExtensions.
func IsSchemaFile(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range SiblingExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// SiblingPath returns the schema file stored beside input: data/app.yaml
// pairs with data/app.schema.json (or .schema.yaml / .schema.yml).
func SiblingPath(input string) (string, error) {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	for _, ext := range SiblingExtensions {
		candidate := base + ext
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w for %s (looked for %s.schema.{json,yaml,yml})", ErrNoSchema, input, base)
}

// Cache loads each schema file at most once. It is safe for concurrent use.
type Cache struct {
	opts LoadOptions

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	once   sync.Once
	schema *Schema
	err    error
}

// NewCache returns an empty cache reading and compiling with opts.
func NewCache(opts LoadOptions) *Cache {
	return &Cache{opts: opts, entries: map[string]*cacheEntry{}}
}

// Load returns the compiled schema at path, loading it on first use.
func (c *Cache) Load(path string) (*Schema, error) {
	c.mu.Lock()
	e, ok := c.entries[path]
	if !ok {
		e = &cacheEntry{}
		c.entries[path] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.schema, e.err = Load(path, c.opts)
	})
	return e.schema, e.err
}

// ForInput resolves and loads the sibling schema of input.
func (c *Cache) ForInput(input string) (*Schema, error) {
	path, err := SiblingPath(input)
	if err != nil {
		return nil, err
	}
	return c.Load(path)
}
