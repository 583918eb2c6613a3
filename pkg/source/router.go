package source

import (
	"context"
	"fmt"
	"sync"
)

// GetterFactory creates an ObjectGetter bound to one bucket.
type GetterFactory func(ctx context.Context, bucket string) (ObjectGetter, error)

// Router reads local paths with a FileReader and object URIs with getters
// created on first use, one per bucket.
type Router struct {
	files    *FileReader
	factory  GetterFactory
	maxBytes int64

	mu      sync.Mutex
	getters map[string]ObjectGetter
}

var _ Reader = (*Router)(nil)

// NewRouter returns a Router. A nil factory rejects object URIs.
func NewRouter(maxBytes int64, factory GetterFactory) *Router {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Router{
		files:    NewFileReader(maxBytes),
		factory:  factory,
		maxBytes: maxBytes,
		getters:  map[string]ObjectGetter{},
	}
}

// ReadAll reads a local path or object URI.
func (r *Router) ReadAll(ctx context.Context, location string) ([]byte, error) {
	if !IsURI(location) {
		return r.files.ReadAll(ctx, location)
	}

	uri, err := ParseURI(location)
	if err != nil {
		return nil, err
	}

	getter, err := r.getter(ctx, uri.Bucket)
	if err != nil {
		return nil, err
	}

	body, _, err := getter.GetObject(ctx, uri.Key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	data, err := readLimited(body, r.maxBytes)
	if err != nil {
		return nil, &Error{Op: "Read", Scheme: uri.Scheme, Location: location, Err: err}
	}
	return data, nil
}

func (r *Router) getter(ctx context.Context, bucket string) (ObjectGetter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.getters[bucket]; ok {
		return g, nil
	}
	if r.factory == nil {
		return nil, fmt.Errorf("%w: object storage is not configured", ErrUnsupportedScheme)
	}
	g, err := r.factory(ctx, bucket)
	if err != nil {
		return nil, err
	}
	r.getters[bucket] = g
	return g, nil
}
