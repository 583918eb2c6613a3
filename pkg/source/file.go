package source

import (
	"context"
	"errors"
	"io/fs"
	"os"
)

// FileReader reads local files.
type FileReader struct {
	maxBytes int64
}

var _ Reader = (*FileReader)(nil)

// NewFileReader returns a reader for local paths. A non-positive maxBytes
// uses DefaultMaxBytes.
func NewFileReader(maxBytes int64) *FileReader {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &FileReader{maxBytes: maxBytes}
}

// ReadAll reads the file at path.
func (r *FileReader) ReadAll(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, r.wrapError("Open", path, err)
	}
	defer func() { _ = f.Close() }()

	st, err := f.Stat()
	if err != nil {
		return nil, r.wrapError("Stat", path, err)
	}
	if st.IsDir() {
		return nil, &Error{Op: "Open", Scheme: SchemeFile, Location: path, Err: ErrIsDirectory}
	}

	data, err := readLimited(f, r.maxBytes)
	if err != nil {
		return nil, r.wrapError("Read", path, err)
	}
	return data, nil
}

func (r *FileReader) wrapError(op, path string, err error) error {
	wrapped := &Error{Op: op, Scheme: SchemeFile, Location: path, Err: err}
	switch {
	case errors.Is(err, fs.ErrNotExist):
		wrapped.Err = ErrNotFound
	case errors.Is(err, fs.ErrPermission):
		wrapped.Err = ErrAccessDenied
	}
	return wrapped
}
