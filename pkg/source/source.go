// Package source reads input files by location.
//
// A location is either a local filesystem path or an object URI such as
// s3://bucket/key. Readers return the complete content; validation needs the
// whole document in memory anyway.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxBytes bounds how much of a single input is read.
const DefaultMaxBytes int64 = 64 << 20

// Reader reads whole inputs by location.
//
// Implementations must be safe for concurrent use.
type Reader interface {
	ReadAll(ctx context.Context, location string) ([]byte, error)
}

// ObjectGetter downloads objects from a single bucket as a stream.
type ObjectGetter interface {
	GetObject(ctx context.Context, key string) (body io.ReadCloser, contentLength int64, err error)
}

// Scheme identifies where a location lives.
type Scheme string

const (
	// SchemeFile is the local filesystem.
	SchemeFile Scheme = "file"

	// SchemeS3 is AWS S3 or S3-compatible storage.
	SchemeS3 Scheme = "s3"
)

// String returns the string representation of the scheme.
func (s Scheme) String() string {
	return string(s)
}

// Sentinel errors for read operations.
var (
	// ErrNotFound indicates the file or object does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAccessDenied indicates insufficient permissions.
	ErrAccessDenied = errors.New("access denied")

	// ErrIsDirectory indicates the location names a directory.
	ErrIsDirectory = errors.New("is a directory")

	// ErrTooLarge indicates the input exceeds the configured size limit.
	ErrTooLarge = errors.New("input too large")

	// ErrBucketNotFound indicates the bucket does not exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrInvalidCredentials indicates authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnavailable indicates the storage service is unavailable.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrThrottled indicates the request was rate limited by the service.
	ErrThrottled = errors.New("request throttled")
)

// Error wraps read failures with context.
type Error struct {
	// Op is the operation that failed (e.g., "Open", "GetObject").
	Op string

	// Scheme is where the location lives.
	Scheme Scheme

	// Location is the path or URI, if applicable.
	Location string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("%s %s: %s: %v", e.Scheme, e.Op, e.Location, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Scheme, e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound returns true if the error indicates the input was not found.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrBucketNotFound)
}

// IsAccessDenied returns true if the error indicates insufficient permissions.
func IsAccessDenied(err error) bool {
	return errors.Is(err, ErrAccessDenied) || errors.Is(err, ErrInvalidCredentials)
}

// readLimited reads r fully, failing once more than max bytes arrive.
func readLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		max = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrTooLarge, max)
	}
	return data, nil
}
