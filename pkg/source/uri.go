package source

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// URI parsing errors
var (
	// ErrInvalidURI indicates the URI could not be parsed.
	ErrInvalidURI = errors.New("invalid URI")

	// ErrUnsupportedScheme indicates the URI scheme is not supported.
	ErrUnsupportedScheme = errors.New("unsupported scheme")

	// ErrMissingBucket indicates the URI is missing a bucket name.
	ErrMissingBucket = errors.New("missing bucket name")
)

// ObjectURI is a parsed object storage location.
//
// Example URIs:
//   - s3://bucket/key/path.json
//   - s3://bucket/configs/app.yaml
type ObjectURI struct {
	// Scheme is the storage scheme (e.g., "s3").
	Scheme Scheme

	// Bucket is the bucket name.
	Bucket string

	// Key is the object key.
	Key string
}

// String returns the URI in canonical form.
func (u *ObjectURI) String() string {
	return fmt.Sprintf("%s://%s/%s", u.Scheme, u.Bucket, u.Key)
}

// IsURI reports whether location carries a scheme prefix. Local paths,
// including Windows drive paths, do not.
func IsURI(location string) bool {
	i := strings.Index(location, "://")
	return i > 1
}

// ParseURI parses an object URI into its components.
//
// Returns an error if the URI is malformed, uses an unsupported scheme, or
// names no object key.
func ParseURI(uri string) (*ObjectURI, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: empty URI", ErrInvalidURI)
	}

	schemeEnd := strings.Index(uri, "://")
	if schemeEnd == -1 {
		return nil, fmt.Errorf("%w: missing scheme (expected s3://...)", ErrInvalidURI)
	}

	scheme := Scheme(strings.ToLower(uri[:schemeEnd]))
	if scheme != SchemeS3 {
		return nil, fmt.Errorf("%w: %s (supported: s3)", ErrUnsupportedScheme, scheme)
	}

	remainder := uri[schemeEnd+3:]
	if remainder == "" {
		return nil, fmt.Errorf("%w: in %s", ErrMissingBucket, uri)
	}

	bucket, key, _ := strings.Cut(remainder, "/")
	if bucket == "" {
		return nil, fmt.Errorf("%w: in %s", ErrMissingBucket, uri)
	}

	// Basic validation; S3 bucket names can't contain most special chars.
	if _, err := url.Parse("s3://" + bucket + "/"); err != nil {
		return nil, fmt.Errorf("%w: invalid bucket name %q", ErrInvalidURI, bucket)
	}

	if key == "" || strings.HasSuffix(key, "/") {
		return nil, fmt.Errorf("%w: %s does not name an object", ErrInvalidURI, uri)
	}

	return &ObjectURI{Scheme: scheme, Bucket: bucket, Key: key}, nil
}
