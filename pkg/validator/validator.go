// Package validator compares structured documents against schemas.
//
// A Validator reads one input, parses it in the declared or inferred format,
// and walks it against a pre-loaded schema. Data deviations become
// Violations in a Report; only unreadable or unparseable inputs fail.
package validator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/3leaps/fsdv/pkg/document"
	"github.com/3leaps/fsdv/pkg/schema"
	"github.com/3leaps/fsdv/pkg/source"
)

// ErrIO is the sentinel wrapped by every IOError.
var ErrIO = errors.New("cannot read input")

// IOError reports an input that could not be read.
type IOError struct {
	Location string
	Err      error
}

// Error implements the error interface.
func (e *IOError) Error() string {
	return fmt.Sprintf("cannot read %s: %v", e.Location, e.Err)
}

// Unwrap allows errors.Is(err, ErrIO) and inspection of the cause.
func (e *IOError) Unwrap() []error {
	return []error{ErrIO, e.Err}
}

// Validator validates inputs against schemas. It holds no per-input state
// and is safe for concurrent use.
type Validator struct {
	reader source.Reader
	logger *zap.Logger
	coerce bool
}

// Option configures a Validator.
type Option func(*Validator)

// WithReader sets the input reader. The default reads local files only.
func WithReader(r source.Reader) Option {
	return func(v *Validator) {
		if r != nil {
			v.reader = r
		}
	}
}

// WithLogger sets the debug logger.
func WithLogger(l *zap.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithCoerce enables text coercion for every format, not only XML.
func WithCoerce(enabled bool) Option {
	return func(v *Validator) {
		v.coerce = enabled
	}
}

// New creates a Validator.
func New(opts ...Option) *Validator {
	v := &Validator{
		reader: source.NewFileReader(source.DefaultMaxBytes),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate reads the input at location and compares it against s.
//
// format may be document.FormatAuto to infer it from the extension.
// Returns an error wrapping ErrIO, document.ErrParse or
// document.ErrUnknownFormat; violations never cause an error.
func (v *Validator) Validate(ctx context.Context, location string, format document.Format, s *schema.Schema) (*Report, error) {
	resolved, err := format.Resolve(location)
	if err != nil {
		return nil, err
	}

	data, err := v.reader.ReadAll(ctx, location)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, err
		}
		return nil, &IOError{Location: location, Err: err}
	}

	v.logger.Debug("read input",
		zap.String("source", location),
		zap.String("format", resolved.String()),
		zap.Int("bytes", len(data)),
	)

	return v.ValidateBytes(data, location, resolved, s)
}

// ValidateBytes parses in-memory content and compares it against s.
// name labels the report and is used to infer an automatic format.
func (v *Validator) ValidateBytes(data []byte, name string, format document.Format, s *schema.Schema) (*Report, error) {
	resolved, err := format.Resolve(name)
	if err != nil {
		return nil, err
	}

	doc, err := document.Parse(resolved, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return v.ValidateDocument(doc, name, resolved, s), nil
}

// ValidateDocument compares an already parsed document against s.
func (v *Validator) ValidateDocument(doc *document.Document, name string, format document.Format, s *schema.Schema) *Report {
	opts := CompareOptions{Coerce: v.coerce || format == document.FormatXML}
	report := NewReport(name, format, Compare(doc, s, opts))

	v.logger.Debug("compared document",
		zap.String("source", name),
		zap.Bool("valid", report.Valid()),
		zap.Int("violations", len(report.Violations)),
	)
	return report
}
